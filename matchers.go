package rendertheme

// Wildcard in a key or value list makes the matcher accept anything.
// NegationValue in a value list makes the matcher accept a feature only when
// it carries none of the rule's keys.
const (
	Wildcard      = "*"
	NegationValue = "~"
)

// ElementMatcher filters on the kind of feature (node or way).
type ElementMatcher interface {
	MatchesElement(element Element) bool
}

// ClosedMatcher filters on a way's closed-state. Node matching skips this
// filter entirely.
type ClosedMatcher interface {
	MatchesClosed(closed Closed) bool
}

// AttributeMatcher is a predicate over a feature's tag list.
type AttributeMatcher interface {
	MatchesTags(tags []Tag) bool
}

type anyMatcher struct{}

func (anyMatcher) MatchesElement(element Element) bool { return true }
func (anyMatcher) MatchesClosed(closed Closed) bool    { return true }
func (anyMatcher) MatchesTags(tags []Tag) bool         { return true }

// matchesAny satisfies all three matcher interfaces and accepts everything.
var matchesAny = anyMatcher{}

type elementNodeMatcher struct{}

func (elementNodeMatcher) MatchesElement(element Element) bool {
	return element == ElementNode || element == ElementAny
}

type elementWayMatcher struct{}

func (elementWayMatcher) MatchesElement(element Element) bool {
	return element == ElementWay || element == ElementAny
}

func newElementMatcher(element Element) ElementMatcher {
	switch element {
	case ElementNode:
		return elementNodeMatcher{}
	case ElementWay:
		return elementWayMatcher{}
	default:
		return matchesAny
	}
}

type closedWayMatcher struct{}

func (closedWayMatcher) MatchesClosed(closed Closed) bool { return closed == ClosedYes }

type linearWayMatcher struct{}

func (linearWayMatcher) MatchesClosed(closed Closed) bool { return closed == ClosedNo }

func newClosedMatcher(closed Closed) ClosedMatcher {
	switch closed {
	case ClosedYes:
		return closedWayMatcher{}
	case ClosedNo:
		return linearWayMatcher{}
	default:
		return matchesAny
	}
}

// keyMatcher accepts a feature carrying any tag whose key is in the list.
type keyMatcher struct {
	keys []string
}

func (m *keyMatcher) MatchesTags(tags []Tag) bool {
	return tagsContainKey(tags, m.keys)
}

func newKeyMatcher(keys []string) AttributeMatcher {
	for _, key := range keys {
		if key == Wildcard {
			return matchesAny
		}
	}
	return &keyMatcher{keys}
}

// valueMatcher accepts a feature carrying a tag whose key is in the rule's
// key list and whose value is in the value list.
type valueMatcher struct {
	keys   []string
	values []string
}

func (m *valueMatcher) MatchesTags(tags []Tag) bool {
	for _, tag := range tags {
		for _, key := range m.keys {
			if key != Wildcard && tag.Key != key {
				continue
			}
			for _, value := range m.values {
				if tag.Value == value {
					return true
				}
			}
		}
	}
	return false
}

// negativeMatcher accepts a feature that carries none of the keys at all, or
// one of the listed literal values for them.
type negativeMatcher struct {
	keys   []string
	values []string
}

func (m *negativeMatcher) MatchesTags(tags []Tag) bool {
	if !tagsContainKey(tags, m.keys) {
		return true
	}
	literalMatcher := valueMatcher{m.keys, m.values}
	return literalMatcher.MatchesTags(tags)
}

func newValueMatcher(keys, values []string) AttributeMatcher {
	var literals []string
	negation := false
	for _, value := range values {
		switch value {
		case Wildcard:
			return matchesAny
		case NegationValue:
			negation = true
		default:
			literals = append(literals, value)
		}
	}

	if negation {
		return &negativeMatcher{keys, literals}
	}
	return &valueMatcher{keys, literals}
}
