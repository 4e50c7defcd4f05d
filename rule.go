package rendertheme

import (
	"github.com/jamesrr39/goutil/errorsx"
)

// RuleKind selects the rule's matching behaviour. A positive rule that
// matches appends its instructions and descends into its children. A negative
// rule that matches is a veto: it appends nothing, never descends, and stops
// evaluation of its later siblings for that feature.
type RuleKind int

const (
	RuleKindPositive RuleKind = iota
	RuleKindNegative
)

func (k RuleKind) String() string {
	if k == RuleKindNegative {
		return "negative"
	}
	return "positive"
}

// RuleOptions is the shape the theme-building collaborator hands over for
// each node of the style tree. Keys and Values are already split into lists;
// "*" and "~" carry their wildcard/negation meanings.
type RuleOptions struct {
	Kind    RuleKind
	Element Element
	Closed  Closed
	Keys    []string
	Values  []string
	ZoomMin ZoomLevel
	ZoomMax ZoomLevel
}

// Rule is one node of the style tree. The tree shape is fixed after theme
// load; only the per-zoom scale state inside attached instructions mutates.
type Rule struct {
	kind             RuleKind
	zoomMin, zoomMax ZoomLevel
	element          Element
	closed           Closed
	elementMatcher   ElementMatcher
	closedMatcher    ClosedMatcher
	attributeMatcher AttributeMatcher

	keys, values []string // kept for tooling dumps

	instructions []RenderInstruction
	subRules     []*Rule
}

func NewRule(opts RuleOptions) (*Rule, errorsx.Error) {
	if len(opts.Keys) == 0 && len(opts.Values) != 0 {
		return nil, errorsx.Errorf("rule has values %v but no keys to match them against", opts.Values)
	}

	keys := opts.Keys
	if len(keys) == 0 {
		keys = []string{Wildcard}
	}
	values := opts.Values
	if len(values) == 0 {
		values = []string{Wildcard}
	}

	return &Rule{
		kind:             opts.Kind,
		zoomMin:          opts.ZoomMin,
		zoomMax:          opts.ZoomMax,
		element:          opts.Element,
		closed:           opts.Closed,
		elementMatcher:   newElementMatcher(opts.Element),
		closedMatcher:    newClosedMatcher(opts.Closed),
		attributeMatcher: newAttributeMatcher(keys, values),
		keys:             keys,
		values:           values,
	}, nil
}

// newAttributeMatcher combines the key and value predicates. Wildcard-only
// lists collapse to matchesAny so the common catch-all rules cost nothing.
func newAttributeMatcher(keys, values []string) AttributeMatcher {
	byKey := newKeyMatcher(keys)
	byValue := newValueMatcher(keys, values)

	_, keyIsAny := byKey.(anyMatcher)
	_, valueIsAny := byValue.(anyMatcher)
	if keyIsAny && valueIsAny {
		return matchesAny
	}

	return &combinedMatcher{byKey, byValue}
}

type combinedMatcher struct {
	keyMatcher   AttributeMatcher
	valueMatcher AttributeMatcher
}

func (m *combinedMatcher) MatchesTags(tags []Tag) bool {
	return m.keyMatcher.MatchesTags(tags) && m.valueMatcher.MatchesTags(tags)
}

func (r *Rule) AddSubRule(child *Rule) {
	r.subRules = append(r.subRules, child)
}

func (r *Rule) AddRenderInstruction(instruction RenderInstruction) {
	r.instructions = append(r.instructions, instruction)
}

func (r *Rule) Kind() RuleKind     { return r.kind }
func (r *Rule) ZoomMin() ZoomLevel { return r.zoomMin }
func (r *Rule) ZoomMax() ZoomLevel { return r.zoomMax }
func (r *Rule) Element() Element   { return r.element }
func (r *Rule) Closed() Closed     { return r.closed }
func (r *Rule) Keys() []string     { return r.keys }
func (r *Rule) Values() []string   { return r.values }
func (r *Rule) SubRules() []*Rule  { return r.subRules }

func (r *Rule) RenderInstructions() []RenderInstruction { return r.instructions }

func (r *Rule) zoomContains(zoomLevel ZoomLevel) bool {
	// a rule with zoomMin > zoomMax simply never matches
	return r.zoomMin <= zoomLevel && zoomLevel <= r.zoomMax
}

func (r *Rule) matchesNode(tags []Tag, zoomLevel ZoomLevel) bool {
	return r.zoomContains(zoomLevel) &&
		r.elementMatcher.MatchesElement(ElementNode) &&
		r.attributeMatcher.MatchesTags(tags)
}

func (r *Rule) matchesWay(tags []Tag, zoomLevel ZoomLevel, closed Closed) bool {
	return r.zoomContains(zoomLevel) &&
		r.elementMatcher.MatchesElement(ElementWay) &&
		r.closedMatcher.MatchesClosed(closed) &&
		r.attributeMatcher.MatchesTags(tags)
}

// matchNode appends this rule's instructions and its matching descendants'
// instructions to out, in paint order. The returned flag reports whether this
// rule vetoed the feature, which stops the caller's sibling loop.
func (r *Rule) matchNode(tags []Tag, zoomLevel ZoomLevel, out *[]RenderInstruction) (vetoed bool) {
	if !r.matchesNode(tags, zoomLevel) {
		return false
	}

	if r.kind == RuleKindNegative {
		return true
	}

	*out = append(*out, r.instructions...)
	for _, subRule := range r.subRules {
		if subRule.matchNode(tags, zoomLevel, out) {
			break
		}
	}
	return false
}

func (r *Rule) matchWay(tags []Tag, zoomLevel ZoomLevel, closed Closed, out *[]RenderInstruction) (vetoed bool) {
	if !r.matchesWay(tags, zoomLevel, closed) {
		return false
	}

	if r.kind == RuleKindNegative {
		return true
	}

	*out = append(*out, r.instructions...)
	for _, subRule := range r.subRules {
		if subRule.matchWay(tags, zoomLevel, closed, out) {
			break
		}
	}
	return false
}

func (r *Rule) scaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) {
	if !r.zoomContains(zoomLevel) {
		return
	}
	for _, instruction := range r.instructions {
		instruction.ScaleStrokeWidth(scaleFactor, zoomLevel)
	}
	for _, subRule := range r.subRules {
		subRule.scaleStrokeWidth(scaleFactor, zoomLevel)
	}
}

func (r *Rule) scaleTextSize(scaleFactor float64, zoomLevel ZoomLevel) {
	if !r.zoomContains(zoomLevel) {
		return
	}
	for _, instruction := range r.instructions {
		instruction.ScaleTextSize(scaleFactor, zoomLevel)
	}
	for _, subRule := range r.subRules {
		subRule.scaleTextSize(scaleFactor, zoomLevel)
	}
}

// onComplete trims over-allocated slices once the tree shape is final.
func (r *Rule) onComplete() {
	r.instructions = compactInstructions(r.instructions)
	r.subRules = compactRules(r.subRules)
	for _, subRule := range r.subRules {
		subRule.onComplete()
	}
}

func (r *Rule) destroy() {
	for _, instruction := range r.instructions {
		instruction.Destroy()
	}
	for _, subRule := range r.subRules {
		subRule.destroy()
	}
}

// traverse visits this rule and every descendant exactly once, depth-first
// pre-order, regardless of what would match any particular feature.
func (r *Rule) traverse(depth int, visit func(rule *Rule, depth int)) {
	visit(r, depth)
	for _, subRule := range r.subRules {
		subRule.traverse(depth+1, visit)
	}
}

func compactInstructions(instructions []RenderInstruction) []RenderInstruction {
	if len(instructions) == cap(instructions) {
		return instructions
	}
	compacted := make([]RenderInstruction, len(instructions))
	copy(compacted, instructions)
	return compacted
}

func compactRules(rules []*Rule) []*Rule {
	if len(rules) == cap(rules) {
		return rules
	}
	compacted := make([]*Rule, len(rules))
	copy(compacted, rules)
	return compacted
}
