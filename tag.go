package rendertheme

import (
	"sort"
	"strings"
)

// Tag is a single key/value attribute of a map feature. A feature carries a
// list of tags; keys are unique within one feature.
type Tag struct {
	Key   string
	Value string
}

func (t Tag) String() string {
	return t.Key + "=" + t.Value
}

// ZoomLevel is the integer map scale index. Rules apply within an inclusive
// [ZoomMin, ZoomMax] range.
type ZoomLevel byte

const (
	MinZoomLevel ZoomLevel = 0
	MaxZoomLevel ZoomLevel = 255
)

// Element is the kind of feature being matched.
type Element int

const (
	ElementNode Element = iota
	ElementWay
	ElementAny
)

func (e Element) String() string {
	switch e {
	case ElementNode:
		return "node"
	case ElementWay:
		return "way"
	default:
		return "any"
	}
}

// Closed describes whether a way's geometry forms a closed ring (area-like)
// or an open path (line-like).
type Closed int

const (
	ClosedNo Closed = iota
	ClosedYes
	ClosedAny
)

func (c Closed) String() string {
	switch c {
	case ClosedYes:
		return "yes"
	case ClosedNo:
		return "no"
	default:
		return "any"
	}
}

// PointOfInterest is a node feature as delivered by the tile/geometry
// pipeline. Geometry is the pipeline's concern; matching only needs tags.
type PointOfInterest struct {
	ID   int64
	Tags []Tag
}

// Way is a way feature as delivered by the tile/geometry pipeline.
type Way struct {
	ID   int64
	Tags []Tag
}

func tagsContainKey(tags []Tag, keys []string) bool {
	for _, tag := range tags {
		for _, key := range keys {
			if tag.Key == key {
				return true
			}
		}
	}
	return false
}

// canonicalTagList renders tags sorted by key then value, so two tag lists
// with the same pairs in different insertion order produce the same string.
func canonicalTagList(tags []Tag) string {
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Key != sorted[b].Key {
			return sorted[a].Key < sorted[b].Key
		}
		return sorted[a].Value < sorted[b].Value
	})

	sb := new(strings.Builder)
	for i, tag := range sorted {
		if i != 0 {
			sb.WriteByte('\x00')
		}
		sb.WriteString(tag.Key)
		sb.WriteByte('\x01')
		sb.WriteString(tag.Value)
	}
	return sb.String()
}
