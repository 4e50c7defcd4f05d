package rendertheme

// MatchingCacheKey identifies a feature for memoization purposes: same tag
// set (in any order), same zoom level and same closed-state means the same
// instruction list. It is a comparable value type so it can key a map
// directly; structural equality means a fresh key finds entries stored under
// an earlier, equal key.
type MatchingCacheKey struct {
	canonicalTags string
	zoomLevel     ZoomLevel
	closed        Closed
}

func NewMatchingCacheKey(tags []Tag, zoomLevel ZoomLevel, closed Closed) MatchingCacheKey {
	return MatchingCacheKey{
		canonicalTags: canonicalTagList(tags),
		zoomLevel:     zoomLevel,
		closed:        closed,
	}
}
