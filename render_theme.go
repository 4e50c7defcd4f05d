package rendertheme

import (
	"image/color"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
)

// DefaultMatchingCacheCapacity is the initial capacity of each matching cache
// when Options does not specify one. Entries live for the lifetime of the
// theme; the distinct (tag set, zoom, closed) combinations actually seen
// bound the growth.
const DefaultMatchingCacheCapacity = 1024

// Options carries the theme-wide parameters delivered by the theme-loading
// collaborator alongside the rule tree.
type Options struct {
	BaseStrokeWidth       float64
	BaseTextSize          float64
	MapBackground         color.Color
	MapBackgroundOutside  color.Color
	MatchingCacheCapacity int
}

// CacheStats reports the current size of the matching caches and how many
// full tree walks (cache misses) have happened so far.
type CacheStats struct {
	WayEntries int    `json:"wayEntries"`
	PoiEntries int    `json:"poiEntries"`
	TreeWalks  uint64 `json:"treeWalks"`
}

// RenderTheme owns a compiled style rule tree and memoizes the outcome of
// matching features against it. Way and node lookups use separate caches
// because their rule subsets and closed-state semantics differ.
//
// The mutex covers the two caches, the per-zoom scale memos and the destroyed
// flag. The tree shape itself never changes after construction; scale
// application mutates shared instruction state and therefore runs under the
// write lock, mutually exclusive with any concurrent match.
type RenderTheme struct {
	baseStrokeWidth      float64
	baseTextSize         float64
	mapBackground        color.Color
	mapBackgroundOutside color.Color
	levels               int

	rules        []*Rule
	hillShadings []*Hillshading

	mu           sync.RWMutex
	wayCache     map[MatchingCacheKey][]RenderInstruction
	poiCache     map[MatchingCacheKey][]RenderInstruction
	strokeScales map[ZoomLevel]float64
	textScales   map[ZoomLevel]float64
	treeWalks    uint64
	destroyed    bool
}

// NewRenderTheme takes ownership of the fully-built rule tree and hillshading
// list. It finalizes the tree (slice compaction, layer count) before
// returning; the theme is ready for matching immediately.
func NewRenderTheme(opts Options, rules []*Rule, hillShadings []*Hillshading) (*RenderTheme, errorsx.Error) {
	if opts.BaseStrokeWidth < 0 {
		return nil, errorsx.Errorf("base stroke width must not be negative, was %f", opts.BaseStrokeWidth)
	}
	if opts.BaseTextSize < 0 {
		return nil, errorsx.Errorf("base text size must not be negative, was %f", opts.BaseTextSize)
	}

	if opts.BaseStrokeWidth == 0 {
		opts.BaseStrokeWidth = 1
	}
	if opts.BaseTextSize == 0 {
		opts.BaseTextSize = 1
	}
	if opts.MapBackground == nil {
		opts.MapBackground = color.White
	}
	if opts.MatchingCacheCapacity == 0 {
		opts.MatchingCacheCapacity = DefaultMatchingCacheCapacity
	}

	rt := &RenderTheme{
		baseStrokeWidth:      opts.BaseStrokeWidth,
		baseTextSize:         opts.BaseTextSize,
		mapBackground:        opts.MapBackground,
		mapBackgroundOutside: opts.MapBackgroundOutside,
		rules:                rules,
		hillShadings:         hillShadings,
		wayCache:             make(map[MatchingCacheKey][]RenderInstruction, opts.MatchingCacheCapacity),
		poiCache:             make(map[MatchingCacheKey][]RenderInstruction, opts.MatchingCacheCapacity),
		strokeScales:         make(map[ZoomLevel]float64),
		textScales:           make(map[ZoomLevel]float64),
	}
	rt.complete()

	return rt, nil
}

// complete finalizes derived state once the tree is handed over: compacts
// slices and derives the z-order layer count from the instructions present.
func (rt *RenderTheme) complete() {
	maxLevel := -1
	for _, rule := range rt.rules {
		rule.onComplete()
		rule.traverse(0, func(r *Rule, depth int) {
			for _, instruction := range r.instructions {
				leveled, ok := instruction.(leveledInstruction)
				if !ok {
					continue
				}
				if leveled.RenderLevel() > maxLevel {
					maxLevel = leveled.RenderLevel()
				}
			}
		})
	}
	rt.levels = maxLevel + 1
}

// MatchNode resolves the instruction list for a point of interest and invokes
// each instruction against the render callback, in paint order.
func (rt *RenderTheme) MatchNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest) errorsx.Error {
	instructions, err := rt.instructionsForKey(poiMatch, poi.Tags, renderContext.ZoomLevel, ClosedNo)
	if err != nil {
		return err
	}

	for _, instruction := range instructions {
		instruction.RenderNode(renderCallback, renderContext, poi)
	}
	return nil
}

// MatchClosedWay matches a way whose geometry forms a closed ring.
func (rt *RenderTheme) MatchClosedWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) errorsx.Error {
	return rt.matchWay(renderCallback, renderContext, way, ClosedYes)
}

// MatchLinearWay matches a way whose geometry is an open path.
func (rt *RenderTheme) MatchLinearWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) errorsx.Error {
	return rt.matchWay(renderCallback, renderContext, way, ClosedNo)
}

func (rt *RenderTheme) matchWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way, closed Closed) errorsx.Error {
	instructions, err := rt.instructionsForKey(wayMatch, way.Tags, renderContext.ZoomLevel, closed)
	if err != nil {
		return err
	}

	for _, instruction := range instructions {
		instruction.RenderWay(renderCallback, renderContext, way)
	}
	return nil
}

type matchKind int

const (
	poiMatch matchKind = iota
	wayMatch
)

// instructionsForKey is the memoized core of all three match entry points.
// The cached list shares instruction pointers with the rule tree, so scale
// updates applied through the tree are visible through cache hits without any
// invalidation.
func (rt *RenderTheme) instructionsForKey(kind matchKind, tags []Tag, zoomLevel ZoomLevel, closed Closed) ([]RenderInstruction, errorsx.Error) {
	key := NewMatchingCacheKey(tags, zoomLevel, closed)

	rt.mu.RLock()
	if rt.destroyed {
		rt.mu.RUnlock()
		return nil, errDestroyedUse()
	}
	cache := rt.wayCache
	if kind == poiMatch {
		cache = rt.poiCache
	}
	instructions, ok := cache[key]
	rt.mu.RUnlock()
	if ok {
		return instructions, nil
	}

	// miss: walk the tree and insert, double-checking under the write lock
	// because another goroutine may have raced us here
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.destroyed {
		return nil, errDestroyedUse()
	}
	cache = rt.wayCache
	if kind == poiMatch {
		cache = rt.poiCache
	}
	instructions, ok = cache[key]
	if ok {
		return instructions, nil
	}

	rt.treeWalks++
	instructions = []RenderInstruction{}
	for _, rule := range rt.rules {
		var vetoed bool
		if kind == poiMatch {
			vetoed = rule.matchNode(tags, zoomLevel, &instructions)
		} else {
			vetoed = rule.matchWay(tags, zoomLevel, closed, &instructions)
		}
		if vetoed {
			break
		}
	}
	cache[key] = instructions

	return instructions, nil
}

// ScaleStrokeWidth recomputes the stroke width of every instruction reachable
// at the given zoom level as scaleFactor x base stroke width. Re-applying the
// same factor at the same zoom is a no-op, so callers may invoke this once
// per frame.
func (rt *RenderTheme) ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) errorsx.Error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.destroyed {
		return errDestroyedUse()
	}

	lastApplied, ok := rt.strokeScales[zoomLevel]
	if ok && lastApplied == scaleFactor {
		return nil
	}

	for _, rule := range rt.rules {
		rule.scaleStrokeWidth(scaleFactor*rt.baseStrokeWidth, zoomLevel)
	}
	rt.strokeScales[zoomLevel] = scaleFactor

	return nil
}

// ScaleTextSize is the text-size counterpart of ScaleStrokeWidth.
func (rt *RenderTheme) ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel) errorsx.Error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.destroyed {
		return errDestroyedUse()
	}

	lastApplied, ok := rt.textScales[zoomLevel]
	if ok && lastApplied == scaleFactor {
		return nil
	}

	for _, rule := range rt.rules {
		rule.scaleTextSize(scaleFactor*rt.baseTextSize, zoomLevel)
	}
	rt.textScales[zoomLevel] = scaleFactor

	return nil
}

// Levels reports how many distinct z-order drawing layers the theme needs.
func (rt *RenderTheme) Levels() int {
	rt.mustNotBeDestroyed()
	return rt.levels
}

// SetLevels overrides the derived layer count, for builders that pre-count
// layers while constructing the tree.
func (rt *RenderTheme) SetLevels(levels int) {
	rt.mustNotBeDestroyed()
	rt.levels = levels
}

func (rt *RenderTheme) MapBackground() color.Color {
	rt.mustNotBeDestroyed()
	return rt.mapBackground
}

func (rt *RenderTheme) MapBackgroundOutside() color.Color {
	rt.mustNotBeDestroyed()
	return rt.mapBackgroundOutside
}

func (rt *RenderTheme) HasMapBackgroundOutside() bool {
	rt.mustNotBeDestroyed()
	return rt.mapBackgroundOutside != nil
}

// MatchHillShadings hands every hillshading entry in zoom range to the render
// callback. No rule matching is involved.
func (rt *RenderTheme) MatchHillShadings(renderCallback RenderCallback, renderContext *RenderContext) errorsx.Error {
	rt.mu.RLock()
	if rt.destroyed {
		rt.mu.RUnlock()
		return errDestroyedUse()
	}
	rt.mu.RUnlock()

	for _, shading := range rt.hillShadings {
		shading.render(renderCallback, renderContext)
	}
	return nil
}

// TraverseRules walks the rule tree depth-first pre-order, visiting every
// rule exactly once. The tree shape is immutable, so the walk itself runs
// unlocked.
func (rt *RenderTheme) TraverseRules(visit func(rule *Rule, depth int)) errorsx.Error {
	rt.mu.RLock()
	if rt.destroyed {
		rt.mu.RUnlock()
		return errDestroyedUse()
	}
	rt.mu.RUnlock()

	for _, rule := range rt.rules {
		rule.traverse(0, visit)
	}
	return nil
}

// CacheStats snapshots the matching caches for tooling and tests.
func (rt *RenderTheme) CacheStats() CacheStats {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return CacheStats{
		WayEntries: len(rt.wayCache),
		PoiEntries: len(rt.poiCache),
		TreeWalks:  rt.treeWalks,
	}
}

// Destroy releases both caches and cascades destruction through every rule,
// releasing any held drawable resources. Calling it twice is harmless; any
// other use of the theme afterwards fails.
func (rt *RenderTheme) Destroy() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.destroyed {
		return
	}

	rt.wayCache = map[MatchingCacheKey][]RenderInstruction{}
	rt.poiCache = map[MatchingCacheKey][]RenderInstruction{}
	for _, rule := range rt.rules {
		rule.destroy()
	}
	rt.destroyed = true
}

func (rt *RenderTheme) mustNotBeDestroyed() {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if rt.destroyed {
		panic("rendertheme: use of destroyed RenderTheme")
	}
}

func errDestroyedUse() errorsx.Error {
	return errorsx.Errorf("rendertheme: use of destroyed RenderTheme")
}
