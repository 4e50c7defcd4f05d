package rendertheme

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCallback captures the primitives instructions emit, as strings, so
// tests can assert on content and paint order.
type recordingCallback struct {
	ops []string
}

func (cb *recordingCallback) RenderArea(renderContext *RenderContext, way *Way, fill, stroke color.Color, strokeWidth float64, level int) {
	cb.ops = append(cb.ops, fmt.Sprintf("area way=%d strokeWidth=%.1f level=%d", way.ID, strokeWidth, level))
}

func (cb *recordingCallback) RenderWay(renderContext *RenderContext, way *Way, stroke color.Color, strokeWidth float64, dashPolicy []float64, level int) {
	cb.ops = append(cb.ops, fmt.Sprintf("way way=%d strokeWidth=%.1f level=%d", way.ID, strokeWidth, level))
}

func (cb *recordingCallback) RenderWayText(renderContext *RenderContext, way *Way, text string, textSize float64, fill, stroke color.Color) {
	cb.ops = append(cb.ops, fmt.Sprintf("waytext way=%d text=%q textSize=%.1f", way.ID, text, textSize))
}

func (cb *recordingCallback) RenderPointOfInterestCaption(renderContext *RenderContext, poi *PointOfInterest, text string, textSize float64, fill, stroke color.Color, dy float64) {
	cb.ops = append(cb.ops, fmt.Sprintf("caption poi=%d text=%q textSize=%.1f", poi.ID, text, textSize))
}

func (cb *recordingCallback) RenderPointOfInterestCircle(renderContext *RenderContext, poi *PointOfInterest, radius float64, fill, stroke color.Color, strokeWidth float64, level int) {
	cb.ops = append(cb.ops, fmt.Sprintf("circle poi=%d radius=%.1f strokeWidth=%.1f level=%d", poi.ID, radius, strokeWidth, level))
}

func (cb *recordingCallback) RenderPointOfInterestSymbol(renderContext *RenderContext, poi *PointOfInterest, symbol Resource) {
	cb.ops = append(cb.ops, fmt.Sprintf("symbol poi=%d", poi.ID))
}

func (cb *recordingCallback) RenderHillshading(renderContext *RenderContext, shading *Hillshading) {
	cb.ops = append(cb.ops, fmt.Sprintf("hillshading layer=%d magnitude=%.1f", shading.Layer, shading.Magnitude))
}

// waterTheme is the end-to-end fixture from the matching contract: one
// positive way rule for natural=water|reservoir|basin carrying an area fill.
func waterTheme(t *testing.T) *RenderTheme {
	t.Helper()

	rule := mustNewRule(t, RuleOptions{
		Element: ElementWay,
		Closed:  ClosedAny,
		Keys:    []string{"natural"},
		Values:  []string{"water", "reservoir", "basin"},
		ZoomMin: 0,
		ZoomMax: 21,
	})
	rule.AddRenderInstruction(&Area{Fill: color.RGBA{0xaa, 0xd3, 0xdf, 0xff}, Level: 0})

	theme, err := NewRenderTheme(Options{}, []*Rule{rule}, nil)
	require.Nil(t, err)
	return theme
}

func Test_RenderTheme_matchClosedWay_endToEnd(t *testing.T) {
	theme := waterTheme(t)
	defer theme.Destroy()

	way := &Way{ID: 1, Tags: []Tag{{"natural", "water"}}}
	renderContext := &RenderContext{ZoomLevel: 10}

	cb := new(recordingCallback)
	err := theme.MatchClosedWay(cb, renderContext, way)
	require.Nil(t, err)
	require.Equal(t, []string{"area way=1 strokeWidth=0.0 level=0"}, cb.ops)
	assert.Equal(t, uint64(1), theme.CacheStats().TreeWalks)

	// identical inputs hit the cache and produce the same result
	cb2 := new(recordingCallback)
	err = theme.MatchClosedWay(cb2, renderContext, way)
	require.Nil(t, err)
	assert.Equal(t, cb.ops, cb2.ops)
	assert.Equal(t, uint64(1), theme.CacheStats().TreeWalks)
	assert.Equal(t, 1, theme.CacheStats().WayEntries)
}

func Test_RenderTheme_emptyResultIsCached(t *testing.T) {
	theme := waterTheme(t)
	defer theme.Destroy()

	way := &Way{ID: 2, Tags: []Tag{{"natural", "forest"}}}
	renderContext := &RenderContext{ZoomLevel: 10}

	cb := new(recordingCallback)
	err := theme.MatchClosedWay(cb, renderContext, way)
	require.Nil(t, err)
	assert.Empty(t, cb.ops)
	assert.Equal(t, uint64(1), theme.CacheStats().TreeWalks)

	// the empty answer must come from the cache, not a re-walk
	err = theme.MatchClosedWay(cb, renderContext, way)
	require.Nil(t, err)
	assert.Empty(t, cb.ops)
	assert.Equal(t, uint64(1), theme.CacheStats().TreeWalks)
}

func Test_RenderTheme_tagOrderDoesNotSplitCacheEntries(t *testing.T) {
	theme := waterTheme(t)
	defer theme.Destroy()

	renderContext := &RenderContext{ZoomLevel: 10}
	cb := new(recordingCallback)

	err := theme.MatchClosedWay(cb, renderContext, &Way{ID: 1, Tags: []Tag{{"natural", "water"}, {"name", "Lake Foo"}}})
	require.Nil(t, err)
	err = theme.MatchClosedWay(cb, renderContext, &Way{ID: 1, Tags: []Tag{{"name", "Lake Foo"}, {"natural", "water"}}})
	require.Nil(t, err)

	assert.Equal(t, 1, theme.CacheStats().WayEntries)
	assert.Equal(t, uint64(1), theme.CacheStats().TreeWalks)
}

func Test_RenderTheme_closedAndLinearWaysCacheSeparately(t *testing.T) {
	rule := mustNewRule(t, RuleOptions{
		Element: ElementWay,
		Closed:  ClosedYes,
		Keys:    []string{"natural"},
		Values:  []string{"water"},
		ZoomMax: 21,
	})
	rule.AddRenderInstruction(&Area{Level: 0})

	theme, err := NewRenderTheme(Options{}, []*Rule{rule}, nil)
	require.Nil(t, err)
	defer theme.Destroy()

	way := &Way{ID: 1, Tags: []Tag{{"natural", "water"}}}
	renderContext := &RenderContext{ZoomLevel: 10}

	closedCb := new(recordingCallback)
	require.Nil(t, theme.MatchClosedWay(closedCb, renderContext, way))
	assert.Len(t, closedCb.ops, 1)

	linearCb := new(recordingCallback)
	require.Nil(t, theme.MatchLinearWay(linearCb, renderContext, way))
	assert.Empty(t, linearCb.ops)

	assert.Equal(t, 2, theme.CacheStats().WayEntries)
}

func Test_RenderTheme_matchNode(t *testing.T) {
	rule := mustNewRule(t, RuleOptions{
		Element: ElementNode,
		Closed:  ClosedAny,
		Keys:    []string{"place"},
		ZoomMin: 6,
		ZoomMax: 21,
	})
	rule.AddRenderInstruction(&Caption{TextKey: "name", TextSize: 16, Fill: color.Black})

	theme, err := NewRenderTheme(Options{}, []*Rule{rule}, nil)
	require.Nil(t, err)
	defer theme.Destroy()

	poi := &PointOfInterest{ID: 7, Tags: []Tag{{"place", "town"}, {"name", "Fooville"}}}

	cb := new(recordingCallback)
	require.Nil(t, theme.MatchNode(cb, &RenderContext{ZoomLevel: 12}, poi))
	assert.Equal(t, []string{`caption poi=7 text="Fooville" textSize=16.0`}, cb.ops)

	// below the rule's zoom range: no output, but the miss is still cached
	cb = new(recordingCallback)
	require.Nil(t, theme.MatchNode(cb, &RenderContext{ZoomLevel: 5}, poi))
	assert.Empty(t, cb.ops)
	assert.Equal(t, 2, theme.CacheStats().PoiEntries)
}

func Test_RenderTheme_matchIsDeterministic(t *testing.T) {
	theme := waterTheme(t)
	defer theme.Destroy()

	way := &Way{ID: 1, Tags: []Tag{{"natural", "water"}, {"name", "Lake Foo"}}}
	renderContext := &RenderContext{ZoomLevel: 10}

	var previous []string
	for i := 0; i < 5; i++ {
		cb := new(recordingCallback)
		require.Nil(t, theme.MatchClosedWay(cb, renderContext, way))
		if previous != nil {
			assert.Equal(t, previous, cb.ops)
		}
		previous = cb.ops
	}
}

func Test_RenderTheme_scaleStrokeWidth(t *testing.T) {
	rule := mustNewRule(t, RuleOptions{
		Element: ElementWay,
		Closed:  ClosedAny,
		Keys:    []string{"highway"},
		ZoomMax: 21,
	})
	line := &Line{Stroke: color.Black, StrokeWidth: 2, Level: 1}
	rule.AddRenderInstruction(line)

	theme, err := NewRenderTheme(Options{BaseStrokeWidth: 1}, []*Rule{rule}, nil)
	require.Nil(t, err)
	defer theme.Destroy()

	way := &Way{ID: 3, Tags: []Tag{{"highway", "primary"}}}
	renderContext := &RenderContext{ZoomLevel: 14}

	// unscaled: base width
	cb := new(recordingCallback)
	require.Nil(t, theme.MatchLinearWay(cb, renderContext, way))
	require.Equal(t, []string{"way way=3 strokeWidth=2.0 level=1"}, cb.ops)

	require.Nil(t, theme.ScaleStrokeWidth(2.0, 14))

	// the cached instruction list reflects the new scale without any
	// cache invalidation
	cb = new(recordingCallback)
	require.Nil(t, theme.MatchLinearWay(cb, renderContext, way))
	require.Equal(t, []string{"way way=3 strokeWidth=4.0 level=1"}, cb.ops)
	assert.Equal(t, uint64(1), theme.CacheStats().TreeWalks)

	// idempotent for the same (factor, zoom) pair
	require.Nil(t, theme.ScaleStrokeWidth(2.0, 14))
	cb = new(recordingCallback)
	require.Nil(t, theme.MatchLinearWay(cb, renderContext, way))
	require.Equal(t, []string{"way way=3 strokeWidth=4.0 level=1"}, cb.ops)

	// a different factor at the same zoom updates the state
	require.Nil(t, theme.ScaleStrokeWidth(3.0, 14))
	cb = new(recordingCallback)
	require.Nil(t, theme.MatchLinearWay(cb, renderContext, way))
	require.Equal(t, []string{"way way=3 strokeWidth=6.0 level=1"}, cb.ops)

	// other zoom levels keep the base width
	cb = new(recordingCallback)
	require.Nil(t, theme.MatchLinearWay(cb, &RenderContext{ZoomLevel: 15}, way))
	require.Equal(t, []string{"way way=3 strokeWidth=2.0 level=1"}, cb.ops)
}

func Test_RenderTheme_scaleTextSize(t *testing.T) {
	rule := mustNewRule(t, RuleOptions{
		Element: ElementNode,
		Closed:  ClosedAny,
		Keys:    []string{"place"},
		ZoomMax: 21,
	})
	rule.AddRenderInstruction(&Caption{TextKey: "name", TextSize: 10, Fill: color.Black})

	theme, err := NewRenderTheme(Options{BaseTextSize: 1}, []*Rule{rule}, nil)
	require.Nil(t, err)
	defer theme.Destroy()

	poi := &PointOfInterest{ID: 4, Tags: []Tag{{"place", "city"}, {"name", "Barton"}}}

	require.Nil(t, theme.ScaleTextSize(1.5, 12))

	cb := new(recordingCallback)
	require.Nil(t, theme.MatchNode(cb, &RenderContext{ZoomLevel: 12}, poi))
	assert.Equal(t, []string{`caption poi=4 text="Barton" textSize=15.0`}, cb.ops)
}

func Test_RenderTheme_levels(t *testing.T) {
	rule := mustNewRule(t, RuleOptions{Element: ElementWay, Closed: ClosedAny, ZoomMax: 21})
	rule.AddRenderInstruction(&Area{Level: 0})
	rule.AddRenderInstruction(&Line{Level: 4})
	rule.AddRenderInstruction(&Caption{TextKey: "name"}) // not leveled

	theme, err := NewRenderTheme(Options{}, []*Rule{rule}, nil)
	require.Nil(t, err)
	defer theme.Destroy()

	assert.Equal(t, 5, theme.Levels())

	theme.SetLevels(7)
	assert.Equal(t, 7, theme.Levels())
}

func Test_RenderTheme_matchHillShadings(t *testing.T) {
	shading := &Hillshading{ZoomMin: 11, ZoomMax: 17, Layer: 2, Magnitude: 0.8}

	theme, err := NewRenderTheme(Options{}, nil, []*Hillshading{shading})
	require.Nil(t, err)
	defer theme.Destroy()

	cb := new(recordingCallback)
	require.Nil(t, theme.MatchHillShadings(cb, &RenderContext{ZoomLevel: 12}))
	assert.Equal(t, []string{"hillshading layer=2 magnitude=0.8"}, cb.ops)

	cb = new(recordingCallback)
	require.Nil(t, theme.MatchHillShadings(cb, &RenderContext{ZoomLevel: 9}))
	assert.Empty(t, cb.ops)
}

type releaseCounter struct {
	releases int
}

func (r *releaseCounter) Release() {
	r.releases++
}

func Test_RenderTheme_destroy(t *testing.T) {
	bitmap := new(releaseCounter)

	rule := mustNewRule(t, RuleOptions{Element: ElementNode, Closed: ClosedAny, ZoomMax: 21})
	rule.AddRenderInstruction(&Symbol{Bitmap: bitmap})

	theme, err := NewRenderTheme(Options{}, []*Rule{rule}, nil)
	require.Nil(t, err)

	cb := new(recordingCallback)
	require.Nil(t, theme.MatchNode(cb, &RenderContext{ZoomLevel: 10}, &PointOfInterest{ID: 1}))
	require.Equal(t, 1, theme.CacheStats().PoiEntries)

	theme.Destroy()

	assert.Equal(t, 1, bitmap.releases)
	assert.Equal(t, 0, theme.CacheStats().PoiEntries)
	assert.Equal(t, 0, theme.CacheStats().WayEntries)

	err = theme.MatchNode(cb, &RenderContext{ZoomLevel: 10}, &PointOfInterest{ID: 1})
	require.NotNil(t, err)
	err = theme.MatchClosedWay(cb, &RenderContext{ZoomLevel: 10}, &Way{ID: 1})
	require.NotNil(t, err)
	err = theme.ScaleStrokeWidth(2.0, 10)
	require.NotNil(t, err)

	assert.Panics(t, func() {
		theme.Levels()
	})

	// destroying twice is harmless
	theme.Destroy()
	assert.Equal(t, 1, bitmap.releases)
}

func Test_RenderTheme_traverseRules(t *testing.T) {
	root := mustNewRule(t, RuleOptions{Element: ElementWay, Closed: ClosedAny, ZoomMax: 21})
	child := mustNewRule(t, RuleOptions{
		Element: ElementWay,
		Closed:  ClosedAny,
		Keys:    []string{"highway"},
		ZoomMax: 21,
	})
	grandchild := mustNewRule(t, RuleOptions{
		Element: ElementWay,
		Closed:  ClosedAny,
		Keys:    []string{"highway"},
		Values:  []string{"motorway"},
		ZoomMax: 21,
	})
	child.AddSubRule(grandchild)
	root.AddSubRule(child)
	other := mustNewRule(t, RuleOptions{Element: ElementNode, Closed: ClosedAny, ZoomMax: 21})

	theme, err := NewRenderTheme(Options{}, []*Rule{root, other}, nil)
	require.Nil(t, err)
	defer theme.Destroy()

	type visitType struct {
		rule  *Rule
		depth int
	}
	var visits []visitType
	require.Nil(t, theme.TraverseRules(func(rule *Rule, depth int) {
		visits = append(visits, visitType{rule, depth})
	}))

	require.Len(t, visits, 4)
	assert.Equal(t, []visitType{
		{root, 0},
		{child, 1},
		{grandchild, 2},
		{other, 0},
	}, visits)
}
