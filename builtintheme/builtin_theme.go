// Package builtintheme provides a programmatically-built default theme for
// OSM data, usable without any theme definition file.
package builtintheme

import (
	"image/color"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/rendertheme"
)

const ThemeID = "__rendertheme_builtin"

// z-order layers, bottom to top
const (
	levelLanduse = iota
	levelWater
	levelRailway
	levelHighway
	levelPoi
)

var (
	landColor        = color.RGBA{0xf2, 0xef, 0xe9, 0xff}
	waterColor       = color.RGBA{0xaa, 0xd3, 0xdf, 0xff}
	forestColor      = color.RGBA{172, 200, 160, 0xff}
	residentialColor = color.RGBA{223, 223, 223, 0xff}
	railwayColor     = color.RGBA{190, 190, 190, 0xff}
)

var highwayColors = map[string]color.Color{
	"motorway":     color.RGBA{0xf3, 0x8d, 0x9e, 0xff},
	"trunk":        color.RGBA{0xff, 0xae, 0x9b, 0xff},
	"primary":      color.RGBA{0xff, 0xd4, 0xa5, 0xff},
	"primary_link": color.RGBA{0xff, 0xd4, 0xa5, 0xff},
	"secondary":    color.RGBA{0xf6, 0xf9, 0xbf, 0xff},
	"tertiary":     color.RGBA{0xf3, 0x8d, 0x9e, 0xff},
}

// New builds the builtin theme. It exercises every instruction kind the
// engine supports, so it doubles as a realistic fixture in tests and tools.
func New() (*rendertheme.RenderTheme, errorsx.Error) {
	var rules []*rendertheme.Rule

	areaRules, err := buildAreaRules()
	if err != nil {
		return nil, err
	}
	rules = append(rules, areaRules...)

	wayRules, err := buildWayRules()
	if err != nil {
		return nil, err
	}
	rules = append(rules, wayRules...)

	nodeRules, err := buildNodeRules()
	if err != nil {
		return nil, err
	}
	rules = append(rules, nodeRules...)

	hillShadings := []*rendertheme.Hillshading{
		{ZoomMin: 11, ZoomMax: 17, Layer: levelLanduse, Magnitude: 0.75},
	}

	return rendertheme.NewRenderTheme(rendertheme.Options{
		BaseStrokeWidth: 1,
		BaseTextSize:    1,
		MapBackground:   landColor,
	}, rules, hillShadings)
}

func buildAreaRules() ([]*rendertheme.Rule, errorsx.Error) {
	forest, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedYes,
		Keys:    []string{"landuse", "natural"},
		Values:  []string{"forest", "wood"},
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	forest.AddRenderInstruction(&rendertheme.Area{Fill: forestColor, Level: levelLanduse})

	residential, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedYes,
		Keys:    []string{"landuse"},
		Values:  []string{"residential"},
		ZoomMin: 10,
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	residential.AddRenderInstruction(&rendertheme.Area{Fill: residentialColor, Level: levelLanduse})

	water, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedYes,
		Keys:    []string{"natural"},
		Values:  []string{"water", "reservoir", "basin"},
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	water.AddRenderInstruction(&rendertheme.Area{Fill: waterColor, Level: levelWater})

	return []*rendertheme.Rule{forest, residential, water}, nil
}

func buildWayRules() ([]*rendertheme.Rule, errorsx.Error) {
	ways, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedNo,
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}

	// tunnels are not drawn at all; the veto also stops the highway and
	// railway rules below
	tunnel, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Kind:    rendertheme.RuleKindNegative,
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedAny,
		Keys:    []string{"tunnel"},
		Values:  []string{"yes"},
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	ways.AddSubRule(tunnel)

	waterway, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedNo,
		Keys:    []string{"waterway"},
		Values:  []string{"river", "canal", "stream"},
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	waterway.AddRenderInstruction(&rendertheme.Line{Stroke: waterColor, StrokeWidth: 2, Level: levelWater})
	waterway.AddRenderInstruction(&rendertheme.PathText{TextKey: "name", TextSize: 10, Fill: color.Black})
	ways.AddSubRule(waterway)

	railway, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedAny,
		Keys:    []string{"railway"},
		ZoomMin: 8,
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	railway.AddRenderInstruction(&rendertheme.Line{Stroke: railwayColor, StrokeWidth: 3, Level: levelRailway})
	ways.AddSubRule(railway)

	highways, err := buildHighwayRules()
	if err != nil {
		return nil, err
	}
	for _, rule := range highways {
		ways.AddSubRule(rule)
	}

	return []*rendertheme.Rule{ways}, nil
}

func buildHighwayRules() ([]*rendertheme.Rule, errorsx.Error) {
	var rules []*rendertheme.Rule

	for _, class := range []string{"motorway", "trunk", "primary", "primary_link", "secondary", "tertiary"} {
		rule, err := rendertheme.NewRule(rendertheme.RuleOptions{
			Element: rendertheme.ElementWay,
			Closed:  rendertheme.ClosedAny,
			Keys:    []string{"highway"},
			Values:  []string{class},
			ZoomMax: 21,
		})
		if err != nil {
			return nil, err
		}
		rule.AddRenderInstruction(&rendertheme.Line{Stroke: highwayColors[class], StrokeWidth: 2, Level: levelHighway})
		rule.AddRenderInstruction(&rendertheme.PathText{TextKey: "name", TextSize: 9, Fill: color.Black})
		rules = append(rules, rule)
	}

	minor, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedAny,
		Keys:    []string{"highway"},
		Values:  []string{"unclassified", "residential", "service", "track"},
		ZoomMin: 12,
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	minor.AddRenderInstruction(&rendertheme.Line{Stroke: color.RGBA{0xbc, 0xac, 0xa5, 0xff}, StrokeWidth: 1.5, Level: levelHighway})
	rules = append(rules, minor)

	paths, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementWay,
		Closed:  rendertheme.ClosedAny,
		Keys:    []string{"highway"},
		Values:  []string{"footway", "path", "steps", "bridleway", "cycleway"},
		ZoomMin: 13,
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	paths.AddRenderInstruction(&rendertheme.Line{
		Stroke:      color.RGBA{0, 0xff, 0, 0xff},
		StrokeWidth: 1,
		DashPolicy:  []float64{20, 5},
		Level:       levelHighway,
	})
	rules = append(rules, paths)

	return rules, nil
}

func buildNodeRules() ([]*rendertheme.Rule, errorsx.Error) {
	place, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementNode,
		Keys:    []string{"place"},
		ZoomMin: 6,
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	place.AddRenderInstruction(&rendertheme.Caption{TextKey: "name", TextSize: 16, Fill: color.Black})

	station, err := rendertheme.NewRule(rendertheme.RuleOptions{
		Element: rendertheme.ElementNode,
		Keys:    []string{"railway"},
		Values:  []string{"station", "halt"},
		ZoomMin: 12,
		ZoomMax: 21,
	})
	if err != nil {
		return nil, err
	}
	station.AddRenderInstruction(&rendertheme.Circle{
		Radius:      3,
		Fill:        color.White,
		Stroke:      railwayColor,
		StrokeWidth: 1,
		Level:       levelPoi,
	})
	station.AddRenderInstruction(&rendertheme.Caption{TextKey: "name", TextSize: 11, Fill: color.Black, Dy: 10})

	return []*rendertheme.Rule{place, station}, nil
}
