package rendertheme

import "image/color"

// RenderContext carries the per-pass state a RenderInstruction needs when it
// emits drawing primitives. The drawing surface itself lives behind the
// RenderCallback.
type RenderContext struct {
	ZoomLevel ZoomLevel
}

// RenderCallback is implemented by the rendering pipeline. Instructions call
// back into it with fully-resolved style parameters; how the primitives
// become pixels is the pipeline's concern.
type RenderCallback interface {
	RenderArea(renderContext *RenderContext, way *Way, fill, stroke color.Color, strokeWidth float64, level int)
	RenderWay(renderContext *RenderContext, way *Way, stroke color.Color, strokeWidth float64, dashPolicy []float64, level int)
	RenderWayText(renderContext *RenderContext, way *Way, text string, textSize float64, fill, stroke color.Color)
	RenderPointOfInterestCaption(renderContext *RenderContext, poi *PointOfInterest, text string, textSize float64, fill, stroke color.Color, dy float64)
	RenderPointOfInterestCircle(renderContext *RenderContext, poi *PointOfInterest, radius float64, fill, stroke color.Color, strokeWidth float64, level int)
	RenderPointOfInterestSymbol(renderContext *RenderContext, poi *PointOfInterest, symbol Resource)
	RenderHillshading(renderContext *RenderContext, shading *Hillshading)
}

// Resource is a drawable asset handle (typically a bitmap) owned by an
// instruction and released when the theme is destroyed.
type Resource interface {
	Release()
}

// RenderInstruction is a single drawable style directive attached to a rule.
// Stroke-width and text-size state is mutable per zoom level; everything else
// is fixed at theme-build time.
type RenderInstruction interface {
	RenderNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest)
	RenderWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way)
	// ScaleStrokeWidth recomputes the stroke width for the given zoom level.
	// scaleFactor already includes the theme's base stroke width.
	ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel)
	// ScaleTextSize recomputes the text size for the given zoom level.
	// scaleFactor already includes the theme's base text size.
	ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel)
	Destroy()
}

// leveledInstruction is implemented by instructions that draw into a z-order
// layer; the theme derives its layer count from the highest level seen.
type leveledInstruction interface {
	RenderLevel() int
}
