package rendertheme

import "image/color"

// tagValue returns the value of the first tag with the given key, or "".
func tagValue(tags []Tag, key string) string {
	for _, tag := range tags {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

// Area fills a closed way, with an optional outline stroke.
type Area struct {
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth float64
	Level       int

	strokeWidths map[ZoomLevel]float64
}

func (a *Area) RenderNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest) {
}

func (a *Area) RenderWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) {
	strokeWidth := scaledValue(a.strokeWidths, renderContext.ZoomLevel, a.StrokeWidth)
	renderCallback.RenderArea(renderContext, way, a.Fill, a.Stroke, strokeWidth, a.Level)
}

func (a *Area) ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) {
	if a.strokeWidths == nil {
		a.strokeWidths = make(map[ZoomLevel]float64)
	}
	a.strokeWidths[zoomLevel] = a.StrokeWidth * scaleFactor
}

func (a *Area) ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel) {}
func (a *Area) Destroy()                                              {}
func (a *Area) RenderLevel() int                                      { return a.Level }

// Line strokes an open or closed way.
type Line struct {
	Stroke      color.Color
	StrokeWidth float64
	DashPolicy  []float64
	Level       int

	strokeWidths map[ZoomLevel]float64
}

func (l *Line) RenderNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest) {
}

func (l *Line) RenderWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) {
	strokeWidth := scaledValue(l.strokeWidths, renderContext.ZoomLevel, l.StrokeWidth)
	renderCallback.RenderWay(renderContext, way, l.Stroke, strokeWidth, l.DashPolicy, l.Level)
}

func (l *Line) ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) {
	if l.strokeWidths == nil {
		l.strokeWidths = make(map[ZoomLevel]float64)
	}
	l.strokeWidths[zoomLevel] = l.StrokeWidth * scaleFactor
}

func (l *Line) ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel) {}
func (l *Line) Destroy()                                               {}
func (l *Line) RenderLevel() int                                       { return l.Level }

// Caption draws a label next to a point of interest. TextKey names the tag
// whose value supplies the label text; a feature without that tag draws
// nothing.
type Caption struct {
	TextKey  string
	TextSize float64
	Fill     color.Color
	Stroke   color.Color
	Dy       float64

	textSizes map[ZoomLevel]float64
}

func (c *Caption) RenderNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest) {
	text := tagValue(poi.Tags, c.TextKey)
	if text == "" {
		return
	}
	textSize := scaledValue(c.textSizes, renderContext.ZoomLevel, c.TextSize)
	renderCallback.RenderPointOfInterestCaption(renderContext, poi, text, textSize, c.Fill, c.Stroke, c.Dy)
}

func (c *Caption) RenderWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) {}

func (c *Caption) ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) {}

func (c *Caption) ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel) {
	if c.textSizes == nil {
		c.textSizes = make(map[ZoomLevel]float64)
	}
	c.textSizes[zoomLevel] = c.TextSize * scaleFactor
}

func (c *Caption) Destroy() {}

// PathText draws a label along a way's path.
type PathText struct {
	TextKey  string
	TextSize float64
	Fill     color.Color
	Stroke   color.Color

	textSizes map[ZoomLevel]float64
}

func (pt *PathText) RenderNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest) {
}

func (pt *PathText) RenderWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) {
	text := tagValue(way.Tags, pt.TextKey)
	if text == "" {
		return
	}
	textSize := scaledValue(pt.textSizes, renderContext.ZoomLevel, pt.TextSize)
	renderCallback.RenderWayText(renderContext, way, text, textSize, pt.Fill, pt.Stroke)
}

func (pt *PathText) ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) {}

func (pt *PathText) ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel) {
	if pt.textSizes == nil {
		pt.textSizes = make(map[ZoomLevel]float64)
	}
	pt.textSizes[zoomLevel] = pt.TextSize * scaleFactor
}

func (pt *PathText) Destroy() {}

// Circle draws a fixed-radius disc at a point of interest.
type Circle struct {
	Radius      float64
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth float64
	Level       int

	strokeWidths map[ZoomLevel]float64
}

func (c *Circle) RenderNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest) {
	strokeWidth := scaledValue(c.strokeWidths, renderContext.ZoomLevel, c.StrokeWidth)
	renderCallback.RenderPointOfInterestCircle(renderContext, poi, c.Radius, c.Fill, c.Stroke, strokeWidth, c.Level)
}

func (c *Circle) RenderWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) {}

func (c *Circle) ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) {
	if c.strokeWidths == nil {
		c.strokeWidths = make(map[ZoomLevel]float64)
	}
	c.strokeWidths[zoomLevel] = c.StrokeWidth * scaleFactor
}

func (c *Circle) ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel) {}
func (c *Circle) Destroy()                                               {}
func (c *Circle) RenderLevel() int                                       { return c.Level }

// Symbol draws a bitmap at a point of interest. The bitmap handle is owned by
// the instruction and released on theme destruction.
type Symbol struct {
	Bitmap Resource
}

func (s *Symbol) RenderNode(renderCallback RenderCallback, renderContext *RenderContext, poi *PointOfInterest) {
	renderCallback.RenderPointOfInterestSymbol(renderContext, poi, s.Bitmap)
}

func (s *Symbol) RenderWay(renderCallback RenderCallback, renderContext *RenderContext, way *Way) {}

func (s *Symbol) ScaleStrokeWidth(scaleFactor float64, zoomLevel ZoomLevel) {}
func (s *Symbol) ScaleTextSize(scaleFactor float64, zoomLevel ZoomLevel)    {}

func (s *Symbol) Destroy() {
	if s.Bitmap != nil {
		s.Bitmap.Release()
		s.Bitmap = nil
	}
}

func scaledValue(overrides map[ZoomLevel]float64, zoomLevel ZoomLevel, base float64) float64 {
	if overrides != nil {
		value, ok := overrides[zoomLevel]
		if ok {
			return value
		}
	}
	return base
}
