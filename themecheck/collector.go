package themecheck

import (
	"fmt"
	"image/color"

	"github.com/jamesrr39/rendertheme"
)

// Collector is a RenderCallback that records each primitive as a line of
// text instead of drawing it. Tools and the inspector web service use it to
// show what a theme would do with a feature.
type Collector struct {
	Ops []string
}

func (c *Collector) RenderArea(renderContext *rendertheme.RenderContext, way *rendertheme.Way, fill, stroke color.Color, strokeWidth float64, level int) {
	c.Ops = append(c.Ops, fmt.Sprintf("area fill=%s stroke=%s strokeWidth=%.2f level=%d", colorToHex(fill), colorToHex(stroke), strokeWidth, level))
}

func (c *Collector) RenderWay(renderContext *rendertheme.RenderContext, way *rendertheme.Way, stroke color.Color, strokeWidth float64, dashPolicy []float64, level int) {
	c.Ops = append(c.Ops, fmt.Sprintf("way stroke=%s strokeWidth=%.2f dash=%v level=%d", colorToHex(stroke), strokeWidth, dashPolicy, level))
}

func (c *Collector) RenderWayText(renderContext *rendertheme.RenderContext, way *rendertheme.Way, text string, textSize float64, fill, stroke color.Color) {
	c.Ops = append(c.Ops, fmt.Sprintf("waytext text=%q textSize=%.2f fill=%s", text, textSize, colorToHex(fill)))
}

func (c *Collector) RenderPointOfInterestCaption(renderContext *rendertheme.RenderContext, poi *rendertheme.PointOfInterest, text string, textSize float64, fill, stroke color.Color, dy float64) {
	c.Ops = append(c.Ops, fmt.Sprintf("caption text=%q textSize=%.2f fill=%s dy=%.1f", text, textSize, colorToHex(fill), dy))
}

func (c *Collector) RenderPointOfInterestCircle(renderContext *rendertheme.RenderContext, poi *rendertheme.PointOfInterest, radius float64, fill, stroke color.Color, strokeWidth float64, level int) {
	c.Ops = append(c.Ops, fmt.Sprintf("circle radius=%.1f fill=%s strokeWidth=%.2f level=%d", radius, colorToHex(fill), strokeWidth, level))
}

func (c *Collector) RenderPointOfInterestSymbol(renderContext *rendertheme.RenderContext, poi *rendertheme.PointOfInterest, symbol rendertheme.Resource) {
	c.Ops = append(c.Ops, "symbol")
}

func (c *Collector) RenderHillshading(renderContext *rendertheme.RenderContext, shading *rendertheme.Hillshading) {
	c.Ops = append(c.Ops, fmt.Sprintf("hillshading layer=%d magnitude=%.2f", shading.Layer, shading.Magnitude))
}

func colorToHex(c color.Color) string {
	if c == nil {
		return "none"
	}
	r, g, b, a := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", r>>8, g>>8, b>>8, a>>8)
}
