package rendertheme

// Hillshading is a raster compositing directive. It bypasses rule matching
// entirely: the theme only filters by zoom range and hands the entry to the
// rendering pipeline.
type Hillshading struct {
	ZoomMin   ZoomLevel
	ZoomMax   ZoomLevel
	Layer     int
	Magnitude float64
	Always    bool
}

func (h *Hillshading) render(renderCallback RenderCallback, renderContext *RenderContext) {
	if renderContext.ZoomLevel < h.ZoomMin || renderContext.ZoomLevel > h.ZoomMax {
		return
	}
	renderCallback.RenderHillshading(renderContext, h)
}
