package board

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/0xPuncker/production-timeline/pkg/timeaxis"
)

const (
	svgLabelWidth = 160
	svgHeader     = 32
	svgLaneHeight = 40
	svgBlockPad   = 6
	svgMargin     = 10
	svgMinWidth   = svgLabelWidth + 2*svgMargin + 100
	svgFont       = "Helvetica, Arial, sans-serif"
)

var statusColors = map[string]string{
	"planned":     "#4a90d9",
	"in_progress": "#f5a623",
	"done":        "#7ed321",
	"completed":   "#7ed321",
	"on_hold":     "#9b9b9b",
}

const (
	defaultBlockColor = "#4a90d9"
	conflictStroke    = "#d0021b"
	todayStroke       = "#d0021b"
	gridStroke        = "#e0e0e0"
	textColor         = "#333333"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// RenderSVG draws the current layout as an SVG document width pixels wide.
func (b *Board) RenderSVG(w io.Writer, width int) error {
	if width < svgMinWidth {
		width = svgMinWidth
	}

	layout := b.Layout()
	trackLeft := svgLabelWidth + svgMargin
	trackWidth := width - trackLeft - svgMargin
	height := svgHeader + len(layout.Lanes)*svgLaneHeight + svgMargin

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="#ffffff"/>
<defs>
<style>
.lane-text { font-family: %s; font-size: 13px; fill: %s; }
.date-text { font-family: %s; font-size: 10px; fill: %s; }
.job-text { font-family: %s; font-size: 11px; fill: #ffffff; }
</style>
</defs>
`, width, height, svgFont, textColor, svgFont, textColor, svgFont))

	for _, tick := range dayTicks(layout.Window) {
		x := trackLeft + int(timeaxis.ToPosition(tick, layout.Window)*float64(trackWidth))
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
			x, svgHeader-6, x, height-svgMargin, gridStroke))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" text-anchor="middle" class="date-text">%s</text>`+"\n",
			x, svgHeader-10, tick.Format("Jan 02")))
	}

	for i, lane := range layout.Lanes {
		top := svgHeader + i*svgLaneHeight
		svg.WriteString(fmt.Sprintf(`<line x1="0" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
			top+svgLaneHeight, width, top+svgLaneHeight, gridStroke))
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="lane-text">%s</text>`+"\n",
			svgMargin, top+svgLaneHeight/2+4, escapeXML(lane.DisplayName)))

		for _, block := range lane.Blocks {
			drawBlock(&svg, block, trackLeft, trackWidth, top)
		}
	}

	if layout.Today != nil {
		x := trackLeft + int(*layout.Today*float64(trackWidth))
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2" stroke-dasharray="4,3"/>`+"\n",
			x, svgHeader-6, x, height-svgMargin, todayStroke))
	}

	svg.WriteString("</svg>\n")

	if _, err := io.WriteString(w, svg.String()); err != nil {
		return fmt.Errorf("failed to write svg: %w", err)
	}
	return nil
}

func drawBlock(svg *strings.Builder, block Block, trackLeft, trackWidth, top int) {
	x := trackLeft + int(block.Left*float64(trackWidth))
	w := int(block.Width * float64(trackWidth))
	if w < 2 {
		w = 2
	}
	y := top + svgBlockPad
	h := svgLaneHeight - 2*svgBlockPad

	fill := statusColors[strings.ToLower(block.Job.Status)]
	if fill == "" {
		fill = defaultBlockColor
	}

	stroke, strokeWidth := "none", 0
	if block.Conflict {
		stroke, strokeWidth = conflictStroke, 2
	}
	opacity := "1"
	if block.Dragging {
		opacity = "0.6"
	}

	svg.WriteString(fmt.Sprintf(`<g id="job-%s">`+"\n", escapeXML(block.Job.ID)))
	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" rx="3" fill="%s" fill-opacity="%s" stroke="%s" stroke-width="%d"/>`+"\n",
		x, y, w, h, fill, opacity, stroke, strokeWidth))
	if block.Job.Progress > 0 {
		pw := int(float64(w) * math.Min(block.Job.Progress, 1))
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="3" fill="#ffffff" fill-opacity="0.7"/>`+"\n",
			x, y+h-3, pw))
	}
	if w > 40 {
		svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="job-text">%s</text>`+"\n",
			x+4, y+h/2+4, escapeXML(block.Job.ID)))
	}
	svg.WriteString("</g>\n")
}

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
