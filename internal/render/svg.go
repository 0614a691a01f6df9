// Package render draws estimate plots as standalone SVG documents.
package render

import (
	"fmt"
	"math"
	"strings"
)

// Point is one interval on a forest plot.
type Point struct {
	Label    string
	Estimate float64
	Lower    float64
	Upper    float64
}

const (
	plotWidth  = 760
	rowHeight  = 28
	marginTop  = 48
	marginLeft = 200
	marginRght = 40
	axisHeight = 36

	colorAxis     = "#94a3b8"
	colorInterval = "#0e7490"
	colorMarker   = "#0369a1"
	colorText     = "#1e293b"
	colorGrid     = "#e2e8f0"
)

// ForestPlot renders labelled intervals as horizontal error bars with a
// square marker at the point estimate.
func ForestPlot(title string, points []Point) []byte {
	if len(points) == 0 {
		return emptyPlot(title)
	}

	lo, hi := bounds(points)
	height := marginTop + len(points)*rowHeight + axisHeight
	innerWidth := float64(plotWidth - marginLeft - marginRght)
	x := func(v float64) float64 {
		return marginLeft + (v-lo)/(hi-lo)*innerWidth
	}

	var b strings.Builder
	header(&b, title, height)

	for _, tick := range ticks(lo, hi, 5) {
		tx := x(tick)
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s"/>`+"\n",
			tx, marginTop-8, tx, height-axisHeight, colorGrid)
		fmt.Fprintf(&b, `<text x="%.1f" y="%d" text-anchor="middle" fill="%s" font-size="11">%s</text>`+"\n",
			tx, height-axisHeight+16, colorAxis, formatTick(tick, hi-lo))
	}

	for i, p := range points {
		cy := float64(marginTop + i*rowHeight + rowHeight/2)
		fmt.Fprintf(&b, `<text x="%d" y="%.1f" text-anchor="end" dominant-baseline="middle" fill="%s" font-size="12">%s</text>`+"\n",
			marginLeft-12, cy, colorText, escape(p.Label))
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`+"\n",
			x(p.Lower), cy, x(p.Upper), cy, colorInterval)
		for _, end := range []float64{p.Lower, p.Upper} {
			fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`+"\n",
				x(end), cy-5, x(end), cy+5, colorInterval)
		}
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="8" height="8" fill="%s"/>`+"\n",
			x(p.Estimate)-4, cy-4, colorMarker)
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

// WidthCurve renders interval width against sample size as a line chart
// with a point per sampled size.
func WidthCurve(title string, sizes []int, widths []float64) []byte {
	if len(sizes) == 0 || len(sizes) != len(widths) {
		return emptyPlot(title)
	}

	height := 320
	innerWidth := float64(plotWidth - marginLeft/2 - marginRght)
	innerHeight := float64(height - marginTop - axisHeight)

	maxWidth := 0.0
	for _, w := range widths {
		maxWidth = math.Max(maxWidth, w)
	}
	if maxWidth == 0 {
		maxWidth = 1
	}
	maxSize := float64(sizes[len(sizes)-1])

	x := func(n int) float64 {
		return float64(marginLeft/2) + float64(n)/maxSize*innerWidth
	}
	y := func(w float64) float64 {
		return float64(marginTop) + (1-w/maxWidth)*innerHeight
	}

	var b strings.Builder
	header(&b, title, height)

	fmt.Fprintf(&b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s"/>`+"\n",
		marginLeft/2, y(0), plotWidth-marginRght, y(0), colorAxis)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%.1f" stroke="%s"/>`+"\n",
		marginLeft/2, marginTop, marginLeft/2, y(0), colorAxis)

	var path strings.Builder
	for i, n := range sizes {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.1f %.1f ", cmd, x(n), y(widths[i]))
	}
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
		strings.TrimSpace(path.String()), colorInterval)

	for i, n := range sizes {
		fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>`+"\n",
			x(n), y(widths[i]), colorMarker)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" fill="%s" font-size="11">n=%d</text>`+"\n",
			x(n), y(0)+16, colorAxis, n)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" fill="%s" font-size="10">%.3f</text>`+"\n",
			x(n), y(widths[i])-10, colorText, widths[i])
	}

	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func header(b *strings.Builder, title string, height int) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`+"\n",
		plotWidth, height, plotWidth, height)
	fmt.Fprintf(b, `<rect width="%d" height="%d" fill="white"/>`+"\n", plotWidth, height)
	fmt.Fprintf(b, `<text x="%d" y="24" text-anchor="middle" fill="%s" font-size="15" font-weight="bold">%s</text>`+"\n",
		plotWidth/2, colorText, escape(title))
}

func emptyPlot(title string) []byte {
	var b strings.Builder
	header(&b, title, 120)
	fmt.Fprintf(&b, `<text x="%d" y="70" text-anchor="middle" fill="%s" font-size="12">no data</text>`+"\n",
		plotWidth/2, colorAxis)
	b.WriteString("</svg>\n")
	return []byte(b.String())
}

// bounds pads the interval range by 5% so markers never sit on the frame.
func bounds(points []Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Lower)
		hi = math.Max(hi, p.Upper)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

// ticks returns about count evenly spaced round values covering [lo, hi].
func ticks(lo, hi float64, count int) []float64 {
	step := niceStep((hi - lo) / float64(count))
	first := math.Ceil(lo/step) * step
	var out []float64
	for v := first; v <= hi+step/1e6; v += step {
		out = append(out, v)
	}
	return out
}

func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	norm := raw / mag
	switch {
	case norm < 1.5:
		return mag
	case norm < 3.5:
		return 2 * mag
	case norm < 7.5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

func formatTick(v, span float64) string {
	switch {
	case span < 0.1:
		return fmt.Sprintf("%.3f", v)
	case span < 2:
		return fmt.Sprintf("%.2f", v)
	case span < 20:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
