package render

import (
	"strings"
	"testing"
)

func TestForestPlot(t *testing.T) {
	points := []Point{
		{Label: "Male", Estimate: 0.52, Lower: 0.48, Upper: 0.56},
		{Label: "Female", Estimate: 0.30, Lower: 0.27, Upper: 0.33},
		{Label: "Male - Female", Estimate: 0.22, Lower: 0.17, Upper: 0.27},
	}

	svg := string(ForestPlot("Smoking by sex", points))

	if !strings.HasPrefix(svg, "<svg") {
		t.Fatalf("output does not start with <svg: %q", svg[:40])
	}
	if !strings.Contains(svg, "Smoking by sex") {
		t.Error("title missing")
	}
	for _, p := range points {
		if !strings.Contains(svg, p.Label) {
			t.Errorf("label %q missing", p.Label)
		}
	}
	if got := strings.Count(svg, "<rect"); got != len(points)+1 {
		t.Errorf("marker count = %d, want %d", got, len(points)+1)
	}
}

func TestForestPlotEscapesLabels(t *testing.T) {
	svg := string(ForestPlot("a<b", []Point{{Label: `x"y`, Estimate: 1, Lower: 0, Upper: 2}}))
	if strings.Contains(svg, "a<b") {
		t.Error("title not escaped")
	}
	if !strings.Contains(svg, "a&lt;b") || !strings.Contains(svg, "x&quot;y") {
		t.Error("expected escaped entities in output")
	}
}

func TestForestPlotEmpty(t *testing.T) {
	svg := string(ForestPlot("nothing", nil))
	if !strings.Contains(svg, "no data") {
		t.Error("empty plot placeholder missing")
	}
}

func TestForestPlotDegenerateRange(t *testing.T) {
	// All bounds equal must still produce a finite layout.
	svg := string(ForestPlot("flat", []Point{{Label: "x", Estimate: 1, Lower: 1, Upper: 1}}))
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("degenerate range produced non-finite coordinates")
	}
}

func TestWidthCurve(t *testing.T) {
	sizes := []int{50, 100, 200, 400}
	widths := []float64{0.28, 0.20, 0.14, 0.10}

	svg := string(WidthCurve("CI width vs n", sizes, widths))

	if !strings.Contains(svg, "<path") {
		t.Error("line path missing")
	}
	if got := strings.Count(svg, "<circle"); got != len(sizes) {
		t.Errorf("point count = %d, want %d", got, len(sizes))
	}
	for _, n := range []string{"n=50", "n=400"} {
		if !strings.Contains(svg, n) {
			t.Errorf("size label %s missing", n)
		}
	}
}

func TestWidthCurveMismatchedInput(t *testing.T) {
	svg := string(WidthCurve("bad", []int{50, 100}, []float64{0.1}))
	if !strings.Contains(svg, "no data") {
		t.Error("mismatched input should render the empty plot")
	}
}

func TestTicksAreRound(t *testing.T) {
	got := ticks(0.03, 0.97, 5)
	if len(got) < 3 {
		t.Fatalf("too few ticks: %v", got)
	}
	if got[0] < 0.03 || got[len(got)-1] > 0.98 {
		t.Errorf("ticks out of range: %v", got)
	}
}
