package health

import (
	"math"
	"strconv"
	"strings"
)

// Canvas is the drawing area of a latency chart
type Canvas struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
}

// DefaultCanvas matches the sparkline drawn on the dashboard
var DefaultCanvas = Canvas{Width: 420, Height: 140, Padding: 12}

// Point is a sample position on the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Plot maps series onto c. A single sample sits on the left edge and a
// constant series lies on the bottom inset line.
func Plot(series []float64, c Canvas) []Point {
	pts := make([]Point, 0, len(series))
	s, ok := Summarize(series)
	if !ok {
		return pts
	}

	steps := math.Max(float64(len(series)-1), 1)
	span := math.Max(s.Max-s.Min, 1)
	innerW := c.Width - 2*c.Padding
	innerH := c.Height - 2*c.Padding
	for i, v := range series {
		pts = append(pts, Point{
			X: c.Padding + (float64(i)/steps)*innerW,
			Y: c.Height - c.Padding - ((v-s.Min)/span)*innerH,
		})
	}
	return pts
}

// Polyline formats points as an SVG points attribute
func Polyline(points []Point) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
	return b.String()
}
