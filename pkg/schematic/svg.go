package schematic

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/edp1096/symspice/internal/consts"
)

const (
	svgMargin  = 48
	wireStyle  = "stroke:#000080;stroke-width:2;fill:none"
	bodyStyle  = "stroke:#800000;stroke-width:2;fill:none"
	textStyle  = "font-family:sans-serif;font-size:14px;fill:#000000"
	labelStyle = "font-family:sans-serif;font-size:14px;fill:#000080"
	dotStyle   = "fill:#000080"
)

var orientTransform = map[string]string{
	"R0":   "",
	"R90":  "rotate(90)",
	"R180": "rotate(180)",
	"R270": "rotate(270)",
	"M0":   "scale(-1,1)",
	"M90":  "rotate(90) scale(-1,1)",
	"M180": "rotate(180) scale(-1,1)",
	"M270": "rotate(270) scale(-1,1)",
}

// RenderSVG draws wires, symbols, junctions, ground and net flags.
func (s *Schematic) RenderSVG(w io.Writer) error {
	nets, err := s.Nets()
	if err != nil {
		return err
	}
	minX, minY, maxX, maxY, err := s.bounds()
	if err != nil {
		return err
	}
	width, height := maxX-minX+2*svgMargin, maxY-minY+2*svgMargin

	canvas := svg.New(w)
	canvas.Startview(width, height, minX-svgMargin, minY-svgMargin, width, height)
	canvas.Rect(minX-svgMargin, minY-svgMargin, width, height, "fill:#ffffff")

	for _, wire := range s.Wires {
		canvas.Line(wire.A.X, wire.A.Y, wire.B.X, wire.B.Y, wireStyle)
	}

	for _, sym := range s.Symbols {
		canvas.Gtransform(fmt.Sprintf("translate(%d,%d) %s", sym.At.X, sym.At.Y, orientTransform[sym.Orient]))
		drawGlyph(canvas, sym.Kind)
		canvas.Gend()

		pins, _ := sym.Pins()
		x, y := labelPos(pins)
		canvas.Text(x, y, sym.InstName, textStyle)
		if sym.Value != "" {
			canvas.Text(x, y+16, sym.Value, textStyle)
		}
	}

	for _, p := range nets.Junctions() {
		canvas.Circle(p.X, p.Y, 4, dotStyle)
	}

	for _, f := range s.Flags {
		if consts.IsGround(f.Name) {
			drawGround(canvas, f.At)
			continue
		}
		canvas.Text(f.At.X+4, f.At.Y-6, f.Name, labelStyle)
	}

	canvas.End()
	return nil
}

func (s *Schematic) bounds() (minX, minY, maxX, maxY int, err error) {
	var pts []Point
	for _, wire := range s.Wires {
		pts = append(pts, wire.A, wire.B)
	}
	for _, f := range s.Flags {
		pts = append(pts, f.At)
	}
	for _, sym := range s.Symbols {
		pins, err := sym.Pins()
		if err != nil {
			return 0, 0, 0, 0, err
		}
		pts = append(pts, sym.At)
		pts = append(pts, pins...)
	}
	if len(pts) == 0 {
		return 0, 0, 0, 0, fmt.Errorf("empty schematic")
	}
	minX, minY, maxX, maxY = pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY, nil
}

// labelPos places element labels beside the body of a two-pin symbol.
func labelPos(pins []Point) (int, int) {
	a, b := pins[0], pins[1]
	cx, cy := (a.X+b.X)/2, (a.Y+b.Y)/2
	if a.X == b.X {
		return cx + 24, cy - 4
	}
	return cx - 16, cy - 28
}

// drawGlyph draws a symbol body in its own R0 coordinates.
func drawGlyph(canvas *svg.SVG, kind string) {
	switch kind {
	case "res":
		canvas.Line(16, 16, 16, 32, bodyStyle)
		canvas.Rect(8, 32, 16, 48, bodyStyle)
		canvas.Line(16, 80, 16, 96, bodyStyle)
	case "cap":
		canvas.Line(16, 0, 16, 24, bodyStyle)
		canvas.Line(0, 24, 32, 24, bodyStyle)
		canvas.Line(0, 40, 32, 40, bodyStyle)
		canvas.Line(16, 40, 16, 64, bodyStyle)
	case "ind":
		canvas.Line(16, 16, 16, 32, bodyStyle)
		for y := 32; y < 80; y += 12 {
			canvas.Arc(16, y, 6, 6, 6, false, true, 16, y+12, bodyStyle)
		}
		canvas.Line(16, 80, 16, 96, bodyStyle)
	case "voltage":
		canvas.Circle(0, 56, 40, bodyStyle)
		canvas.Line(-8, 36, 8, 36, bodyStyle)
		canvas.Line(0, 28, 0, 44, bodyStyle)
		canvas.Line(-8, 76, 8, 76, bodyStyle)
	case "current":
		canvas.Line(0, 0, 0, 8, bodyStyle)
		canvas.Circle(0, 40, 32, bodyStyle)
		canvas.Line(0, 20, 0, 60, bodyStyle)
		canvas.Polyline([]int{-6, 0, 6}, []int{50, 60, 50}, bodyStyle)
		canvas.Line(0, 72, 0, 80, bodyStyle)
	case "e", "g", "h":
		drawDiamond(canvas, 16, 96)
		if kind != "h" {
			canvas.Line(-48, 32, -24, 32, bodyStyle)
			canvas.Line(-48, 80, -24, 80, bodyStyle)
			canvas.Text(-36, 28, "+", textStyle)
			canvas.Text(-36, 76, "-", textStyle)
		}
	case "f":
		drawDiamond(canvas, 0, 80)
	}
}

func drawDiamond(canvas *svg.SVG, top, bottom int) {
	mid := (top + bottom) / 2
	canvas.Line(0, top, 0, mid-24, bodyStyle)
	canvas.Polygon([]int{0, 24, 0, -24}, []int{mid - 24, mid, mid + 24, mid}, bodyStyle)
	canvas.Line(0, mid+24, 0, bottom, bodyStyle)
}

func drawGround(canvas *svg.SVG, p Point) {
	canvas.Line(p.X-16, p.Y, p.X+16, p.Y, wireStyle)
	canvas.Line(p.X-10, p.Y+6, p.X+10, p.Y+6, wireStyle)
	canvas.Line(p.X-4, p.Y+12, p.X+4, p.Y+12, wireStyle)
}
