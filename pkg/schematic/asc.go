// Package schematic reads LTspice .asc schematics, derives their nets and
// turns them into netlists and SVG drawings.
package schematic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Point struct {
	X, Y int
}

func (p Point) add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

type Wire struct {
	A, B Point
}

// Flag names the net at a point. Name "0" is ground.
type Flag struct {
	At   Point
	Name string
}

type Symbol struct {
	Kind      string // res, cap, ind, voltage, current, e, g, f, h
	At        Point
	Orient    string // R0, R90, R180, R270, M0, M90, M180, M270
	InstName  string
	Value     string
	SpiceLine string
}

type Text struct {
	At   Point
	Text string
}

type Schematic struct {
	Wires      []Wire
	Flags      []Flag
	Symbols    []Symbol
	Directives []Text // TEXT lines starting with '!'
	Comments   []Text // TEXT lines starting with ';'
}

type symbolDef struct {
	prefix string
	pins   []Point // in netlist node order, R0
}

var symbolDefs = map[string]symbolDef{
	"res":     {"R", []Point{{16, 16}, {16, 96}}},
	"cap":     {"C", []Point{{16, 0}, {16, 64}}},
	"ind":     {"L", []Point{{16, 16}, {16, 96}}},
	"voltage": {"V", []Point{{0, 16}, {0, 96}}},
	"current": {"I", []Point{{0, 0}, {0, 80}}},
	"e":       {"E", []Point{{0, 16}, {0, 96}, {-48, 32}, {-48, 80}}},
	"g":       {"G", []Point{{0, 16}, {0, 96}, {-48, 32}, {-48, 80}}},
	"f":       {"F", []Point{{0, 0}, {0, 80}}},
	"h":       {"H", []Point{{0, 16}, {0, 96}}},
}

// Load reads an .asc file. LTspice writes either UTF-8/ASCII or UTF-16LE.
func Load(path string) (*Schematic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Parse(r io.Reader) (*Schematic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isUTF16LE(data) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		data, _, err = transform.Bytes(dec, data)
		if err != nil {
			return nil, fmt.Errorf("decoding UTF-16: %w", err)
		}
	}

	s := &Schematic{}
	var current *Symbol
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		keyword, rest, _ := strings.Cut(line, " ")
		fields := strings.Fields(rest)

		var err error
		switch strings.ToUpper(keyword) {
		case "WIRE":
			var c []int
			c, err = ints(fields, 4)
			if err == nil {
				s.Wires = append(s.Wires, Wire{Point{c[0], c[1]}, Point{c[2], c[3]}})
			}
		case "FLAG":
			var c []int
			c, err = ints(fields, 2)
			if err == nil {
				if len(fields) < 3 {
					err = fmt.Errorf("FLAG without name")
					break
				}
				s.Flags = append(s.Flags, Flag{Point{c[0], c[1]}, fields[2]})
			}
		case "SYMBOL":
			if len(fields) < 4 {
				err = fmt.Errorf("SYMBOL needs kind, position and orientation")
				break
			}
			var c []int
			c, err = ints(fields[1:3], 2)
			if err == nil {
				s.Symbols = append(s.Symbols, Symbol{
					Kind:   symbolKind(fields[0]),
					At:     Point{c[0], c[1]},
					Orient: strings.ToUpper(fields[3]),
				})
				current = &s.Symbols[len(s.Symbols)-1]
			}
		case "SYMATTR":
			if current == nil {
				err = fmt.Errorf("SYMATTR outside SYMBOL")
				break
			}
			name, value, _ := strings.Cut(rest, " ")
			switch strings.ToLower(name) {
			case "instname":
				current.InstName = strings.TrimSpace(value)
			case "value":
				current.Value = strings.TrimSpace(value)
			case "spiceline":
				current.SpiceLine = strings.TrimSpace(value)
			}
		case "TEXT":
			err = s.parseText(rest)
		}
		// VERSION, SHEET, WINDOW, IOPIN, LINE ... carry no circuit data.
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseText reads "x y align size [!;]text". Multi-line texts are stored
// with a literal \n.
func (s *Schematic) parseText(rest string) error {
	fields := strings.SplitN(rest, " ", 5)
	if len(fields) < 5 {
		return fmt.Errorf("TEXT needs position, alignment, size and text")
	}
	c, err := ints(fields[:2], 2)
	if err != nil {
		return err
	}
	at := Point{c[0], c[1]}
	body := fields[4]
	switch {
	case strings.HasPrefix(body, "!"):
		for _, line := range strings.Split(body[1:], `\n`) {
			if line = strings.TrimSpace(line); line != "" {
				s.Directives = append(s.Directives, Text{at, line})
			}
		}
	case strings.HasPrefix(body, ";"):
		s.Comments = append(s.Comments, Text{at, strings.ReplaceAll(body[1:], `\n`, "\n")})
	}
	return nil
}

func symbolKind(name string) string {
	name = strings.ReplaceAll(name, `\\`, `\`)
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

func ints(fields []string, n int) ([]int, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("need %d coordinates, got %d", n, len(fields))
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", fields[i])
		}
		out[i] = v
	}
	return out, nil
}

func isUTF16LE(data []byte) bool {
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		return true
	}
	return len(data) >= 2 && data[0] != 0 && data[1] == 0
}

// transformPoint maps a symbol-local point to sheet coordinates.
func transformPoint(p Point, orient string) (Point, error) {
	x, y := p.X, p.Y
	switch orient {
	case "R0":
		return Point{x, y}, nil
	case "R90":
		return Point{-y, x}, nil
	case "R180":
		return Point{-x, -y}, nil
	case "R270":
		return Point{y, -x}, nil
	case "M0":
		return Point{-x, y}, nil
	case "M90":
		return Point{-y, -x}, nil
	case "M180":
		return Point{x, -y}, nil
	case "M270":
		return Point{y, x}, nil
	}
	return Point{}, fmt.Errorf("unknown orientation %q", orient)
}

// Pins returns the sheet coordinates of the symbol pins in node order.
func (sym Symbol) Pins() ([]Point, error) {
	def, ok := symbolDefs[sym.Kind]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported symbol %q", sym.InstName, sym.Kind)
	}
	pins := make([]Point, len(def.pins))
	for i, p := range def.pins {
		t, err := transformPoint(p, sym.Orient)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym.InstName, err)
		}
		pins[i] = sym.At.add(t)
	}
	return pins, nil
}
