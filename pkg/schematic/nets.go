package schematic

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/edp1096/symspice/internal/consts"
)

// unionFind joins sheet points into nets.
type unionFind struct {
	parent map[Point]Point
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[Point]Point)}
}

func (u *unionFind) find(p Point) Point {
	if _, ok := u.parent[p]; !ok {
		u.parent[p] = p
		return p
	}
	for u.parent[p] != p {
		u.parent[p] = u.parent[u.parent[p]]
		p = u.parent[p]
	}
	return p
}

func (u *unionFind) union(a, b Point) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// onSegment reports whether p lies on the wire, endpoints included.
func onSegment(p Point, w Wire) bool {
	cross := (w.B.X-w.A.X)*(p.Y-w.A.Y) - (w.B.Y-w.A.Y)*(p.X-w.A.X)
	if cross != 0 {
		return false
	}
	return p.X >= min(w.A.X, w.B.X) && p.X <= max(w.A.X, w.B.X) &&
		p.Y >= min(w.A.Y, w.B.Y) && p.Y <= max(w.A.Y, w.B.Y)
}

// Nets holds the node name of every symbol pin.
type Nets struct {
	Pins  [][]string // per symbol, in node order
	Names []string   // distinct net names in order of first appearance
	conn  map[Point]int
}

// Nets derives the connectivity of the schematic. Flags name nets, ground
// is "0", unnamed nets are numbered N001, N002 ... by first pin appearance.
func (s *Schematic) Nets() (*Nets, error) {
	uf := newUnionFind()

	var points []Point
	pins := make([][]Point, len(s.Symbols))
	for i, sym := range s.Symbols {
		p, err := sym.Pins()
		if err != nil {
			return nil, err
		}
		pins[i] = p
		points = append(points, p...)
	}
	for _, w := range s.Wires {
		uf.union(w.A, w.B)
		points = append(points, w.A, w.B)
	}
	for _, f := range s.Flags {
		points = append(points, f.At)
	}
	for _, p := range points {
		for _, w := range s.Wires {
			if onSegment(p, w) {
				uf.union(p, w.A)
			}
		}
	}

	names := make(map[Point]string)
	for _, f := range s.Flags {
		name := f.Name
		if consts.IsGround(name) {
			name = consts.Ground
		}
		root := uf.find(f.At)
		if prev, ok := names[root]; ok && prev != name {
			return nil, fmt.Errorf("net at (%d,%d) is named both %q and %q", f.At.X, f.At.Y, prev, name)
		}
		names[root] = name
	}

	nets := &Nets{Pins: make([][]string, len(s.Symbols)), conn: make(map[Point]int)}
	seen := make(map[string]bool)
	unnamed := 0
	for i, ps := range pins {
		nets.Pins[i] = make([]string, len(ps))
		for j, p := range ps {
			root := uf.find(p)
			name, ok := names[root]
			if !ok {
				unnamed++
				name = fmt.Sprintf("N%03d", unnamed)
				names[root] = name
			}
			nets.Pins[i][j] = name
			if !seen[name] {
				seen[name] = true
				nets.Names = append(nets.Names, name)
			}
		}
	}

	// Connection count per point, for junction dots.
	for _, ps := range pins {
		for _, p := range ps {
			nets.conn[p]++
		}
	}
	for _, w := range s.Wires {
		nets.conn[w.A]++
		nets.conn[w.B]++
		for _, o := range s.Wires {
			for _, p := range []Point{o.A, o.B} {
				if p != w.A && p != w.B && onSegment(p, w) {
					nets.conn[p] += 2
				}
			}
		}
	}
	return nets, nil
}

// Junctions returns the points where three or more connections meet.
func (n *Nets) Junctions() []Point {
	var out []Point
	for p, c := range n.conn {
		if c >= 3 {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Point) int {
		return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y))
	})
	return out
}
