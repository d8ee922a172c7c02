// Package geom provides the fixed-point integer polygon representation
// used by every stage after segment extraction, plus the thin adapter
// over the polygon clipping/offsetting kernel (Design Notes §9).
//
// All coordinates are signed 64-bit integers obtained by multiplying
// floating-point millimeters by Settings.FixedPointScale (nominally
// 1000, i.e. one-micron precision). Floating point only appears at the
// mesh-reading and motion-planning boundaries.
package geom

import "math"

// Point is a single fixed-point vertex.
type Point struct {
	X, Y int64
}

// Path is an open or closed sequence of vertices. For closed paths the
// first vertex is not repeated at the end.
type Path []Point

// Paths is a set of independent paths, e.g. an outer contour plus holes.
type Paths []Path

// FillRule selects how self-intersecting/overlapping paths resolve to a
// solid region, mirroring Clipper2's fill rules.
type FillRule int

const (
	NonZero FillRule = iota
	EvenOdd
)

// ToFixed converts a floating point millimeter value to the integer
// fixed-point representation.
func ToFixed(mm float64, scale float64) int64 {
	if mm >= 0 {
		return int64(mm*scale + 0.5)
	}
	return -int64(-mm*scale + 0.5)
}

// ToMM converts a fixed-point integer value back to millimeters.
func ToMM(v int64, scale float64) float64 {
	return float64(v) / scale
}

// PointToFixed converts a millimeter-space point to fixed point.
func PointToFixed(x, y float64, scale float64) Point {
	return Point{X: ToFixed(x, scale), Y: ToFixed(y, scale)}
}

// SignedArea2 returns twice the signed area of path (positive for
// counter-clockwise, negative for clockwise), avoiding a division so
// integer inputs never lose precision. Callers that need actual area
// divide by 2 themselves.
func (p Path) SignedArea2() int64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var sum int64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum
}

// IsCCW reports whether path is wound counter-clockwise.
func (p Path) IsCCW() bool {
	return p.SignedArea2() > 0
}

// Reversed returns a copy of path with vertex order reversed.
func (p Path) Reversed() Path {
	out := make(Path, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// EnsureOrientation returns path reversed if its winding doesn't match
// the requested ccw flag, otherwise returns path unchanged.
func (p Path) EnsureOrientation(ccw bool) Path {
	if p.IsCCW() == ccw {
		return p
	}
	return p.Reversed()
}

// BoundingBox is an axis-aligned integer bounding box.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY int64
}

// Empty reports whether the box has never been extended.
func (b BoundingBox) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Intersects reports whether two boxes overlap (touching counts as
// overlap), used to cheaply skip unrelated islands (§4.5).
func (b BoundingBox) Intersects(o BoundingBox) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.MinX <= o.MaxX && b.MaxX >= o.MinX && b.MinY <= o.MaxY && b.MaxY >= o.MinY
}

// Expand returns a copy of b grown outward by d on every side.
func (b BoundingBox) Expand(d int64) BoundingBox {
	return BoundingBox{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

// Contains reports whether p lies within the box (inclusive).
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// BoundsOf computes the bounding box across every path given.
func BoundsOf(paths Paths) BoundingBox {
	box := BoundingBox{MinX: math.MaxInt64, MinY: math.MaxInt64, MaxX: math.MinInt64, MaxY: math.MinInt64}
	for _, path := range paths {
		for _, v := range path {
			if v.X < box.MinX {
				box.MinX = v.X
			}
			if v.X > box.MaxX {
				box.MaxX = v.X
			}
			if v.Y < box.MinY {
				box.MinY = v.Y
			}
			if v.Y > box.MaxY {
				box.MaxY = v.Y
			}
		}
	}
	return box
}

// DistSq returns the squared Euclidean distance between two points,
// used throughout stitching and motion planning to avoid sqrt on hot
// comparison paths.
func DistSq(a, b Point) int64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// ccw is the standard orientation predicate used for segment
// intersection tests (§4.6 crossing detection): returns true if a, b, c
// are in counter-clockwise order.
func ccw(a, b, c Point) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsIntersect reports whether segment p1-p2 crosses segment p3-p4,
// using the orientation predicate rather than computing the
// intersection point, since only crossing detection is required.
func SegmentsIntersect(p1, p2, p3, p4 Point) bool {
	return ccw(p1, p3, p4) != ccw(p2, p3, p4) && ccw(p1, p2, p3) != ccw(p1, p2, p4)
}

// LowestLeftIndex returns the index of the vertex minimizing x+y
// (lower-left lexicographic), used for seam alignment (§4.3) so shells
// rotate to a stable start vertex across layers.
func (p Path) LowestLeftIndex() int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i].X+p[i].Y < p[best].X+p[best].Y {
			best = i
		}
	}
	return best
}

// RotatedFrom returns a copy of path starting at index i.
func (p Path) RotatedFrom(i int) Path {
	if len(p) == 0 {
		return p
	}
	out := make(Path, len(p))
	copy(out, p[i:])
	copy(out[len(p)-i:], p[:i])
	return out
}

// Closed returns path with its first vertex appended at the end, making
// the closing edge explicit (used by move planning to print a loop all
// the way back to its start vertex).
func (p Path) Closed() Path {
	if len(p) == 0 {
		return p
	}
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = p[0]
	return out
}

// ClosedLength returns the closed-path perimeter length in fixed-point units.
func (p Path) ClosedLength() float64 {
	if len(p) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(p); i++ {
		j := (i + 1) % len(p)
		dx := float64(p[j].X - p[i].X)
		dy := float64(p[j].Y - p[i].Y)
		total += math.Hypot(dx, dy)
	}
	return total
}

// Simplify removes vertices that lie within tolerance of the line
// joining their surviving neighbors, lightly smoothing a closed polygon
// without changing its shape beyond the given coarseness (§4.2). A
// single pass is made around the ring; it does not iterate to a fixed
// point, matching the "lightly simplified" (not fully reduced) intent.
func (p Path) Simplify(tolerance int64) Path {
	n := len(p)
	if n < 4 || tolerance <= 0 {
		return p
	}
	tol2 := tolerance * tolerance
	kept := make([]bool, n)
	for i := range kept {
		kept[i] = true
	}
	remaining := n
	for i := 0; i < n && remaining > 3; i++ {
		if !kept[i] {
			continue
		}
		prev := prevKept(kept, i)
		next := nextKept(kept, i)
		if prev == i || next == i {
			continue
		}
		if perpDistSq(p[prev], p[next], p[i]) <= tol2 {
			kept[i] = false
			remaining--
		}
	}
	out := make(Path, 0, remaining)
	for i, k := range kept {
		if k {
			out = append(out, p[i])
		}
	}
	return out
}

func prevKept(kept []bool, i int) int {
	n := len(kept)
	for j := 1; j <= n; j++ {
		k := (i - j + n) % n
		if kept[k] {
			return k
		}
	}
	return i
}

func nextKept(kept []bool, i int) int {
	n := len(kept)
	for j := 1; j <= n; j++ {
		k := (i + j) % n
		if kept[k] {
			return k
		}
	}
	return i
}

// perpDistSq returns the squared perpendicular distance from point c to
// the infinite line through a and b.
func perpDistSq(a, b, c Point) int64 {
	abx := b.X - a.X
	aby := b.Y - a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		acx := c.X - a.X
		acy := c.Y - a.Y
		return acx*acx + acy*acy
	}
	acx := c.X - a.X
	acy := c.Y - a.Y
	cross := abx*acy - aby*acx
	return cross * cross / lenSq
}

// OpenLength returns the open-path length (no closing edge).
func (p Path) OpenLength() float64 {
	if len(p) < 2 {
		return 0
	}
	var total float64
	for i := 0; i+1 < len(p); i++ {
		dx := float64(p[i+1].X - p[i].X)
		dy := float64(p[i+1].Y - p[i].Y)
		total += math.Hypot(dx, dy)
	}
	return total
}
