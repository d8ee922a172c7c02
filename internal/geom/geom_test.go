package geom_test

import (
	"testing"

	"github.com/kschaper/goslicer/internal/geom"
)

func square(x0, y0, x1, y1 int64) geom.Path {
	return geom.Path{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestIsCCW(t *testing.T) {
	ccw := square(0, 0, 10, 10)
	if !ccw.IsCCW() {
		t.Error("expected square(0,0,10,10) to be CCW")
	}
	cw := ccw.Reversed()
	if cw.IsCCW() {
		t.Error("expected reversed square to be CW")
	}
}

func TestEnsureOrientation(t *testing.T) {
	p := square(0, 0, 10, 10)
	flipped := p.EnsureOrientation(false)
	if flipped.IsCCW() {
		t.Error("EnsureOrientation(false) should produce a CW path")
	}
	same := p.EnsureOrientation(true)
	if !same.IsCCW() {
		t.Error("EnsureOrientation(true) should keep a CCW path CCW")
	}
}

func TestBoundingBoxIntersects(t *testing.T) {
	a := geom.BoundsOf(geom.Paths{square(0, 0, 10, 10)})
	b := geom.BoundsOf(geom.Paths{square(5, 5, 15, 15)})
	c := geom.BoundsOf(geom.Paths{square(20, 20, 30, 30)})

	if !a.Intersects(b) {
		t.Error("expected overlapping boxes to intersect")
	}
	if a.Intersects(c) {
		t.Error("expected disjoint boxes not to intersect")
	}
}

func TestDistSq(t *testing.T) {
	d := geom.DistSq(geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 4})
	if d != 25 {
		t.Errorf("DistSq = %d, want 25", d)
	}
}

func TestSegmentsIntersect(t *testing.T) {
	a1, a2 := geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 10}
	b1, b2 := geom.Point{X: 0, Y: 10}, geom.Point{X: 10, Y: 0}
	if !geom.SegmentsIntersect(a1, a2, b1, b2) {
		t.Error("expected crossing diagonals to intersect")
	}

	c1, c2 := geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0}
	d1, d2 := geom.Point{X: 0, Y: 5}, geom.Point{X: 10, Y: 5}
	if geom.SegmentsIntersect(c1, c2, d1, d2) {
		t.Error("expected parallel non-crossing segments not to intersect")
	}
}

func TestLowestLeftIndexAndRotate(t *testing.T) {
	p := geom.Path{{X: 10, Y: 10}, {X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	idx := p.LowestLeftIndex()
	if p[idx] != (geom.Point{X: 0, Y: 0}) {
		t.Errorf("LowestLeftIndex picked %v, want {0 0}", p[idx])
	}
	rotated := p.RotatedFrom(idx)
	if rotated[0] != (geom.Point{X: 0, Y: 0}) {
		t.Errorf("RotatedFrom(%d)[0] = %v, want {0 0}", idx, rotated[0])
	}
	if len(rotated) != len(p) {
		t.Fatalf("RotatedFrom changed length: got %d want %d", len(rotated), len(p))
	}
}

func TestFixedPointRoundTrip(t *testing.T) {
	v := geom.ToFixed(12.345, 1000)
	if v != 12345 {
		t.Errorf("ToFixed(12.345, 1000) = %d, want 12345", v)
	}
	mm := geom.ToMM(12345, 1000)
	if mm != 12.345 {
		t.Errorf("ToMM(12345, 1000) = %v, want 12.345", mm)
	}

	neg := geom.ToFixed(-1.5, 1000)
	if neg != -1500 {
		t.Errorf("ToFixed(-1.5, 1000) = %d, want -1500", neg)
	}
}

func TestSimplifyRemovesCollinearVertex(t *testing.T) {
	// (5,0) sits exactly on the line from (0,0) to (10,0); within any
	// positive tolerance it should be dropped.
	p := geom.Path{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	out := p.Simplify(1)
	if len(out) != 4 {
		t.Fatalf("Simplify removed wrong count: got %d vertices, want 4: %v", len(out), out)
	}
	for _, v := range out {
		if v == (geom.Point{X: 5, Y: 0}) {
			t.Error("expected the collinear vertex (5,0) to be removed")
		}
	}
}

func TestSimplifyZeroToleranceIsNoop(t *testing.T) {
	p := geom.Path{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	out := p.Simplify(0)
	if len(out) != len(p) {
		t.Errorf("Simplify(0) changed vertex count: got %d, want %d", len(out), len(p))
	}
}

func TestSimplifyKeepsTriangleMinimum(t *testing.T) {
	p := geom.Path{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}}
	out := p.Simplify(1000)
	if len(out) < 3 {
		t.Errorf("Simplify must not reduce below a closed polygon's 3-vertex minimum, got %d", len(out))
	}
}

func TestClosedAndOpenLength(t *testing.T) {
	p := square(0, 0, 10, 0)
	// degenerate; use a proper square for length checks instead.
	sq := square(0, 0, 1000, 1000)
	if got := sq.ClosedLength(); got != 4000 {
		t.Errorf("ClosedLength = %v, want 4000", got)
	}
	if got := sq.OpenLength(); got != 3000 {
		t.Errorf("OpenLength = %v, want 3000", got)
	}
	_ = p
}
