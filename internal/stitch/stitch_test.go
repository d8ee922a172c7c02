package stitch_test

import (
	"strings"
	"testing"

	"github.com/kschaper/goslicer/internal/diagnostics"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/segment"
	"github.com/kschaper/goslicer/internal/stitch"
)

func pt(x, y int64) geom.Point { return geom.Point{X: x, Y: y} }

func TestStitchExactSquare(t *testing.T) {
	segs := []segment.Segment{
		{A: pt(0, 0), B: pt(10, 0)},
		{A: pt(10, 0), B: pt(10, 10)},
		{A: pt(10, 10), B: pt(0, 10)},
		{A: pt(0, 10), B: pt(0, 0)},
	}
	paths := stitch.Stitch(segs, 0, 0, 0, nil)
	if len(paths) != 1 {
		t.Fatalf("len(paths) = %d, want 1", len(paths))
	}
	if len(paths[0]) != 4 {
		t.Fatalf("len(paths[0]) = %d, want 4", len(paths[0]))
	}
}

func TestStitchToleranceClosesGap(t *testing.T) {
	segs := []segment.Segment{
		{A: pt(0, 0), B: pt(10, 0)},
		{A: pt(10, 1), B: pt(10, 10)}, // off by 1 unit from the expected (10,0)
		{A: pt(10, 10), B: pt(0, 10)},
		{A: pt(0, 10), B: pt(0, 0)},
	}
	paths := stitch.Stitch(segs, 5, 0, 0, nil)
	if len(paths) != 1 {
		t.Fatalf("len(paths) = %d, want 1", len(paths))
	}
}

func TestStitchUnclosableWarns(t *testing.T) {
	segs := []segment.Segment{
		{A: pt(0, 0), B: pt(10, 0)},
		{A: pt(10, 0), B: pt(10, 10)},
		// missing closing segments -- chain cannot close
	}
	sink := diagnostics.NewSink()
	paths := stitch.Stitch(segs, 0, 0, 3, sink)
	if sink.Len() == 0 {
		t.Error("expected a diagnostic warning for an unclosable chain")
	}
	if len(paths) != 1 || len(paths[0]) != 3 {
		t.Errorf("expected the 2-segment chain to be kept as one forcibly closed 3-vertex contour, got %v", paths)
	}
}

func TestStitchClosesToOriginWhenCloserThanBestSegment(t *testing.T) {
	// The third edge of the triangle stops at (1,1) instead of returning
	// to (0,0); no segment is left to extend the chain, but the open tail
	// lands within tolerance of the polygon's own origin (§4.2 step 2),
	// so it should close without a warning and without needing a
	// matching segment.
	segs := []segment.Segment{
		{A: pt(0, 0), B: pt(10, 0)},
		{A: pt(10, 0), B: pt(10, 10)},
		{A: pt(10, 10), B: pt(1, 1)}, // tail (1,1) is close to origin (0,0)
	}
	sink := diagnostics.NewSink()
	paths := stitch.Stitch(segs, 2, 0, 0, sink)
	if sink.Len() != 0 {
		t.Errorf("expected no warning when the gap closes to the polygon's origin, got %v", sink.All())
	}
	if len(paths) != 1 {
		t.Fatalf("len(paths) = %d, want 1", len(paths))
	}
	if len(paths[0]) != 4 {
		t.Errorf("len(paths[0]) = %d, want 4", len(paths[0]))
	}
}

func TestStitchReversesMajorityFlippedPolygon(t *testing.T) {
	// Two of three edges are supplied with reversed direction, as if
	// their source triangles had inverted normals; the stitcher must
	// accept them via flip, notice that a majority of the polygon's
	// segments were flipped, and reverse + diagnose the whole polygon.
	segs := []segment.Segment{
		{A: pt(0, 0), B: pt(10, 0)},  // correct direction
		{A: pt(5, 10), B: pt(10, 0)}, // reversed
		{A: pt(0, 0), B: pt(5, 10)},  // reversed
	}
	sink := diagnostics.NewSink()
	paths := stitch.Stitch(segs, 0, 0, 3, sink)
	if sink.Len() == 0 {
		t.Fatal("expected a \"flipped segment\" diagnostic")
	}
	found := false
	for _, w := range sink.All() {
		if strings.Contains(w.Message, "flipped segment") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a diagnostic mentioning \"flipped segment\", got %v", sink.All())
	}
	if len(paths) != 1 || len(paths[0]) != 3 {
		t.Fatalf("expected one closed triangle, got %v", paths)
	}
}

func TestStitchMultipleContours(t *testing.T) {
	segs := []segment.Segment{
		{A: pt(0, 0), B: pt(10, 0)},
		{A: pt(10, 0), B: pt(10, 10)},
		{A: pt(10, 10), B: pt(0, 10)},
		{A: pt(0, 10), B: pt(0, 0)},

		{A: pt(100, 0), B: pt(110, 0)},
		{A: pt(110, 0), B: pt(110, 10)},
		{A: pt(110, 10), B: pt(100, 10)},
		{A: pt(100, 10), B: pt(100, 0)},
	}
	paths := stitch.Stitch(segs, 0, 0, 0, nil)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}
}

func TestSortByAreaLargestFirst(t *testing.T) {
	small := geom.Path{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1)}
	large := geom.Path{pt(0, 0), pt(100, 0), pt(100, 100), pt(0, 100)}
	sorted := stitch.SortByArea(geom.Paths{small, large})
	if len(sorted[0]) != len(large) {
		t.Error("expected the larger contour first")
	}
}
