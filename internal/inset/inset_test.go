package inset_test

import (
	"testing"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/inset"
	"github.com/kschaper/goslicer/internal/island"
)

func TestEdgeWidthWiderThanExtrusionWidth(t *testing.T) {
	s := config.Default()
	edge := inset.EdgeWidth(s)
	if edge <= 0 {
		t.Fatalf("EdgeWidth() = %v, want positive", edge)
	}
	if edge <= s.ExtrusionWidth {
		t.Errorf("EdgeWidth() = %v, want wider than ExtrusionWidth %v", edge, s.ExtrusionWidth)
	}
}

func square(x0, y0, x1, y1 int64) geom.Path {
	return geom.Path{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestGenerateProducesShellsForLargeIsland(t *testing.T) {
	s := config.Default()
	s.FixedPointScale = 1000
	isl := &island.Island{Outer: square(0, 0, 20000, 20000)}

	result := inset.Generate(isl, s)
	if len(result.Shells) == 0 {
		t.Fatal("expected at least one shell for a large island")
	}
	if len(result.InfillBoundary) == 0 {
		t.Error("expected a non-empty infill boundary")
	}
}

func TestGenerateTinyIslandProducesNoShells(t *testing.T) {
	s := config.Default()
	s.FixedPointScale = 1000
	isl := &island.Island{Outer: square(0, 0, 10, 10)} // 0.01mm square, far smaller than edge width

	result := inset.Generate(isl, s)
	if len(result.Shells) != 0 {
		t.Errorf("expected no shells for a tiny island, got %d", len(result.Shells))
	}
}
