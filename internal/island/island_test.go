package island_test

import (
	"testing"

	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/island"
)

func square(x0, y0, x1, y1 int64) geom.Path {
	return geom.Path{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func TestBuildSingleOuterNoHoles(t *testing.T) {
	outer := square(0, 0, 100, 100)
	islands := island.Build(geom.Paths{outer})
	if len(islands) != 1 {
		t.Fatalf("len(islands) = %d, want 1", len(islands))
	}
	if len(islands[0].Holes) != 0 {
		t.Errorf("expected no holes, got %d", len(islands[0].Holes))
	}
}

func TestBuildOuterWithHole(t *testing.T) {
	outer := square(0, 0, 100, 100)
	hole := square(20, 20, 80, 80).Reversed()
	islands := island.Build(geom.Paths{outer, hole})
	if len(islands) != 1 {
		t.Fatalf("len(islands) = %d, want 1", len(islands))
	}
	if len(islands[0].Holes) != 1 {
		t.Fatalf("len(Holes) = %d, want 1", len(islands[0].Holes))
	}
}

func TestBuildTwoDisjointIslands(t *testing.T) {
	a := square(0, 0, 10, 10)
	b := square(100, 100, 110, 110)
	islands := island.Build(geom.Paths{a, b})
	if len(islands) != 2 {
		t.Fatalf("len(islands) = %d, want 2", len(islands))
	}
}

func TestAllPathsIncludesOuterAndHoles(t *testing.T) {
	isl := &island.Island{
		Outer: square(0, 0, 100, 100),
		Holes: geom.Paths{square(10, 10, 20, 20)},
	}
	all := isl.AllPaths()
	if len(all) != 2 {
		t.Fatalf("len(AllPaths) = %d, want 2", len(all))
	}
}
