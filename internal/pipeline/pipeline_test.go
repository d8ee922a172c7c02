package pipeline_test

import (
	"testing"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/mesh"
	"github.com/kschaper/goslicer/internal/pipeline"
)

// boxMesh builds a closed triangulated cube of side `side`, corner at
// the origin, two triangles per face wound so each face's normal points
// outward.
func boxMesh(side float64) *mesh.Mesh {
	v := func(x, y, z float64) mesh.Vertex { return mesh.Vertex{X: x, Y: y, Z: z} }
	s := side
	// 8 corners
	c := [8]mesh.Vertex{
		v(0, 0, 0), v(s, 0, 0), v(s, s, 0), v(0, s, 0),
		v(0, 0, s), v(s, 0, s), v(s, s, s), v(0, s, s),
	}
	tri := func(a, b, cc int) mesh.Triangle {
		return mesh.Triangle{V: [3]mesh.Vertex{c[a], c[b], c[cc]}}
	}
	tris := []mesh.Triangle{
		// bottom (normal -Z)
		tri(0, 2, 1), tri(0, 3, 2),
		// top (normal +Z)
		tri(4, 5, 6), tri(4, 6, 7),
		// front (normal -Y)
		tri(0, 1, 5), tri(0, 5, 4),
		// back (normal +Y)
		tri(3, 7, 6), tri(3, 6, 2),
		// left (normal -X)
		tri(0, 4, 7), tri(0, 7, 3),
		// right (normal +X)
		tri(1, 2, 6), tri(1, 6, 5),
	}
	return &mesh.Mesh{Triangles: tris, Min: v(0, 0, 0), Max: v(s, s, s)}
}

func TestSliceProducesExpectedLayerCount(t *testing.T) {
	m := boxMesh(10)
	s := config.Default()
	s.LayerHeight = 2
	s.FixedPointScale = 1000

	result := pipeline.Slice(m, s)
	if len(result.Layers) != 5 {
		t.Fatalf("len(Layers) = %d, want 5", len(result.Layers))
	}
}

func TestSliceEveryLayerEndsRetracted(t *testing.T) {
	m := boxMesh(10)
	s := config.Default()
	s.LayerHeight = 2

	result := pipeline.Slice(m, s)
	for _, l := range result.Layers {
		if len(l.Moves) == 0 {
			continue
		}
		last := l.Moves[len(l.Moves)-1]
		if last.DE >= 0 {
			t.Errorf("layer %d: expected final move to be a retract, got DE=%v", l.Index, last.DE)
		}
	}
}

func TestSliceZeroHeightMeshProducesNoLayers(t *testing.T) {
	m := &mesh.Mesh{} // empty mesh, Max.Z == 0
	s := config.Default()

	result := pipeline.Slice(m, s)
	if len(result.Layers) != 0 {
		t.Errorf("expected zero layers for an empty mesh, got %d", len(result.Layers))
	}
}
