// Package island implements stage 3 of the slicing pipeline: folding a
// layer's stitched contours into a polygon forest via non-zero winding
// union, then grouping that forest into islands -- each top-level outer
// contour together with the holes immediately inside it, per §4.2.
// Nested outer contours (an island inside a hole) start new islands.
package island

import (
	"github.com/kschaper/goslicer/internal/geom"
)

// Island is one outer contour plus the holes directly inside it. Outer
// is wound CCW and Holes are wound CW, matching the convention the
// offsetting stage expects.
type Island struct {
	Outer  geom.Path
	Holes  geom.Paths
	Bounds geom.BoundingBox
}

// Build unions contours with the non-zero fill rule and converts the
// resulting forest into islands.
func Build(contours geom.Paths) []*Island {
	forest := geom.BuildForest(contours)
	var islands []*Island
	collect(forest, &islands)
	return islands
}

// collect walks the forest: every non-hole node starts a new island
// whose holes are its direct hole children; grandchildren of holes
// (nested outers) recurse as new top-level islands.
func collect(nodes []*geom.ForestNode, out *[]*Island) {
	for _, n := range nodes {
		if n.IsHole {
			// A hole reached directly at this recursion level (i.e. not
			// consumed as a child of an outer below) has no containing
			// outer in this subtree; that can't happen for a well-formed
			// union result, so this is defensive only.
			collect(n.Children, out)
			continue
		}

		isl := &Island{Outer: n.Polygon.EnsureOrientation(true)}
		for _, h := range n.Children {
			if h.IsHole {
				isl.Holes = append(isl.Holes, h.Polygon.EnsureOrientation(false))
				// A hole's own children are nested outer contours: new islands.
				collect(h.Children, out)
			} else {
				// An outer directly inside an outer (touching boundaries,
				// no hole between them) starts its own island too.
				collect([]*geom.ForestNode{h}, out)
			}
		}
		isl.Bounds = geom.BoundsOf(append(geom.Paths{isl.Outer}, isl.Holes...))
		*out = append(*out, isl)
	}
}

// AllPaths returns the outer plus holes as one Paths set, the shape the
// offsetting and boolean helpers in geom expect.
func (isl *Island) AllPaths() geom.Paths {
	out := make(geom.Paths, 0, 1+len(isl.Holes))
	out = append(out, isl.Outer)
	out = append(out, isl.Holes...)
	return out
}
