// Package infillclip implements stage 6 of the slicing pipeline:
// intersecting the precomputed infill line patterns with each island's
// solid-fill and sparse-fill regions for a given layer, where the solid
// region is derived from a layer-neighborhood boolean difference (§4.5).
package infillclip

import (
	"math"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/infillpattern"
	"github.com/kschaper/goslicer/internal/inset"
	"github.com/kschaper/goslicer/internal/island"
)

// IslandGeom bundles one island with the shell/infill-boundary geometry
// stage 4 computed for it; it's the unit both this stage and motion
// planning consume.
type IslandGeom struct {
	Island *island.Island
	Inset  inset.Result
}

// LayerData is everything infill clipping needs to know about one
// layer's islands, whether it's the layer being clipped or a
// floor/roof neighbor being read (read-only, per §5).
type LayerData struct {
	Islands []IslandGeom
}

// Clipped is one island's clipped infill for its layer.
type Clipped struct {
	SolidInfill  geom.Paths
	SparseInfill geom.Paths
}

// FloorRoofLayers converts the millimeter thickness settings into
// layer counts.
func FloorRoofLayers(s *config.Settings) (floor, roof int) {
	floor = int(s.FloorThickness/s.LayerHeight + 0.5)
	roof = int(s.RoofThickness/s.LayerHeight + 0.5)
	return floor, roof
}

// ClipIsland computes solid_infill and sparse_infill for one island on
// layer layerIndex (0-based) of N total layers. below and above are the
// floor_layers/roof_layers neighbor layers, nearest-first, excluding
// the current layer; a nil entry stands for an out-of-range layer at
// the bottom/top of the object.
func ClipIsland(
	ig IslandGeom,
	layerIndex, totalLayers int,
	floorLayers, roofLayers int,
	below, above []*LayerData,
	patterns infillpattern.Patterns,
	s *config.Settings,
) Clipped {
	pattern := patterns.Even
	if layerIndex%2 == 1 {
		pattern = patterns.Odd
	}
	gaps := unionGaps(ig.Inset.ShellGaps)

	fullySolid := s.InfillDensity >= 1 || layerIndex < floorLayers || layerIndex+roofLayers >= totalLayers

	if fullySolid {
		clipRegion := geom.Union(ig.Inset.InfillBoundary, gaps, geom.NonZero)
		return Clipped{
			SolidInfill: geom.ClipOpenLines(pattern, clipRegion, geom.NonZero),
		}
	}

	if floorLayers == 0 && roofLayers == 0 {
		return Clipped{
			SparseInfill: geom.ClipOpenLines(patterns.Sparse, ig.Inset.InfillBoundary, geom.NonZero),
		}
	}

	region := ig.Inset.InfillBoundary
	for _, l := range below {
		if l == nil {
			continue
		}
		u := neighborUnion(l, ig.Island.Bounds)
		region = geom.Intersect(region, u, geom.NonZero)
	}
	for _, l := range above {
		if l == nil {
			continue
		}
		u := neighborUnion(l, ig.Island.Bounds)
		region = geom.Intersect(region, u, geom.NonZero)
	}

	solidRegion := geom.Difference(ig.Inset.InfillBoundary, region, geom.NonZero)
	sparseRegion := region

	if s.FillThreshold > 0 {
		delta := s.ExtrusionWidth * s.FillThreshold / 2
		solidRegion = shrinkRegrow(solidRegion, delta, s)
		sparseRegion = shrinkRegrow(sparseRegion, delta, s)
	}

	clipRegion := geom.Union(solidRegion, gaps, geom.NonZero)
	return Clipped{
		SolidInfill:  geom.ClipOpenLines(pattern, clipRegion, geom.NonZero),
		SparseInfill: geom.ClipOpenLines(patterns.Sparse, sparseRegion, geom.NonZero),
	}
}

// neighborUnion unions the innermost shell (or infill boundary, if the
// island has no shells) of every island in layer whose bounding box
// overlaps bounds, the cheap pruning test §4.5 calls for.
func neighborUnion(layer *LayerData, bounds geom.BoundingBox) geom.Paths {
	var acc geom.Paths
	for _, ig := range layer.Islands {
		if !ig.Island.Bounds.Intersects(bounds) {
			continue
		}
		acc = append(acc, innermostOrBoundary(ig)...)
	}
	if len(acc) == 0 {
		return nil
	}
	return geom.Union(acc, nil, geom.NonZero)
}

func innermostOrBoundary(ig IslandGeom) geom.Paths {
	if len(ig.Inset.Shells) > 0 {
		return ig.Inset.Shells[len(ig.Inset.Shells)-1]
	}
	return ig.Inset.InfillBoundary
}

func unionGaps(gaps []geom.Paths) geom.Paths {
	var acc geom.Paths
	for _, g := range gaps {
		acc = append(acc, g...)
	}
	if len(acc) == 0 {
		return nil
	}
	return geom.Union(acc, nil, geom.NonZero)
}

// shrinkRegrow performs an inward-then-outward offset pair to erase
// slivers narrower than 2*delta.
func shrinkRegrow(paths geom.Paths, delta float64, s *config.Settings) geom.Paths {
	if delta <= 0 || len(paths) == 0 {
		return paths
	}
	d := math.Round(delta * s.FixedPointScale)
	params := geom.OffsetParams{Join: s.JoinType, MiterLimit: s.MiterLimit, ArcTolerance: s.ArcTolerance}
	eroded := geom.OffsetClosed(paths, -d, params)
	if len(eroded) == 0 {
		return nil
	}
	return geom.OffsetClosed(eroded, d, params)
}
