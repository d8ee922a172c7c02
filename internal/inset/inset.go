// Package inset implements stage 4 of the slicing pipeline: deriving
// concentric shell offsets, the infill boundary, and shell-gap regions
// from each island's outlines.
package inset

import (
	"math"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/island"
)

// EdgeWidth derives the effective width of the unconstrained outermost
// perimeter from extrusion_width, layer_height, and packing_density
// (§4.3). Solid infill packs a rectangle; the outer perimeter has one
// rounded side, so matching cross-sectional area implies a slightly
// wider geometric footprint.
func EdgeWidth(s *config.Settings) float64 {
	area := ExtrusionArea(s)
	return (area-(s.LayerHeight*s.LayerHeight*math.Pi/4))/s.LayerHeight + s.LayerHeight
}

// ExtrusionArea is the nominal cross-sectional area of one bead of
// material, used both for inset math and for Δe accounting in move
// planning.
func ExtrusionArea(s *config.Settings) float64 {
	return s.ExtrusionWidth * s.LayerHeight * s.PackingDensity
}

// Result holds everything stage 4 produces for one island.
type Result struct {
	Shells         []geom.Paths // indexed 0..shells-1, outermost first
	InfillBoundary geom.Paths
	ShellGaps      []geom.Paths // indexed 0..len(Shells)-2
}

func offsetParams(s *config.Settings) geom.OffsetParams {
	return geom.OffsetParams{Join: s.JoinType, MiterLimit: s.MiterLimit, ArcTolerance: s.ArcTolerance}
}

// Generate computes shells, the infill boundary, and shell gaps for one
// island. scale converts the settings' millimeter widths into
// fixed-point offset deltas.
func Generate(isl *island.Island, s *config.Settings) Result {
	scale := s.FixedPointScale
	params := offsetParams(s)
	outline := isl.AllPaths()

	edgeWidth := EdgeWidth(s)
	extrusionWidth := s.ExtrusionWidth

	var result Result

	shell0 := geom.OffsetClosed(outline, -float64(geom.ToFixed(edgeWidth/2, scale)), params)
	if len(shell0) == 0 {
		result.InfillBoundary = geom.OffsetClosed(outline, -float64(geom.ToFixed(edgeWidth/2, scale)), params)
		return result
	}
	result.Shells = append(result.Shells, shell0)

	prev := shell0
	for k := 1; k < s.Shells; k++ {
		candidate := geom.OffsetClosed(prev, -float64(geom.ToFixed(extrusionWidth, scale)), params)
		if len(candidate) == 0 {
			break
		}
		// Overlap-removal pass: dilate then erode by extrusion_width/2 to
		// close self-overlap a direct offset would leave on thin features.
		dilated := geom.OffsetClosed(candidate, float64(geom.ToFixed(extrusionWidth/2, scale)), params)
		closed := geom.OffsetClosed(dilated, -float64(geom.ToFixed(extrusionWidth/2, scale)), params)
		if len(closed) == 0 {
			break
		}
		result.Shells = append(result.Shells, closed)
		prev = closed
	}

	if len(result.Shells) == 0 {
		result.InfillBoundary = geom.OffsetClosed(outline, -float64(geom.ToFixed(edgeWidth/2, scale)), params)
		return result
	}

	innermost := result.Shells[len(result.Shells)-1]
	result.InfillBoundary = geom.OffsetClosed(innermost, -float64(geom.ToFixed(extrusionWidth/2, scale)), params)

	for i := 0; i+1 < len(result.Shells); i++ {
		gap := geom.Difference(result.Shells[i], result.Shells[i+1], geom.NonZero)
		gap = geom.OffsetClosed(gap, -float64(geom.ToFixed(extrusionWidth/2, scale)), params)
		if s.FillThreshold > 0 {
			gap = eraseSlivers(gap, extrusionWidth*s.FillThreshold/2, scale, params)
		}
		result.ShellGaps = append(result.ShellGaps, gap)
	}

	if s.SeamAlignment {
		for i := range result.Shells {
			result.Shells[i] = alignSeams(result.Shells[i])
		}
	}

	return result
}

// eraseSlivers performs an inward-then-outward offset pair (a
// morphological opening) to remove regions narrower than 2*delta,
// used to drop slivers thinner than fill_threshold permits.
func eraseSlivers(paths geom.Paths, delta float64, scale float64, params geom.OffsetParams) geom.Paths {
	if delta <= 0 || len(paths) == 0 {
		return paths
	}
	d := float64(geom.ToFixed(delta, scale))
	eroded := geom.OffsetClosed(paths, -d, params)
	if len(eroded) == 0 {
		return nil
	}
	return geom.OffsetClosed(eroded, d, params)
}

// alignSeams rotates every path in paths so its first vertex is the one
// minimizing x+y (§4.3), keeping seams aligned vertically across layers.
func alignSeams(paths geom.Paths) geom.Paths {
	out := make(geom.Paths, len(paths))
	for i, p := range paths {
		out[i] = p.RotatedFrom(p.LowestLeftIndex())
	}
	return out
}
