// Package infillpattern implements stage 5 of the slicing pipeline:
// precomputing rotated rectilinear line stocks once per object, covering
// its full XY bounding box. Stage 6 (package infillclip) clips these
// down to each layer's actual solid/sparse regions.
package infillpattern

import (
	"math"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/geom"
)

// Patterns holds the three precomputed line stocks: two full-density
// patterns alternating by layer parity, and one sparser pattern.
type Patterns struct {
	Even   geom.Paths // +45 degrees
	Odd    geom.Paths // -45 degrees
	Sparse geom.Paths
}

// Generate builds all three patterns over bounds, the object's full XY
// bounding box (in fixed-point units).
func Generate(bounds geom.BoundingBox, s *config.Settings) Patterns {
	scale := s.FixedPointScale
	spacing := s.ExtrusionWidth * math.Sqrt2
	sparseSpacing := spacing
	if s.InfillDensity > 0 {
		sparseSpacing = s.ExtrusionWidth * math.Sqrt2 / s.InfillDensity * 2
	}

	return Patterns{
		Even:   linesAt45(bounds, geom.ToFixed(spacing, scale), true),
		Odd:    linesAt45(bounds, geom.ToFixed(spacing, scale), false),
		Sparse: linesAt45(bounds, geom.ToFixed(sparseSpacing, scale), true),
	}
}

// linesAt45 produces parallel two-point open lines at +45 (positive) or
// -45 (negative) degrees, spaced `spacing` apart, each long enough to
// span bounds diagonally so later clipping can trim to the real region.
func linesAt45(bounds geom.BoundingBox, spacing int64, positive bool) geom.Paths {
	if spacing <= 0 || bounds.Empty() {
		return nil
	}

	// Rotate the bounding box into a coordinate frame where these lines
	// are axis-aligned (u = x-y for +45, u = x+y for -45), then walk u
	// across the rotated extent, one line per step.
	var lo, hi int64
	corners := []geom.Point{
		{X: bounds.MinX, Y: bounds.MinY},
		{X: bounds.MaxX, Y: bounds.MinY},
		{X: bounds.MinX, Y: bounds.MaxY},
		{X: bounds.MaxX, Y: bounds.MaxY},
	}
	first := true
	for _, c := range corners {
		u := diagCoord(c, positive)
		if first || u < lo {
			lo = u
		}
		if first || u > hi {
			hi = u
		}
		first = false
	}

	diag := bounds.MaxX - bounds.MinX + bounds.MaxY - bounds.MinY + spacing
	cx := (bounds.MinX + bounds.MaxX) / 2
	cy := (bounds.MinY + bounds.MaxY) / 2

	var out geom.Paths
	for u := lo; u <= hi; u += spacing {
		var dx, dy int64
		if positive {
			dx, dy = 1, 1
		} else {
			dx, dy = 1, -1
		}
		// Line through the point with this u coordinate, running the full
		// diagonal length of the bounding box in direction (dx,dy).
		px, py := linePoint(u, positive, cx, cy)
		a := geom.Point{X: px - dx*diag/2, Y: py - dy*diag/2}
		b := geom.Point{X: px + dx*diag/2, Y: py + dy*diag/2}
		out = append(out, geom.Path{a, b})
	}
	return out
}

func diagCoord(p geom.Point, positive bool) int64 {
	if positive {
		return p.X - p.Y
	}
	return p.X + p.Y
}

// linePoint returns one point on the line with diagonal coordinate u,
// chosen as the projection of the bounding box center onto that line.
func linePoint(u int64, positive bool, cx, cy int64) (int64, int64) {
	if positive {
		// x - y = u, minimize distance to (cx,cy): x = (u+cx+cy)/2, y = x-u
		x := (u + cx + cy) / 2
		y := x - u
		return x, y
	}
	// x + y = u
	x := (u + cx - cy) / 2
	y := u - x
	return x, y
}
