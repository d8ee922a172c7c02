// Package stitch implements stage 2 of the slicing pipeline: joining the
// unordered, oriented segments stage 1 produced for one layer into
// closed polygon contours. Exact endpoint matches are tried first;
// remaining open chains are closed with tolerance-based nearest
// neighbor search, mirroring the teacher's layered approach of trying
// the cheap exact path before falling back to a fuzzier one.
package stitch

import (
	"sort"

	"github.com/kschaper/goslicer/internal/diagnostics"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/segment"
)

// Stitch joins segs into closed contours. tolerance and coarseness are
// in fixed-point units (already scaled); coarseness lightly simplifies
// each closed polygon by dropping vertices collinear within that
// distance (§4.2). layer is the layer index, used only to tag
// diagnostics.
func Stitch(segs []segment.Segment, tolerance int64, coarseness int64, layer int, diag *diagnostics.Sink) geom.Paths {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	// exact[p] lists indices of unused segments whose A endpoint is p.
	exact := make(map[geom.Point][]int)
	for i, s := range segs {
		exact[s.A] = append(exact[s.A], i)
	}

	removeExact := func(p geom.Point, idx int) {
		lst := exact[p]
		for k, v := range lst {
			if v == idx {
				exact[p] = append(lst[:k], lst[k+1:]...)
				break
			}
		}
	}

	var paths geom.Paths

	for start := 0; start < len(segs); start++ {
		if used[start] {
			continue
		}
		used[start] = true
		removeExact(segs[start].A, start)

		chain := geom.Path{segs[start].A, segs[start].B}
		closed := false
		accepted := 1
		flipped := 0
		tol2 := tolerance * tolerance

		for {
			tail := chain[len(chain)-1]
			if tail == chain[0] {
				closed = true
				break
			}

			// Exact match first.
			if candidates, ok := exact[tail]; ok && len(candidates) > 0 {
				next := candidates[0]
				used[next] = true
				removeExact(segs[next].A, next)
				chain = append(chain, segs[next].B)
				accepted++
				continue
			}

			// Fall back to tolerance-based nearest neighbor across every
			// remaining unused segment endpoint (both A and, flipped, B).
			next, flip, dBest, found := nearestWithinTolerance(segs, used, tail, tolerance)

			// Closing back to the polygon's own origin may be a smaller
			// squared distance than the best remaining segment; prefer it
			// when so, rather than consuming an unrelated segment (§4.2
			// step 2).
			originDist := geom.DistSq(tail, chain[0])
			if originDist <= tol2 && (!found || originDist < dBest) {
				closed = true
				break
			}
			if !found {
				break
			}
			used[next] = true
			removeExact(segs[next].A, next)
			if flip {
				chain = append(chain, segs[next].A)
				flipped++
			} else {
				chain = append(chain, segs[next].B)
			}
			accepted++
		}

		if !closed {
			if diag != nil {
				diag.Warnf(layer, "hole in mesh: contour of %d segments did not close within tolerance; closing forcibly", len(chain))
			}
		} else if flipped*2 > accepted {
			// More than half this polygon's segments were only reachable by
			// flipping, meaning the source triangles' orientation was
			// probably wrong for it; reverse the whole polygon rather than
			// trust the majority-flipped winding (§4.2's flipping heuristic).
			chain = chain.Reversed()
			if diag != nil {
				diag.Warnf(layer, "flipped segment: reversed polygon of %d segments (%d/%d accepted via flip)", len(chain), flipped, accepted)
			}
		}
		// Drop the duplicated closing vertex stitch produces when a chain
		// does close exactly; an open chain is closed forcibly since every
		// later stage assumes closed polygons.
		if len(chain) > 1 && chain[len(chain)-1] == chain[0] {
			chain = chain[:len(chain)-1]
		}
		if len(chain) >= 3 {
			if simplified := chain.Simplify(coarseness); len(simplified) >= 3 {
				chain = simplified
			}
			paths = append(paths, chain)
		}
	}

	return paths
}

// nearestWithinTolerance scans every unused segment for the endpoint
// closest to tail, preferring an unflipped match (tail connects to that
// segment's A) but accepting a flipped match (tail connects to its B,
// so the segment must be reversed) when that's closer. Returns
// found=false when nothing lies within tolerance.
func nearestWithinTolerance(segs []segment.Segment, used []bool, tail geom.Point, tolerance int64) (idx int, flip bool, dist int64, found bool) {
	tol2 := tolerance * tolerance
	best := int64(-1)
	bestIdx := -1
	bestFlip := false

	for i, s := range segs {
		if used[i] {
			continue
		}
		if d := geom.DistSq(tail, s.A); d <= tol2 && (best < 0 || d < best) {
			best, bestIdx, bestFlip = d, i, false
		}
		if d := geom.DistSq(tail, s.B); d <= tol2 && (best < 0 || d < best) {
			best, bestIdx, bestFlip = d, i, true
		}
	}
	if bestIdx < 0 {
		return 0, false, 0, false
	}
	return bestIdx, bestFlip, best, true
}

// SortByArea orders contours largest-area-first, a convenient
// normalization before island construction so islands tend to enumerate
// outer boundaries before their holes when no forest structure is
// available yet.
func SortByArea(paths geom.Paths) geom.Paths {
	out := make(geom.Paths, len(paths))
	copy(out, paths)
	sort.Slice(out, func(i, j int) bool {
		ai := out[i].SignedArea2()
		aj := out[j].SignedArea2()
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})
	return out
}
