// Package plan implements stage 7 of the slicing pipeline: per layer,
// greedily ordering islands, shells, and infill lines into a move
// sequence with retraction and travel decisions (§4.6).
package plan

import (
	"math"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/infillclip"
	"github.com/kschaper/goslicer/internal/inset"
	"github.com/kschaper/goslicer/internal/island"
)

// Move is one planned motion: an absolute XYZ target, the incremental
// extrusion length for this move, a feed rate, and whether move
// emission may scale that feed rate by the layer-time multiplier.
type Move struct {
	X, Y, Z  float64
	DE       float64
	FeedRate float64
	Scalable bool
}

// MachineState is the planner-local view of the machine. PlanLayer
// updates it in place as it emits moves; the pipeline builds a fresh
// one for each layer, so position and retraction state do not carry
// over from the layer below.
type MachineState struct {
	X, Y, Z     float64
	E           float64
	FeedRate    float64
	IsRetracted bool
	IsNewIsland bool
}

// IslandPlan bundles one island with its stage 4/6 outputs, the unit
// the planner consumes.
type IslandPlan struct {
	Island *island.Island
	Inset  inset.Result
	Infill infillclip.Clipped
}

type loopRef struct {
	shellIndex int
	path       geom.Path
}

type plannerIsland struct {
	outlines geom.Paths
	loops    []loopRef
	lines    geom.Paths // solid_infill ++ sparse_infill, consumed as open 2-point segments
}

// PlanLayer produces the move sequence and elapsed layer time for one
// layer. z is the layer's cutting-plane height in millimeters.
// layerIndex is 0-based; firstLayer forces shells-first regardless of
// InfillFirst, per §4.6.
func PlanLayer(layerIndex int, z float64, islands []IslandPlan, state *MachineState, s *config.Settings) ([]Move, float64) {
	scale := s.FixedPointScale
	firstLayer := layerIndex == 0

	remaining := make([]*plannerIsland, 0, len(islands))
	for _, ip := range islands {
		pi := &plannerIsland{outlines: ip.Island.AllPaths()}
		for si, shell := range ip.Inset.Shells {
			for _, path := range shell {
				pi.loops = append(pi.loops, loopRef{shellIndex: si, path: path})
			}
		}
		pi.lines = append(pi.lines, ip.Infill.SolidInfill...)
		pi.lines = append(pi.lines, ip.Infill.SparseInfill...)
		remaining = append(remaining, pi)
	}

	var moves []Move
	var layerTime float64

	emit := func(m Move) {
		moves = append(moves, m)
		if m.FeedRate > 0 {
			dx := m.X - state.X
			dy := m.Y - state.Y
			dz := m.Z - state.Z
			lengthMM := hypot3(dx, dy, dz)
			layerTime += lengthMM / m.FeedRate
		}
		state.X, state.Y, state.Z = m.X, m.Y, m.Z
		state.E += m.DE
	}

	for len(remaining) > 0 {
		idx := nearestIslandIndex(state, remaining, s.SeamAlignment, scale)
		pi := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		state.IsNewIsland = true

		shellsFirst := firstLayer || !s.InfillFirst
		if shellsFirst {
			planShells(pi, state, s, z, scale, emit)
			planInfill(pi, state, s, z, scale, emit)
		} else {
			planInfill(pi, state, s, z, scale, emit)
			planShells(pi, state, s, z, scale, emit)
		}
	}

	if !state.IsRetracted {
		emit(retractMove(state, s, z))
	}

	return moves, layerTime
}

func hypot3(dx, dy, dz float64) float64 {
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// nearestIslandIndex picks the remaining island whose closest candidate
// vertex (only the first outline vertex, if seam alignment is enabled)
// lies nearest to the current machine position.
func nearestIslandIndex(state *MachineState, islands []*plannerIsland, seamAlign bool, scale float64) int {
	pos := geom.PointToFixed(state.X, state.Y, scale)
	best := -1
	var bestDist int64
	for i, pi := range islands {
		if len(pi.outlines) == 0 {
			continue
		}
		var d int64
		if seamAlign {
			d = geom.DistSq(pos, pi.outlines[0][0])
		} else {
			d = closestVertexDist(pos, pi.outlines)
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0
	}
	return best
}

func closestVertexDist(pos geom.Point, paths geom.Paths) int64 {
	best := int64(-1)
	for _, p := range paths {
		for _, v := range p {
			d := geom.DistSq(pos, v)
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

// planShells repeatedly picks the best remaining shell loop/start-vertex
// candidate and prints it, per §4.6.
func planShells(pi *plannerIsland, state *MachineState, s *config.Settings, z, scale float64, emit func(Move)) {
	preferredIdx := 0
	maxIdx := maxShellIndex(pi.loops)
	if s.PreferredShellOrder == config.ShellOrderInnermost {
		preferredIdx = maxIdx
	}

	for len(pi.loops) > 0 {
		li, vi := bestLoopCandidate(pi.loops, state, s.SeamAlignment, preferredIdx, scale)
		loop := pi.loops[li]
		pi.loops = append(pi.loops[:li], pi.loops[li+1:]...)
		printLoop(loop.path, vi, pi, state, s, z, scale, emit)
	}
}

func maxShellIndex(loops []loopRef) int {
	max := 0
	for _, l := range loops {
		if l.shellIndex > max {
			max = l.shellIndex
		}
	}
	return max
}

// bestLoopCandidate scores every (loop, start-vertex) candidate: squared
// distance to the current position, plus a penalty if the loop's shell
// index isn't the preferred extreme (outermost or innermost).
func bestLoopCandidate(loops []loopRef, state *MachineState, seamAlign bool, preferredIdx int, scale float64) (loopIdx, vertexIdx int) {
	pos := geom.PointToFixed(state.X, state.Y, scale)
	bestCost := int64(-1)

	for li, loop := range loops {
		vertexRange := len(loop.path)
		if seamAlign {
			vertexRange = 1
		}
		offset := loop.shellIndex - preferredIdx
		if offset < 0 {
			offset = -offset
		}
		for vi := 0; vi < vertexRange; vi++ {
			d := geom.DistSq(pos, loop.path[vi])
			cost := d
			if offset > 0 {
				cost = d + d*2*int64(offset+1) + 10
			}
			if bestCost < 0 || cost < bestCost {
				bestCost, loopIdx, vertexIdx = cost, li, vi
			}
		}
	}
	return loopIdx, vertexIdx
}

// printLoop travels to the chosen start vertex (retracting if needed),
// then extrudes around the loop back to the start. Anchoring, if
// enabled and the loop is long enough, clips extrusion_width/2 off the
// path's start (so printing begins partway into the loop and still
// finishes at the original start, with no retraced overlap) and pushes
// the clipped length's worth of material onto the first extrusion move
// instead, closing the seam without a blob (§4.6).
func printLoop(path geom.Path, startIdx int, pi *plannerIsland, state *MachineState, s *config.Settings, z, scale float64, emit func(Move)) {
	rotated := path.RotatedFrom(startIdx)
	closed := rotated.Closed()

	extrusionArea := s.ExtrusionWidth * s.LayerHeight * s.PackingDensity
	anchorExtra := 0.0
	if s.Anchor {
		loopLen := closed.OpenLength()
		minLen := float64(geom.ToFixed(3*s.ExtrusionWidth, scale))
		if loopLen > minLen {
			clipLen := float64(geom.ToFixed(s.ExtrusionWidth/2, scale))
			closed = clipLoopStart(closed, clipLen)
			anchorExtra = s.ExtrusionWidth / 2
		}
	}

	start := closed[0]
	startMM := fixedToMM(start, scale)
	travelTo(pi, state, s, z, startMM.x, startMM.y, emit)

	for i := 1; i < len(closed); i++ {
		p := fixedToMM(closed[i], scale)
		dx := p.x - state.X
		dy := p.y - state.Y
		length := math.Sqrt(dx*dx + dy*dy)
		de := length * extrusionArea * s.FlowMultiplier / s.MaterialArea
		if i == 1 {
			de += anchorExtra * extrusionArea * s.FlowMultiplier / s.MaterialArea
		}
		emit(Move{X: p.x, Y: p.y, Z: z, DE: de, FeedRate: s.FeedRatePrint, Scalable: true})
	}
}

// clipLoopStart trims clipLen of arc-length off the start of a closed
// path (first vertex repeated at the end), inserting an interpolated
// vertex at the cut point and dropping every vertex fully consumed by
// the clip. The returned path still ends at the original start vertex,
// so the loop closes in the same place -- only its beginning moves
// forward along the perimeter (§4.6).
func clipLoopStart(closed geom.Path, clipLen float64) geom.Path {
	if clipLen <= 0 || len(closed) < 2 {
		return closed
	}
	var consumed float64
	for i := 0; i+1 < len(closed); i++ {
		a, b := closed[i], closed[i+1]
		dx := float64(b.X - a.X)
		dy := float64(b.Y - a.Y)
		segLen := math.Sqrt(dx*dx + dy*dy)
		if consumed+segLen >= clipLen || i+2 == len(closed) {
			t := 0.0
			if segLen > 0 {
				t = (clipLen - consumed) / segLen
			}
			if t < 0 {
				t = 0
			}
			if t > 1 {
				t = 1
			}
			cut := geom.Point{
				X: a.X + int64(math.Round(t*dx)),
				Y: a.Y + int64(math.Round(t*dy)),
			}
			out := make(geom.Path, 0, len(closed)-i)
			out = append(out, cut)
			out = append(out, closed[i+1:]...)
			return out
		}
		consumed += segLen
	}
	return closed
}

type mmPoint struct{ x, y float64 }

func fixedToMM(p geom.Point, scale float64) mmPoint {
	return mmPoint{x: geom.ToMM(p.X, scale), y: geom.ToMM(p.Y, scale)}
}

// planInfill concatenates sparse_infill into solid_infill and
// repeatedly prints the open line segment whose closer endpoint is
// nearest the current position.
func planInfill(pi *plannerIsland, state *MachineState, s *config.Settings, z, scale float64, emit func(Move)) {
	extrusionArea := s.ExtrusionWidth * s.LayerHeight * s.PackingDensity

	for len(pi.lines) > 0 {
		li, flip := nearestLine(pi.lines, state, scale)
		line := pi.lines[li]
		pi.lines = append(pi.lines[:li], pi.lines[li+1:]...)
		if flip {
			line = line.Reversed()
		}

		start := fixedToMM(line[0], scale)
		travelTo(pi, state, s, z, start.x, start.y, emit)

		end := fixedToMM(line[len(line)-1], scale)
		dx := end.x - state.X
		dy := end.y - state.Y
		length := math.Sqrt(dx*dx + dy*dy)
		de := length * extrusionArea * s.FlowMultiplier / s.MaterialArea
		emit(Move{X: end.x, Y: end.y, Z: z, DE: de, FeedRate: s.FeedRatePrint, Scalable: true})
	}
}

func nearestLine(lines geom.Paths, state *MachineState, scale float64) (idx int, flip bool) {
	pos := geom.PointToFixed(state.X, state.Y, scale)
	best := int64(-1)
	for i, l := range lines {
		if d := geom.DistSq(pos, l[0]); best < 0 || d < best {
			best, idx, flip = d, i, false
		}
		if d := geom.DistSq(pos, l[len(l)-1]); d < best {
			best, idx, flip = d, i, true
		}
	}
	return idx, flip
}

// travelTo moves from the current position to (x,y), inserting a
// retraction beforehand if this travel requires one.
func travelTo(pi *plannerIsland, state *MachineState, s *config.Settings, z, x, y float64, emit func(Move)) {
	if state.X == x && state.Y == y && state.Z == z {
		state.IsNewIsland = false
		return
	}

	if needsRetraction(pi, state, s, x, y) {
		emit(retractMove(state, s, z))
	}

	emit(Move{X: x, Y: y, Z: z, DE: 0, FeedRate: s.FeedRateTravel, Scalable: true})

	if state.IsRetracted {
		emit(restartMove(state, s, z))
	}
	state.IsNewIsland = false
}

// needsRetraction implements §4.6's retraction trigger: not already
// retracted, and any of {new island; travel exceeds retract_threshold;
// retract_within_island and travel exceeds retract_min_travel; the
// travel crosses the current island's outlines}.
func needsRetraction(pi *plannerIsland, state *MachineState, s *config.Settings, x, y float64) bool {
	if state.IsRetracted {
		return false
	}
	dx := x - state.X
	dy := y - state.Y
	travel := math.Sqrt(dx*dx + dy*dy)

	if state.IsNewIsland {
		return true
	}
	if travel > s.RetractThreshold {
		return true
	}
	if s.RetractWithinIsland && travel > s.RetractMinTravel {
		return true
	}
	return crossesOutline(pi, state.X, state.Y, x, y, s.FixedPointScale)
}

// crossesOutline implements §4.6's crossing detection: the CCW
// orientation predicate against every edge of the island's outlines,
// short-circuiting on the first hit.
func crossesOutline(pi *plannerIsland, x0, y0, x1, y1, scale float64) bool {
	a := geom.PointToFixed(x0, y0, scale)
	b := geom.PointToFixed(x1, y1, scale)
	for _, path := range pi.outlines {
		n := len(path)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			if geom.SegmentsIntersect(a, b, path[i], path[j]) {
				return true
			}
		}
	}
	return false
}

func retractMove(state *MachineState, s *config.Settings, z float64) Move {
	state.IsRetracted = true
	return Move{X: state.X, Y: state.Y, Z: z, DE: -s.RetractLen, FeedRate: s.RetractSpeed, Scalable: false}
}

func restartMove(state *MachineState, s *config.Settings, z float64) Move {
	state.IsRetracted = false
	return Move{X: state.X, Y: state.Y, Z: z, DE: s.RetractLen, FeedRate: s.EffectiveRestartSpeed(), Scalable: false}
}
