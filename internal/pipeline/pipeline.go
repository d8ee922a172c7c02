// Package pipeline wires every stage together: segment extraction,
// contour stitching, island construction, inset generation, infill
// pattern generation and clipping, motion planning, and move emission
// (§2, §5). Each per-layer phase runs across a worker pool with dynamic
// work distribution; phases are separated by a full barrier, matching
// the concurrency model's "phase k-1 globally finishes before phase k
// starts" guarantee.
package pipeline

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/diagnostics"
	"github.com/kschaper/goslicer/internal/gcode"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/infillclip"
	"github.com/kschaper/goslicer/internal/infillpattern"
	"github.com/kschaper/goslicer/internal/inset"
	"github.com/kschaper/goslicer/internal/island"
	"github.com/kschaper/goslicer/internal/mesh"
	"github.com/kschaper/goslicer/internal/plan"
	"github.com/kschaper/goslicer/internal/segment"
	"github.com/kschaper/goslicer/internal/stitch"
)

// layerState accumulates every stage's output for one layer as the
// pipeline progresses through its phases.
type layerState struct {
	z         float64
	segments  []segment.Segment
	contours  geom.Paths
	islands   []*island.Island
	geoms     []infillclip.IslandGeom
	clipped   []infillclip.Clipped
	moves     []plan.Move
	layerTime float64
}

// Result is everything Slice produces: the per-layer move stream ready
// for gcode.Emit, plus any geometric-anomaly diagnostics collected along
// the way (§7).
type Result struct {
	Layers      []gcode.Layer
	Diagnostics *diagnostics.Sink
}

// ProgressFunc is notified as layers finish within a phase; callers
// that want throttled display (every N layers or every few seconds,
// per §5/§6) do the throttling themselves inside the callback.
type ProgressFunc func(phase string, done, total int)

// Slice runs every pipeline stage against m and returns the move stream
// move emission consumes.
func Slice(m *mesh.Mesh, s *config.Settings) Result {
	return slice(m, s, nil)
}

// SliceWithProgress behaves like Slice but additionally reports layer
// completion within phases 2 through 7 via report.
func SliceWithProgress(m *mesh.Mesh, s *config.Settings, report ProgressFunc) Result {
	return slice(m, s, report)
}

func slice(m *mesh.Mesh, s *config.Settings, report ProgressFunc) Result {
	diag := diagnostics.NewSink()

	zs := segment.Layers(m.Max.Z, s.LayerHeight)
	layers := make([]*layerState, len(zs))
	for i, z := range zs {
		layers[i] = &layerState{z: z}
	}

	// Phase 1: segment extraction, parallel over triangles, per-layer
	// locked buffers (handled internally by segment.Extract).
	extracted := segment.Extract(m, zs, s)
	for i, le := range extracted {
		layers[i].segments = le.Segments
	}

	tolerance := geom.ToFixed(s.Tolerance, s.FixedPointScale)
	coarseness := geom.ToFixed(s.Coarseness, s.FixedPointScale)

	// Phase 2: contour stitching, parallel over layers.
	parallelFor(len(layers), "stitching", report, func(i int) {
		layers[i].contours = stitch.Stitch(layers[i].segments, tolerance, coarseness, i, diag)
	})

	// Phase 3: island construction, parallel over layers.
	parallelFor(len(layers), "islands", report, func(i int) {
		layers[i].islands = island.Build(layers[i].contours)
	})

	// Phase 4: inset generation, parallel over layers.
	parallelFor(len(layers), "insets", report, func(i int) {
		for _, isl := range layers[i].islands {
			layers[i].geoms = append(layers[i].geoms, infillclip.IslandGeom{
				Island: isl,
				Inset:  inset.Generate(isl, s),
			})
		}
	})

	// Phase 5: infill pattern generation, once per object.
	bounds := meshBoundsFixed(m, s.FixedPointScale)
	patterns := infillpattern.Generate(bounds, s)

	// Phase 6: infill clipping, parallel over layers; each worker reads
	// neighboring layers' islands read-only.
	floorLayers, roofLayers := infillclip.FloorRoofLayers(s)
	parallelFor(len(layers), "infill", report, func(i int) {
		below := neighborLayerData(layers, i, -1, floorLayers)
		above := neighborLayerData(layers, i, 1, roofLayers)
		for _, g := range layers[i].geoms {
			clipped := infillclip.ClipIsland(g, i, len(layers), floorLayers, roofLayers, below, above, patterns, s)
			layers[i].clipped = append(layers[i].clipped, clipped)
		}
	})

	// Phase 7: motion planning, parallel over layers; each layer starts
	// from a fresh machine state at its own front-left corner (§4.6).
	parallelFor(len(layers), "planning", report, func(i int) {
		plans := make([]plan.IslandPlan, len(layers[i].geoms))
		for j, g := range layers[i].geoms {
			plans[j] = plan.IslandPlan{Island: g.Island, Inset: g.Inset, Infill: layers[i].clipped[j]}
		}
		state := startState(bounds, layers[i].z, s.FixedPointScale)
		layers[i].moves, layers[i].layerTime = plan.PlanLayer(i, layers[i].z, plans, state, s)
	})

	out := make([]gcode.Layer, len(layers))
	for i, l := range layers {
		out[i] = gcode.Layer{Index: i, Z: l.z, Moves: l.moves, LayerTime: l.layerTime}
	}

	return Result{Layers: out, Diagnostics: diag}
}

// neighborLayerData collects the floor/roof neighbor layers' island
// geometry in the requested direction, nearest-first, skipping
// out-of-range indices.
func neighborLayerData(layers []*layerState, i, dir, count int) []*infillclip.LayerData {
	out := make([]*infillclip.LayerData, 0, count)
	for k := 1; k <= count; k++ {
		j := i + dir*k
		if j < 0 || j >= len(layers) {
			out = append(out, nil)
			continue
		}
		out = append(out, &infillclip.LayerData{Islands: layers[j].geoms})
	}
	return out
}

// meshBoundsFixed computes the mesh's XY bounding box in fixed-point
// units, used to size the once-per-object infill patterns.
func meshBoundsFixed(m *mesh.Mesh, scale float64) geom.BoundingBox {
	return geom.BoundingBox{
		MinX: geom.ToFixed(m.Min.X, scale),
		MinY: geom.ToFixed(m.Min.Y, scale),
		MaxX: geom.ToFixed(m.Max.X, scale),
		MaxY: geom.ToFixed(m.Max.Y, scale),
	}
}

// startState builds the per-layer initial machine state: positioned at
// the object's front-left corner, retracted (forcing a restart at first
// extrude), and marked as entering a new island (§4.6).
func startState(bounds geom.BoundingBox, z float64, scale float64) *plan.MachineState {
	return &plan.MachineState{
		X:           geom.ToMM(bounds.MinX, scale),
		Y:           geom.ToMM(bounds.MinY, scale),
		Z:           z,
		IsRetracted: true,
		IsNewIsland: true,
	}
}

// parallelFor runs fn(i) for i in [0,n) across a worker pool sized to
// GOMAXPROCS, with dynamic distribution via a shared index channel
// (§5's "dynamic work distribution" requirement for phases 2-5).
// report, if non-nil, is called after each i completes with the
// phase's running completion count; it may be called out of order and
// concurrently from multiple goroutines, matching completion order
// rather than index order.
func parallelFor(n int, phase string, report ProgressFunc, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	indices := make(chan int, n)
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)

	var done int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
				if report != nil {
					report(phase, int(atomic.AddInt32(&done, 1)), n)
				}
			}
		}()
	}
	wg.Wait()
}
