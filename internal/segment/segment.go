// Package segment implements stage 1 of the slicing pipeline: intersecting
// every triangle against each layer plane and producing an oriented
// 2D segment per crossing. The parametric interpolation here is
// grounded directly on the teacher's CalculateIntersection /
// ClassifyMove pair, generalized from a single depth threshold to an
// arbitrary ordered set of layer planes.
package segment

import (
	"math"
	"runtime"
	"sync"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/geom"
	"github.com/kschaper/goslicer/internal/mesh"
)

// Segment is one oriented 2D edge produced by slicing a triangle at a
// single layer plane. Orientation follows the triangle's winding so
// that solid material lies to the segment's left (§4.1).
type Segment struct {
	A, B geom.Point
}

// Layers returns the z height (in millimeters) of each layer's cutting
// plane for a mesh whose usable height spans [0, maxZ], after the mesh
// has been translated so its lowest point sits at z=0 (done by the
// caller). Layer i's plane sits mid-band, at i*layer_height +
// layer_height/2 (§4.1), never at a band boundary, so a cut never grazes
// a mesh vertex exactly on a layer line.
func Layers(maxZ, layerHeight float64) []float64 {
	if layerHeight <= 0 || maxZ <= 0 {
		return nil
	}
	n := int(math.Ceil(maxZ / layerHeight))
	zs := make([]float64, n)
	for i := range zs {
		zs[i] = float64(i)*layerHeight + layerHeight/2
	}
	return zs
}

// classification mirrors the teacher's MoveClassification, here applied
// to a triangle edge against a single layer plane rather than a move
// against a depth threshold.
type classification int

const (
	shallow classification = iota
	deep
	crossingEnter
	crossingLeave
)

func classify(za, zb, plane float64) classification {
	aDeep := za < plane
	bDeep := zb < plane
	switch {
	case !aDeep && !bDeep:
		return shallow
	case aDeep && bDeep:
		return deep
	case !aDeep && bDeep:
		return crossingEnter
	default:
		return crossingLeave
	}
}

// intersectEdge finds where edge (xa,ya,za)-(xb,yb,zb) crosses the
// horizontal plane, using the same parametric interpolation as the
// teacher's CalculateIntersection. ok is false when the edge doesn't
// cross the plane within (0,1).
func intersectEdge(xa, ya, za, xb, yb, zb, plane float64) (x, y float64, ok bool) {
	dz := zb - za
	if dz == 0 {
		return 0, 0, false
	}
	t := (plane - za) / dz
	if t <= 0 || t >= 1 {
		return 0, 0, false
	}
	return xa + t*(xb-xa), ya + t*(yb-ya), true
}

// triangleAtPlane returns the segment joining a triangle's two edge
// crossings with the given plane, oriented so solid material is to the
// segment's left, and false when there are not exactly two crossings. A triangle lying exactly in-plane or touching only
// at a vertex contributes no segment; those are rare, and the
// tolerance-based stitcher in stage 2 is the intended place to repair
// any resulting micro-gaps.
func triangleAtPlane(t mesh.Triangle, plane float64, scale float64) (Segment, bool) {
	v := t.V
	z := [3]float64{v[0].Z, v[1].Z, v[2].Z}

	type hit struct {
		x, y float64
	}
	var hits []hit

	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		c := classify(z[i], z[j], plane)
		if c == crossingEnter || c == crossingLeave {
			x, y, ok := intersectEdge(v[i].X, v[i].Y, z[i], v[j].X, v[j].Y, z[j], plane)
			if ok {
				hits = append(hits, hit{x, y})
			}
		}
	}

	// A vertex sitting exactly on-plane with the opposite edge crossing
	// produces one crossing plus a coincident vertex; only the two true
	// crossings matter, so anything other than exactly two hits is
	// treated as non-intersecting for this plane.
	if len(hits) != 2 {
		return Segment{}, false
	}

	a := geom.PointToFixed(hits[0].x, hits[0].y, scale)
	b := geom.PointToFixed(hits[1].x, hits[1].y, scale)
	if a == b {
		return Segment{}, false
	}

	// Orient using the triangle's winding-implied normal: swap the
	// endpoints when hits[0]->hits[1] would put the solid on the right.
	if !orientedForward(v, z, plane, hits[0], hits[1]) {
		a, b = b, a
	}
	return Segment{A: a, B: b}, true
}

// orientedForward decides whether hits[0]->hits[1] already points the
// direction that keeps solid material on the segment's left. The
// triangle's right-hand-rule normal points out of the solid, so the
// solid side of the cut lies along -normal in XY; the segment has it on
// its left when its direction agrees with the XY normal rotated a
// quarter turn counter-clockwise.
func orientedForward(v [3]mesh.Vertex, z [3]float64, plane float64, h0, h1 struct{ x, y float64 }) bool {
	e1x, e1y, e1z := v[1].X-v[0].X, v[1].Y-v[0].Y, v[1].Z-v[0].Z
	e2x, e2y, e2z := v[2].X-v[0].X, v[2].Y-v[0].Y, v[2].Z-v[0].Z
	nx := e1y*e2z - e1z*e2y
	ny := e1z*e2x - e1x*e2z
	dx := h1.x - h0.x
	dy := h1.y - h0.y
	return dx*(-ny)+dy*nx >= 0
}

// LayerSegments holds every segment produced for one layer plane.
type LayerSegments struct {
	Z        float64
	Segments []Segment
}

// Extract slices m against every z in layers, in parallel across
// triangles. Each layer has its own mutex-protected accumulator
// (spec.md §5's "per-layer spinlock-protected buffers"); a plain
// sync.Mutex stands in for the spinlock since contention is brief and
// Go has no stdlib spinlock primitive.
func Extract(m *mesh.Mesh, layers []float64, settings *config.Settings) []LayerSegments {
	results := make([]LayerSegments, len(layers))
	locks := make([]sync.Mutex, len(layers))
	for i, z := range layers {
		results[i].Z = z
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(m.Triangles) {
		workers = len(m.Triangles)
	}
	if workers < 1 {
		return results
	}

	chunk := (len(m.Triangles) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(m.Triangles) {
			break
		}
		if end > len(m.Triangles) {
			end = len(m.Triangles)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			extractRange(m, start, end, layers, settings.LayerHeight, settings.FixedPointScale, results, locks)
		}(start, end)
	}
	wg.Wait()
	return results
}

// layerRange returns the half-open index range [lo, hi) of layers a
// triangle spanning [minZ, maxZ] can possibly cross, using the
// +0.4999/+0.5001 bias from §4.1: this deliberately excludes layers
// whose cutting plane would graze exactly on a vertex, avoiding
// degenerate zero-length intersections.
func layerRange(minZ, maxZ, layerHeight float64, numLayers int) (lo, hi int) {
	lo = int(math.Floor(minZ/layerHeight + 0.4999))
	hi = int(math.Floor(maxZ/layerHeight + 0.5001))
	if lo < 0 {
		lo = 0
	}
	if hi > numLayers {
		hi = numLayers
	}
	return lo, hi
}

func extractRange(m *mesh.Mesh, start, end int, layers []float64, layerHeight, scale float64, results []LayerSegments, locks []sync.Mutex) {
	for ti := start; ti < end; ti++ {
		tri := m.Triangles[ti]
		minZ, maxZ := triangleZRange(tri)
		lo, hi := layerRange(minZ, maxZ, layerHeight, len(layers))
		for li := lo; li < hi; li++ {
			seg, ok := triangleAtPlane(tri, layers[li], scale)
			if !ok {
				continue
			}
			locks[li].Lock()
			results[li].Segments = append(results[li].Segments, seg)
			locks[li].Unlock()
		}
	}
}

// triangleZRange returns a triangle's z extent, clamped to >=0: negative
// z (the object's sunk portion, below the build plate) is cropped and
// discarded per §4.1.
func triangleZRange(t mesh.Triangle) (min, max float64) {
	min, max = t.V[0].Z, t.V[0].Z
	for _, v := range t.V[1:] {
		if v.Z < min {
			min = v.Z
		}
		if v.Z > max {
			max = v.Z
		}
	}
	if min < 0 {
		min = 0
	}
	if max < 0 {
		max = 0
	}
	return min, max
}
