// Package mesh implements the external mesh-reading collaborator named
// in spec.md §6: a binary STL reader plus the in-memory triangle mesh
// type the slicing pipeline consumes. Parsing itself is out of the
// specification's core scope, but the wire format is fully specified
// there, so this package implements it directly rather than stubbing it.
package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/kschaper/goslicer/internal/slicerr"
)

// Vertex is a single 3D point in millimeters.
type Vertex struct {
	X, Y, Z float64
}

// Triangle is three ordered vertices. Ordering is significant: combined
// with the implied right-hand-rule normal, it fixes which side of a
// segment is solid (§4.1).
type Triangle struct {
	V [3]Vertex
}

// Mesh is an ordered collection of triangles plus its axis-aligned
// bounding box and center, updated in lockstep by Scale/Translate.
type Mesh struct {
	Triangles []Triangle
	Min, Max  Vertex
	Center    Vertex
}

// Load reads a mesh from path. "-" reads from standard input, per §6.
func Load(path string) (*Mesh, error) {
	var r io.Reader
	if path == "-" {
		r = bufio.NewReader(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, &slicerr.InputError{Path: path, Err: err}
		}
		defer f.Close()
		r = bufio.NewReaderSize(f, 1<<20)
	}

	m, err := ReadSTL(r)
	if err != nil {
		return nil, &slicerr.InputError{Path: path, Err: err}
	}
	return m, nil
}

const (
	stlHeaderSize    = 80
	stlTriangleBytes = 12 + 3*12 + 2 // normal + 3 vertices, all float32, + 2-byte attribute
)

// ReadSTL parses the binary STL format: an 80-byte header (ignored), a
// little-endian uint32 triangle count, then per triangle 12 bytes of
// normal (ignored), three vertices of three little-endian float32 each,
// and a trailing 2-byte attribute field (ignored).
func ReadSTL(r io.Reader) (*Mesh, error) {
	header := make([]byte, stlHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("failed to read STL header: %w", err)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read triangle count: %w", err)
	}

	buf := make([]byte, stlTriangleBytes)
	triangles := make([]Triangle, 0, count)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read triangle %d: %w", i, err)
		}
		// Skip the 12-byte normal (offset 0..12); vertices start at 12.
		var tri Triangle
		for v := 0; v < 3; v++ {
			off := 12 + v*12
			x := math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			y := math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))
			z := math.Float32frombits(binary.LittleEndian.Uint32(buf[off+8:]))
			tri.V[v] = Vertex{X: float64(x), Y: float64(y), Z: float64(z)}
		}
		triangles = append(triangles, tri)
	}

	m := &Mesh{Triangles: triangles}
	m.RecomputeBounds()
	return m, nil
}

// RecomputeBounds recalculates Min, Max, and Center from Triangles. Call
// this after any operation that edits vertices directly (Scale and
// Translate already keep bounds in sync incrementally and don't need to
// call it).
func (m *Mesh) RecomputeBounds() {
	if len(m.Triangles) == 0 {
		m.Min, m.Max, m.Center = Vertex{}, Vertex{}, Vertex{}
		return
	}
	min := Vertex{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64}
	max := Vertex{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64}
	for _, t := range m.Triangles {
		for _, v := range t.V {
			if v.X < min.X {
				min.X = v.X
			}
			if v.Y < min.Y {
				min.Y = v.Y
			}
			if v.Z < min.Z {
				min.Z = v.Z
			}
			if v.X > max.X {
				max.X = v.X
			}
			if v.Y > max.Y {
				max.Y = v.Y
			}
			if v.Z > max.Z {
				max.Z = v.Z
			}
		}
	}
	m.Min, m.Max = min, max
	m.Center = Vertex{
		X: (min.X + max.X) / 2,
		Y: (min.Y + max.Y) / 2,
		Z: (min.Z + max.Z) / 2,
	}
}

// Scale multiplies every vertex (and the bounding box) by factor.
func (m *Mesh) Scale(factor float64) {
	for i := range m.Triangles {
		for j := range m.Triangles[i].V {
			m.Triangles[i].V[j].X *= factor
			m.Triangles[i].V[j].Y *= factor
			m.Triangles[i].V[j].Z *= factor
		}
	}
	m.Min = scaleVertex(m.Min, factor)
	m.Max = scaleVertex(m.Max, factor)
	m.Center = scaleVertex(m.Center, factor)
}

// Translate adds (dx,dy,dz) to every vertex (and the bounding box).
func (m *Mesh) Translate(dx, dy, dz float64) {
	for i := range m.Triangles {
		for j := range m.Triangles[i].V {
			m.Triangles[i].V[j].X += dx
			m.Triangles[i].V[j].Y += dy
			m.Triangles[i].V[j].Z += dz
		}
	}
	m.Min = translateVertex(m.Min, dx, dy, dz)
	m.Max = translateVertex(m.Max, dx, dy, dz)
	m.Center = translateVertex(m.Center, dx, dy, dz)
}

func scaleVertex(v Vertex, f float64) Vertex {
	return Vertex{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

func translateVertex(v Vertex, dx, dy, dz float64) Vertex {
	return Vertex{X: v.X + dx, Y: v.Y + dy, Z: v.Z + dz}
}

// Height returns the raw (uncropped) bounding-box height.
func (m *Mesh) Height() float64 {
	return m.Max.Z - m.Min.Z
}
