package mesh_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/kschaper/goslicer/internal/mesh"
)

func putFloat32(buf *bytes.Buffer, v float32) {
	binary.Write(buf, binary.LittleEndian, math.Float32bits(v))
}

func writeSTL(t *testing.T, triangles [][3][3]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	binary.Write(&buf, binary.LittleEndian, uint32(len(triangles)))
	for _, tri := range triangles {
		// normal, ignored
		putFloat32(&buf, 0)
		putFloat32(&buf, 0)
		putFloat32(&buf, 1)
		for _, v := range tri {
			putFloat32(&buf, v[0])
			putFloat32(&buf, v[1])
			putFloat32(&buf, v[2])
		}
		buf.Write(make([]byte, 2))
	}
	return buf.Bytes()
}

func TestReadSTLSingleTriangle(t *testing.T) {
	data := writeSTL(t, [][3][3]float32{
		{{0, 0, 0}, {10, 0, 0}, {0, 10, 5}},
	})

	m, err := mesh.ReadSTL(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSTL returned error: %v", err)
	}
	if len(m.Triangles) != 1 {
		t.Fatalf("len(Triangles) = %d, want 1", len(m.Triangles))
	}
	tri := m.Triangles[0]
	if tri.V[1].X != 10 || tri.V[2].Y != 10 || tri.V[2].Z != 5 {
		t.Errorf("unexpected vertex values: %+v", tri)
	}
}

func TestReadSTLBounds(t *testing.T) {
	data := writeSTL(t, [][3][3]float32{
		{{-1, -2, 0}, {10, 0, 0}, {0, 10, 5}},
		{{0, 0, -3}, {1, 1, 1}, {2, 2, 2}},
	})

	m, err := mesh.ReadSTL(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSTL returned error: %v", err)
	}
	if m.Min.X != -1 || m.Min.Y != -2 || m.Min.Z != -3 {
		t.Errorf("Min = %+v, want {-1 -2 -3}", m.Min)
	}
	if m.Max.X != 10 || m.Max.Y != 10 || m.Max.Z != 5 {
		t.Errorf("Max = %+v, want {10 10 5}", m.Max)
	}
}

func TestReadSTLTruncatedIsError(t *testing.T) {
	data := writeSTL(t, [][3][3]float32{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}})
	truncated := data[:len(data)-5]
	if _, err := mesh.ReadSTL(bytes.NewReader(truncated)); err == nil {
		t.Fatal("expected error for truncated STL input, got nil")
	}
}

func TestScaleAndTranslate(t *testing.T) {
	data := writeSTL(t, [][3][3]float32{{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}})
	m, err := mesh.ReadSTL(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSTL returned error: %v", err)
	}

	m.Scale(2)
	if m.Triangles[0].V[1].X != 4 {
		t.Errorf("Scale did not apply to vertex: got %v", m.Triangles[0].V[1].X)
	}
	if m.Max.X != 4 {
		t.Errorf("Scale did not update Max: got %v", m.Max.X)
	}

	m.Translate(1, 1, 1)
	if m.Triangles[0].V[0].X != 1 {
		t.Errorf("Translate did not apply to vertex: got %v", m.Triangles[0].V[0].X)
	}
	if m.Min.X != 1 {
		t.Errorf("Translate did not update Min: got %v", m.Min.X)
	}
}

func TestHeight(t *testing.T) {
	data := writeSTL(t, [][3][3]float32{{{0, 0, -1}, {1, 0, 3}, {0, 1, 0}}})
	m, err := mesh.ReadSTL(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSTL returned error: %v", err)
	}
	if got := m.Height(); got != 4 {
		t.Errorf("Height() = %v, want 4", got)
	}
}
