package gcode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/gcode"
	"github.com/kschaper/goslicer/internal/plan"
)

func TestSubstituteTokens(t *testing.T) {
	s := config.Default()
	s.HotEndTemp = 200
	s.BedTemp = 60
	s.RetractLen = 1.5

	out := gcode.Substitute("M104 S%t\nM140 S%b\n; retract %R%%", s)
	if !strings.Contains(out, "M104 S200") {
		t.Errorf("missing hot end substitution: %q", out)
	}
	if !strings.Contains(out, "M140 S60") {
		t.Errorf("missing bed substitution: %q", out)
	}
	if !strings.Contains(out, "1.5%") {
		t.Errorf("missing retract+literal-percent substitution: %q", out)
	}
}

func TestEmitWritesMoves(t *testing.T) {
	s := config.Default()
	s.FirstLayerMult = 1
	s.MinLayerTime = 0 // disable scaling for this test

	var buf bytes.Buffer

	layers := []gcode.Layer{
		{
			Index: 0,
			Z:     0.2,
			Moves: []plan.Move{
				{X: 0, Y: 0, Z: 0.2, DE: 0, FeedRate: 3000, Scalable: false},
				{X: 10, Y: 0, Z: 0.2, DE: 0.05, FeedRate: 1200, Scalable: true},
			},
			LayerTime: 1.0,
		},
	}

	summary, err := gcode.Emit(&buf, layers, s)
	if err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if summary.TotalExtrusionLength != 0.05 {
		t.Errorf("TotalExtrusionLength = %v, want 0.05", summary.TotalExtrusionLength)
	}
	out := buf.String()
	if !strings.Contains(out, "layer 0") {
		t.Errorf("expected layer comment in output: %q", out)
	}
	if !strings.Contains(out, "G1") {
		t.Errorf("expected at least one G1 move: %q", out)
	}
	if !strings.Contains(out, "total filament length") {
		t.Errorf("expected trailing summary comment in output: %q", out)
	}
}

func TestEmitFirstLayerUsesMultiplier(t *testing.T) {
	s := config.Default()
	s.FirstLayerMult = 0.5
	s.MinLayerTime = 0

	var buf bytes.Buffer
	layers := []gcode.Layer{
		{Moves: []plan.Move{{X: 1, Y: 0, Z: 0.2, FeedRate: 1200, Scalable: true}}, LayerTime: 1},
	}
	if _, err := gcode.Emit(&buf, layers, s); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	// Scaled feed 1200*0.5*60 = 36000 mm/min should appear.
	if !strings.Contains(buf.String(), "F36000") {
		t.Errorf("expected scaled feed rate in output: %q", buf.String())
	}
}
