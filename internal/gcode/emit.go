// Package gcode implements stage 8 of the slicing pipeline: serializing
// planned moves into textual G-code, with per-layer feed-rate scaling
// from the layer-time moving average (§4.7). Line formatting reuses
// github.com/256dpi/gcode, the same library the teacher used to
// parse/print individual G-code lines.
package gcode

import (
	"fmt"
	"io"
	"strings"

	"github.com/256dpi/gcode"

	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/plan"
)

// Layer is one layer's planned moves plus its estimated print time, the
// unit move emission consumes.
type Layer struct {
	Index     int
	Z         float64
	Moves     []plan.Move
	LayerTime float64
}

// Summary reports the totals move emission accumulates across the
// whole job, printed as trailing comments per §6.
type Summary struct {
	TotalExtrusionLength float64 // mm of filament
	TotalMass            float64 // grams
	TotalCost            float64
}

// emitState tracks which axes and feed rate were last written, so only
// changed fields are emitted, and the running absolute extrusion value.
type emitState struct {
	haveX, haveY, haveZ, haveF bool
	x, y, z, f                 float64
	e                          float64
}

// writeLine serializes one line and writes it to w, the sole place this
// package touches an io.Writer: move emission only ever constructs new
// lines, so there is nothing to preserve or re-parse here.
func writeLine(w io.Writer, line gcode.Line) error {
	_, err := fmt.Fprintf(w, "%s\n", line.String())
	return err
}

// Emit writes every layer's moves to w in order, scaling each layer's
// scalable feed rates by the moving-average layer-time multiplier, and
// returns the accumulated print summary. Move emission is strictly
// serial: output order defines the file (§5).
func Emit(w io.Writer, layers []Layer, s *config.Settings) (Summary, error) {
	state := &emitState{}
	var summary Summary

	for i, layer := range layers {
		mult := feedMultiplier(i, layers, s)

		if err := writeLine(w, commentLine(fmt.Sprintf("layer %d (z = %.3f)", layer.Index, layer.Z))); err != nil {
			return summary, err
		}

		if layer.Index == s.CoolLayer && s.CoolOnGCode != "" {
			if err := writeEmbedded(w, s.CoolOnGCode, s); err != nil {
				return summary, err
			}
		}

		for _, m := range layer.Moves {
			feed := m.FeedRate
			if m.Scalable {
				feed = m.FeedRate * mult
				if feed < s.MinFeedRate {
					feed = s.MinFeedRate
				}
			}
			line := moveLine(state, m, feed)
			if err := writeLine(w, line); err != nil {
				return summary, err
			}
			if m.DE > 0 {
				summary.TotalExtrusionLength += m.DE
			}
		}
	}

	summary.TotalMass = summary.TotalExtrusionLength * s.MaterialArea * s.MaterialDensity
	summary.TotalCost = summary.TotalMass / 1000 * s.MaterialCostPerKg

	if err := writeSummaryComments(w, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// writeSummaryComments appends the trailing comment lines §6 requires:
// total material length, mass, and cost.
func writeSummaryComments(w io.Writer, summary Summary) error {
	lines := []string{
		fmt.Sprintf("total filament length: %.2f mm", summary.TotalExtrusionLength),
		fmt.Sprintf("total filament mass: %.2f g", summary.TotalMass),
		fmt.Sprintf("total filament cost: %.2f", summary.TotalCost),
	}
	for _, l := range lines {
		if err := writeLine(w, commentLine(l)); err != nil {
			return err
		}
	}
	return nil
}

// feedMultiplier implements §4.7: the first layer always uses
// first_layer_mult; otherwise if the moving average of the preceding
// layer_time_samples layers' time is below min_layer_time, moves scale
// down proportionally.
func feedMultiplier(i int, layers []Layer, s *config.Settings) float64 {
	if i == 0 {
		return s.FirstLayerMult
	}

	n := s.LayerTimeSamples
	if n < 1 {
		n = 1
	}
	start := i - n
	if start < 0 {
		start = 0
	}
	var sum float64
	count := 0
	for j := start; j < i; j++ {
		sum += layers[j].LayerTime
		count++
	}
	if count == 0 {
		sum = layers[0].LayerTime
		count = 1
	}
	avg := sum / float64(count)

	if avg < s.MinLayerTime && s.MinLayerTime > 0 {
		return avg / s.MinLayerTime
	}
	return 1
}

// moveLine builds one G1 line, writing only axes and feed rate that
// changed since the last emitted move, and accumulating the running
// absolute extrusion value.
func moveLine(state *emitState, m plan.Move, feed float64) gcode.Line {
	codes := []gcode.GCode{{Letter: "G", Value: 1}}

	if !state.haveX || state.x != m.X {
		codes = append(codes, gcode.GCode{Letter: "X", Value: round3(m.X)})
		state.x, state.haveX = m.X, true
	}
	if !state.haveY || state.y != m.Y {
		codes = append(codes, gcode.GCode{Letter: "Y", Value: round3(m.Y)})
		state.y, state.haveY = m.Y, true
	}
	if !state.haveZ || state.z != m.Z {
		codes = append(codes, gcode.GCode{Letter: "Z", Value: round3(m.Z)})
		state.z, state.haveZ = m.Z, true
	}

	if m.DE != 0 {
		state.e += m.DE
		codes = append(codes, gcode.GCode{Letter: "E", Value: round5(state.e)})
	}

	if !state.haveF || state.f != feed {
		// config.Settings' feed-rate fields and plan.Move.FeedRate carry
		// mm/s throughout; F is mm/min, so ×60 only here at emission (§6).
		feedPerMinute := feed * 60
		codes = append(codes, gcode.GCode{Letter: "F", Value: feedPerMinute})
		state.f, state.haveF = feed, true
	}

	return gcode.Line{Codes: codes}
}

func commentLine(text string) gcode.Line {
	return gcode.Line{Comment: text}
}

func round3(v float64) float64 {
	return roundTo(v, 1000)
}

func round5(v float64) float64 {
	return roundTo(v, 100000)
}

func roundTo(v, scale float64) float64 {
	if v >= 0 {
		return float64(int64(v*scale+0.5)) / scale
	}
	return -float64(int64(-v*scale+0.5)) / scale
}

// writeEmbedded substitutes tokens in an embedded G-code string and
// writes each resulting line verbatim.
func writeEmbedded(w io.Writer, raw string, s *config.Settings) error {
	text := Substitute(raw, s)
	for _, line := range strings.Split(text, "\n") {
		parsed, err := gcode.ParseLine(line)
		if err != nil {
			return fmt.Errorf("cool_on_gcode line %q: %w", line, err)
		}
		if err := writeLine(w, parsed); err != nil {
			return err
		}
	}
	return nil
}

// Substitute expands %t, %b, %R to hot-end temperature, bed
// temperature, and retract length, and %% to a literal %, per §4.7.
func Substitute(s string, settings *config.Settings) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 't':
			fmt.Fprintf(&b, "%g", settings.HotEndTemp)
			i++
		case 'b':
			fmt.Fprintf(&b, "%g", settings.BedTemp)
			i++
		case 'R':
			fmt.Fprintf(&b, "%g", settings.RetractLen)
			i++
		case '%':
			b.WriteByte('%')
			i++
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
