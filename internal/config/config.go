// Package config loads the slicer's process-wide configuration from
// key=value text files and CLI overrides. It generalizes the teacher's
// header key:value comment parsing (internal/parser.parseHeader) into a
// standalone file format, and keeps configuration as a single immutable
// value threaded through the pipeline rather than a mutable global.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kschaper/goslicer/internal/slicerr"
)

// ShellOrder selects which shell a path-planning preference anchors to
// when choosing among remaining shells (§4.6).
type ShellOrder int

const (
	ShellOrderOutermost ShellOrder = iota
	ShellOrderInnermost
)

func (o ShellOrder) String() string {
	if o == ShellOrderInnermost {
		return "innermost"
	}
	return "outermost"
}

// JoinType mirrors the offset join kinds the geometry kernel supports.
type JoinType int

const (
	JoinMiter JoinType = iota
	JoinSquare
	JoinRound
)

func (j JoinType) String() string {
	switch j {
	case JoinSquare:
		return "square"
	case JoinRound:
		return "round"
	default:
		return "miter"
	}
}

// Settings is the immutable, process-wide configuration record. A
// pointer is passed around read-only after Load/ApplyOverride return; no
// field is ever mutated once slicing begins.
type Settings struct {
	// Geometry / fixed point
	FixedPointScale float64 // S: mm -> integer micron-ish units

	// Printer / material
	LayerHeight    float64
	ExtrusionWidth float64
	PackingDensity float64
	MaterialArea   float64 // cross-sectional area assumed by G-code Δe accounting
	FlowMultiplier float64
	MaterialDensity   float64 // g/mm^3 of filament
	MaterialCostPerKg float64

	// Shells / infill
	Shells              int
	PreferredShellOrder ShellOrder
	InfillDensity       float64
	FloorThickness      float64
	RoofThickness       float64
	FillThreshold       float64
	SolidFillExpansion  float64 // Open Question (§9): parsed and validated; no pipeline stage reads it

	// Stitching
	Tolerance  float64
	Coarseness float64

	// Seam / ordering
	SeamAlignment bool
	InfillFirst   bool
	Anchor        bool

	// Motion
	RetractLen          float64
	RetractSpeed        float64
	RestartSpeed        float64
	RetractThreshold    float64
	RetractWithinIsland bool
	RetractMinTravel    float64
	FeedRatePrint       float64
	FeedRateTravel      float64
	FeedRateFirstLayer  float64
	FirstLayerMult      float64
	MinLayerTime        float64
	MinFeedRate         float64
	LayerTimeSamples    int

	// Cooling / temps
	HotEndTemp  float64
	BedTemp     float64
	CoolLayer   int
	CoolOnGCode string

	// Offset kernel
	JoinType     JoinType
	MiterLimit   float64
	ArcTolerance float64

	// Future extensions named in config/docs but not wired (§9 Open Question)
	EnableSupport bool
	EnableRaft    bool
	EnableBrim    bool
}

// Default returns the built-in defaults, used as the base before any
// config file or override is applied.
func Default() *Settings {
	return &Settings{
		FixedPointScale:     1000,
		LayerHeight:         0.2,
		ExtrusionWidth:      0.4,
		PackingDensity:      0.95,
		MaterialArea:        0.4 * 0.2,
		FlowMultiplier:      1.0,
		MaterialDensity:     0.00124, // g/mm^3, ~PLA
		MaterialCostPerKg:   20.0,
		Shells:              2,
		PreferredShellOrder: ShellOrderOutermost,
		InfillDensity:       0.2,
		FloorThickness:      0.6,
		RoofThickness:       0.6,
		FillThreshold:       0.9,
		SolidFillExpansion:  0,
		Tolerance:           0.001,
		Coarseness:          0.02,
		SeamAlignment:       true,
		InfillFirst:         false,
		Anchor:              true,
		RetractLen:          1.0,
		RetractSpeed:        40, // mm/s; G-code F words are mm/min, ×60 at emission (§6)
		RestartSpeed:        0,  // 0 means "use RetractSpeed"
		RetractThreshold:    2.0,
		RetractWithinIsland: false,
		RetractMinTravel:    0,
		FeedRatePrint:       60,
		FeedRateTravel:      120,
		FeedRateFirstLayer:  30,
		FirstLayerMult:      0.5,
		MinLayerTime:        5.0,
		MinFeedRate:         10,
		LayerTimeSamples:    5,
		HotEndTemp:          200,
		BedTemp:             60,
		CoolLayer:           1,
		CoolOnGCode:         "M106 S255",
		JoinType:            JoinMiter,
		MiterLimit:          3.0,
		ArcTolerance:        0.02,
	}
}

// EffectiveRestartSpeed returns RestartSpeed, defaulting to RetractSpeed
// when unset, per §4.6 ("defaults to retract_speed").
func (s *Settings) EffectiveRestartSpeed() float64 {
	if s.RestartSpeed <= 0 {
		return s.RetractSpeed
	}
	return s.RestartSpeed
}

// kv is one key=value assignment with its source location, produced by
// parseLines before any field is set, so error reporting always carries
// file+line even for continuation-assembled values.
type kv struct {
	key, value string
	file       string
	line       int
}

// Load reads one or more config files in sequence; later files override
// earlier keys. Lines starting with # are comments; lines beginning with
// space or tab continue the previous value (their leading whitespace is
// stripped, and the continuation is joined with a newline so embedded
// multi-line string values are supported, per §6).
func Load(paths ...string) (*Settings, error) {
	s := Default()
	for _, path := range paths {
		entries, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if err := s.set(e.key, e.value); err != nil {
				return nil, &slicerr.ConfigError{File: e.file, Line: e.line, Message: err.Error()}
			}
		}
	}
	return s, nil
}

// ApplyOverride applies a single "-O KEY=VAL" command-line override atop
// an already-loaded Settings value, reusing the same validation path as
// file loading.
func (s *Settings) ApplyOverride(kvPair string) error {
	idx := strings.Index(kvPair, "=")
	if idx < 0 {
		return &slicerr.ConfigError{Message: fmt.Sprintf("invalid override %q: expected KEY=VAL", kvPair)}
	}
	key := strings.TrimSpace(kvPair[:idx])
	val := strings.TrimSpace(kvPair[idx+1:])
	if err := s.set(key, val); err != nil {
		return &slicerr.ConfigError{Message: err.Error()}
	}
	return nil
}

func parseFile(path string) ([]kv, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &slicerr.InputError{Path: path, Err: err}
	}
	defer f.Close()

	var entries []kv
	scanner := bufio.NewScanner(f)
	lineNo := 0
	var current *kv
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		if current != nil && (strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t")) {
			current.value += "\n" + strings.TrimLeft(raw, " \t")
			continue
		}
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		idx := strings.Index(trimmed, "=")
		if idx < 0 {
			return nil, &slicerr.ConfigError{File: path, Line: lineNo, Message: fmt.Sprintf("malformed line (expected key=value): %q", trimmed)}
		}
		key := strings.TrimSpace(trimmed[:idx])
		val := strings.TrimSpace(trimmed[idx+1:])
		current = &kv{key: key, value: val, file: path, line: lineNo}
	}
	if current != nil {
		entries = append(entries, *current)
	}
	if err := scanner.Err(); err != nil {
		return nil, &slicerr.InputError{Path: path, Err: err}
	}
	return entries, nil
}

func (s *Settings) set(key, value string) error {
	switch key {
	case "fixed_point_scale":
		return s.setPositiveFloat(&s.FixedPointScale, value, key)
	case "layer_height":
		return s.setPositiveFloat(&s.LayerHeight, value, key)
	case "extrusion_width":
		return s.setPositiveFloat(&s.ExtrusionWidth, value, key)
	case "packing_density":
		return s.setRangeFloat(&s.PackingDensity, value, key, 0, 2)
	case "material_area":
		return s.setPositiveFloat(&s.MaterialArea, value, key)
	case "flow_multiplier":
		return s.setPositiveFloat(&s.FlowMultiplier, value, key)
	case "material_density":
		return s.setPositiveFloat(&s.MaterialDensity, value, key)
	case "material_cost_per_kg":
		return s.setNonNegativeFloat(&s.MaterialCostPerKg, value, key)
	case "shells":
		return s.setNonNegativeInt(&s.Shells, value, key)
	case "preferred_shell_order":
		switch value {
		case "outermost":
			s.PreferredShellOrder = ShellOrderOutermost
		case "innermost":
			s.PreferredShellOrder = ShellOrderInnermost
		default:
			return fmt.Errorf("preferred_shell_order must be outermost or innermost, got %q", value)
		}
		return nil
	case "infill_density":
		return s.setRangeFloat(&s.InfillDensity, value, key, 0, 1)
	case "floor_thickness":
		return s.setNonNegativeFloat(&s.FloorThickness, value, key)
	case "roof_thickness":
		return s.setNonNegativeFloat(&s.RoofThickness, value, key)
	case "fill_threshold":
		return s.setRangeFloat(&s.FillThreshold, value, key, 0, 1)
	case "solid_fill_expansion":
		return s.setNonNegativeFloat(&s.SolidFillExpansion, value, key)
	case "tolerance":
		return s.setPositiveFloat(&s.Tolerance, value, key)
	case "coarseness":
		return s.setNonNegativeFloat(&s.Coarseness, value, key)
	case "seam_alignment":
		return s.setBool(&s.SeamAlignment, value, key)
	case "infill_first":
		return s.setBool(&s.InfillFirst, value, key)
	case "anchor":
		return s.setBool(&s.Anchor, value, key)
	case "retract_len":
		return s.setNonNegativeFloat(&s.RetractLen, value, key)
	case "retract_speed":
		return s.setPositiveFloat(&s.RetractSpeed, value, key)
	case "restart_speed":
		return s.setNonNegativeFloat(&s.RestartSpeed, value, key)
	case "retract_threshold":
		return s.setNonNegativeFloat(&s.RetractThreshold, value, key)
	case "retract_within_island":
		return s.setBool(&s.RetractWithinIsland, value, key)
	case "retract_min_travel":
		return s.setNonNegativeFloat(&s.RetractMinTravel, value, key)
	case "feed_rate_print":
		return s.setPositiveFloat(&s.FeedRatePrint, value, key)
	case "feed_rate_travel":
		return s.setPositiveFloat(&s.FeedRateTravel, value, key)
	case "feed_rate_first_layer":
		return s.setPositiveFloat(&s.FeedRateFirstLayer, value, key)
	case "first_layer_mult":
		return s.setRangeFloat(&s.FirstLayerMult, value, key, 0, 10)
	case "min_layer_time":
		return s.setNonNegativeFloat(&s.MinLayerTime, value, key)
	case "min_feed_rate":
		return s.setPositiveFloat(&s.MinFeedRate, value, key)
	case "layer_time_samples":
		return s.setPositiveInt(&s.LayerTimeSamples, value, key)
	case "hot_end_temp":
		return s.setNonNegativeFloat(&s.HotEndTemp, value, key)
	case "bed_temp":
		return s.setNonNegativeFloat(&s.BedTemp, value, key)
	case "cool_layer":
		return s.setNonNegativeInt(&s.CoolLayer, value, key)
	case "cool_on_gcode":
		s.CoolOnGCode = value
		return nil
	case "join_type":
		switch value {
		case "miter":
			s.JoinType = JoinMiter
		case "square":
			s.JoinType = JoinSquare
		case "round":
			s.JoinType = JoinRound
		default:
			return fmt.Errorf("join_type must be miter, square, or round, got %q", value)
		}
		return nil
	case "miter_limit":
		return s.setPositiveFloat(&s.MiterLimit, value, key)
	case "arc_tolerance":
		return s.setPositiveFloat(&s.ArcTolerance, value, key)
	case "support", "enable_support":
		return s.setBool(&s.EnableSupport, value, key)
	case "raft", "enable_raft":
		return s.setBool(&s.EnableRaft, value, key)
	case "brim", "enable_brim":
		return s.setBool(&s.EnableBrim, value, key)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
}

func (s *Settings) setPositiveFloat(dst *float64, value, key string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, value)
	}
	if v <= 0 {
		return fmt.Errorf("%s: must be positive, got %v", key, v)
	}
	*dst = v
	return nil
}

func (s *Settings) setNonNegativeFloat(dst *float64, value, key string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, value)
	}
	if v < 0 {
		return fmt.Errorf("%s: must be non-negative, got %v", key, v)
	}
	*dst = v
	return nil
}

func (s *Settings) setRangeFloat(dst *float64, value, key string, lo, hi float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, value)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%s: must be in [%v,%v], got %v", key, lo, hi, v)
	}
	*dst = v
	return nil
}

func (s *Settings) setNonNegativeInt(dst *int, value, key string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	if v < 0 {
		return fmt.Errorf("%s: must be non-negative, got %d", key, v)
	}
	*dst = v
	return nil
}

func (s *Settings) setPositiveInt(dst *int, value, key string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, value)
	}
	if v <= 0 {
		return fmt.Errorf("%s: must be positive, got %d", key, v)
	}
	*dst = v
	return nil
}

func (s *Settings) setBool(dst *bool, value, key string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	*dst = v
	return nil
}
