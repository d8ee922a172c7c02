// Package cli implements command-line argument parsing and the
// formatted human-readable output printed around a slicing run. It
// generalizes the teacher's internal/cli (flag-package parsing,
// Print*/Format* helpers) from the CNC finisher's three positional
// arguments to the slicer's richer flag set (§6).
package cli

import (
	"flag"
	"fmt"

	"github.com/kschaper/goslicer/internal/config"
)

// Args is everything ParseArgs extracts from the command line before
// config loading and slicing begin.
type Args struct {
	InputFile  string
	OutputFile string
	ConfigFile []string
	Overrides  []string
	Preview    bool
	Help       bool

	// Shortcut values; HasXxx reports whether the flag was actually
	// passed, since 0 is a valid value for several of these settings.
	LayerHeight     float64
	HasLayerHeight  bool
	ExtrusionWidth  float64
	HasExtrusion    bool
	HotEndTemp      float64
	HasHotEndTemp   bool
	Shells          int
	HasShells       bool
	InfillDensity   float64
	HasInfill       bool
	MinLayerTime    float64
	HasMinLayerTime bool
	RetractLen      float64
	HasRetractLen   bool
	FeedRatePrint   float64
	HasFeedRate     bool
	CoolLayer       int
	HasCoolLayer    bool
	TranslateX      float64
	HasTranslateX   bool
	TranslateY      float64
	HasTranslateY   bool
	TranslateZ      float64
	HasTranslateZ   bool
	BedTemp         float64
	HasBedTemp      bool
}

// configFiles and overrides collect repeatable -c/-O flags.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// ParseArgs parses the slicer's command line: -h, -p, -o, -c
// (repeatable), -O (repeatable), and the shortcut flags
// -l -w -t -s -d -n -r -f -C -x -y -z -b (§6). The lone positional
// argument is the input mesh path ("-" for stdin).
func ParseArgs(args []string) (*Args, error) {
	fs := flag.NewFlagSet("goslicer", flag.ContinueOnError)
	a := &Args{OutputFile: "-"}

	var cfgFiles, overrides stringList
	fs.Var(&cfgFiles, "c", "config file (repeatable, later files override earlier)")
	fs.Var(&overrides, "O", "KEY=VAL override, applied after all config files (repeatable)")
	fs.BoolVar(&a.Help, "h", false, "show help")
	fs.BoolVar(&a.Preview, "p", false, "preview (write G-code to standard output)")
	fs.StringVar(&a.OutputFile, "o", "-", "output G-code path (\"-\" for standard output)")

	fs.Func("l", "layer height (mm)", floatFlag(&a.LayerHeight, &a.HasLayerHeight))
	fs.Func("w", "extrusion width (mm)", floatFlag(&a.ExtrusionWidth, &a.HasExtrusion))
	fs.Func("t", "hot end temperature (C)", floatFlag(&a.HotEndTemp, &a.HasHotEndTemp))
	fs.Func("s", "shell count", intFlag(&a.Shells, &a.HasShells))
	fs.Func("d", "infill density (0-1)", floatFlag(&a.InfillDensity, &a.HasInfill))
	fs.Func("n", "minimum layer time (s)", floatFlag(&a.MinLayerTime, &a.HasMinLayerTime))
	fs.Func("r", "retract length (mm)", floatFlag(&a.RetractLen, &a.HasRetractLen))
	fs.Func("f", "print feed rate (mm/s)", floatFlag(&a.FeedRatePrint, &a.HasFeedRate))
	fs.Func("C", "layer index to trigger cooling fan on", intFlag(&a.CoolLayer, &a.HasCoolLayer))
	fs.Func("x", "mesh translate offset, X (mm)", floatFlag(&a.TranslateX, &a.HasTranslateX))
	fs.Func("y", "mesh translate offset, Y (mm)", floatFlag(&a.TranslateY, &a.HasTranslateY))
	fs.Func("z", "mesh translate offset, Z (mm)", floatFlag(&a.TranslateZ, &a.HasTranslateZ))
	fs.Func("b", "bed temperature (C)", floatFlag(&a.BedTemp, &a.HasBedTemp))

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	a.ConfigFile = cfgFiles
	a.Overrides = overrides

	if a.Help {
		return a, nil
	}

	positional := fs.Args()
	if len(positional) != 1 {
		return nil, fmt.Errorf("expected exactly one input mesh argument, got %d", len(positional))
	}
	a.InputFile = positional[0]
	if a.Preview {
		a.OutputFile = "-"
	}
	return a, nil
}

func floatFlag(dst *float64, has *bool) func(string) error {
	return func(v string) error {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			return fmt.Errorf("invalid number %q", v)
		}
		*dst, *has = f, true
		return nil
	}
}

func intFlag(dst *int, has *bool) func(string) error {
	return func(v string) error {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*dst, *has = n, true
		return nil
	}
}

// ApplyShortcuts overlays every settings shortcut flag the user actually
// passed onto s, after file-based and -O config has already been
// applied, so shortcuts win last (§6's flags are the most specific
// override). The -x/-y/-z translate offsets are not settings and are
// not applied here; the caller applies them to the mesh.
func ApplyShortcuts(s *config.Settings, a *Args) {
	if a.HasLayerHeight {
		s.LayerHeight = a.LayerHeight
	}
	if a.HasExtrusion {
		s.ExtrusionWidth = a.ExtrusionWidth
	}
	if a.HasHotEndTemp {
		s.HotEndTemp = a.HotEndTemp
	}
	if a.HasShells {
		s.Shells = a.Shells
	}
	if a.HasInfill {
		s.InfillDensity = a.InfillDensity
	}
	if a.HasMinLayerTime {
		s.MinLayerTime = a.MinLayerTime
	}
	if a.HasRetractLen {
		s.RetractLen = a.RetractLen
	}
	if a.HasFeedRate {
		s.FeedRatePrint = a.FeedRatePrint
	}
	if a.HasCoolLayer {
		s.CoolLayer = a.CoolLayer
	}
	if a.HasBedTemp {
		s.BedTemp = a.BedTemp
	}
}

// GetHelpText returns the help message text.
func GetHelpText() string {
	return `goslicer - mesh to G-code toolpath slicer

Usage: goslicer [FLAGS] <input.stl>

Flags:
  -h              show this help
  -p              preview (write G-code to standard output)
  -o PATH         output G-code path ("-" for standard output, default)
  -c PATH         config file (repeatable; later files override earlier)
  -O KEY=VAL      config override, applied after all config files (repeatable)
  -l VALUE        layer height (mm)
  -w VALUE        extrusion width (mm)
  -t VALUE        hot end temperature (C)
  -s N            shell count
  -d VALUE        infill density (0-1)
  -n VALUE        minimum layer time (s)
  -r VALUE        retract length (mm)
  -f VALUE        print feed rate (mm/s)
  -C N            layer index to trigger cooling fan on
  -x VALUE        mesh translate offset, X (mm)
  -y VALUE        mesh translate offset, Y (mm)
  -z VALUE        mesh translate offset, Z (mm)
  -b VALUE        bed temperature (C)

"-" as the input path reads the mesh from standard input.
`
}
