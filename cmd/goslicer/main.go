package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/kschaper/goslicer/internal/cli"
	"github.com/kschaper/goslicer/internal/config"
	"github.com/kschaper/goslicer/internal/gcode"
	"github.com/kschaper/goslicer/internal/mesh"
	"github.com/kschaper/goslicer/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	parsedArgs, err := cli.ParseArgs(args)
	if err != nil {
		return cli.PrintError(err)
	}
	if parsedArgs.Help {
		fmt.Print(cli.GetHelpText())
		return 0
	}

	s, err := config.Load(parsedArgs.ConfigFile...)
	if err != nil {
		return cli.PrintError(err)
	}
	for _, o := range parsedArgs.Overrides {
		if err := s.ApplyOverride(o); err != nil {
			return cli.PrintError(err)
		}
	}
	cli.ApplyShortcuts(s, parsedArgs)

	startTime := time.Now()

	m, err := mesh.Load(parsedArgs.InputFile)
	if err != nil {
		return cli.PrintError(err)
	}

	// Layers are defined over [0, height]; translate so the mesh's
	// lowest point sits at z=0 before slicing, per segment.Layers'
	// contract. Any explicit -x/-y/-z shortcuts additionally reposition
	// the mesh on the bed.
	dx, dy, dz := parsedArgs.TranslateX, parsedArgs.TranslateY, parsedArgs.TranslateZ
	m.Translate(dx, dy, dz-m.Min.Z)

	var out *os.File
	if parsedArgs.OutputFile == "-" {
		out = os.Stdout
	} else {
		f, err := os.Create(parsedArgs.OutputFile)
		if err != nil {
			return cli.PrintError(fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)
	defer bw.Flush()

	tracker := cli.NewProgressTracker(expectedLayerCount(m, s))
	result := pipeline.SliceWithProgress(m, s, func(phase string, done, total int) {
		tracker.Update(done)
		now := time.Now()
		if tracker.ShouldUpdate(now) {
			tracker.Display(os.Stderr, phase, now)
		}
	})
	cli.ClearLine(os.Stderr)

	cli.PrintDiagnostics(result.Diagnostics)

	summary, err := gcode.Emit(bw, result.Layers, s)
	if err != nil {
		return cli.PrintError(err)
	}
	if err := bw.Flush(); err != nil {
		return cli.PrintError(err)
	}

	cli.PrintSummary(len(result.Layers), summary, time.Since(startTime))
	return 0
}

// expectedLayerCount estimates the layer count for the progress
// tracker's denominator; actual layer boundaries are computed by
// segment.Layers inside the pipeline.
func expectedLayerCount(m *mesh.Mesh, s *config.Settings) int {
	height := m.Max.Z - m.Min.Z
	n := int(math.Ceil(height / s.LayerHeight))
	if n < 1 {
		n = 1
	}
	return n
}
