package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/kschaper/goslicer/internal/diagnostics"
	"github.com/kschaper/goslicer/internal/gcode"
	"github.com/kschaper/goslicer/internal/slicerr"
)

// PrintWarning prints a warning message to stderr.
// Format: "WARNING: <message>"
func PrintWarning(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
}

// PrintDiagnostics prints every geometric-anomaly warning the pipeline
// collected, one per line, per §7 ("warning to stderr with layer index;
// processing continues").
func PrintDiagnostics(sink *diagnostics.Sink) {
	for _, w := range sink.All() {
		PrintWarning("%s", w.String())
	}
}

// PrintSummary reports total material length, mass, and cost, the
// trailing comments §6 requires move emission to report, mirroring the
// teacher's PrintSummary(stats) layout.
func PrintSummary(layerCount int, summary gcode.Summary, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("=== Slicing Complete ===")
	fmt.Println()
	fmt.Printf("Layers:                %s\n", FormatNumber(layerCount))
	fmt.Printf("Total extrusion:       %.2f mm\n", summary.TotalExtrusionLength)
	fmt.Printf("Estimated mass:        %.2f g\n", summary.TotalMass)
	fmt.Printf("Estimated cost:        %.2f\n", summary.TotalCost)
	fmt.Printf("Processing time:       %s\n", FormatDuration(elapsed))
	fmt.Println()
}

// PrintError prints an error message to stderr and returns the process
// exit code per §7, via slicerr.ExitCode.
func PrintError(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return slicerr.ExitCode(err)
}
