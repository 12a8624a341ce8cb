package cli

import (
	"fmt"
	"io"

	"github.com/raphaelgruber/adviser/internal/metrics"
)

// printStats displays request statistics for this run.
func printStats(w io.Writer, snap metrics.Snapshot) {
	if len(snap.Operations) == 0 {
		return
	}

	fmt.Fprintf(w, "\nRequest Statistics (this run)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)

	for _, op := range snap.Operations {
		fmt.Fprintf(w, "\n%s:\n", op.Name)
		printOpStats(w, op)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
