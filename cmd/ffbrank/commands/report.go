package commands

import (
	"fmt"
	"io"
	"time"

	service "github.com/ffbrank/ffbrank/internal/app"
)

// printReport writes a short batch summary. A zero report prints nothing.
func printReport(w io.Writer, r service.Report) {
	if r.Slices == 0 {
		return
	}
	fmt.Fprintf(w, "run %s: %s, %d slices\n", r.RunID, r.Period.Label(r.Year), r.Slices)
	fmt.Fprintf(w, "  tasks: %d ok, %d empty, %d failed\n", r.Tasks.OK, r.Tasks.Empty, r.Tasks.Failed)
	if r.Experts > 0 {
		fmt.Fprintf(w, "  experts: %d\n", r.Experts)
	}
	if r.Observed > 0 {
		fmt.Fprintf(w, "  identities observed: %d (%d rows skipped)\n", r.Observed, r.Skipped)
	}
	if r.Dropped > 0 {
		fmt.Fprintf(w, "  players dropped: %d\n", r.Dropped)
	}
	if r.Merge != nil {
		fmt.Fprintf(w, "  registry: %d new, %d total\n", r.Merge.Inserted, r.Merge.Entries)
	}
	fmt.Fprintf(w, "  files written: %d in %s\n", len(r.Files), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}
