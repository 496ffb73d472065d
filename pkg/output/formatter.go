package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/sybil-ranker/pkg/inspect"
	"github.com/ritzau/sybil-ranker/pkg/pipeline"
	"github.com/ritzau/sybil-ranker/pkg/scores"
)

// PrintInspection prints graph diagnostics with colors
func PrintInspection(w io.Writer, report inspect.Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Fprintln(w, "Graph Inspection")
	bold.Fprintln(w, "================")
	fmt.Fprintf(w, "Nodes: %d\n", report.Nodes)
	fmt.Fprintf(w, "Arcs: %d\n", report.Arcs)
	fmt.Fprintf(w, "Components: %d (largest %d nodes, %d seeded)\n",
		report.Components, report.LargestComponent, report.SeededComponents)
	fmt.Fprintf(w, "Strongly connected: %d\n", report.StronglyConnected)
	fmt.Fprintf(w, "Seed hops: %d\n", report.SeedHops)
	fmt.Fprintln(w)

	warnings := report.Warnings()
	if len(warnings) == 0 {
		green.Fprintln(w, "✓ Graph is symmetric and fully reachable from the seeds")
		return
	}
	for _, warning := range warnings {
		yellow.Fprintf(w, "  ! %s\n", warning)
	}
	fmt.Fprintln(w)
}

// PrintRunReport prints a summary of a finished run followed by the top
// lowest ranked nodes, the likeliest Sybils.
func PrintRunReport(w io.Writer, result *pipeline.Result, top int) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "Sybil Ranking - Run Report")
	bold.Fprintln(w, "==========================")
	fmt.Fprintf(w, "Algorithm: %s (%d iterations)\n", result.Algorithm, result.Iterations)
	fmt.Fprintf(w, "Graph: %d nodes, %d arcs\n", result.Nodes, result.Arcs)
	fmt.Fprintf(w, "Seeds: %d positive, %d negative\n", result.Positive, result.Negative)
	if result.Out != "" {
		fmt.Fprintf(w, "Output: %s\n", result.Out)
	}
	fmt.Fprintln(w)

	s := result.Summary
	cyan.Fprintln(w, "SCORES:")
	fmt.Fprintf(w, "  min %.6f  median %.6f  max %.6f\n", s.Min, s.Median, s.Max)
	fmt.Fprintf(w, "  mean %.6f  stddev %.6f\n", s.Mean, s.StdDev)
	if result.MaxChange != nil {
		fmt.Fprintf(w, "  max change since previous run %.6f\n", *result.MaxChange)
	}
	fmt.Fprintln(w)

	lowest := scores.Top(result.Scores, top, true)
	if len(lowest) > 0 {
		red.Fprintf(w, "LOWEST %d:\n", len(lowest))
		for _, r := range lowest {
			fmt.Fprintf(w, "  %8d  %.10f\n", r.ID, r.Score)
		}
		fmt.Fprintln(w)
	}

	green.Fprintf(w, "✓ Ranked %d nodes in %s\n", s.Count, result.Duration.Round(time.Microsecond))
}
