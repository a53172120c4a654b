package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"dumpfleet/internal/domain"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)

// renderSummary prints the human readable end of run block. Structured
// logs carry the same facts, this block is for the operator's eyes.
func renderSummary(w io.Writer, report domain.Report, runDir string, elapsed time.Duration) {
	line := strings.Repeat("=", 50)

	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Backup run finished in %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(w, "  Destination: %s\n", runDir)
	fmt.Fprintf(w, "  Databases:   %d total, %d succeeded, %d failed\n",
		report.Total, report.Succeeded, report.Failed)
	fmt.Fprintf(w, "  Total size:  %s\n", humanize.IBytes(uint64(report.TotalSizeBytes)))

	for _, out := range report.Outcomes {
		if out.Succeeded() {
			okColor.Fprint(w, "  [OK]   ")
			fmt.Fprintf(w, "%-24s %10s  %s\n",
				out.Database, humanize.IBytes(uint64(out.SizeBytes)), out.Duration.Round(time.Millisecond))
		} else {
			failColor.Fprint(w, "  [FAIL] ")
			fmt.Fprintf(w, "%-24s ", out.Database)
			dimColor.Fprintln(w, firstLine(out.Cause))
		}
	}

	fmt.Fprintln(w, line)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
