package usecase

import "dumpfleet/internal/domain"

// Summarize folds a complete outcome collection into the run report.
// Only successful backups count toward the total size. Rendering and
// delivery are the caller's concern.
func Summarize(outcomes []domain.Outcome) domain.Report {
	report := domain.Report{
		Total:    len(outcomes),
		Outcomes: outcomes,
	}

	for _, out := range outcomes {
		if out.Succeeded() {
			report.Succeeded++
			report.TotalSizeBytes += out.SizeBytes
		} else {
			report.Failed++
			report.Failures = append(report.Failures, domain.Failure{
				Database: out.Database,
				Cause:    out.Cause,
			})
		}
	}

	return report
}
