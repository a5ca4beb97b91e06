// Package ui renders scheduling-run progress for interactive callers.
package ui

import (
	"fmt"
	"io"
)

// Reporter handles status reporting and terminal output
type Reporter struct {
	writer io.Writer
	quiet  bool
}

// NewReporter creates a new status reporter
func NewReporter(writer io.Writer) *Reporter {
	return &Reporter{
		writer: writer,
		quiet:  false,
	}
}

// SetQuiet enables or disables quiet mode (suppresses real-time messages)
func (r *Reporter) SetQuiet(quiet bool) {
	r.quiet = quiet
}

// AttemptStart reports the start of a horizon attempt
func (r *Reporter) AttemptStart(attempt, maxAttempts, horizonDays int) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.writer, "[timeblock] Attempt %d/%d: solving over a %d-day horizon...\n", attempt, maxAttempts, horizonDays)
}

// AttemptRetry reports that an attempt fell short and the horizon is widening
func (r *Reporter) AttemptRetry(attempt int, successRate float64, nextHorizonDays int) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.writer, "[timeblock] Attempt %d placed %.0f%% of tasks, extending horizon to %d days\n", attempt, successRate*100, nextHorizonDays)
}

// ShowWarning displays a warning message
func (r *Reporter) ShowWarning(message string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.writer, "[timeblock] Warning: %s\n", message)
}

// FinalSummary reports the overall outcome of a scheduling run
func (r *Reporter) FinalSummary(status string, successRate float64, scheduled, total, attempts int) {
	if r.quiet {
		return
	}

	fmt.Fprintf(r.writer, "\n[timeblock] Result: %s\n", status)
	fmt.Fprintf(r.writer, "[timeblock] Scheduled %d/%d tasks (%.0f%%) in %d attempt", scheduled, total, successRate*100, attempts)
	if attempts != 1 {
		fmt.Fprint(r.writer, "s")
	}
	fmt.Fprintln(r.writer)
}
