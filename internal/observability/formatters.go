// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/pose-coach/internal/scoring"
	"github.com/jonathan/pose-coach/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPose outputs the pose metadata and its rules in evaluation order.
func (p *Printer) PrintPose(pose *types.Pose) {
	if pose == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:  %s\n", pose.Name))
	if pose.Slug != "" {
		sb.WriteString(fmt.Sprintf("Slug:  %s\n", pose.Slug))
	}
	sb.WriteString(fmt.Sprintf("Rules: %d\n", len(pose.Config)))
	sb.WriteString("\n")

	for _, rule := range pose.Config {
		sb.WriteString(fmt.Sprintf("  • %s: %s-%s-%s %.0f° ±%.0f\n",
			rule.Name, rule.P1, rule.P2, rule.P3, rule.Target, rule.Tolerance))
	}

	p.printBox("POSE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs the per-rule breakdown of one frame.
func (p *Printer) PrintReport(frame int, report *scoring.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Accuracy:   %.1f%%\n", report.Accuracy))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f", report.MeanConfidence))
	if !report.Framed {
		sb.WriteString(" (not framed)")
	}
	sb.WriteString("\n")

	if len(report.Outcomes) > 0 {
		sb.WriteString("\nRules:\n")
		for _, o := range report.Outcomes {
			if o.Status == scoring.StatusSkipped {
				sb.WriteString(fmt.Sprintf("  – %-14s skipped\n", o.Name))
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s %-14s %6.1f° (off %.1f°) score %.2f\n",
				statusMark(o.Status), o.Name, o.Angle, o.Deviation, o.Score))
		}
	}

	sb.WriteString("\nFeedback:\n")
	for _, msg := range report.Feedback {
		sb.WriteString(fmt.Sprintf("  • %s\n", msg))
	}

	p.printBox(fmt.Sprintf("FRAME %d", frame), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the aggregate of a frame sequence.
func (p *Printer) PrintSummary(summary scoring.Summary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Frames: %d (framed %d, scored %d)\n", summary.Frames, summary.Framed, summary.Scored))
	if summary.Scored > 0 {
		sb.WriteString(fmt.Sprintf("Mean accuracy: %.1f%%\n", summary.MeanAccuracy))
		sb.WriteString(fmt.Sprintf("Best accuracy: %.1f%% (frame #%d)\n", summary.BestAccuracy, summary.BestFrame))
	}

	if len(summary.Feedback) > 0 {
		sb.WriteString("\nTop feedback:\n")
		count := min(len(summary.Feedback), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  %3d× %s\n", summary.Feedback[i].Count, summary.Feedback[i].Message))
		}
		if len(summary.Feedback) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(summary.Feedback)-maxItemsToShow))
		}
	}

	p.printBox("SESSION SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

func statusMark(s scoring.Status) string {
	switch s {
	case scoring.StatusGood:
		return "✓"
	case scoring.StatusLow:
		return "↓"
	case scoring.StatusHigh:
		return "↑"
	default:
		return "–"
	}
}
