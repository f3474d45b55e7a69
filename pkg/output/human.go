package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/sdejongh/confsync/pkg/models"
	"github.com/sdejongh/confsync/pkg/transfer"
)

// maxListedChanges caps how many per-file lines a section prints
const maxListedChanges = 20

// HumanFormatter renders reports as colored, human-readable text
type HumanFormatter struct {
	green  *color.Color
	yellow *color.Color
	red    *color.Color
	bold   *color.Color
}

// NewHumanFormatter creates a human-readable formatter
func NewHumanFormatter(useColor bool) *HumanFormatter {
	f := &HumanFormatter{
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		bold:   color.New(color.Bold),
	}
	if !useColor {
		for _, c := range []*color.Color{f.green, f.yellow, f.red, f.bold} {
			c.DisableColor()
		}
	}
	return f
}

// Write renders the report
func (f *HumanFormatter) Write(w io.Writer, r *models.Report) error {
	title := fmt.Sprintf("confsync %s", r.Operation)
	if r.DryRun {
		title += " (dry run)"
	}
	f.bold.Fprintln(w, title)
	fmt.Fprintf(w, "  Local:  %s\n", r.LocalDir)
	if r.Remote != "" && r.Remote != ":" {
		fmt.Fprintf(w, "  Remote: %s\n", r.Remote)
	}
	if r.BackupPath != "" {
		fmt.Fprintf(w, "  Backup: %s\n", r.BackupPath)
	}

	f.writeDiff(w, "Push changes", r.PushDiff)
	f.writeDiff(w, "Pull changes", r.PullDiff)
	f.writeVerification(w, r)

	for _, note := range r.Notes {
		fmt.Fprintf(w, "  %s\n", note)
	}
	for _, warning := range r.Warnings {
		f.yellow.Fprintf(w, "  warning: %s\n", warning)
	}

	fmt.Fprintln(w)
	switch r.Status {
	case models.StatusSuccess:
		f.green.Fprintf(w, "%s completed", r.Operation)
	case models.StatusPartial:
		f.yellow.Fprintf(w, "%s completed with warnings", r.Operation)
	default:
		f.red.Fprintf(w, "%s failed", r.Operation)
	}
	fmt.Fprintf(w, " in %s\n", r.Duration.Round(time.Millisecond))

	return nil
}

func (f *HumanFormatter) writeDiff(w io.Writer, title string, d *transfer.DiffSummary) {
	if d == nil {
		return
	}

	fmt.Fprintf(w, "\n%s:\n", title)
	if d.Empty() {
		f.green.Fprintln(w, "  nothing to transfer")
		return
	}

	fmt.Fprintf(w, "  %d created, %d updated, %d deleted\n",
		len(d.Created), len(d.Updated), len(d.Deleted))

	listed := 0
	for _, p := range d.Created {
		if listed >= maxListedChanges {
			break
		}
		f.green.Fprintf(w, "    + %s\n", p)
		listed++
	}
	for _, p := range d.Updated {
		if listed >= maxListedChanges {
			break
		}
		f.yellow.Fprintf(w, "    ~ %s\n", p)
		listed++
	}
	for _, p := range d.Deleted {
		if listed >= maxListedChanges {
			break
		}
		f.red.Fprintf(w, "    - %s\n", p)
		listed++
	}
	if remaining := d.Total() - listed; remaining > 0 {
		fmt.Fprintf(w, "    ... and %d more\n", remaining)
	}
}

func (f *HumanFormatter) writeVerification(w io.Writer, r *models.Report) {
	v := r.Verification
	if v == nil {
		return
	}

	fmt.Fprintf(w, "\nIntegrity:\n")
	if v.Empty() {
		fmt.Fprintln(w, "  nothing to verify (empty manifest)")
	} else if v.Passed() {
		f.green.Fprintf(w, "  OK: all %d files verified\n", v.Total)
	} else {
		f.red.Fprintf(w, "  FAILED: %d of %d files (%d mismatched, %d missing)\n",
			v.Mismatched+v.Missing, v.Total, v.Mismatched, v.Missing)
		for i, failure := range v.Failures {
			if i >= maxListedChanges {
				fmt.Fprintf(w, "    ... and %d more\n", len(v.Failures)-i)
				break
			}
			f.red.Fprintf(w, "    %s: %s\n", failure.Reason, failure.Path)
		}
	}

	switch r.Drift {
	case models.DriftNone:
		f.green.Fprintln(w, "  manifests in sync with remote")
	case models.DriftDetected:
		f.yellow.Fprintln(w, "  local and remote manifests differ")
	}
}
