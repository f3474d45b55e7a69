package transfer

import (
	"strings"
)

// DiffSummary describes what a transfer changed, or would change in
// dry-run mode. It is parsed from rsync's itemized change output; the
// transfer tool owns the diff semantics, confsync only reports them.
type DiffSummary struct {
	Created []string `json:"created,omitempty"`
	Updated []string `json:"updated,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}

// Empty reports whether the transfer changed nothing
func (d *DiffSummary) Empty() bool {
	return len(d.Created) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

// Total returns the number of changed paths
func (d *DiffSummary) Total() int {
	return len(d.Created) + len(d.Updated) + len(d.Deleted)
}

// parseItemized turns `rsync --itemize-changes` output into a DiffSummary.
// Lines look like:
//
//	>f+++++++++ path/to/new
//	>f.st...... path/to/changed
//	cd+++++++++ subdir/
//	*deleting   path/to/gone
func parseItemized(out string) *DiffSummary {
	summary := &DiffSummary{}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		flags, path, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		path = strings.TrimLeft(path, " ")
		if path == "" || path == "." || path == "./" {
			continue
		}

		switch {
		case strings.HasPrefix(flags, "*deleting"):
			summary.Deleted = append(summary.Deleted, path)

		case len(flags) >= 2 && (flags[0] == '>' || flags[0] == '<') && flags[1] == 'f':
			if strings.Contains(flags, "+") {
				summary.Created = append(summary.Created, path)
			} else {
				summary.Updated = append(summary.Updated, path)
			}

		case len(flags) >= 2 && flags[0] == 'c' && flags[1] == 'd':
			if strings.Contains(flags, "+") {
				summary.Created = append(summary.Created, path)
			}
		}
	}

	return summary
}
