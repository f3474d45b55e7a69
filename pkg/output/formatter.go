package output

import (
	"io"

	"github.com/sdejongh/confsync/pkg/models"
)

// Formatter renders an operation report
type Formatter interface {
	// Write renders the report to w
	Write(w io.Writer, report *models.Report) error
}

// New returns the formatter for the named format ("json" or "human")
func New(format string, useColor bool) Formatter {
	if format == "json" {
		return NewJSONFormatter()
	}
	return NewHumanFormatter(useColor)
}
