package output

import (
	"encoding/json"
	"io"

	"github.com/sdejongh/confsync/pkg/models"
)

// JSONFormatter renders reports as indented JSON for scripting
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Write renders the report
func (f *JSONFormatter) Write(w io.Writer, report *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
