package verify

// Reason classifies why a manifest entry failed verification
type Reason string

const (
	// ReasonMismatch means the file exists but its digest differs
	ReasonMismatch Reason = "mismatch"
	// ReasonMissing means the file named by the manifest is gone
	ReasonMissing Reason = "missing"
)

// Failure identifies a single entry that failed verification
type Failure struct {
	Path   string `json:"path"`
	Reason Reason `json:"reason"`
}

// Result summarizes a verification run. It is computed per invocation
// and never persisted.
type Result struct {
	Total      int       `json:"total"`
	Matched    int       `json:"matched"`
	Mismatched int       `json:"mismatched"`
	Missing    int       `json:"missing"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Passed reports whether every entry matched. An empty manifest passes
// trivially; callers should surface that as "nothing to verify".
func (r *Result) Passed() bool {
	return r.Mismatched == 0 && r.Missing == 0
}

// Empty reports whether there was nothing to verify
func (r *Result) Empty() bool {
	return r.Total == 0
}
