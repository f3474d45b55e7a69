package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sdejongh/confsync/pkg/transfer"
	"github.com/sdejongh/confsync/pkg/verify"
)

// ManifestDrift describes how the local manifest relates to the remote one
type ManifestDrift string

const (
	// DriftUnknown means the remote manifest could not be obtained
	DriftUnknown ManifestDrift = "unknown"
	// DriftNone means local and remote manifests are byte-identical
	DriftNone ManifestDrift = "in-sync"
	// DriftDetected means the manifests differ (informational, not a failure)
	DriftDetected ManifestDrift = "drift"
)

// Report represents the outcome of a single confsync operation.
// It is ephemeral: built per invocation and rendered by an output formatter.
type Report struct {
	OperationID string    `json:"operation_id"`
	Operation   Operation `json:"operation"`
	LocalDir    string    `json:"local_dir"`
	Remote      string    `json:"remote"`
	DryRun      bool      `json:"dry_run"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// BackupPath is the snapshot created before a pull, if any
	BackupPath string `json:"backup_path,omitempty"`

	// PushDiff and PullDiff hold transfer summaries per direction.
	// push/pull set one of them; status sets both (dry-run).
	PushDiff *transfer.DiffSummary `json:"push_diff,omitempty"`
	PullDiff *transfer.DiffSummary `json:"pull_diff,omitempty"`

	// Verification is set when an integrity check ran
	Verification *verify.Result `json:"verification,omitempty"`

	// Drift is set by standalone verify when a remote manifest comparison ran
	Drift ManifestDrift `json:"drift,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Notes    []string `json:"notes,omitempty"`

	Status Status `json:"status"`
}

// NewReport creates a report for an operation that is about to start
func NewReport(op Operation, localDir, remote string) *Report {
	return &Report{
		OperationID: uuid.New().String(),
		Operation:   op,
		LocalDir:    localDir,
		Remote:      remote,
		StartTime:   time.Now(),
		Status:      StatusFailed,
	}
}

// Warn records a non-fatal problem
func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Note records an informational message
func (r *Report) Note(msg string) {
	r.Notes = append(r.Notes, msg)
}

// Finish stamps the end time and final status
func (r *Report) Finish(status Status) *Report {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Status = status
	return r
}
