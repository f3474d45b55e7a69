package models

// Operation identifies a confsync workflow
type Operation string

const (
	// OpPush sends the local directory to the remote host
	OpPush Operation = "push"
	// OpPull retrieves the remote directory to the local host
	OpPull Operation = "pull"
	// OpStatus previews both transfer directions without changing anything
	OpStatus Operation = "status"
	// OpVerify checks the local tree against the stored manifest
	OpVerify Operation = "verify"
	// OpBackup creates or prunes local snapshots
	OpBackup Operation = "backup"
)

// Status represents the overall result of an operation
type Status string

const (
	// StatusSuccess indicates the operation completed (warnings allowed)
	StatusSuccess Status = "success"
	// StatusPartial indicates the operation completed with degraded results
	StatusPartial Status = "partial"
	// StatusFailed indicates the operation failed
	StatusFailed Status = "failed"
)

// ExitCode returns the process exit code for the status
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	default:
		return 2
	}
}
