package models

import "fmt"

// ValidationError represents an invalid configuration or operation field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// ConfigError indicates the configuration is missing or unusable.
// It is always raised before any lock is taken.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s (run 'confsync config init' to create a configuration)", e.Reason)
}

// LockContentionError indicates another instance holds the sync lock
type LockContentionError struct {
	Path  string
	Owner string
}

func (e *LockContentionError) Error() string {
	msg := fmt.Sprintf("another confsync instance holds the lock at %s", e.Path)
	if e.Owner != "" {
		msg += fmt.Sprintf(" (held by %s)", e.Owner)
	}
	return msg + "; if no other instance is running, remove the lock file manually"
}

// BuildError indicates the manifest could not be built
type BuildError struct {
	Root string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build manifest for %s: %v", e.Root, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// TransferError indicates the bulk transfer or remote check failed
type TransferError struct {
	Stage string
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed during %s: %v", e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// BackupError indicates the pre-pull snapshot could not be created
type BackupError struct {
	Err error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup snapshot failed: %v (use --no-backup to pull without a snapshot)", e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// VerificationError indicates mismatched or missing files were detected
type VerificationError struct {
	Mismatched int
	Missing    int
	BackupHint string
}

func (e *VerificationError) Error() string {
	msg := fmt.Sprintf("integrity verification failed: %d mismatched, %d missing", e.Mismatched, e.Missing)
	if e.BackupHint != "" {
		msg += fmt.Sprintf("; most recent backup: %s", e.BackupHint)
	}
	return msg
}
