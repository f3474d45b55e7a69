package models

import (
	"errors"
	"strings"
	"testing"
)

func TestStatusExitCode(t *testing.T) {
	tests := []struct {
		status Status
		want   int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 1},
		{StatusFailed, 2},
		{Status("garbage"), 2},
	}

	for _, tt := range tests {
		if got := tt.status.ExitCode(); got != tt.want {
			t.Errorf("%s.ExitCode() = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport(OpPush, "/etc/app", "admin@host:/etc/app")

	if r.OperationID == "" {
		t.Error("operation id not assigned")
	}
	if r.Operation != OpPush {
		t.Errorf("operation = %s, want push", r.Operation)
	}
	if r.StartTime.IsZero() {
		t.Error("start time not stamped")
	}
	if r.Status != StatusFailed {
		t.Errorf("a report must start failed until finished, got %s", r.Status)
	}
}

func TestReportFinish(t *testing.T) {
	r := NewReport(OpPull, "/etc/app", "host:/etc/app")
	r.Finish(StatusSuccess)

	if r.Status != StatusSuccess {
		t.Errorf("status = %s, want success", r.Status)
	}
	if r.EndTime.Before(r.StartTime) {
		t.Error("end time before start time")
	}
	if r.Duration != r.EndTime.Sub(r.StartTime) {
		t.Error("duration inconsistent with timestamps")
	}
}

func TestReportWarningsAndNotes(t *testing.T) {
	r := NewReport(OpPush, "/etc/app", "host:/etc/app")
	r.Warn("manifest publish failed")
	r.Warn("second warning")
	r.Note("42 files hashed")

	if len(r.Warnings) != 2 || r.Warnings[0] != "manifest publish failed" {
		t.Errorf("warnings = %v", r.Warnings)
	}
	if len(r.Notes) != 1 {
		t.Errorf("notes = %v", r.Notes)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "validation",
			err:  &ValidationError{Field: "remote.port", Message: "must be between 0 and 65535"},
			want: []string{"remote.port", "must be between 0 and 65535"},
		},
		{
			name: "config",
			err:  &ConfigError{Reason: "remote.endpoint is not set"},
			want: []string{"remote.endpoint is not set", "config init"},
		},
		{
			name: "lock with owner",
			err:  &LockContentionError{Path: "/tmp/sync.lock", Owner: "pid 4242 on web1"},
			want: []string{"/tmp/sync.lock", "pid 4242 on web1"},
		},
		{
			name: "lock without owner",
			err:  &LockContentionError{Path: "/tmp/sync.lock"},
			want: []string{"/tmp/sync.lock", "remove the lock file manually"},
		},
		{
			name: "verification with hint",
			err:  &VerificationError{Mismatched: 2, Missing: 1, BackupHint: "/backups/confsync-x.tar.gz"},
			want: []string{"2 mismatched", "1 missing", "/backups/confsync-x.tar.gz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, fragment := range tt.want {
				if !strings.Contains(msg, fragment) {
					t.Errorf("message %q missing %q", msg, fragment)
				}
			}
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name string
		err  error
	}{
		{"build", &BuildError{Root: "/etc/app", Err: cause}},
		{"transfer", &TransferError{Stage: "push", Err: cause}},
		{"backup", &BackupError{Err: cause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, cause) {
				t.Errorf("%T does not unwrap to its cause", tt.err)
			}
		})
	}
}
