// Package lock provides the process-level mutual exclusion used by push
// and pull. The lock is an advisory flock on a marker file: the kernel
// releases it when the holder dies, so a crashed instance never leaves a
// stuck lock behind. The marker's contents identify the holder for
// operator diagnostics only.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sdejongh/confsync/pkg/models"
)

// ownerInfo records who holds the lock
type ownerInfo struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

func (o ownerInfo) String() string {
	return fmt.Sprintf("pid %d on %s since %s", o.PID, o.Hostname, o.AcquiredAt.Format(time.RFC3339))
}

// Lock is the global exclusive sync lock
type Lock struct {
	path string
	fl   *flock.Flock
}

// New creates a lock backed by the marker file at path
func New(path string) *Lock {
	return &Lock{path: path, fl: flock.New(path)}
}

// Acquire takes the lock without blocking. Contention returns a
// LockContentionError naming the current holder when known.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return &models.LockContentionError{
			Path:  l.path,
			Owner: l.readOwner(),
		}
	}

	l.writeOwner()
	return nil
}

// Release drops the lock. Safe to call on a lock that was never acquired.
func (l *Lock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// writeOwner stores holder metadata in the marker. Purely diagnostic;
// flock on the inode is what enforces exclusion.
func (l *Lock) writeOwner() {
	hostname, _ := os.Hostname()
	info := ownerInfo{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now(),
	}

	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	_ = os.WriteFile(l.path, data, 0644)
}

// readOwner reports the recorded holder, or "" when unreadable
func (l *Lock) readOwner() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return ""
	}

	var info ownerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ""
	}
	return info.String()
}
