package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sdejongh/confsync/pkg/logging"
)

const (
	snapshotPrefix = "confsync-"
	snapshotSuffix = ".tar.gz"
	timestampLayout = "20060102-150405"
)

// Rotator creates timestamped tar.gz snapshots of a directory and keeps
// only the most recent ones. Snapshots are taken before a pull so a
// failed verification always leaves the operator a known-good copy.
type Rotator struct {
	sourceDir string
	backupDir string
	logger    logging.Logger
}

// NewRotator creates a rotator snapshotting sourceDir into backupDir
func NewRotator(sourceDir, backupDir string, logger logging.Logger) *Rotator {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Rotator{sourceDir: sourceDir, backupDir: backupDir, logger: logger}
}

// Create writes a new snapshot and returns its path
func (r *Rotator) Create(ctx context.Context) (string, error) {
	if _, err := os.Stat(r.sourceDir); err != nil {
		return "", fmt.Errorf("failed to access source directory: %w", err)
	}
	if err := os.MkdirAll(r.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := snapshotPrefix + time.Now().Format(timestampLayout) + snapshotSuffix
	path := filepath.Join(r.backupDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(r.sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p == r.sourceDir {
			return nil
		}
		// Archive plain files and directories only
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(r.sourceDir, p)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(tw, src)
		return err
	})

	if err == nil {
		err = tw.Close()
	} else {
		tw.Close()
	}
	if gzErr := gz.Close(); err == nil {
		err = gzErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	r.logger.Info(ctx, "snapshot created", logging.Fields{"path": path})
	return path, nil
}

// Prune removes all but the keep most recent snapshots, returning how
// many were deleted
func (r *Rotator) Prune(keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	snapshots, err := r.list()
	if err != nil {
		return 0, err
	}
	if len(snapshots) <= keep {
		return 0, nil
	}

	removed := 0
	for _, path := range snapshots[keep:] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove snapshot: %w", err)
		}
		removed++
	}

	return removed, nil
}

// Latest returns the newest snapshot path, or "" when none exist
func (r *Rotator) Latest() (string, error) {
	snapshots, err := r.list()
	if err != nil {
		return "", err
	}
	if len(snapshots) == 0 {
		return "", nil
	}
	return snapshots[0], nil
}

// List returns all snapshot paths, newest first
func (r *Rotator) List() ([]string, error) {
	return r.list()
}

// list returns snapshot paths sorted newest first. The timestamp in the
// name sorts lexicographically, so name order is age order.
func (r *Rotator) list() ([]string, error) {
	entries, err := os.ReadDir(r.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snapshots []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() &&
			strings.HasPrefix(name, snapshotPrefix) &&
			strings.HasSuffix(name, snapshotSuffix) {
			snapshots = append(snapshots, filepath.Join(r.backupDir, name))
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(snapshots)))
	return snapshots, nil
}
