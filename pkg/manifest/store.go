package manifest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sdejongh/confsync/pkg/logging"
)

// ErrNoRemoteManifest signals that the remote side has never published a
// manifest. Callers treat it as "verification skipped", not as a failure.
var ErrNoRemoteManifest = errors.New("no remote manifest published")

// Copier transfers a single file between a local path and a remote
// endpoint address. Implementations must return an error wrapping
// fs.ErrNotExist when the source file is absent.
type Copier interface {
	Copy(ctx context.Context, src, dst string) error
}

// Store persists manifests locally and moves them to and from the remote
// endpoint. The local manifest is the producer-side source of truth; the
// fetched remote manifest is a cache that is stale until refreshed.
type Store struct {
	copier Copier
	logger logging.Logger
}

// NewStore creates a manifest store using the given file copier
func NewStore(copier Copier, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Store{copier: copier, logger: logger}
}

// Save serializes the manifest to path, one "<digest> <path>" line per
// entry. The write is atomic: a temp file in the same directory is
// renamed over the target so a crash never leaves a partial manifest.
func (s *Store) Save(m *Manifest, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	for _, e := range m.Entries() {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.Digest, e.Path); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace manifest: %w", err)
	}

	return nil
}

// Load parses a manifest file. Malformed lines are skipped with a warning
// rather than aborting the load, since an earlier failure may have left a
// partially written file behind.
func (s *Store) Load(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		digest, relPath, ok := strings.Cut(line, " ")
		if !ok || digest == "" || relPath == "" {
			s.logger.Warn(context.Background(), "skipping malformed manifest line", logging.Fields{
				"file": path,
				"line": lineNo,
			})
			continue
		}

		entries = append(entries, Entry{Path: relPath, Digest: digest})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return New(entries), nil
}

// Publish uploads the local manifest file to the remote endpoint under
// RemoteFilename. Failures here are the caller's to downgrade: a push
// whose data transfer succeeded must not be rolled back over a missing
// manifest upload.
func (s *Store) Publish(ctx context.Context, localPath, remote string) error {
	dst := remoteJoin(remote, RemoteFilename)
	if err := s.copier.Copy(ctx, localPath, dst); err != nil {
		return fmt.Errorf("failed to publish manifest to %s: %w", dst, err)
	}

	s.logger.Info(ctx, "manifest published", logging.Fields{"remote": dst})
	return nil
}

// Fetch downloads the remote manifest into cachePath. A remote side that
// has never published a manifest yields ErrNoRemoteManifest.
func (s *Store) Fetch(ctx context.Context, remote, cachePath string) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	src := remoteJoin(remote, RemoteFilename)
	if err := s.copier.Copy(ctx, src, cachePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoRemoteManifest
		}
		return fmt.Errorf("failed to fetch manifest from %s: %w", src, err)
	}

	s.logger.Info(ctx, "remote manifest fetched", logging.Fields{"cache": cachePath})
	return nil
}

// remoteJoin appends a file name to an rsync-style endpoint address
func remoteJoin(remote, name string) string {
	return strings.TrimRight(remote, "/") + "/" + name
}
