package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sdejongh/confsync/pkg/logging"
)

// Builder walks a directory tree and produces a manifest of its regular
// files. The walk is read-only; per-file read failures are logged and
// skipped so a long build survives files changing underneath it.
type Builder struct {
	excludes []string
	logger   logging.Logger
	progress func(done, total int)
}

// NewBuilder creates a manifest builder with the given exclude patterns.
// Patterns use shell-glob semantics relative to the build root; a pattern
// without a path separator matches base names at any depth, and a matched
// directory prunes its whole subtree.
func NewBuilder(excludes []string, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Builder{excludes: excludes, logger: logger}
}

// SetProgressCallback sets a callback invoked after each file is hashed
func (b *Builder) SetProgressCallback(fn func(done, total int)) {
	b.progress = fn
}

// Build produces a manifest for root. A missing or unreadable root is a
// fatal error; individual file failures only shrink the manifest.
func (b *Builder) Build(ctx context.Context, root string) (*Manifest, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	paths, err := b.collect(ctx, root)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(paths))
	for i, rel := range paths {
		digest, err := FileDigest(ctx, filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn(ctx, "skipping unreadable file", logging.Fields{
				"path":  rel,
				"error": err.Error(),
			})
		} else {
			entries = append(entries, Entry{Path: rel, Digest: digest})
		}
		// Skipped files still count as done so the bar always completes
		if b.progress != nil {
			b.progress(i+1, len(paths))
		}
	}

	b.logger.Info(ctx, "manifest built", logging.Fields{
		"root":    root,
		"entries": len(entries),
	})

	return New(entries), nil
}

// collect lists the relative slash-separated paths of all regular files
// under root, applying exclude patterns and pruning excluded directories.
func (b *Builder) collect(ctx context.Context, root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: log and keep walking
			b.logger.Warn(ctx, "skipping unreadable path", logging.Fields{
				"path":  p,
				"error": err.Error(),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if b.excluded(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		// Only plain files are hashed; symlinks and specials are skipped
		if d.Type().IsRegular() {
			paths = append(paths, rel)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// excluded reports whether a relative path matches any exclude pattern
func (b *Builder) excluded(rel string) bool {
	base := rel
	if idx := strings.LastIndexByte(rel, '/'); idx >= 0 {
		base = rel[idx+1:]
	}

	for _, pattern := range b.excludes {
		if pattern == "" {
			continue
		}
		pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")

		if strings.Contains(pattern, "/") {
			// Path pattern, matched against the full relative path
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				return true
			}
		} else {
			// Bare pattern, matched against the base name at any depth
			if ok, err := doublestar.Match(pattern, base); err == nil && ok {
				return true
			}
		}
	}

	return false
}
