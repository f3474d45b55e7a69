package verify

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sdejongh/confsync/pkg/logging"
	"github.com/sdejongh/confsync/pkg/manifest"
)

// Verifier checks a live directory tree against a manifest. It is
// read-only and tolerates the tree changing while it runs: a file that
// disappears between entries is reported MISSING, one that changes is
// reported MISMATCH, never an internal error.
type Verifier struct {
	logger   logging.Logger
	progress func(done, total int)
}

// NewVerifier creates a verifier
func NewVerifier(logger logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Verifier{logger: logger}
}

// SetProgressCallback sets a callback invoked after each entry is checked
func (v *Verifier) SetProgressCallback(fn func(done, total int)) {
	v.progress = fn
}

// Verify compares root against m entry by entry. Files present on disk
// but absent from the manifest are outside the comparison's domain and
// are never reported.
func (v *Verifier) Verify(ctx context.Context, root string, m *manifest.Manifest) (*Result, error) {
	entries := m.Entries()
	result := &Result{Total: len(entries)}

	for i, e := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		full := filepath.Join(root, filepath.FromSlash(e.Path))

		info, err := os.Lstat(full)
		if err != nil || !info.Mode().IsRegular() {
			result.Missing++
			result.Failures = append(result.Failures, Failure{Path: e.Path, Reason: ReasonMissing})
			v.report(i+1, len(entries))
			continue
		}

		digest, err := manifest.FileDigest(ctx, full)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if os.IsNotExist(err) {
				// Deleted between Lstat and hashing
				result.Missing++
				result.Failures = append(result.Failures, Failure{Path: e.Path, Reason: ReasonMissing})
				v.report(i+1, len(entries))
				continue
			}
			// Unreadable content cannot be proven intact
			v.logger.Warn(ctx, "failed to hash file during verification", logging.Fields{
				"path":  e.Path,
				"error": err.Error(),
			})
			result.Mismatched++
			result.Failures = append(result.Failures, Failure{Path: e.Path, Reason: ReasonMismatch})
			v.report(i+1, len(entries))
			continue
		}

		if digest != e.Digest {
			result.Mismatched++
			result.Failures = append(result.Failures, Failure{Path: e.Path, Reason: ReasonMismatch})
		} else {
			result.Matched++
		}
		v.report(i+1, len(entries))
	}

	v.logger.Info(ctx, "verification finished", logging.Fields{
		"root":       root,
		"total":      result.Total,
		"matched":    result.Matched,
		"mismatched": result.Mismatched,
		"missing":    result.Missing,
	})

	return result, nil
}

func (v *Verifier) report(done, total int) {
	if v.progress != nil {
		v.progress(done, total)
	}
}
