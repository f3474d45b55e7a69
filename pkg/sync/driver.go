// Package sync implements the reconciliation workflows tying manifest
// generation, bulk transfer and verification together for the push, pull,
// status and verify operations.
package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sdejongh/confsync/pkg/logging"
	"github.com/sdejongh/confsync/pkg/manifest"
	"github.com/sdejongh/confsync/pkg/models"
	"github.com/sdejongh/confsync/pkg/transfer"
	"github.com/sdejongh/confsync/pkg/verify"
)

// Transferrer is the bulk transfer collaborator
type Transferrer interface {
	// Transfer runs a directory sync and returns the itemized changes
	Transfer(ctx context.Context, req transfer.Request) (*transfer.DiffSummary, error)

	// Check probes remote reachability
	Check(ctx context.Context) error
}

// Snapshotter is the backup collaborator invoked before pulls
type Snapshotter interface {
	Create(ctx context.Context) (string, error)
	Prune(keep int) (int, error)
	Latest() (string, error)
}

// Locker provides the process-wide exclusive sync lock
type Locker interface {
	Acquire() error
	Release() error
}

// Options configures a Driver for one sync pair
type Options struct {
	// LocalDir is the synchronized configuration directory
	LocalDir string
	// Remote is the endpoint holding the remote copy
	Remote transfer.Endpoint
	// Excludes are glob patterns skipped by transfer and manifest build
	Excludes []string
	// MirrorDeletes propagates deletions during bulk transfer
	MirrorDeletes bool
	// LocalManifestPath is where the producer-side manifest lives
	LocalManifestPath string
	// RemoteCachePath is where fetched remote manifests are cached
	RemoteCachePath string
	// BackupEnabled controls the pre-pull snapshot
	BackupEnabled bool
	// BackupKeep is the number of snapshots retained after pruning
	BackupKeep int
}

// Deps holds the collaborators a Driver sequences
type Deps struct {
	Transfer Transferrer
	Store    *manifest.Store
	Builder  *manifest.Builder
	Verifier *verify.Verifier
	Backup   Snapshotter
	Lock     Locker
	Logger   logging.Logger
}

// Driver sequences builder, store, transfer and verifier per operation.
// Each invocation is a fresh single-threaded pass; all state surviving
// between runs lives in the manifest files and the lock marker.
type Driver struct {
	opts Options
	deps Deps
}

// NewDriver creates a driver
func NewDriver(opts Options, deps Deps) *Driver {
	if deps.Logger == nil {
		deps.Logger = logging.NewNullLogger()
	}
	return &Driver{opts: opts, deps: deps}
}

// PushOptions controls a push operation
type PushOptions struct {
	DryRun bool
}

// Push sends the local tree to the remote host: build and save the local
// manifest, bulk transfer, then publish the manifest. A manifest build
// failure aborts before any transfer; a publish failure after a
// successful transfer only degrades the run to partial.
func (d *Driver) Push(ctx context.Context, opts PushOptions) (*models.Report, error) {
	r := models.NewReport(models.OpPush, d.opts.LocalDir, d.opts.Remote.String())
	r.DryRun = opts.DryRun

	if err := d.deps.Transfer.Check(ctx); err != nil {
		return r.Finish(models.StatusFailed), &models.TransferError{Stage: "remote check", Err: err}
	}

	if !opts.DryRun {
		if err := d.deps.Lock.Acquire(); err != nil {
			return r.Finish(models.StatusFailed), err
		}
		defer d.releaseLock(ctx)

		m, err := d.deps.Builder.Build(ctx, d.opts.LocalDir)
		if err != nil {
			return r.Finish(models.StatusFailed), &models.BuildError{Root: d.opts.LocalDir, Err: err}
		}
		if err := d.deps.Store.Save(m, d.opts.LocalManifestPath); err != nil {
			return r.Finish(models.StatusFailed), &models.BuildError{Root: d.opts.LocalDir, Err: err}
		}
		r.Note(fmt.Sprintf("manifest built: %d entries", m.Len()))
	}

	summary, err := d.deps.Transfer.Transfer(ctx, transfer.Request{
		Source:   dirAddress(d.opts.LocalDir),
		Dest:     dirAddress(d.opts.Remote.String()),
		Excludes: d.transferExcludes(),
		Delete:   d.opts.MirrorDeletes,
		DryRun:   opts.DryRun,
	})
	if err != nil {
		return r.Finish(models.StatusFailed), &models.TransferError{Stage: "push", Err: err}
	}
	r.PushDiff = summary

	if !opts.DryRun {
		if err := d.deps.Store.Publish(ctx, d.opts.LocalManifestPath, d.opts.Remote.String()); err != nil {
			// Data transfer already succeeded; the manifest is secondary
			d.deps.Logger.Warn(ctx, "manifest publish failed", logging.Fields{"error": err.Error()})
			r.Warn(fmt.Sprintf("manifest publish failed: %v", err))
		}
	}

	return r.Finish(completed(r)), nil
}

// PullOptions controls a pull operation
type PullOptions struct {
	DryRun   bool
	NoBackup bool
}

// Pull retrieves the remote tree: snapshot the local directory, fetch the
// remote manifest, bulk transfer, then verify the local tree against the
// fetched manifest. Verification failure fails the pull and points the
// operator at the newest snapshot; already-copied files are not rolled
// back.
func (d *Driver) Pull(ctx context.Context, opts PullOptions) (*models.Report, error) {
	r := models.NewReport(models.OpPull, d.opts.LocalDir, d.opts.Remote.String())
	r.DryRun = opts.DryRun

	if err := d.deps.Transfer.Check(ctx); err != nil {
		return r.Finish(models.StatusFailed), &models.TransferError{Stage: "remote check", Err: err}
	}

	if !opts.DryRun {
		if err := d.deps.Lock.Acquire(); err != nil {
			return r.Finish(models.StatusFailed), err
		}
		defer d.releaseLock(ctx)

		if d.opts.BackupEnabled && !opts.NoBackup {
			path, err := d.deps.Backup.Create(ctx)
			if err != nil {
				return r.Finish(models.StatusFailed), &models.BackupError{Err: err}
			}
			r.BackupPath = path

			if removed, err := d.deps.Backup.Prune(d.opts.BackupKeep); err != nil {
				r.Warn(fmt.Sprintf("failed to prune old snapshots: %v", err))
			} else if removed > 0 {
				r.Note(fmt.Sprintf("pruned %d old snapshot(s)", removed))
			}
		} else {
			r.Note("backup snapshot skipped")
		}
	}

	var remoteManifest *manifest.Manifest
	if !opts.DryRun {
		switch err := d.deps.Store.Fetch(ctx, d.opts.Remote.String(), d.opts.RemoteCachePath); {
		case errors.Is(err, manifest.ErrNoRemoteManifest):
			r.Warn("no remote manifest published; verification skipped")
		case err != nil:
			r.Warn(fmt.Sprintf("failed to fetch remote manifest: %v; verification skipped", err))
		default:
			m, err := d.deps.Store.Load(d.opts.RemoteCachePath)
			if err != nil {
				r.Warn(fmt.Sprintf("failed to load fetched manifest: %v; verification skipped", err))
			} else {
				remoteManifest = m
			}
		}
	}

	summary, err := d.deps.Transfer.Transfer(ctx, transfer.Request{
		Source:   dirAddress(d.opts.Remote.String()),
		Dest:     dirAddress(d.opts.LocalDir),
		Excludes: d.transferExcludes(),
		Delete:   d.opts.MirrorDeletes,
		DryRun:   opts.DryRun,
	})
	if err != nil {
		return r.Finish(models.StatusFailed), &models.TransferError{Stage: "pull", Err: err}
	}
	r.PullDiff = summary

	if remoteManifest != nil && !opts.DryRun {
		result, err := d.deps.Verifier.Verify(ctx, d.opts.LocalDir, remoteManifest)
		if err != nil {
			return r.Finish(models.StatusFailed), err
		}
		r.Verification = result

		if result.Empty() {
			r.Note("remote manifest is empty; nothing to verify")
		}
		if !result.Passed() {
			hint, _ := d.deps.Backup.Latest()
			return r.Finish(models.StatusFailed), &models.VerificationError{
				Mismatched: result.Mismatched,
				Missing:    result.Missing,
				BackupHint: hint,
			}
		}
	}

	return r.Finish(completed(r)), nil
}

// Verify checks the local tree against the stored local manifest. With no
// manifest yet, a baseline is built and the operator advised to re-run:
// there is nothing to judge on the first pass. A reachable remote
// manifest additionally yields an informational drift note.
func (d *Driver) Verify(ctx context.Context) (*models.Report, error) {
	r := models.NewReport(models.OpVerify, d.opts.LocalDir, d.opts.Remote.String())

	if _, err := os.Stat(d.opts.LocalManifestPath); os.IsNotExist(err) {
		m, err := d.deps.Builder.Build(ctx, d.opts.LocalDir)
		if err != nil {
			return r.Finish(models.StatusFailed), &models.BuildError{Root: d.opts.LocalDir, Err: err}
		}
		if err := d.deps.Store.Save(m, d.opts.LocalManifestPath); err != nil {
			return r.Finish(models.StatusFailed), &models.BuildError{Root: d.opts.LocalDir, Err: err}
		}
		r.Note(fmt.Sprintf("baseline manifest created (%d entries); re-run verify to check integrity", m.Len()))
		return r.Finish(completed(r)), nil
	}

	local, err := d.deps.Store.Load(d.opts.LocalManifestPath)
	if err != nil {
		return r.Finish(models.StatusFailed), err
	}

	result, err := d.deps.Verifier.Verify(ctx, d.opts.LocalDir, local)
	if err != nil {
		return r.Finish(models.StatusFailed), err
	}
	r.Verification = result
	if result.Empty() {
		r.Note("manifest is empty; nothing to verify")
	}

	d.checkDrift(ctx, r, local)

	if !result.Passed() {
		return r.Finish(models.StatusFailed), &models.VerificationError{
			Mismatched: result.Mismatched,
			Missing:    result.Missing,
		}
	}

	return r.Finish(completed(r)), nil
}

// Status previews both transfer directions with dry runs and appends an
// advisory integrity summary. Read-only: no lock, no manifest refresh.
func (d *Driver) Status(ctx context.Context) (*models.Report, error) {
	r := models.NewReport(models.OpStatus, d.opts.LocalDir, d.opts.Remote.String())
	r.DryRun = true

	if err := d.deps.Transfer.Check(ctx); err != nil {
		return r.Finish(models.StatusFailed), &models.TransferError{Stage: "remote check", Err: err}
	}

	pushDiff, err := d.deps.Transfer.Transfer(ctx, transfer.Request{
		Source:   dirAddress(d.opts.LocalDir),
		Dest:     dirAddress(d.opts.Remote.String()),
		Excludes: d.transferExcludes(),
		Delete:   d.opts.MirrorDeletes,
		DryRun:   true,
	})
	if err != nil {
		return r.Finish(models.StatusFailed), &models.TransferError{Stage: "push preview", Err: err}
	}
	r.PushDiff = pushDiff

	pullDiff, err := d.deps.Transfer.Transfer(ctx, transfer.Request{
		Source:   dirAddress(d.opts.Remote.String()),
		Dest:     dirAddress(d.opts.LocalDir),
		Excludes: d.transferExcludes(),
		Delete:   d.opts.MirrorDeletes,
		DryRun:   true,
	})
	if err != nil {
		return r.Finish(models.StatusFailed), &models.TransferError{Stage: "pull preview", Err: err}
	}
	r.PullDiff = pullDiff

	// Advisory integrity summary; a failure here never fails status
	if _, err := os.Stat(d.opts.LocalManifestPath); err == nil {
		if local, err := d.deps.Store.Load(d.opts.LocalManifestPath); err == nil {
			if result, err := d.deps.Verifier.Verify(ctx, d.opts.LocalDir, local); err == nil {
				r.Verification = result
			} else if ctx.Err() != nil {
				return r.Finish(models.StatusFailed), ctx.Err()
			}
		}
	} else {
		r.Note("no local manifest yet; run 'confsync verify' to create a baseline")
	}

	return r.Finish(completed(r)), nil
}

// checkDrift compares the local manifest with a freshly fetched remote
// one. Purely informational: a tampered or diverged remote manifest is
// reported but never blocks.
func (d *Driver) checkDrift(ctx context.Context, r *models.Report, local *manifest.Manifest) {
	r.Drift = models.DriftUnknown
	if d.opts.Remote.Host == "" {
		return
	}

	switch err := d.deps.Store.Fetch(ctx, d.opts.Remote.String(), d.opts.RemoteCachePath); {
	case errors.Is(err, manifest.ErrNoRemoteManifest):
		r.Note("no remote manifest published; drift check skipped")
		return
	case err != nil:
		r.Warn(fmt.Sprintf("drift check skipped: %v", err))
		return
	}

	remote, err := d.deps.Store.Load(d.opts.RemoteCachePath)
	if err != nil {
		r.Warn(fmt.Sprintf("drift check skipped: %v", err))
		return
	}

	if local.Equal(remote) {
		r.Drift = models.DriftNone
	} else {
		r.Drift = models.DriftDetected
		r.Note("local and remote manifests differ; the remote side may have pushed newer content")
	}
}

// transferExcludes appends the published manifest name so bulk transfers
// never copy or mirror-delete it
func (d *Driver) transferExcludes() []string {
	excludes := make([]string, 0, len(d.opts.Excludes)+1)
	excludes = append(excludes, d.opts.Excludes...)
	return append(excludes, manifest.RemoteFilename)
}

// completed maps a finished run to success, downgrading to partial when
// warnings accumulated along the way
func completed(r *models.Report) models.Status {
	if len(r.Warnings) > 0 {
		return models.StatusPartial
	}
	return models.StatusSuccess
}

func (d *Driver) releaseLock(ctx context.Context) {
	if err := d.deps.Lock.Release(); err != nil {
		d.deps.Logger.Error(ctx, "failed to release lock", err, nil)
	}
}

// dirAddress ensures a trailing slash so rsync transfers directory
// contents rather than the directory itself
func dirAddress(addr string) string {
	return strings.TrimRight(addr, "/") + "/"
}
