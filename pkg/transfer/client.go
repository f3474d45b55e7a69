package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sdejongh/confsync/pkg/logging"
)

// ClientConfig holds the remote endpoint and transport options
type ClientConfig struct {
	Endpoint Endpoint
	// Port is the ssh port (0 = default 22)
	Port int
	// IdentityFile is an optional ssh private key
	IdentityFile string
	// BandwidthLimit caps rsync throughput in KiB/s (0 = unlimited)
	BandwidthLimit int
}

// Request describes a single bulk directory transfer. Source and Dest
// are rsync-style addresses; either side may be remote.
type Request struct {
	Source   string
	Dest     string
	Excludes []string
	// Delete mirrors deletions from source to destination
	Delete bool
	// DryRun previews changes without applying them
	DryRun bool
}

// Client shells out to rsync, scp and ssh. All calls are synchronous and
// blocking with no internal retry; a tool failure propagates directly.
type Client struct {
	config    ClientConfig
	logger    logging.Logger
	rsyncPath string
	scpPath   string
	sshPath   string
}

// NewClient creates a transfer client for the configured endpoint
func NewClient(config ClientConfig, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Client{
		config:    config,
		logger:    logger,
		rsyncPath: "rsync",
		scpPath:   "scp",
		sshPath:   "ssh",
	}
}

// Transfer runs a bulk directory sync and returns the itemized changes
func (c *Client) Transfer(ctx context.Context, req Request) (*DiffSummary, error) {
	args := []string{"-az", "--itemize-changes"}
	if req.Delete {
		args = append(args, "--delete")
	}
	if req.DryRun {
		args = append(args, "--dry-run")
	}
	if c.config.BandwidthLimit > 0 {
		args = append(args, fmt.Sprintf("--bwlimit=%d", c.config.BandwidthLimit))
	}
	for _, pattern := range req.Excludes {
		if pattern != "" {
			args = append(args, "--exclude="+pattern)
		}
	}
	args = append(args, "-e", c.sshCommand())
	args = append(args, req.Source, req.Dest)

	cmd := exec.CommandContext(ctx, c.rsyncPath, args...)
	out, err := c.run(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("rsync failed: %w", err)
	}

	summary := parseItemized(out)
	c.logger.Info(ctx, "transfer finished", logging.Fields{
		"source":  req.Source,
		"dest":    req.Dest,
		"dry_run": req.DryRun,
		"changes": summary.Total(),
	})

	return summary, nil
}

// Copy moves a single file via scp. A missing source is reported as an
// error wrapping fs.ErrNotExist so callers can treat "never published"
// differently from a transport failure.
func (c *Client) Copy(ctx context.Context, src, dst string) error {
	args := []string{"-q"}
	if c.config.Port > 0 {
		args = append(args, "-P", strconv.Itoa(c.config.Port))
	}
	if c.config.IdentityFile != "" {
		args = append(args, "-i", c.config.IdentityFile)
	}
	args = append(args, "-o", "BatchMode=yes", src, dst)

	cmd := exec.CommandContext(ctx, c.scpPath, args...)
	if _, err := c.run(ctx, cmd); err != nil {
		if isNotFound(err.Error()) {
			return fmt.Errorf("copy %s: %w", src, fs.ErrNotExist)
		}
		return fmt.Errorf("scp failed: %w", err)
	}

	return nil
}

// Check probes the remote host with a no-op ssh command
func (c *Client) Check(ctx context.Context) error {
	args := []string{"-o", "BatchMode=yes", "-o", "ConnectTimeout=10"}
	if c.config.Port > 0 {
		args = append(args, "-p", strconv.Itoa(c.config.Port))
	}
	if c.config.IdentityFile != "" {
		args = append(args, "-i", c.config.IdentityFile)
	}
	args = append(args, c.config.Endpoint.HostSpec(), "exit", "0")

	cmd := exec.CommandContext(ctx, c.sshPath, args...)
	if _, err := c.run(ctx, cmd); err != nil {
		return fmt.Errorf("remote host %s is unreachable: %w", c.config.Endpoint.Host, err)
	}

	return nil
}

// sshCommand builds the ssh invocation rsync uses as its transport
func (c *Client) sshCommand() string {
	parts := []string{c.sshPath, "-o", "BatchMode=yes"}
	if c.config.Port > 0 {
		parts = append(parts, "-p", strconv.Itoa(c.config.Port))
	}
	if c.config.IdentityFile != "" {
		parts = append(parts, "-i", c.config.IdentityFile)
	}
	return strings.Join(parts, " ")
}

// run executes a command, returning stdout and folding stderr into errors
func (c *Client) run(ctx context.Context, cmd *exec.Cmd) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug(ctx, "running command", logging.Fields{
		"cmd": strings.Join(cmd.Args, " "),
	})

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}

	return stdout.String(), nil
}

// isNotFound recognizes the tool output for an absent remote file
func isNotFound(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "not found")
}
