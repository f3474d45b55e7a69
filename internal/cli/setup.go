package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sdejongh/confsync/internal/platform"
	"github.com/sdejongh/confsync/pkg/backup"
	"github.com/sdejongh/confsync/pkg/config"
	"github.com/sdejongh/confsync/pkg/lock"
	"github.com/sdejongh/confsync/pkg/logging"
	"github.com/sdejongh/confsync/pkg/manifest"
	"github.com/sdejongh/confsync/pkg/models"
	"github.com/sdejongh/confsync/pkg/output"
	"github.com/sdejongh/confsync/pkg/sync"
	"github.com/sdejongh/confsync/pkg/transfer"
	"github.com/sdejongh/confsync/pkg/verify"
)

// app bundles the wired-up collaborators for one command invocation
type app struct {
	cfg       *config.Config
	localDir  string
	endpoint  transfer.Endpoint
	driver    *sync.Driver
	builder   *manifest.Builder
	verifier  *verify.Verifier
	rotator   *backup.Rotator
	formatter output.Formatter
	logger    logging.Logger
}

// loadConfig loads the configuration from --config or the default path
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// newApp loads configuration and assembles the driver and its
// collaborators. Remote validation happens here, before any lock.
func newApp(requireRemote bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Sync.LocalDir == "" {
		return nil, &models.ConfigError{Reason: "sync.local_dir is not set"}
	}
	localDir := platform.ExpandHome(cfg.Sync.LocalDir)

	var endpoint transfer.Endpoint
	if cfg.Remote.Endpoint == "" {
		if requireRemote {
			return nil, &models.ConfigError{Reason: "remote.endpoint is not set"}
		}
	} else {
		endpoint, err = transfer.ParseEndpoint(cfg.Remote.Endpoint)
		if err != nil {
			return nil, &models.ConfigError{Reason: err.Error()}
		}
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	localManifest, err := platform.LocalManifestPath()
	if err != nil {
		return nil, err
	}
	remoteCache, err := platform.RemoteManifestCachePath()
	if err != nil {
		return nil, err
	}
	lockPath, err := platform.LockPath()
	if err != nil {
		return nil, err
	}

	backupDir := platform.ExpandHome(cfg.Backup.Dir)
	if backupDir == "" {
		backupDir, err = platform.DefaultBackupDir()
		if err != nil {
			return nil, err
		}
	}

	client := transfer.NewClient(transfer.ClientConfig{
		Endpoint:       endpoint,
		Port:           cfg.Remote.Port,
		IdentityFile:   platform.ExpandHome(cfg.Remote.IdentityFile),
		BandwidthLimit: cfg.Sync.BandwidthLimit,
	}, logger)

	builder := manifest.NewBuilder(cfg.Sync.Exclude, logger)
	verifier := verify.NewVerifier(logger)
	store := manifest.NewStore(client, logger)
	rotator := backup.NewRotator(localDir, backupDir, logger)

	driver := sync.NewDriver(sync.Options{
		LocalDir:          localDir,
		Remote:            endpoint,
		Excludes:          cfg.Sync.Exclude,
		MirrorDeletes:     cfg.Sync.MirrorDeletes,
		LocalManifestPath: localManifest,
		RemoteCachePath:   remoteCache,
		BackupEnabled:     cfg.Backup.Enabled,
		BackupKeep:        cfg.Backup.Keep,
	}, sync.Deps{
		Transfer: client,
		Store:    store,
		Builder:  builder,
		Verifier: verifier,
		Backup:   rotator,
		Lock:     lock.New(lockPath),
		Logger:   logger,
	})

	format := cfg.Output.Format
	if globalFlags.Output != "" {
		format = globalFlags.Output
	}

	return &app{
		cfg:       cfg,
		localDir:  localDir,
		endpoint:  endpoint,
		driver:    driver,
		builder:   builder,
		verifier:  verifier,
		rotator:   rotator,
		formatter: output.New(format, cfg.Output.Color),
		logger:    logger,
	}, nil
}

// Close releases the logger
func (a *app) Close() {
	if a.logger != nil {
		a.logger.Close()
	}
}

// createLogger builds the file logger from config, with flag overrides
func createLogger(cfg *config.Config) (logging.Logger, error) {
	file := cfg.Logging.File
	if globalFlags.LogFile != "" {
		file = globalFlags.LogFile
	}
	if file == "" || (!cfg.Logging.Enabled && globalFlags.LogFile == "") {
		return logging.NewNullLogger(), nil
	}

	format := logging.FormatText
	logFormat := cfg.Logging.Format
	if globalFlags.LogFormat != "" {
		logFormat = globalFlags.LogFormat
	}
	if logFormat == "json" {
		format = logging.FormatJSON
	}

	level := cfg.Logging.Level
	if globalFlags.LogLevel != "" {
		level = globalFlags.LogLevel
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       platform.ExpandHome(file),
		Format:     format,
		Level:      logging.ParseLevel(level),
		MaxSize:    10 * 1024 * 1024,
		MaxBackups: 5,
	})
}

// emitReport prints the report and terminates with its exit code
func emitReport(a *app, report *models.Report, err error) error {
	if report == nil {
		a.Close()
		return err
	}

	if !globalFlags.Quiet || report.Status != models.StatusSuccess {
		if writeErr := a.formatter.Write(os.Stdout, report); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to render report: %v\n", writeErr)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	a.Close()
	os.Exit(report.Status.ExitCode())
	return nil
}

// confirm asks a yes/no question on stdin, defaulting to no
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
