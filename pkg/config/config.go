package config

import (
	"strings"

	"github.com/sdejongh/confsync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Remote  RemoteConfig  `yaml:"remote"`
	Sync    SyncConfig    `yaml:"sync"`
	Backup  BackupConfig  `yaml:"backup"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// RemoteConfig identifies the remote endpoint
type RemoteConfig struct {
	// Endpoint is the rsync-style target, e.g. "user@host:/etc/myapp"
	Endpoint string `yaml:"endpoint"`
	// Port is the ssh port (0 = default)
	Port int `yaml:"port"`
	// IdentityFile is an optional ssh private key path
	IdentityFile string `yaml:"identity_file"`
}

// SyncConfig holds sync-related settings
type SyncConfig struct {
	// LocalDir is the configuration directory being synchronized
	LocalDir string `yaml:"local_dir"`
	// Exclude holds glob patterns skipped by transfer and manifest build
	Exclude []string `yaml:"exclude"`
	// MirrorDeletes removes destination files absent from the source
	MirrorDeletes bool `yaml:"mirror_deletes"`
	// BandwidthLimit caps transfer speed in KiB/s (0 = unlimited)
	BandwidthLimit int `yaml:"bandwidth_limit"`
}

// BackupConfig holds snapshot settings for pull operations
type BackupConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dir is where snapshots are stored (empty = default state dir)
	Dir string `yaml:"dir"`
	// Keep is the number of most-recent snapshots retained
	Keep int `yaml:"keep"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format string `yaml:"format"` // "human" or "json"
	Color  bool   `yaml:"color"`
	Quiet  bool   `yaml:"quiet"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // log file path (empty = disabled)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{},
		Sync: SyncConfig{
			Exclude: []string{
				"*.tmp",
				"*.swp",
				".git/",
			},
			MirrorDeletes: false,
		},
		Backup: BackupConfig{
			Enabled: true,
			Keep:    5,
		},
		Output: OutputConfig{
			Format: "human",
			Color:  true,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "text",
			Level:   "info",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Remote.Endpoint != "" && !strings.Contains(c.Remote.Endpoint, ":") {
		return &models.ValidationError{
			Field:   "remote.endpoint",
			Message: "must be of the form [user@]host:path",
		}
	}

	if c.Remote.Port < 0 || c.Remote.Port > 65535 {
		return &models.ValidationError{
			Field:   "remote.port",
			Message: "must be between 0 and 65535",
		}
	}

	if c.Backup.Keep < 1 {
		return &models.ValidationError{
			Field:   "backup.keep",
			Message: "must be at least 1",
		}
	}

	if c.Sync.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "sync.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
