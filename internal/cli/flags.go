package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	Output     string
	LogFile    string
	LogFormat  string
	LogLevel   string
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/confsync/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (shows hashing progress)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
	cmd.PersistentFlags().StringVarP(
		&globalFlags.Output,
		"output",
		"o",
		"",
		"output format: human, json (default from config)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.LogFile,
		"log-file",
		"",
		"write logs to file (enables logging)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.LogFormat,
		"log-format",
		"",
		"log format: text, json (default from config)",
	)
	cmd.PersistentFlags().StringVar(
		&globalFlags.LogLevel,
		"log-level",
		"",
		"log level: debug, info, warn, error (default from config)",
	)
}
