// Package root contains the root command for the application
package root

import (
	"fmt"
	"sync"

	"fjacquet/camt-recon/internal/config"
	"fjacquet/camt-recon/internal/container"
	"fjacquet/camt-recon/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input    string
	Output   string
	Format   string
	Actor    string
	Database string
	LogLevel string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppContainer is wired by PersistentPreRunE and released after every command.
	AppContainer *container.Container

	// SharedFlags holds the persistent flags accessible to all commands
	SharedFlags = CommonFlags{}

	initOnce sync.Once

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "camt-recon",
		Short: "A CLI tool to reconcile bank statements against outgoing payments.",
		Long: `camt-recon matches the transactions of imported bank statements against pending
payments, records every match and exception in an audit ledger, and lets operators
work the resulting exceptions from the command line or over HTTP.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			teardown()
		},
	}
)

// Init initializes the root command and all flags. Calling it again is a no-op.
func Init() {
	initOnce.Do(func() {
		flags := Cmd.PersistentFlags()
		flags.StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
		flags.StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (defaults to stdout)")
		flags.StringVarP(&SharedFlags.Format, "format", "f", "json", "Output format: json or yaml")
		flags.StringVar(&SharedFlags.Actor, "actor", "", "Operator id recorded on the audit trail (or RECON_ACTOR)")
		flags.StringVar(&SharedFlags.Database, "database", "", "Ledger database path, or \"memory\" (overrides data.database)")
		flags.StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level (overrides log.level)")
	})
}

func setup(cmd *cobra.Command, args []string) error {
	envFile, envErr := config.LoadEnv()

	cfg, err := config.InitializeConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if SharedFlags.Database != "" {
		cfg.Data.Database = SharedFlags.Database
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	AppContainer = c
	Log = c.GetLogger().WithField("command", cmd.Name())
	if envErr != nil {
		Log.WithError(envErr).Warn("Failed to load .env file", logging.F(logging.FieldInputFile, envFile))
	} else if envFile != "" {
		Log.Debug("Loaded environment variables", logging.F(logging.FieldInputFile, envFile))
	}
	return nil
}

func teardown() {
	if AppContainer == nil {
		return
	}
	if err := AppContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to release resources")
	}
	AppContainer = nil
}

// GetContainer returns the container wired for the running command.
func GetContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return AppContainer, nil
}

// ActorID returns the operator id from --actor or RECON_ACTOR.
func ActorID() string {
	if SharedFlags.Actor != "" {
		return SharedFlags.Actor
	}
	return config.GetEnv("RECON_ACTOR", "")
}
