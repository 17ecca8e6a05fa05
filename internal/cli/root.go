// Package cli implements the phpcr-migrate command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phpcrmigrate/internal/config"
	"github.com/mesh-intelligence/phpcrmigrate/internal/logging"
	"github.com/mesh-intelligence/phpcrmigrate/internal/migrate"
	"github.com/mesh-intelligence/phpcrmigrate/internal/paths"
	"github.com/mesh-intelligence/phpcrmigrate/internal/repository"
	"github.com/mesh-intelligence/phpcrmigrate/internal/source"
)

// Exit codes.
const (
	exitSuccess = 0
	// exitFailed means the run finished but some documents were not migrated.
	exitFailed   = 1
	exitSysError = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	logFormat string
}

// app carries the state shared by the subcommands of one invocation.
type app struct {
	flags rootFlags
	cfg   *config.Config
	log   zerolog.Logger
}

// NewRootCmd creates the top-level "phpcr-migrate" command with global
// flags and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}
	root := &cobra.Command{
		Use:   "phpcr-migrate",
		Short: "Migrate PHPCR content into the relational content schema",
		Long: "phpcr-migrate reads content nodes from a PHPCR repository (Jackalope DBAL\n" +
			"tables or JSONL exports) and writes them into the relational content tables.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/phpcr-migrate)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory for sqlite files and exports (default: $XDG_DATA_HOME/phpcr-migrate)")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	root.PersistentFlags().StringVar(&a.flags.logFormat, "log-format", "", "log format: console or json (default from config)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newExportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, migrate.ErrDocumentsFailed):
		return exitFailed
	default:
		return exitSysError
	}
}

// load reads the configuration and builds the logger.
func (a *app) load(logOut io.Writer) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if a.flags.logFormat != "" {
		cfg.Log.Format = a.flags.logFormat
	}
	log, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// openTarget opens the target database. The caller must call the returned
// close function.
func (a *app) openTarget() (*repository.EntityRepository, func() error, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	conn, err := a.cfg.TargetConnection()
	if err != nil {
		return nil, nil, err
	}
	db, dialect, err := repository.Open(conn)
	if err != nil {
		return nil, nil, fmt.Errorf("target: %w", err)
	}
	return repository.New(db, dialect), db.Close, nil
}

// openSource opens the source addressed by override, or by the configured
// dsn when override is empty.
func (a *app) openSource(override string) (source.Source, *config.DSN, error) {
	raw := a.cfg.DSN
	if override != "" {
		raw = override
	}
	dsn, err := config.ParseDSN(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("source dsn: %w", err)
	}
	src, err := source.Open(dsn, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	return src, dsn, nil
}

// splitTypes parses a comma-separated list of document types.
func splitTypes(arg string) []string {
	var out []string
	for _, t := range strings.Split(arg, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
