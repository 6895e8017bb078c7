// Package cli wires configuration, storage and the assistant into the askdb commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/duynguyendang/askdb/internal/config"
	"github.com/duynguyendang/askdb/internal/logging"
	"github.com/duynguyendang/askdb/pkg/sqlstore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is reported by the MCP server and --version.
var Version = "0.1.0"

// Options holds the streams the commands read from and write to.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type app struct {
	opts    Options
	envFile string
	cfg     config.Config
	logger  zerolog.Logger
}

// NewRootCommand builds the askdb command tree. Running it without a
// subcommand starts the interactive chat.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:           "askdb",
		Short:         "Ask questions about a SQLite database in plain language",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: a.runChat,
	}
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		a.chatCommand(),
		a.seedCommand(),
		a.schemaCommand(),
		a.serveCommand(),
		a.mcpCommand(),
	)
	return root
}

// Execute runs the root command against the process streams and returns
// the exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand(Options{})
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "askdb: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) load() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Log, a.opts.Stderr)
	return nil
}

// openStore opens the configured database and makes sure the demo tables exist.
func (a *app) openStore(ctx context.Context) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Bootstrap(ctx); err != nil {
		store.Close()
		return nil, err
	}
	a.logger.Debug().Str("path", a.cfg.Database.Path).Msg("database ready")
	return store, nil
}
