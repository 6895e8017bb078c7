package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/duynguyendang/askdb/pkg/assistant"
	"github.com/duynguyendang/askdb/pkg/conversation"
	"github.com/duynguyendang/askdb/pkg/mcp"
	"github.com/duynguyendang/askdb/pkg/prompts"
	"github.com/duynguyendang/askdb/pkg/repl"
	"github.com/duynguyendang/askdb/pkg/server"
	"github.com/duynguyendang/askdb/pkg/service/ai"
	"github.com/duynguyendang/askdb/pkg/sqlstore"
	"github.com/spf13/cobra"
)

func (a *app) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive question loop (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runChat,
	}
}

func (a *app) runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := a.openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	return repl.Run(ctx, b.newAssistant(), a.opts.Stdin, a.opts.Stdout)
}

func (a *app) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load sample data, or the SQL script in file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if err := store.Seed(cmd.Context(), path); err != nil {
				return err
			}
			fmt.Fprintln(a.opts.Stdout, "✅ Database seeded.")
			return nil
		},
	}
}

func (a *app) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema description sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			schema, err := store.Schema(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.opts.Stdout, schema)
			return nil
		},
	}
}

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			return server.NewServer(b.newAssistant(), a.logger).Run(a.cfg.Server.Addr)
		},
	}
}

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assistant as an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			a.logger.Info().Msg("starting MCP server on stdio")
			return mcp.Run(b.newAssistant(), Version, a.logger)
		},
	}
}

// backend is the database and model client shared by every conversation.
type backend struct {
	app    *app
	store  *sqlstore.Store
	gen    *ai.GeminiService
	schema string
}

// openBackend opens the database, reads its schema and connects to Gemini.
func (a *app) openBackend(ctx context.Context) (*backend, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := store.Schema(ctx)
	if err != nil {
		a.closeStore(store)
		return nil, err
	}

	gen, err := ai.NewGeminiService(ctx, ai.GeminiConfig{
		APIKey:      a.cfg.Gemini.APIKey,
		Model:       a.cfg.Gemini.Model,
		Temperature: a.cfg.Gemini.Temperature,
		Timeout:     a.cfg.Gemini.Timeout,
	}, a.logger)
	if err != nil {
		a.closeStore(store)
		return nil, err
	}
	return &backend{app: a, store: store, gen: gen, schema: schema}, nil
}

// newAssistant starts an empty conversation over the shared backend.
func (b *backend) newAssistant() *assistant.Assistant {
	return assistant.New(assistant.Options{
		Conversation: conversation.NewManager(b.app.cfg.Conversation.MaxTurns),
		Generator:    b.gen,
		Executor:     b.store,
		Prompts:      prompts.Builtin(),
		Schema:       b.schema,
		Logger:       b.app.logger,
	})
}

func (b *backend) Close() {
	if err := b.gen.Close(); err != nil {
		b.app.logger.Warn().Err(err).Msg("close gemini client")
	}
	b.app.closeStore(b.store)
}

func (a *app) closeStore(store *sqlstore.Store) {
	if err := store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close database")
	}
}
