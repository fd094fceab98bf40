// Package main is the pneuma command line: chat with a persona and inspect its sessions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/project-pneuma/internal/agent"
	"github.com/easeaico/project-pneuma/internal/config"
	"github.com/easeaico/project-pneuma/internal/storage"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

// options are the global flags.
type options struct {
	session string
	persona string
	storage string
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "pneuma",
		Short: "Pneuma - a stateful personality engine",
		Long: `Pneuma answers messages in the voice of a persona whose mood drifts with the conversation.

Every session keeps its own personality vector, short-term memory, long-term insights
and conversation log. Run "pneuma chat" for an interactive session.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.session, "session", "s", agent.DefaultSessionID, "Session id")
	root.PersistentFlags().StringVarP(&opts.persona, "persona", "p", "", "Builtin persona name (overrides PNEUMA_PERSONA)")
	root.PersistentFlags().StringVar(&opts.storage, "storage", "", "Storage backend: file, postgres or memory (overrides PNEUMA_STORAGE)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newChatCmd(opts),
		newSayCmd(opts),
		newStateCmd(opts),
		newMemoryCmd(opts),
		newConversationsCmd(opts),
		newPersonasCmd(opts),
	)
	return root
}

// app holds what a command needs to talk to the engine.
type app struct {
	cfg    config.Config
	store  storage.Store
	engine *agent.Engine
}

func openRuntime(ctx context.Context, opts *options) (*app, error) {
	cfg := loadConfig()
	if opts.persona != "" {
		cfg.PersonaName = opts.persona
		cfg.PersonaFile = ""
	}
	if opts.storage != "" {
		cfg.StorageBackend = opts.storage
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.SlogLevel()
	if opts.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("configuration loaded", "storage", cfg.StorageBackend, "persona", cfg.PersonaName, "data_dir", cfg.DataDir)

	store, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StorageBackend,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
		Migrate:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	engine, err := agent.NewEngineFromConfig(store, &cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	return &app{cfg: cfg, store: store, engine: engine}, nil
}

// Close flushes the engine even when ctx is already cancelled.
func (r *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.engine.Close(ctx); err != nil {
		slog.Error("failed to close engine", "error", err.Error())
	}
	if err := r.store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err.Error())
	}
}
