package main

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diet-coach/internal/chat"
	"diet-coach/internal/config"
	"diet-coach/internal/lexicon"
	"diet-coach/internal/llm"
	"diet-coach/internal/logging"
	"diet-coach/internal/server"
	"diet-coach/internal/storage"
	"diet-coach/internal/tools"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "diet-coach",
	Short: "Conversational diet coach with meal logging",
	Long: `diet-coach keeps a meal diary through natural conversation.

Messages are classified, answered by a language model in one of three
coaching personas, and meal tool calls (log, query, delete, update) are
validated before anything is written to the store.

Quick Start:
  diet-coach serve                       # HTTP + MCP endpoints
  diet-coach chat --user me              # interactive session
  diet-coach chat --user me 점심에 비빔밥 먹었어
  diet-coach history --user me`,
	Version:       server.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(serveCmd, chatCmd, historyCmd, profileCmd, configCmd, versionCmd)
}

// app holds the wired components shared by subcommands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.Store
	executor *tools.Executor
	chat     *chat.Service
}

// bootstrap loads config and opens the store. The model client is only
// built when withModel is set so offline commands need no API key.
func bootstrap(ctx context.Context, withModel bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	lex := lexicon.Default()
	if cfg.LexiconFile != "" {
		if lex, err = lexicon.Load(cfg.LexiconFile); err != nil {
			return nil, err
		}
	}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var model llm.Client
	if withModel {
		if model, err = llm.New(ctx, cfg.LLM); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	executor := tools.NewExecutor(store)
	svc := chat.NewService(store, store, executor, model, lex,
		chat.WithLogger(logger.Named("chat")),
		chat.WithLocation(loc),
		chat.WithProfiles(store),
		chat.WithDefaultPersona(cfg.DefaultPersona),
	)
	logger.Debug("Components ready",
		zap.String("driver", store.Driver()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("timezone", loc.String()))

	return &app{cfg: cfg, logger: logger, store: store, executor: executor, chat: svc}, nil
}

func (a *app) location() *time.Location {
	loc, err := a.cfg.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", server.Name, server.Version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}
