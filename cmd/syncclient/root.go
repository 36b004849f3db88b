package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/biasdo/syncclient/internal/api"
	"github.com/biasdo/syncclient/internal/config"
	"github.com/biasdo/syncclient/internal/connection"
	"github.com/biasdo/syncclient/internal/dispatch"
	"github.com/biasdo/syncclient/internal/engine"
	"github.com/biasdo/syncclient/internal/store"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "text" | "json"
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "syncclient",
		Short: "Real-time chat replica",
		Long: `syncclient keeps a local, ordered replica of a chat account (servers,
channels, members, messages, invites, users, friends and friend requests)
in sync with the server over a push connection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return wrapExitError(exitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (defaults apply when empty)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newTailCommand(opts))
	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))

	return cmd
}

// loadConfig loads and validates the config file, or returns defaults when
// no path was given.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.ConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadAndValidate(opts.ConfigPath)
	if err != nil {
		return nil, wrapExitError(exitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// setupLogger installs a text handler on w as the default logger.
func setupLogger(cfg *config.Config, verbose bool, w io.Writer) *slog.Logger {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func newAPIClient(cfg *config.Config, tokens api.TokenSource, logger *slog.Logger) *api.Client {
	return api.NewClient(
		cfg.API.RestURL,
		tokens,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)
}

// engineConfig maps file configuration onto the engine's components.
func engineConfig(cfg *config.Config) engine.Config {
	client := connection.DefaultClientConfig()
	client.URL = cfg.API.WSURL
	client.HandshakeTimeout = cfg.Connection.HandshakeTimeout
	client.PingInterval = cfg.Connection.PingInterval
	client.PingTimeout = cfg.Connection.PingTimeout
	client.WriteTimeout = cfg.Connection.WriteTimeout
	client.BufferSize = cfg.Connection.BufferSize

	conn := connection.DefaultManagerConfig()
	conn.Client = client
	conn.ReconnectDelays = cfg.Connection.ReconnectDelays
	conn.ContextPollInterval = cfg.Connection.ContextPollInterval

	return engine.Config{
		Connection: conn,
		Dispatch:   dispatch.Config{QueueSize: cfg.Engine.QueueSize},
		Store:      store.Config{StrictMerge: cfg.Engine.StrictMerge},
	}
}
