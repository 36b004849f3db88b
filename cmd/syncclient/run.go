package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/biasdo/syncclient/internal/auth"
	"github.com/biasdo/syncclient/internal/bootstrap"
	"github.com/biasdo/syncclient/internal/dispatch"
	"github.com/biasdo/syncclient/internal/engine"
	"github.com/biasdo/syncclient/internal/notify"
	"github.com/biasdo/syncclient/internal/version"
	"github.com/biasdo/syncclient/internal/view"
)

// runOptions holds flags for the run and tail commands.
type runOptions struct {
	*rootOptions
	Server  string
	Channel string
	Invite  string
	Limit   int
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Keep the replica in sync until interrupted",
		Long: `Connect to the server, load the account snapshot and apply live events
until SIGINT or SIGTERM. SIGHUP reopens the connection and reloads, for use
after "syncclient login".

Example:
  syncclient run --config syncclient.yaml --server 3 --channel 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd, opts, nil)
		},
	}
	addSelectionFlags(cmd, opts)

	return cmd
}

func addSelectionFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.Server, "server", "", "open server id")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "open channel id")
	cmd.Flags().StringVar(&opts.Invite, "invite", "", "invite id to load")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "messages to load for the open channel")
}

// runClient runs the sync engine until the command context is canceled or a
// shutdown signal arrives. onEvent, if set, receives every applied event.
func runClient(cmd *cobra.Command, opts *runOptions, onEvent func(dispatch.Event)) error {
	cfg, err := loadConfig(opts.rootOptions)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, opts.Verbose, cmd.ErrOrStderr())

	logger.Info("starting syncclient",
		"version", version.Version,
		"commit", version.Commit,
		"config", opts.ConfigPath,
	)

	tokens := auth.SessionFile{Path: cfg.Session.TokenPath}
	client := newAPIClient(cfg, tokens, logger)

	sel := &view.StaticSelection{}
	sel.Select(opts.Server, opts.Channel)

	var backend notify.Backend = notify.Log{Logger: logger}
	if cfg.Engine.Notifications {
		backend = notify.NewDesktop(cfg.Engine.IconDir)
	}

	eng, err := engine.New(engineConfig(cfg), engine.Deps{
		Tokens:        tokens,
		Selection:     sel,
		Navigator:     &selectionNavigator{sel: sel, logger: logger},
		Notifications: backend,
	}, logger)
	if err != nil {
		return wrapExitError(exitCommandError, "failed to create engine", err)
	}

	eng.OnNeedsLogin(func() {
		logger.Error("no session; run \"syncclient login\" and send SIGHUP")
		eng.InvalidateAll()
	})
	if onEvent != nil {
		eng.Subscribe(dispatch.CategoryAll, onEvent)
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		return wrapExitError(exitFailure, "failed to start engine", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := eng.Shutdown(shutdownCtx); err != nil {
			logger.Error("engine shutdown", "error", err)
		}
	}()

	var statusServer *http.Server
	if cfg.Status.Addr != "" {
		statusServer = &http.Server{
			Addr:    cfg.Status.Addr,
			Handler: createStatusHandler(eng),
		}
		go func() {
			logger.Info("starting status server", "addr", cfg.Status.Addr)
			if err := statusServer.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("status server error", "error", err)
			}
		}()
	}

	f := fetchers(client, opts.Server, opts.Channel, opts.Invite, opts.Limit)
	load := func() {
		if err := eng.PopulateStores(ctx, f, false); err != nil {
			logLoadError(logger, err)
			return
		}
		logger.Info("replica loaded", "counts", eng.Stores().Counts())
	}
	go load()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

wait:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("reopening", "signal", sig)
				eng.Reopen()
				go load()
				continue
			}
			logger.Info("received shutdown signal", "signal", sig)
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	logger.Info("shutting down...")
	cancel()

	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		statusServer.Shutdown(shutdownCtx)
	}

	return nil
}

func logLoadError(logger *slog.Logger, err error) {
	var loadErr *bootstrap.LoadError
	if !errors.As(err, &loadErr) {
		logger.Error("load failed", "error", err)
		return
	}
	for resource, ferr := range loadErr.Failures {
		if errors.Is(ferr, context.Canceled) {
			continue
		}
		logger.Warn("resource not loaded", "resource", resource, "error", ferr)
	}
}

// printEvent returns an event printer for the given format.
func printEvent(w io.Writer, format string) func(dispatch.Event) {
	enc := json.NewEncoder(w)

	return func(ev dispatch.Event) {
		if format == "json" {
			enc.Encode(struct {
				Type       string          `json:"type"`
				ReceivedAt time.Time       `json:"received_at"`
				Data       json.RawMessage `json:"data"`
			}{ev.Type, ev.ReceivedAt, ev.Data})
			return
		}
		fmt.Fprintf(w, "%s %-14s %-6s %s\n",
			ev.ReceivedAt.Format("15:04:05.000"), ev.Category, ev.Action, ev.Data)
	}
}
