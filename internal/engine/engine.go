// Package engine assembles the stores, the dispatcher, the connection manager
// and the bootstrap reconciler into one SyncEngine with an explicit lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/biasdo/syncclient/internal/bootstrap"
	"github.com/biasdo/syncclient/internal/connection"
	"github.com/biasdo/syncclient/internal/dispatch"
	"github.com/biasdo/syncclient/internal/notify"
	"github.com/biasdo/syncclient/internal/store"
	"github.com/biasdo/syncclient/internal/view"
)

// Config holds configuration for the engine's components.
type Config struct {
	Connection connection.ManagerConfig
	Dispatch   dispatch.Config
	Store      store.Config
}

// DefaultConfig returns default configuration. Connection.Client.URL must
// still be set.
func DefaultConfig() Config {
	return Config{
		Connection: connection.DefaultManagerConfig(),
		Dispatch:   dispatch.DefaultConfig(),
	}
}

// Navigator performs navigation for the engine: away from deleted servers and
// channels, and to a channel when a notification is clicked.
type Navigator interface {
	Navigate(path string)
}

// Deps are the engine's collaborators. Only Tokens is required.
type Deps struct {
	Tokens    connection.TokenSource
	Gate      connection.ContextGate
	Selection view.Selection
	Navigator Navigator

	// Notifications enables the notification policy when non-nil.
	Notifications notify.Backend
	Visibility    notify.Visibility
}

// Status is a point-in-time summary of the engine.
type Status struct {
	State      connection.State
	NeedsLogin bool
	Attempts   int
	Counts     map[string]int
	Dispatch   dispatch.Stats
}

// SyncEngine keeps the local replica in sync with the server.
type SyncEngine struct {
	cfg    Config
	logger *slog.Logger

	stores     *store.Stores
	views      *view.Views
	dispatcher *dispatch.Dispatcher
	manager    *connection.Manager
	reconciler *bootstrap.Reconciler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	resync  *bootstrap.Fetchers
}

// New wires a SyncEngine. Nothing runs until Start.
func New(cfg Config, deps Deps, logger *slog.Logger) (*SyncEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Tokens == nil {
		return nil, errors.New("engine: token source is required")
	}
	if deps.Selection == nil {
		deps.Selection = &view.StaticSelection{}
	}

	e := &SyncEngine{
		cfg:    cfg,
		logger: logger,
		ctx:    context.Background(),
	}

	e.stores = store.New(cfg.Store, logger.With("component", "store"))
	e.views = view.New(e.stores, deps.Selection)

	var notifier dispatch.Notifier
	if deps.Notifications != nil {
		notifier = notify.NewPolicy(deps.Notifications, e.stores, deps.Selection, deps.Visibility, deps.Navigator,
			logger.With("component", "notify"))
	}

	e.dispatcher = dispatch.New(cfg.Dispatch, dispatch.Deps{
		Stores:    e.stores,
		Selection: deps.Selection,
		Navigator: deps.Navigator,
		Notifier:  notifier,
	}, logger.With("component", "dispatch"))

	e.manager = connection.NewManager(cfg.Connection, deps.Tokens, deps.Gate, e.dispatcher,
		logger.With("component", "connection"))
	e.dispatcher.SetReauthenticator(e.manager)
	e.manager.OnOpen(e.handleOpen)

	e.reconciler = bootstrap.New(e.stores, e.manager, logger)

	return e, nil
}

// Start begins applying events and opens the connection.
func (e *SyncEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.New("engine already started")
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.mu.Unlock()

	if err := e.dispatcher.Start(e.ctx); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}
	if err := e.manager.Start(e.ctx); err != nil {
		return fmt.Errorf("start connection manager: %w", err)
	}

	e.logger.Info("sync engine started")
	return nil
}

// Shutdown closes the connection, drains the dispatcher and waits for
// background resyncs.
func (e *SyncEngine) Shutdown(ctx context.Context) error {
	e.logger.Info("shutting down sync engine")

	var errs []error
	if err := e.manager.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop connection manager: %w", err))
	}

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	if err := e.dispatcher.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop dispatcher: %w", err))
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("wait for resync: %w", ctx.Err()))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	e.logger.Info("sync engine stopped")
	return nil
}

// InvalidateAll is the logout path: it closes the connection cleanly, which
// cancels pending retries and resets counters, drops queued frames, and
// clears every collection and the local identity.
func (e *SyncEngine) InvalidateAll() {
	e.manager.Close()
	dropped := e.dispatcher.Discard()
	e.stores.Clear()

	e.mu.Lock()
	e.resync = nil
	e.mu.Unlock()

	e.logger.Info("replica invalidated", "dropped_frames", dropped)
}

// Reopen requests a new connection after InvalidateAll or a give-up.
func (e *SyncEngine) Reopen() {
	e.manager.Open()
}

// PopulateStores runs the bootstrap fetch and remembers f so the same data is
// fetched again after a reconnect.
func (e *SyncEngine) PopulateStores(ctx context.Context, f bootstrap.Fetchers, immediate bool) error {
	e.mu.Lock()
	e.resync = &f
	e.mu.Unlock()

	return e.reconciler.PopulateStores(ctx, f, immediate)
}

// handleOpen resyncs after a reconnect so that events missed while
// disconnected are recovered.
func (e *SyncEngine) handleOpen(first bool) {
	if first {
		return
	}

	e.mu.Lock()
	f := e.resync
	ctx := e.ctx
	e.mu.Unlock()

	if f == nil || ctx.Err() != nil {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		e.logger.Info("resyncing after reconnect")
		if err := e.reconciler.PopulateStores(ctx, *f, true); err != nil {
			e.logger.Warn("resync incomplete", "error", err)
		}
	}()
}

// Subscribe registers fn for applied change events of category.
func (e *SyncEngine) Subscribe(category dispatch.Category, fn func(dispatch.Event)) (unsubscribe func()) {
	return e.dispatcher.Subscribe(category, fn)
}

// OnNeedsLogin registers fn to run when the engine gives up for lack of a
// credential.
func (e *SyncEngine) OnNeedsLogin(fn func()) {
	e.manager.OnNeedsLogin(fn)
}

// WaitOpen blocks until the connection is open.
func (e *SyncEngine) WaitOpen(ctx context.Context) error {
	return e.manager.WaitOpen(ctx)
}

// Stores returns the replica.
func (e *SyncEngine) Stores() *store.Stores { return e.stores }

// Views returns the derived projections.
func (e *SyncEngine) Views() *view.Views { return e.views }

// Status returns a summary for diagnostics.
func (e *SyncEngine) Status() Status {
	return Status{
		State:      e.manager.State(),
		NeedsLogin: e.manager.NeedsLogin(),
		Attempts:   e.manager.Attempts(),
		Counts:     e.stores.Counts(),
		Dispatch:   e.dispatcher.Stats(),
	}
}
