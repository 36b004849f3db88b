package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Manager owns the push connection: it opens it once the authenticated
// context is active, authenticates, reconnects with backoff when it drops,
// and gives up when the credential is gone.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger
	tokens TokenSource
	gate   ContextGate
	sink   FrameSink

	newClient func(ClientConfig, *slog.Logger) Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	state       State
	client      Client
	attemptID   string
	connecting  bool
	closed      bool // clean close requested; suppresses reconnects
	needsLogin  bool
	firstOpen   bool
	retryTimer  *time.Timer
	backoff     *Backoff
	missingCred int
	openCh      chan struct{} // closed while state is Open

	hooksMu      sync.RWMutex
	onOpen       []func(first bool)
	onNeedsLogin []func()
}

// NewManager creates a Connection Manager. gate may be nil, in which case the
// context is always considered active.
func NewManager(cfg ManagerConfig, tokens TokenSource, gate ContextGate, sink FrameSink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if gate == nil {
		gate = GateFunc(func() bool { return true })
	}
	if cfg.MaxMissingCredential < 1 {
		cfg.MaxMissingCredential = 1
	}

	return &Manager{
		cfg:       cfg,
		logger:    logger,
		tokens:    tokens,
		gate:      gate,
		sink:      sink,
		newClient: NewClient,
		backoff:   NewBackoff(cfg.ReconnectDelays),
		firstOpen: true,
		openCh:    make(chan struct{}),
		ctx:       context.Background(),
	}
}

// OnOpen registers fn to run after each successful open. first is true only
// for the first open in the manager's lifetime.
func (m *Manager) OnOpen(fn func(first bool)) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.onOpen = append(m.onOpen, fn)
}

// OnNeedsLogin registers fn to run when the manager gives up because no
// credential is stored.
func (m *Manager) OnNeedsLogin(fn func()) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.onNeedsLogin = append(m.onNeedsLogin, fn)
}

// Start binds the manager to ctx and begins connecting.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.logger.Info("connection manager started", "url", m.cfg.Client.URL)
	m.Open()
	return nil
}

// Stop closes the connection cleanly and waits for background work.
func (m *Manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping connection manager")
	m.Close()

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("connection manager stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("connection manager stop timed out")
		return ctx.Err()
	}
}

// Open is the explicit (re)open request. It clears a previous clean close or
// give-up. A request while an attempt is in flight or the connection is open
// is a no-op.
func (m *Manager) Open() {
	m.mu.Lock()
	m.closed = false
	m.needsLogin = false
	m.mu.Unlock()

	m.open()
}

// Close closes the connection with CloseIntentional, cancels any pending
// retry, and resets the counters. No reconnect follows until Open.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopTimerLocked()
	m.backoff.Reset()
	m.missingCred = 0
	client := m.client
	m.client = nil
	m.setStateLocked(StateClosed)
	m.mu.Unlock()

	if client != nil {
		if err := client.Close(CloseIntentional, "client closed"); err != nil {
			m.logger.Debug("close error", "error", err)
		}
		m.logger.Info("connection closed cleanly")
	}
}

// Reauthenticate re-sends the authenticate frame on the open connection
// without reconnecting. The credential is read fresh from the token source.
func (m *Manager) Reauthenticate() error {
	m.mu.Lock()
	client := m.client
	if client == nil || m.state != StateOpen {
		m.mu.Unlock()
		return ErrNotConnected
	}
	m.setStateLocked(StateReauthenticating)
	ctx := m.ctx
	m.mu.Unlock()

	err := m.authenticate(ctx, client)

	m.mu.Lock()
	if m.client == client && m.state == StateReauthenticating {
		m.setStateLocked(StateOpen)
	}
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("reauthenticate: %w", err)
	}
	m.logger.Debug("reauthenticated")
	return nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// NeedsLogin reports whether the manager gave up for lack of a credential.
func (m *Manager) NeedsLogin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.needsLogin
}

// Attempts returns the number of consecutive failed attempts.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backoff.Attempts()
}

// WaitOpen blocks until the connection is open or ctx is done.
func (m *Manager) WaitOpen(ctx context.Context) error {
	for {
		m.mu.Lock()
		if m.state == StateOpen || m.state == StateReauthenticating {
			m.mu.Unlock()
			return nil
		}
		ch := m.openCh
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// open runs one step of the connect procedure. It is the target of both the
// retry timer and the context gate poll.
func (m *Manager) open() {
	m.mu.Lock()

	m.stopTimerLocked()

	if m.closed || m.needsLogin || m.ctx.Err() != nil {
		m.mu.Unlock()
		return
	}
	if m.connecting || m.client != nil {
		m.mu.Unlock()
		return
	}

	if !m.gate.Active() {
		// not a failure: poll until the authenticated area is active
		m.scheduleLocked(m.cfg.ContextPollInterval)
		m.mu.Unlock()
		return
	}

	if m.firstOpen && m.backoff.Attempts() == 0 {
		m.logger.Info("first connection attempt")
	} else {
		m.logger.Info("reconnecting", "attempt", m.backoff.Attempts())
	}

	m.connecting = true
	ctx := m.ctx
	m.mu.Unlock()

	_, ok, err := m.tokens.Token(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.ctx.Err() != nil {
		m.connecting = false
		return
	}

	if err != nil {
		m.connecting = false
		m.logger.Warn("failed to read credential", "error", err)
		m.retryLocked()
		return
	}

	if !ok {
		m.connecting = false
		m.missingCred++
		giveUp := m.missingCred >= m.cfg.MaxMissingCredential
		m.logger.Error("no session found",
			"retrying", !giveUp,
			"missing", m.missingCred,
		)
		if giveUp {
			m.missingCred = 0
			m.needsLogin = true
			m.setStateLocked(StateClosed)
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.fireNeedsLogin()
			}()
			return
		}
		m.retryLocked()
		return
	}
	m.missingCred = 0

	m.attemptID = uuid.NewString()
	m.setStateLocked(StateConnecting)

	m.wg.Add(1)
	go m.connect(ctx, m.attemptID)
}

// connect dials, authenticates, and starts the read loop for one attempt.
func (m *Manager) connect(ctx context.Context, attemptID string) {
	defer m.wg.Done()

	logger := m.logger.With("attempt_id", attemptID)
	client := m.newClient(m.cfg.Client, logger)

	err := client.Connect(ctx)
	if err == nil {
		err = m.authenticate(ctx, client)
	}

	m.mu.Lock()
	m.connecting = false

	if m.closed || m.ctx.Err() != nil || m.attemptID != attemptID {
		m.mu.Unlock()
		client.Close(CloseIntentional, "client closed")
		return
	}

	if err != nil {
		logger.Warn("connection attempt failed", "error", err)
		m.setStateLocked(StateClosed)
		m.retryLocked()
		m.mu.Unlock()
		client.Close(websocket.CloseNormalClosure, "")
		return
	}

	m.client = client
	m.backoff.Reset()
	first := m.firstOpen
	m.firstOpen = false
	m.setStateLocked(StateOpen)
	m.mu.Unlock()

	logger.Info("connection opened")

	m.wg.Add(1)
	go m.readLoop(client, attemptID)

	m.fireOpen(first)
}

// authenticate sends the authenticate frame carrying the stored credential.
func (m *Manager) authenticate(ctx context.Context, client Client) error {
	token, ok, err := m.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoCredential
	}

	data, err := json.Marshal(authFrame{Type: "authenticate", Data: token})
	if err != nil {
		return err
	}
	return client.Send(data)
}

// readLoop forwards frames to the sink until the connection ends.
func (m *Manager) readLoop(client Client, attemptID string) {
	defer m.wg.Done()

	for msg := range client.Messages() {
		m.sink.Push(RawMessage{
			Data:       msg.Data,
			ReceivedAt: msg.ReceivedAt,
			AttemptID:  attemptID,
		})
	}

	m.handleDrop(client, client.Err())
}

// handleDrop reacts to the end of an open connection.
func (m *Manager) handleDrop(client Client, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != client {
		// already replaced or closed by us
		return
	}
	m.client = nil
	m.setStateLocked(StateClosed)

	if m.closed || m.ctx.Err() != nil {
		return
	}

	// only a close we initiated is final; the peer sending the same code
	// still leaves us wanting a connection
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code == CloseIntentional {
		m.logger.Info("connection closed by peer", "code", ce.Code)
	} else {
		m.logger.Warn("connection died", "error", err)
	}
	m.retryLocked()
}

// retryLocked schedules the next attempt after the current backoff delay.
func (m *Manager) retryLocked() {
	delay := m.backoff.Next()
	m.logger.Info("scheduling reconnect", "delay", delay, "attempt", m.backoff.Attempts())
	m.scheduleLocked(delay)
}

// scheduleLocked arms the single retry timer, replacing any pending one.
func (m *Manager) scheduleLocked(d time.Duration) {
	m.stopTimerLocked()
	m.retryTimer = time.AfterFunc(d, m.open)
}

func (m *Manager) stopTimerLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	wasOpen := m.state == StateOpen || m.state == StateReauthenticating
	isOpen := s == StateOpen || s == StateReauthenticating

	m.logger.Debug("connection state", "from", m.state, "to", s)
	m.state = s

	switch {
	case isOpen && !wasOpen:
		close(m.openCh)
	case !isOpen && wasOpen:
		m.openCh = make(chan struct{})
	}
}

func (m *Manager) fireOpen(first bool) {
	m.hooksMu.RLock()
	hooks := append([]func(bool){}, m.onOpen...)
	m.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn(first)
	}
}

func (m *Manager) fireNeedsLogin() {
	m.hooksMu.RLock()
	hooks := append([]func(){}, m.onNeedsLogin...)
	m.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}
