package connection

import (
	"context"
	"errors"
	"time"
)

// CloseIntentional is the close code for a client-initiated close. A
// connection the client closed with it is never reconnected.
const CloseIntentional = 3001

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrNoCredential    = errors.New("no stored credential")
)

// State is the connection state.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateReauthenticating
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReauthenticating:
		return "reauthenticating"
	default:
		return "unknown"
	}
}

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// RawMessage is a frame handed from the Connection Manager to the dispatcher.
type RawMessage struct {
	Data       []byte
	ReceivedAt time.Time
	AttemptID  string // connection attempt the frame arrived on
}

// FrameSink receives frames from the open connection. Push must not block.
type FrameSink interface {
	Push(msg RawMessage) bool
}

// TokenSource supplies the session credential. A missing credential is
// reported as ("", false, nil).
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// ContextGate reports whether the authenticated area of the app is active.
// Connections are only opened while it is.
type ContextGate interface {
	Active() bool
}

// GateFunc adapts a function to ContextGate.
type GateFunc func() bool

func (f GateFunc) Active() bool { return f() }

// authFrame is the client→server authenticate frame.
type authFrame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., wss://api.example.com/v0/ws)
	HandshakeTimeout time.Duration // Dial + upgrade deadline
	PingInterval     time.Duration // How often we ping the server
	PingTimeout      time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       256,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	Client ClientConfig

	// ReconnectDelays is the backoff schedule; the last entry repeats.
	ReconnectDelays []time.Duration

	// ContextPollInterval is how often the context gate is re-checked while
	// the authenticated area is inactive.
	ContextPollInterval time.Duration

	// MaxMissingCredential is the number of consecutive attempts without a
	// stored credential after which the manager gives up.
	MaxMissingCredential int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Client: DefaultClientConfig(),
		ReconnectDelays: []time.Duration{
			2 * time.Second,
			5 * time.Second,
			10 * time.Second,
			30 * time.Second,
			60 * time.Second,
		},
		ContextPollInterval:  500 * time.Millisecond,
		MaxMissingCredential: 2,
	}
}
