package dispatch

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/biasdo/syncclient/internal/model"
)

// Config holds configuration for the Dispatcher.
type Config struct {
	QueueSize int // Initial frame queue capacity. Default: 1024
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize: 1024,
	}
}

// Category is the entity kind of a change event, or CategoryAll for
// subscriptions to every event.
type Category string

const (
	CategoryServer        Category = "server"
	CategoryChannel       Category = "channel"
	CategoryMember        Category = "member"
	CategoryMessage       Category = "message"
	CategoryInvite        Category = "invite"
	CategoryUser          Category = "user"
	CategoryFriend        Category = "friend"
	CategoryFriendRequest Category = "friend_request"
	CategoryAll           Category = "all"
)

// Action is the change kind of an event.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is a change event after it has been applied to the stores.
type Event struct {
	Type       string // wire tag, e.g. "message_create"
	Category   Category
	Action     Action
	Data       json.RawMessage
	ReceivedAt time.Time
}

// Stats contains runtime statistics.
type Stats struct {
	Received          int64
	Applied           int64
	ParseErrors       int64
	Unknown           int64
	Reauthentications int64
	Queue             QueueStats
}

// Navigator performs navigation on behalf of the engine.
type Navigator interface {
	Navigate(path string)
}

// Notifier evaluates notification policy for newly created messages.
type Notifier interface {
	MessageCreated(msg model.Message)
}

// Reauthenticator re-sends the authenticate frame on the open connection.
type Reauthenticator interface {
	Reauthenticate() error
}

// splitType splits "friend_request_delete" into its category and action.
func splitType(typ string) (Category, Action, bool) {
	i := strings.LastIndexByte(typ, '_')
	if i <= 0 {
		return "", "", false
	}

	action := Action(typ[i+1:])
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return "", "", false
	}
	return Category(typ[:i]), action, true
}

// Delete payloads carry only identifiers.

type idPayload struct {
	ID string `json:"id"`
}

type memberKeyPayload struct {
	ServerID string `json:"server_id"`
	UserID   string `json:"user_id"`
}

type friendKeyPayload struct {
	UserID   string `json:"user_id"`
	FriendID string `json:"friend_id"`
}

type friendRequestKeyPayload struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}
