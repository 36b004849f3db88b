package model

import (
	"errors"
	"time"
)

// ErrShapeMismatch is returned when a patch cannot be materialized into the
// entity kind it targets, e.g. it lacks its key fields.
var ErrShapeMismatch = errors.New("patch does not match entity shape")

// ChannelKind distinguishes server text channels from direct messages.
type ChannelKind string

const (
	ChannelText ChannelKind = "text"
	ChannelDM   ChannelKind = "DM"
)

// -----------------------------------------------------------------------------
// Entities
// -----------------------------------------------------------------------------

// Server is a guild-like container of channels and members.
type Server struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// Key returns the collection key.
func (s Server) Key() string { return s.ID }

// User is a public user profile.
type User struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name"`
}

// Key returns the collection key.
func (u User) Key() string { return u.ID }

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Username
}

// Channel is a text channel of a server or a direct-message channel.
type Channel struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     ChannelKind `json:"kind"`
	ServerID *string     `json:"server_id"`
	User     *User       `json:"user"`

	// Recipients is derived locally for DM channels: the two participant ids.
	Recipients []string `json:"-"`
}

// Key returns the collection key.
func (c Channel) Key() string { return c.ID }

// IsDM reports whether c is a direct-message channel.
func (c Channel) IsDM() bool { return c.Kind == ChannelDM }

// Member is a user's membership in a server.
type Member struct {
	ServerID  string    `json:"server_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Nickname  *string   `json:"nickname"`
	User      *User     `json:"user"`
}

// Key returns the composite collection key.
func (m Member) Key() string { return MemberID(m.ServerID, m.UserID) }

// Message is a chat message. User and Member are denormalized copies.
type Message struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Content   string     `json:"content"`
	ChannelID string     `json:"channel_id"`
	User      User       `json:"user"`
	Member    *Member    `json:"member"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Key returns the collection key.
func (m Message) Key() string { return m.ID }

// AuthorName picks the name shown for the author: member nickname, then the
// user's display name or username.
func (m Message) AuthorName() string {
	if m.Member != nil && m.Member.Nickname != nil && *m.Member.Nickname != "" {
		return *m.Member.Nickname
	}
	if name := m.User.Name(); name != "" {
		return name
	}
	return "Deleted User"
}

// Invite is a server invite.
type Invite struct {
	ID        string    `json:"id"`
	Server    Server    `json:"server"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Key returns the collection key.
func (i Invite) Key() string { return i.ID }

// Friend is an accepted friendship with its DM channel. ID is the id of the
// other party and is assigned locally.
type Friend struct {
	ID        string    `json:"-"`
	User      User      `json:"user"`
	Friend    User      `json:"friend"`
	CreatedAt time.Time `json:"created_at"`
	Channel   Channel   `json:"channel"`
}

// Key returns the collection key.
func (f Friend) Key() string { return f.ID }

// FriendRequest is a pending friend request. ID is the id of the other party.
type FriendRequest struct {
	ID        string    `json:"-"`
	Sender    User      `json:"sender"`
	Receiver  User      `json:"receiver"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the collection key.
func (r FriendRequest) Key() string { return r.ID }

// Me is the response of the identity endpoint.
type Me struct {
	User
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}
