// Package store holds the local replica: one ordered collection per entity
// kind plus the resolved local identity.
package store

import (
	"log/slog"

	"github.com/biasdo/syncclient/internal/collection"
	"github.com/biasdo/syncclient/internal/model"
)

// Config holds store configuration.
type Config struct {
	// StrictMerge panics on patches that cannot be materialized instead of
	// logging and dropping them.
	StrictMerge bool
}

// Stores is the set of collections owned by the sync engine. Consumers read
// through the collection accessors; only the engine mutates.
type Stores struct {
	Servers        *collection.Collection[model.Server]
	Channels       *collection.Collection[model.Channel]
	Members        *collection.Collection[model.Member]
	Messages       *collection.Collection[model.Message]
	Invites        *collection.Collection[model.Invite]
	Users          *collection.Collection[model.User]
	Friends        *collection.Collection[model.Friend]
	FriendRequests *collection.Collection[model.FriendRequest]

	Identity *Identity

	logger *slog.Logger
}

// New creates an empty set of stores.
func New(cfg Config, logger *slog.Logger) *Stores {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []collection.Option{
		collection.WithLogger(logger),
		collection.WithStrict(cfg.StrictMerge),
	}

	return &Stores{
		Servers:        collection.New[model.Server]("servers", opts...),
		Channels:       collection.New[model.Channel]("channels", opts...),
		Members:        collection.New[model.Member]("members", opts...),
		Messages:       collection.New[model.Message]("messages", opts...),
		Invites:        collection.New[model.Invite]("invites", opts...),
		Users:          collection.New[model.User]("users", opts...),
		Friends:        collection.New[model.Friend]("friends", opts...),
		FriendRequests: collection.New[model.FriendRequest]("friend_requests", opts...),
		Identity:       NewIdentity(),
		logger:         logger,
	}
}

// Clear empties every collection and forgets the local identity.
func (s *Stores) Clear() {
	s.Servers.Clear()
	s.Channels.Clear()
	s.Members.Clear()
	s.Messages.Clear()
	s.Invites.Clear()
	s.Users.Clear()
	s.Friends.Clear()
	s.FriendRequests.Clear()
	s.Identity.Clear()

	s.logger.Debug("stores cleared")
}

// Counts returns the number of entities per collection, keyed by name.
func (s *Stores) Counts() map[string]int {
	return map[string]int{
		s.Servers.Name():        s.Servers.Len(),
		s.Channels.Name():       s.Channels.Len(),
		s.Members.Name():        s.Members.Len(),
		s.Messages.Name():       s.Messages.Len(),
		s.Invites.Name():        s.Invites.Len(),
		s.Users.Name():          s.Users.Len(),
		s.Friends.Name():        s.Friends.Len(),
		s.FriendRequests.Name(): s.FriendRequests.Len(),
	}
}
