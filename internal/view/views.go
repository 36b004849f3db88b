// Package view derives read-only projections from the stores and the current
// selection.
package view

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/biasdo/syncclient/internal/model"
	"github.com/biasdo/syncclient/internal/store"
)

// cacheKey identifies the inputs of a projection: the revisions of its
// source collections and the selection it was computed for.
type cacheKey struct {
	rev       uint64
	serverID  string
	channelID string
}

type cached[T any] struct {
	mu    sync.Mutex
	valid bool
	key   cacheKey
	value T
}

func (c *cached[T]) get(key cacheKey, computed *atomic.Int64, compute func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.key == key {
		return c.value
	}
	c.value = compute()
	c.key = key
	c.valid = true
	computed.Add(1)
	return c.value
}

// Views exposes the derived projections. A projection is recomputed only when
// its source collection or the relevant part of the selection changed;
// otherwise the cached slice is returned. Callers must not modify returned
// slices.
type Views struct {
	stores    *store.Stores
	selection Selection

	members  cached[[]model.Member]
	channels cached[[]model.Channel]
	invites  cached[[]model.Invite]
	messages cached[[]model.Message]

	computed atomic.Int64
}

// New creates Views over stores. A nil selection selects nothing.
func New(stores *store.Stores, selection Selection) *Views {
	if selection == nil {
		selection = &StaticSelection{}
	}
	return &Views{stores: stores, selection: selection}
}

// Selection returns the selection the views read.
func (v *Views) Selection() Selection {
	return v.selection
}

// Members returns the members of the current server in key order.
func (v *Views) Members() []model.Member {
	serverID := v.selection.CurrentServerID()
	key := cacheKey{rev: v.stores.Members.Revision(), serverID: serverID}

	return v.members.get(key, &v.computed, func() []model.Member {
		return v.stores.Members.Filter(func(m model.Member) bool {
			return m.ServerID == serverID
		})
	})
}

// Channels returns the channels of the current server, or the direct-message
// channels when no server is open.
func (v *Views) Channels() []model.Channel {
	serverID := v.selection.CurrentServerID()
	key := cacheKey{rev: v.stores.Channels.Revision(), serverID: serverID}

	return v.channels.get(key, &v.computed, func() []model.Channel {
		return v.stores.Channels.Filter(func(c model.Channel) bool {
			return inScope(c, serverID)
		})
	})
}

// Invites returns the invites of the current server, oldest first.
func (v *Views) Invites() []model.Invite {
	serverID := v.selection.CurrentServerID()
	key := cacheKey{rev: v.stores.Invites.Revision(), serverID: serverID}

	return v.invites.get(key, &v.computed, func() []model.Invite {
		invites := v.stores.Invites.Filter(func(i model.Invite) bool {
			return i.Server.ID == serverID
		})
		sort.SliceStable(invites, func(a, b int) bool {
			return invites[a].CreatedAt.Before(invites[b].CreatedAt)
		})
		return invites
	})
}

// Messages returns the messages of the current channel in id order.
func (v *Views) Messages() []model.Message {
	channelID := v.selection.CurrentChannelID()
	key := cacheKey{rev: v.stores.Messages.Revision(), channelID: channelID}

	return v.messages.get(key, &v.computed, func() []model.Message {
		return v.stores.Messages.Filter(func(m model.Message) bool {
			return m.ChannelID == channelID
		})
	})
}

// CurrentServer returns the open server.
func (v *Views) CurrentServer() (model.Server, bool) {
	id := v.selection.CurrentServerID()
	if id == "" {
		return model.Server{}, false
	}
	return v.stores.Servers.Get(id)
}

// CurrentChannel returns the open channel if it belongs to the current scope
// (the open server, or direct messages outside any server).
func (v *Views) CurrentChannel() (model.Channel, bool) {
	id := v.selection.CurrentChannelID()
	if id == "" {
		return model.Channel{}, false
	}
	c, ok := v.stores.Channels.Get(id)
	if !ok || !inScope(c, v.selection.CurrentServerID()) {
		return model.Channel{}, false
	}
	return c, true
}

// Me returns the local user's record.
func (v *Views) Me() (model.User, bool) {
	id, ok := v.stores.Identity.ID()
	if !ok {
		return model.User{}, false
	}
	return v.stores.Users.Get(id)
}

// Computations returns how many projections have been recomputed.
func (v *Views) Computations() int64 {
	return v.computed.Load()
}

func inScope(c model.Channel, serverID string) bool {
	if serverID == "" {
		return c.IsDM()
	}
	return c.ServerID != nil && *c.ServerID == serverID
}
