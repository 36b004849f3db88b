// Package dispatch decodes change events arriving on the push connection and
// applies them to the stores, strictly in arrival order.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/biasdo/syncclient/internal/connection"
	"github.com/biasdo/syncclient/internal/model"
	"github.com/biasdo/syncclient/internal/store"
	"github.com/biasdo/syncclient/internal/view"
)

var errUnknownType = errors.New("unknown event type")

// Dispatcher applies change events to the stores. Frames are pushed by the
// connection read loop and applied by a single goroutine.
type Dispatcher struct {
	cfg       Config
	logger    *slog.Logger
	stores    *store.Stores
	selection view.Selection
	nav       Navigator
	notifier  Notifier

	reauthMu sync.RWMutex
	reauth   Reauthenticator

	queue *Queue[connection.RawMessage]

	subsMu sync.RWMutex
	subs   map[Category]map[uint64]func(Event)
	nextID uint64

	wg sync.WaitGroup

	received    atomic.Int64
	applied     atomic.Int64
	parseErrors atomic.Int64
	unknown     atomic.Int64
	reauths     atomic.Int64
}

// Deps are the collaborators of a Dispatcher. Navigator and Notifier may be
// nil.
type Deps struct {
	Stores    *store.Stores
	Selection view.Selection
	Navigator Navigator
	Notifier  Notifier
}

// New creates a Dispatcher.
func New(cfg Config, deps Deps, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Selection == nil {
		deps.Selection = &view.StaticSelection{}
	}

	return &Dispatcher{
		cfg:       cfg,
		logger:    logger,
		stores:    deps.Stores,
		selection: deps.Selection,
		nav:       deps.Navigator,
		notifier:  deps.Notifier,
		queue:     NewQueue[connection.RawMessage](cfg.QueueSize),
		subs:      make(map[Category]map[uint64]func(Event)),
	}
}

// SetReauthenticator sets the target of reauthenticate requests. The
// connection manager is built after the dispatcher, so this is wired late.
func (d *Dispatcher) SetReauthenticator(r Reauthenticator) {
	d.reauthMu.Lock()
	defer d.reauthMu.Unlock()
	d.reauth = r
}

// Push enqueues a frame. It never blocks. Returns false after Stop.
func (d *Dispatcher) Push(msg connection.RawMessage) bool {
	return d.queue.Push(msg)
}

// Discard drops every queued frame and returns how many were dropped.
func (d *Dispatcher) Discard() int {
	return len(d.queue.Drain())
}

// Start begins applying queued frames.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.wg.Add(1)
	go d.runLoop()

	d.logger.Info("dispatcher started", "queue_size", d.cfg.QueueSize)
	return nil
}

// Stop closes the queue, lets the run loop apply what was already queued, and
// waits for it to exit.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.logger.Info("stopping dispatcher")
	d.queue.Close()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("dispatcher stop timed out", "pending", d.queue.Len())
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Received:          d.received.Load(),
		Applied:           d.applied.Load(),
		ParseErrors:       d.parseErrors.Load(),
		Unknown:           d.unknown.Load(),
		Reauthentications: d.reauths.Load(),
		Queue:             d.queue.Stats(),
	}
}

// Subscribe registers fn for events of the given category (or CategoryAll).
// Subscribers run on the dispatcher goroutine after the stores have been
// updated and must not block. The returned func removes the subscription.
func (d *Dispatcher) Subscribe(category Category, fn func(Event)) (unsubscribe func()) {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()

	d.nextID++
	id := d.nextID
	if d.subs[category] == nil {
		d.subs[category] = make(map[uint64]func(Event))
	}
	d.subs[category][id] = fn

	return func() {
		d.subsMu.Lock()
		defer d.subsMu.Unlock()
		delete(d.subs[category], id)
	}
}

func (d *Dispatcher) runLoop() {
	defer d.wg.Done()

	for {
		msg, ok := d.queue.Pop()
		if !ok {
			return
		}
		d.Dispatch(msg)
	}
}

// Dispatch decodes and applies a single frame. It is called by the run loop;
// calling it directly bypasses the queue and is meant for tests.
func (d *Dispatcher) Dispatch(msg connection.RawMessage) {
	d.received.Add(1)

	// extract the tag without decoding the payload
	typ := gjson.GetBytes(msg.Data, "type")
	if typ.Type != gjson.String {
		d.parseErrors.Add(1)
		d.logger.Warn("dropping frame without type", "len", len(msg.Data))
		return
	}

	if typ.Str == "reauthenticate" {
		d.reauthenticate()
		return
	}

	category, action, ok := splitType(typ.Str)
	if !ok {
		d.unknown.Add(1)
		d.logger.Debug("skipping event type", "type", typ.Str)
		return
	}

	data := gjson.GetBytes(msg.Data, "data")
	if !data.IsObject() {
		d.parseErrors.Add(1)
		d.logger.Warn("dropping event without object payload", "type", typ.Str)
		return
	}
	payload := []byte(data.Raw)

	if err := d.apply(typ.Str, payload); err != nil {
		if errors.Is(err, errUnknownType) {
			d.unknown.Add(1)
			d.logger.Debug("skipping event type", "type", typ.Str)
			return
		}
		d.parseErrors.Add(1)
		d.logger.Warn("dropping malformed event", "type", typ.Str, "error", err)
		return
	}
	d.applied.Add(1)

	d.publish(Event{
		Type:       typ.Str,
		Category:   category,
		Action:     action,
		Data:       payload,
		ReceivedAt: msg.ReceivedAt,
	})
}

func (d *Dispatcher) reauthenticate() {
	d.reauthMu.RLock()
	r := d.reauth
	d.reauthMu.RUnlock()

	d.reauths.Add(1)
	if r == nil {
		d.logger.Warn("reauthenticate requested but no connection is wired")
		return
	}
	if err := r.Reauthenticate(); err != nil {
		d.logger.Warn("reauthenticate failed", "error", err)
	}
}

func (d *Dispatcher) publish(ev Event) {
	d.subsMu.RLock()
	fns := make([]func(Event), 0, len(d.subs[ev.Category])+len(d.subs[CategoryAll]))
	for _, fn := range d.subs[ev.Category] {
		fns = append(fns, fn)
	}
	for _, fn := range d.subs[CategoryAll] {
		fns = append(fns, fn)
	}
	d.subsMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// apply routes one event to the stores.
func (d *Dispatcher) apply(typ string, data []byte) error {
	s := d.stores

	switch typ {
	case "server_create", "server_update":
		p, err := decode[model.ServerPatch](data)
		if err != nil {
			return err
		}
		s.MergeServer(p, typ == "server_create")

	case "server_delete":
		p, err := decode[idPayload](data)
		if err != nil {
			return err
		}
		if p.ID != "" && p.ID == d.selection.CurrentServerID() {
			d.navigate("/app")
		}
		s.Servers.Remove(p.ID)

	case "channel_create", "channel_update":
		p, err := decode[model.ChannelPatch](data)
		if err != nil {
			return err
		}
		s.MergeChannel(p, typ == "channel_create")

	case "channel_delete":
		p, err := decode[idPayload](data)
		if err != nil {
			return err
		}
		if p.ID != "" && p.ID == d.selection.CurrentChannelID() {
			if sid := d.selection.CurrentServerID(); sid != "" {
				d.navigate("/app/servers/" + sid)
			} else {
				d.navigate("/app")
			}
		}
		s.Channels.Remove(p.ID)

	case "member_create", "member_update":
		p, err := decode[model.MemberPatch](data)
		if err != nil {
			return err
		}
		s.MergeMember(p, typ == "member_create")

	case "member_delete":
		p, err := decode[memberKeyPayload](data)
		if err != nil {
			return err
		}
		s.RemoveMember(p.ServerID, p.UserID)

	case "message_create":
		p, err := decode[model.MessagePatch](data)
		if err != nil {
			return err
		}
		s.MergeMessage(p, true)
		if d.notifier != nil {
			if msg, ok := s.Messages.Get(p.ID); ok {
				d.notifier.MessageCreated(msg)
			}
		}

	case "message_update":
		p, err := decode[model.MessagePatch](data)
		if err != nil {
			return err
		}
		s.MergeMessage(p, false)

	case "message_delete":
		p, err := decode[idPayload](data)
		if err != nil {
			return err
		}
		s.Messages.Remove(p.ID)

	case "invite_create", "invite_update":
		p, err := decode[model.InvitePatch](data)
		if err != nil {
			return err
		}
		create := typ == "invite_create"
		s.MergeInvite(p, create, create)

	case "invite_delete":
		p, err := decode[idPayload](data)
		if err != nil {
			return err
		}
		s.Invites.Remove(p.ID)

	case "user_create", "user_update":
		p, err := decode[model.UserPatch](data)
		if err != nil {
			return err
		}
		s.MergeUser(p, typ == "user_create")

	case "user_delete":
		p, err := decode[idPayload](data)
		if err != nil {
			return err
		}
		s.Users.Remove(p.ID)

	case "friend_create", "friend_update":
		p, err := decode[model.FriendPatch](data)
		if err != nil {
			return err
		}
		s.MergeFriend(p, typ == "friend_create")

	case "friend_delete":
		p, err := decode[friendKeyPayload](data)
		if err != nil {
			return err
		}
		s.RemoveFriend(p.UserID, p.FriendID)

	case "friend_request_create", "friend_request_update":
		p, err := decode[model.FriendRequestPatch](data)
		if err != nil {
			return err
		}
		s.MergeFriendRequest(p, typ == "friend_request_create")

	case "friend_request_delete":
		p, err := decode[friendRequestKeyPayload](data)
		if err != nil {
			return err
		}
		s.RemoveFriendRequest(p.SenderID, p.ReceiverID)

	default:
		return errUnknownType
	}

	return nil
}

func (d *Dispatcher) navigate(path string) {
	if d.nav == nil {
		d.logger.Debug("no navigator, ignoring navigation", "path", path)
		return
	}
	d.nav.Navigate(path)
}

func decode[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}
