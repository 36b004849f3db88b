// Package bootstrap seeds the stores from the REST API and coordinates the
// snapshot with the live event stream.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/biasdo/syncclient/internal/model"
	"github.com/biasdo/syncclient/internal/store"
)

// ErrIdentityUnresolved is reported for resources whose merge needs the local
// user id when the identity fetch failed and no identity was known.
var ErrIdentityUnresolved = errors.New("local identity unresolved")

// Resource names used in LoadError.
const (
	ResourceMe             = "me"
	ResourceServers        = "servers"
	ResourceMembers        = "members"
	ResourceChannels       = "channels"
	ResourceMessages       = "messages"
	ResourceInvites        = "invites"
	ResourceInvite         = "invite"
	ResourceUsers          = "users"
	ResourceFriendRequests = "friend_requests"
	ResourceFriends        = "friends"
)

// Fetchers are the data sources for one PopulateStores call. Nil fields are
// skipped.
type Fetchers struct {
	Me             func(ctx context.Context) (model.Me, error)
	Servers        func(ctx context.Context) ([]model.Server, error)
	Members        func(ctx context.Context) ([]model.Member, error)
	Channels       func(ctx context.Context) ([]model.Channel, error)
	Messages       func(ctx context.Context) ([]model.Message, error)
	Invites        func(ctx context.Context) ([]model.Invite, error)
	Invite         func(ctx context.Context) (model.Invite, error)
	Users          func(ctx context.Context) ([]model.User, error)
	FriendRequests func(ctx context.Context) ([]model.FriendRequest, error)
	Friends        func(ctx context.Context) ([]model.Friend, error)
}

// LoadError collects per-resource failures. Resources not listed were merged.
type LoadError struct {
	Failures map[string]error
}

func (e *LoadError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Failures[name].Error()
	}
	return "load failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *LoadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		errs = append(errs, err)
	}
	return errs
}

// Failed reports whether resource failed.
func (e *LoadError) Failed(resource string) bool {
	_, ok := e.Failures[resource]
	return ok
}

// ConnectionWaiter blocks until the live connection is open.
type ConnectionWaiter interface {
	WaitOpen(ctx context.Context) error
}

// Reconciler merges fetched snapshots into the stores.
type Reconciler struct {
	stores *store.Stores
	conn   ConnectionWaiter
	logger *slog.Logger
}

// New creates a Reconciler. conn may be nil, in which case merges never wait
// for a connection.
func New(stores *store.Stores, conn ConnectionWaiter, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		stores: stores,
		conn:   conn,
		logger: logger.With("component", "bootstrap"),
	}
}

// loadState tracks one PopulateStores call.
type loadState struct {
	mu       sync.Mutex
	failures map[string]error

	// identityDone closes once the identity fetch has finished. Without a Me
	// fetch it stays open unless immediate, and only Identity.Ready settles
	// the identity.
	identityDone chan struct{}

	// gate closes when merging may start: connection open and identity
	// settled, unless immediate.
	gate    chan struct{}
	gateErr error
}

func (s *loadState) fail(resource string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[resource] = err
}

// PopulateStores fetches every resource in f concurrently and merges each into
// its collection with insert-on-missing.
//
// Unless immediate is set, merging waits for the live connection to be open
// and for the local identity to be resolved, either by the Me fetch, because
// it was already known, or by a concurrent call that carries Me. Results
// fetched before then are held, not dropped. A failure of one resource never
// blocks the others; if the Me fetch fails and no identity is known, resources
// whose merge derives from the local user id (channels, friends, friend
// requests) fail with ErrIdentityUnresolved. An immediate call without Me
// fails them the same way rather than waiting.
//
// The returned error is nil or a *LoadError.
func (r *Reconciler) PopulateStores(ctx context.Context, f Fetchers, immediate bool) error {
	st := &loadState{
		failures:     make(map[string]error),
		identityDone: make(chan struct{}),
		gate:         make(chan struct{}),
	}

	var g errgroup.Group

	if f.Me != nil {
		g.Go(func() error {
			defer close(st.identityDone)

			me, err := f.Me(ctx)
			if err != nil {
				st.fail(ResourceMe, err)
				r.logger.Warn("identity fetch failed", "error", err)
				return nil
			}
			if me.ID == "" {
				st.fail(ResourceMe, fmt.Errorf("identity response without id: %w", model.ErrShapeMismatch))
				return nil
			}
			r.stores.Identity.Set(me.ID)
			r.stores.MergeUser(model.UserPatchOf(me.User), true)
			return nil
		})
	} else if immediate {
		close(st.identityDone)
	}

	g.Go(func() error {
		defer close(st.gate)
		st.gateErr = r.waitGate(ctx, st, immediate)
		return nil
	})

	spawn(ctx, r, &g, st, ResourceServers, f.Servers, false, func(servers []model.Server) {
		for _, s := range servers {
			r.stores.MergeServer(model.ServerPatchOf(s), true)
		}
	})

	spawn(ctx, r, &g, st, ResourceMembers, f.Members, false, func(members []model.Member) {
		for _, m := range members {
			r.stores.MergeMember(model.MemberPatchOf(m), true)
		}
	})

	spawn(ctx, r, &g, st, ResourceChannels, f.Channels, true, func(channels []model.Channel) {
		for _, c := range channels {
			r.stores.MergeChannel(model.ChannelPatchOf(c), true)
		}
	})

	spawn(ctx, r, &g, st, ResourceMessages, f.Messages, false, func(messages []model.Message) {
		for _, m := range messages {
			r.stores.MergeMessage(model.MessagePatchOf(m), true)
		}
	})

	spawn(ctx, r, &g, st, ResourceInvites, f.Invites, false, func(invites []model.Invite) {
		for _, i := range invites {
			r.stores.MergeInvite(model.InvitePatchOf(i), true, true)
		}
	})

	spawn(ctx, r, &g, st, ResourceInvite, f.Invite, false, func(invite model.Invite) {
		// the invite page must not find the server it is inviting to
		r.stores.MergeInvite(model.InvitePatchOf(invite), true, false)
	})

	spawn(ctx, r, &g, st, ResourceUsers, f.Users, false, func(users []model.User) {
		for _, u := range users {
			r.stores.MergeUser(model.UserPatchOf(u), true)
		}
	})

	spawn(ctx, r, &g, st, ResourceFriendRequests, f.FriendRequests, true, func(requests []model.FriendRequest) {
		for _, fr := range requests {
			r.stores.MergeFriendRequest(model.FriendRequestPatchOf(fr), true)
		}
	})

	spawn(ctx, r, &g, st, ResourceFriends, f.Friends, true, func(friends []model.Friend) {
		for _, fr := range friends {
			r.stores.MergeFriend(model.FriendPatchOf(fr), true)
		}
	})

	_ = g.Wait()

	if len(st.failures) == 0 {
		r.logger.Debug("stores populated", "counts", r.stores.Counts())
		return nil
	}
	return &LoadError{Failures: st.failures}
}

// waitGate blocks until merges may start.
func (r *Reconciler) waitGate(ctx context.Context, st *loadState, immediate bool) error {
	if immediate {
		return nil
	}

	if r.conn != nil {
		if err := r.conn.WaitOpen(ctx); err != nil {
			return fmt.Errorf("wait for connection: %w", err)
		}
	}

	// race the Me fetch against an identity that is, or becomes, known
	select {
	case <-st.identityDone:
	case <-r.stores.Identity.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// spawn runs fetch concurrently and merges its result once the gate opens.
// Resources that need the local identity also wait until it is resolved or
// the identity fetch has finished.
func spawn[T any](ctx context.Context, r *Reconciler, g *errgroup.Group, st *loadState, resource string,
	fetch func(context.Context) (T, error), needsIdentity bool, merge func(T)) {
	if fetch == nil {
		return
	}

	g.Go(func() error {
		v, err := fetch(ctx)
		if err != nil {
			r.logger.Warn("fetch failed", "resource", resource, "error", err)
			st.fail(resource, err)
			return nil
		}

		// hold the result until merging is allowed
		select {
		case <-st.gate:
		case <-ctx.Done():
			st.fail(resource, ctx.Err())
			return nil
		}
		if st.gateErr != nil {
			st.fail(resource, st.gateErr)
			return nil
		}

		if needsIdentity {
			select {
			case <-st.identityDone:
			case <-r.stores.Identity.Ready():
			case <-ctx.Done():
				st.fail(resource, ctx.Err())
				return nil
			}
			if _, ok := r.stores.Identity.ID(); !ok {
				st.fail(resource, ErrIdentityUnresolved)
				return nil
			}
		}

		merge(v)
		return nil
	})
}
