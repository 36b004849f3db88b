// Package notify decides whether a newly created message deserves a
// notification and emits it through a Backend.
package notify

import (
	"log/slog"

	"github.com/biasdo/syncclient/internal/model"
	"github.com/biasdo/syncclient/internal/store"
	"github.com/biasdo/syncclient/internal/view"
)

// Permission mirrors the notification permission model of the host.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notification is a rendered notification.
type Notification struct {
	Title string
	Body  string
	Icon  string // icon path, e.g. "/user-icons/2.svg"

	// ClickPath is where a click navigates; empty when the channel is not
	// known locally.
	ClickPath string
}

// Backend displays notifications.
type Backend interface {
	Permission() Permission
	RequestPermission() Permission
	// Show displays n. onClick runs if the user activates it; backends
	// that cannot report clicks never call it.
	Show(n Notification, onClick func()) error
}

// Visibility reports whether the viewing surface is in the foreground.
type Visibility interface {
	Visible() bool
}

// VisibilityFunc adapts a function to Visibility.
type VisibilityFunc func() bool

func (f VisibilityFunc) Visible() bool { return f() }

// Navigator performs navigation requested by a notification click.
type Navigator interface {
	Navigate(path string)
}

// Policy implements the notification rules for new messages.
type Policy struct {
	backend    Backend
	stores     *store.Stores
	selection  view.Selection
	visibility Visibility
	nav        Navigator
	logger     *slog.Logger
}

// NewPolicy creates a Policy. A nil visibility counts as always visible; a nil
// navigator ignores clicks.
func NewPolicy(backend Backend, stores *store.Stores, selection view.Selection, visibility Visibility, nav Navigator, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	if visibility == nil {
		visibility = VisibilityFunc(func() bool { return true })
	}

	return &Policy{
		backend:    backend,
		stores:     stores,
		selection:  selection,
		visibility: visibility,
		nav:        nav,
		logger:     logger,
	}
}

// MessageCreated evaluates the policy for msg and shows a notification if it
// applies.
func (p *Policy) MessageCreated(msg model.Message) {
	n, ok := p.Evaluate(msg)
	if !ok {
		return
	}

	perm := p.backend.Permission()
	if perm == PermissionDefault {
		perm = p.backend.RequestPermission()
	}
	if perm != PermissionGranted {
		p.logger.Debug("notification suppressed", "permission", perm)
		return
	}

	var onClick func()
	if n.ClickPath != "" && p.nav != nil {
		path := n.ClickPath
		onClick = func() { p.nav.Navigate(path) }
	}

	if err := p.backend.Show(n, onClick); err != nil {
		p.logger.Warn("failed to show notification", "error", err)
	}
}

// Evaluate reports whether msg should notify and renders the notification.
// Messages by the local user, and messages in the open channel while the
// surface is visible, are suppressed.
func (p *Policy) Evaluate(msg model.Message) (Notification, bool) {
	if meID, ok := p.stores.Identity.ID(); ok && msg.User.ID == meID {
		return Notification{}, false
	}
	if msg.ChannelID == p.selection.CurrentChannelID() && p.visibility.Visible() {
		return Notification{}, false
	}

	n := Notification{
		Title: msg.AuthorName(),
		Body:  msg.Content,
		Icon:  model.IconURL("user", msg.User.ID),
	}

	if ch, ok := p.stores.Channels.Get(msg.ChannelID); ok {
		if ch.IsDM() {
			n.ClickPath = "/app/direct-messages/" + ch.ID
		} else {
			n.Title += " | #" + ch.Name
			serverID := ""
			if ch.ServerID != nil {
				serverID = *ch.ServerID
			}
			n.ClickPath = "/app/servers/" + serverID + "/channels/" + ch.ID
		}
	}

	return n, true
}
