package notify

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gen2brain/beeep"
)

// Desktop shows notifications through the OS notification service. The OS
// grants permission implicitly and does not report clicks.
type Desktop struct {
	// IconDir is the local directory holding the icon tree ("user-icons/N.svg").
	// Empty means no icon.
	IconDir string

	notify func(title, body, icon string) error
}

// NewDesktop creates a Desktop backend.
func NewDesktop(iconDir string) *Desktop {
	return &Desktop{
		IconDir: iconDir,
		notify: func(title, body, icon string) error {
			return beeep.Notify(title, body, icon)
		},
	}
}

func (d *Desktop) Permission() Permission        { return PermissionGranted }
func (d *Desktop) RequestPermission() Permission { return PermissionGranted }

func (d *Desktop) Show(n Notification, _ func()) error {
	return d.notify(n.Title, n.Body, d.iconPath(n.Icon))
}

func (d *Desktop) iconPath(icon string) string {
	if d.IconDir == "" || icon == "" {
		return ""
	}
	return filepath.Join(d.IconDir, filepath.FromSlash(strings.TrimPrefix(icon, "/")))
}

// Log writes notifications to a logger. Used when desktop notifications are
// disabled or unavailable.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Permission() Permission        { return PermissionGranted }
func (l Log) RequestPermission() Permission { return PermissionGranted }

func (l Log) Show(n Notification, _ func()) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", "title", n.Title, "body", n.Body, "open", n.ClickPath)
	return nil
}
