package main

import (
	"log/slog"
	"strings"

	"github.com/biasdo/syncclient/internal/view"
)

// selectionNavigator applies engine navigation to the selection, so that a
// deleted server or channel stops being the open one.
type selectionNavigator struct {
	sel    *view.StaticSelection
	logger *slog.Logger
}

func (n *selectionNavigator) Navigate(path string) {
	serverID, channelID, ok := parseAppPath(path)
	if !ok {
		n.logger.Warn("ignoring navigation", "path", path)
		return
	}
	n.sel.Select(serverID, channelID)
	n.logger.Info("navigated", "path", path)
}

// parseAppPath maps an application path to a selection:
//
//	/app                                  -> ("", "")
//	/app/servers/<sid>                    -> (sid, "")
//	/app/servers/<sid>/channels/<cid>     -> (sid, cid)
//	/app/direct-messages/<cid>            -> ("", cid)
func parseAppPath(path string) (serverID, channelID string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] != "app" {
		return "", "", false
	}

	switch rest := parts[1:]; {
	case len(rest) == 0:
		return "", "", true
	case len(rest) == 2 && rest[0] == "servers":
		return rest[1], "", true
	case len(rest) == 4 && rest[0] == "servers" && rest[2] == "channels":
		return rest[1], rest[3], true
	case len(rest) == 2 && rest[0] == "direct-messages":
		return "", rest[1], true
	}
	return "", "", false
}
