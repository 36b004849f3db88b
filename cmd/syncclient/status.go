package main

import (
	"encoding/json"
	"net/http"

	"github.com/biasdo/syncclient/internal/connection"
	"github.com/biasdo/syncclient/internal/engine"
	"github.com/biasdo/syncclient/internal/version"
)

// createStatusHandler creates the HTTP handler for the local status endpoint.
func createStatusHandler(eng *engine.SyncEngine) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		st := eng.Status()

		health := struct {
			Status     string         `json:"status"`
			Version    version.Info   `json:"version"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.Get(),
			Components: make(map[string]any),
		}

		health.Components["connection"] = map[string]any{
			"state":       st.State.String(),
			"attempts":    st.Attempts,
			"needs_login": st.NeedsLogin,
		}
		switch {
		case st.NeedsLogin:
			health.Status = "unhealthy"
		case st.State != connection.StateOpen && st.State != connection.StateReauthenticating:
			health.Status = "degraded"
		}

		health.Components["dispatcher"] = map[string]any{
			"received":     st.Dispatch.Received,
			"applied":      st.Dispatch.Applied,
			"parse_errors": st.Dispatch.ParseErrors,
			"unknown":      st.Dispatch.Unknown,
		}
		health.Components["stores"] = st.Counts

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/view", func(w http.ResponseWriter, r *http.Request) {
		v := eng.Views()
		messages := v.Messages()

		// Limit to the latest 50 for debugging
		limit := 50
		if len(messages) > limit {
			messages = messages[len(messages)-limit:]
		}

		out := map[string]any{
			"server_id":  v.Selection().CurrentServerID(),
			"channel_id": v.Selection().CurrentChannelID(),
			"channels":   len(v.Channels()),
			"members":    len(v.Members()),
			"invites":    len(v.Invites()),
			"messages":   messages,
		}
		if me, ok := v.Me(); ok {
			out["me"] = me
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	return mux
}
