package handlers

import (
	"fmt"
	"net/http"

	"github.com/medley-audio/medley/internal/httpserver/deps"
	"github.com/medley-audio/medley/internal/relay"
	"github.com/medley-audio/medley/internal/session"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	State  string `json:"state,omitempty"`
	Detail string `json:"detail,omitempty"`
}

type healthResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds float64                    `json:"uptime_seconds"`
	Version       string                     `json:"version,omitempty"`
	Commit        string                     `json:"commit,omitempty"`
	BuildDate     string                     `json:"build_date,omitempty"`
	GoVersion     string                     `json:"go_version,omitempty"`
	Sessions      int                        `json:"sessions"`
	SessionInfo   []session.Info             `json:"session_info,omitempty"`
	Components    map[string]componentStatus `json:"components"`
}

// Health reports process status plus a per-component breakdown: live
// sessions, the stream URL cache and the backing-node control link.
// Exempt from the access key so load balancers can probe it.
func Health(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		now := d.Now()

		components := map[string]componentStatus{
			"sessions": {
				OK:     true,
				Detail: fmt.Sprintf("%d active", d.Registry.Count()),
			},
			"stream_cache": {
				OK:     true,
				Detail: fmt.Sprintf("%d cached urls", d.Stream.Cache().Len()),
			},
			"relay": relayComponent(d.Coordinator),
		}

		status := "ok"
		if !components["relay"].OK {
			status = "degraded"
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthResponse{
			Status:        status,
			UptimeSeconds: now.Sub(start).Seconds(),
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			Sessions:      d.Registry.Count(),
			SessionInfo:   d.Registry.Snapshot(now),
			Components:    components,
		})
	}
}

func relayComponent(c *relay.Coordinator) componentStatus {
	if c == nil {
		return componentStatus{OK: false, State: "disabled"}
	}
	st := c.Status()
	return componentStatus{
		OK:     st.State == relay.StateConnected,
		State:  string(st.State),
		Detail: st.Node,
	}
}
