package api

import "net/http"

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleDebug returns introspection counters for local troubleshooting.
func (s *Server) handleDebug(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{
		"requests":   s.requests.Load(),
		"devices":    s.registry.DeviceCount(),
		"scenes":     s.registry.SceneCount(),
		"ws_clients": 0,
		"version":    s.version,
	}
	if s.hub != nil {
		payload["ws_clients"] = s.hub.ClientCount()
	}
	if s.rules != nil {
		payload["active_rules"] = s.rules.ActiveIDs()
	}
	writeJSON(w, http.StatusOK, payload)
}
