package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListScenes returns all scenes in the registry snapshot.
func (s *Server) handleListScenes(w http.ResponseWriter, _ *http.Request) {
	scenes := s.registry.Scenes()
	writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes, "count": len(scenes)})
}

// handleTriggerScene resolves and executes a scene. The response reports the
// execution handoff; the registry refresh happens after a settle delay.
func (s *Server) handleTriggerScene(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	scene, err := s.bridge.TriggerScene(r.Context(), query)
	if err != nil {
		s.writeCommandError(w, query, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"triggered": true,
		"scene":     scene,
	})
}
