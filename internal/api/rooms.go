package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListRooms returns room summaries derived from the device snapshot.
func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := s.registry.Rooms()
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleGetRoom returns the devices grouped under a room name.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")

	devices := s.registry.DevicesInRoom(room)
	if len(devices) == 0 {
		writeNotFound(w, "no devices in room "+room)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room":    devices[0].Room,
		"devices": devices,
		"count":   len(devices),
	})
}

// handleRoomPower returns a handler applying a power state to every writable
// device in the room. Partial failures surface only through the changed
// count; one stubborn device never fails the whole room.
func (s *Server) handleRoomPower(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chi.URLParam(r, "room")

		changed, err := s.bridge.SetRoom(r.Context(), room, on)
		if err != nil {
			s.writeCommandError(w, room, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"room":    room,
			"on":      on,
			"changed": changed,
		})
	}
}
