package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/emberhall/hearth-core/internal/command"
	"github.com/emberhall/hearth-core/internal/registry"
)

// setStateRequest is the body for POST /device/{query}/set.
type setStateRequest struct {
	On         *bool `json:"on"`
	Brightness *int  `json:"brightness"`
}

// handleListDevices returns all devices in the registry snapshot.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.registry.Devices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice resolves a device by id, name, or fuzzy query.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	dev, err := s.registry.ResolveDevice(query)
	if err != nil {
		s.writeDeviceNotFound(w, query)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleDeviceSchema describes the settable properties of a device.
func (s *Server) handleDeviceSchema(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	dev, err := s.registry.ResolveDevice(query)
	if err != nil {
		s.writeDeviceNotFound(w, query)
		return
	}

	writeJSON(w, http.StatusOK, deviceSchema(dev))
}

// deviceSchema builds the settable-properties description for a device.
// Brightness appears only when the adapter reported a brightness channel.
func deviceSchema(dev *registry.Device) map[string]any {
	properties := map[string]any{
		"on": map[string]any{"type": "boolean", "writable": dev.Writable},
	}
	example := map[string]any{"on": true}

	if dev.Brightness != nil {
		properties["brightness"] = map[string]any{
			"type":     "integer",
			"min":      0,
			"max":      100,
			"writable": dev.Writable,
		}
		example["brightness"] = 60
	}

	return map[string]any{
		"id":         dev.ID,
		"type":       dev.Type,
		"properties": properties,
		"example":    example,
	}
}

// handleToggleDevice flips a device's power state.
func (s *Server) handleToggleDevice(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	dev, err := s.bridge.Toggle(r.Context(), query)
	if err != nil {
		s.writeCommandError(w, query, err)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleDevicePower returns a handler writing a fixed power state.
func (s *Server) handleDevicePower(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := chi.URLParam(r, "query")

		dev, err := s.bridge.SetState(r.Context(), query, command.StateRequest{On: on})
		if err != nil {
			s.writeCommandError(w, query, err)
			return
		}

		writeJSON(w, http.StatusOK, dev)
	}
}

// handleSetDevice applies an explicit state from the request body.
func (s *Server) handleSetDevice(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	req, ok := decodeSetState(w, r)
	if !ok {
		return
	}

	dev, err := s.bridge.SetState(r.Context(), query, req)
	if err != nil {
		s.writeCommandError(w, query, err)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// decodeSetState parses and validates a set-state body. A brightness-only
// body implies power on; the hardware cannot dim an off device.
func decodeSetState(w http.ResponseWriter, r *http.Request) (command.StateRequest, bool) {
	var body setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return command.StateRequest{}, false
	}

	if body.On == nil && body.Brightness == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "body must set on, brightness, or both")
		return command.StateRequest{}, false
	}
	if body.Brightness != nil && (*body.Brightness < 0 || *body.Brightness > 100) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "brightness must be between 0 and 100")
		return command.StateRequest{}, false
	}

	req := command.StateRequest{Brightness: body.Brightness}
	switch {
	case body.On != nil:
		req.On = *body.On
	default:
		req.On = true
	}
	return req, true
}

// resolveInRoom resolves a device query and verifies it belongs to the room.
// Returns false after writing the error response when either check fails.
func (s *Server) resolveInRoom(w http.ResponseWriter, room, query string) (*registry.Device, bool) {
	dev, err := s.registry.ResolveDevice(query)
	if err != nil {
		s.writeDeviceNotFound(w, query)
		return nil, false
	}

	want := strings.ToLower(registry.Normalize(room))
	if strings.ToLower(dev.Room) != want {
		writeNotFound(w, "device "+dev.Name+" is not in room "+room)
		return nil, false
	}
	return dev, true
}

// handleGetRoomDevice returns a device scoped to a room.
func (s *Server) handleGetRoomDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.resolveInRoom(w, chi.URLParam(r, "room"), chi.URLParam(r, "query"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleToggleRoomDevice toggles a device scoped to a room.
func (s *Server) handleToggleRoomDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.resolveInRoom(w, chi.URLParam(r, "room"), chi.URLParam(r, "query"))
	if !ok {
		return
	}

	updated, err := s.bridge.Toggle(r.Context(), dev.ID)
	if err != nil {
		s.writeCommandError(w, dev.ID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleRoomDevicePower writes a fixed power state to a room-scoped device.
func (s *Server) handleRoomDevicePower(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dev, ok := s.resolveInRoom(w, chi.URLParam(r, "room"), chi.URLParam(r, "query"))
		if !ok {
			return
		}

		updated, err := s.bridge.SetState(r.Context(), dev.ID, command.StateRequest{On: on})
		if err != nil {
			s.writeCommandError(w, dev.ID, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// handleSetRoomDevice applies an explicit state to a room-scoped device.
func (s *Server) handleSetRoomDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.resolveInRoom(w, chi.URLParam(r, "room"), chi.URLParam(r, "query"))
	if !ok {
		return
	}

	req, ok := decodeSetState(w, r)
	if !ok {
		return
	}

	updated, err := s.bridge.SetState(r.Context(), dev.ID, req)
	if err != nil {
		s.writeCommandError(w, dev.ID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
