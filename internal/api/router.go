package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.countingMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/debug", s.handleDebug)

	// Device endpoints. {query} accepts an id, an exact name, or a fuzzy
	// name with underscores standing in for spaces.
	r.Get("/devices", s.handleListDevices)
	r.Route("/device/{query}", func(r chi.Router) {
		r.Get("/", s.handleGetDevice)
		r.Get("/schema", s.handleDeviceSchema)
		r.Post("/toggle", s.handleToggleDevice)
		r.Post("/on", s.handleDevicePower(true))
		r.Post("/off", s.handleDevicePower(false))
		r.Post("/set", s.handleSetDevice)
	})

	// Room endpoints
	r.Get("/rooms", s.handleListRooms)
	r.Route("/room/{room}", func(r chi.Router) {
		r.Get("/", s.handleGetRoom)
		r.Post("/on", s.handleRoomPower(true))
		r.Post("/off", s.handleRoomPower(false))

		// Room-scoped device control: the device must resolve AND belong
		// to the named room.
		r.Route("/device/{query}", func(r chi.Router) {
			r.Get("/", s.handleGetRoomDevice)
			r.Post("/toggle", s.handleToggleRoomDevice)
			r.Post("/on", s.handleRoomDevicePower(true))
			r.Post("/off", s.handleRoomDevicePower(false))
			r.Post("/set", s.handleSetRoomDevice)
		})
	})

	// Scene endpoints
	r.Get("/scenes", s.handleListScenes)
	r.Post("/scene/{query}/trigger", s.handleTriggerScene)

	// Rule endpoints
	r.Route("/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetRule)
			r.Put("/", s.handleUpdateRule)
			r.Delete("/", s.handleDeleteRule)
		})
	})

	// Context signal ingestion (fire-and-forget)
	r.Post("/context", s.handleContextChange)

	// WebSocket event stream
	r.Get(s.wsPath(), s.handleWebSocket)

	return r
}

// wsPath returns the configured WebSocket path, defaulting to /ws.
func (s *Server) wsPath() string {
	if s.wsCfg.Path != "" {
		return s.wsCfg.Path
	}
	return "/ws"
}
