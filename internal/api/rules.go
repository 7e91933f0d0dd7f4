package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberhall/hearth-core/internal/rules"
)

// ruleRequest is the body for rule create and update operations.
// Revert and Enabled default to true when omitted.
type ruleRequest struct {
	Name    string         `json:"name"`
	App     string         `json:"app"`
	Actions []rules.Action `json:"actions"`
	Revert  *bool          `json:"revert"`
	Enabled *bool          `json:"enabled"`
}

// contextRequest is the body for POST /context.
type contextRequest struct {
	BundleID string `json:"bundle_id"`
	AppName  string `json:"app_name"`
}

// handleListRules returns all rules and the currently active rule ids.
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	if s.rules == nil {
		writeNotFound(w, "rule engine not configured")
		return
	}

	list, active := s.rules.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules":  list,
		"count":  len(list),
		"active": active,
	})
}

// handleGetRule returns a single rule by id.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	if s.rules == nil {
		writeNotFound(w, "rule engine not configured")
		return
	}

	rule, err := s.rules.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeCommandError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// handleCreateRule adds a rule. The new rule is evaluated against the last
// seen context signal immediately, so a matching rule activates on creation.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	if s.rules == nil {
		writeNotFound(w, "rule engine not configured")
		return
	}

	body, ok := decodeRule(w, r)
	if !ok {
		return
	}

	created, err := s.rules.Add(r.Context(), body)
	if err != nil {
		s.writeCommandError(w, "", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateRule replaces a rule's definition.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	if s.rules == nil {
		writeNotFound(w, "rule engine not configured")
		return
	}

	body, ok := decodeRule(w, r)
	if !ok {
		return
	}
	body.ID = chi.URLParam(r, "id")

	if err := s.rules.Update(r.Context(), body); err != nil {
		s.writeCommandError(w, "", err)
		return
	}

	updated, err := s.rules.Get(body.ID)
	if err != nil {
		s.writeCommandError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteRule removes a rule, deactivating it first if active.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if s.rules == nil {
		writeNotFound(w, "rule engine not configured")
		return
	}

	if err := s.rules.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeCommandError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleContextChange ingests a foreground-application signal. The response
// acknowledges receipt only; rule transitions run before it is written, so a
// client polling /rules immediately afterwards sees the new active set.
func (s *Server) handleContextChange(w http.ResponseWriter, r *http.Request) {
	var body contextRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.BundleID == "" && body.AppName == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "bundle_id or app_name is required")
		return
	}

	if s.rules != nil {
		s.rules.EvaluateContextChange(r.Context(), rules.ContextSignal{
			BundleID: body.BundleID,
			AppName:  body.AppName,
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

// decodeRule parses a rule body into the engine's Rule type.
func decodeRule(w http.ResponseWriter, r *http.Request) (*rules.Rule, bool) {
	var body ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return nil, false
	}

	rule := &rules.Rule{
		Name:       body.Name,
		Conditions: rules.Conditions{App: body.App},
		Actions:    body.Actions,
		Revert:     true,
		Enabled:    true,
	}
	if body.Revert != nil {
		rule.Revert = *body.Revert
	}
	if body.Enabled != nil {
		rule.Enabled = *body.Enabled
	}
	return rule, true
}
