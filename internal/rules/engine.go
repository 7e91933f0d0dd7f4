package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Hub is the interface for broadcasting rule lifecycle events.
type Hub interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// Event channels published through the Hub.
const (
	ChannelActivated   = "rule.activated"
	ChannelDeactivated = "rule.deactivated"
)

// Engine owns rule definitions and the derived active set, and reacts to
// context-change signals.
//
// Rules are cached in memory and written through to the Repository on every
// mutation. The active set is recomputed per signal and never persisted.
// A rule activates when the signal matches its pattern and it is enabled;
// it deactivates when a later signal stops matching, or when it is disabled
// or deleted while active. Deactivation runs the revert path only when the
// rule's Revert flag is set.
//
// Two locks: mu guards the rule cache and active set with short critical
// sections, so List/Get/ActiveIDs never wait on hardware. evalMu serialises
// every transition-producing operation (signal evaluation and rule CRUD),
// so a rule's activation effects never interleave with its own revert.
//
// All public methods are thread-safe; EvaluateContextChange is expected to
// run from the context-monitor goroutine concurrently with rule CRUD from
// request handlers.
type Engine struct {
	repo    Repository
	effects EffectFactory
	hub     Hub
	logger  Logger

	evalMu sync.Mutex

	mu     sync.Mutex
	rules  map[string]*Rule
	active map[string][]Effect // rule id -> effects instantiated at activation
	last   ContextSignal
}

// NewEngine creates a rule engine.
//
// Parameters:
//   - repo: rule persistence
//   - effects: factory instantiating effects per action (may be nil for a
//     marker-only engine, e.g. in tests)
//   - hub: WebSocket hub for lifecycle events (may be nil)
//   - logger: logger instance (may be nil)
func NewEngine(repo Repository, effects EffectFactory, hub Hub, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		repo:    repo,
		effects: effects,
		hub:     hub,
		logger:  logger,
		rules:   make(map[string]*Rule),
		active:  make(map[string][]Effect),
	}
}

// Load populates the in-memory cache from the repository.
// Call once at startup before serving signals or requests.
func (e *Engine) Load(ctx context.Context) error {
	rules, err := e.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}

	e.mu.Lock()
	e.rules = make(map[string]*Rule, len(rules))
	for i := range rules {
		e.rules[rules[i].ID] = rules[i].Clone()
	}
	e.mu.Unlock()

	e.logger.Info("rules loaded", "count", len(rules))
	return nil
}

// List returns all rules sorted by name, plus the ids of currently active
// rules.
func (e *Engine) List() ([]Rule, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, e.activeIDsLocked()
}

// Get retrieves a rule by id.
// Returns ErrRuleNotFound if the id does not exist.
func (e *Engine) Get(id string) (*Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	return r.Clone(), nil
}

// ActiveIDs returns the ids of currently active rules, sorted.
func (e *Engine) ActiveIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeIDsLocked()
}

func (e *Engine) activeIDsLocked() []string {
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Add validates and persists a new rule. The id is generated; Revert and
// Enabled keep whatever the caller set (the facade applies the defaults of
// true for both). The new rule is evaluated against the last seen signal so
// a rule matching the current foreground app activates immediately.
func (e *Engine) Add(ctx context.Context, r *Rule) (*Rule, error) {
	if err := ValidateRule(r); err != nil {
		return nil, err
	}

	rule := r.Clone()
	rule.ID = uuid.New().String()
	rule.Name = strings.TrimSpace(rule.Name)
	rule.Conditions.App = strings.TrimSpace(rule.Conditions.App)
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	if err := e.repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.rules[rule.ID] = rule.Clone()
	last := e.last
	e.mu.Unlock()

	e.transition(ctx, rule, last)

	e.logger.Info("rule added", "rule_id", rule.ID, "name", rule.Name)
	return rule.Clone(), nil
}

// Update validates and persists changes to an existing rule.
// Disabling a rule that is currently active deactivates it immediately,
// honouring its revert flag; pattern changes are re-evaluated against the
// last seen signal.
func (e *Engine) Update(ctx context.Context, r *Rule) error {
	if err := ValidateRule(r); err != nil {
		return err
	}

	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	e.mu.Lock()
	existing, ok := e.rules[r.ID]
	if !ok {
		e.mu.Unlock()
		return ErrRuleNotFound
	}
	createdAt := existing.CreatedAt
	e.mu.Unlock()

	rule := r.Clone()
	rule.Name = strings.TrimSpace(rule.Name)
	rule.Conditions.App = strings.TrimSpace(rule.Conditions.App)
	rule.CreatedAt = createdAt
	rule.UpdatedAt = time.Now().UTC()

	if err := e.repo.Update(ctx, rule); err != nil {
		return err
	}

	e.mu.Lock()
	e.rules[rule.ID] = rule.Clone()
	last := e.last
	e.mu.Unlock()

	e.transition(ctx, rule, last)

	e.logger.Info("rule updated", "rule_id", rule.ID, "name", rule.Name)
	return nil
}

// Delete removes a rule. If it is active it deactivates first, honouring its
// revert flag.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	e.mu.Lock()
	rule, ok := e.rules[id]
	e.mu.Unlock()
	if !ok {
		return ErrRuleNotFound
	}

	if err := e.repo.Delete(ctx, id); err != nil {
		return err
	}

	e.deactivate(ctx, rule)

	e.mu.Lock()
	delete(e.rules, id)
	e.mu.Unlock()

	e.logger.Info("rule deleted", "rule_id", id)
	return nil
}

// EvaluateContextChange re-evaluates every rule against a new context signal
// and applies activation and deactivation transitions. O(rules) per call.
//
// Safe to invoke from the context-monitor goroutine concurrently with rule
// CRUD and active-set reads from request handlers.
func (e *Engine) EvaluateContextChange(ctx context.Context, signal ContextSignal) {
	e.evalMu.Lock()
	defer e.evalMu.Unlock()

	e.mu.Lock()
	e.last = signal
	rules := make([]*Rule, 0, len(e.rules))
	for _, r := range e.rules {
		rules = append(rules, r.Clone())
	}
	e.mu.Unlock()

	e.logger.Debug("context changed", "bundle_id", signal.BundleID, "app", signal.AppName)

	for _, rule := range rules {
		e.transition(ctx, rule, signal)
	}
}

// transition applies the activation state change for one rule against a
// signal. Caller holds evalMu; effect execution happens outside mu so
// readers never wait on hardware.
func (e *Engine) transition(ctx context.Context, rule *Rule, signal ContextSignal) {
	matches := rule.Enabled && MatchesSignal(rule.Conditions.App, signal)

	e.mu.Lock()
	_, isActive := e.active[rule.ID]
	e.mu.Unlock()

	switch {
	case matches && !isActive:
		e.activate(ctx, rule)
	case !matches && isActive:
		e.deactivate(ctx, rule)
	}
}

// activate instantiates and runs the rule's effects in order, best-effort:
// one failing action is logged and does not block the rest. The rule joins
// the active set once all effects have run. Caller holds evalMu.
func (e *Engine) activate(ctx context.Context, rule *Rule) {
	effects := make([]Effect, 0, len(rule.Actions))
	if e.effects != nil {
		for i, action := range rule.Actions {
			eff, err := e.effects(action)
			if err != nil {
				e.logger.Error("building effect", "rule_id", rule.ID, "action", i, "error", err)
				continue
			}
			if err := eff.Activate(ctx); err != nil {
				e.logger.Warn("rule action failed", "rule_id", rule.ID, "action", i, "error", err)
			}
			// Kept even after a failed Activate: the effect may have
			// captured prior state worth restoring.
			effects = append(effects, eff)
		}
	}

	e.mu.Lock()
	e.active[rule.ID] = effects
	e.mu.Unlock()

	e.logger.Info("rule activated", "rule_id", rule.ID, "name", rule.Name)
	if e.hub != nil {
		e.hub.Broadcast(ChannelActivated, map[string]string{"id": rule.ID, "name": rule.Name})
	}
}

// deactivate removes the rule from the active set, running the revert path
// in reverse activation order when the rule asks for it. A rule that is not
// active is a no-op. Caller holds evalMu.
func (e *Engine) deactivate(ctx context.Context, rule *Rule) {
	e.mu.Lock()
	effects, ok := e.active[rule.ID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.active, rule.ID)
	e.mu.Unlock()

	if rule.Revert {
		for i := len(effects) - 1; i >= 0; i-- {
			if err := effects[i].Deactivate(ctx); err != nil {
				e.logger.Warn("rule revert failed", "rule_id", rule.ID, "action", i, "error", err)
			}
		}
	}

	e.logger.Info("rule deactivated", "rule_id", rule.ID, "name", rule.Name, "reverted", rule.Revert)
	if e.hub != nil {
		e.hub.Broadcast(ChannelDeactivated, map[string]string{"id": rule.ID, "name": rule.Name})
	}
}
