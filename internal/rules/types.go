package rules

import "time"

// ContextSignal identifies the external context the engine reacts to:
// the frontmost application, delivered as an opaque bundle id plus a
// human-readable display name.
type ContextSignal struct {
	BundleID string `json:"bundleId"`
	AppName  string `json:"appName"`
}

// Conditions gates a rule on the current context signal.
type Conditions struct {
	// App is the application pattern: a trailing '*' makes it a prefix
	// match, a leading '*' a suffix match, anything else an exact match.
	// Compared case-insensitively against both the bundle id and the
	// display name.
	App string `json:"app"`
}

// Action types.
const (
	ActionDevice = "device"
	ActionScene  = "scene"
)

// Action is one persisted effect of a rule. Actions execute in list order
// when the rule activates.
type Action struct {
	// Type selects the effect: ActionDevice or ActionScene.
	Type string `json:"type"`

	// Target is the device or scene query, resolved at execution time.
	Target string `json:"target"`

	// On is the desired power state for device actions.
	On *bool `json:"on,omitempty"`

	// Brightness (0-100) for device actions, applied after power.
	Brightness *int `json:"brightness,omitempty"`
}

// Rule is a context-triggered automation definition.
//
// Rules are owned by the Engine and persisted through its Repository. The
// active set is derived state, recomputed on every context change, and is
// never persisted.
type Rule struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Conditions Conditions `json:"conditions"`

	// Actions may be empty: activation is then purely a state marker until
	// actions are defined.
	Actions []Action `json:"actions"`

	// Revert controls whether deactivation undoes the rule's effects.
	Revert bool `json:"revert"`

	// Enabled rules participate in evaluation; disabled rules never
	// activate, and disabling an active rule deactivates it immediately.
	Enabled bool `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone creates an independent copy of the Rule.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	cpy := *r
	if r.Actions != nil {
		cpy.Actions = make([]Action, len(r.Actions))
		for i, a := range r.Actions {
			cpy.Actions[i] = *a.clone()
		}
	}
	return &cpy
}

func (a *Action) clone() *Action {
	cpy := *a
	if a.On != nil {
		v := *a.On
		cpy.On = &v
	}
	if a.Brightness != nil {
		v := *a.Brightness
		cpy.Brightness = &v
	}
	return &cpy
}
