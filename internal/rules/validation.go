package rules

import (
	"fmt"
	"strings"
)

// Validation constants.
const (
	maxNameLength    = 100
	maxPatternLength = 200
	maxActions       = 50
	minBrightness    = 0
	maxBrightness    = 100
)

// ValidateRule checks a rule before it is persisted.
// Returns an error describing the first validation failure found.
func ValidateRule(r *Rule) error {
	if r == nil {
		return ErrInvalidRule
	}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidRule, maxNameLength)
	}

	pattern := strings.TrimSpace(r.Conditions.App)
	if pattern == "" {
		return fmt.Errorf("%w: conditions.app pattern is required", ErrInvalidRule)
	}
	if len(pattern) > maxPatternLength {
		return fmt.Errorf("%w: conditions.app exceeds %d characters", ErrInvalidRule, maxPatternLength)
	}
	// '*' is only meaningful at the edges; an interior wildcard would match
	// nothing the user expects.
	if i := strings.Index(pattern, "*"); i > 0 && i < len(pattern)-1 {
		return fmt.Errorf("%w: '*' is only supported at the start or end of the pattern", ErrInvalidRule)
	}

	if len(r.Actions) > maxActions {
		return fmt.Errorf("%w: more than %d actions", ErrInvalidRule, maxActions)
	}
	for i := range r.Actions {
		if err := validateAction(&r.Actions[i]); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

func validateAction(a *Action) error {
	switch a.Type {
	case ActionDevice:
		if strings.TrimSpace(a.Target) == "" {
			return fmt.Errorf("%w: device target is required", ErrInvalidAction)
		}
		if a.On == nil && a.Brightness == nil {
			return fmt.Errorf("%w: device action needs on or brightness", ErrInvalidAction)
		}
		if a.Brightness != nil && (*a.Brightness < minBrightness || *a.Brightness > maxBrightness) {
			return fmt.Errorf("%w: brightness must be %d-%d", ErrInvalidAction, minBrightness, maxBrightness)
		}
	case ActionScene:
		if strings.TrimSpace(a.Target) == "" {
			return fmt.Errorf("%w: scene target is required", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, a.Type)
	}
	return nil
}
