package rules

import "errors"

// Domain errors for the rules package.
// Check these with errors.Is().
var (
	// ErrRuleNotFound is returned when a rule id does not exist.
	ErrRuleNotFound = errors.New("rules: not found")

	// ErrInvalidRule is returned when rule validation fails.
	ErrInvalidRule = errors.New("rules: invalid rule")

	// ErrInvalidAction is returned when a rule action is invalid.
	ErrInvalidAction = errors.New("rules: invalid action")
)
