package rules

import (
	"context"
	"fmt"

	"github.com/emberhall/hearth-core/internal/command"
	"github.com/emberhall/hearth-core/internal/registry"
)

// Controller is the interface the engine needs from the command bridge.
type Controller interface {
	// SetState drives a device to the requested state.
	SetState(ctx context.Context, query string, req command.StateRequest) (*registry.Device, error)

	// TriggerScene executes a scene.
	TriggerScene(ctx context.Context, query string) (*registry.Scene, error)
}

// Resolver is the interface the engine needs from the entity registry.
type Resolver interface {
	// ResolveDevice maps a query to a device in the current snapshot.
	ResolveDevice(query string) (*registry.Device, error)
}

// Effect is one instantiated rule action. Activate runs when the rule enters
// the active set; Deactivate runs on the way out when the rule's revert flag
// is set. An Effect instance belongs to a single activation and carries
// whatever it captured during Activate.
type Effect interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
}

// EffectFactory instantiates an Effect for an action. Called once per action
// per activation.
type EffectFactory func(a Action) (Effect, error)

// NewEffectFactory builds the standard factory backed by the command bridge
// and the registry.
func NewEffectFactory(ctrl Controller, res Resolver) EffectFactory {
	return func(a Action) (Effect, error) {
		switch a.Type {
		case ActionDevice:
			return &deviceEffect{ctrl: ctrl, res: res, action: *a.clone()}, nil
		case ActionScene:
			return &sceneEffect{ctrl: ctrl, target: a.Target}, nil
		default:
			return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, a.Type)
		}
	}
}

// deviceEffect drives a device to the action's state and, on deactivate,
// restores the state the device held just before activation. The prior state
// is captured at activation time from the registry snapshot, so the restore
// target reflects what the user actually had, not a guess inverted from the
// action.
type deviceEffect struct {
	ctrl   Controller
	res    Resolver
	action Action

	prior *command.StateRequest // captured by Activate; nil until then
}

func (e *deviceEffect) Activate(ctx context.Context) error {
	if dev, err := e.res.ResolveDevice(e.action.Target); err == nil {
		prior := command.StateRequest{On: dev.IsOn}
		if dev.Brightness != nil {
			v := *dev.Brightness
			prior.Brightness = &v
		}
		e.prior = &prior
	}

	req := command.StateRequest{Brightness: e.action.Brightness}
	if e.action.On != nil {
		req.On = *e.action.On
	} else {
		// Brightness-only action keeps the device on.
		req.On = true
	}
	_, err := e.ctrl.SetState(ctx, e.action.Target, req)
	return err
}

func (e *deviceEffect) Deactivate(ctx context.Context) error {
	if e.prior == nil {
		// Activation never saw the device; nothing to restore.
		return nil
	}
	_, err := e.ctrl.SetState(ctx, e.action.Target, *e.prior)
	return err
}

// sceneEffect triggers a scene on activation. Scenes have no captured prior
// state to restore, so deactivation is a no-op.
type sceneEffect struct {
	ctrl   Controller
	target string
}

func (e *sceneEffect) Activate(ctx context.Context) error {
	_, err := e.ctrl.TriggerScene(ctx, e.target)
	return err
}

func (e *sceneEffect) Deactivate(context.Context) error { return nil }
