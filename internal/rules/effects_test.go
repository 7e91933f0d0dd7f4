package rules

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/emberhall/hearth-core/internal/command"
	"github.com/emberhall/hearth-core/internal/registry"
)

// stubController records SetState and TriggerScene calls.
type stubController struct {
	mu     sync.Mutex
	states []command.StateRequest
	scenes []string
}

func (c *stubController) SetState(_ context.Context, _ string, req command.StateRequest) (*registry.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, req)
	return nil, nil
}

func (c *stubController) TriggerScene(_ context.Context, query string) (*registry.Scene, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenes = append(c.scenes, query)
	return nil, nil
}

// stubResolver serves one fixed device.
type stubResolver struct {
	device *registry.Device
}

func (r *stubResolver) ResolveDevice(string) (*registry.Device, error) {
	if r.device == nil {
		return nil, registry.ErrDeviceNotFound
	}
	return r.device.Clone(), nil
}

func TestDeviceEffect_RestoresPriorState(t *testing.T) {
	prior := 30
	res := &stubResolver{device: &registry.Device{
		ID: "d1", Name: "Desk Lamp", Type: registry.TypeLight,
		IsOn: false, Brightness: &prior, Writable: true,
	}}
	ctrl := &stubController{}
	factory := NewEffectFactory(ctrl, res)

	eff, err := factory(Action{Type: ActionDevice, Target: "desk lamp", On: boolPtr(true), Brightness: intPtr(100)})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	if err := eff.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := eff.Deactivate(context.Background()); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if len(ctrl.states) != 2 {
		t.Fatalf("SetState calls = %d, want 2", len(ctrl.states))
	}
	applied, restored := ctrl.states[0], ctrl.states[1]
	if !applied.On || applied.Brightness == nil || *applied.Brightness != 100 {
		t.Errorf("activation state = %+v, want on at 100", applied)
	}
	if restored.On || restored.Brightness == nil || *restored.Brightness != 30 {
		t.Errorf("restored state = %+v, want off at 30 (state held before activation)", restored)
	}
}

func TestDeviceEffect_NoCaptureNoRestore(t *testing.T) {
	// Device unknown at activation time.
	ctrl := &stubController{}
	factory := NewEffectFactory(ctrl, &stubResolver{})

	eff, err := factory(Action{Type: ActionDevice, Target: "ghost", On: boolPtr(true)})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	_ = eff.Activate(context.Background())
	if err := eff.Deactivate(context.Background()); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// One attempted activation write, no restore write.
	if len(ctrl.states) != 1 {
		t.Errorf("SetState calls = %d, want 1", len(ctrl.states))
	}
}

func TestDeviceEffect_BrightnessOnlyKeepsDeviceOn(t *testing.T) {
	res := &stubResolver{device: &registry.Device{ID: "d1", Name: "Desk Lamp", IsOn: true, Writable: true}}
	ctrl := &stubController{}
	factory := NewEffectFactory(ctrl, res)

	eff, err := factory(Action{Type: ActionDevice, Target: "desk lamp", Brightness: intPtr(20)})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if err := eff.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	if len(ctrl.states) != 1 || !ctrl.states[0].On {
		t.Errorf("brightness-only action powered the device off: %+v", ctrl.states)
	}
}

func TestSceneEffect_DeactivateIsNoOp(t *testing.T) {
	ctrl := &stubController{}
	factory := NewEffectFactory(ctrl, &stubResolver{})

	eff, err := factory(Action{Type: ActionScene, Target: "movie night"})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	if err := eff.Activate(context.Background()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := eff.Deactivate(context.Background()); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if len(ctrl.scenes) != 1 || ctrl.scenes[0] != "movie night" {
		t.Errorf("scene triggers = %v, want one", ctrl.scenes)
	}
	if len(ctrl.states) != 0 {
		t.Errorf("scene effect drove device state: %v", ctrl.states)
	}
}

func TestEffectFactory_UnknownType(t *testing.T) {
	factory := NewEffectFactory(&stubController{}, &stubResolver{})

	if _, err := factory(Action{Type: "teleport", Target: "x"}); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("err = %v, want ErrInvalidAction", err)
	}
}
