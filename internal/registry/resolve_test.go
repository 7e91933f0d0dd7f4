package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/emberhall/hearth-core/internal/hardware"
)

func TestResolveDevice_Stages(t *testing.T) {
	reg, _ := loadedRegistry(t)

	tests := []struct {
		name    string
		query   string
		wantID  string
		wantErr bool
	}{
		{name: "exact id", query: "d1", wantID: "d1"},
		{name: "exact name", query: "Office Light", wantID: "d1"},
		{name: "exact name case-insensitive", query: "office light", wantID: "d1"},
		{name: "underscore normalisation", query: "office_light", wantID: "d1"},
		{name: "substring", query: "lamp", wantID: "d2"},
		{name: "token fuzzy", query: "liv lamp", wantID: "d2"},
		{name: "token fuzzy reversed", query: "lamp liv", wantID: "d2"},
		{name: "no match", query: "xyz", wantErr: true},
		{name: "empty query", query: "", wantErr: true},
		{name: "partial token no match", query: "liv xyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := reg.ResolveDevice(tt.query)
			if tt.wantErr {
				if !errors.Is(err, ErrDeviceNotFound) {
					t.Fatalf("ResolveDevice(%q) err = %v, want ErrDeviceNotFound", tt.query, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveDevice(%q): %v", tt.query, err)
			}
			if dev.ID != tt.wantID {
				t.Errorf("ResolveDevice(%q) = %s, want %s", tt.query, dev.ID, tt.wantID)
			}
		})
	}
}

func TestResolveDevice_UnderscoreSpaceEquivalence(t *testing.T) {
	reg, _ := loadedRegistry(t)

	a, err := reg.ResolveDevice("office_light")
	if err != nil {
		t.Fatalf("ResolveDevice(office_light): %v", err)
	}
	b, err := reg.ResolveDevice("Office Light")
	if err != nil {
		t.Fatalf("ResolveDevice(Office Light): %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("underscore and space queries resolved differently: %+v vs %+v", a, b)
	}
}

func TestResolveDevice_TraversalOrder(t *testing.T) {
	// Two devices both contain "light"; the substring stage must return the
	// first in registry sort order, deterministically.
	adapter := &fakeAdapter{devices: []hardware.DeviceRecord{
		{ID: "z1", Name: "Porch Light", Kind: hardware.KindLight, Writable: true},
		{ID: "a1", Name: "Bedroom Light", Kind: hardware.KindLight, Writable: true},
	}}
	reg := New(adapter)
	if err := reg.ReloadDevices(context.Background()); err != nil {
		t.Fatalf("ReloadDevices: %v", err)
	}

	dev, err := reg.ResolveDevice("light")
	if err != nil {
		t.Fatalf("ResolveDevice: %v", err)
	}
	if dev.Name != "Bedroom Light" {
		t.Errorf("ResolveDevice(light) = %q, want first in sort order %q", dev.Name, "Bedroom Light")
	}
}

func TestSuggestions(t *testing.T) {
	reg, _ := loadedRegistry(t)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "offv", want: []string{"Office Light"}},
		{query: "desk something", want: []string{"Desk Fan"}},
		{query: "of", want: nil},   // shorter than three characters
		{query: "zzz", want: nil},  // no matches
	}

	for _, tt := range tests {
		got := reg.Suggestions(tt.query)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Suggestions(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSuggestions_Capped(t *testing.T) {
	adapter := &fakeAdapter{devices: []hardware.DeviceRecord{
		{ID: "l1", Name: "Light One", Kind: hardware.KindLight},
		{ID: "l2", Name: "Light Two", Kind: hardware.KindLight},
		{ID: "l3", Name: "Light Three", Kind: hardware.KindLight},
		{ID: "l4", Name: "Light Four", Kind: hardware.KindLight},
	}}
	reg := New(adapter)
	if err := reg.ReloadDevices(context.Background()); err != nil {
		t.Fatalf("ReloadDevices: %v", err)
	}

	if got := reg.Suggestions("ligzzz"); len(got) != 3 {
		t.Errorf("Suggestions returned %d names, want 3", len(got))
	}
}

func TestSuggestions_MultibyteQuery(t *testing.T) {
	adapter := &fakeAdapter{devices: []hardware.DeviceRecord{
		{ID: "t1", Name: "Θερμοστάτης Σαλονιού", Kind: hardware.KindThermostat},
	}}
	reg := New(adapter)
	if err := reg.ReloadDevices(context.Background()); err != nil {
		t.Fatalf("ReloadDevices: %v", err)
	}

	// The prefix is the first three runes, not the first three bytes;
	// byte slicing would split the second rune and match nothing.
	got := reg.Suggestions("θερμοστ")
	if !reflect.DeepEqual(got, []string{"Θερμοστάτης Σαλονιού"}) {
		t.Errorf("Suggestions(θερμοστ) = %v, want the thermostat", got)
	}
}

func sceneRecords() []hardware.SceneRecord {
	return []hardware.SceneRecord{
		{ID: "s1", Name: "Movie Night", Home: "Home", ActionCount: 4},
		{ID: "s2", Name: "Good Morning", Home: "Home", ActionCount: 2},
		{ID: "s3", Name: "Focus", Home: "Office", ActionCount: 1},
	}
}

func TestResolveScene(t *testing.T) {
	adapter := &fakeAdapter{scenes: sceneRecords()}
	reg := New(adapter)
	if err := reg.ReloadScenes(context.Background()); err != nil {
		t.Fatalf("ReloadScenes: %v", err)
	}

	tests := []struct {
		name    string
		query   string
		wantID  string
		wantErr bool
	}{
		{name: "by id", query: "s1", wantID: "s1"},
		{name: "exact name", query: "movie night", wantID: "s1"},
		{name: "underscore name", query: "movie_night", wantID: "s1"},
		{name: "substring", query: "morning", wantID: "s2"},
		{name: "no match", query: "party", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, err := reg.ResolveScene(tt.query)
			if tt.wantErr {
				if !errors.Is(err, ErrSceneNotFound) {
					t.Fatalf("err = %v, want ErrSceneNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveScene(%q): %v", tt.query, err)
			}
			if scene.ID != tt.wantID {
				t.Errorf("ResolveScene(%q) = %s, want %s", tt.query, scene.ID, tt.wantID)
			}
		})
	}
}

func TestResolveScene_SubstringTieBreak(t *testing.T) {
	// "night" matches both names; the shorter key must win deterministically.
	adapter := &fakeAdapter{scenes: []hardware.SceneRecord{
		{ID: "long", Name: "Late Night Movie", Home: "Home"},
		{ID: "short", Name: "Night", Home: "Home"},
	}}
	reg := New(adapter)
	if err := reg.ReloadScenes(context.Background()); err != nil {
		t.Fatalf("ReloadScenes: %v", err)
	}

	for i := 0; i < 10; i++ {
		scene, err := reg.ResolveScene("nigh")
		if err != nil {
			t.Fatalf("ResolveScene: %v", err)
		}
		if scene.ID != "short" {
			t.Fatalf("tie-break chose %q, want shortest name", scene.ID)
		}
	}
}

func TestReloadScenes_DuplicateNameLastWins(t *testing.T) {
	adapter := &fakeAdapter{scenes: []hardware.SceneRecord{
		{ID: "first", Name: "Relax", Home: "Home"},
		{ID: "second", Name: "Relax", Home: "Cottage"},
	}}
	reg := New(adapter)
	if err := reg.ReloadScenes(context.Background()); err != nil {
		t.Fatalf("ReloadScenes: %v", err)
	}

	scene, err := reg.ResolveScene("relax")
	if err != nil {
		t.Fatalf("ResolveScene: %v", err)
	}
	if scene.ID != "second" {
		t.Errorf("name index kept %q, want last-loaded scene", scene.ID)
	}

	// Both remain reachable by id.
	if s, err := reg.ResolveScene("first"); err != nil || s.ID != "first" {
		t.Errorf("id lookup for shadowed scene failed: %v", err)
	}
}
