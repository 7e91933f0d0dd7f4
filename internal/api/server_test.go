package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/emberhall/hearth-core/internal/command"
	"github.com/emberhall/hearth-core/internal/hardware"
	"github.com/emberhall/hearth-core/internal/infrastructure/config"
	"github.com/emberhall/hearth-core/internal/infrastructure/logging"
	"github.com/emberhall/hearth-core/internal/registry"
	"github.com/emberhall/hearth-core/internal/rules"
)

// stubAdapter is an in-memory hardware adapter whose writes complete
// immediately and mutate the backing records, so registry reloads observe
// the new state.
type stubAdapter struct {
	mu      sync.Mutex
	devices []hardware.DeviceRecord
	scenes  []hardware.SceneRecord
}

func (a *stubAdapter) Devices(ctx context.Context) ([]hardware.DeviceRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]hardware.DeviceRecord, len(a.devices))
	copy(out, a.devices)
	return out, nil
}

func (a *stubAdapter) Scenes(ctx context.Context) ([]hardware.SceneRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]hardware.SceneRecord, len(a.scenes))
	copy(out, a.scenes)
	return out, nil
}

func (a *stubAdapter) WritePower(id string, on bool) <-chan error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.devices {
		if a.devices[i].ID == id {
			a.devices[i].On = on
		}
	}
	return hardware.Completed(nil)
}

func (a *stubAdapter) WriteBrightness(id string, level int) <-chan error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.devices {
		if a.devices[i].ID == id && a.devices[i].Brightness != nil {
			l := level
			a.devices[i].Brightness = &l
		}
	}
	return hardware.Completed(nil)
}

func (a *stubAdapter) ExecuteScene(id string) <-chan error {
	return hardware.Completed(nil)
}

// memRuleRepo is an in-memory rules.Repository.
type memRuleRepo struct {
	mu    sync.Mutex
	rules map[string]*rules.Rule
}

func newMemRuleRepo() *memRuleRepo {
	return &memRuleRepo{rules: make(map[string]*rules.Rule)}
}

func (r *memRuleRepo) GetByID(ctx context.Context, id string) (*rules.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, rules.ErrRuleNotFound
	}
	return rule.Clone(), nil
}

func (r *memRuleRepo) List(ctx context.Context) ([]rules.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]rules.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, *rule.Clone())
	}
	return out, nil
}

func (r *memRuleRepo) Create(ctx context.Context, rule *rules.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.ID] = rule.Clone()
	return nil
}

func (r *memRuleRepo) Update(ctx context.Context, rule *rules.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[rule.ID]; !ok {
		return rules.ErrRuleNotFound
	}
	r.rules[rule.ID] = rule.Clone()
	return nil
}

func (r *memRuleRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return rules.ErrRuleNotFound
	}
	delete(r.rules, id)
	return nil
}

func intPtr(v int) *int { return &v }

func testAdapter() *stubAdapter {
	return &stubAdapter{
		devices: []hardware.DeviceRecord{
			{ID: "d1", Name: "Office Light", Room: "Office", Kind: hardware.KindLight, On: false, Brightness: intPtr(0), Writable: true},
			{ID: "d2", Name: "Living Room Lamp", Room: "Living Room", Kind: hardware.KindLight, On: true, Brightness: intPtr(60), Writable: true},
			{ID: "d3", Name: "Desk Fan", Room: "Office", Kind: hardware.KindFan, On: true, Writable: true},
			{ID: "d4", Name: "Hall Sensor", Room: "Hall", Kind: hardware.KindUnknown, Writable: false},
		},
		scenes: []hardware.SceneRecord{
			{ID: "s1", Name: "Movie Night", Home: "Home", ActionCount: 3},
		},
	}
}

// testServer assembles a Server over the in-memory adapter and rule repo.
func testServer(t *testing.T) (*Server, *stubAdapter) {
	t.Helper()

	adapter := testAdapter()
	reg := registry.New(adapter)
	ctx := context.Background()
	if err := reg.ReloadDevices(ctx); err != nil {
		t.Fatalf("ReloadDevices: %v", err)
	}
	if err := reg.ReloadScenes(ctx); err != nil {
		t.Fatalf("ReloadScenes: %v", err)
	}

	bridge := command.NewBridge(reg, adapter, command.Config{
		Timeout:     time.Second,
		SettleDelay: time.Millisecond,
	}, nil)

	engine := rules.NewEngine(newMemRuleRepo(), rules.NewEffectFactory(bridge, reg), nil, nil)
	if err := engine.Load(ctx); err != nil {
		t.Fatalf("engine.Load: %v", err)
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:   log,
		Registry: reg,
		Bridge:   bridge,
		Rules:    engine,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Initialise hub for tests
	srv.hub = NewHub(srv.wsCfg, log)

	return srv, adapter
}

// doRequest runs a request through the full router and returns the recorder.
func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// =============================================================================
// System Tests
// =============================================================================

func TestHandleHealth(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleDebug(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/debug", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["devices"] != float64(4) {
		t.Errorf("devices = %v, want 4", body["devices"])
	}
	if body["scenes"] != float64(1) {
		t.Errorf("scenes = %v, want 1", body["scenes"])
	}
	if body["requests"] != float64(1) {
		t.Errorf("requests = %v, want 1", body["requests"])
	}
}

// =============================================================================
// Room Tests
// =============================================================================

func TestListRooms(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/rooms", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Rooms []registry.RoomSummary `json:"rooms"`
		Count int                    `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 3 {
		t.Fatalf("count = %d, want 3 (Hall, Living Room, Office)", body.Count)
	}
	if body.Rooms[2].Name != "Office" || body.Rooms[2].DeviceCount != 2 || body.Rooms[2].OnCount != 1 {
		t.Errorf("Office summary = %+v", body.Rooms[2])
	}
}

func TestGetRoom(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/room/office", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Room    string            `json:"room"`
		Devices []registry.Device `json:"devices"`
	}
	decodeBody(t, rec, &body)
	if body.Room != "Office" || len(body.Devices) != 2 {
		t.Errorf("room = %q devices = %d, want Office with 2", body.Room, len(body.Devices))
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/room/attic", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRoomPower(t *testing.T) {
	srv, _ := testServer(t)

	// Office has d1 (off) and d3 (on); turning the room on writes only d1.
	rec := doRequest(t, srv, http.MethodPost, "/room/office/on", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Room    string `json:"room"`
		On      bool   `json:"on"`
		Changed int    `json:"changed"`
	}
	decodeBody(t, rec, &body)
	if body.Changed != 1 || !body.On {
		t.Errorf("body = %+v, want changed 1", body)
	}
}

func TestRoomPower_UnknownRoom(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/room/attic/on", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// =============================================================================
// Scene Tests
// =============================================================================

func TestListScenes(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/scenes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Scenes []registry.Scene `json:"scenes"`
		Count  int              `json:"count"`
	}
	decodeBody(t, rec, &body)
	if body.Count != 1 || body.Scenes[0].Name != "Movie Night" {
		t.Errorf("body = %+v", body)
	}
}

func TestTriggerScene(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/scene/movie_night/trigger", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Triggered bool           `json:"triggered"`
		Scene     registry.Scene `json:"scene"`
	}
	decodeBody(t, rec, &body)
	if !body.Triggered || body.Scene.ID != "s1" {
		t.Errorf("body = %+v", body)
	}
}

func TestTriggerScene_NotFound(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/scene/sunrise/trigger", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
