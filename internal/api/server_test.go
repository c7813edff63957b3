package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkessler/gridtown/internal/catalog"
	"github.com/mkessler/gridtown/internal/engine"
	"github.com/mkessler/gridtown/internal/grid"
	"github.com/mkessler/gridtown/internal/region"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.LoadDefault()
	if err != nil {
		t.Fatal(err)
	}
	r := region.New(region.Config{
		Name: "Testshire", GridWidth: 3, GridHeight: 3, MaxCities: 4,
		CityWidth: 24, CityHeight: 24, Seed: 1,
	}, cat)
	return &Server{
		Sim:      engine.NewSimulation(r),
		Eng:      engine.NewEngine(),
		AdminKey: "hunter2",
	}
}

func TestAdminOnly_Auth(t *testing.T) {
	s := newTestServer(t)
	called := false
	h := s.adminOnly(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/city", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusUnauthorized || called {
		t.Fatalf("no token: code=%d called=%v", w.Code, called)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/city", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusUnauthorized || called {
		t.Fatalf("bad token: code=%d called=%v", w.Code, called)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/city", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer hunter2")
	w = httptest.NewRecorder()
	h(w, req)
	if !called {
		t.Fatal("valid token did not reach handler")
	}
}

func TestAdminOnly_DisabledWithoutKey(t *testing.T) {
	s := newTestServer(t)
	s.AdminKey = ""
	h := s.adminOnly(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/city", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403 when no admin key is configured", w.Code)
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{region.ErrNotFound, http.StatusNotFound},
		{region.ErrSlotOccupied, http.StatusConflict},
		{region.ErrRegionFull, http.StatusConflict},
		{region.ErrSameCity, http.StatusConflict},
		{region.ErrAlreadyProposed, http.StatusConflict},
		{region.ErrInsufficientFunds, http.StatusPaymentRequired},
		{region.ErrInvalidAmount, http.StatusBadRequest},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		writeError(w, c.err)
		if w.Code != c.want {
			t.Errorf("writeError(%v) = %d, want %d", c.err, w.Code, c.want)
		}
	}
}

func TestHandleCreateCity(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/city",
		strings.NewReader(`{"name": "Alba", "grid_x": 0, "grid_y": 0}`))
	w := httptest.NewRecorder()
	s.handleCreateCity(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		ID     string `json:"id"`
		Active bool   `json:"active"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" || !resp.Active {
		t.Fatalf("resp = %+v, first city should be active", resp)
	}

	// Same slot again conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/city",
		strings.NewReader(`{"name": "Brennan", "grid_x": 0, "grid_y": 0}`))
	w = httptest.NewRecorder()
	s.handleCreateCity(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate slot code = %d, want 409", w.Code)
	}

	// Missing name is rejected before touching the region.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/city",
		strings.NewReader(`{"grid_x": 1, "grid_y": 0}`))
	w = httptest.NewRecorder()
	s.handleCreateCity(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing name code = %d, want 400", w.Code)
	}
}

func TestHandlePlace_InvalidOrientation(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/place",
		strings.NewReader(`{"city_id": "x", "x": 0, "y": 0, "building_id": "house", "orientation": "up"}`))
	w := httptest.NewRecorder()
	s.handlePlace(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
}

func TestDecodeJSON_MethodAndBody(t *testing.T) {
	var v struct{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/place", nil)
	w := httptest.NewRecorder()
	if decodeJSON(w, req, &v) || w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET: code = %d, want 405", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/place", strings.NewReader("{broken"))
	w = httptest.NewRecorder()
	if decodeJSON(w, req, &v) || w.Code != http.StatusBadRequest {
		t.Fatalf("bad body: code = %d, want 400", w.Code)
	}
}

func TestParseHelpers(t *testing.T) {
	if o, ok := parseOrientation(""); !ok || o != grid.North {
		t.Error("empty orientation should default to north")
	}
	if _, ok := parseOrientation("diagonal"); ok {
		t.Error("accepted bad orientation")
	}
	if _, ok := parseZone("military"); ok {
		t.Error("accepted bad zone")
	}
	if res, ok := parseResource("goods"); !ok || res != region.ResourceGoods {
		t.Error("goods should parse")
	}
	if _, ok := parseResource("spice"); ok {
		t.Error("accepted bad resource")
	}
}
