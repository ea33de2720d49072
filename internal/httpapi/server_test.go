package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"offloadd/internal/memtier"
	"offloadd/internal/scheduler"
	"offloadd/internal/transfer"
	"offloadd/pkg/types"
)

type mockService struct {
	components []types.Component
	groups     []types.Group
	status     types.StatusResponse
	ready      bool
	opErr      error
	runErr     error
	lastOp     string
	lastID     string
	lastRun    types.RunRequest
}

func (m *mockService) ListComponents() []types.Component {
	return append([]types.Component(nil), m.components...)
}
func (m *mockService) ListGroups() []types.Group { return m.groups }
func (m *mockService) Status() types.StatusResponse { return m.status }
func (m *mockService) Ready() bool                  { return m.ready }
func (m *mockService) Ensure(ctx context.Context, id string) error {
	m.lastOp, m.lastID = "ensure", id
	return m.opErr
}
func (m *mockService) Release(ctx context.Context, id string) error {
	m.lastOp, m.lastID = "release", id
	return m.opErr
}
func (m *mockService) Run(ctx context.Context, req types.RunRequest) (types.RunResponse, error) {
	m.lastRun = req
	if m.runErr != nil {
		return types.RunResponse{}, m.runErr
	}
	return types.RunResponse{Steps: req.Steps, Checksum: "deadbeef", DecodeRegions: 1}, nil
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func serve(t *testing.T, svc Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body: %v (%q)", err, w.Body.String())
	}
	return e
}

func TestComponentsHandler(t *testing.T) {
	svc := &mockService{
		components: []types.Component{{ID: "text_encoder"}, {ID: "vae"}},
		groups:     []types.Group{{Name: "default", Members: []string{"text_encoder", "transformer"}}},
	}
	w := serve(t, svc, http.MethodGet, "/components", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ComponentsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Components) != 2 {
		t.Fatalf("components len=%d", len(body.Components))
	}
	if len(body.Groups) != 1 || body.Groups[0].Name != "default" || len(body.Groups[0].Members) != 2 {
		t.Fatalf("groups=%+v", body.Groups)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{EvictionsTotal: 3, Tiers: []types.TierStatus{{Name: "accelerator", UsedBytes: 7}}}}
	w := serve(t, svc, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.EvictionsTotal != 3 || body.Tiers[0].UsedBytes != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestPlacementHandlers(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{Components: []types.ComponentStatus{{ID: "vae", Tier: "accelerator"}}}}
	w := serve(t, svc, http.MethodPost, "/components/vae/ensure", "")
	if w.Code != http.StatusOK || svc.lastOp != "ensure" || svc.lastID != "vae" {
		t.Fatalf("ensure: status=%d op=%s id=%s", w.Code, svc.lastOp, svc.lastID)
	}
	var cs types.ComponentStatus
	if err := json.Unmarshal(w.Body.Bytes(), &cs); err != nil || cs.Tier != "accelerator" {
		t.Fatalf("unexpected body %q: %v", w.Body.String(), err)
	}
	w = serve(t, svc, http.MethodPost, "/components/vae/release", "")
	if w.Code != http.StatusOK || svc.lastOp != "release" {
		t.Fatalf("release: status=%d op=%s", w.Code, svc.lastOp)
	}
}

func TestRunHandler(t *testing.T) {
	svc := &mockService{}
	w := serve(t, svc, http.MethodPost, "/run", `{"prompt":"purple sky","steps":4,"seed":9}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp types.RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Checksum != "deadbeef" || resp.Steps != 4 || svc.lastRun.Seed != 9 {
		t.Fatalf("unexpected: %+v / %+v", resp, svc.lastRun)
	}
}

func TestRunHandler_RequestValidation(t *testing.T) {
	svc := &mockService{}
	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"prompt":"x"}`))
	w := httptest.NewRecorder()
	NewMux(svc).ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("missing content-type: status=%d", w.Code)
	}
	if w := serve(t, svc, http.MethodPost, "/run", `{"prompt":`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status=%d", w.Code)
	}
	if w := serve(t, svc, http.MethodPost, "/run", `{"prompt":"   "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank prompt: status=%d", w.Code)
	}

	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	big := `{"prompt":"` + strings.Repeat("a", 64) + `"}`
	if w := serve(t, svc, http.MethodPost, "/run", big); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized body: status=%d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	capErr := &memtier.CapacityError{Component: "transformer", Tier: memtier.Accelerator, Required: 11, Available: 10}
	allocErr := &memtier.CapacityError{
		Component: "transformer", Tier: memtier.Accelerator, Required: 8, Available: 10,
		Cause: &transfer.AllocationError{Component: "transformer", Tier: memtier.Accelerator, Bytes: 8, Cause: transfer.ErrOutOfMemory},
	}
	tcs := []struct {
		name string
		err  error
		want int
	}{
		{"unknown component", scheduler.ErrUnknownComponent("nope"), http.StatusNotFound},
		{"capacity exceeded", capErr, http.StatusInsufficientStorage},
		{"allocation failure", allocErr, http.StatusServiceUnavailable},
		{"closed", scheduler.ErrClosed, http.StatusServiceUnavailable},
		{"http error", mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{opErr: tc.err, runErr: tc.err}
			w := serve(t, svc, http.MethodPost, "/components/transformer/ensure", "")
			if w.Code != tc.want {
				t.Fatalf("ensure: status=%d want %d", w.Code, tc.want)
			}
			if e := decodeError(t, w); e.Code != tc.want || e.Error != tc.err.Error() {
				t.Fatalf("unexpected error body: %+v", e)
			}
			w = serve(t, svc, http.MethodPost, "/run", `{"prompt":"x"}`)
			if w.Code != tc.want {
				t.Fatalf("run: status=%d want %d", w.Code, tc.want)
			}
		})
	}
}

func TestHealthAndReadiness(t *testing.T) {
	if w := serve(t, &mockService{}, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", w.Code)
	}
	if w := serve(t, &mockService{ready: true}, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d", w.Code)
	}
	w := serve(t, &mockService{ready: false}, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "closed") {
		t.Fatalf("readyz not ready: status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestOpenAPIDocument(t *testing.T) {
	w := serve(t, &mockService{}, http.MethodGet, "/openapi.json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("openapi not JSON: %v", err)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("/components/{id}/ensure")) {
		t.Fatalf("openapi missing placement route")
	}
}

func TestCORSPreflight(t *testing.T) {
	SetCORSOptions(true, []string{"https://ui.example"}, []string{"GET", "POST"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/status", nil)
	req.Header.Set("Origin", "https://ui.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ui.example" {
		t.Fatalf("allow-origin=%q", got)
	}
}
