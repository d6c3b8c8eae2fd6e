package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jpalmerr/solarboard/internal/document"
	"github.com/jpalmerr/solarboard/internal/log"
	"github.com/jpalmerr/solarboard/internal/store"
)

const testDocument = `{
  "title": "Home Solar",
  "panels": [
    {
      "id": 1,
      "title": "PV Power",
      "type": "stat",
      "fieldConfig": {"defaults": {"unit": "watt", "min": 0, "max": 5000, "custom": {"neutral": 0}}},
      "options": {"orientation": "vertical"}
    },
    {"id": 7, "title": "Battery", "type": "gauge"}
  ]
}`

// fakeStore implements store.Store with canned results.
type fakeStore struct {
	*store.Broker

	mu        sync.Mutex
	doc       *document.Document
	loadErr   error
	updateErr error
	panicky   bool
	updates   []store.RangeUpdate
}

func (f *fakeStore) Load(context.Context) (*document.Document, error) {
	if f.panicky {
		panic("boom")
	}
	return f.doc, f.loadErr
}

func (f *fakeStore) UpdateRange(_ context.Context, u store.RangeUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	return f.updateErr
}

// chanStore hands out a single channel the test controls.
type chanStore struct {
	*fakeStore
	ch chan store.ChangeEvent
}

func (c *chanStore) Subscribe() <-chan store.ChangeEvent { return c.ch }

func (c *chanStore) Unsubscribe(<-chan store.ChangeEvent) {}

func newFileStore(t *testing.T, content string) (*store.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard-config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return store.NewFileStore(path, store.NewBroker(), log.Discard()), path
}

func newTestServer(st store.Store) *Server {
	return NewServer(st, Config{Logger: log.Discard()})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func TestBatteryScenario(t *testing.T) {
	st, _ := newFileStore(t, `{"panels":[{"id":7,"title":"Battery","type":"gauge"}]}`)
	h := newTestServer(st).Handler()

	rec := do(t, h, http.MethodGet, "/api/solar-data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"7":{
		"title":"Battery","unit":"","thresholds":[],
		"customProperties":{"orientation":"auto"},
		"gaugeConfig":{"showThresholdLabels":false,"showThresholdMarkers":true}
	}}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/update-panel-range", `{"panelId":"7","min":0,"max":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success":true,
		"message":"Panel range updated successfully",
		"updatedConfig":{"min":0,"max":100,"panelId":"7"}
	}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/solar-data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)["7"].(map[string]any)
	assert.Equal(t, float64(0), got["min"])
	assert.Equal(t, float64(100), got["max"])
}

func TestSolarData_OneKeyPerPanel(t *testing.T) {
	st, _ := newFileStore(t, testDocument)
	rec := do(t, newTestServer(st).Handler(), http.MethodGet, "/api/solar-data", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body, 2)
	assert.Contains(t, body, "1")
	assert.Contains(t, body, "7")

	pv := body["1"].(map[string]any)
	assert.Equal(t, "watt", pv["unit"])
	assert.Equal(t, "vertical", pv["customProperties"].(map[string]any)["orientation"])
	assert.NotContains(t, pv, "gaugeConfig")
}

func TestSolarData_LoadFailure(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed", content: `{"panels": [`},
		{name: "no panels", content: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _ := newFileStore(t, tt.content)
			rec := do(t, newTestServer(st).Handler(), http.MethodGet, "/api/solar-data", "")

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Failed to retrieve solar data", body["message"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSolarData_MissingFile(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "gone.json"), store.NewBroker(), log.Discard())
	rec := do(t, newTestServer(st).Handler(), http.MethodGet, "/api/solar-data", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "gone.json")
}

func TestUpdateRange_NonNumericRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "string min", body: `{"panelId":"7","min":"low","max":100}`},
		{name: "string max", body: `{"panelId":"7","min":0,"max":"100"}`},
		{name: "missing max", body: `{"panelId":"7","min":0}`},
		{name: "null min", body: `{"panelId":"7","min":null,"max":1}`},
		{name: "unknown panel and bad min", body: `{"panelId":"99","min":"x","max":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, path := newFileStore(t, testDocument)
			rec := do(t, newTestServer(st).Handler(), http.MethodPost, "/api/update-panel-range", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"success":false,"message":"Min and max values must be numbers"}`, rec.Body.String())

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, testDocument, string(data), "document must not change")
		})
	}
}

func TestUpdateRange_NotFound(t *testing.T) {
	st, path := newFileStore(t, testDocument)
	rec := do(t, newTestServer(st).Handler(), http.MethodPost, "/api/update-panel-range", `{"panelId":"99","min":0,"max":1}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Panel with ID 99 not found"}`, rec.Body.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testDocument, string(data))
}

func TestUpdateRange_UnmatchableIDIsNotFound(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "missing panelId", body: `{"min":0,"max":1}`, wantMsg: "Panel with ID undefined not found"},
		{name: "null panelId", body: `{"panelId":null,"min":0,"max":1}`, wantMsg: "Panel with ID undefined not found"},
		{name: "boolean panelId", body: `{"panelId":true,"min":0,"max":1}`, wantMsg: "Panel with ID true not found"},
		{name: "object panelId", body: `{"panelId":{},"min":0,"max":1}`, wantMsg: "Panel with ID {} not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, path := newFileStore(t, testDocument)
			rec := do(t, newTestServer(st).Handler(), http.MethodPost, "/api/update-panel-range", tt.body)

			require.Equal(t, http.StatusNotFound, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, testDocument, string(data))
		})
	}
}

func TestUpdateRange_MissingPanelIDStillChecksNumbersFirst(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker()}
	rec := do(t, newTestServer(fs).Handler(), http.MethodPost, "/api/update-panel-range", `{"min":"x","max":1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Min and max values must be numbers", decode(t, rec)["message"])
	assert.Empty(t, fs.updates)
}

func TestUpdateRange_NumbersStoredInShortestForm(t *testing.T) {
	st, path := newFileStore(t, testDocument)
	rec := do(t, newTestServer(st).Handler(), http.MethodPost, "/api/update-panel-range", `{"panelId":"7","min":1.50,"max":1e2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"min":1.5`)
	assert.Contains(t, rec.Body.String(), `"max":100`)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"min": 1.5`)
	assert.Contains(t, string(data), `"max": 100`)
	assert.NotContains(t, string(data), "1e2")
}

func TestUpdateRange_OtherPanelsUnchanged(t *testing.T) {
	st, _ := newFileStore(t, testDocument)
	h := newTestServer(st).Handler()

	before := decode(t, do(t, h, http.MethodGet, "/api/solar-data", ""))

	rec := do(t, h, http.MethodPost, "/api/update-panel-range", `{"panelId":"1","min":-10.5,"max":6000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	after := decode(t, do(t, h, http.MethodGet, "/api/solar-data", ""))

	assert.Equal(t, before["7"], after["7"])

	pv := after["1"].(map[string]any)
	assert.Equal(t, -10.5, pv["min"])
	assert.Equal(t, float64(6000), pv["max"])
	assert.Equal(t, "watt", pv["unit"])
	assert.Equal(t, before["1"].(map[string]any)["customProperties"], pv["customProperties"])
}

func TestUpdateRange_NumericPanelID(t *testing.T) {
	st, _ := newFileStore(t, testDocument)
	rec := do(t, newTestServer(st).Handler(), http.MethodPost, "/api/update-panel-range", `{"panelId":7,"min":1,"max":2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode(t, rec)["updatedConfig"].(map[string]any)
	assert.Equal(t, float64(7), cfg["panelId"])
}

func TestUpdateRange_MinAboveMaxAccepted(t *testing.T) {
	st, _ := newFileStore(t, testDocument)
	rec := do(t, newTestServer(st).Handler(), http.MethodPost, "/api/update-panel-range", `{"panelId":"7","min":100,"max":0}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateRange_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "not json", body: `{"panelId":`, wantMsg: "Invalid JSON body"},
		{name: "array body", body: `[1,2]`, wantMsg: "Invalid JSON body"},
		{name: "trailing data", body: `{"panelId":"7","min":0,"max":1} junk`, wantMsg: "Invalid JSON body"},
		{name: "second value", body: `{"panelId":"7","min":0,"max":1}{}`, wantMsg: "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{Broker: store.NewBroker()}
			rec := do(t, newTestServer(fs).Handler(), http.MethodPost, "/api/update-panel-range", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.Empty(t, fs.updates)
		})
	}
}

func TestUpdateRange_PersistFailure(t *testing.T) {
	fs := &fakeStore{
		Broker:    store.NewBroker(),
		updateErr: &document.PersistError{Path: "/data/d.json", Err: errors.New("disk full")},
	}
	rec := do(t, newTestServer(fs).Handler(), http.MethodPost, "/api/update-panel-range", `{"panelId":"7","min":0,"max":1}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to update panel range", body["message"])
	assert.Contains(t, body["error"], "disk full")

	require.Len(t, fs.updates, 1)
	assert.Equal(t, "7", fs.updates[0].PanelID)
}

func TestUpdateRange_WrongMethod(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker()}
	rec := do(t, newTestServer(fs).Handler(), http.MethodGet, "/api/update-panel-range", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUpdateRange_RateLimited(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker()}
	h := NewServer(fs, Config{Logger: log.Discard(), UpdateRateLimit: 2}).Handler()

	body := `{"panelId":"7","min":0,"max":1}`
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/update-panel-range", body).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/update-panel-range", body).Code)

	rec := do(t, h, http.MethodPost, "/api/update-panel-range", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, false, decode(t, rec)["success"])

	// reads are not limited
	fs.doc, _ = document.Parse([]byte(testDocument))
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/solar-data", "").Code)
}

func TestRecoverer_PanicBecomes500(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker(), panicky: true}
	rec := do(t, newTestServer(fs).Handler(), http.MethodGet, "/api/solar-data", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestRequestID(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker()}
	h := newTestServer(fs).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get(headerRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(headerRequestID))
}

func TestHealthAndMetrics(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker()}
	h := newTestServer(fs).Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "solarboard_http_request_duration_seconds")
}

func TestDashboard_Embedded(t *testing.T) {
	assets := fstest.MapFS{
		"assets/index.html": {Data: []byte("<title>{{.Title}}</title>")},
	}
	fs := &fakeStore{Broker: store.NewBroker()}

	h := NewServer(fs, Config{Logger: log.Discard(), Assets: assets, Title: "<b>Roof</b>"}).Handler()
	rec := do(t, h, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<title>&lt;b&gt;Roof&lt;/b&gt;</title>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	h = NewServer(fs, Config{Logger: log.Discard(), Assets: assets}).Handler()
	rec = do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, "<title>Solar Dashboard</title>", rec.Body.String())
}

func TestDashboard_NoAssets(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker()}
	rec := do(t, newTestServer(fs).Handler(), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboard_StaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>from disk</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	assets := fstest.MapFS{"assets/index.html": {Data: []byte("embedded")}}
	fs := &fakeStore{Broker: store.NewBroker()}
	h := NewServer(fs, Config{Logger: log.Discard(), Assets: assets, StaticDir: dir}).Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>from disk</p>", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/missing.css", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleEvents_StreamsChanges(t *testing.T) {
	fs := &fakeStore{Broker: store.NewBroker()}
	srv := newTestServer(fs)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleEvents(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return fs.Len() == 1 }, time.Second, 10*time.Millisecond)

	fs.Publish(store.ChangeEvent{Source: store.SourceAPI, PanelID: "7", Min: json.RawMessage("0"), Max: json.RawMessage("100")})

	// give time for the event to be written
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	body := rec.Body.String()
	assert.Contains(t, body, ": connected\n\n")
	assert.Contains(t, body, `data: {"source":"api","panel_id":"7","min":0,"max":100`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, 0, fs.Len(), "subscription should be released")
}

func TestHandleEvents_ClosedChannelEndsStream(t *testing.T) {
	cs := &chanStore{
		fakeStore: &fakeStore{Broker: store.NewBroker()},
		ch:        make(chan store.ChangeEvent),
	}
	srv := newTestServer(cs)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleEvents(rec, req)
		close(done)
	}()

	close(cs.ch)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not exit after channel close")
	}
}

func TestStart_ServesAndShutsDownWithoutLeaks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	st, _ := newFileStore(t, testDocument)
	srv := NewServer(st, Config{Port: 0, Logger: log.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	require.NotEmpty(t, srv.Addr())

	tr := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: tr, Timeout: 2 * time.Second}

	resp, err := client.Get("http://" + srv.Addr() + "/api/solar-data")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	tr.CloseIdleConnections()
	cancel()
}

func TestStart_PortInUse(t *testing.T) {
	ln := httptest.NewServer(http.NotFoundHandler())
	defer ln.Close()

	port := ln.Listener.Addr().(*net.TCPAddr).Port
	srv := NewServer(&fakeStore{Broker: store.NewBroker()}, Config{Port: port, Logger: log.Discard()})

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
}
