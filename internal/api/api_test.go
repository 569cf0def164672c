package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nowplaying-redux/adapter-go/internal/adapter"
	"github.com/nowplaying-redux/adapter-go/internal/api"
	"github.com/nowplaying-redux/adapter-go/internal/events"
	"github.com/nowplaying-redux/adapter-go/internal/logging"
	"github.com/nowplaying-redux/adapter-go/internal/models"
)

type recordingPeer struct {
	mu   sync.Mutex
	sent []string
}

func (p *recordingPeer) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, line)
	return nil
}

func (p *recordingPeer) Close() error { return nil }

func (p *recordingPeer) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return ""
	}
	return p.sent[len(p.sent)-1]
}

type testEnv struct {
	srv  *httptest.Server
	a    *adapter.Adapter
	peer *recordingPeer
}

// newTestServer spins up the router over a real adapter with one source
// already connected.
func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	bus := events.NewBus()
	a := adapter.New(adapter.Options{Version: "2.0.1", Log: logging.Discard, Publisher: bus})
	peer := &recordingPeer{}
	a.Connect("src", peer)

	router := api.NewRouter(a, bus, api.Options{Hostname: "test-host"})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, a: a, peer: peer}
}

func (e *testEnv) play(lines ...string) {
	for _, l := range lines {
		e.a.HandleMessage("src", l)
	}
}

// do is a convenience helper for making requests to the test server.
func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON reads and decodes a JSON response body into v.
func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func requireStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, want, body)
	}
}

func TestGetMediaEmpty(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "GET", "/api/media", "")
	requireStatus(t, resp, http.StatusOK)
	var info models.MediaInfo
	decodeJSON(t, resp, &info)
	if !info.Empty() || info.Volume != 100 || info.State != models.StateStopped {
		t.Errorf("unexpected default state: %+v", info)
	}
}

func TestGetMediaSelected(t *testing.T) {
	env := newTestServer(t)
	env.play("PLAYER_NAME YouTube", "TITLE Song A", "STATE PLAYING", "DURATION_SECONDS 120")

	resp := do(t, env.srv, "GET", "/api/media", "")
	requireStatus(t, resp, http.StatusOK)
	var raw map[string]any
	decodeJSON(t, resp, &raw)
	if raw["title"] != "Song A" || raw["player_name"] != "YouTube" || raw["state"] != "PLAYING" {
		t.Errorf("unexpected body: %v", raw)
	}
	if raw["duration"] != "2:00" {
		t.Errorf("duration = %v, want 2:00", raw["duration"])
	}
}

func TestGetInfo(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "GET", "/api/info", "")
	requireStatus(t, resp, http.StatusOK)
	var info models.Info
	decodeJSON(t, resp, &info)
	want := models.Info{Version: "2.0.1", ProtocolRevision: 2, Hostname: "test-host", Clients: 1}
	if info != want {
		t.Errorf("info = %+v, want %+v", info, want)
	}
}

func TestExecCommand(t *testing.T) {
	env := newTestServer(t)
	env.play("TITLE Song A", "STATE PLAYING", "DURATION_SECONDS 200")

	tests := []struct {
		path string
		want string
	}{
		{"/api/media/toggle_play_pause", "TRY_TOGGLE_PLAY_PAUSE"},
		{"/api/media/skip_next", "TRY_SKIP_NEXT"},
		{"/api/media/set_volume?value=40", "TRY_SET_VOLUME 40"},
		{"/api/media/set_position_percent?value=50", "TRY_SET_POSITION 100:0.5"},
		{"/api/media/SET_RATING?value=4", "TRY_SET_RATING 4"},
	}
	for _, tt := range tests {
		resp := do(t, env.srv, "POST", tt.path, "")
		requireStatus(t, resp, http.StatusNoContent)
		resp.Body.Close()
		if got := env.peer.last(); got != tt.want {
			t.Errorf("%s: source got %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExecCommandErrors(t *testing.T) {
	env := newTestServer(t)
	env.play("TITLE Song A")

	tests := []struct {
		path string
		code string
	}{
		{"/api/media/explode", "BAD_REQUEST"},
		{"/api/media/set_volume", "BAD_REQUEST"},
		{"/api/media/set_volume?value=loud", "BAD_REQUEST"},
		{"/api/media/set_position_percent?value=NaN", "BAD_REQUEST"},
	}
	for _, tt := range tests {
		resp := do(t, env.srv, "POST", tt.path, "")
		requireStatus(t, resp, http.StatusBadRequest)
		var appErr models.AppError
		decodeJSON(t, resp, &appErr)
		if appErr.Code != tt.code || appErr.Message == "" {
			t.Errorf("%s: error body %+v", tt.path, appErr)
		}
	}
}

func TestExecThumbsOnScaleSource(t *testing.T) {
	env := newTestServer(t)
	env.play("TITLE Song A", "STATE PLAYING", `PLAYER_CONTROLS {"supports_set_rating":true,"rating_system":"SCALE"}`)

	resp := do(t, env.srv, "POST", "/api/media/toggle_thumbs_up", "")
	requireStatus(t, resp, http.StatusConflict)
	var appErr models.AppError
	decodeJSON(t, resp, &appErr)
	if appErr.Code != "CONFLICT" {
		t.Errorf("error body %+v", appErr)
	}
	if got := env.peer.last(); strings.HasPrefix(got, "TRY_SET_RATING") {
		t.Errorf("scale source received %q", got)
	}
}

func TestExecCommandNothingSelected(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "POST", "/api/media/skip_next", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	if got := env.peer.last(); !strings.HasPrefix(got, "ADAPTER_VERSION") {
		t.Errorf("source received %q with nothing selected", got)
	}
}

func TestSetNative(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "PUT", "/api/native", `{"enabled":true}`)
	requireStatus(t, resp, http.StatusOK)
	var info models.Info
	decodeJSON(t, resp, &info)
	if !info.NativeAPIs || !env.a.NativeAPIsEnabled() {
		t.Errorf("native flag not enabled: %+v", info)
	}

	resp = do(t, env.srv, "GET", "/api/native", "")
	requireStatus(t, resp, http.StatusOK)
	var got map[string]bool
	decodeJSON(t, resp, &got)
	if !got["enabled"] {
		t.Errorf("GET /api/native = %v", got)
	}
}

func TestSetNativeInvalid(t *testing.T) {
	env := newTestServer(t)

	for _, body := range []string{`{bad json`, `{}`} {
		resp := do(t, env.srv, "PUT", "/api/native", body)
		requireStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()
	}
	if env.a.NativeAPIsEnabled() {
		t.Error("flag changed by an invalid request")
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "OPTIONS", "/api/media", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestSSESubscribe(t *testing.T) {
	env := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/subscribe", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	stream := make(chan models.MediaInfo, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var info models.MediaInfo
			if err := json.Unmarshal([]byte(line), &info); err == nil {
				stream <- info
			}
		}
		close(stream)
	}()

	next := func() models.MediaInfo {
		t.Helper()
		select {
		case info, ok := <-stream:
			if !ok {
				t.Fatal("stream ended")
			}
			return info
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SSE event")
		}
		return models.MediaInfo{}
	}

	if first := next(); !first.Empty() {
		t.Errorf("first event should be the empty state, got %+v", first)
	}
	env.play("TITLE Streamed")
	if got := next(); got.Title != "Streamed" {
		t.Errorf("second event title = %q, want Streamed", got.Title)
	}
}
