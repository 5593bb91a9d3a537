package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/wiredbrain/axiom/internal/health"
	"github.com/wiredbrain/axiom/internal/observe"
	"github.com/wiredbrain/axiom/internal/pipeline"
)

// fakeSession records everything the server pushes into it. Control
// messages with event "client_ready" echo an idle state through the sink,
// matching the real session's handshake.
type fakeSession struct {
	sink pipeline.Sink

	mu       sync.Mutex
	audio    [][]byte
	controls [][]byte
	closed   bool
}

func (f *fakeSession) HandleAudio(_ context.Context, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, bytes.Clone(data))
}

func (f *fakeSession) HandleControl(ctx context.Context, raw []byte) {
	f.mu.Lock()
	f.controls = append(f.controls, bytes.Clone(raw))
	f.mu.Unlock()

	var msg struct {
		Event string `json:"event"`
	}
	if json.Unmarshal(raw, &msg) == nil && msg.Event == "client_ready" {
		_ = f.sink.SendEvent(ctx, map[string]string{"state": "idle"})
	}
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSession) snapshot() (audio, controls [][]byte, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.audio...), append([][]byte(nil), f.controls...), f.closed
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// startServer spins up an httptest server around a fakeSession factory and
// returns the fake session holder (populated on first connection).
func startServer(t *testing.T, opts ...Option) (*httptest.Server, *fakeSession) {
	t.Helper()

	fake := &fakeSession{}
	factory := func(sink pipeline.Sink) (Session, error) {
		fake.sink = sink
		return fake, nil
	}
	opts = append([]Option{WithMetrics(testMetrics(t))}, opts...)
	srv := httptest.NewServer(New(factory, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, fake
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func TestWebSocket_RoutesMessagesByType(t *testing.T) {
	srv, fake := startServer(t)
	conn := dialWS(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Control message round trip.
	ready := []byte(`{"event":"client_ready"}`)
	if err := conn.Write(ctx, websocket.MessageText, ready); err != nil {
		t.Fatalf("write control: %v", err)
	}
	typ, reply, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if typ != websocket.MessageText {
		t.Errorf("reply type = %v, want text", typ)
	}
	var state struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(reply, &state); err != nil {
		t.Fatalf("unmarshal reply %q: %v", reply, err)
	}
	if state.State != "idle" {
		t.Errorf("state = %q, want %q", state.State, "idle")
	}

	// Binary audio goes to HandleAudio.
	chunk := []byte{0x01, 0x02, 0x03, 0x04}
	if err := conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	conn.Close(websocket.StatusNormalClosure, "done")

	deadline := time.Now().Add(5 * time.Second)
	for {
		audio, controls, closed := fake.snapshot()
		if len(audio) == 1 && len(controls) == 1 && closed {
			if !bytes.Equal(audio[0], chunk) {
				t.Errorf("audio = %v, want %v", audio[0], chunk)
			}
			if !bytes.Equal(controls[0], ready) {
				t.Errorf("control = %s, want %s", controls[0], ready)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout: audio=%d controls=%d closed=%v", len(audio), len(controls), closed)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_SessionSetupFailure(t *testing.T) {
	factory := func(_ pipeline.Sink) (Session, error) {
		return nil, errors.New("no providers configured")
	}
	srv := httptest.NewServer(New(factory, WithMetrics(testMetrics(t))).Handler())
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The server should close the connection instead of serving it.
	if _, _, err := conn.Read(ctx); err == nil {
		t.Error("expected read to fail after setup error")
	}
	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestHandler_HealthEndpoints(t *testing.T) {
	checker := health.Checker{Name: "vad", Check: func(_ context.Context) error { return nil }}
	srv, _ := startServer(t, WithHealth(health.New(checker)))

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	srv, _ := startServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
