package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-aircanvas/pkg/drawing"
	"github.com/teslashibe/go-aircanvas/pkg/session"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

type fakeController struct {
	mu       sync.Mutex
	status   session.Status
	clears   int
	clearErr error
}

func (f *fakeController) Status() session.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clears++
	return nil
}

func (f *fakeController) CanvasPNG(w io.Writer) error {
	_, err := w.Write(append(append([]byte(nil), pngMagic...), "canvas"...))
	return err
}

func (f *fakeController) OverlayPNG(w io.Writer) error {
	_, err := w.Write(append(append([]byte(nil), pngMagic...), "overlay"...))
	return err
}

func newTestServer(t *testing.T, ctrl Controller) (*Server, *drawing.BrushStore) {
	t.Helper()
	brush := drawing.NewBrushStore(drawing.DefaultBrush())
	cfg := DefaultConfig()
	cfg.PreviewInterval = 20 * time.Millisecond
	s, err := NewServer(cfg, ctrl, brush, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, brush
}

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, 2000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, data
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty addr")
	}
	cfg = DefaultConfig()
	cfg.PreviewInterval = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for tiny preview interval")
	}
}

func TestStatusRoute(t *testing.T) {
	ctrl := &fakeController{status: session.Status{Connection: "OPEN", ModeText: "DRAW", Segments: 7}}
	s, _ := newTestServer(t, ctrl)

	resp, body := do(t, s, http.MethodGet, "/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var st session.Status
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.ModeText != "DRAW" || st.Segments != 7 || st.Connection != "OPEN" {
		t.Errorf("status = %+v", st)
	}
}

func TestBrushRoutes(t *testing.T) {
	s, brush := newTestServer(t, &fakeController{})

	resp, body := do(t, s, http.MethodGet, "/api/brush", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	var b drawing.Brush
	json.Unmarshal(body, &b)
	if b != drawing.DefaultBrush() {
		t.Errorf("brush = %+v", b)
	}

	resp, _ = do(t, s, http.MethodPut, "/api/brush", `{"color":"#ff0000","width":12}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", resp.StatusCode)
	}
	if got := brush.Brush(); got.Color != "#ff0000" || got.Width != 12 {
		t.Errorf("brush after PUT = %+v", got)
	}

	resp, _ = do(t, s, http.MethodPut, "/api/brush", `{"preset":"blue"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preset PUT status = %d", resp.StatusCode)
	}
	if got := brush.Brush(); got.Width != 12 {
		t.Errorf("preset changed width: %+v", got)
	}

	for _, bad := range []string{`{"width":500}`, `{"color":"red"}`, `{"preset":"nope"}`, `not json`} {
		resp, _ = do(t, s, http.MethodPut, "/api/brush", bad)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("PUT %s status = %d, want 400", bad, resp.StatusCode)
		}
	}
}

func TestBrushRoutesWithoutStore(t *testing.T) {
	s, err := NewServer(DefaultConfig(), &fakeController{}, nil, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	resp, _ := do(t, s, http.MethodGet, "/api/brush", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPalettesRoute(t *testing.T) {
	s, _ := newTestServer(t, &fakeController{})
	resp, body := do(t, s, http.MethodGet, "/api/palettes", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var palettes map[string]drawing.Palette
	if err := json.Unmarshal(body, &palettes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(palettes[drawing.PaletteClassic].Swatches) != 8 {
		t.Errorf("classic swatches = %d, want 8", len(palettes[drawing.PaletteClassic].Swatches))
	}
}

func TestClearRoute(t *testing.T) {
	ctrl := &fakeController{}
	s, _ := newTestServer(t, ctrl)

	resp, _ := do(t, s, http.MethodPost, "/api/clear", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ctrl.clears != 1 {
		t.Errorf("clears = %d, want 1", ctrl.clears)
	}
	if logs := s.Logs(); len(logs) != 1 || logs[0].Type != "canvas" {
		t.Errorf("logs = %+v", logs)
	}

	ctrl.clearErr = session.ErrStopped
	resp, _ = do(t, s, http.MethodPost, "/api/clear", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestPNGRoutes(t *testing.T) {
	s, _ := newTestServer(t, &fakeController{})
	for _, path := range []string{"/api/canvas.png", "/api/overlay.png"} {
		resp, body := do(t, s, http.MethodGet, path, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s content type = %q", path, ct)
		}
		if !bytes.HasPrefix(body, pngMagic) {
			t.Errorf("%s body is not PNG", path)
		}
	}
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t, &fakeController{})
	resp, body := do(t, s, http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Air Canvas") {
		t.Error("index page not served")
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t, &fakeController{})
	resp, _ := do(t, s, http.MethodGet, "/ws/status", "")
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}

func TestLogBufferBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogBuffer = 3
	s, err := NewServer(cfg, &fakeController{}, nil, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	for i := 0; i < 5; i++ {
		s.AddLog("info", string(rune('a'+i)))
	}
	logs := s.Logs()
	if len(logs) != 3 || logs[0].Message != "c" || logs[2].Message != "e" {
		t.Errorf("logs = %+v", logs)
	}
}

func TestLiveSockets(t *testing.T) {
	ctrl := &fakeController{status: session.Status{ModeText: "IDLE"}}
	s, _ := newTestServer(t, ctrl)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go s.Serve(ln)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	}()
	base := "ws://" + ln.Addr().String()

	status, _, err := websocket.DefaultDialer.Dial(base+"/ws/status", nil)
	if err != nil {
		t.Fatalf("dial status: %v", err)
	}
	defer status.Close()
	status.SetReadDeadline(time.Now().Add(2 * time.Second))

	var st session.Status
	if err := status.ReadJSON(&st); err != nil {
		t.Fatalf("initial status: %v", err)
	}
	if st.ModeText != "IDLE" {
		t.Errorf("initial mode text = %q", st.ModeText)
	}

	// Published updates arrive once the client is registered.
	deadline := time.Now().Add(2 * time.Second)
	for s.statusHub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.PublishStatus(session.Status{ModeText: "DRAW"})
	if err := status.ReadJSON(&st); err != nil {
		t.Fatalf("published status: %v", err)
	}
	if st.ModeText != "DRAW" {
		t.Errorf("published mode text = %q", st.ModeText)
	}

	preview, _, err := websocket.DefaultDialer.Dial(base+"/ws/preview", nil)
	if err != nil {
		t.Fatalf("dial preview: %v", err)
	}
	defer preview.Close()
	preview.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := preview.ReadMessage()
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if mt != websocket.BinaryMessage || !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("preview frame = %d %q", mt, data)
	}
}
