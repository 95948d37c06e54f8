package hub

import (
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fws "github.com/gofiber/websocket/v2"
	"github.com/gorilla/websocket"
)

func startHubServer(t *testing.T, h *Hub) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", fws.New(func(conn *fws.Conn) {
		if c := NewClient(h, conn); c != nil {
			c.Serve()
		}
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go app.Listener(ln)
	t.Cleanup(func() { app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHub(t *testing.T) {
	h := New("status", nil)
	if h.Name() != "status" {
		t.Errorf("name = %q", h.Name())
	}
	if h.ClientCount() != 0 {
		t.Error("new hub has clients")
	}
	if h.IsRunning() {
		t.Error("hub running before Run")
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := New("empty", nil)
	go h.Run()
	defer h.Stop()

	// Must not block or panic.
	for i := 0; i < 10; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	if err := h.BroadcastJSON(map[string]int{"n": 1}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
}

func TestBroadcastFullQueueDrops(t *testing.T) {
	h := New("stalled", nil)
	// Run is never started, so the queue fills.
	for i := 0; i < 300; i++ {
		h.BroadcastBinary([]byte{1})
	}
	if _, dropped := h.Stats(); dropped != 300-256 {
		t.Errorf("dropped = %d, want %d", dropped, 300-256)
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	h := New("status", nil)
	go h.Run()
	defer h.Stop()

	url := startHubServer(t, h)
	a := dial(t, url)
	b := dial(t, url)
	waitClients(t, h, 2)

	if err := h.BroadcastJSON(map[string]string{"mode": "DRAW"}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	h.BroadcastBinary([]byte{0x89, 'P', 'N', 'G'})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if mt != websocket.TextMessage || string(data) != `{"mode":"DRAW"}` {
			t.Errorf("got %d %q", mt, data)
		}
		mt, data, err = conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if mt != websocket.BinaryMessage || len(data) != 4 {
			t.Errorf("got %d %v", mt, data)
		}
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	h := New("status", nil)
	go h.Run()
	defer h.Stop()

	url := startHubServer(t, h)
	conn := dial(t, url)
	waitClients(t, h, 1)

	conn.Close()
	waitClients(t, h, 0)
}

func TestStopClosesClients(t *testing.T) {
	h := New("status", nil)
	go h.Run()

	url := startHubServer(t, h)
	conn := dial(t, url)
	waitClients(t, h, 1)

	h.Stop()
	h.Stop()
	if h.IsRunning() {
		t.Error("hub running after Stop")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close after Stop")
	}
}
