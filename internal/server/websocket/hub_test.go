package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, cancel
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.send:
		return m, ok
	case <-time.After(200 * time.Millisecond):
		return Message{}, false
	}
}

// TestHub_NewHub tests hub creation.
func TestHub_NewHub(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil || hub.byID == nil || hub.groups == nil {
		t.Error("maps not initialized")
	}
	if hub.deliveries == nil {
		t.Error("deliveries channel not initialized")
	}
}

// TestHub_BasicOperation tests broadcast to registered clients.
func TestHub_BasicOperation(t *testing.T) {
	hub, _ := startHub(t)

	client := NewClient("test-1", hub, nil)
	hub.Register(client)

	if count := hub.ClientCount(); count != 1 {
		t.Errorf("expected 1 client, got %d", count)
	}

	hub.Broadcast(Message{Type: "connected", Timestamp: time.Now()})
	if m, ok := receive(t, client); !ok || m.Type != "connected" {
		t.Errorf("client did not receive broadcast, got %+v", m)
	}
}

// TestHub_Groups tests group routing.
func TestHub_Groups(t *testing.T) {
	hub, _ := startHub(t)

	smith1 := NewClient("a", hub, nil)
	smith2 := NewClient("b", hub, nil)
	jones := NewClient("c", hub, nil)
	for _, c := range []*Client{smith1, smith2, jones} {
		hub.Register(c)
	}
	hub.Join("a", "Smith")
	hub.Join("b", "Smith")
	hub.Join("c", "Jones")
	hub.Join("unknown", "Smith")

	if n := hub.GroupSize("Smith"); n != 2 {
		t.Fatalf("expected 2 Smith members, got %d", n)
	}

	hub.SendToGroup("Smith", Message{Type: "lapData", Data: 3})
	for _, c := range []*Client{smith1, smith2} {
		if m, ok := receive(t, c); !ok || m.Type != "lapData" {
			t.Errorf("client %s missed group message", c.id)
		}
	}
	if _, ok := receive(t, jones); ok {
		t.Error("non-member received group message")
	}

	hub.Leave("b", "Smith")
	hub.SendToGroup("Smith", Message{Type: "lapData", Data: 4})
	if _, ok := receive(t, smith1); !ok {
		t.Error("member missed message after another left")
	}
	if _, ok := receive(t, smith2); ok {
		t.Error("client received message after leaving")
	}
}

// TestHub_SendToClient tests direct messages.
func TestHub_SendToClient(t *testing.T) {
	hub, _ := startHub(t)

	a := NewClient("a", hub, nil)
	b := NewClient("b", hub, nil)
	hub.Register(a)
	hub.Register(b)

	hub.SendToClient("b", Message{Type: "error", Data: "Driver name required"})
	if m, ok := receive(t, b); !ok || m.Data != "Driver name required" {
		t.Errorf("unexpected message %+v", m)
	}
	if _, ok := receive(t, a); ok {
		t.Error("wrong client received direct message")
	}
}

// TestHub_OrderWithinGroup tests that group messages keep send order.
func TestHub_OrderWithinGroup(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient("a", hub, nil)
	hub.Register(c)
	hub.Join("a", "Smith")

	for i := 0; i < 50; i++ {
		hub.SendToGroup("Smith", Message{Type: "lapData", Data: i})
	}
	for i := 0; i < 50; i++ {
		m, ok := receive(t, c)
		if !ok || m.Data.(int) != i {
			t.Fatalf("message %d: got %+v", i, m)
		}
	}
}

// TestHub_Unregister tests removal from clients and groups.
func TestHub_Unregister(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient("a", hub, nil)
	hub.Register(c)
	hub.Join("a", "Smith")

	hub.Unregister(c)
	hub.Unregister(c)

	if hub.ClientCount() != 0 || hub.GroupSize("Smith") != 0 {
		t.Error("client not fully removed")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel not closed")
	}
}

// TestHub_SlowClientDropped tests buffer overflow handling.
func TestHub_SlowClientDropped(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient("slow", hub, nil)
	hub.Register(c)

	for i := 0; i < cap(c.send)+1; i++ {
		hub.SendToClient("slow", Message{Type: "lapData", Data: i})
	}

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Error("slow client not dropped")
	}
}

// TestHub_Shutdown tests graceful shutdown.
func TestHub_Shutdown(t *testing.T) {
	hub, cancel := startHub(t)

	hub.Register(NewClient("test-1", hub, nil))
	hub.Register(NewClient("test-2", hub, nil))
	if count := hub.ClientCount(); count != 2 {
		t.Fatalf("expected 2 clients, got %d", count)
	}

	cancel()
	<-hub.done

	if count := hub.ClientCount(); count != 0 {
		t.Errorf("expected 0 clients after shutdown, got %d", count)
	}

	done := make(chan struct{})
	go func() {
		hub.Broadcast(Message{Type: "late"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after shutdown")
	}
}

func TestCommandUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{`{"type":"startTracking","data":"Smith"}`, Command{Type: CommandStartTracking, Data: "Smith"}},
		{`{"type":"stopTracking"}`, Command{Type: CommandStopTracking}},
		{`{"type":"startTracking","data":42}`, Command{Type: CommandStartTracking}},
		{`{"type":"startTracking","data":null}`, Command{Type: CommandStartTracking}},
	}
	for _, tt := range tests {
		var got Command
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.in, got, tt.want)
		}
	}

	var bad Command
	if err := json.Unmarshal([]byte(`not json`), &bad); err == nil {
		t.Error("expected error for malformed command")
	}
}

type recordingHandler struct {
	mu          sync.Mutex
	commands    []Command
	disconnects []string
}

func (r *recordingHandler) HandleCommand(_ context.Context, _ string, cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

func (r *recordingHandler) HandleDisconnect(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnects = append(r.disconnects, clientID)
}

func (r *recordingHandler) snapshot() ([]Command, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...), append([]string(nil), r.disconnects...)
}

// TestClient_Pumps tests commands in, messages out, and disconnect over a
// real connection.
func TestClient_Pumps(t *testing.T) {
	hub, _ := startHub(t)
	handler := &recordingHandler{}
	hub.SetCommandHandler(handler)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient("viewer", hub, conn)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump(context.Background())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if err := conn.WriteJSON(map[string]string{"type": "startTracking", "data": "Smith"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" {
		t.Errorf("expected error reply to malformed command, got %q", msg.Type)
	}

	hub.Join("viewer", "Smith")
	hub.SendToGroup("Smith", Message{Type: "lapData", Timestamp: time.Now(), Data: map[string]any{"currentLap": 1}})
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "lapData" {
		t.Errorf("expected lapData, got %q", msg.Type)
	}

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, d := handler.snapshot(); len(d) == 1 && hub.ClientCount() == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cmds, disconnects := handler.snapshot()
	if len(cmds) != 1 || cmds[0].Type != CommandStartTracking || cmds[0].Data != "Smith" {
		t.Errorf("unexpected commands %+v", cmds)
	}
	if len(disconnects) != 1 || disconnects[0] != "viewer" {
		t.Errorf("unexpected disconnects %+v", disconnects)
	}
	if hub.ClientCount() != 0 {
		t.Error("client not unregistered after disconnect")
	}
}

// stallingHandler blocks every command until its context ends.
type stallingHandler struct {
	started chan string
	events  chan string
}

func (s *stallingHandler) HandleCommand(ctx context.Context, _ string, cmd Command) {
	s.started <- cmd.Type
	<-ctx.Done()
	s.events <- "command returned"
}

func (s *stallingHandler) HandleDisconnect(clientID string) {
	s.events <- "disconnect " + clientID
}

// TestClient_DisconnectCancelsRunningCommand tests that a command stuck on
// its context does not keep a departed client registered.
func TestClient_DisconnectCancelsRunningCommand(t *testing.T) {
	hub, _ := startHub(t)
	handler := &stallingHandler{started: make(chan string, 4), events: make(chan string, 4)}
	hub.SetCommandHandler(handler)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient("viewer", hub, conn)
		hub.Register(client)
		go client.WritePump()
		client.ReadPump(r.Context())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "startTracking", "data": "Smith"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("command never dispatched")
	}

	// Reading continues while the command runs.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	for msg.Type != "error" {
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while command runs: %v", err)
		}
	}

	_ = conn.Close()

	for _, want := range []string{"command returned", "disconnect viewer"} {
		select {
		case got := <-handler.events:
			if got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Error("client not unregistered after disconnect")
	}
}
