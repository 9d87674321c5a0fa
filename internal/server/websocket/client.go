package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// Command names accepted from clients.
const (
	CommandStartTracking = "startTracking"
	CommandStopTracking  = "stopTracking"
)

// Command is a client request, e.g. {"type":"startTracking","data":"Smith"}.
type Command struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// UnmarshalJSON accepts any JSON value as data and keeps only strings.
func (c *Command) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Type = raw.Type
	c.Data = ""
	if len(raw.Data) > 0 {
		var s string
		if json.Unmarshal(raw.Data, &s) == nil {
			c.Data = s
		}
	}
	return nil
}

// Client represents a WebSocket client connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient creates a new WebSocket client.
func NewClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client id.
func (c *Client) ID() string {
	return c.id
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Commands a client may have waiting behind the one running.
	commandQueueSize = 16
)

// ReadPump reads commands from the connection until it closes, then reports
// the disconnect and unregisters the client. Commands run in order on a
// separate goroutine with a context derived from ctx, so a slow command
// never stalls reading: when the peer goes away the context is canceled,
// the pending command returns, and HandleDisconnect follows it.
func (c *Client) ReadPump(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	commands := make(chan Command, commandQueueSize)
	done := make(chan struct{})
	go c.runCommands(ctx, commands, done)

	defer func() {
		cancel()
		close(commands)
		<-done
		if handler := c.hub.commandHandler(); handler != nil {
			handler.HandleDisconnect(c.id)
		}
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error().Err(err).Str("client_id", c.id).Msg("WebSocket read error")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.hub.logger.Debug().Err(err).Str("client_id", c.id).Msg("Ignoring malformed command")
			c.hub.SendToClient(c.id, Message{Type: "error", Timestamp: time.Now(), Data: "Malformed command"})
			continue
		}

		select {
		case commands <- cmd:
		default:
			c.hub.logger.Warn().Str("client_id", c.id).Str("command", cmd.Type).Msg("Command queue full, command dropped")
			c.hub.SendToClient(c.id, Message{Type: "error", Timestamp: time.Now(), Data: "Too many pending commands"})
		}
	}
}

// runCommands hands queued commands to the hub's handler one at a time.
// Commands still queued after ctx ends are discarded.
func (c *Client) runCommands(ctx context.Context, commands <-chan Command, done chan<- struct{}) {
	defer close(done)
	for cmd := range commands {
		if ctx.Err() != nil {
			continue
		}
		if handler := c.hub.commandHandler(); handler != nil {
			handler.HandleCommand(ctx, c.id, cmd)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.hub.logger.Error().Err(err).Msg("Failed to marshal WebSocket message")
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
