package playersync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ChatMessage struct {
	MessageId string `json:"messageId"`
	Message   string `json:"message"`
	UserId    string `json:"userId"`
	Username  string `json:"username"`
	RoomId    string `json:"roomId"`
	Timestamp int64  `json:"timestamp"`
}

type ServerError struct {
	Message string `json:"message"`
}

type ClientConfig struct {
	// URL of the websocket endpoint, e.g. ws://host/api/v1/ws.
	URL   string
	Token string
	// ReconnectDelay between dial attempts. Zero means no reconnect.
	ReconnectDelay time.Duration

	OnSyncUpdate  func(update *SyncUpdate)
	OnChatMessage func(msg *ChatMessage)
	OnUserJoined  func(roomId, userId, username string)
	OnUserLeft    func(roomId, userId, username, reason string)
	OnError       func(err *ServerError)

	Logger *slog.Logger
}

// Client keeps a connection to the sync server. After a reconnect it
// re-joins every room it was in and requests a fresh snapshot, which is
// the whole recovery protocol: the server holds no per-connection state
// to restore.
type Client struct {
	cfg    ClientConfig
	dialer *websocket.Dialer
	logger *slog.Logger

	conn  *websocket.Conn
	rooms map[string]struct{}
	mu    sync.Mutex
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		logger: logger,
		rooms:  make(map[string]struct{}),
	}
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	if c.cfg.Token != "" {
		q := u.Query()
		q.Set("token", c.cfg.Token)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// Run dials and serves the connection, redialing after ReconnectDelay
// until the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	dialURL, err := c.dialURL()
	if err != nil {
		return err
	}

	for {
		conn, _, err := c.dialer.DialContext(ctx, dialURL, nil)
		if err != nil {
			c.logger.Info("failed to dial", "error", err)
		} else {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()

			c.rejoin()
			c.readLoop(ctx, conn)

			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
		}

		if c.cfg.ReconnectDelay <= 0 {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// rejoin replays room:join and video:requestSync for every room the
// client was in before the connection dropped.
func (c *Client) rejoin() {
	c.mu.Lock()
	rooms := make([]string, 0, len(c.rooms))
	for roomId := range c.rooms {
		rooms = append(rooms, roomId)
	}
	c.mu.Unlock()

	for _, roomId := range rooms {
		if err := c.send("room:join", map[string]any{"roomId": roomId}); err != nil {
			c.logger.Info("failed to rejoin room", "room_id", roomId, "error", err)
			continue
		}
		if err := c.send("video:requestSync", map[string]any{"roomId": roomId}); err != nil {
			c.logger.Info("failed to request sync", "room_id", roomId, "error", err)
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			c.logger.Info("connection closed", "error", err)
			return
		}

		c.dispatch(&msg)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *Client) dispatch(msg *message) {
	switch msg.Type {
	case "sync:update":
		if c.cfg.OnSyncUpdate == nil {
			return
		}
		var update SyncUpdate
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			c.logger.Info("failed to unmarshal sync update", "error", err)
			return
		}
		c.cfg.OnSyncUpdate(&update)
	case "chat:newMessage":
		if c.cfg.OnChatMessage == nil {
			return
		}
		var chatMsg ChatMessage
		if err := json.Unmarshal(msg.Payload, &chatMsg); err != nil {
			c.logger.Info("failed to unmarshal chat message", "error", err)
			return
		}
		c.cfg.OnChatMessage(&chatMsg)
	case "room:userJoined", "room:userLeft":
		var user struct {
			RoomId   string `json:"roomId"`
			UserId   string `json:"userId"`
			Username string `json:"username"`
			Reason   string `json:"reason"`
		}
		if err := json.Unmarshal(msg.Payload, &user); err != nil {
			c.logger.Info("failed to unmarshal user notification", "error", err)
			return
		}
		if msg.Type == "room:userJoined" && c.cfg.OnUserJoined != nil {
			c.cfg.OnUserJoined(user.RoomId, user.UserId, user.Username)
		}
		if msg.Type == "room:userLeft" && c.cfg.OnUserLeft != nil {
			c.cfg.OnUserLeft(user.RoomId, user.UserId, user.Username, user.Reason)
		}
	case "error":
		if c.cfg.OnError == nil {
			return
		}
		var serverErr ServerError
		if err := json.Unmarshal(msg.Payload, &serverErr); err != nil {
			c.logger.Info("failed to unmarshal error", "error", err)
			return
		}
		c.cfg.OnError(&serverErr)
	}
}

func (c *Client) send(messageType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(&outMessage{Type: messageType, Payload: payload})
}

func (c *Client) JoinRoom(roomId string) error {
	c.mu.Lock()
	c.rooms[roomId] = struct{}{}
	c.mu.Unlock()

	return c.send("room:join", map[string]any{"roomId": roomId})
}

func (c *Client) LeaveRoom(roomId string) error {
	c.mu.Lock()
	delete(c.rooms, roomId)
	c.mu.Unlock()

	return c.send("room:leave", map[string]any{"roomId": roomId})
}

func (c *Client) Play(roomId string) error {
	return c.send("video:play", map[string]any{
		"roomId":    roomId,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (c *Client) Pause(roomId string) error {
	return c.send("video:pause", map[string]any{
		"roomId":    roomId,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (c *Client) Seek(roomId string, seconds float64) error {
	return c.send("video:seek", map[string]any{
		"roomId":    roomId,
		"time":      seconds,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (c *Client) ChangeVideo(roomId, videoId string) error {
	return c.send("video:change", map[string]any{
		"roomId":    roomId,
		"videoId":   videoId,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (c *Client) RequestSync(roomId string) error {
	return c.send("video:requestSync", map[string]any{"roomId": roomId})
}

func (c *Client) SendChat(roomId, text string) error {
	return c.send("chat:message", map[string]any{
		"roomId":  roomId,
		"message": text,
	})
}
