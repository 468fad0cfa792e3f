package wsrouter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetPayload struct {
	Name string `json:"name"`
}

func TestHandleUnmarshalsPayload(t *testing.T) {
	r := New()

	var got greetPayload
	Handle(r, "greet", func(ctx context.Context, conn *websocket.Conn, payload greetPayload) error {
		got = payload
		return nil
	})

	handler, ok := r.routes["greet"]
	require.True(t, ok)

	err := handler(context.Background(), &websocket.Conn{}, json.RawMessage(`{"name":"alice"}`))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
}

func TestHandleInvalidPayload(t *testing.T) {
	r := New()

	called := false
	Handle(r, "greet", func(ctx context.Context, conn *websocket.Conn, payload greetPayload) error {
		called = true
		return nil
	})

	err := r.routes["greet"](context.Background(), &websocket.Conn{}, json.RawMessage(`{"name":`))
	assert.Error(t, err)
	assert.False(t, called, "handler must not run on a bad payload")
}

func TestHandleEmptyPayload(t *testing.T) {
	r := New()

	var got greetPayload
	Handle(r, "greet", func(ctx context.Context, conn *websocket.Conn, payload greetPayload) error {
		got = payload
		return nil
	})

	err := r.routes["greet"](context.Background(), &websocket.Conn{}, nil)
	require.NoError(t, err)
	assert.Equal(t, greetPayload{}, got)
}

func TestMiddlewareOrder(t *testing.T) {
	r := New()

	var order []string
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, p any) error {
			order = append(order, "outer")
			return next(ctx, conn, p)
		}
	})
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, p any) error {
			order = append(order, "inner")
			return next(ctx, conn, p)
		}
	})

	Handle(r, "greet", func(ctx context.Context, conn *websocket.Conn, payload greetPayload) error {
		order = append(order, "handler")
		return nil
	})

	err := r.routes["greet"](context.Background(), &websocket.Conn{}, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestGetMessageTypeFromCtx(t *testing.T) {
	ctx := context.WithValue(context.Background(), messageTypeKey, "video:play")
	assert.Equal(t, "video:play", GetMessageTypeFromCtx(ctx))
	assert.Empty(t, GetMessageTypeFromCtx(context.Background()))
}
