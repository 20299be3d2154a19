package ws_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"grocermart/internal/model"
	"grocermart/internal/ws"
)

type fakeConn struct {
	mu       sync.Mutex
	written  []model.Event
	writeErr error
	closed   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, v.(model.Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func event(orderID int64, status model.Status) model.Event {
	return model.OrderUpdated(&model.Order{ID: orderID, Status: status})
}

func TestHub_Notify(t *testing.T) {
	t.Run("delivers to the registered connection", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())
		conn := &fakeConn{}
		hub.Register(1, conn)

		hub.Notify(1, event(10, model.StatusAccepted))

		require.Len(t, conn.written, 1)
		assert.Equal(t, model.EventOrderUpdated, conn.written[0].Type)
		assert.Equal(t, int64(10), conn.written[0].Order.ID)
	})

	t.Run("drops silently when the user is offline", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())

		hub.Notify(42, event(10, model.StatusAccepted))

		assert.Equal(t, 0, hub.Len())
	})

	t.Run("a failed write evicts the connection", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())
		conn := &fakeConn{writeErr: errors.New("broken pipe")}
		hub.Register(1, conn)

		hub.Notify(1, event(10, model.StatusShopping))

		assert.True(t, conn.closed)
		assert.Equal(t, 0, hub.Len())
	})
}

func TestHub_Register(t *testing.T) {
	t.Run("a newer connection replaces and closes the old one", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())
		first := &fakeConn{}
		second := &fakeConn{}

		hub.Register(1, first)
		hub.Register(1, second)

		assert.True(t, first.closed)
		assert.Equal(t, 1, hub.Len())

		hub.Notify(1, event(10, model.StatusDelivering))
		assert.Empty(t, first.written)
		assert.Len(t, second.written, 1)
	})

	t.Run("a stale unregister leaves the newer connection alone", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())
		first := &fakeConn{}
		second := &fakeConn{}

		hub.Register(1, first)
		hub.Register(1, second)
		hub.Unregister(1, first)

		assert.Equal(t, 1, hub.Len())

		hub.Unregister(1, second)
		assert.Equal(t, 0, hub.Len())
	})
}

func signToken(t *testing.T, secret string, userID int64, role model.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHandler(t *testing.T) {
	const secret = "handler-secret"

	t.Run("authenticated clients receive order events", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())
		srv := httptest.NewServer(ws.Handler(hub, secret, zap.NewNop()))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + signToken(t, secret, 7, model.RoleCustomer)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

		hub.Notify(7, event(10, model.StatusAccepted))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var got model.Event
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, model.EventOrderUpdated, got.Type)
		assert.Equal(t, int64(10), got.Order.ID)
		assert.Equal(t, model.StatusAccepted, got.Order.Status)
	})

	t.Run("a missing or bad token is rejected before the upgrade", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())
		srv := httptest.NewServer(ws.Handler(hub, secret, zap.NewNop()))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, err = http.Get(srv.URL + "?token=garbage")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("closing the socket unregisters the user", func(t *testing.T) {
		hub := ws.NewHub(zap.NewNop())
		srv := httptest.NewServer(ws.Handler(hub, secret, zap.NewNop()))
		defer srv.Close()

		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + signToken(t, secret, 7, model.RoleCustomer)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

		require.NoError(t, conn.Close())
		require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)
	})
}
