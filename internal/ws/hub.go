package ws

import (
	"sync"

	"go.uber.org/zap"

	"grocermart/internal/metrics"
	"grocermart/internal/model"
)

// Conn is the slice of a live connection the hub needs. Satisfied by
// *websocket.Conn; tests plug in fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub maps a user id to at most one live connection. It is owned by the
// server process; a multi-instance deployment would need a shared
// broadcast layer in front of it (the order-events topic exists for that).
type Hub struct {
	mu     sync.Mutex
	conns  map[int64]Conn
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[int64]Conn),
		logger: logger,
	}
}

// Register attaches a connection for the user. A newer connection for
// the same user replaces and closes the previous one.
func (h *Hub) Register(userID int64, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.conns[userID]; ok {
		_ = old.Close()
	} else {
		metrics.LiveConnections.Inc()
	}
	h.conns[userID] = conn
	h.logger.Info("live connection registered", zap.Int64("user_id", userID))
}

// Unregister detaches conn if it is still the user's current connection.
// A stale close after a replacement leaves the newer connection alone.
func (h *Hub) Unregister(userID int64, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.conns[userID]; ok && current == conn {
		delete(h.conns, userID)
		metrics.LiveConnections.Dec()
		h.logger.Info("live connection unregistered", zap.Int64("user_id", userID))
	}
}

// Notify delivers one event to the user's connection, at most once. With
// no registered connection the event is silently dropped; a failed write
// drops the connection and the event.
func (h *Hub) Notify(userID int64, event model.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[userID]
	if !ok {
		metrics.NotificationsDroppedTotal.Inc()
		return
	}

	if err := conn.WriteJSON(event); err != nil {
		h.logger.Warn("dropping live connection after failed send",
			zap.Int64("user_id", userID),
			zap.Error(err))
		_ = conn.Close()
		delete(h.conns, userID)
		metrics.LiveConnections.Dec()
		metrics.NotificationsDroppedTotal.Inc()
		return
	}

	metrics.NotificationsSentTotal.Inc()
}

// Len reports the number of registered connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
