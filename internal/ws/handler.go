package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"grocermart/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The SPA is served from arbitrary dev hosts; auth happens via token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades /ws requests and ties the connection lifetime to the
// hub registration. Identity comes from the token in the query string
// because browser WebSocket clients cannot set an Authorization header.
func Handler(hub *Hub, jwtSecret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = r.Header.Get("Sec-WebSocket-Protocol")
		}
		actor, err := service.ParseToken(jwtSecret, token)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		hub.Register(actor.UserID, conn)

		// The channel is outbound-only. The read loop exists to observe
		// close and error frames; inbound payloads are discarded.
		go func() {
			defer func() {
				hub.Unregister(actor.UserID, conn)
				_ = conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
