package ws

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/minhdn/taskquest/internal/auth"
)

// HandleWebSocket upgrades authenticated connections to WebSocket and runs
// them as Hub clients scoped to the requesting user.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
	}
}
