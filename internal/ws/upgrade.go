package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"lodelita/config"
	"lodelita/internal/auth"
	"lodelita/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Snapshot produces the first message a new connection receives.
type Snapshot func() interface{}

// UpgradePublic serves the public stream: catalog, settings and gate changes.
func UpgradePublic(hub *Hub, snapshot Snapshot) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Debug("ws upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		serve(hub, conn, NewClient(0, false), snapshot)
	}
}

// UpgradeAdmin serves the admin stream. The access token comes in the token query parameter.
func UpgradeAdmin(cfg *config.JWTConfig, hub *Hub, snapshot Snapshot) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Debug("ws upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		token := c.Query("token")
		if token == "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"token required"}`))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil || claims.Role != domain.RoleAdmin {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			return
		}
		serve(hub, conn, NewClient(claims.AdminID, true), snapshot)
	}
}

func serve(hub *Hub, conn *websocket.Conn, client *Client, snapshot Snapshot) {
	hub.Register(client)
	defer client.Close()
	if snapshot != nil {
		if data, err := json.Marshal(snapshot()); err == nil {
			client.Send <- data
		}
	}
	go writePump(client, conn)
	readPump(conn)
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames until the peer disconnects; clients never send commands.
func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
