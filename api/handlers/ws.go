package handlers

import (
	"net/http"

	"socialposts/api/middleware"
	"socialposts/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationHandlers отдает уведомления об активности по websocket
type NotificationHandlers struct {
	hub *services.WSConnManager
	log *zap.Logger
}

func NewNotificationHandlers(hub *services.WSConnManager, log *zap.Logger) *NotificationHandlers {
	return &NotificationHandlers{hub: hub, log: log}
}

// Subscribe - GET /api/ws/notifications
func (h *NotificationHandlers) Subscribe(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.log.Debug("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	h.hub.Add(userID, conn)
	defer h.hub.Remove(userID, conn)

	h.hub.Send(userID, []byte(`{"event":"connected"}`))

	// входящие сообщения не ожидаются; чтение нужно, чтобы заметить закрытие
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debug("websocket closed", zap.Int64("user_id", userID), zap.Error(err))
			return
		}
	}
}
