package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"antares-helpdesk/pkg/api"
	"antares-helpdesk/pkg/utils"
	appwebsocket "antares-helpdesk/pkg/websocket"
)

type WebSocketController struct {
	hub      *appwebsocket.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWebSocketController(hub *appwebsocket.Hub, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WebSocketController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
		logger: logger,
	}
}

// ServeWs подписывает вкладку на канал notifications:{userId}.
// Токен приходит в ?token= и проверяется middleware до апгрейда.
func (ctrl *WebSocketController) ServeWs(c echo.Context) error {
	actor, err := utils.GetActorFromCtx(c.Request().Context())
	if err != nil {
		return api.ErrorResponse(c, err, ctrl.logger)
	}

	channelID := c.QueryParam("channel_id")
	if channelID == "" {
		channelID = uuid.NewString()
	}

	conn, err := ctrl.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		ctrl.logger.Error("WebSocket: не удалось установить соединение", zap.Error(err))
		return nil
	}

	client := appwebsocket.NewClient(ctrl.hub, conn, actor.UserID, channelID)
	ctrl.hub.Register(client)
	if err := ctrl.hub.AckSubscription(client); err != nil {
		ctrl.logger.Warn("WebSocket: не удалось подтвердить подписку", zap.Error(err))
	}

	go client.WritePump()
	go client.ReadPump()

	ctrl.logger.Info("WebSocket: клиент подключен",
		zap.String("userID", actor.UserID.String()),
		zap.String("channel", client.Channel()),
		zap.String("channelID", channelID),
	)
	return nil
}
