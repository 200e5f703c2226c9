package ws

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/match"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/middleware"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/utils"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/ws"
)

type wsHandler struct {
	notificationHub *ws.WebSocketNotificationHub
	registry        *match.Registry
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func RegisterRoutes(rg *gin.RouterGroup, registry *match.Registry) {
	handler := wsHandler{
		notificationHub: ws.NewNotificationHub(),
		registry:        registry,
	}

	routes := rg.Group("/ws")
	routes.GET("/me", middleware.VerifyAuthToken, handler.servePlayer)
	routes.GET("/rooms/:room", middleware.IdentifyAuthToken, handler.serveRoom)
}

// servePlayer is the personal event stream. A snapshot of the caller's
// current match, if any, is pushed right after the upgrade so a
// reconnecting client does not wait for the next move.
func (wsh *wsHandler) servePlayer(c *gin.Context) {
	playerId := utils.GetUserExternalId(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	topic := ws.PlayerTopic(playerId)
	wsh.notificationHub.RegisterListener(topic, playerId, conn)
	defer wsh.notificationHub.UnregisterListener(topic, conn)

	if matchId, ok := wsh.registry.ActiveMatchFor(playerId); ok {
		if view, viewErr := wsh.registry.GetMatchState(matchId, playerId); viewErr == nil {
			_ = conn.WriteJSON(match.Event{Type: match.EventMoveApplied, MatchId: matchId, Payload: view})
		}
	}

	drain(conn)
}

func (wsh *wsHandler) serveRoom(c *gin.Context) {
	room := c.Param("room")
	viewerId := utils.GetViewerId(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	topic := ws.RoomTopic(room)
	wsh.notificationHub.RegisterListener(topic, viewerId, conn)
	defer wsh.notificationHub.UnregisterListener(topic, conn)

	for _, view := range wsh.registry.ListActiveInRoom(room) {
		_ = conn.WriteJSON(match.Event{Type: match.EventMoveApplied, MatchId: view.MatchId, Payload: view})
	}

	drain(conn)
}

func drain(conn *websocket.Conn) {
	for {
		var buffer any
		err := conn.ReadJSON(&buffer)
		if err != nil {
			log.Warn().Err(err).Msg("Error reading ws message")
			return
		}
	}
}
