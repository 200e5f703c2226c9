package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

var singletonMutex sync.Mutex

// hubListener ties a connection to the player it authenticated as, if
// any. Anonymous spectators carry an empty ownerId.
type hubListener struct {
	conn    *websocket.Conn
	ownerId string
}

type WebSocketNotificationHub struct {
	registrationMutex sync.Mutex
	listeners         map[string][]hubListener
}

func (hub *WebSocketNotificationHub) RegisterListener(topic string, ownerId string, conn *websocket.Conn) {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	hub.listeners[topic] = append(hub.listeners[topic], hubListener{conn: conn, ownerId: ownerId})
}

func (hub *WebSocketNotificationHub) UnregisterListener(topic string, conn *websocket.Conn) {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	connAddrToClose := conn.RemoteAddr()

	if len(hub.listeners[topic]) == 1 {
		delete(hub.listeners, topic)
		return
	}

	var indexToDelete int
	for i, listener := range hub.listeners[topic] {
		connAddr := listener.conn.RemoteAddr()
		if connAddr == connAddrToClose {
			indexToDelete = i
			break
		}
	}

	hub.listeners[topic] = append(hub.listeners[topic][:indexToDelete], hub.listeners[topic][indexToDelete+1:]...)
}

func (hub *WebSocketNotificationHub) Publish(targetTopic string, event any) {
	hub.publish(targetTopic, event, nil)
}

func (hub *WebSocketNotificationHub) publish(targetTopic string, event any, exclude []string) {
	hub.registrationMutex.Lock()
	conns := append([]hubListener{}, hub.listeners[targetTopic]...)
	hub.registrationMutex.Unlock()

	for _, listener := range conns {
		if listener.ownerId != "" && contains(exclude, listener.ownerId) {
			continue
		}
		_ = listener.conn.WriteJSON(event)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// PushToPlayer and BroadcastToRoom are the two delivery shapes the
// match registry needs. Players listen on their own topic, onlookers on
// the room topic. Participants are excluded from room broadcasts since
// they already receive their redacted push.

func (hub *WebSocketNotificationHub) PushToPlayer(playerId string, event any) {
	hub.Publish(PlayerTopic(playerId), event)
}

func (hub *WebSocketNotificationHub) BroadcastToRoom(room string, event any, excludePlayerIds ...string) {
	hub.publish(RoomTopic(room), event, excludePlayerIds)
}

func PlayerTopic(playerId string) string {
	return "player:" + playerId
}

func RoomTopic(room string) string {
	return "room:" + room
}

var notificationHubSingleton *WebSocketNotificationHub

func NewNotificationHub() *WebSocketNotificationHub {
	singletonMutex.Lock()
	defer singletonMutex.Unlock()

	if notificationHubSingleton == nil {
		notificationHubSingleton = &WebSocketNotificationHub{
			listeners: make(map[string][]hubListener),
		}
	}

	return notificationHubSingleton
}
