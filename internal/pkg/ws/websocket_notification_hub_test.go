package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *WebSocketNotificationHub {
	return &WebSocketNotificationHub{listeners: make(map[string][]hubListener)}
}

// dialListener connects a client to the test server and registers it on
// the room topic under the given owner id.
func dialListener(t *testing.T, serverUrl string, ownerId string) *websocket.Conn {
	t.Helper()
	wsUrl := "ws" + strings.TrimPrefix(serverUrl, "http") + "?owner=" + ownerId
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRoomBroadcastSkipsExcludedOwner(t *testing.T) {
	hub := newTestHub()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.RegisterListener(RoomTopic("plaza"), r.URL.Query().Get("owner"), conn)
	}))
	defer server.Close()

	participant := dialListener(t, server.URL, "p1")
	spectator := dialListener(t, server.URL, "")

	// registration happens in the server handler; wait for both listeners
	require.Eventually(t, func() bool {
		hub.registrationMutex.Lock()
		defer hub.registrationMutex.Unlock()
		return len(hub.listeners[RoomTopic("plaza")]) == 2
	}, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom("plaza", map[string]string{"type": "moveApplied"}, "p1")

	var received map[string]string
	require.NoError(t, spectator.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, spectator.ReadJSON(&received))
	assert.Equal(t, "moveApplied", received["type"])

	require.NoError(t, participant.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	err := participant.ReadJSON(&received)
	assert.Error(t, err, "the excluded participant must not receive the room event")
}

func TestAnonymousListenerIsNeverExcluded(t *testing.T) {
	hub := newTestHub()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.RegisterListener(RoomTopic("plaza"), r.URL.Query().Get("owner"), conn)
	}))
	defer server.Close()

	spectator := dialListener(t, server.URL, "")

	require.Eventually(t, func() bool {
		hub.registrationMutex.Lock()
		defer hub.registrationMutex.Unlock()
		return len(hub.listeners[RoomTopic("plaza")]) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// an empty exclusion entry must not match the anonymous listener
	hub.BroadcastToRoom("plaza", map[string]string{"type": "matchEnded"}, "")

	var received map[string]string
	require.NoError(t, spectator.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, spectator.ReadJSON(&received))
	assert.Equal(t, "matchEnded", received["type"])
}
