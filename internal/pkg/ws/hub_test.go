package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/creatorhub_server/internal/pkg/pubsub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// dial 启动一个测试服务器，把服务端连接注册到 hub，返回客户端连接
func dial(t *testing.T, hub *Hub, userID int64) (*websocket.Conn, *Client) {
	t.Helper()

	registered := make(chan *Client, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: userID, Conn: conn}
		hub.Register(client)
		registered <- client
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case c := <-registered:
		return conn, c
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
		return nil, nil
	}
}

func TestHub_Empty(t *testing.T) {
	hub := NewHub()

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline(123))
	n, err := hub.PushNotification(&pubsub.NotificationMessage{UserID: 123, Kind: "order_paid"})
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHub_RegisterAndSend(t *testing.T) {
	hub := NewHub()

	conn1, _ := dial(t, hub, 7)
	conn2, _ := dial(t, hub, 7)

	assert.True(t, hub.IsOnline(7))
	assert.Equal(t, 2, hub.ConnectionCount())

	n, err := hub.PushNotification(&pubsub.NotificationMessage{
		UserID:         7,
		NotificationID: 42,
		Kind:           "order_paid",
		Title:          "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, FrameNotification, frame.Type)
		require.NotNil(t, frame.Data)
		assert.Equal(t, int64(42), frame.Data.NotificationID)
		assert.Equal(t, "order_paid", frame.Data.Kind)
	}

	// 其他用户收不到
	n, err = hub.PushNotification(&pubsub.NotificationMessage{UserID: 8, Kind: "order_paid"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHub_PushDropsBrokenConnection(t *testing.T) {
	hub := NewHub()

	_, client := dial(t, hub, 11)
	conn2, _ := dial(t, hub, 11)
	require.Equal(t, 2, hub.ConnectionCount())

	// 服务端连接已关闭，写入必然失败
	require.NoError(t, client.Conn.Close())

	n, err := hub.PushNotification(&pubsub.NotificationMessage{UserID: 11, Kind: "new_subscriber"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, hub.ConnectionCount())
	assert.True(t, hub.IsOnline(11))

	conn2.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn2.ReadMessage()
	require.NoError(t, err)
}

func TestHub_ListenUnregistersOnClose(t *testing.T) {
	hub := NewHub()

	conn, client := dial(t, hub, 12)
	done := make(chan struct{})
	go func() {
		hub.Listen(client)
		close(done)
	}()

	require.NoError(t, conn.Close())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not return after client closed")
	}
	assert.False(t, hub.IsOnline(12))
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()

	_, client := dial(t, hub, 9)
	require.True(t, hub.IsOnline(9))

	hub.Unregister(client)
	assert.False(t, hub.IsOnline(9))
	assert.Equal(t, 0, hub.ConnectionCount())

	// 重复注销不报错
	hub.Unregister(client)
}
