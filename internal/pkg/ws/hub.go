package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/qs3c/creatorhub_server/internal/pkg/pubsub"
)

// 单次写入超时，慢连接直接踢掉，不拖累同一用户的其他连接
const writeWait = 5 * time.Second

const FrameNotification = "notification"

// Hub 按用户维护在线连接，把通知推给该用户的所有连接
type Hub struct {
	// 一个用户可以同时开多个标签页
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
	mu     sync.Mutex // 串行写
}

// Frame 推给浏览器的消息
type Frame struct {
	Type string                      `json:"type"`
	Data *pubsub.NotificationMessage `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}

	logrus.WithFields(logrus.Fields{
		"user_id":    client.UserID,
		"user_conns": len(h.clients[client.UserID]),
	}).Debug("websocket connected")
}

// Unregister 可重复调用
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	conns, ok := h.clients[client.UserID]
	if ok {
		if _, ok = conns[client]; ok {
			delete(conns, client)
			if len(conns) == 0 {
				delete(h.clients, client.UserID)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		logrus.WithField("user_id", client.UserID).Debug("websocket disconnected")
	}
}

// Listen 阻塞读取直到连接断开，然后注销并关闭连接；客户端发来的内容一律丢弃
func (h *Hub) Listen(client *Client) {
	defer func() {
		h.Unregister(client)
		client.Conn.Close()
	}()
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// PushNotification 把通知推给 msg.UserID 的所有在线连接，返回成功写入的连接数
// 写失败的连接会被注销并关闭
func (h *Hub) PushNotification(msg *pubsub.NotificationMessage) (int, error) {
	data, err := json.Marshal(&Frame{Type: FrameNotification, Data: msg})
	if err != nil {
		return 0, err
	}

	h.mu.RLock()
	conns := h.clients[msg.UserID]
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if err := c.write(data); err != nil {
			logrus.WithError(err).WithField("user_id", msg.UserID).Warn("websocket write failed, dropping connection")
			h.Unregister(c)
			c.Conn.Close()
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount 所有用户的在线连接总数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
