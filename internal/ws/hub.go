// Package ws рассылает снимки очередей и списков тем подписчикам по WebSocket.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"defense_queue/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

// RenderFunc превращает событие движка в готовое сообщение.
type RenderFunc func(ctx context.Context, ev events.Event) ([]byte, error)

// Hub хранит подключения клиентов, сгруппированные по каналу
// ("queue:<id>" или "topics:<subject>").
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage
	direct     chan directMessage
	done       chan struct{}
	mu         sync.RWMutex

	render RenderFunc
	logger *slog.Logger
}

// BroadcastMessage — сообщение для рассылки в один канал.
type BroadcastMessage struct {
	Channel string
	Message []byte
}

// directMessage — сообщение одному клиенту (первый снимок после подписки).
type directMessage struct {
	client  *Client
	message []byte
}

func NewHub(render RenderFunc, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, sendBuffer),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
		render:     render,
		logger:     logger,
	}
}

// Run обрабатывает регистрацию и рассылку до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.Channel] == nil {
				h.clients[client.Channel] = make(map[*Client]bool)
			}
			h.clients[client.Channel][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case dm := <-h.direct:
			h.mu.Lock()
			if h.clients[dm.client.Channel][dm.client] {
				select {
				case dm.client.Send <- dm.message:
				default:
					h.drop(dm.client)
				}
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.Channel] {
				select {
				case client.Send <- message.Message:
				default:
					// Медленный клиент: отключаем, чтобы не задерживать остальных.
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop вызывается под h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.clients[client.Channel]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.Channel)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.drop(client)
		}
	}
}

// Clients — число подписчиков канала.
func (h *Hub) Clients(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}

// Broadcast ставит готовое сообщение в очередь рассылки. Если очередь
// переполнена, сообщение отбрасывается: следующий снимок всё равно полный.
func (h *Hub) Broadcast(channel string, message []byte) {
	select {
	case h.broadcast <- BroadcastMessage{Channel: channel, Message: message}:
	default:
		h.logger.Warn("ws broadcast dropped", slog.String("channel", channel))
	}
}

// Publish реализует events.Publisher для одного экземпляра сервиса.
func (h *Hub) Publish(ctx context.Context, ev events.Event) {
	payload, err := h.render(ctx, ev)
	if err != nil {
		h.logger.Error("ws render failed", slog.String("event", ev.Type), slog.Any("error", err))
		return
	}
	h.Broadcast(ev.Channel, payload)
}

// Client представляет одно подключение через WebSocket.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Channel string
}

// readPump нужен только для обработки pong и обнаружения разрыва;
// входящие сообщения игнорируются.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotFunc возвращает текущий снимок канала; nil — снимка нет.
type SnapshotFunc func() ([]byte, error)

// Serve обновляет соединение до WebSocket и подписывает клиента на channel.
// Снимок читается уже после регистрации, поэтому изменения, сделанные во время
// подключения, клиент не теряет: они придут событием или войдут в снимок.
func (h *Hub) Serve(c *gin.Context, channel string, snapshot SnapshotFunc) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("channel", channel), slog.Any("error", err))
		return
	}
	client := &Client{
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Channel: channel,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()

	if snapshot != nil {
		initial, err := snapshot()
		if err != nil {
			h.logger.Error("ws snapshot failed", slog.String("channel", channel), slog.Any("error", err))
		} else if len(initial) > 0 {
			select {
			case h.direct <- directMessage{client: client, message: initial}:
			case <-h.done:
			}
		}
	}
	client.readPump()
}

var _ events.Publisher = (*Hub)(nil)
