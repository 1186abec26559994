package api

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/annel0/rewind/internal/clock"
	"github.com/annel0/rewind/internal/eventbus"
	"github.com/annel0/rewind/internal/logging"
	"github.com/annel0/rewind/internal/world"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamMessage событие часов вместе с их состоянием после события
type StreamMessage struct {
	ID    string      `json:"id"`
	Event string      `json:"event"`
	Time  time.Time   `json:"time"`
	Clock clock.State `json:"clock"`
}

// streamHub раздаёт события часов подключённым клиентам.
// Обработчик шины вызывается из цикла сцены и не блокируется:
// медленный клиент теряет сообщения.
type streamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	sub     eventbus.Subscription
	dropped atomic.Uint64
	log     *logging.Logger
}

type streamClient struct {
	conn *websocket.Conn
	send chan StreamMessage
}

func newStreamHub(clk *clock.Clock, log *logging.Logger) *streamHub {
	h := &streamHub{
		clients: make(map[*streamClient]struct{}),
		log:     log,
	}
	h.sub = clk.Subscribe(eventbus.Filter{}, func(ev *eventbus.Envelope) {
		h.broadcast(StreamMessage{
			ID:    ev.ID,
			Event: string(ev.EventType),
			Time:  ev.Timestamp,
			Clock: clk.State(),
		})
	})
	return h
}

func (h *streamHub) broadcast(msg StreamMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *streamHub) register(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("📡 Подписчик потока подключён, всего %d", n)
}

func (h *streamHub) unregister(c *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("📴 Подписчик потока отключён, осталось %d", n)
}

func (h *streamHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// close отписывается от часов и закрывает все соединения
func (h *streamHub) close() {
	h.sub.Unsubscribe()
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (s *Server) handleStream(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	st, err := world.Query(ctx, s.scene, "stream.hello", func(sc *world.Scene) (clock.State, error) {
		return sc.Clock().State(), nil
	})
	cancel()
	if err != nil {
		s.fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("⚠️ Upgrade error: %v", err)
		return
	}

	client := &streamClient{conn: conn, send: make(chan StreamMessage, sendBuffer)}
	client.send <- StreamMessage{Event: "hello", Time: time.Now().UTC(), Clock: st}
	s.stream.register(client)

	go s.writePump(client)
	s.readPump(client)
}

// readPump нужен только чтобы заметить закрытие соединения и обработать pong
func (s *Server) readPump(c *streamClient) {
	defer func() {
		s.stream.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("WS error: %v", err)
			}
			return
		}
	}
}

// writePump отправляет события клиенту и пингует его
func (s *Server) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				s.log.Debug("write json failed: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
