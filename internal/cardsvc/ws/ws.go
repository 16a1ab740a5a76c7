package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/avvvet/gate-services/internal/comm"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 32
)

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex // guards send against close
	closed bool
}

// enqueue reports false when the client's queue is full.
func (c *client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump is the only writer on conn. It exits when send is closed or a
// write fails.
func (c *client) writePump(socketId string) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warnf("Failed to send event to socket %s: %v", socketId, err)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Ws pushes events to connected dashboards. Clients only listen; anything
// they send is read and dropped.
type Ws struct {
	upgrader websocket.Upgrader
	connMap  sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Ws) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	socketId := uuid.New().String()
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.connMap.Store(socketId, c)
	log.Infof("New WebSocket connection established: %s", socketId)

	go c.writePump(socketId)
	go s.handleConnection(c, socketId)
}

func (s *Ws) handleConnection(c *client, socketId string) {
	conn := c.conn
	defer func() {
		log.Infof("Closing WebSocket connection: %s", socketId)
		s.connMap.Delete(socketId)
		c.close()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", socketId, err)
			}
			return
		}
	}
}

// Notify queues ev for every connected socket and never blocks on the
// network. A socket whose queue is full is dropped.
func (s *Ws) Notify(ev comm.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("Failed to marshal event %s: %v", ev.Type, err)
		return
	}

	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		if !c.enqueue(data) {
			log.Warnf("Socket %s is not keeping up, closing it", key)
			s.connMap.Delete(key)
			c.close()
		}
		return true
	})
}

func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
