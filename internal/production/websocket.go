package production

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/comalice/chromafsm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 2 * time.Second
	wsClientSend = 64
)

// WebSocketPublisher streams transition records as JSON text frames to every
// connected client. Slow clients lose records rather than blocking the machine.
type WebSocketPublisher struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	logger  *log.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewWebSocketPublisher creates a publisher; logger may be nil.
func NewWebSocketPublisher(logger *log.Logger) *WebSocketPublisher {
	return &WebSocketPublisher{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

// ServeHTTP upgrades the request and registers the client until it disconnects.
func (p *WebSocketPublisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logf("upgrade: %v", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, wsClientSend)}

	p.mu.Lock()
	p.clients[c] = struct{}{}
	p.mu.Unlock()

	go p.writeLoop(c)
	// Reads only detect disconnects; clients do not send anything.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	p.remove(c)
}

func (p *WebSocketPublisher) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			p.logf("write: %v", err)
			p.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (p *WebSocketPublisher) remove(c *wsClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clients[c]; ok {
		delete(p.clients, c)
		close(c.send)
	}
}

// ObserveTransition implements chromafsm.TransitionObserver.
func (p *WebSocketPublisher) ObserveTransition(rec chromafsm.TransitionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		p.logf("marshal: %v", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (p *WebSocketPublisher) Clients() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// Close disconnects every client.
func (p *WebSocketPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.clients {
		delete(p.clients, c)
		close(c.send)
	}
	return nil
}

func (p *WebSocketPublisher) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
