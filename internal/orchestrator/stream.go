package orchestrator

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamRequest is the incoming WebSocket message format.
type streamRequest struct {
	ID      string           `json:"id"`
	Request advisory.Request `json:"request"`
}

// streamMessage is the outgoing WebSocket message format.
type streamMessage struct {
	Type   string           `json:"type"` // "loading", "result" or "error"
	ID     string           `json:"id,omitempty"`
	Kind   advisory.Kind    `json:"kind,omitempty"`
	Result *advisory.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Status int              `json:"status,omitempty"`
}

// streamConn serialises writes; gorilla connections allow one writer at a time.
type streamConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *streamConn) send(msg streamMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("orchestrator: websocket write: %v", err)
	}
}

// handleStream accepts advisory requests over a WebSocket. Each request is
// answered with a "loading" message followed by a "result" or "error";
// requests run concurrently, so replies may arrive out of order.
func handleStream(o *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("orchestrator: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		sc := &streamConn{conn: conn}
		var wg sync.WaitGroup
		defer wg.Wait()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("orchestrator: websocket read: %v", err)
				}
				return
			}

			var req streamRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sc.send(streamMessage{Type: "error", Error: "invalid message format", Status: http.StatusBadRequest})
				continue
			}

			sc.send(streamMessage{Type: "loading", ID: req.ID, Kind: req.Request.Kind})
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := o.Submit(r.Context(), req.Request)
				if err != nil {
					sc.send(streamMessage{Type: "error", ID: req.ID, Kind: req.Request.Kind, Error: advisory.UserMessage(err), Status: StatusCode(err)})
					return
				}
				sc.send(streamMessage{Type: "result", ID: req.ID, Kind: res.Kind, Result: res})
			}()
		}
	}
}
