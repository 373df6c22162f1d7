package payments

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// statusEvent is the message pushed to subscribers when a watched
// payment reaches a terminal state
type statusEvent struct {
	PaymentID string        `json:"paymentId"`
	State     MonitorState  `json:"state"`
	Status    PaymentStatus `json:"status,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// PushHub fans payment outcomes out to WebSocket subscribers. A client
// subscribes for a single payment id and receives one terminal event.
type PushHub struct {
	mu          sync.RWMutex
	subscribers map[string][]*websocket.Conn
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewPushHub creates a payment status push hub
func NewPushHub(logger *zap.Logger) *PushHub {
	return &PushHub{
		subscribers: make(map[string][]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Subscribe upgrades the connection and registers it for a payment id
func (h *PushHub) Subscribe(w http.ResponseWriter, r *http.Request, paymentID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.subscribers[paymentID] = append(h.subscribers[paymentID], conn)
	h.mu.Unlock()

	// Drain reads so close frames are processed; subscribers never send.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(paymentID, conn)
				conn.Close()
				return
			}
		}
	}()

	return nil
}

// Publish delivers a terminal outcome to every subscriber of the
// payment and drops them afterwards.
func (h *PushHub) Publish(outcome Outcome) {
	event := statusEvent{
		PaymentID: outcome.PaymentID,
		State:     outcome.State,
		Status:    outcome.Status,
	}
	if outcome.Err != nil {
		event.Error = outcome.Err.Error()
	}

	h.mu.Lock()
	conns := h.subscribers[outcome.PaymentID]
	delete(h.subscribers, outcome.PaymentID)
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("Failed to push payment status",
				zap.String("payment_id", outcome.PaymentID), zap.Error(err))
		}
		conn.Close()
	}
}

func (h *PushHub) remove(paymentID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[paymentID]
	for i, c := range conns {
		if c == conn {
			h.subscribers[paymentID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.subscribers[paymentID]) == 0 {
		delete(h.subscribers, paymentID)
	}
}
