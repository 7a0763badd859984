package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/chain"
	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/logging"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// For early development we accept any origin; tighten later.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventEnvelope is the wire shape pushed to websocket subscribers.
type eventEnvelope struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// EventHub fans contract events out to connected websocket clients. It
// implements chain.EventSink so the contract client can feed it directly.
type EventHub struct {
	logger *logging.ColoredLogger

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewEventHub creates an empty hub.
func NewEventHub(logger *logging.ColoredLogger) *EventHub {
	return &EventHub{
		logger: logger,
		subs:   make(map[chan []byte]struct{}),
	}
}

// HandleInvoiceCreated implements chain.EventSink.
func (h *EventHub) HandleInvoiceCreated(ctx context.Context, ev chain.InvoiceCreatedEvent) error {
	h.broadcast("InvoiceCreated", ev)
	return nil
}

// HandleInvoiceTraded implements chain.EventSink.
func (h *EventHub) HandleInvoiceTraded(ctx context.Context, ev chain.InvoiceTradedEvent) error {
	h.broadcast("InvoiceTraded", ev)
	return nil
}

func (h *EventHub) broadcast(eventType string, data any) {
	payload, err := json.Marshal(eventEnvelope{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
			// Drop if client is slow to avoid blocking event delivery
			h.logger.ComponentWarn(logging.ComponentEvents, "ws client slow, dropping event",
				zap.String("type", eventType))
		}
	}
}

func (h *EventHub) subscribe() chan []byte {
	ch := make(chan []byte, 128)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// eventsWebsocketHandler upgrades to WS and streams contract events to the
// client. The connection is read-only from the client's perspective; inbound
// messages are discarded.
func (g *Gateway) eventsWebsocketHandler(w http.ResponseWriter, r *http.Request) {
	if g.hub == nil {
		writeError(w, errors.NewNotInitializedError(nil))
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.ComponentWarn(logging.ComponentGateway, "events ws: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	msgs := g.hub.subscribe()
	defer g.hub.unsubscribe(msgs)

	// Writer loop
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case b, ok := <-msgs:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(5*time.Second))
					close(done)
					return
				}
				conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					close(done)
					return
				}
			case <-ticker.C:
				// Ping keepalive
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			case <-r.Context().Done():
				close(done)
				return
			}
		}
	}()

	// Reader loop: drain until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	<-done
}
