package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"cpseval/domain/core"
	"cpseval/internal/analysis"

	"github.com/gin-gonic/gin"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	RunID   core.RunID
	Channel chan analysis.ProgressEvent
}

// SSEHub fans progress events out to Server-Sent Events clients, keyed by run.
type SSEHub struct {
	clients    map[core.RunID]map[chan analysis.ProgressEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan analysis.ProgressEvent
	keepAlive  time.Duration
}

// NewSSEHub creates a new SSE hub and starts its dispatch loop
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[core.RunID]map[chan analysis.ProgressEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan analysis.ProgressEvent, 100),
		keepAlive:  30 * time.Second,
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.RunID] == nil {
				h.clients[client.RunID] = make(map[chan analysis.ProgressEvent]bool)
			}
			h.clients[client.RunID][client.Channel] = true
			log.Printf("[SSE] Client registered for run %s (total clients: %d)",
				client.RunID, len(h.clients[client.RunID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.RunID]; exists {
				delete(clients, client.Channel)
				log.Printf("[SSE] Client unregistered from run %s (remaining clients: %d)",
					client.RunID, len(clients))
				if len(clients) == 0 {
					delete(h.clients, client.RunID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[event.RunID] {
				select {
				case clientChan <- event:
				default:
					log.Printf("[SSE] Client channel full for run %s, skipping event %d",
						event.RunID, event.Seq)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Publish implements analysis.ProgressSink. It never blocks the engine.
func (h *SSEHub) Publish(event analysis.ProgressEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] Broadcast channel full, dropping %s event for %s", event.Phase, event.Group)
	}
}

// Subscribe registers a client channel for runID. The returned function
// unregisters it.
func (h *SSEHub) Subscribe(runID core.RunID) (<-chan analysis.ProgressEvent, func()) {
	ch := make(chan analysis.ProgressEvent, 64)
	h.register <- SSEClient{RunID: runID, Channel: ch}
	return ch, func() {
		h.unregister <- SSEClient{RunID: runID, Channel: ch}
	}
}

// HandleSSE streams progress events of the run named by the :id parameter.
func (h *SSEHub) HandleSSE(c *gin.Context) {
	runID, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, unsubscribe := h.Subscribe(runID)
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event := <-events:
			eventJSON, err := json.Marshal(event)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("progress", string(eventJSON))
			return true

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// ClientCount returns the number of active clients for a run
func (h *SSEHub) ClientCount(runID core.RunID) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[runID])
}
