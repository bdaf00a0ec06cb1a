// Package notify implements the per-request notification channel that
// surfaces pipeline progress and retry state to a waiting SSE subscriber.
//
// The Hub owns a synchronized map of request id → bounded event queue.
// Delivery is best-effort and at-most-once: a full queue drops the newest
// event instead of blocking the publishing worker, and a publish against an
// unknown (or already removed) request id is silently ignored. Events for a
// given request are delivered in publish order; nothing is guaranteed
// across requests.
package notify

import (
	"context"
	"sync"
	"time"
)

// Event types published over a request's queue.
const (
	EventConnected      = "connected"
	EventRetry          = "retry"
	EventQuotaRetry     = "quota_exhausted_retry"
	EventRetryComplete  = "retry_complete"
	EventAuditStarted   = "audit_started"
	EventAuditCompleted = "audit_completed"
	EventAuditError     = "audit_error"
	EventError          = "error"
)

// QueueCapacity bounds each request's event queue. Producers never block on
// a slow subscriber; beyond this many undelivered events, new ones are lost.
const QueueCapacity = 100

// Event is a single notification published for a request.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Hub routes events to per-request queues. Safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	queues map[string]chan Event
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{queues: make(map[string]chan Event)}
}

// Register ensures a queue exists for requestID and returns its channel.
// Either side may arrive first: the SSE subscriber connecting, or the audit
// submission that will publish into it.
func (h *Hub) Register(requestID string) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	q, ok := h.queues[requestID]
	if !ok {
		q = make(chan Event, QueueCapacity)
		h.queues[requestID] = q
	}
	return q
}

// Emit publishes an event for requestID. When requestID is empty it is
// resolved from the context binding set by WithRequestID; if neither yields
// an id, or no queue exists for it, the event is dropped. A full queue also
// drops the event rather than blocking the producer.
func (h *Hub) Emit(ctx context.Context, requestID, eventType string, payload map[string]any) {
	if requestID == "" {
		requestID = RequestIDFrom(ctx)
	}
	if requestID == "" {
		return
	}

	// The send happens under the same lock that guards Remove's map delete:
	// once a queue leaves the map it may be closed at any moment, and a send
	// on a closed channel panics. The send is non-blocking, so holding the
	// mutex here cannot stall.
	h.mu.Lock()
	defer h.mu.Unlock()
	q, ok := h.queues[requestID]
	if !ok {
		return
	}

	ev := Event{Type: eventType, Timestamp: time.Now().UTC(), Payload: payload}
	select {
	case q <- ev:
	default:
		// Queue full: drop instead of stalling the pipeline worker.
	}
}

// Remove tears down the queue for requestID and closes its channel so a
// draining subscriber observes end-of-stream. Publishes that race with or
// follow removal are dropped by Emit.
func (h *Hub) Remove(requestID string) {
	h.mu.Lock()
	q, ok := h.queues[requestID]
	if ok {
		delete(h.queues, requestID)
	}
	h.mu.Unlock()
	if ok {
		// By now the queue is out of the map and Emit only sends while
		// holding the lock, so nothing can still be sending here.
		close(q)
	}
}

// Len reports the number of live queues. Used by tests and metrics.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queues)
}
