// Server-Sent Events stream for audit progress.
//
// Clients attach to GET /audit/stream/{request_id} before (or during) a
// submission carrying the same request_id and receive pipeline events as
// `data:` JSON lines. The stream opens with a "connected" event, forwards
// every event published for the request id, and writes a keep-alive comment
// after 30 seconds of silence so intermediaries do not reap the idle
// connection. The
// stream ends when the client disconnects or the event queue is closed after
// the terminal event.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-seo-audit-backend/internal/http/middleware"
	"github.com/tbourn/go-seo-audit-backend/internal/notify"
)

// keepAliveInterval is the idle window after which an SSE comment is
// written. The timer restarts on every delivered event; only silence
// produces a comment. Variable so tests can shrink it.
var keepAliveInterval = 30 * time.Second

// StreamAudit godoc
// @ID          streamAudit
// @Summary     Stream audit progress
// @Description Server-Sent Events stream of pipeline progress for a request id. Emits a "connected" event first, then retry and lifecycle events as they happen.
// @Tags        Audits
// @Produce     text/event-stream
//
// @Param       request_id  path  string  true  "Request ID"
//
// @Success     200  {string}  string  "SSE stream"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing request id"
// @Router      /audit/stream/{request_id} [get]
func (h *Handlers) StreamAudit(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("request_id"))
	if requestID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id required")
		return
	}

	flusher, okf := c.Writer.(http.Flusher)
	if !okf {
		fail(c, http.StatusInternalServerError, ErrCodeStreamUnsupported, "streaming unsupported by server")
		return
	}

	ch := h.hub.Register(requestID)
	defer h.hub.Remove(requestID)

	middleware.StreamOpened()
	defer middleware.StreamClosed()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	// The stream is long-lived; the server-wide write deadline must not
	// apply to it.
	rc := http.NewResponseController(c.Writer)
	_ = rc.SetWriteDeadline(time.Time{})

	lg := middleware.LoggerFrom(c)
	lg.Info().Str("stream_request_id", requestID).Msg("stream attached")

	writeEvent(c, flusher, notify.Event{
		Type:      notify.EventConnected,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]any{"request_id": requestID},
	})

	keepAlive := time.NewTimer(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			lg.Info().Str("stream_request_id", requestID).Msg("stream client disconnected")
			return
		case ev, open := <-ch:
			if !open {
				lg.Info().Str("stream_request_id", requestID).Msg("stream finished")
				return
			}
			writeEvent(c, flusher, ev)
			resetKeepAlive(keepAlive)
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
			keepAlive.Reset(keepAliveInterval)
		}
	}
}

// resetKeepAlive restarts the idle timer after a delivered event. The timer
// may have fired between the event arriving and this call; the drain keeps
// that stale tick from producing an immediate keep-alive.
func resetKeepAlive(tm *time.Timer) {
	if !tm.Stop() {
		select {
		case <-tm.C:
		default:
		}
	}
	tm.Reset(keepAliveInterval)
}

// writeEvent serializes one event as an SSE data line and flushes it.
func writeEvent(c *gin.Context, flusher http.Flusher, ev notify.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", raw)
	flusher.Flush()
}
