package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bom-tracker/internal/auth"
)

// StreamOrderEvents pushes the caller's order events until the client goes
// away.
func (h *Handler) StreamOrderEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// the stream outlives the server write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.Logger.Warn("SSE", fmt.Sprintf("clear write deadline: %v", err))
	}

	userID := auth.UserID(r.Context())
	setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.Events.Subscribe(ctx, userID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"userId\":%d}\n\n", userID)
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to order events for user %d", userID))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for user %d", userID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize order event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			if err := rc.Flush(); err != nil {
				return
			}

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from order events for user %d", userID))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
