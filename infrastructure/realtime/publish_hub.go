package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"my-campaign/domain/model"
)

// PublishStatusEvent represents an SSE payload for per-variant publish updates.
type PublishStatusEvent struct {
	Type         string  `json:"type"`
	CampaignID   int64   `json:"campaign_id"`
	Language     string  `json:"language"`
	Status       string  `json:"status"`
	PublicURL    *string `json:"public_url,omitempty"`
	Error        *string `json:"error,omitempty"`
	UsedFallback bool    `json:"used_fallback,omitempty"`
}

// Hub maintains per-user subscribers listening for publish status events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan PublishStatusEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{users: make(map[string]map[chan PublishStatusEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PublishStatusEvent, 8)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	notify := c.Writer.CloseNotify()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: publish_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(userID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan PublishStatusEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[userID]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}

// BroadcastPublishStatus fans the record out to every subscriber. Publish runs
// are visible dashboard-wide, so events are not scoped to the initiating user.
func (h *Hub) BroadcastPublishStatus(rec *model.PublishRecord, usedFallback bool) {
	if rec == nil {
		return
	}
	evt := PublishStatusEvent{
		Type:         "publish_status",
		CampaignID:   rec.CampaignID,
		Language:     rec.VariantLanguage,
		Status:       rec.Status,
		PublicURL:    rec.PublicURL,
		Error:        rec.ErrorMessage,
		UsedFallback: usedFallback,
	}
	h.mu.RLock()
	for _, subs := range h.users {
		for ch := range subs {
			select { // non-blocking
			case ch <- evt:
			default:
			}
		}
	}
	h.mu.RUnlock()
}
