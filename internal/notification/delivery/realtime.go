// internal/notification/delivery/realtime.go

// Package delivery holds the outbound channels the fan-out pushes to. Every
// channel absorbs per-recipient failures; the caller decides what to log and
// count.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/geonook/es-international-department-sub001/internal/common/logger"
	"github.com/geonook/es-international-department-sub001/internal/common/metrics"
	"github.com/geonook/es-international-department-sub001/internal/models"
)

// HTTPDoer is the slice of the HTTP client the realtime channel needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RealtimePayload is the wire shape accepted by the real-time transport.
type RealtimePayload struct {
	UserIDs      []string         `json:"userIds"`
	Notification RealtimeEnvelope `json:"notification"`
}

type RealtimeEnvelope struct {
	Type  string                `json:"type"`
	Data  []models.Notification `json:"data"`
	Count int                   `json:"count"`
}

// realtimeEventType names the push event consumed by portal clients.
const realtimeEventType = "new_notifications"

type RealtimeChannel struct {
	endpoint string
	enabled  bool
	client   HTTPDoer
	logger   logger.Logger
}

func NewRealtimeChannel(endpoint string, enabled bool, client HTTPDoer, log logger.Logger) *RealtimeChannel {
	return &RealtimeChannel{
		endpoint: endpoint,
		enabled:  enabled,
		client:   client,
		logger:   log.WithFields(map[string]interface{}{"channel": "realtime"}),
	}
}

func (c *RealtimeChannel) Enabled() bool {
	return c.enabled
}

// Push sends one recipient's batch of freshly persisted notifications to the
// real-time transport. A non-2xx response is logged as a warning and reported
// as an error for bookkeeping only.
func (c *RealtimeChannel) Push(ctx context.Context, userID string, notes []models.Notification) error {
	if !c.enabled || len(notes) == 0 {
		return nil
	}

	metrics.DeliveriesAttempted.WithLabelValues("realtime").Inc()

	payload := RealtimePayload{
		UserIDs: []string{userID},
		Notification: RealtimeEnvelope{
			Type:  realtimeEventType,
			Data:  notes,
			Count: len(notes),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		metrics.DeliveriesFailed.WithLabelValues("realtime").Inc()
		return fmt.Errorf("marshal realtime payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		metrics.DeliveriesFailed.WithLabelValues("realtime").Inc()
		return fmt.Errorf("build realtime request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.DeliveriesFailed.WithLabelValues("realtime").Inc()
		return fmt.Errorf("realtime push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.DeliveriesFailed.WithLabelValues("realtime").Inc()
		c.logger.Warn("realtime transport rejected push", map[string]interface{}{
			"status": resp.StatusCode,
			"userId": userID,
		})
		return fmt.Errorf("realtime transport returned %d", resp.StatusCode)
	}

	return nil
}
