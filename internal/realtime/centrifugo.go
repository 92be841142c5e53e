package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ===========================================================================
// Centrifugo Client
// Publishes record events to the dashboard of the owning restaurant
// ===========================================================================

// Event types
const (
	EventOrderCreated         = "order_created"
	EventOrderUpdated         = "order_updated"
	EventOrderCancelled       = "order_cancelled"
	EventOrderStatusChanged   = "order_status_changed"
	EventOrderDeleted         = "order_deleted"
	EventReservationCreated   = "reservation_created"
	EventReservationUpdated   = "reservation_updated"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationDeleted   = "reservation_deleted"
)

// Publisher interface for realtime events
type Publisher interface {
	// PublishRecordEvent publishes an order or reservation change
	PublishRecordEvent(ctx context.Context, restaurantID uuid.UUID, event *RecordEvent) error
}

// RecordEvent tells dashboards which record changed.
type RecordEvent struct {
	Type         string    `json:"type"`
	RestaurantID uuid.UUID `json:"restaurantId"`
	Number       string    `json:"number"`
	Status       string    `json:"status,omitempty"`
	At           time.Time `json:"at"`
}

// Channel returns the Centrifugo channel of a restaurant.
func Channel(restaurantID uuid.UUID) string {
	return "restaurant:" + restaurantID.String()
}

// CentrifugoClient implements Publisher
type CentrifugoClient struct {
	url    string
	apiKey string
	client *http.Client
	log    *zap.Logger
}

// NewCentrifugoClient creates a new Centrifugo client
func NewCentrifugoClient(url, apiKey string, log *zap.Logger) *CentrifugoClient {
	return &CentrifugoClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// publishRequest sends a request to Centrifugo API
type publishRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type publishParams struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

func (c *CentrifugoClient) publish(ctx context.Context, channel string, data interface{}) error {
	req := publishRequest{
		Method: "publish",
		Params: publishParams{
			Channel: channel,
			Data:    data,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/api", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "apikey "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Warn("centrifugo publish failed", zap.Error(err))
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("centrifugo publish bad status",
			zap.Int("status", resp.StatusCode),
			zap.String("channel", channel),
		)
		return fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	c.log.Debug("published to centrifugo",
		zap.String("channel", channel),
	)

	return nil
}

// PublishRecordEvent publishes to the restaurant channel
func (c *CentrifugoClient) PublishRecordEvent(ctx context.Context, restaurantID uuid.UUID, event *RecordEvent) error {
	event.RestaurantID = restaurantID
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return c.publish(ctx, Channel(restaurantID), event)
}

// ===========================================================================
// Noop Publisher (for when Centrifugo is not configured)
// ===========================================================================

// NoopPublisher does nothing (used when realtime is disabled)
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) PublishRecordEvent(ctx context.Context, restaurantID uuid.UUID, event *RecordEvent) error {
	return nil
}
