package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
)

const ClickEventsTopic = "attribution-clicks"

type ClickEventMessage struct {
	Channel        string    `json:"channel"`
	EntityID       string    `json:"entity_id"`
	ProductID      *string   `json:"product_id,omitempty"`
	UserID         *string   `json:"user_id,omitempty"`
	LandingPageURL string    `json:"landing_page_url,omitempty"`
	ReferrerURL    string    `json:"referrer_url,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ClickPublisher serializes click events onto one topic, keyed by the
// affiliate or campaign id so an entity's clicks stay ordered.
type ClickPublisher struct {
	port  domain.PublisherPort
	topic string
	nowFn func() time.Time
}

func NewClickPublisher(port domain.PublisherPort, topic string) *ClickPublisher {
	if topic == "" {
		topic = ClickEventsTopic
	}
	return &ClickPublisher{port: port, topic: topic, nowFn: time.Now}
}

func (p *ClickPublisher) PublishClick(ctx context.Context, event domain.ClickEvent) error {
	v, err := json.Marshal(ClickEventMessage{
		Channel:        string(event.Channel),
		EntityID:       event.EntityID,
		ProductID:      event.ProductID,
		UserID:         event.UserID,
		LandingPageURL: event.LandingPageURL,
		ReferrerURL:    event.ReferrerURL,
		UserAgent:      event.UserAgent,
		OccurredAt:     p.nowFn().UTC(),
	})
	if err != nil {
		return err
	}

	return p.port.Publish(ctx, p.topic, domain.Message{Key: []byte(event.EntityID), Value: v})
}
