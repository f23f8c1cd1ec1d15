package visitdto

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/usecase/async"
)

type ChannelResult struct {
	Channel string        `json:"channel"`
	Outcome string        `json:"outcome"`
	Code    string        `json:"code,omitempty"`
	Purged  bool          `json:"purged"`
	Pending *async.Future `json:"-"`
}

type TrackVisitOutput struct {
	VisitorID string          `json:"visitor_id"`
	Results   []ChannelResult `json:"results"`
}

// Wait blocks until every click logging task of the visit has finished.
func (o *TrackVisitOutput) Wait(ctx context.Context) error {
	var errs []error
	for _, r := range o.Results {
		if r.Pending == nil {
			continue
		}
		if err := r.Pending.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type AttributionView struct {
	Channel           string    `json:"channel"`
	Code              string    `json:"code"`
	CapturedAt        time.Time `json:"captured_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	ResolvedProductID *string   `json:"resolved_product_id,omitempty"`
}

type CurrentAttributionOutput struct {
	VisitorID string            `json:"visitor_id"`
	Records   []AttributionView `json:"records"`
}
