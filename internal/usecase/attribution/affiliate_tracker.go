package attribution

import (
	"context"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/async"
)

// AffiliateTracker captures `ref` codes. The first valid referral wins:
// a later code never replaces a stored one before it expires.
type AffiliateTracker struct {
	state     channelState
	resolver  *Resolver
	clicks    *ClickLogger
	submitter *async.Submitter
}

func (t *AffiliateTracker) Track(ctx context.Context, visit Visit) TrackResult {
	channel := t.state.policy.Channel
	result := TrackResult{Channel: channel}

	existing, purged, err := t.state.load(ctx, visit.VisitorID)
	result.Purged = purged
	if err != nil {
		t.state.logger.Error("failed to read affiliate attribution", "visitor_id", visit.VisitorID, "error", err.Error())
		result.Outcome = OutcomeStoreError
		return result
	}

	code := paramValue(visit.Query, t.state.policy.Param)
	if code == "" {
		result.Outcome = OutcomeAbsent
		return result
	}
	result.Code = code

	if existing != nil {
		t.ignore(visit.VisitorID, code, existing.Code)
		result.Outcome = OutcomeIgnored
		return result
	}

	record, captured, err := t.state.captureIfAbsent(ctx, visit.VisitorID, code)
	if err != nil {
		t.state.logger.Error("failed to store affiliate referral", "visitor_id", visit.VisitorID, "code", code, "error", err.Error())
		result.Outcome = OutcomeStoreError
		return result
	}
	if !captured {
		// A concurrent visit stored its referral first.
		t.ignore(visit.VisitorID, code, "")
		result.Outcome = OutcomeIgnored
		return result
	}
	result.Outcome = OutcomeCaptured
	t.state.logger.Info("affiliate referral captured", "visitor_id", visit.VisitorID, "code", code)

	result.Pending = t.submitter.Submit(ctx, "affiliate_click", func(ctx context.Context) error {
		productID := t.resolver.ResolvePath(ctx, visit.Path)
		if productID != nil {
			t.storeProductID(ctx, visit.VisitorID, record, *productID)
		}
		return t.clicks.LogAffiliateClick(ctx, code, productID, visit.Meta)
	})
	return result
}

func (t *AffiliateTracker) ignore(visitorID, code, storedCode string) {
	t.state.metrics.RecordIgnored(string(t.state.policy.Channel), "first_wins")
	t.state.logger.Debug("affiliate referral ignored, earlier referral still valid",
		"visitor_id", visitorID, "code", code, "stored_code", storedCode)
}

// storeProductID attaches the resolved product to the record captured on
// this visit, unless the record has been replaced or cleared meanwhile.
func (t *AffiliateTracker) storeProductID(ctx context.Context, visitorID string, captured domain.AttributionRecord, productID string) {
	channel := t.state.policy.Channel

	next := captured
	next.ResolvedProductID = &productID
	ok, err := t.state.store.Replace(ctx, visitorID, channel, captured, next)
	if err != nil {
		t.state.metrics.RecordStoreError(string(channel), "set")
		t.state.logger.Error("failed to store referred product", "visitor_id", visitorID, "product_id", productID, "error", err.Error())
		return
	}
	if !ok {
		t.state.logger.Debug("referred product dropped, attribution changed", "visitor_id", visitorID, "product_id", productID)
	}
}
