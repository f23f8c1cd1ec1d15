package attribution

import (
	"context"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/async"
)

// CampaignTracker captures Instagram `campaign` codes. The last explicit
// code wins; repeating the stored code is a no-op.
type CampaignTracker struct {
	state     channelState
	resolver  *Resolver
	clicks    *ClickLogger
	users     domain.CurrentUserProvider
	submitter *async.Submitter
}

func (t *CampaignTracker) Track(ctx context.Context, visit Visit) TrackResult {
	channel := t.state.policy.Channel
	result := TrackResult{Channel: channel}

	existing, purged, err := t.state.load(ctx, visit.VisitorID)
	result.Purged = purged
	if err != nil {
		t.state.logger.Error("failed to read campaign attribution", "visitor_id", visit.VisitorID, "error", err.Error())
		result.Outcome = OutcomeStoreError
		return result
	}

	code := paramValue(visit.Query, t.state.policy.Param)
	if code == "" {
		result.Outcome = OutcomeAbsent
		return result
	}
	result.Code = code

	if existing != nil && existing.Code == code {
		t.state.metrics.RecordIgnored(string(channel), "same_code")
		result.Outcome = OutcomeUnchanged
		return result
	}

	if _, err := t.state.capture(ctx, visit.VisitorID, code); err != nil {
		t.state.logger.Error("failed to store campaign code", "visitor_id", visit.VisitorID, "code", code, "error", err.Error())
		result.Outcome = OutcomeStoreError
		return result
	}
	result.Outcome = OutcomeCaptured
	t.state.logger.Info("instagram campaign captured", "visitor_id", visit.VisitorID, "code", code)

	result.Pending = t.submitter.Submit(ctx, "campaign_click", func(ctx context.Context) error {
		productID := t.resolver.ResolvePath(ctx, visit.Path)
		var userID *string
		if id := t.users.CurrentUserID(ctx); id != "" {
			userID = &id
		}
		return t.clicks.LogCampaignClick(ctx, code, productID, userID, visit.Meta)
	})
	return result
}
