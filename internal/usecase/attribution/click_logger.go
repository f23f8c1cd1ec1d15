package attribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/metrics"
)

// RequestMeta is the ambient request data attached to every click.
type RequestMeta struct {
	LandingPageURL string
	ReferrerURL    string
	UserAgent      string
}

// ClickLogger records one click per qualifying visit. Unknown or inactive
// codes end the attempt without an error; insert failures are returned
// so the submitter can report them.
type ClickLogger struct {
	affiliates domain.AffiliateRepository
	campaigns  domain.CampaignRepository
	clicks     domain.ClickRepository
	publisher  domain.ClickEventPublisher
	metrics    *metrics.AttributionMetrics
	logger     *slog.Logger
	nowFn      func() time.Time
}

func NewClickLogger(
	affiliates domain.AffiliateRepository,
	campaigns domain.CampaignRepository,
	clicks domain.ClickRepository,
	publisher domain.ClickEventPublisher,
	m *metrics.AttributionMetrics,
	logger *slog.Logger,
	nowFn func() time.Time,
) *ClickLogger {
	return &ClickLogger{
		affiliates: affiliates,
		campaigns:  campaigns,
		clicks:     clicks,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		nowFn:      nowFn,
	}
}

func (l *ClickLogger) LogAffiliateClick(ctx context.Context, code string, productID *string, meta RequestMeta) error {
	start := time.Now()
	channel := string(domain.ChannelAffiliateReferral)

	affiliate, err := l.affiliates.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.logger.Warn("affiliate code not found or inactive", "code", code)
			l.metrics.RecordClickLog(channel, "not_found", time.Since(start).Seconds())
			return nil
		}
		l.metrics.RecordClickLog(channel, "failed", time.Since(start).Seconds())
		return fmt.Errorf("lookup affiliate %q: %w", code, err)
	}
	if !affiliate.Active {
		l.logger.Warn("affiliate code not found or inactive", "code", code, "affiliate_id", affiliate.ID)
		l.metrics.RecordClickLog(channel, "inactive", time.Since(start).Seconds())
		return nil
	}

	click := &domain.AffiliateClick{
		AffiliateID: affiliate.ID,
		ProductID:   productID,
		LandingPage: meta.LandingPageURL,
		Referrer:    meta.ReferrerURL,
		UserAgent:   meta.UserAgent,
		CreatedAt:   l.nowFn(),
	}
	if err := l.clicks.InsertAffiliateClick(ctx, click); err != nil {
		l.metrics.RecordClickLog(channel, "failed", time.Since(start).Seconds())
		return fmt.Errorf("insert affiliate click: %w", err)
	}
	l.metrics.RecordClickLog(channel, "logged", time.Since(start).Seconds())

	l.publish(ctx, domain.ClickEvent{
		Channel:        domain.ChannelAffiliateReferral,
		EntityID:       affiliate.ID,
		ProductID:      productID,
		LandingPageURL: meta.LandingPageURL,
		ReferrerURL:    meta.ReferrerURL,
		UserAgent:      meta.UserAgent,
	})
	return nil
}

func (l *ClickLogger) LogCampaignClick(ctx context.Context, code string, productID, userID *string, meta RequestMeta) error {
	start := time.Now()
	channel := string(domain.ChannelInstagramCampaign)

	campaign, err := l.campaigns.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.logger.Warn("campaign code not found or inactive", "code", code)
			l.metrics.RecordClickLog(channel, "not_found", time.Since(start).Seconds())
			return nil
		}
		l.metrics.RecordClickLog(channel, "failed", time.Since(start).Seconds())
		return fmt.Errorf("lookup campaign %q: %w", code, err)
	}
	if !campaign.Active {
		l.logger.Warn("campaign code not found or inactive", "code", code, "campaign_id", campaign.ID)
		l.metrics.RecordClickLog(channel, "inactive", time.Since(start).Seconds())
		return nil
	}

	click := &domain.CampaignClick{
		CampaignID:  campaign.ID,
		UserID:      userID,
		ProductID:   productID,
		ReferrerURL: meta.ReferrerURL,
		UserAgent:   meta.UserAgent,
		CreatedAt:   l.nowFn(),
	}
	if err := l.clicks.InsertCampaignClick(ctx, click); err != nil {
		l.metrics.RecordClickLog(channel, "failed", time.Since(start).Seconds())
		return fmt.Errorf("insert campaign click: %w", err)
	}
	l.metrics.RecordClickLog(channel, "logged", time.Since(start).Seconds())

	l.publish(ctx, domain.ClickEvent{
		Channel:        domain.ChannelInstagramCampaign,
		EntityID:       campaign.ID,
		ProductID:      productID,
		UserID:         userID,
		LandingPageURL: meta.LandingPageURL,
		ReferrerURL:    meta.ReferrerURL,
		UserAgent:      meta.UserAgent,
	})
	return nil
}

// publish is best effort; the click row is already stored.
func (l *ClickLogger) publish(ctx context.Context, event domain.ClickEvent) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishClick(ctx, event); err != nil {
		l.metrics.RecordClickPublished(string(event.Channel), false)
		l.logger.Error("failed to publish click event", "channel", event.Channel, "entity_id", event.EntityID, "error", err.Error())
		return
	}
	l.metrics.RecordClickPublished(string(event.Channel), true)
}
