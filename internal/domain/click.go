package domain

import (
	"context"
	"time"
)

// ClickEvent is an outbound record of one qualifying page visit.
// It is never retained locally.
type ClickEvent struct {
	Channel        Channel
	EntityID       string
	ProductID      *string
	UserID         *string
	LandingPageURL string
	ReferrerURL    string
	UserAgent      string
}

type AffiliateClick struct {
	ID          string
	AffiliateID string
	ProductID   *string
	LandingPage string
	Referrer    string
	UserAgent   string
	CreatedAt   time.Time
}

type CampaignClick struct {
	ID          string
	CampaignID  string
	UserID      *string
	ProductID   *string
	ReferrerURL string
	UserAgent   string
	CreatedAt   time.Time
}

type ClickRepository interface {
	InsertAffiliateClick(ctx context.Context, click *AffiliateClick) error
	InsertCampaignClick(ctx context.Context, click *CampaignClick) error
}

// ClickEventPublisher fans inserted clicks out to downstream consumers.
type ClickEventPublisher interface {
	PublishClick(ctx context.Context, event ClickEvent) error
}
