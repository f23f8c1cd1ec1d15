package domain

import (
	"context"
	"time"
)

type Affiliate struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
}

type AffiliateRepository interface {
	GetByCode(ctx context.Context, code string) (*Affiliate, error)
}

// InstagramCampaign is a promotional campaign linked from Instagram posts and stories.
type InstagramCampaign struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
}

type CampaignRepository interface {
	GetByCode(ctx context.Context, code string) (*InstagramCampaign, error)
}
