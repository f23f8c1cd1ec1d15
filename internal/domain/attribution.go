package domain

import (
	"context"
	"time"
)

type Channel string

const (
	ChannelAffiliateReferral Channel = "affiliate_referral"
	ChannelInstagramCampaign Channel = "instagram_campaign"
)

// Channels lists every attribution channel in a stable order.
var Channels = []Channel{ChannelAffiliateReferral, ChannelInstagramCampaign}

func ParseChannel(raw string) (Channel, error) {
	switch Channel(raw) {
	case ChannelAffiliateReferral, ChannelInstagramCampaign:
		return Channel(raw), nil
	}
	return "", ErrUnknownChannel
}

// AttributionRecord is the single active attribution of a visitor on one channel.
type AttributionRecord struct {
	Code              string
	CapturedAt        time.Time
	ResolvedProductID *string
}

// ChannelKeys names the fields a channel owns inside a visitor's namespace.
// ProductID is empty for channels that do not persist the resolved product.
type ChannelKeys struct {
	Code      string
	Time      string
	ProductID string
}

func (k ChannelKeys) All() []string {
	keys := []string{k.Code, k.Time}
	if k.ProductID != "" {
		keys = append(keys, k.ProductID)
	}
	return keys
}

func KeysFor(channel Channel) (ChannelKeys, error) {
	switch channel {
	case ChannelAffiliateReferral:
		return ChannelKeys{
			Code:      "affiliate_referral_code",
			Time:      "affiliate_referral_time",
			ProductID: "affiliate_ref_product_id",
		}, nil
	case ChannelInstagramCampaign:
		return ChannelKeys{
			Code: "campaign_code",
			Time: "campaign_time",
		}, nil
	}
	return ChannelKeys{}, ErrUnknownChannel
}

// AttributionStore persists attribution records per visitor and channel.
// Get returns nil, nil when the channel holds no record.
type AttributionStore interface {
	Get(ctx context.Context, visitorID string, channel Channel) (*AttributionRecord, error)
	Set(ctx context.Context, visitorID string, channel Channel, record AttributionRecord) error
	// SetIfAbsent writes record only when the channel holds no code and
	// reports whether it did. Check and write are atomic.
	SetIfAbsent(ctx context.Context, visitorID string, channel Channel, record AttributionRecord) (bool, error)
	// Replace writes next only while the stored code and capture time still
	// equal current's, atomically, and reports whether it did.
	Replace(ctx context.Context, visitorID string, channel Channel, current, next AttributionRecord) (bool, error)
	Clear(ctx context.Context, visitorID string, channel Channel) error
}

// CurrentUserProvider returns the authenticated user id, or "" for guests.
type CurrentUserProvider interface {
	CurrentUserID(ctx context.Context) string
}
