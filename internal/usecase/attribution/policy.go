package attribution

import (
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
)

type Validity int

const (
	Valid Validity = iota
	Expired
)

func (v Validity) String() string {
	if v == Valid {
		return "valid"
	}
	return "expired"
}

// CheckExpiry reports whether a record captured at capturedAt is still
// inside its time-to-live at now. It has no side effects; purging an
// expired record is up to the caller.
func CheckExpiry(capturedAt time.Time, ttl time.Duration, now time.Time) Validity {
	if now.Sub(capturedAt) < ttl {
		return Valid
	}
	return Expired
}

// Days converts a fractional number of days to a duration.
func Days(days float64) time.Duration {
	return time.Duration(days * float64(24*time.Hour))
}

type OverwriteRule int

const (
	// FirstWins keeps a valid stored code; later codes are discarded.
	FirstWins OverwriteRule = iota
	// LastExplicitWins replaces the stored code with any different explicit code.
	LastExplicitWins
)

type ChannelPolicy struct {
	Channel   domain.Channel
	Param     string
	TTL       time.Duration
	Overwrite OverwriteRule
}

const (
	DefaultAffiliateTTLDays = 7
	DefaultCampaignTTLDays  = 3
)

func AffiliatePolicy(ttl time.Duration) ChannelPolicy {
	if ttl <= 0 {
		ttl = Days(DefaultAffiliateTTLDays)
	}
	return ChannelPolicy{
		Channel:   domain.ChannelAffiliateReferral,
		Param:     "ref",
		TTL:       ttl,
		Overwrite: FirstWins,
	}
}

func CampaignPolicy(ttl time.Duration) ChannelPolicy {
	if ttl <= 0 {
		ttl = Days(DefaultCampaignTTLDays)
	}
	return ChannelPolicy{
		Channel:   domain.ChannelInstagramCampaign,
		Param:     "campaign",
		TTL:       ttl,
		Overwrite: LastExplicitWins,
	}
}
