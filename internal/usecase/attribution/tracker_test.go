package attribution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	visitdto "github.com/LavaJover/storefront-attribution-service/internal/usecase/dto/visit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitor = "visitor-1"

func track(t *testing.T, h *harness, rawURL string) *visitdto.TrackVisitOutput {
	t.Helper()
	ctx := context.Background()
	out, err := h.uc.TrackVisit(ctx, &visitdto.TrackVisitInput{
		VisitorID:   visitor,
		URL:         rawURL,
		ReferrerURL: "https://instagram.com/",
		UserAgent:   "Mozilla/5.0",
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = out.Wait(ctx)
	return out
}

func resultFor(out *visitdto.TrackVisitOutput, channel domain.Channel) visitdto.ChannelResult {
	for _, r := range out.Results {
		if r.Channel == string(channel) {
			return r
		}
	}
	return visitdto.ChannelResult{}
}

func TestAffiliateFirstReferralWins(t *testing.T) {
	h := newHarness(t)
	h.seed(t, visitor, domain.ChannelAffiliateReferral, "AFF123", 2*24*time.Hour)

	out := track(t, h, "/?ref=AFF999")

	assert.Equal(t, string(OutcomeIgnored), resultFor(out, domain.ChannelAffiliateReferral).Outcome)
	assert.Equal(t, "AFF123", h.store.Fields(visitor)["affiliate_referral_code"])
	assert.Empty(t, h.clicks.affiliateClicks())
}

func TestAffiliateExpiredRecordIsReplaced(t *testing.T) {
	h := newHarness(t)
	productID := "old-product"
	require.NoError(t, h.store.Set(context.Background(), visitor, domain.ChannelAffiliateReferral, domain.AttributionRecord{
		Code:              "AFF123",
		CapturedAt:        h.clock.Now().Add(-8 * 24 * time.Hour),
		ResolvedProductID: &productID,
	}))

	out := track(t, h, "/?ref=AFF999")

	res := resultFor(out, domain.ChannelAffiliateReferral)
	assert.Equal(t, string(OutcomeCaptured), res.Outcome)
	assert.True(t, res.Purged)

	fields := h.store.Fields(visitor)
	assert.Equal(t, "AFF999", fields["affiliate_referral_code"])
	assert.NotContains(t, fields, "affiliate_ref_product_id")
	require.Len(t, h.clicks.affiliateClicks(), 1)
	assert.Equal(t, "aff-999", h.clicks.affiliateClicks()[0].AffiliateID)
}

func TestAffiliateExpiredRecordPurgedWithoutNewRef(t *testing.T) {
	h := newHarness(t)
	h.seed(t, visitor, domain.ChannelAffiliateReferral, "AFF123", 8*24*time.Hour)

	out := track(t, h, "/collections/summer")

	res := resultFor(out, domain.ChannelAffiliateReferral)
	assert.Equal(t, string(OutcomeAbsent), res.Outcome)
	assert.True(t, res.Purged)
	assert.Empty(t, h.store.Fields(visitor))
}

func TestCampaignExpiryBoundary(t *testing.T) {
	cases := []struct {
		name        string
		age         time.Duration
		wantPurged  bool
		wantOutcome Outcome
	}{
		{name: "just inside window", age: Days(2.9999), wantPurged: false, wantOutcome: OutcomeUnchanged},
		{name: "just outside window", age: Days(3.0001), wantPurged: true, wantOutcome: OutcomeCaptured},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.seed(t, visitor, domain.ChannelInstagramCampaign, "SPRING24", tc.age)

			out := track(t, h, "/?campaign=SPRING24")

			res := resultFor(out, domain.ChannelInstagramCampaign)
			assert.Equal(t, tc.wantPurged, res.Purged)
			assert.Equal(t, string(tc.wantOutcome), res.Outcome)
			assert.Equal(t, "SPRING24", h.store.Fields(visitor)["campaign_code"])
		})
	}
}

func TestCampaignLastExplicitCodeWins(t *testing.T) {
	h := newHarness(t)
	h.seed(t, visitor, domain.ChannelInstagramCampaign, "SPRING24", time.Hour)

	out := track(t, h, "/?campaign=IGSUMMER")
	assert.Equal(t, string(OutcomeCaptured), resultFor(out, domain.ChannelInstagramCampaign).Outcome)
	assert.Equal(t, "IGSUMMER", h.store.Fields(visitor)["campaign_code"])
	firstTime := h.store.Fields(visitor)["campaign_time"]
	require.Len(t, h.clicks.campaignClicks(), 1)

	h.clock.Advance(time.Minute)
	out = track(t, h, "/?campaign=IGSUMMER")
	assert.Equal(t, string(OutcomeUnchanged), resultFor(out, domain.ChannelInstagramCampaign).Outcome)
	assert.Equal(t, firstTime, h.store.Fields(visitor)["campaign_time"])
	assert.Len(t, h.clicks.campaignClicks(), 1)
}

func TestCampaignWithoutParameterKeepsStoredCode(t *testing.T) {
	h := newHarness(t)
	h.seed(t, visitor, domain.ChannelInstagramCampaign, "SPRING24", time.Hour)

	out := track(t, h, "/product/red-kurti")

	assert.Equal(t, string(OutcomeAbsent), resultFor(out, domain.ChannelInstagramCampaign).Outcome)
	assert.Equal(t, "SPRING24", h.store.Fields(visitor)["campaign_code"])
	assert.Empty(t, h.clicks.campaignClicks())
}

func TestClickFailureDoesNotLoseAttribution(t *testing.T) {
	h := newHarness(t)
	h.clicks.err = errNetwork
	h.clicks.snapshot = func() map[string]string { return h.store.Fields(visitor) }

	out := track(t, h, "/product/red-kurti?ref=AFF123")

	assert.Equal(t, string(OutcomeCaptured), resultFor(out, domain.ChannelAffiliateReferral).Outcome)
	require.Len(t, h.clicks.storeAtInsert, 1)
	assert.Equal(t, "AFF123", h.clicks.storeAtInsert[0]["affiliate_referral_code"])
	assert.Equal(t, "AFF123", h.store.Fields(visitor)["affiliate_referral_code"])

	assert.Equal(t, 1, h.reports.count())
	assert.Equal(t, "affiliate_click", h.reports.tasks[0])
	assert.ErrorIs(t, h.reports.errs[0], errNetwork)
	assert.ErrorIs(t, out.Wait(context.Background()), errNetwork)
}

func TestAffiliateEndToEnd(t *testing.T) {
	h := newHarness(t)

	out := track(t, h, "/product/red-kurti?ref=AFF123")
	assert.Equal(t, string(OutcomeCaptured), resultFor(out, domain.ChannelAffiliateReferral).Outcome)

	fields := h.store.Fields(visitor)
	assert.Equal(t, "AFF123", fields["affiliate_referral_code"])
	assert.Equal(t, "1710504000000", fields["affiliate_referral_time"])
	assert.Equal(t, "6f1c2a9e-7f61-4c0d-9a63-1f3f0c8b2d10", fields["affiliate_ref_product_id"])

	clicks := h.clicks.affiliateClicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, "aff-123", clicks[0].AffiliateID)
	require.NotNil(t, clicks[0].ProductID)
	assert.Equal(t, "6f1c2a9e-7f61-4c0d-9a63-1f3f0c8b2d10", *clicks[0].ProductID)
	assert.Equal(t, "/product/red-kurti?ref=AFF123", clicks[0].LandingPage)
	assert.Equal(t, "https://instagram.com/", clicks[0].Referrer)
	assert.Equal(t, "Mozilla/5.0", clicks[0].UserAgent)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, "aff-123", h.publisher.events[0].EntityID)
}

func TestAffiliateUnknownSlugStillLogsClick(t *testing.T) {
	h := newHarness(t)

	track(t, h, "/product/blue-saree?ref=AFF123")

	assert.NotContains(t, h.store.Fields(visitor), "affiliate_ref_product_id")
	clicks := h.clicks.affiliateClicks()
	require.Len(t, clicks, 1)
	assert.Nil(t, clicks[0].ProductID)
}

func TestCampaignRepeatVisitIsNoop(t *testing.T) {
	h := newHarness(t)
	h.seed(t, visitor, domain.ChannelInstagramCampaign, "SPRING24", 24*time.Hour)
	before := h.store.Fields(visitor)

	out := track(t, h, "/?campaign=SPRING24")

	res := resultFor(out, domain.ChannelInstagramCampaign)
	assert.Equal(t, string(OutcomeUnchanged), res.Outcome)
	assert.Nil(t, res.Pending)
	assert.Equal(t, before, h.store.Fields(visitor))
	assert.Empty(t, h.clicks.campaignClicks())
}

func TestCampaignClickCarriesUserAndProduct(t *testing.T) {
	h := newHarness(t, withUser("user-42"))

	track(t, h, "/product/red-kurti?campaign=IGSUMMER")

	clicks := h.clicks.campaignClicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, "camp-summer", clicks[0].CampaignID)
	require.NotNil(t, clicks[0].UserID)
	assert.Equal(t, "user-42", *clicks[0].UserID)
	require.NotNil(t, clicks[0].ProductID)
	assert.NotContains(t, h.store.Fields(visitor), "affiliate_ref_product_id")
}

func TestBothChannelsOnOneVisit(t *testing.T) {
	h := newHarness(t)

	out := track(t, h, "/product/red-kurti?ref=AFF123&campaign=IGSUMMER")

	assert.Equal(t, string(OutcomeCaptured), resultFor(out, domain.ChannelAffiliateReferral).Outcome)
	assert.Equal(t, string(OutcomeCaptured), resultFor(out, domain.ChannelInstagramCampaign).Outcome)
	assert.Len(t, h.clicks.affiliateClicks(), 1)
	assert.Len(t, h.clicks.campaignClicks(), 1)
}

func TestInactiveAffiliateCapturedWithoutClick(t *testing.T) {
	h := newHarness(t)

	out := track(t, h, "/?ref=SLEEPY")

	assert.Equal(t, string(OutcomeCaptured), resultFor(out, domain.ChannelAffiliateReferral).Outcome)
	assert.Equal(t, "SLEEPY", h.store.Fields(visitor)["affiliate_referral_code"])
	assert.Empty(t, h.clicks.affiliateClicks())
	assert.Zero(t, h.reports.count())
}

func TestStoreFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, withStore(func(s domain.AttributionStore) domain.AttributionStore {
		return &failingStore{AttributionStore: s, failOn: map[string]bool{"set": true}}
	}))

	out := track(t, h, "/?ref=AFF123&campaign=IGSUMMER")

	assert.Equal(t, string(OutcomeStoreError), resultFor(out, domain.ChannelAffiliateReferral).Outcome)
	assert.Equal(t, string(OutcomeStoreError), resultFor(out, domain.ChannelInstagramCampaign).Outcome)
	assert.Empty(t, h.clicks.affiliateClicks())
	assert.Empty(t, h.clicks.campaignClicks())
}

func TestProductIDNotAttachedToReplacedRecord(t *testing.T) {
	h := newHarness(t)
	tracker := h.uc.affiliate

	captured := domain.AttributionRecord{Code: "AFF123", CapturedAt: h.clock.Now()}
	require.NoError(t, h.store.Set(context.Background(), visitor, domain.ChannelAffiliateReferral, domain.AttributionRecord{
		Code: "AFF999", CapturedAt: h.clock.Now(),
	}))

	tracker.storeProductID(context.Background(), visitor, captured, "p-1")

	assert.NotContains(t, h.store.Fields(visitor), "affiliate_ref_product_id")
}

func TestConcurrentReferralsOnlyFirstCaptured(t *testing.T) {
	var gate *gatedStore
	h := newHarness(t, withStore(func(s domain.AttributionStore) domain.AttributionStore {
		gate = newGatedStore(s, domain.ChannelAffiliateReferral, 2)
		return gate
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	codes := []string{"AFF123", "AFF999"}
	outs := make([]*visitdto.TrackVisitOutput, len(codes))
	var wg sync.WaitGroup
	for i, code := range codes {
		i, code := i, code
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := h.uc.TrackVisit(ctx, &visitdto.TrackVisitInput{
				VisitorID: visitor,
				URL:       "/product/red-kurti?ref=" + code,
			})
			if err == nil {
				outs[i] = out
			}
		}()
	}
	wg.Wait()

	outcomes := map[string]string{}
	for i, out := range outs {
		require.NotNil(t, out)
		require.NoError(t, out.Wait(ctx))
		outcomes[codes[i]] = resultFor(out, domain.ChannelAffiliateReferral).Outcome
	}

	var winner string
	for code, outcome := range outcomes {
		if outcome == string(OutcomeCaptured) {
			winner = code
		}
	}
	require.NotEmpty(t, winner, "one referral must be captured: %v", outcomes)
	assert.ElementsMatch(t, []string{string(OutcomeCaptured), string(OutcomeIgnored)},
		[]string{outcomes["AFF123"], outcomes["AFF999"]})

	fields := h.store.Fields(visitor)
	assert.Equal(t, winner, fields["affiliate_referral_code"])
	assert.Equal(t, "6f1c2a9e-7f61-4c0d-9a63-1f3f0c8b2d10", fields["affiliate_ref_product_id"])

	clicks := h.clicks.affiliateClicks()
	require.Len(t, clicks, 1)
	assert.Equal(t, h.affiliates.byCode[winner].ID, clicks[0].AffiliateID)
}

func TestProductIDNotAttachedToClearedRecord(t *testing.T) {
	h := newHarness(t)
	tracker := h.uc.affiliate
	ctx := context.Background()

	captured, ok, err := tracker.state.captureIfAbsent(ctx, visitor, "AFF123")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, h.store.Clear(ctx, visitor, domain.ChannelAffiliateReferral))

	tracker.storeProductID(ctx, visitor, captured, "p-1")

	assert.Empty(t, h.store.Fields(visitor))
}

func TestProductIDAttachedToCapturedRecord(t *testing.T) {
	h := newHarness(t)
	tracker := h.uc.affiliate
	ctx := context.Background()

	captured, ok, err := tracker.state.captureIfAbsent(ctx, visitor, "AFF123")
	require.NoError(t, err)
	require.True(t, ok)

	tracker.storeProductID(ctx, visitor, captured, "p-1")

	fields := h.store.Fields(visitor)
	assert.Equal(t, "AFF123", fields["affiliate_referral_code"])
	assert.Equal(t, "p-1", fields["affiliate_ref_product_id"])
}
