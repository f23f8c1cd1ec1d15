package attribution

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/metrics"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/async"
	visitdto "github.com/LavaJover/storefront-attribution-service/internal/usecase/dto/visit"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type AttributionUsecase interface {
	TrackVisit(ctx context.Context, input *visitdto.TrackVisitInput) (*visitdto.TrackVisitOutput, error)
	CurrentAttribution(ctx context.Context, input *visitdto.CurrentAttributionInput) (*visitdto.CurrentAttributionOutput, error)
	ClearAttribution(ctx context.Context, input *visitdto.ClearAttributionInput) error
}

type Dependencies struct {
	Store      domain.AttributionStore
	Products   domain.ProductRepository
	Affiliates domain.AffiliateRepository
	Campaigns  domain.CampaignRepository
	Clicks     domain.ClickRepository
	Publisher  domain.ClickEventPublisher
	Users      domain.CurrentUserProvider
	Submitter  *async.Submitter
	Metrics    *metrics.AttributionMetrics
	Logger     *slog.Logger

	AffiliateTTL time.Duration
	CampaignTTL  time.Duration
	Now          func() time.Time
}

type DefaultAttributionUsecase struct {
	store     domain.AttributionStore
	policies  map[domain.Channel]ChannelPolicy
	affiliate *AffiliateTracker
	campaign  *CampaignTracker
	logger    *slog.Logger
	nowFn     func() time.Time
}

func NewDefaultAttributionUsecase(deps Dependencies) *DefaultAttributionUsecase {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "attribution")
	m := deps.Metrics
	if m == nil {
		m = metrics.NewAttributionMetrics(prometheus.NewRegistry())
	}
	users := deps.Users
	if users == nil {
		users = guestUsers{}
	}
	submitter := deps.Submitter
	if submitter == nil {
		submitter = async.NewSubmitter(async.LogSink{Logger: logger})
	}

	affiliatePolicy := AffiliatePolicy(deps.AffiliateTTL)
	campaignPolicy := CampaignPolicy(deps.CampaignTTL)

	resolver := NewResolver(deps.Products, m, logger)
	clicks := NewClickLogger(deps.Affiliates, deps.Campaigns, deps.Clicks, deps.Publisher, m, logger, nowFn)

	return &DefaultAttributionUsecase{
		store: deps.Store,
		policies: map[domain.Channel]ChannelPolicy{
			affiliatePolicy.Channel: affiliatePolicy,
			campaignPolicy.Channel:  campaignPolicy,
		},
		affiliate: &AffiliateTracker{
			state:     channelState{store: deps.Store, policy: affiliatePolicy, metrics: m, logger: logger, nowFn: nowFn},
			resolver:  resolver,
			clicks:    clicks,
			submitter: submitter,
		},
		campaign: &CampaignTracker{
			state:     channelState{store: deps.Store, policy: campaignPolicy, metrics: m, logger: logger, nowFn: nowFn},
			resolver:  resolver,
			clicks:    clicks,
			users:     users,
			submitter: submitter,
		},
		logger: logger,
		nowFn:  nowFn,
	}
}

// TrackVisit runs both trackers for one navigation. Tracker failures are
// logged and never returned; only an unusable visit is an error.
func (uc *DefaultAttributionUsecase) TrackVisit(ctx context.Context, input *visitdto.TrackVisitInput) (*visitdto.TrackVisitOutput, error) {
	visitorID := strings.TrimSpace(input.VisitorID)
	if visitorID == "" {
		return nil, domain.ErrMissingVisitor
	}
	rawURL := strings.TrimSpace(input.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty landing url", domain.ErrInvalidVisit)
	}
	landing, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: landing url: %v", domain.ErrInvalidVisit, err)
	}

	visit := Visit{
		VisitorID: visitorID,
		Path:      landing.Path,
		Query:     landing.Query(),
		Meta: RequestMeta{
			LandingPageURL: input.URL,
			ReferrerURL:    input.ReferrerURL,
			UserAgent:      input.UserAgent,
		},
	}

	// Channels use disjoint keys, so the trackers need no coordination.
	var affiliateResult, campaignResult TrackResult
	var g errgroup.Group
	g.Go(func() error {
		affiliateResult = uc.affiliate.Track(ctx, visit)
		return nil
	})
	g.Go(func() error {
		campaignResult = uc.campaign.Track(ctx, visit)
		return nil
	})
	_ = g.Wait()

	return &visitdto.TrackVisitOutput{
		VisitorID: visitorID,
		Results: []visitdto.ChannelResult{
			toChannelResult(affiliateResult),
			toChannelResult(campaignResult),
		},
	}, nil
}

// CurrentAttribution returns the valid records of a visitor, purging
// expired ones on the way.
func (uc *DefaultAttributionUsecase) CurrentAttribution(ctx context.Context, input *visitdto.CurrentAttributionInput) (*visitdto.CurrentAttributionOutput, error) {
	visitorID := strings.TrimSpace(input.VisitorID)
	if visitorID == "" {
		return nil, domain.ErrMissingVisitor
	}

	output := &visitdto.CurrentAttributionOutput{
		VisitorID: visitorID,
		Records:   []visitdto.AttributionView{},
	}
	for _, channel := range domain.Channels {
		state := uc.stateFor(channel)
		record, _, err := state.load(ctx, visitorID)
		if err != nil {
			return nil, fmt.Errorf("load %s attribution: %w", channel, err)
		}
		if record == nil {
			continue
		}
		output.Records = append(output.Records, visitdto.AttributionView{
			Channel:           string(channel),
			Code:              record.Code,
			CapturedAt:        record.CapturedAt,
			ExpiresAt:         record.CapturedAt.Add(state.policy.TTL),
			ResolvedProductID: record.ResolvedProductID,
		})
	}
	return output, nil
}

// ClearAttribution drops the visitor's record on one channel.
func (uc *DefaultAttributionUsecase) ClearAttribution(ctx context.Context, input *visitdto.ClearAttributionInput) error {
	visitorID := strings.TrimSpace(input.VisitorID)
	if visitorID == "" {
		return domain.ErrMissingVisitor
	}
	channel, err := domain.ParseChannel(input.Channel)
	if err != nil {
		return err
	}
	if err := uc.store.Clear(ctx, visitorID, channel); err != nil {
		return fmt.Errorf("clear %s attribution: %w", channel, err)
	}
	uc.logger.Info("attribution cleared", "visitor_id", visitorID, "channel", channel)
	return nil
}

// Policies exposes the configured channel policies, e.g. for store sweeps.
func (uc *DefaultAttributionUsecase) Policies() map[domain.Channel]ChannelPolicy {
	return uc.policies
}

func (uc *DefaultAttributionUsecase) stateFor(channel domain.Channel) *channelState {
	if channel == domain.ChannelAffiliateReferral {
		return &uc.affiliate.state
	}
	return &uc.campaign.state
}

func toChannelResult(r TrackResult) visitdto.ChannelResult {
	return visitdto.ChannelResult{
		Channel: string(r.Channel),
		Outcome: string(r.Outcome),
		Code:    r.Code,
		Purged:  r.Purged,
		Pending: r.Pending,
	}
}

type guestUsers struct{}

func (guestUsers) CurrentUserID(context.Context) string { return "" }
