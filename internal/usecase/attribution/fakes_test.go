package attribution

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/metrics"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/store"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/async"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errNetwork = errors.New("network unreachable")

// The fakes implement only the read and insert paths the trackers use.
var (
	_ domain.ProductRepository   = (*fakeProducts)(nil)
	_ domain.AffiliateRepository = (*fakeAffiliates)(nil)
	_ domain.CampaignRepository  = (*fakeCampaigns)(nil)
	_ domain.ClickRepository     = (*fakeClicks)(nil)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeProducts struct {
	mu      sync.Mutex
	bySlug  map[string]string
	err     error
	lookups []string
}

func (f *fakeProducts) GetIDBySlug(_ context.Context, slug string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, slug)
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.bySlug[slug]
	if !ok {
		return "", domain.ErrNotFound
	}
	return id, nil
}

type fakeAffiliates struct {
	byCode map[string]*domain.Affiliate
	err    error
}

func (f *fakeAffiliates) GetByCode(_ context.Context, code string) (*domain.Affiliate, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

type fakeCampaigns struct {
	byCode map[string]*domain.InstagramCampaign
	err    error
}

func (f *fakeCampaigns) GetByCode(_ context.Context, code string) (*domain.InstagramCampaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

type fakeClicks struct {
	mu        sync.Mutex
	affiliate []domain.AffiliateClick
	campaign  []domain.CampaignClick
	err       error
	// storeAtInsert captures the visitor's stored fields when an insert is attempted.
	snapshot      func() map[string]string
	storeAtInsert []map[string]string
}

func (f *fakeClicks) InsertAffiliateClick(_ context.Context, click *domain.AffiliateClick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshot != nil {
		f.storeAtInsert = append(f.storeAtInsert, f.snapshot())
	}
	if f.err != nil {
		return f.err
	}
	f.affiliate = append(f.affiliate, *click)
	return nil
}

func (f *fakeClicks) InsertCampaignClick(_ context.Context, click *domain.CampaignClick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshot != nil {
		f.storeAtInsert = append(f.storeAtInsert, f.snapshot())
	}
	if f.err != nil {
		return f.err
	}
	f.campaign = append(f.campaign, *click)
	return nil
}

func (f *fakeClicks) affiliateClicks() []domain.AffiliateClick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AffiliateClick(nil), f.affiliate...)
}

func (f *fakeClicks) campaignClicks() []domain.CampaignClick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CampaignClick(nil), f.campaign...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.ClickEvent
	err    error
}

func (f *fakePublisher) PublishClick(_ context.Context, event domain.ClickEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

type staticUser string

func (u staticUser) CurrentUserID(context.Context) string { return string(u) }

// failingStore fails every operation named in failOn and delegates the rest.
type failingStore struct {
	domain.AttributionStore
	failOn map[string]bool
}

func (s *failingStore) Get(ctx context.Context, visitorID string, channel domain.Channel) (*domain.AttributionRecord, error) {
	if s.failOn["get"] {
		return nil, errNetwork
	}
	return s.AttributionStore.Get(ctx, visitorID, channel)
}

func (s *failingStore) Set(ctx context.Context, visitorID string, channel domain.Channel, record domain.AttributionRecord) error {
	if s.failOn["set"] {
		return errNetwork
	}
	return s.AttributionStore.Set(ctx, visitorID, channel, record)
}

func (s *failingStore) SetIfAbsent(ctx context.Context, visitorID string, channel domain.Channel, record domain.AttributionRecord) (bool, error) {
	if s.failOn["set"] {
		return false, errNetwork
	}
	return s.AttributionStore.SetIfAbsent(ctx, visitorID, channel, record)
}

func (s *failingStore) Replace(ctx context.Context, visitorID string, channel domain.Channel, current, next domain.AttributionRecord) (bool, error) {
	if s.failOn["set"] {
		return false, errNetwork
	}
	return s.AttributionStore.Replace(ctx, visitorID, channel, current, next)
}

// gatedStore holds every Get of one channel until parties callers have
// read, so concurrent visits all observe the channel before any writes.
type gatedStore struct {
	domain.AttributionStore
	channel domain.Channel
	parties int

	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func newGatedStore(inner domain.AttributionStore, channel domain.Channel, parties int) *gatedStore {
	return &gatedStore{AttributionStore: inner, channel: channel, parties: parties, release: make(chan struct{})}
}

func (s *gatedStore) Get(ctx context.Context, visitorID string, channel domain.Channel) (*domain.AttributionRecord, error) {
	record, err := s.AttributionStore.Get(ctx, visitorID, channel)
	if channel != s.channel {
		return record, err
	}

	s.mu.Lock()
	s.arrived++
	if s.arrived == s.parties {
		close(s.release)
	}
	s.mu.Unlock()

	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return record, err
}

type harness struct {
	clock      *fakeClock
	store      *store.MemoryStore
	products   *fakeProducts
	affiliates *fakeAffiliates
	campaigns  *fakeCampaigns
	clicks     *fakeClicks
	publisher  *fakePublisher
	reports    *sinkRecorder
	metrics    *metrics.AttributionMetrics
	uc         *DefaultAttributionUsecase
}

type sinkRecorder struct {
	mu    sync.Mutex
	tasks []string
	errs  []error
}

func (s *sinkRecorder) Report(task string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	s.errs = append(s.errs, err)
}

func (s *sinkRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

type harnessOption func(*harness, *Dependencies)

func withStore(wrap func(domain.AttributionStore) domain.AttributionStore) harnessOption {
	return func(h *harness, deps *Dependencies) {
		deps.Store = wrap(h.store)
	}
}

func withUser(id string) harnessOption {
	return func(_ *harness, deps *Dependencies) {
		deps.Users = staticUser(id)
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		clock: newFakeClock(),
		store: store.NewMemoryStore(),
		products: &fakeProducts{bySlug: map[string]string{
			"red-kurti": "6f1c2a9e-7f61-4c0d-9a63-1f3f0c8b2d10",
		}},
		affiliates: &fakeAffiliates{byCode: map[string]*domain.Affiliate{
			"AFF123": {ID: "aff-123", Code: "AFF123", Active: true},
			"AFF999": {ID: "aff-999", Code: "AFF999", Active: true},
			"SLEEPY": {ID: "aff-sleepy", Code: "SLEEPY", Active: false},
		}},
		campaigns: &fakeCampaigns{byCode: map[string]*domain.InstagramCampaign{
			"SPRING24": {ID: "camp-spring", Code: "SPRING24", Active: true},
			"IGSUMMER": {ID: "camp-summer", Code: "IGSUMMER", Active: true},
		}},
		clicks:    &fakeClicks{},
		publisher: &fakePublisher{},
		reports:   &sinkRecorder{},
		metrics:   metrics.NewAttributionMetrics(prometheus.NewRegistry()),
	}

	deps := Dependencies{
		Store:      h.store,
		Products:   h.products,
		Affiliates: h.affiliates,
		Campaigns:  h.campaigns,
		Clicks:     h.clicks,
		Publisher:  h.publisher,
		Submitter:  async.NewSubmitter(h.reports),
		Metrics:    h.metrics,
		Now:        h.clock.Now,
	}
	for _, opt := range opts {
		opt(h, &deps)
	}
	h.uc = NewDefaultAttributionUsecase(deps)
	return h
}

func (h *harness) seed(t *testing.T, visitorID string, channel domain.Channel, code string, age time.Duration) {
	t.Helper()
	err := h.store.Set(context.Background(), visitorID, channel, domain.AttributionRecord{
		Code:       code,
		CapturedAt: h.clock.Now().Add(-age),
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
}
