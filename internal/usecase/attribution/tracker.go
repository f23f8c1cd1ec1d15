package attribution

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/metrics"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/async"
)

type Outcome string

const (
	OutcomeCaptured   Outcome = "captured"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomeAbsent     Outcome = "absent"
	OutcomeStoreError Outcome = "store_error"
)

// Visit is one page navigation as seen by the trackers.
type Visit struct {
	VisitorID string
	Path      string
	Query     url.Values
	Meta      RequestMeta
}

type TrackResult struct {
	Channel domain.Channel
	Outcome Outcome
	Code    string
	Purged  bool
	// Pending is the click logging task, nil when nothing was submitted.
	Pending *async.Future
}

// channelState loads and expires one channel of a visitor.
type channelState struct {
	store   domain.AttributionStore
	policy  ChannelPolicy
	metrics *metrics.AttributionMetrics
	logger  *slog.Logger
	nowFn   func() time.Time
}

// load returns the stored record if it is still valid. An expired record
// is purged and reported as absent.
func (s *channelState) load(ctx context.Context, visitorID string) (*domain.AttributionRecord, bool, error) {
	channel := string(s.policy.Channel)

	record, err := s.store.Get(ctx, visitorID, s.policy.Channel)
	if err != nil {
		s.metrics.RecordStoreError(channel, "get")
		return nil, false, err
	}
	if record == nil {
		return nil, false, nil
	}
	if CheckExpiry(record.CapturedAt, s.policy.TTL, s.nowFn()) == Valid {
		return record, false, nil
	}

	s.metrics.RecordExpired(channel)
	if err := s.store.Clear(ctx, visitorID, s.policy.Channel); err != nil {
		s.metrics.RecordStoreError(channel, "clear")
		s.logger.Error("failed to purge expired attribution", "channel", channel, "visitor_id", visitorID, "error", err.Error())
	}
	return nil, true, nil
}

func (s *channelState) capture(ctx context.Context, visitorID, code string) (domain.AttributionRecord, error) {
	record := s.newRecord(code)
	if err := s.store.Set(ctx, visitorID, s.policy.Channel, record); err != nil {
		s.metrics.RecordStoreError(string(s.policy.Channel), "set")
		return record, err
	}
	s.metrics.RecordCapture(string(s.policy.Channel))
	return record, nil
}

// captureIfAbsent stores code only when the channel is still empty and
// reports whether it did.
func (s *channelState) captureIfAbsent(ctx context.Context, visitorID, code string) (domain.AttributionRecord, bool, error) {
	record := s.newRecord(code)
	ok, err := s.store.SetIfAbsent(ctx, visitorID, s.policy.Channel, record)
	if err != nil {
		s.metrics.RecordStoreError(string(s.policy.Channel), "set")
		return record, false, err
	}
	if ok {
		s.metrics.RecordCapture(string(s.policy.Channel))
	}
	return record, ok, nil
}

func (s *channelState) newRecord(code string) domain.AttributionRecord {
	// Stores keep millisecond precision.
	return domain.AttributionRecord{Code: code, CapturedAt: s.nowFn().Truncate(time.Millisecond)}
}

func paramValue(query url.Values, name string) string {
	return strings.TrimSpace(query.Get(name))
}
