package setup

import (
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/async"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/attribution"
)

type UseCases struct {
	AttributionUsecase *attribution.DefaultAttributionUsecase
	Submitter          *async.Submitter
}

func InitializeUseCases(deps *Dependencies) *UseCases {
	submitter := async.NewSubmitter(newErrorSink(deps))

	cfg := deps.Config.Attribution
	uc := attribution.NewDefaultAttributionUsecase(attribution.Dependencies{
		Store:        deps.Store,
		Products:     deps.Repositories.ProductRepo,
		Affiliates:   deps.Repositories.AffiliateRepo,
		Campaigns:    deps.Repositories.CampaignRepo,
		Clicks:       deps.Repositories.ClickRepo,
		Publisher:    deps.ClickPublisher,
		Users:        deps.Users,
		Submitter:    submitter,
		Metrics:      deps.Metrics,
		Logger:       deps.Logger,
		AffiliateTTL: attribution.Days(cfg.AffiliateTTLDays),
		CampaignTTL:  attribution.Days(cfg.CampaignTTLDays),
	})

	return &UseCases{
		AttributionUsecase: uc,
		Submitter:          submitter,
	}
}

// newErrorSink logs failed background tasks and counts them per task.
func newErrorSink(deps *Dependencies) async.ErrorSink {
	logSink := async.LogSink{Logger: deps.Logger}
	return async.ErrorSinkFunc(func(task string, err error) {
		deps.Metrics.RecordAsyncFailure(task)
		logSink.Report(task, err)
	})
}
