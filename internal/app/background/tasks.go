package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/store"
	"github.com/LavaJover/storefront-attribution-service/internal/usecase/attribution"
)

type BackgroundTasks struct {
	MemoryStore   *store.MemoryStore
	Policies      map[domain.Channel]attribution.ChannelPolicy
	SweepInterval time.Duration
	Logger        *slog.Logger
	nowFn         func() time.Time
}

func NewBackgroundTasks(memoryStore *store.MemoryStore, policies map[domain.Channel]attribution.ChannelPolicy, sweepInterval time.Duration, logger *slog.Logger) *BackgroundTasks {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackgroundTasks{
		MemoryStore:   memoryStore,
		Policies:      policies,
		SweepInterval: sweepInterval,
		Logger:        logger,
		nowFn:         time.Now,
	}
}

// StartAll launches the enabled loops; they stop when ctx is cancelled.
func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	if bt.MemoryStore != nil && bt.SweepInterval > 0 {
		go bt.startMemorySweep(ctx)
	}
}

func (bt *BackgroundTasks) startMemorySweep(ctx context.Context) {
	ticker := time.NewTicker(bt.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.sweepOnce()
		}
	}
}

func (bt *BackgroundTasks) sweepOnce() int {
	ttls := make(map[domain.Channel]time.Duration, len(bt.Policies))
	for channel, policy := range bt.Policies {
		ttls[channel] = policy.TTL
	}
	removed := bt.MemoryStore.Sweep(bt.nowFn(), ttls)
	if removed > 0 {
		bt.Logger.Info("expired visitor attributions swept", "visitors", removed)
	}
	return removed
}
