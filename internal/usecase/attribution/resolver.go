package attribution

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/metrics"
)

// Resolver maps a product slug to the product's stable id.
type Resolver struct {
	products domain.ProductRepository
	metrics  *metrics.AttributionMetrics
	logger   *slog.Logger
}

func NewResolver(products domain.ProductRepository, m *metrics.AttributionMetrics, logger *slog.Logger) *Resolver {
	return &Resolver{products: products, metrics: m, logger: logger}
}

// Resolve returns nil when the slug is unknown or the lookup fails.
func (r *Resolver) Resolve(ctx context.Context, slug string) *string {
	id, err := r.products.GetIDBySlug(ctx, slug)
	switch {
	case err == nil:
		r.metrics.RecordResolution(true)
		return &id
	case errors.Is(err, domain.ErrNotFound):
		r.metrics.RecordResolution(false)
		r.logger.Warn("product slug not found", "slug", slug)
	default:
		r.metrics.RecordResolutionError()
		r.logger.Error("product slug lookup failed", "slug", slug, "error", err.Error())
	}
	return nil
}

// ResolvePath resolves the product slug of a /product/:slug path, if any.
func (r *Resolver) ResolvePath(ctx context.Context, path string) *string {
	slug, ok := ProductSlug(path)
	if !ok {
		return nil
	}
	return r.Resolve(ctx, slug)
}
