package domain

import "context"

type Product struct {
	ID     string
	Slug   string
	Name   string
	Active bool
}

type ProductRepository interface {
	// GetIDBySlug returns ErrNotFound when no product carries the slug.
	GetIDBySlug(ctx context.Context, slug string) (string, error)
}
