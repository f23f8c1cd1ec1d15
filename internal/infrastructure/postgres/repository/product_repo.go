package repository

import (
	"context"
	"errors"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultProductRepository struct {
	DB *gorm.DB
}

func NewDefaultProductRepository(db *gorm.DB) *DefaultProductRepository {
	return &DefaultProductRepository{DB: db}
}

func (r *DefaultProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	return r.DB.WithContext(ctx).Create(mappers.ToGORMProduct(product)).Error
}

func (r *DefaultProductRepository) GetIDBySlug(ctx context.Context, slug string) (string, error) {
	var productModel models.ProductModel
	err := r.DB.WithContext(ctx).
		Select("id").
		Where("slug = ?", slug).
		Take(&productModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return productModel.ID, nil
}
