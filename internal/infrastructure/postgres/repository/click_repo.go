package repository

import (
	"context"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultClickRepository struct {
	DB *gorm.DB
}

func NewDefaultClickRepository(db *gorm.DB) *DefaultClickRepository {
	return &DefaultClickRepository{DB: db}
}

func (r *DefaultClickRepository) InsertAffiliateClick(ctx context.Context, click *domain.AffiliateClick) error {
	click.ID = uuid.New().String()
	return r.DB.WithContext(ctx).Create(mappers.ToGORMAffiliateClick(click)).Error
}

func (r *DefaultClickRepository) InsertCampaignClick(ctx context.Context, click *domain.CampaignClick) error {
	click.ID = uuid.New().String()
	return r.DB.WithContext(ctx).Create(mappers.ToGORMCampaignClick(click)).Error
}

func (r *DefaultClickRepository) CountAffiliateClicks(ctx context.Context, affiliateID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.AffiliateClickModel{}).
		Where("affiliate_id = ?", affiliateID).
		Count(&count).Error
	return count, err
}

func (r *DefaultClickRepository) CountCampaignClicks(ctx context.Context, campaignID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.CampaignClickModel{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}
