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

type DefaultAffiliateRepository struct {
	DB *gorm.DB
}

func NewDefaultAffiliateRepository(db *gorm.DB) *DefaultAffiliateRepository {
	return &DefaultAffiliateRepository{DB: db}
}

func (r *DefaultAffiliateRepository) CreateAffiliate(ctx context.Context, affiliate *domain.Affiliate) error {
	if affiliate.ID == "" {
		affiliate.ID = uuid.New().String()
	}
	model := mappers.ToGORMAffiliate(affiliate)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	affiliate.CreatedAt = model.CreatedAt
	return nil
}

func (r *DefaultAffiliateRepository) GetByCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	var affiliateModel models.AffiliateModel
	if err := r.DB.WithContext(ctx).Where("code = ?", code).Take(&affiliateModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mappers.ToDomainAffiliate(&affiliateModel), nil
}

type DefaultCampaignRepository struct {
	DB *gorm.DB
}

func NewDefaultCampaignRepository(db *gorm.DB) *DefaultCampaignRepository {
	return &DefaultCampaignRepository{DB: db}
}

func (r *DefaultCampaignRepository) CreateCampaign(ctx context.Context, campaign *domain.InstagramCampaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	model := mappers.ToGORMCampaign(campaign)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	campaign.CreatedAt = model.CreatedAt
	return nil
}

func (r *DefaultCampaignRepository) GetByCode(ctx context.Context, code string) (*domain.InstagramCampaign, error) {
	var campaignModel models.InstagramCampaignModel
	if err := r.DB.WithContext(ctx).Where("code = ?", code).Take(&campaignModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return mappers.ToDomainCampaign(&campaignModel), nil
}
