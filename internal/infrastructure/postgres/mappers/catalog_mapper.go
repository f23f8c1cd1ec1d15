package mappers

import (
	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/models"
)

func ToGORMProduct(product *domain.Product) *models.ProductModel {
	return &models.ProductModel{
		ID:     product.ID,
		Slug:   product.Slug,
		Name:   product.Name,
		Active: product.Active,
	}
}

func ToGORMAffiliate(affiliate *domain.Affiliate) *models.AffiliateModel {
	return &models.AffiliateModel{
		ID:        affiliate.ID,
		Code:      affiliate.Code,
		Name:      affiliate.Name,
		Active:    affiliate.Active,
		CreatedAt: affiliate.CreatedAt,
	}
}

func ToDomainAffiliate(model *models.AffiliateModel) *domain.Affiliate {
	return &domain.Affiliate{
		ID:        model.ID,
		Code:      model.Code,
		Name:      model.Name,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
	}
}

func ToGORMCampaign(campaign *domain.InstagramCampaign) *models.InstagramCampaignModel {
	return &models.InstagramCampaignModel{
		ID:        campaign.ID,
		Code:      campaign.Code,
		Name:      campaign.Name,
		Active:    campaign.Active,
		CreatedAt: campaign.CreatedAt,
	}
}

func ToDomainCampaign(model *models.InstagramCampaignModel) *domain.InstagramCampaign {
	return &domain.InstagramCampaign{
		ID:        model.ID,
		Code:      model.Code,
		Name:      model.Name,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
	}
}
