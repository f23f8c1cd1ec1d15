package mappers

import (
	"github.com/LavaJover/storefront-attribution-service/internal/domain"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/postgres/models"
)

func ToGORMAffiliateClick(click *domain.AffiliateClick) *models.AffiliateClickModel {
	return &models.AffiliateClickModel{
		ID:          click.ID,
		AffiliateID: click.AffiliateID,
		ProductID:   click.ProductID,
		LandingPage: click.LandingPage,
		Referrer:    click.Referrer,
		UserAgent:   click.UserAgent,
		CreatedAt:   click.CreatedAt,
	}
}

func ToGORMCampaignClick(click *domain.CampaignClick) *models.CampaignClickModel {
	return &models.CampaignClickModel{
		ID:          click.ID,
		CampaignID:  click.CampaignID,
		UserID:      click.UserID,
		ProductID:   click.ProductID,
		ReferrerURL: click.ReferrerURL,
		UserAgent:   click.UserAgent,
		CreatedAt:   click.CreatedAt,
	}
}
