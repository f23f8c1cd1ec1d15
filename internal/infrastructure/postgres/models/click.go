package models

import "time"

type AffiliateClickModel struct {
	ID          string  `gorm:"primaryKey;type:uuid"`
	AffiliateID string  `gorm:"type:uuid;index:idx_affiliate_clicks_affiliate;not null"`
	ProductID   *string `gorm:"type:uuid"`
	LandingPage string
	Referrer    string
	UserAgent   string
	CreatedAt   time.Time `gorm:"index"`
}

func (AffiliateClickModel) TableName() string {
	return "affiliate_clicks"
}

type CampaignClickModel struct {
	ID          string  `gorm:"primaryKey;type:uuid"`
	CampaignID  string  `gorm:"type:uuid;index:idx_campaign_clicks_campaign;not null"`
	UserID      *string
	ProductID   *string `gorm:"type:uuid"`
	ReferrerURL string
	UserAgent   string
	CreatedAt   time.Time `gorm:"index"`
}

func (CampaignClickModel) TableName() string {
	return "campaign_clicks"
}
