package models

import "time"

type AffiliateModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Code      string `gorm:"uniqueIndex;not null"`
	Name      string
	Active    bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AffiliateModel) TableName() string {
	return "affiliates"
}

type InstagramCampaignModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Code      string `gorm:"uniqueIndex;not null"`
	Name      string
	Active    bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (InstagramCampaignModel) TableName() string {
	return "instagram_campaigns"
}
