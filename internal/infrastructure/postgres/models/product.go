package models

import "time"

type ProductModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Slug      string `gorm:"uniqueIndex;not null"`
	Name      string
	Active    bool `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductModel) TableName() string {
	return "products"
}
