package models

import (
	"gorm.io/datatypes"
)

type SubscriptionPlan struct {
	BaseModel
	Name     string         `gorm:"not null"`
	Price    float64        `gorm:"not null"` // major currency units
	Currency string         `gorm:"default:'UZS'"`
	Duration string         `gorm:"not null"`   // "monthly", "yearly"
	Features datatypes.JSON `gorm:"type:jsonb"` // {"priority_support": true, ...}
	Limits   datatypes.JSON `gorm:"type:jsonb"` // {"requests": 100, ...}
	IsActive bool           `gorm:"default:true"`
}
