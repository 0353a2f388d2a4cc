package models

import "time"

// PaymentLog is the append-only audit record written once per performed
// transaction. It is displayed in the merchant history API and never read
// back by the webhook itself.
type PaymentLog struct {
	BaseModel
	TxID     string    `gorm:"column:tx_id;not null;uniqueIndex"`
	UserID   string    `gorm:"not null;index"`
	PlanID   string    `gorm:"not null"`
	Amount   int64     `gorm:"not null"` // minor currency units
	Provider string    `gorm:"type:varchar(30);not null"`
	PaidAt   time.Time `gorm:"not null"`
}
