package models

import "time"

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);default:'customer'"`

	// Subscription fields, mutated exactly once per performed transaction.
	PlanID             string             `gorm:"index"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(20);default:'inactive'"`
	CurrentPeriodEnd   *time.Time
	LastPayment        *time.Time
	PaymentProvider    string `gorm:"type:varchar(30)"`
}
