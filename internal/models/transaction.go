package models

import "time"

// Transaction is one provider-side payment attempt. The primary key is the
// provider's transaction identifier, supplied by the caller at creation and
// never generated locally. UserID, PlanID and Amount are fixed for the life
// of the record.
type Transaction struct {
	TxID          string           `gorm:"column:tx_id;primaryKey"`
	UserID        string           `gorm:"not null;index"`
	PlanID        string           `gorm:"not null"`
	Amount        int64            `gorm:"not null"`       // minor currency units
	RequestedTime int64            `gorm:"not null;index"` // provider clock, epoch ms
	State         TransactionState `gorm:"not null"`
	PerformedAt   *time.Time
	CancelledAt   *time.Time
	CancelReason  *int
	CreatedAt     time.Time `gorm:"default:now()"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}
