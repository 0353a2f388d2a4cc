package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paygate_backend/internal/models"
)

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).First(&tx, "tx_id = ?", txID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *GormStore) PutTransactionIfAbsent(ctx context.Context, tx *models.Transaction) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_id"}}, DoNothing: true}).
		Create(tx)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) UpdateTransactionState(ctx context.Context, txID string, from, to models.TransactionState, stamps TransitionStamps) (bool, error) {
	updates := map[string]interface{}{"state": to}
	if stamps.PerformedAt != nil {
		updates["performed_at"] = *stamps.PerformedAt
	}
	if stamps.CancelledAt != nil {
		updates["cancelled_at"] = *stamps.CancelledAt
	}
	if stamps.CancelReason != nil {
		updates["cancel_reason"] = *stamps.CancelReason
	}

	res := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("tx_id = ? AND state = ?", txID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) UpdateSubscription(ctx context.Context, userID, planID string, periodEnd, lastPayment time.Time, provider string) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"plan_id":             planID,
			"subscription_status": models.SubscriptionStatusActive,
			"current_period_end":  periodEnd,
			"last_payment":        lastPayment,
			"payment_provider":    provider,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) AppendPaymentLog(ctx context.Context, entry *models.PaymentLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) QueryTransactionsByTime(ctx context.Context, from, to int64) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("requested_time >= ? AND requested_time <= ?", from, to).
		Order("requested_time ASC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Atomic runs fn inside a database transaction. The Store passed to fn is
// scoped to that transaction.
func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
