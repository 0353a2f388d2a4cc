package repositories

import (
	"context"

	"gorm.io/gorm"

	"paygate_backend/internal/models"
)

type PaymentLogRepository struct {
	db *gorm.DB
}

func NewPaymentLogRepository(db *gorm.DB) *PaymentLogRepository {
	return &PaymentLogRepository{db: db}
}

// List returns payment log entries, newest first.
func (r *PaymentLogRepository) List(ctx context.Context, limit, offset int) ([]models.PaymentLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.PaymentLog
	err := r.db.WithContext(ctx).
		Order("paid_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListByUser returns a single user's payment history, newest first.
func (r *PaymentLogRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.PaymentLog, error) {
	var entries []models.PaymentLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("paid_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
