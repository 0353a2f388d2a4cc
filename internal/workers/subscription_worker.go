package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"paygate_backend/internal/logger"
)

// SubscriptionWorker marks lapsed subscriptions as inactive. Performing a
// transaction re-activates a user, so the worker only ever moves users
// whose paid period is over.
type SubscriptionWorker struct {
	db       *gorm.DB
	interval time.Duration
}

func NewSubscriptionWorker(db *gorm.DB) *SubscriptionWorker {
	return &SubscriptionWorker{db: db, interval: time.Hour}
}

// Start runs the expiry check until ctx is cancelled.
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.checkExpiredSubscriptions(ctx)
}

func (w *SubscriptionWorker) checkExpiredSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription worker stopped")
			return
		case <-ticker.C:
			result := w.db.WithContext(ctx).Exec(`
				UPDATE users
				SET subscription_status = 'inactive', updated_at = NOW()
				WHERE subscription_status = 'active'
				AND current_period_end < NOW()
			`)
			if result.Error != nil {
				logger.WithError(result.Error).Error("expiry check failed")
			} else if result.RowsAffected > 0 {
				logger.Info("marked subscriptions inactive", "count", result.RowsAffected)
			}
		}
	}
}
