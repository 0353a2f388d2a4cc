package services

import (
	"context"

	"paygate_backend/internal/models"
	"paygate_backend/internal/repositories"
)

type PaymentService struct {
	logs *repositories.PaymentLogRepository
}

func NewPaymentService(logs *repositories.PaymentLogRepository) *PaymentService {
	return &PaymentService{logs: logs}
}

// History returns the audit log of performed transactions, newest first.
func (s *PaymentService) History(ctx context.Context, limit, offset int) ([]models.PaymentLog, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.logs.List(ctx, limit, offset)
}

// UserHistory returns one user's payment history.
func (s *PaymentService) UserHistory(ctx context.Context, userID string, limit, offset int) ([]models.PaymentLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.logs.ListByUser(ctx, userID, limit, offset)
}
