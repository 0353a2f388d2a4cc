package repositories

import (
	"context"
	"errors"
	"time"

	"paygate_backend/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// TransitionStamps carries the timestamps written alongside a state change.
// Each field is set at most once, at the corresponding transition.
type TransitionStamps struct {
	PerformedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *int
}

// Store is the persistence boundary consumed by the webhook state machine.
// Every write is conditional so that concurrent retries of the same call
// converge on a single applied result.
type Store interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)

	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// PutTransactionIfAbsent inserts the record unless one with the same
	// TxID already exists. Returns false when the insert was skipped.
	PutTransactionIfAbsent(ctx context.Context, tx *models.Transaction) (bool, error)

	// UpdateTransactionState moves txID from the expected prior state to the
	// new one, applying the stamps. Returns false when the record was not in
	// the expected state (lost race or replayed call).
	UpdateTransactionState(ctx context.Context, txID string, from, to models.TransactionState, stamps TransitionStamps) (bool, error)

	// UpdateSubscription activates the user's subscription for the plan.
	UpdateSubscription(ctx context.Context, userID, planID string, periodEnd, lastPayment time.Time, provider string) error

	AppendPaymentLog(ctx context.Context, entry *models.PaymentLog) error

	// QueryTransactionsByTime returns transactions whose provider-requested
	// time falls in [from, to], both bounds inclusive, epoch milliseconds.
	QueryTransactionsByTime(ctx context.Context, from, to int64) ([]models.Transaction, error)

	// Atomic runs fn so that all writes made through the passed Store become
	// visible together or not at all.
	Atomic(ctx context.Context, fn func(Store) error) error
}

// PlanCatalog resolves subscription plans for amount verification.
type PlanCatalog interface {
	GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error)
}
