package models

type UserRole string
type SubscriptionStatus string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleCustomer UserRole = "customer"

	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

// TransactionState mirrors the provider's numeric transaction states.
// Transitions are forward-only: Created may become Performed or Cancelled,
// Performed may become CancelledAfterPerform. Both cancelled states are
// terminal.
type TransactionState int

const (
	TransactionStateCreated               TransactionState = 1
	TransactionStatePerformed             TransactionState = 2
	TransactionStateCancelled             TransactionState = -1
	TransactionStateCancelledAfterPerform TransactionState = -2
)

// Terminal reports whether no further transition is permitted.
func (s TransactionState) Terminal() bool {
	return s == TransactionStateCancelled || s == TransactionStateCancelledAfterPerform
}
