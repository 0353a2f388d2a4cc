package repositories

import (
	"context"
	"sync"
	"time"

	"paygate_backend/internal/models"
)

// MemoryStore is an in-memory Store and plan source used by tests and local
// development. Writes hold one lock, so the conditional-write semantics
// match the database implementation.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	plans map[string]*models.SubscriptionPlan
	txs   map[string]*models.Transaction
	logs  []models.PaymentLog

	// Fail injects an error for the named method, for failure-path tests.
	Fail map[string]error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		plans: make(map[string]*models.SubscriptionPlan),
		txs:   make(map[string]*models.Transaction),
		Fail:  make(map[string]error),
	}
}

func (m *MemoryStore) failure(method string) error {
	if err, ok := m.Fail[method]; ok {
		return err
	}
	return nil
}

func (m *MemoryStore) AddUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MemoryStore) AddPlan(plan *models.SubscriptionPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = plan
}

func (m *MemoryStore) PaymentLogs() []models.PaymentLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PaymentLog, len(m.logs))
	copy(out, m.logs)
	return out
}

func (m *MemoryStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if err := m.failure("GetUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getUser(userID)
}

func (m *MemoryStore) getUser(userID string) (*models.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) GetPlan(ctx context.Context, planID string) (*models.SubscriptionPlan, error) {
	if err := m.failure("GetPlan"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[planID]
	if !ok || !plan.IsActive {
		return nil, ErrNotFound
	}
	cp := *plan
	return &cp, nil
}

func (m *MemoryStore) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	if err := m.failure("ListPlans"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SubscriptionPlan
	for _, plan := range m.plans {
		if plan.IsActive {
			out = append(out, *plan)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	if err := m.failure("GetTransaction"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getTransaction(txID)
}

func (m *MemoryStore) getTransaction(txID string) (*models.Transaction, error) {
	tx, ok := m.txs[txID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *MemoryStore) PutTransactionIfAbsent(ctx context.Context, tx *models.Transaction) (bool, error) {
	if err := m.failure("PutTransactionIfAbsent"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putTransactionIfAbsent(tx)
}

func (m *MemoryStore) putTransactionIfAbsent(tx *models.Transaction) (bool, error) {
	if _, exists := m.txs[tx.TxID]; exists {
		return false, nil
	}
	cp := *tx
	cp.CreatedAt = time.Now()
	m.txs[tx.TxID] = &cp
	return true, nil
}

func (m *MemoryStore) UpdateTransactionState(ctx context.Context, txID string, from, to models.TransactionState, stamps TransitionStamps) (bool, error) {
	if err := m.failure("UpdateTransactionState"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateTransactionState(txID, from, to, stamps)
}

func (m *MemoryStore) updateTransactionState(txID string, from, to models.TransactionState, stamps TransitionStamps) (bool, error) {
	tx, ok := m.txs[txID]
	if !ok || tx.State != from {
		return false, nil
	}
	tx.State = to
	if stamps.PerformedAt != nil {
		tx.PerformedAt = stamps.PerformedAt
	}
	if stamps.CancelledAt != nil {
		tx.CancelledAt = stamps.CancelledAt
	}
	if stamps.CancelReason != nil {
		tx.CancelReason = stamps.CancelReason
	}
	tx.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryStore) UpdateSubscription(ctx context.Context, userID, planID string, periodEnd, lastPayment time.Time, provider string) error {
	if err := m.failure("UpdateSubscription"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateSubscription(userID, planID, periodEnd, lastPayment, provider)
}

func (m *MemoryStore) updateSubscription(userID, planID string, periodEnd, lastPayment time.Time, provider string) error {
	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.PlanID = planID
	user.SubscriptionStatus = models.SubscriptionStatusActive
	user.CurrentPeriodEnd = &periodEnd
	user.LastPayment = &lastPayment
	user.PaymentProvider = provider
	return nil
}

func (m *MemoryStore) AppendPaymentLog(ctx context.Context, entry *models.PaymentLog) error {
	if err := m.failure("AppendPaymentLog"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendPaymentLog(entry)
	return nil
}

func (m *MemoryStore) appendPaymentLog(entry *models.PaymentLog) {
	m.logs = append(m.logs, *entry)
}

func (m *MemoryStore) QueryTransactionsByTime(ctx context.Context, from, to int64) ([]models.Transaction, error) {
	if err := m.failure("QueryTransactionsByTime"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryTransactionsByTime(from, to)
}

func (m *MemoryStore) queryTransactionsByTime(from, to int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range m.txs {
		if tx.RequestedTime >= from && tx.RequestedTime <= to {
			out = append(out, *tx)
		}
	}
	return out, nil
}

// Atomic holds the store lock for the whole block and runs fn against a
// transaction-scoped view, so no other write can land between the snapshot
// and a rollback.
func (m *MemoryStore) Atomic(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	usersSnap := snapshotMap(m.users)
	txsSnap := snapshotMap(m.txs)
	logsLen := len(m.logs)

	if err := fn(&memoryTx{m: m}); err != nil {
		m.users = usersSnap
		m.txs = txsSnap
		m.logs = m.logs[:logsLen]
		return err
	}
	return nil
}

// memoryTx is the Store handed to an Atomic block. The outer Atomic call
// already holds the store lock, so its methods go straight to the maps.
type memoryTx struct {
	m *MemoryStore
}

var _ Store = (*memoryTx)(nil)

func (t *memoryTx) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if err := t.m.failure("GetUser"); err != nil {
		return nil, err
	}
	return t.m.getUser(userID)
}

func (t *memoryTx) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	if err := t.m.failure("GetTransaction"); err != nil {
		return nil, err
	}
	return t.m.getTransaction(txID)
}

func (t *memoryTx) PutTransactionIfAbsent(ctx context.Context, tx *models.Transaction) (bool, error) {
	if err := t.m.failure("PutTransactionIfAbsent"); err != nil {
		return false, err
	}
	return t.m.putTransactionIfAbsent(tx)
}

func (t *memoryTx) UpdateTransactionState(ctx context.Context, txID string, from, to models.TransactionState, stamps TransitionStamps) (bool, error) {
	if err := t.m.failure("UpdateTransactionState"); err != nil {
		return false, err
	}
	return t.m.updateTransactionState(txID, from, to, stamps)
}

func (t *memoryTx) UpdateSubscription(ctx context.Context, userID, planID string, periodEnd, lastPayment time.Time, provider string) error {
	if err := t.m.failure("UpdateSubscription"); err != nil {
		return err
	}
	return t.m.updateSubscription(userID, planID, periodEnd, lastPayment, provider)
}

func (t *memoryTx) AppendPaymentLog(ctx context.Context, entry *models.PaymentLog) error {
	if err := t.m.failure("AppendPaymentLog"); err != nil {
		return err
	}
	t.m.appendPaymentLog(entry)
	return nil
}

func (t *memoryTx) QueryTransactionsByTime(ctx context.Context, from, to int64) ([]models.Transaction, error) {
	if err := t.m.failure("QueryTransactionsByTime"); err != nil {
		return nil, err
	}
	return t.m.queryTransactionsByTime(from, to)
}

// Atomic inside an Atomic block joins the enclosing one.
func (t *memoryTx) Atomic(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

func snapshotMap[T any](src map[string]*T) map[string]*T {
	out := make(map[string]*T, len(src))
	for k, v := range src {
		cp := *v
		out[k] = &cp
	}
	return out
}
