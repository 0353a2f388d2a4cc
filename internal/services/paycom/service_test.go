package paycom

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate_backend/internal/models"
	"paygate_backend/internal/repositories"
)

const (
	testUserID = "u1"
	testPlanID = "individual"
	testAmount = int64(299) // minor units of the 2.99 plan price
)

func newTestStore() *repositories.MemoryStore {
	store := repositories.NewMemoryStore()
	store.AddUser(&models.User{
		BaseModel: models.BaseModel{ID: testUserID},
		Email:     "u1@example.com",
	})
	store.AddPlan(&models.SubscriptionPlan{
		BaseModel: models.BaseModel{ID: testPlanID},
		Name:      "Individual",
		Price:     2.99,
		Duration:  "monthly",
		IsActive:  true,
	})
	return store
}

func newTestService(store *repositories.MemoryStore, now time.Time) *Service {
	s := NewService(store, store, 30*24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func dispatch(t *testing.T, s *Service, method string, params interface{}, id interface{}) *Response {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return s.Dispatch(context.Background(), &Request{Method: method, Params: raw, ID: id})
}

func createTx(t *testing.T, s *Service, txID string, reqTime int64) {
	t.Helper()
	resp := dispatch(t, s, MethodCreateTransaction, CreateParams{
		ID:      txID,
		Time:    reqTime,
		Amount:  testAmount,
		Account: Account{UserID: testUserID, PlanID: testPlanID},
	}, 1)
	require.Nil(t, resp.Error)
}

// --- CheckPerformTransaction ---

func TestCheckPerformTransaction_Allow(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	s := newTestService(store, time.Now())

	resp := dispatch(t, s, MethodCheckPerformTransaction, CheckPerformParams{
		Amount:  testAmount,
		Account: Account{UserID: testUserID, PlanID: testPlanID},
	}, 7)

	require.Nil(t, resp.Error)
	assert.Equal(t, CheckPerformResult{Allow: true}, resp.Result)
	assert.Equal(t, 7, resp.ID)
}

func TestCheckPerformTransaction_UnknownUser(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	resp := dispatch(t, s, MethodCheckPerformTransaction, CheckPerformParams{
		Amount:  testAmount,
		Account: Account{UserID: "missing", PlanID: testPlanID},
	}, 1)

	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUserNotFound, resp.Error.Code)

	// All three language variants must be populated.
	msg, ok := resp.Error.Message.(Message)
	require.True(t, ok)
	assert.NotEmpty(t, msg.UZ)
	assert.NotEmpty(t, msg.RU)
	assert.NotEmpty(t, msg.EN)
}

func TestCheckPerformTransaction_AmountTolerance(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	cases := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"exact", 299, false},
		{"one cent over, inside tolerance", 300, false},
		{"one cent under, inside tolerance", 298, false},
		{"two cents over", 301, true},
		{"way off", 29900, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := dispatch(t, s, MethodCheckPerformTransaction, CheckPerformParams{
				Amount:  tc.amount,
				Account: Account{UserID: testUserID, PlanID: testPlanID},
			}, 1)
			if tc.wantErr {
				require.NotNil(t, resp.Error)
				assert.Equal(t, CodeIncorrectAmount, resp.Error.Code)
			} else {
				require.Nil(t, resp.Error)
			}
		})
	}
}

// --- CreateTransaction ---

func TestCreateTransaction_IdempotentRetry(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	s := newTestService(store, time.Now())

	params := CreateParams{
		ID:      "tx1",
		Time:    1700000000000,
		Amount:  testAmount,
		Account: Account{UserID: testUserID, PlanID: testPlanID},
	}

	first := dispatch(t, s, MethodCreateTransaction, params, 1)
	require.Nil(t, first.Error)
	assert.Equal(t, CreateResult{
		CreateTime:  1700000000000,
		Transaction: "tx1",
		State:       1,
	}, first.Result)

	// Retransmission returns the same stored record, no second insert.
	second := dispatch(t, s, MethodCreateTransaction, params, 2)
	require.Nil(t, second.Error)
	assert.Equal(t, first.Result, second.Result)

	tx, err := store.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStateCreated, tx.State)
}

func TestCreateTransaction_RejectsChangedAmount(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	s := newTestService(store, time.Now())
	createTx(t, s, "tx1", 1700000000000)

	resp := dispatch(t, s, MethodCreateTransaction, CreateParams{
		ID:      "tx1",
		Time:    1700000000000,
		Amount:  testAmount + 100,
		Account: Account{UserID: testUserID, PlanID: testPlanID},
	}, 1)

	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeIncorrectAmount, resp.Error.Code)

	// The stored record must be untouched.
	tx, err := store.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, testAmount, tx.Amount)
}

func TestCreateTransaction_UnknownUser(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	resp := dispatch(t, s, MethodCreateTransaction, CreateParams{
		ID:      "tx1",
		Time:    1700000000000,
		Amount:  testAmount,
		Account: Account{UserID: "missing", PlanID: testPlanID},
	}, 1)

	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeUserNotFound, resp.Error.Code)
}

// --- PerformTransaction ---

func TestPerformTransaction_ExtendsSubscriptionOnce(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)
	createTx(t, s, "tx1", 1700000000000)

	resp := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 1)
	require.Nil(t, resp.Error)
	result := resp.Result.(PerformResult)
	assert.Equal(t, "tx1", result.Transaction)
	assert.Equal(t, now.UnixMilli(), result.PerformTime)
	assert.Equal(t, 2, result.State)

	user, err := store.GetUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, testPlanID, user.PlanID)
	assert.Equal(t, models.SubscriptionStatusActive, user.SubscriptionStatus)
	require.NotNil(t, user.CurrentPeriodEnd)
	assert.Equal(t, now.Add(30*24*time.Hour), *user.CurrentPeriodEnd)
	require.NotNil(t, user.LastPayment)
	assert.Equal(t, now, *user.LastPayment)
	assert.Equal(t, ProviderTag, user.PaymentProvider)

	require.Len(t, store.PaymentLogs(), 1)

	// A later retry must repeat the original answer and not extend again.
	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	retry := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 2)
	require.Nil(t, retry.Error)
	assert.Equal(t, result, retry.Result.(PerformResult))

	user, err = store.GetUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), *user.CurrentPeriodEnd)
	assert.Len(t, store.PaymentLogs(), 1)
}

func TestPerformTransaction_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	resp := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "unknown"}, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTransactionNotFound, resp.Error.Code)
}

func TestPerformTransaction_OnCancelledConverges(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)
	createTx(t, s, "tx1", 1700000000000)

	reason := 3
	cancel := dispatch(t, s, MethodCancelTransaction, CancelParams{ID: "tx1", Reason: &reason}, 1)
	require.Nil(t, cancel.Error)

	// Performing a cancelled transaction reports the stored cancelled state
	// instead of erroring, so the provider converges.
	resp := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 2)
	require.Nil(t, resp.Error)
	result := resp.Result.(PerformResult)
	assert.Equal(t, -1, result.State)
	assert.Zero(t, result.PerformTime)

	// No subscription was extended.
	user, err := store.GetUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.NotEqual(t, models.SubscriptionStatusActive, user.SubscriptionStatus)
	assert.Empty(t, store.PaymentLogs())
}

func TestPerformTransaction_PartialFailureLeavesNothingApplied(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)
	createTx(t, s, "tx1", 1700000000000)

	store.Fail["AppendPaymentLog"] = assert.AnError
	resp := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)

	// Neither the state change nor the subscription extension is visible.
	tx, err := store.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStateCreated, tx.State)
	user, err := store.GetUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, user.CurrentPeriodEnd)
	assert.Empty(t, store.PaymentLogs())

	// The provider's retry after the fault lands on the normal path.
	delete(store.Fail, "AppendPaymentLog")
	retry := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 2)
	require.Nil(t, retry.Error)
	assert.Equal(t, 2, retry.Result.(PerformResult).State)
	assert.Len(t, store.PaymentLogs(), 1)
}

// --- CancelTransaction ---

func TestCancelTransaction_BeforePerform(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)
	createTx(t, s, "tx1", 1700000000000)

	reason := 5
	resp := dispatch(t, s, MethodCancelTransaction, CancelParams{ID: "tx1", Reason: &reason}, 1)
	require.Nil(t, resp.Error)
	result := resp.Result.(CancelResult)
	assert.Equal(t, -1, result.State)
	assert.Equal(t, now.UnixMilli(), result.CancelTime)

	// Replay at a later time repeats the first answer.
	s.now = func() time.Time { return now.Add(time.Hour) }
	retry := dispatch(t, s, MethodCancelTransaction, CancelParams{ID: "tx1", Reason: &reason}, 2)
	require.Nil(t, retry.Error)
	assert.Equal(t, result, retry.Result.(CancelResult))

	tx, err := store.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	require.NotNil(t, tx.CancelReason)
	assert.Equal(t, 5, *tx.CancelReason)
}

func TestCancelTransaction_AfterPerformKeepsSubscription(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)
	createTx(t, s, "tx1", 1700000000000)

	perform := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 1)
	require.Nil(t, perform.Error)

	reason := 1
	resp := dispatch(t, s, MethodCancelTransaction, CancelParams{ID: "tx1", Reason: &reason}, 2)
	require.Nil(t, resp.Error)
	assert.Equal(t, -2, resp.Result.(CancelResult).State)

	// The subscription extension is deliberately not reverted.
	user, err := store.GetUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, user.SubscriptionStatus)
	require.NotNil(t, user.CurrentPeriodEnd)
}

func TestCancelTransaction_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	resp := dispatch(t, s, MethodCancelTransaction, CancelParams{ID: "unknown"}, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTransactionNotFound, resp.Error.Code)
}

// --- Monotonic state machine ---

func TestStateMachine_NoBackwardTransitions(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)
	createTx(t, s, "tx1", 1700000000000)

	dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 1)
	dispatch(t, s, MethodCancelTransaction, CancelParams{ID: "tx1"}, 2)

	// Terminal state: further perform and cancel calls change nothing.
	perform := dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 3)
	require.Nil(t, perform.Error)
	assert.Equal(t, -2, perform.Result.(PerformResult).State)

	cancel := dispatch(t, s, MethodCancelTransaction, CancelParams{ID: "tx1"}, 4)
	require.Nil(t, cancel.Error)
	assert.Equal(t, -2, cancel.Result.(CancelResult).State)

	tx, err := store.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStateCancelledAfterPerform, tx.State)
	assert.Len(t, store.PaymentLogs(), 1)
}

// --- CheckTransaction ---

func TestCheckTransaction_Lifecycle(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(store, now)
	createTx(t, s, "tx1", 1700000000000)

	resp := dispatch(t, s, MethodCheckTransaction, CheckParams{ID: "tx1"}, 1)
	require.Nil(t, resp.Error)
	result := resp.Result.(CheckResult)
	assert.Equal(t, CheckResult{
		CreateTime:  1700000000000,
		PerformTime: 0,
		CancelTime:  0,
		Transaction: "tx1",
		State:       1,
		Reason:      nil,
	}, result)

	dispatch(t, s, MethodPerformTransaction, PerformParams{ID: "tx1"}, 2)

	resp = dispatch(t, s, MethodCheckTransaction, CheckParams{ID: "tx1"}, 3)
	require.Nil(t, resp.Error)
	result = resp.Result.(CheckResult)
	assert.Equal(t, now.UnixMilli(), result.PerformTime)
	assert.Equal(t, 2, result.State)
}

func TestCheckTransaction_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	resp := dispatch(t, s, MethodCheckTransaction, CheckParams{ID: "unknown"}, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTransactionNotFound, resp.Error.Code)
	assert.Equal(t, "Transaction not found", resp.Error.Message)
}

// --- GetStatement ---

func TestGetStatement_InclusiveWindow(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	s := newTestService(store, time.Now())
	createTx(t, s, "tx1", 1000)
	createTx(t, s, "tx2", 2000)
	createTx(t, s, "tx3", 3000)

	resp := dispatch(t, s, MethodGetStatement, StatementParams{From: 1000, To: 2000}, 1)
	require.Nil(t, resp.Error)
	result := resp.Result.(StatementResult)
	require.Len(t, result.Transactions, 2)

	seen := map[string]bool{}
	for _, e := range result.Transactions {
		seen[e.Transaction] = true
		assert.Equal(t, Account{UserID: testUserID, PlanID: testPlanID}, e.Account)
		assert.Equal(t, 1, e.State)
	}
	assert.True(t, seen["tx1"])
	assert.True(t, seen["tx2"])
}

// --- Dispatcher ---

func TestDispatch_UnknownMethod(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	resp := s.Dispatch(context.Background(), &Request{Method: "DestroyTransaction", ID: "req-9"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "req-9", resp.ID)
}

func TestDispatch_StoreFailureMapsToInternalError(t *testing.T) {
	t.Parallel()
	store := newTestStore()
	s := newTestService(store, time.Now())
	store.Fail["GetTransaction"] = assert.AnError

	resp := dispatch(t, s, MethodCheckTransaction, CheckParams{ID: "tx1"}, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Equal(t, 1, resp.ID)
}

func TestDispatch_MalformedParams(t *testing.T) {
	t.Parallel()
	s := newTestService(newTestStore(), time.Now())

	resp := s.Dispatch(context.Background(), &Request{
		Method: MethodCreateTransaction,
		Params: json.RawMessage(`"not an object"`),
		ID:     5,
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInternalError, resp.Error.Code)
	assert.Equal(t, 5, resp.ID)
}
