package paycom

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"paygate_backend/internal/logger"
	"paygate_backend/internal/models"
	"paygate_backend/internal/repositories"
)

// ProviderTag marks subscription and log rows written by this webhook.
const ProviderTag = "paycom"

// amountTolerance is the accepted mismatch between the plan price and the
// received amount, in major currency units. amountEpsilon absorbs float
// rounding at the comparison boundary so a mismatch of exactly the
// tolerance is still accepted.
const (
	amountTolerance = 0.01
	amountEpsilon   = 1e-9
)

// errStateConflict aborts an Atomic block when the conditional state update
// finds the record no longer in the expected state. The caller reloads the
// record and answers from its stored timestamps.
var errStateConflict = errors.New("transaction state conflict")

// Service is the transaction state machine behind the webhook. Every method
// is safe under at-least-once delivery: the provider may duplicate, retry or
// reorder any call.
type Service struct {
	store       repositories.Store
	plans       repositories.PlanCatalog
	renewPeriod time.Duration
	now         func() time.Time
}

func NewService(store repositories.Store, plans repositories.PlanCatalog, renewPeriod time.Duration) *Service {
	return &Service{
		store:       store,
		plans:       plans,
		renewPeriod: renewPeriod,
		now:         time.Now,
	}
}

// Dispatch routes a decoded envelope to its handler and always returns a
// well-formed response. Panics and unexpected store errors come back as the
// generic internal error, never as a malformed body.
func (s *Service) Dispatch(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(ctx, "paycom handler panic", "method", req.Method, "panic", r)
			resp = NewErrorResponse(req.ID, ErrInternal())
		}
	}()

	var (
		result interface{}
		err    error
	)

	switch req.Method {
	case MethodCheckPerformTransaction:
		result, err = s.checkPerformTransaction(ctx, req.Params)
	case MethodCreateTransaction:
		result, err = s.createTransaction(ctx, req.Params)
	case MethodPerformTransaction:
		result, err = s.performTransaction(ctx, req.Params)
	case MethodCancelTransaction:
		result, err = s.cancelTransaction(ctx, req.Params)
	case MethodCheckTransaction:
		result, err = s.checkTransaction(ctx, req.Params)
	case MethodGetStatement:
		result, err = s.getStatement(ctx, req.Params)
	default:
		return NewErrorResponse(req.ID, ErrMethodNotFound(req.Method))
	}

	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return NewErrorResponse(req.ID, perr)
		}
		logger.CtxWithError(ctx, "paycom handler failed", err, "method", req.Method)
		return NewErrorResponse(req.ID, ErrInternal())
	}
	return NewResultResponse(req.ID, result)
}

// checkPerformTransaction validates feasibility only; it has no side
// effects.
func (s *Service) checkPerformTransaction(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p CheckPerformParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := s.verifyAccount(ctx, p.Account, p.Amount); err != nil {
		return nil, err
	}
	return CheckPerformResult{Allow: true}, nil
}

func (s *Service) createTransaction(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p CreateParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	existing, err := s.store.GetTransaction(ctx, p.ID)
	if err == nil {
		return createResultFor(existing, p.Amount)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	if err := s.verifyAccount(ctx, p.Account, p.Amount); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		TxID:          p.ID,
		UserID:        p.Account.UserID,
		PlanID:        p.Account.PlanID,
		Amount:        p.Amount,
		RequestedTime: p.Time,
		State:         models.TransactionStateCreated,
	}
	created, err := s.store.PutTransactionIfAbsent(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost a race with a concurrent identical call: answer from the
		// record that won.
		existing, err := s.store.GetTransaction(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return createResultFor(existing, p.Amount)
	}

	logger.CtxInfo(ctx, "transaction created",
		"tx_id", p.ID, "user_id", p.Account.UserID, "plan_id", p.Account.PlanID, "amount", p.Amount)

	return CreateResult{
		CreateTime:  p.Time,
		Transaction: p.ID,
		State:       int(models.TransactionStateCreated),
	}, nil
}

// createResultFor answers a retransmitted CreateTransaction from the stored
// record. The (user, plan, amount) tuple is immutable per tx id, so a retry
// carrying a different amount is rejected rather than overwriting anything.
func createResultFor(tx *models.Transaction, amount int64) (interface{}, error) {
	if tx.Amount != amount {
		return nil, ErrIncorrectAmount()
	}
	return CreateResult{
		CreateTime:  tx.RequestedTime,
		Transaction: tx.TxID,
		State:       int(tx.State),
	}, nil
}

func (s *Service) performTransaction(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p PerformParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	tx, err := s.store.GetTransaction(ctx, p.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTransactionNotFound()
	}
	if err != nil {
		return nil, err
	}

	if tx.State != models.TransactionStateCreated {
		// Already performed: repeat the original answer without re-running
		// side effects. Already cancelled: answer from the stored record so
		// the provider's state machine converges instead of erroring.
		return performResultFor(tx), nil
	}

	now := s.now()
	periodEnd := now.Add(s.renewPeriod)

	err = s.store.Atomic(ctx, func(st repositories.Store) error {
		ok, err := st.UpdateTransactionState(ctx, p.ID,
			models.TransactionStateCreated, models.TransactionStatePerformed,
			repositories.TransitionStamps{PerformedAt: &now})
		if err != nil {
			return err
		}
		if !ok {
			return errStateConflict
		}
		if err := st.UpdateSubscription(ctx, tx.UserID, tx.PlanID, periodEnd, now, ProviderTag); err != nil {
			return err
		}
		return st.AppendPaymentLog(ctx, &models.PaymentLog{
			BaseModel: models.BaseModel{ID: uuid.NewString()},
			TxID:      tx.TxID,
			UserID:    tx.UserID,
			PlanID:    tx.PlanID,
			Amount:    tx.Amount,
			Provider:  ProviderTag,
			PaidAt:    now,
		})
	})
	if errors.Is(err, errStateConflict) {
		// A concurrent call got there first; its writes are the applied
		// ones, so answer from what it stored.
		tx, err := s.store.GetTransaction(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return performResultFor(tx), nil
	}
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "transaction performed",
		"tx_id", tx.TxID, "user_id", tx.UserID, "plan_id", tx.PlanID, "period_end", periodEnd)

	return PerformResult{
		Transaction: tx.TxID,
		PerformTime: now.UnixMilli(),
		State:       int(models.TransactionStatePerformed),
	}, nil
}

func performResultFor(tx *models.Transaction) PerformResult {
	return PerformResult{
		Transaction: tx.TxID,
		PerformTime: epochMillis(tx.PerformedAt),
		State:       int(tx.State),
	}
}

func (s *Service) cancelTransaction(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p CancelParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	tx, err := s.store.GetTransaction(ctx, p.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTransactionNotFound()
	}
	if err != nil {
		return nil, err
	}

	if tx.State.Terminal() {
		// Replayed cancel: repeat the stored answer.
		return cancelResultFor(tx), nil
	}

	from := tx.State
	to := models.TransactionStateCancelled
	if from == models.TransactionStatePerformed {
		to = models.TransactionStateCancelledAfterPerform
	}

	now := s.now()
	ok, err := s.store.UpdateTransactionState(ctx, p.ID, from, to,
		repositories.TransitionStamps{CancelledAt: &now, CancelReason: p.Reason})
	if err != nil {
		return nil, err
	}
	if !ok {
		// The state moved under us (perform/cancel race); answer from
		// whatever is stored now.
		tx, err := s.store.GetTransaction(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if tx.State.Terminal() {
			return cancelResultFor(tx), nil
		}
		// A perform slipped in between; cancel the now-performed record.
		ok, err := s.store.UpdateTransactionState(ctx, p.ID,
			models.TransactionStatePerformed, models.TransactionStateCancelledAfterPerform,
			repositories.TransitionStamps{CancelledAt: &now, CancelReason: p.Reason})
		if err != nil {
			return nil, err
		}
		if !ok {
			tx, err := s.store.GetTransaction(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			return cancelResultFor(tx), nil
		}
		to = models.TransactionStateCancelledAfterPerform
	}

	logger.CtxInfo(ctx, "transaction cancelled", "tx_id", p.ID, "state", int(to), "reason", p.Reason)

	// Cancelling a performed transaction does not revert the subscription
	// extension.
	return CancelResult{
		Transaction: p.ID,
		CancelTime:  now.UnixMilli(),
		State:       int(to),
	}, nil
}

func cancelResultFor(tx *models.Transaction) CancelResult {
	return CancelResult{
		Transaction: tx.TxID,
		CancelTime:  epochMillis(tx.CancelledAt),
		State:       int(tx.State),
	}
}

func (s *Service) checkTransaction(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p CheckParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	tx, err := s.store.GetTransaction(ctx, p.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTransactionNotFound()
	}
	if err != nil {
		return nil, err
	}

	return CheckResult{
		CreateTime:  tx.RequestedTime,
		PerformTime: epochMillis(tx.PerformedAt),
		CancelTime:  epochMillis(tx.CancelledAt),
		Transaction: tx.TxID,
		State:       int(tx.State),
		Reason:      tx.CancelReason,
	}, nil
}

func (s *Service) getStatement(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p StatementParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	if p.To-p.From > (92 * 24 * time.Hour).Milliseconds() {
		logger.CtxWarn(ctx, "wide statement range requested", "from", p.From, "to", p.To)
	}

	txs, err := s.store.QueryTransactionsByTime(ctx, p.From, p.To)
	if err != nil {
		return nil, err
	}

	entries := make([]StatementEntry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, StatementEntry{
			ID:          tx.TxID,
			Time:        tx.RequestedTime,
			Amount:      tx.Amount,
			Account:     Account{UserID: tx.UserID, PlanID: tx.PlanID},
			CreateTime:  tx.RequestedTime,
			PerformTime: epochMillis(tx.PerformedAt),
			CancelTime:  epochMillis(tx.CancelledAt),
			Transaction: tx.TxID,
			State:       int(tx.State),
			Reason:      tx.CancelReason,
		})
	}
	return StatementResult{Transactions: entries}, nil
}

// verifyAccount checks user existence and the received amount against the
// plan price. Amounts arrive in minor units and are converted to major units
// only at this comparison boundary.
func (s *Service) verifyAccount(ctx context.Context, account Account, amount int64) error {
	_, err := s.store.GetUser(ctx, account.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrUserNotFound()
	}
	if err != nil {
		return err
	}

	plan, err := s.plans.GetPlan(ctx, account.PlanID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrIncorrectAmount()
	}
	if err != nil {
		return err
	}

	received := float64(amount) / 100
	if math.Abs(plan.Price-received) > amountTolerance+amountEpsilon {
		return ErrIncorrectAmount()
	}
	return nil
}

func epochMillis(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}
