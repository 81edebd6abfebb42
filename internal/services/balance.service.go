package services

import (
	"context"
	"math"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/nimasrn/classroom-points/pkg/prom"
)

type LedgerStore interface {
	LedgerWriter
	ListByStudent(ctx context.Context, studentID int64) ([]*model.LedgerEntry, error)
}

// BalanceService owns manual balance changes made by teachers. Every change
// is written to the ledger in the same transaction when a Transactor is set.
type BalanceService struct {
	students StudentReader
	balances BalanceStore
	ledger   LedgerStore
	tx       Transactor
	now      Clock
}

func NewBalanceService(students StudentReader, balances BalanceStore, ledger LedgerStore, tx Transactor) *BalanceService {
	return &BalanceService{
		students: students,
		balances: balances,
		ledger:   ledger,
		tx:       tx,
		now:      systemClock,
	}
}

func (s *BalanceService) Read(ctx context.Context, studentID int64) (int64, error) {
	balance, err := s.balances.GetBalance(ctx, studentID)
	return balance, asKind(model.EntityStudent, studentID, err)
}

// Adjust adds delta to the balance. The result may go negative but must fit
// in an int64.
func (s *BalanceService) Adjust(ctx context.Context, studentID int64, delta int64) (int64, error) {
	var balance int64
	err := s.within(ctx, func(ctx context.Context) error {
		current, err := s.balances.LockBalance(ctx, studentID)
		if err != nil {
			return err
		}
		if overflows(current, delta) {
			return model.InvalidArgument(model.EntityStudent, studentID, "adjustment overflows balance")
		}

		balance, err = s.balances.AdjustBalance(ctx, studentID, delta)
		if err != nil {
			return err
		}
		_, err = s.ledger.Append(ctx, &model.LedgerEntry{
			StudentID: studentID,
			Amount:    delta,
			Balance:   balance,
			Type:      model.AdjustmentType(delta),
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return 0, asKind(model.EntityStudent, studentID, err)
	}

	prom.IncBalanceMutation(string(model.AdjustmentType(delta)))
	logger.Info("balance adjusted", "student_id", studentID, "delta", delta, "balance", balance)
	return balance, nil
}

// Set overwrites the balance. Negative values are rejected.
func (s *BalanceService) Set(ctx context.Context, studentID int64, value int64) (int64, error) {
	if value < 0 {
		return 0, model.InvalidArgument(model.EntityStudent, studentID, "balance must not be negative")
	}

	var balance int64
	err := s.within(ctx, func(ctx context.Context) error {
		previous, err := s.balances.LockBalance(ctx, studentID)
		if err != nil {
			return err
		}
		balance, err = s.balances.SetBalance(ctx, studentID, value)
		if err != nil {
			return err
		}
		_, err = s.ledger.Append(ctx, &model.LedgerEntry{
			StudentID: studentID,
			Amount:    balance - previous,
			Balance:   balance,
			Type:      model.LedgerSet,
			CreatedAt: s.now(),
		})
		return err
	})
	if err != nil {
		return 0, asKind(model.EntityStudent, studentID, err)
	}

	prom.IncBalanceMutation(string(model.LedgerSet))
	logger.Info("balance set", "student_id", studentID, "balance", balance)
	return balance, nil
}

// Ledger lists the student's balance history, newest first.
func (s *BalanceService) Ledger(ctx context.Context, studentID int64) ([]*model.LedgerEntry, error) {
	if _, err := s.students.Get(ctx, studentID); err != nil {
		return nil, asKind(model.EntityStudent, studentID, err)
	}
	entries, err := s.ledger.ListByStudent(ctx, studentID)
	return entries, asKind(model.EntityStudent, studentID, err)
}

func overflows(balance, delta int64) bool {
	if delta > 0 {
		return balance > math.MaxInt64-delta
	}
	return balance < math.MinInt64-delta
}

func (s *BalanceService) within(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTransaction(ctx, fn)
}
