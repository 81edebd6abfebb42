package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/logger"
	"github.com/nimasrn/classroom-points/pkg/prom"
)

type StudentReader interface {
	Get(ctx context.Context, id int64) (*model.Student, error)
}

type BalanceStore interface {
	AdjustBalance(ctx context.Context, id int64, delta int64) (int64, error)
	SetBalance(ctx context.Context, id int64, value int64) (int64, error)
	GetBalance(ctx context.Context, id int64) (int64, error)
	LockBalance(ctx context.Context, id int64) (int64, error)
}

type ProductReader interface {
	Get(ctx context.Context, id int64) (*model.Product, error)
}

type PurchaseStore interface {
	Create(ctx context.Context, p model.PurchaseCreateParams) (*model.Purchase, error)
	Get(ctx context.Context, id int64) (*model.Purchase, error)
	Transition(ctx context.Context, id int64, from, to model.PurchaseStatus, approvedAt *time.Time) (*model.Purchase, error)
	ListByClass(ctx context.Context, classID int64) ([]*model.Purchase, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Purchase, error)
}

type LedgerWriter interface {
	Append(ctx context.Context, e *model.LedgerEntry) (*model.LedgerEntry, error)
}

// PurchaseService runs the purchase workflow: requests are checked against
// the balance but reserve nothing, and an approval debits the student exactly
// once.
//
// With a Transactor the approval's transition and debit commit together. Without
// one, each step is a single atomic store call and a debit whose transition
// fails is reversed before the error is returned.
type PurchaseService struct {
	students  StudentReader
	balances  BalanceStore
	products  ProductReader
	purchases PurchaseStore
	ledger    LedgerWriter
	tx        Transactor
	events    EventPublisher
	now       Clock
}

func NewPurchaseService(students StudentReader, balances BalanceStore, products ProductReader, purchases PurchaseStore, ledger LedgerWriter, tx Transactor, events EventPublisher) *PurchaseService {
	return &PurchaseService{
		students:  students,
		balances:  balances,
		products:  products,
		purchases: purchases,
		ledger:    ledger,
		tx:        tx,
		events:    events,
		now:       systemClock,
	}
}

// WithClock replaces the time source used for approved_at.
func (s *PurchaseService) WithClock(c Clock) *PurchaseService {
	s.now = c
	return s
}

// Request creates a pending purchase when the student can currently afford
// the product.
func (s *PurchaseService) Request(ctx context.Context, req model.PurchaseRequest) (p *model.Purchase, err error) {
	defer func() { prom.IncPurchaseRequest(outcomeOf(err)) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	student, err := s.students.Get(ctx, req.StudentID)
	if err != nil {
		return nil, asKind(model.EntityStudent, req.StudentID, err)
	}
	product, err := s.products.Get(ctx, req.ProductID)
	if err != nil {
		return nil, asKind(model.EntityProduct, req.ProductID, err)
	}
	if student.Balance < product.Price {
		return nil, model.InsufficientFunds(student.ID, student.Balance, product.Price)
	}

	p, err = s.purchases.Create(ctx, model.PurchaseCreateParams{
		StudentID:   student.ID,
		StudentName: student.Name,
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		ClassID:     student.ClassID,
	})
	if err != nil {
		return nil, asKind(model.EntityPurchase, 0, err)
	}

	logger.Info("purchase requested", "purchase_id", p.ID, "student_id", p.StudentID, "product_id", p.ProductID, "price", p.Price)
	s.publish(ctx, model.EventPurchaseRequested, p, nil)
	return p, nil
}

func (s *PurchaseService) Get(ctx context.Context, id int64) (*model.Purchase, error) {
	p, err := s.purchases.Get(ctx, id)
	return p, asKind(model.EntityPurchase, id, err)
}

func (s *PurchaseService) ListByClass(ctx context.Context, classID int64) ([]*model.Purchase, error) {
	list, err := s.purchases.ListByClass(ctx, classID)
	return list, asKind(model.EntityClass, classID, err)
}

func (s *PurchaseService) ListByStudent(ctx context.Context, studentID int64) ([]*model.Purchase, error) {
	if _, err := s.students.Get(ctx, studentID); err != nil {
		return nil, asKind(model.EntityStudent, studentID, err)
	}
	list, err := s.purchases.ListByStudent(ctx, studentID)
	return list, asKind(model.EntityStudent, studentID, err)
}

// Resolve approves or rejects a pending purchase. Resolving a purchase that
// is no longer pending returns ErrAlreadyResolved and changes nothing.
func (s *PurchaseService) Resolve(ctx context.Context, id int64, decision model.Decision) (resolved *model.Purchase, err error) {
	start := time.Now()
	defer func() {
		prom.IncPurchaseResolution(string(decision), outcomeOf(err))
		prom.AddResolveDuration(time.Since(start).Seconds(), string(decision))
	}()

	if !decision.Valid() {
		return nil, model.InvalidArgument(model.EntityPurchase, id, fmt.Sprintf("unknown decision %q", decision))
	}

	p, err := s.purchases.Get(ctx, id)
	if err != nil {
		return nil, asKind(model.EntityPurchase, id, err)
	}
	if p.Status != model.PurchaseStatusPending {
		return nil, model.AlreadyResolved(p.ID, p.Status)
	}

	var balance *int64
	if decision == model.DecisionReject {
		resolved, err = s.reject(ctx, p)
	} else if s.tx != nil {
		resolved, balance, err = s.approveInTransaction(ctx, p)
	} else {
		resolved, balance, err = s.approveWithCompensation(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("purchase resolved", "purchase_id", resolved.ID, "student_id", resolved.StudentID, "status", resolved.Status, "price", resolved.Price)
	s.publish(ctx, model.EventForStatus(resolved.Status), resolved, balance)
	return resolved, nil
}

func (s *PurchaseService) reject(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	resolved, err := s.purchases.Transition(ctx, p.ID, model.PurchaseStatusPending, model.PurchaseStatusRejected, nil)
	if errors.Is(err, model.ErrConflict) {
		return nil, s.alreadyResolved(ctx, p.ID)
	}
	if err != nil {
		return nil, asKind(model.EntityPurchase, p.ID, err)
	}
	return resolved, nil
}

// approveInTransaction claims the purchase first so concurrent approvals of
// the same purchase fail on the transition rather than on the balance check.
func (s *PurchaseService) approveInTransaction(ctx context.Context, p *model.Purchase) (*model.Purchase, *int64, error) {
	var (
		resolved   *model.Purchase
		newBalance int64
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		var err error
		resolved, err = s.purchases.Transition(ctx, p.ID, model.PurchaseStatusPending, model.PurchaseStatusApproved, &now)
		if err != nil {
			return err
		}

		balance, err := s.balances.LockBalance(ctx, p.StudentID)
		if err != nil {
			return err
		}
		if balance < p.Price {
			return model.InsufficientFunds(p.StudentID, balance, p.Price)
		}

		newBalance, err = s.balances.AdjustBalance(ctx, p.StudentID, -p.Price)
		if err != nil {
			return err
		}
		if newBalance < 0 {
			return model.InsufficientFunds(p.StudentID, newBalance+p.Price, p.Price)
		}

		_, err = s.ledger.Append(ctx, &model.LedgerEntry{
			StudentID:  p.StudentID,
			Amount:     -p.Price,
			Balance:    newBalance,
			Type:       model.LedgerPurchase,
			PurchaseID: &p.ID,
			CreatedAt:  now,
		})
		return err
	})
	switch {
	case err == nil:
		prom.IncBalanceMutation(string(model.LedgerPurchase))
		return resolved, &newBalance, nil
	case errors.Is(err, model.ErrConflict):
		return nil, nil, s.alreadyResolved(ctx, p.ID)
	case errors.Is(err, model.ErrInsufficientFunds):
		return nil, nil, s.insufficientOrResolved(ctx, p.ID, err)
	default:
		return nil, nil, asKind(model.EntityPurchase, p.ID, err)
	}
}

func (s *PurchaseService) approveWithCompensation(ctx context.Context, p *model.Purchase) (*model.Purchase, *int64, error) {
	balance, err := s.balances.GetBalance(ctx, p.StudentID)
	if err != nil {
		return nil, nil, asKind(model.EntityStudent, p.StudentID, err)
	}
	if balance < p.Price {
		return nil, nil, s.insufficientOrResolved(ctx, p.ID, model.InsufficientFunds(p.StudentID, balance, p.Price))
	}

	newBalance, err := s.balances.AdjustBalance(ctx, p.StudentID, -p.Price)
	if err != nil {
		return nil, nil, asKind(model.EntityStudent, p.StudentID, err)
	}
	prom.IncBalanceMutation(string(model.LedgerPurchase))
	s.appendLedger(ctx, p, -p.Price, newBalance, model.LedgerPurchase)

	// another debit landed between the check and ours
	if newBalance < 0 {
		if cerr := s.compensate(ctx, p, "overdraft"); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, s.insufficientOrResolved(ctx, p.ID, model.InsufficientFunds(p.StudentID, newBalance+p.Price, p.Price))
	}

	now := s.now()
	resolved, err := s.purchases.Transition(ctx, p.ID, model.PurchaseStatusPending, model.PurchaseStatusApproved, &now)
	if err != nil {
		if cerr := s.compensate(ctx, p, outcomeOf(err)); cerr != nil {
			return nil, nil, cerr
		}
		if errors.Is(err, model.ErrConflict) {
			return nil, nil, s.alreadyResolved(ctx, p.ID)
		}
		return nil, nil, asKind(model.EntityPurchase, p.ID, err)
	}

	return resolved, &newBalance, nil
}

// appendLedger records a mutation that already happened outside a
// transaction. A failed write is logged only.
func (s *PurchaseService) appendLedger(ctx context.Context, p *model.Purchase, amount, balance int64, t model.LedgerEntryType) {
	_, err := s.ledger.Append(ctx, &model.LedgerEntry{
		StudentID:  p.StudentID,
		Amount:     amount,
		Balance:    balance,
		Type:       t,
		PurchaseID: &p.ID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		logger.Error("ledger append failed", "purchase_id", p.ID, "student_id", p.StudentID, "type", t, "amount", amount, "error", err)
	}
}

// CompensationTimeout bounds a debit reversal. The reversal ignores the
// caller's cancellation so a dropped request cannot strand a debit.
const CompensationTimeout = 5 * time.Second

// compensate reverses the debit taken for p. A failed reversal leaves the
// student short by p.Price, so it is logged with everything needed to repair
// it by hand.
func (s *PurchaseService) compensate(ctx context.Context, p *model.Purchase, reason string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CompensationTimeout)
	defer cancel()

	balance, err := s.balances.AdjustBalance(ctx, p.StudentID, p.Price)
	if err != nil {
		prom.IncCompensation("failed")
		logger.Error("purchase debit reversal failed",
			"purchase_id", p.ID,
			"student_id", p.StudentID,
			"amount", p.Price,
			"reason", reason,
			"error", err)
		return model.Unavailable(model.EntityStudent, p.StudentID, fmt.Errorf("reverse debit of %d for purchase %d: %w", p.Price, p.ID, err))
	}
	prom.IncCompensation("ok")
	prom.IncBalanceMutation(string(model.LedgerReversal))
	s.appendLedger(ctx, p, p.Price, balance, model.LedgerReversal)
	logger.Warn("purchase debit reversed",
		"purchase_id", p.ID,
		"student_id", p.StudentID,
		"amount", p.Price,
		"balance", balance,
		"reason", reason)
	return nil
}

func (s *PurchaseService) alreadyResolved(ctx context.Context, id int64) error {
	current, err := s.purchases.Get(ctx, id)
	if err != nil {
		return asKind(model.EntityPurchase, id, err)
	}
	return model.AlreadyResolved(id, current.Status)
}

// insufficientOrResolved reports a lost race as ErrAlreadyResolved when a
// concurrent resolution moved the purchase out of pending.
func (s *PurchaseService) insufficientOrResolved(ctx context.Context, id int64, insufficient error) error {
	current, err := s.purchases.Get(ctx, id)
	if err == nil && current.Status.Terminal() {
		return model.AlreadyResolved(id, current.Status)
	}
	return insufficient
}

func (s *PurchaseService) publish(ctx context.Context, t model.PurchaseEventType, p *model.Purchase, balance *int64) {
	if s.events == nil {
		return
	}
	event := model.NewPurchaseEvent(t, p, balance)
	_, err := s.events.PublishJSON(ctx, event, map[string]string{
		"type":     string(t),
		"event_id": event.EventID,
	})
	prom.IncEventPublished(string(t), outcomeOf(err))
	if err != nil {
		logger.Warn("purchase event publish failed", "purchase_id", p.ID, "type", t, "error", err)
	}
}
