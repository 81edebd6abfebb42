package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

// memStore is an in-memory store with the same atomicity as the gorm
// repositories: every call is atomic and Transition is conditional.
type memStore struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	students  map[int64]*model.Student
	products  map[int64]*model.Product
	purchases map[int64]*model.Purchase
	ledger    []*model.LedgerEntry
	nextID    int64

	adjustErr        func(id, delta int64) error
	transitionErr    error
	beforeTransition func(id int64)
}

func newMemStore() *memStore {
	return &memStore{
		students:  make(map[int64]*model.Student),
		products:  make(map[int64]*model.Product),
		purchases: make(map[int64]*model.Purchase),
	}
}

type inTxKey struct{}

// guard serializes a write made outside a transaction with running
// transactions, the way a row lock would.
func (s *memStore) guard(ctx context.Context) func() {
	if ctx.Value(inTxKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addStudent(name string, balance int64) *model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &model.Student{ID: s.id(), Name: name, Password: name + "-pw", Balance: balance, ClassID: 1}
	s.students[st.ID] = st
	return st
}

func (s *memStore) addProduct(name string, price int64) *model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Product{ID: s.id(), Name: name, Price: price, ClassID: 1}
	s.products[p.ID] = p
	return p
}

func (s *memStore) balance(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.students[id].Balance
}

func (s *memStore) purchase(id int64) model.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.purchases[id]
}

func (s *memStore) purchaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.purchases)
}

func (s *memStore) ledgerEntries(t model.LedgerEntryType) []*model.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.LedgerEntry
	for _, e := range s.ledger {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memSnapshot struct {
	balances  map[int64]int64
	purchases map[int64]model.Purchase
	ledger    int
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		balances:  make(map[int64]int64, len(s.students)),
		purchases: make(map[int64]model.Purchase, len(s.purchases)),
		ledger:    len(s.ledger),
	}
	for id, st := range s.students {
		snap.balances[id] = st.Balance
	}
	for id, p := range s.purchases {
		snap.purchases[id] = *p
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range snap.balances {
		s.students[id].Balance = b
	}
	for id, p := range snap.purchases {
		cp := p
		s.purchases[id] = &cp
	}
	s.ledger = s.ledger[:snap.ledger]
}

type memStudents struct{ *memStore }

func (s memStudents) Get(_ context.Context, id int64) (*model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return nil, model.NotFound(model.EntityStudent, id)
	}
	cp := *st
	return &cp, nil
}

func (s memStudents) AdjustBalance(ctx context.Context, id int64, delta int64) (int64, error) {
	defer s.guard(ctx)()
	if err := ctx.Err(); err != nil {
		return 0, model.Unavailable(model.EntityStudent, id, err)
	}
	if s.adjustErr != nil {
		if err := s.adjustErr(id, delta); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return 0, model.NotFound(model.EntityStudent, id)
	}
	st.Balance += delta
	return st.Balance, nil
}

func (s memStudents) SetBalance(ctx context.Context, id int64, value int64) (int64, error) {
	defer s.guard(ctx)()
	if value < 0 {
		return 0, model.InvalidArgument(model.EntityStudent, id, "balance must not be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return 0, model.NotFound(model.EntityStudent, id)
	}
	st.Balance = value
	return st.Balance, nil
}

func (s memStudents) GetBalance(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return 0, model.NotFound(model.EntityStudent, id)
	}
	return st.Balance, nil
}

func (s memStudents) LockBalance(ctx context.Context, id int64) (int64, error) {
	return s.GetBalance(ctx, id)
}

type memProducts struct{ *memStore }

func (s memProducts) Get(_ context.Context, id int64) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, model.NotFound(model.EntityProduct, id)
	}
	cp := *p
	return &cp, nil
}

type memPurchases struct{ *memStore }

func (s memPurchases) Create(ctx context.Context, params model.PurchaseCreateParams) (*model.Purchase, error) {
	defer s.guard(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Purchase{
		ID:          s.id(),
		StudentID:   params.StudentID,
		StudentName: params.StudentName,
		ProductID:   params.ProductID,
		ProductName: params.ProductName,
		Price:       params.Price,
		ClassID:     params.ClassID,
		Status:      model.PurchaseStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	s.purchases[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s memPurchases) Get(_ context.Context, id int64) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil, model.NotFound(model.EntityPurchase, id)
	}
	cp := *p
	return &cp, nil
}

func (s memPurchases) Transition(ctx context.Context, id int64, from, to model.PurchaseStatus, approvedAt *time.Time) (*model.Purchase, error) {
	defer s.guard(ctx)()
	if err := ctx.Err(); err != nil {
		return nil, model.Unavailable(model.EntityPurchase, id, err)
	}
	if s.beforeTransition != nil {
		s.beforeTransition(id)
	}
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil, model.NotFound(model.EntityPurchase, id)
	}
	if p.Status != from {
		return nil, model.Conflict(model.EntityPurchase, id, "status is "+string(p.Status))
	}
	p.Status = to
	if to == model.PurchaseStatusApproved {
		p.ApprovedAt = approvedAt
	}
	cp := *p
	return &cp, nil
}

func (s memPurchases) ListByClass(_ context.Context, classID int64) ([]*model.Purchase, error) {
	return s.list(func(p *model.Purchase) bool { return p.ClassID == classID }), nil
}

func (s memPurchases) ListByStudent(_ context.Context, studentID int64) ([]*model.Purchase, error) {
	return s.list(func(p *model.Purchase) bool { return p.StudentID == studentID }), nil
}

func (s memPurchases) list(keep func(*model.Purchase) bool) []*model.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Purchase
	for _, p := range s.purchases {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

type memLedger struct{ *memStore }

func (s memLedger) Append(ctx context.Context, e *model.LedgerEntry) (*model.LedgerEntry, error) {
	defer s.guard(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	cp.ID = s.id()
	s.ledger = append(s.ledger, &cp)
	return &cp, nil
}

func (s memLedger) ListByStudent(_ context.Context, studentID int64) ([]*model.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.LedgerEntry
	for i := len(s.ledger) - 1; i >= 0; i-- {
		if s.ledger[i].StudentID == studentID {
			out = append(out, s.ledger[i])
		}
	}
	return out, nil
}

// memTx serializes transactions and rolls the store back when fn fails.
type memTx struct {
	store *memStore
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func newPurchaseServiceFor(s *memStore, transactional bool) *PurchaseService {
	var tx Transactor
	if transactional {
		tx = &memTx{store: s}
	}
	return NewPurchaseService(memStudents{s}, memStudents{s}, memProducts{s}, memPurchases{s}, memLedger{s}, tx, nil)
}
