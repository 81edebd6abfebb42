package services

import (
	"context"
	"math"
	"testing"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBalanceServiceFor(s *memStore) *BalanceService {
	return NewBalanceService(memStudents{s}, memStudents{s}, memLedger{s}, &memTx{store: s})
}

func TestBalanceService_Adjust(t *testing.T) {
	store := newMemStore()
	st := store.addStudent("ana", 10)
	svc := newBalanceServiceFor(store)
	ctx := context.Background()

	balance, err := svc.Adjust(ctx, st.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)

	balance, err = svc.Adjust(ctx, st.ID, -40)
	require.NoError(t, err)
	assert.Equal(t, int64(-15), balance, "manual adjustments may go negative")

	entries, err := svc.Ledger(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.LedgerDebit, entries[0].Type)
	assert.Equal(t, int64(-40), entries[0].Amount)
	assert.Equal(t, int64(-15), entries[0].Balance)
	assert.Equal(t, model.LedgerCredit, entries[1].Type)

	_, err = svc.Adjust(ctx, 999, 5)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestBalanceService_AdjustRejectsOverflow(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		balance int64
		delta   int64
	}{
		{name: "credit past max", balance: 10, delta: math.MaxInt64},
		{name: "credit at max", balance: math.MaxInt64, delta: 1},
		{name: "debit past min", balance: -10, delta: math.MinInt64},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			st := store.addStudent("ana", tc.balance)
			svc := newBalanceServiceFor(store)

			_, err := svc.Adjust(ctx, st.ID, tc.delta)
			assert.ErrorIs(t, err, model.ErrInvalidArgument)
			assert.Equal(t, tc.balance, store.balance(st.ID))
			assert.Empty(t, store.ledgerEntries(model.AdjustmentType(tc.delta)))
		})
	}

	t.Run("largest fitting credit succeeds", func(t *testing.T) {
		store := newMemStore()
		st := store.addStudent("ana", 10)
		svc := newBalanceServiceFor(store)

		balance, err := svc.Adjust(ctx, st.ID, math.MaxInt64-10)
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), balance)
	})

	t.Run("without transactor", func(t *testing.T) {
		store := newMemStore()
		st := store.addStudent("ana", 10)
		svc := NewBalanceService(memStudents{store}, memStudents{store}, memLedger{store}, nil)

		_, err := svc.Adjust(ctx, st.ID, math.MaxInt64)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		assert.Equal(t, int64(10), store.balance(st.ID))
	})
}

func TestBalanceService_Set(t *testing.T) {
	store := newMemStore()
	st := store.addStudent("ana", 10)
	svc := newBalanceServiceFor(store)
	ctx := context.Background()

	balance, err := svc.Set(ctx, st.ID, 70)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)
	assert.Equal(t, int64(70), store.balance(st.ID))

	entries := store.ledgerEntries(model.LedgerSet)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(60), entries[0].Amount)
	assert.Equal(t, int64(70), entries[0].Balance)

	balance, err = svc.Set(ctx, st.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance, "set returns the new balance")
	entries = store.ledgerEntries(model.LedgerSet)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(-45), entries[1].Amount)
	assert.Equal(t, int64(25), entries[1].Balance)

	_, err = svc.Set(ctx, st.ID, -1)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	assert.Equal(t, int64(25), store.balance(st.ID))

	_, err = svc.Set(ctx, 999, 5)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Len(t, store.ledgerEntries(model.LedgerSet), 2)
}

func TestBalanceService_Read(t *testing.T) {
	store := newMemStore()
	st := store.addStudent("ana", 33)
	svc := newBalanceServiceFor(store)

	balance, err := svc.Read(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(33), balance)

	_, err = svc.Read(context.Background(), 999)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.Ledger(context.Background(), 999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
