package repository

import (
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

type LedgerEntryEntity struct {
	ID         int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	StudentID  int64     `db:"student_id"  gorm:"column:student_id;not null;index"`
	Amount     int64     `db:"amount"      gorm:"column:amount;not null"`
	Balance    int64     `db:"balance"     gorm:"column:balance;not null"`
	Type       string    `db:"type"        gorm:"column:type;not null"`
	PurchaseID *int64    `db:"purchase_id" gorm:"column:purchase_id;index"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;not null"`
}

func (LedgerEntryEntity) TableName() string {
	return "ledger_entries"
}

func toLedgerEntryEntity(m *model.LedgerEntry) *LedgerEntryEntity {
	if m == nil {
		return nil
	}
	return &LedgerEntryEntity{
		ID:         m.ID,
		StudentID:  m.StudentID,
		Amount:     m.Amount,
		Balance:    m.Balance,
		Type:       string(m.Type),
		PurchaseID: m.PurchaseID,
		CreatedAt:  m.CreatedAt,
	}
}

func toLedgerEntryModel(e *LedgerEntryEntity) *model.LedgerEntry {
	if e == nil {
		return nil
	}
	return &model.LedgerEntry{
		ID:         e.ID,
		StudentID:  e.StudentID,
		Amount:     e.Amount,
		Balance:    e.Balance,
		Type:       model.LedgerEntryType(e.Type),
		PurchaseID: e.PurchaseID,
		CreatedAt:  e.CreatedAt,
	}
}

func toLedgerEntryModels(entities []*LedgerEntryEntity) []*model.LedgerEntry {
	models := make([]*model.LedgerEntry, len(entities))
	for i, e := range entities {
		models[i] = toLedgerEntryModel(e)
	}
	return models
}
