package model

import "time"

type LedgerEntryType string

const (
	LedgerCredit   LedgerEntryType = "credit"
	LedgerDebit    LedgerEntryType = "debit"
	LedgerSet      LedgerEntryType = "set"
	LedgerPurchase LedgerEntryType = "purchase"
	LedgerReversal LedgerEntryType = "reversal"
)

// LedgerEntry records one balance mutation. Amount is signed.
type LedgerEntry struct {
	ID         int64           `json:"id"`
	StudentID  int64           `json:"student_id"`
	Amount     int64           `json:"amount"`
	Balance    int64           `json:"balance"`
	Type       LedgerEntryType `json:"type"`
	PurchaseID *int64          `json:"purchase_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AdjustmentType picks credit or debit by the sign of delta.
func AdjustmentType(delta int64) LedgerEntryType {
	if delta < 0 {
		return LedgerDebit
	}
	return LedgerCredit
}
