package model

import (
	"time"

	"github.com/google/uuid"
)

type PurchaseEventType string

const (
	EventPurchaseRequested PurchaseEventType = "purchase.requested"
	EventPurchaseApproved  PurchaseEventType = "purchase.approved"
	EventPurchaseRejected  PurchaseEventType = "purchase.rejected"
)

type PurchaseEvent struct {
	EventID    string            `json:"event_id"`
	Type       PurchaseEventType `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Purchase   Purchase          `json:"purchase"`
	Balance    *int64            `json:"balance,omitempty"`
}

func NewPurchaseEvent(t PurchaseEventType, p *Purchase, balance *int64) PurchaseEvent {
	return PurchaseEvent{
		EventID:    uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Purchase:   *p,
		Balance:    balance,
	}
}

// EventForStatus maps a terminal status to its event type.
func EventForStatus(s PurchaseStatus) PurchaseEventType {
	switch s {
	case PurchaseStatusApproved:
		return EventPurchaseApproved
	case PurchaseStatusRejected:
		return EventPurchaseRejected
	default:
		return EventPurchaseRequested
	}
}
