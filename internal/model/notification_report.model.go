package model

import "time"

type NotificationStatus string

const (
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
)

type NotificationReport struct {
	ID          int64              `json:"id"`
	EventID     string             `json:"event_id"`
	PurchaseID  int64              `json:"purchase_id"`
	EventType   PurchaseEventType  `json:"event_type"`
	Status      NotificationStatus `json:"status"`
	Endpoint    string             `json:"endpoint"`
	DeliveredAt *time.Time         `json:"delivered_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}
