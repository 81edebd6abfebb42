package repository

import (
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

type NotificationReportEntity struct {
	ID          int64      `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	EventID     string     `db:"event_id"     gorm:"column:event_id;not null;index"`
	PurchaseID  int64      `db:"purchase_id"  gorm:"column:purchase_id;not null;index"`
	EventType   string     `db:"event_type"   gorm:"column:event_type;not null"`
	Status      string     `db:"status"       gorm:"column:status;not null"`
	Endpoint    string     `db:"endpoint"     gorm:"column:endpoint;not null;default:''"`
	DeliveredAt *time.Time `db:"delivered_at" gorm:"column:delivered_at"`
	CreatedAt   time.Time  `db:"created_at"   gorm:"column:created_at;not null"`
}

func (NotificationReportEntity) TableName() string {
	return "notification_reports"
}

func toNotificationReportEntity(m *model.NotificationReport) *NotificationReportEntity {
	if m == nil {
		return nil
	}
	return &NotificationReportEntity{
		ID:          m.ID,
		EventID:     m.EventID,
		PurchaseID:  m.PurchaseID,
		EventType:   string(m.EventType),
		Status:      string(m.Status),
		Endpoint:    m.Endpoint,
		DeliveredAt: m.DeliveredAt,
		CreatedAt:   m.CreatedAt,
	}
}

func toNotificationReportModel(e *NotificationReportEntity) *model.NotificationReport {
	if e == nil {
		return nil
	}
	return &model.NotificationReport{
		ID:          e.ID,
		EventID:     e.EventID,
		PurchaseID:  e.PurchaseID,
		EventType:   model.PurchaseEventType(e.EventType),
		Status:      model.NotificationStatus(e.Status),
		Endpoint:    e.Endpoint,
		DeliveredAt: e.DeliveredAt,
		CreatedAt:   e.CreatedAt,
	}
}
