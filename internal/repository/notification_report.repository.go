package repository

import (
	"context"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/pg"
)

type NotificationReportRepository struct {
	*pg.DB
}

func NewNotificationReportRepository(db *pg.DB) *NotificationReportRepository {
	return &NotificationReportRepository{
		db,
	}
}

func (r *NotificationReportRepository) Create(ctx context.Context, nr *model.NotificationReport) (*model.NotificationReport, error) {
	entity := toNotificationReportEntity(nr)
	entity.ID = 0
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr(model.EntityPurchase, nr.PurchaseID, err)
	}
	return toNotificationReportModel(entity), nil
}

func (r *NotificationReportRepository) ListByPurchase(ctx context.Context, purchaseID int64) ([]*model.NotificationReport, error) {
	var entities []*NotificationReportEntity
	err := r.Read(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, storeErr(model.EntityPurchase, purchaseID, err)
	}
	reports := make([]*model.NotificationReport, len(entities))
	for i, e := range entities {
		reports[i] = toNotificationReportModel(e)
	}
	return reports, nil
}
