package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/pg"
)

type PurchaseRepository struct {
	*pg.DB
}

func NewPurchaseRepository(db *pg.DB) *PurchaseRepository {
	return &PurchaseRepository{
		db,
	}
}

// Create stores a new purchase. The record always starts pending.
func (r *PurchaseRepository) Create(ctx context.Context, p model.PurchaseCreateParams) (*model.Purchase, error) {
	entity := &PurchaseEntity{
		StudentID:   p.StudentID,
		StudentName: p.StudentName,
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Price:       p.Price,
		ClassID:     p.ClassID,
		Status:      string(model.PurchaseStatusPending),
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr(model.EntityPurchase, 0, err)
	}
	return toPurchaseModel(entity), nil
}

func (r *PurchaseRepository) Get(ctx context.Context, id int64) (*model.Purchase, error) {
	var entity PurchaseEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, storeErr(model.EntityPurchase, id, err)
	}
	return toPurchaseModel(&entity), nil
}

// Transition moves a purchase from one status to another in a single
// conditional UPDATE. Of several concurrent callers with the same from status
// exactly one succeeds; the rest get ErrConflict.
func (r *PurchaseRepository) Transition(ctx context.Context, id int64, from, to model.PurchaseStatus, approvedAt *time.Time) (*model.Purchase, error) {
	if from != model.PurchaseStatusPending || !to.Terminal() {
		return nil, model.InvalidArgument(model.EntityPurchase, id, fmt.Sprintf("transition %s -> %s not allowed", from, to))
	}
	if to != model.PurchaseStatusApproved {
		approvedAt = nil
	}

	res := r.Write(ctx).
		Model(&PurchaseEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{
			"status":      string(to),
			"approved_at": approvedAt,
		})
	if res.Error != nil {
		return nil, storeErr(model.EntityPurchase, id, res.Error)
	}

	// Re-read through the write handle so a transaction sees its own change.
	var entity PurchaseEntity
	if err := r.Write(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, storeErr(model.EntityPurchase, id, err)
	}
	if res.RowsAffected == 0 {
		return nil, model.Conflict(model.EntityPurchase, id, "status is "+entity.Status)
	}
	return toPurchaseModel(&entity), nil
}

// ListByClass returns purchases of a class, newest first.
func (r *PurchaseRepository) ListByClass(ctx context.Context, classID int64) ([]*model.Purchase, error) {
	return r.list(ctx, "class_id = ?", classID, model.EntityClass)
}

// ListByStudent returns purchases of a student, newest first.
func (r *PurchaseRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Purchase, error) {
	return r.list(ctx, "student_id = ?", studentID, model.EntityStudent)
}

func (r *PurchaseRepository) list(ctx context.Context, where string, id int64, entity string) ([]*model.Purchase, error) {
	var entities []*PurchaseEntity
	err := r.Read(ctx).
		Where(where, id).
		Order("created_at DESC, id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, storeErr(entity, id, err)
	}
	return toPurchaseModels(entities), nil
}

func (r *PurchaseRepository) DeleteByClass(ctx context.Context, classID int64) (int64, error) {
	res := r.Write(ctx).Where("class_id = ?", classID).Delete(&PurchaseEntity{})
	if res.Error != nil {
		return 0, storeErr(model.EntityClass, classID, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *PurchaseRepository) DeleteByStudent(ctx context.Context, studentID int64) (int64, error) {
	res := r.Write(ctx).Where("student_id = ?", studentID).Delete(&PurchaseEntity{})
	if res.Error != nil {
		return 0, storeErr(model.EntityStudent, studentID, res.Error)
	}
	return res.RowsAffected, nil
}
