package repository

import (
	"context"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/pg"
)

type LedgerRepository struct {
	*pg.DB
}

func NewLedgerRepository(db *pg.DB) *LedgerRepository {
	return &LedgerRepository{
		db,
	}
}

func (r *LedgerRepository) Append(ctx context.Context, e *model.LedgerEntry) (*model.LedgerEntry, error) {
	entity := toLedgerEntryEntity(e)
	entity.ID = 0
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr(model.EntityStudent, e.StudentID, err)
	}
	return toLedgerEntryModel(entity), nil
}

// ListByStudent returns the ledger of a student, newest first.
func (r *LedgerRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.LedgerEntry, error) {
	var entities []*LedgerEntryEntity
	err := r.Read(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, storeErr(model.EntityStudent, studentID, err)
	}
	return toLedgerEntryModels(entities), nil
}

func (r *LedgerRepository) DeleteByStudent(ctx context.Context, studentID int64) (int64, error) {
	res := r.Write(ctx).Where("student_id = ?", studentID).Delete(&LedgerEntryEntity{})
	if res.Error != nil {
		return 0, storeErr(model.EntityStudent, studentID, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByClass removes the ledger of every student currently in the class.
func (r *LedgerRepository) DeleteByClass(ctx context.Context, classID int64) (int64, error) {
	students := r.Write(ctx).Model(&StudentEntity{}).Select("id").Where("class_id = ?", classID)
	res := r.Write(ctx).Where("student_id IN (?)", students).Delete(&LedgerEntryEntity{})
	if res.Error != nil {
		return 0, storeErr(model.EntityClass, classID, res.Error)
	}
	return res.RowsAffected, nil
}
