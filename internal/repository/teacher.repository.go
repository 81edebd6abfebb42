package repository

import (
	"context"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/pg"
)

type TeacherRepository struct {
	*pg.DB
}

func NewTeacherRepository(db *pg.DB) *TeacherRepository {
	return &TeacherRepository{
		db,
	}
}

func (r *TeacherRepository) Create(ctx context.Context, t *model.Teacher) (*model.Teacher, error) {
	entity := toTeacherEntity(t)
	entity.ID = 0
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr(model.EntityTeacher, 0, err)
	}
	return toTeacherModel(entity), nil
}

func (r *TeacherRepository) FindByPassword(ctx context.Context, password string) (*model.Teacher, error) {
	var entity TeacherEntity
	if err := r.Read(ctx).Where("password = ?", password).First(&entity).Error; err != nil {
		return nil, storeErr(model.EntityTeacher, 0, err)
	}
	return toTeacherModel(&entity), nil
}

func (r *TeacherRepository) ListByClass(ctx context.Context, classID int64) ([]*model.Teacher, error) {
	var entities []*TeacherEntity
	if err := r.Read(ctx).Where("class_id = ?", classID).Order("name ASC, id ASC").Find(&entities).Error; err != nil {
		return nil, storeErr(model.EntityClass, classID, err)
	}
	return toTeacherModels(entities), nil
}

func (r *TeacherRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).Where("id = ?", id).Delete(&TeacherEntity{})
	if res.Error != nil {
		return storeErr(model.EntityTeacher, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound(model.EntityTeacher, id)
	}
	return nil
}

func (r *TeacherRepository) DeleteByClass(ctx context.Context, classID int64) (int64, error) {
	res := r.Write(ctx).Where("class_id = ?", classID).Delete(&TeacherEntity{})
	if res.Error != nil {
		return 0, storeErr(model.EntityClass, classID, res.Error)
	}
	return res.RowsAffected, nil
}
