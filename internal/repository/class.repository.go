package repository

import (
	"context"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/pg"
)

type ClassRepository struct {
	*pg.DB
}

func NewClassRepository(db *pg.DB) *ClassRepository {
	return &ClassRepository{
		db,
	}
}

func (r *ClassRepository) Create(ctx context.Context, c *model.Class) (*model.Class, error) {
	entity := toClassEntity(c)
	entity.ID = 0
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr(model.EntityClass, 0, err)
	}
	return toClassModel(entity), nil
}

func (r *ClassRepository) Get(ctx context.Context, id int64) (*model.Class, error) {
	var entity ClassEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, storeErr(model.EntityClass, id, err)
	}
	return toClassModel(&entity), nil
}

// List returns every class, newest first.
func (r *ClassRepository) List(ctx context.Context) ([]*model.Class, error) {
	var entities []*ClassEntity
	if err := r.Read(ctx).Order("created_at DESC, id DESC").Find(&entities).Error; err != nil {
		return nil, storeErr(model.EntityClass, 0, err)
	}
	return toClassModels(entities), nil
}

func (r *ClassRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.Read(ctx).Model(&ClassEntity{}).Count(&n).Error; err != nil {
		return 0, storeErr(model.EntityClass, 0, err)
	}
	return n, nil
}

func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).Where("id = ?", id).Delete(&ClassEntity{})
	if res.Error != nil {
		return storeErr(model.EntityClass, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound(model.EntityClass, id)
	}
	return nil
}
