package repository

import (
	"context"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/pg"
)

type ProductRepository struct {
	*pg.DB
}

func NewProductRepository(db *pg.DB) *ProductRepository {
	return &ProductRepository{
		db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) (*model.Product, error) {
	entity := toProductEntity(p)
	entity.ID = 0
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now().UTC()
	}

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr(model.EntityProduct, 0, err)
	}
	return toProductModel(entity), nil
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*model.Product, error) {
	var entity ProductEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, storeErr(model.EntityProduct, id, err)
	}
	return toProductModel(&entity), nil
}

// ListByClass returns the store of a class, newest first.
func (r *ProductRepository) ListByClass(ctx context.Context, classID int64) ([]*model.Product, error) {
	var entities []*ProductEntity
	err := r.Read(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC, id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, storeErr(model.EntityClass, classID, err)
	}
	return toProductModels(entities), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).Where("id = ?", id).Delete(&ProductEntity{})
	if res.Error != nil {
		return storeErr(model.EntityProduct, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound(model.EntityProduct, id)
	}
	return nil
}

func (r *ProductRepository) DeleteByClass(ctx context.Context, classID int64) (int64, error) {
	res := r.Write(ctx).Where("class_id = ?", classID).Delete(&ProductEntity{})
	if res.Error != nil {
		return 0, storeErr(model.EntityClass, classID, res.Error)
	}
	return res.RowsAffected, nil
}
