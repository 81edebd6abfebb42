package repository

import (
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

type ProductEntity struct {
	ID          int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `db:"name"        gorm:"column:name;not null"`
	Price       int64     `db:"price"       gorm:"column:price;not null"`
	Description string    `db:"description" gorm:"column:description;not null;default:''"`
	Image       string    `db:"image"       gorm:"column:image;not null;default:''"`
	ClassID     int64     `db:"class_id"    gorm:"column:class_id;not null;index"`
	CreatedAt   time.Time `db:"created_at"  gorm:"column:created_at;not null"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toProductEntity(m *model.Product) *ProductEntity {
	if m == nil {
		return nil
	}
	return &ProductEntity{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		Image:       m.Image,
		ClassID:     m.ClassID,
		CreatedAt:   m.CreatedAt,
	}
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:          e.ID,
		Name:        e.Name,
		Price:       e.Price,
		Description: e.Description,
		Image:       e.Image,
		ClassID:     e.ClassID,
		CreatedAt:   e.CreatedAt,
	}
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}
