package repository

import (
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

type ClassEntity struct {
	ID          int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `db:"name"        gorm:"column:name;not null"`
	Description string    `db:"description" gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time `db:"created_at"  gorm:"column:created_at;not null;index"`
}

func (ClassEntity) TableName() string {
	return "classes"
}

func toClassEntity(m *model.Class) *ClassEntity {
	if m == nil {
		return nil
	}
	return &ClassEntity{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func toClassModel(e *ClassEntity) *model.Class {
	if e == nil {
		return nil
	}
	return &model.Class{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func toClassModels(entities []*ClassEntity) []*model.Class {
	models := make([]*model.Class, len(entities))
	for i, e := range entities {
		models[i] = toClassModel(e)
	}
	return models
}
