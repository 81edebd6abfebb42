package repository

import (
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

type TeacherEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	Password  string    `db:"password"   gorm:"column:password;not null;uniqueIndex"`
	Name      string    `db:"name"       gorm:"column:name;not null;default:''"`
	ClassID   int64     `db:"class_id"   gorm:"column:class_id;not null;index"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;not null"`
}

func (TeacherEntity) TableName() string {
	return "teachers"
}

func toTeacherEntity(m *model.Teacher) *TeacherEntity {
	if m == nil {
		return nil
	}
	return &TeacherEntity{
		ID:        m.ID,
		Password:  m.Password,
		Name:      m.Name,
		ClassID:   m.ClassID,
		CreatedAt: m.CreatedAt,
	}
}

func toTeacherModel(e *TeacherEntity) *model.Teacher {
	if e == nil {
		return nil
	}
	return &model.Teacher{
		ID:        e.ID,
		Password:  e.Password,
		Name:      e.Name,
		ClassID:   e.ClassID,
		CreatedAt: e.CreatedAt,
	}
}

func toTeacherModels(entities []*TeacherEntity) []*model.Teacher {
	models := make([]*model.Teacher, len(entities))
	for i, e := range entities {
		models[i] = toTeacherModel(e)
	}
	return models
}
