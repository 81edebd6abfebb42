package repository

import (
	"github.com/nimasrn/classroom-points/internal/model"
)

type StudentEntity struct {
	ID       int64  `db:"id"       gorm:"primaryKey;autoIncrement;column:id"`
	Password string `db:"password" gorm:"column:password;not null;uniqueIndex"`
	Name     string `db:"name"     gorm:"column:name;not null"`
	Balance  int64  `db:"balance"  gorm:"column:balance;not null;default:0"`
	ClassID  int64  `db:"class_id" gorm:"column:class_id;not null;index"`
}

func (StudentEntity) TableName() string {
	return "students"
}

func toStudentEntity(m *model.Student) *StudentEntity {
	if m == nil {
		return nil
	}
	return &StudentEntity{
		ID:       m.ID,
		Password: m.Password,
		Name:     m.Name,
		Balance:  m.Balance,
		ClassID:  m.ClassID,
	}
}

func toStudentModel(e *StudentEntity) *model.Student {
	if e == nil {
		return nil
	}
	return &model.Student{
		ID:       e.ID,
		Password: e.Password,
		Name:     e.Name,
		Balance:  e.Balance,
		ClassID:  e.ClassID,
	}
}

func toStudentModels(entities []*StudentEntity) []*model.Student {
	models := make([]*model.Student, len(entities))
	for i, e := range entities {
		models[i] = toStudentModel(e)
	}
	return models
}
