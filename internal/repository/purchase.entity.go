package repository

import (
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

type PurchaseEntity struct {
	ID          int64      `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	StudentID   int64      `db:"student_id"   gorm:"column:student_id;not null;index"`
	StudentName string     `db:"student_name" gorm:"column:student_name;not null"`
	ProductID   int64      `db:"product_id"   gorm:"column:product_id;not null"`
	ProductName string     `db:"product_name" gorm:"column:product_name;not null"`
	Price       int64      `db:"price"        gorm:"column:price;not null"`
	ClassID     int64      `db:"class_id"     gorm:"column:class_id;not null;index"`
	Status      string     `db:"status"       gorm:"column:status;not null;index"`
	CreatedAt   time.Time  `db:"created_at"   gorm:"column:created_at;not null"`
	ApprovedAt  *time.Time `db:"approved_at"  gorm:"column:approved_at"`
}

func (PurchaseEntity) TableName() string {
	return "purchases"
}

func toPurchaseModel(e *PurchaseEntity) *model.Purchase {
	if e == nil {
		return nil
	}
	return &model.Purchase{
		ID:          e.ID,
		StudentID:   e.StudentID,
		StudentName: e.StudentName,
		ProductID:   e.ProductID,
		ProductName: e.ProductName,
		Price:       e.Price,
		ClassID:     e.ClassID,
		Status:      model.PurchaseStatus(e.Status),
		CreatedAt:   e.CreatedAt,
		ApprovedAt:  e.ApprovedAt,
	}
}

func toPurchaseModels(entities []*PurchaseEntity) []*model.Purchase {
	models := make([]*model.Purchase, len(entities))
	for i, e := range entities {
		models[i] = toPurchaseModel(e)
	}
	return models
}
