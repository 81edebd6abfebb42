package repository

import (
	"context"

	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StudentRepository owns student rows and is the only writer of the balance
// column. Balance writes are single UPDATE statements so concurrent callers
// never lose an update.
type StudentRepository struct {
	*pg.DB
}

func NewStudentRepository(db *pg.DB) *StudentRepository {
	return &StudentRepository{
		db,
	}
}

func (r *StudentRepository) Create(ctx context.Context, s *model.Student) (*model.Student, error) {
	entity := toStudentEntity(s)
	entity.ID = 0

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, storeErr(model.EntityStudent, 0, err)
	}
	return toStudentModel(entity), nil
}

func (r *StudentRepository) Get(ctx context.Context, id int64) (*model.Student, error) {
	var entity StudentEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, storeErr(model.EntityStudent, id, err)
	}
	return toStudentModel(&entity), nil
}

func (r *StudentRepository) FindByPassword(ctx context.Context, password string) (*model.Student, error) {
	var entity StudentEntity
	if err := r.Read(ctx).Where("password = ?", password).First(&entity).Error; err != nil {
		return nil, storeErr(model.EntityStudent, 0, err)
	}
	return toStudentModel(&entity), nil
}

// ListByClass returns the students of a class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID int64) ([]*model.Student, error) {
	var entities []*StudentEntity
	err := r.Read(ctx).
		Where("class_id = ?", classID).
		Order("name ASC, id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, storeErr(model.EntityClass, classID, err)
	}
	return toStudentModels(entities), nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).Where("id = ?", id).Delete(&StudentEntity{})
	if res.Error != nil {
		return storeErr(model.EntityStudent, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound(model.EntityStudent, id)
	}
	return nil
}

func (r *StudentRepository) DeleteByClass(ctx context.Context, classID int64) (int64, error) {
	res := r.Write(ctx).Where("class_id = ?", classID).Delete(&StudentEntity{})
	if res.Error != nil {
		return 0, storeErr(model.EntityClass, classID, res.Error)
	}
	return res.RowsAffected, nil
}

// AdjustBalance adds delta to the balance and returns the result. The result
// may be negative; callers that need a floor check it themselves.
func (r *StudentRepository) AdjustBalance(ctx context.Context, id int64, delta int64) (int64, error) {
	var balance int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).
			Model(&StudentEntity{}).
			Where("id = ?", id).
			Update("balance", gorm.Expr("balance + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.NotFound(model.EntityStudent, id)
		}

		var err error
		balance, err = r.selectBalance(r.Write(ctx), id)
		return err
	})
	if err != nil {
		return 0, storeErr(model.EntityStudent, id, err)
	}
	return balance, nil
}

// SetBalance overwrites the balance and returns the stored result.
func (r *StudentRepository) SetBalance(ctx context.Context, id int64, value int64) (int64, error) {
	if value < 0 {
		return 0, model.InvalidArgument(model.EntityStudent, id, "balance must not be negative")
	}

	var balance int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		res := r.Write(ctx).
			Model(&StudentEntity{}).
			Where("id = ?", id).
			Update("balance", value)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.NotFound(model.EntityStudent, id)
		}

		var err error
		balance, err = r.selectBalance(r.Write(ctx), id)
		return err
	})
	if err != nil {
		return 0, storeErr(model.EntityStudent, id, err)
	}
	return balance, nil
}

// GetBalance reads from the write pool so a balance is never older than the
// last mutation, even when the read pool is a lagging replica.
func (r *StudentRepository) GetBalance(ctx context.Context, id int64) (int64, error) {
	balance, err := r.selectBalance(r.Write(ctx), id)
	if err != nil {
		return 0, storeErr(model.EntityStudent, id, err)
	}
	return balance, nil
}

// LockBalance reads the balance with a row lock held until the surrounding
// transaction ends. Outside a transaction it behaves like GetBalance.
func (r *StudentRepository) LockBalance(ctx context.Context, id int64) (int64, error) {
	balance, err := r.selectBalance(r.Write(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
	if err != nil {
		return 0, storeErr(model.EntityStudent, id, err)
	}
	return balance, nil
}

func (r *StudentRepository) selectBalance(q *gorm.DB, id int64) (int64, error) {
	var entity StudentEntity
	err := q.Select("id", "balance").
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		return 0, err
	}
	return entity.Balance, nil
}
