package repository

import (
	"errors"

	"github.com/nimasrn/classroom-points/internal/model"
	"gorm.io/gorm"
)

// storeErr maps a gorm error onto the model error kinds. Anything that is not
// a missing row is treated as the store being unavailable.
func storeErr(entity string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if model.KindOf(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.NotFound(entity, id)
	}
	return model.Unavailable(entity, id, err)
}
