package services

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/classroom-points/internal/model"
)

// Transactor runs fn inside one store transaction. Repositories called with
// the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// outcomeOf labels err for metrics.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, model.ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, model.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// asKind returns err unchanged when it already carries an error kind and
// otherwise reports the store as unavailable.
func asKind(entity string, id int64, err error) error {
	if err == nil || model.KindOf(err) != nil {
		return err
	}
	return model.Unavailable(entity, id, err)
}
