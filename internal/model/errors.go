package model

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyResolved   = errors.New("already resolved")
	ErrConflict          = errors.New("conflict")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnavailable       = errors.New("unavailable")
)

// Entity names carried by Error.
const (
	EntityStudent  = "student"
	EntityTeacher  = "teacher"
	EntityClass    = "class"
	EntityProduct  = "product"
	EntityPurchase = "purchase"
	EntityIdentity = "identity"
)

// Error attaches the offending entity to one of the error kinds above.
type Error struct {
	Kind   error
	Entity string
	ID     int64
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = fmt.Sprintf("%s %d: %s", e.Entity, e.ID, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func NotFound(entity string, id int64) error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

func InsufficientFunds(studentID int64, balance, price int64) error {
	return &Error{Kind: ErrInsufficientFunds, Entity: EntityStudent, ID: studentID,
		Detail: fmt.Sprintf("balance %d below price %d", balance, price)}
}

func AlreadyResolved(purchaseID int64, status PurchaseStatus) error {
	return &Error{Kind: ErrAlreadyResolved, Entity: EntityPurchase, ID: purchaseID,
		Detail: "status is " + string(status)}
}

func Conflict(entity string, id int64, detail string) error {
	return &Error{Kind: ErrConflict, Entity: entity, ID: id, Detail: detail}
}

func InvalidArgument(entity string, id int64, detail string) error {
	return &Error{Kind: ErrInvalidArgument, Entity: entity, ID: id, Detail: detail}
}

func Unavailable(entity string, id int64, cause error) error {
	return &Error{Kind: ErrUnavailable, Entity: entity, ID: id, Cause: cause}
}

// KindOf returns the error kind of err, or nil when err carries none.
func KindOf(err error) error {
	for _, k := range []error{ErrNotFound, ErrInsufficientFunds, ErrAlreadyResolved, ErrConflict, ErrInvalidArgument, ErrUnavailable} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// EntityOf extracts the entity name and id from err when it wraps an *Error.
func EntityOf(err error) (string, int64, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Entity, e.ID, true
	}
	return "", 0, false
}
