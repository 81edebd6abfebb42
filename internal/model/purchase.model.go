package model

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPending  PurchaseStatus = "pending"
	PurchaseStatusApproved PurchaseStatus = "approved"
	PurchaseStatusRejected PurchaseStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseStatusApproved || s == PurchaseStatusRejected
}

func (s PurchaseStatus) Valid() bool {
	return s == PurchaseStatusPending || s.Terminal()
}

// Purchase snapshots the student and product at request time so later edits
// to either do not rewrite history.
type Purchase struct {
	ID          int64          `json:"id"`
	StudentID   int64          `json:"student_id"`
	StudentName string         `json:"student_name"`
	ProductID   int64          `json:"product_id"`
	ProductName string         `json:"product_name"`
	Price       int64          `json:"price"`
	ClassID     int64          `json:"class_id"`
	Status      PurchaseStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty"`
}

type PurchaseCreateParams struct {
	StudentID   int64
	StudentName string
	ProductID   int64
	ProductName string
	Price       int64
	ClassID     int64
}

type PurchaseRequest struct {
	StudentID int64 `json:"student_id"`
	ProductID int64 `json:"product_id"`
}

func (r PurchaseRequest) Validate() error {
	if r.StudentID == 0 {
		return InvalidArgument(EntityStudent, 0, "student_id is required")
	}
	if r.ProductID == 0 {
		return InvalidArgument(EntityProduct, 0, "product_id is required")
	}
	return nil
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func DecisionFromBool(approve bool) Decision {
	if approve {
		return DecisionApprove
	}
	return DecisionReject
}

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Target is the status a pending purchase moves to under d.
func (d Decision) Target() PurchaseStatus {
	if d == DecisionApprove {
		return PurchaseStatusApproved
	}
	return PurchaseStatusRejected
}
