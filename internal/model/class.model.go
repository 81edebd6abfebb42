package model

import "time"

type Class struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type ClassCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r ClassCreateRequest) Validate() error {
	if r.Name == "" {
		return InvalidArgument(EntityClass, 0, "name is required")
	}
	return nil
}

// ClassDetails is a class with its roster.
type ClassDetails struct {
	Class    *Class     `json:"class"`
	Students []*Student `json:"students"`
	Teachers []*Teacher `json:"teachers"`
}
