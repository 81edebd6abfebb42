package model

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	ClassID     int64     `json:"class_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ClassID     int64  `json:"class_id"`
}

func (r ProductCreateRequest) Validate() error {
	switch {
	case r.Name == "":
		return InvalidArgument(EntityProduct, 0, "name is required")
	case r.Price <= 0:
		return InvalidArgument(EntityProduct, 0, "price must be positive")
	case r.ClassID == 0:
		return InvalidArgument(EntityProduct, 0, "class_id is required")
	}
	return nil
}
