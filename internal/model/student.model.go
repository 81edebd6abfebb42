package model

type Student struct {
	ID       int64  `json:"id"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Balance  int64  `json:"balance"`
	ClassID  int64  `json:"class_id"`
}

type StudentCreateRequest struct {
	Password string `json:"password"`
	Name     string `json:"name"`
	ClassID  int64  `json:"class_id"`
	Balance  int64  `json:"balance"`
}

func (r StudentCreateRequest) Validate() error {
	switch {
	case r.Password == "":
		return InvalidArgument(EntityStudent, 0, "password is required")
	case r.Name == "":
		return InvalidArgument(EntityStudent, 0, "name is required")
	case r.ClassID == 0:
		return InvalidArgument(EntityStudent, 0, "class_id is required")
	case r.Balance < 0:
		return InvalidArgument(EntityStudent, 0, "balance must not be negative")
	}
	return nil
}
