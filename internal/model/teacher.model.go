package model

import "time"

type Teacher struct {
	ID        int64     `json:"id"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	ClassID   int64     `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
}

type TeacherCreateRequest struct {
	Password string `json:"password"`
	Name     string `json:"name"`
	ClassID  int64  `json:"class_id"`
}

func (r TeacherCreateRequest) Validate() error {
	if r.Password == "" {
		return InvalidArgument(EntityTeacher, 0, "password is required")
	}
	if r.ClassID == 0 {
		return InvalidArgument(EntityTeacher, 0, "class_id is required")
	}
	return nil
}
