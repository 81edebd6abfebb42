package model

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
)

// Identity is what a successful login resolves to.
type Identity struct {
	Role      Role   `json:"role"`
	Name      string `json:"name"`
	ClassID   *int64 `json:"class_id,omitempty"`
	ClassName string `json:"class_name,omitempty"`
	StudentID *int64 `json:"student_id,omitempty"`
	Balance   *int64 `json:"balance,omitempty"`
}
