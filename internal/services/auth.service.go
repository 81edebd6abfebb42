package services

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/nimasrn/classroom-points/internal/config"
	"github.com/nimasrn/classroom-points/internal/model"
)

type TeacherFinder interface {
	FindByPassword(ctx context.Context, password string) (*model.Teacher, error)
}

type StudentFinder interface {
	FindByPassword(ctx context.Context, password string) (*model.Student, error)
}

type AuthService struct {
	admins   []config.SuperAdmin
	teachers TeacherFinder
	students StudentFinder
	classes  ClassReader
}

func NewAuthService(admins []config.SuperAdmin, teachers TeacherFinder, students StudentFinder, classes ClassReader) *AuthService {
	return &AuthService{
		admins:   admins,
		teachers: teachers,
		students: students,
		classes:  classes,
	}
}

// Login resolves a password to an identity, trying super-admins, then
// teachers, then students.
func (s *AuthService) Login(ctx context.Context, password string) (*model.Identity, error) {
	if password == "" {
		return nil, model.InvalidArgument(model.EntityIdentity, 0, "password is required")
	}

	for _, a := range s.admins {
		if subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) == 1 {
			return &model.Identity{Role: model.RoleSuperAdmin, Name: a.Name}, nil
		}
	}

	t, err := s.teachers.FindByPassword(ctx, password)
	switch {
	case err == nil:
		id := &model.Identity{Role: model.RoleTeacher, Name: t.Name, ClassID: &t.ClassID}
		id.ClassName = s.className(ctx, t.ClassID)
		return id, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, asKind(model.EntityIdentity, 0, err)
	}

	st, err := s.students.FindByPassword(ctx, password)
	switch {
	case err == nil:
		id := &model.Identity{
			Role:      model.RoleStudent,
			Name:      st.Name,
			ClassID:   &st.ClassID,
			StudentID: &st.ID,
			Balance:   &st.Balance,
		}
		id.ClassName = s.className(ctx, st.ClassID)
		return id, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, asKind(model.EntityIdentity, 0, err)
	}

	return nil, model.NotFound(model.EntityIdentity, 0)
}

func (s *AuthService) className(ctx context.Context, classID int64) string {
	c, err := s.classes.Get(ctx, classID)
	if err != nil {
		return ""
	}
	return c.Name
}
