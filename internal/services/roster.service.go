package services

import (
	"context"
	"errors"

	"github.com/nimasrn/classroom-points/internal/config"
	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/nimasrn/classroom-points/pkg/logger"
)

type ClassStore interface {
	Create(ctx context.Context, c *model.Class) (*model.Class, error)
	Get(ctx context.Context, id int64) (*model.Class, error)
	List(ctx context.Context) ([]*model.Class, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type StudentStore interface {
	StudentReader
	Create(ctx context.Context, s *model.Student) (*model.Student, error)
	FindByPassword(ctx context.Context, password string) (*model.Student, error)
	ListByClass(ctx context.Context, classID int64) ([]*model.Student, error)
	Delete(ctx context.Context, id int64) error
	DeleteByClass(ctx context.Context, classID int64) (int64, error)
}

type TeacherStore interface {
	Create(ctx context.Context, t *model.Teacher) (*model.Teacher, error)
	FindByPassword(ctx context.Context, password string) (*model.Teacher, error)
	ListByClass(ctx context.Context, classID int64) ([]*model.Teacher, error)
	Delete(ctx context.Context, id int64) error
	DeleteByClass(ctx context.Context, classID int64) (int64, error)
}

type PurchasePurger interface {
	DeleteByClass(ctx context.Context, classID int64) (int64, error)
	DeleteByStudent(ctx context.Context, studentID int64) (int64, error)
}

type LedgerPurger interface {
	DeleteByClass(ctx context.Context, classID int64) (int64, error)
	DeleteByStudent(ctx context.Context, studentID int64) (int64, error)
}

type ProductPurger interface {
	DeleteByClass(ctx context.Context, classID int64) (int64, error)
}

// RosterService manages classes and the people in them.
type RosterService struct {
	classes   ClassStore
	students  StudentStore
	teachers  TeacherStore
	products  ProductPurger
	purchases PurchasePurger
	ledger    LedgerPurger
	tx        Transactor
	admins    []config.SuperAdmin
}

func NewRosterService(
	classes ClassStore,
	students StudentStore,
	teachers TeacherStore,
	products ProductPurger,
	purchases PurchasePurger,
	ledger LedgerPurger,
	tx Transactor,
	admins []config.SuperAdmin,
) *RosterService {
	return &RosterService{
		classes:   classes,
		students:  students,
		teachers:  teachers,
		products:  products,
		purchases: purchases,
		ledger:    ledger,
		tx:        tx,
		admins:    admins,
	}
}

func (s *RosterService) ListClasses(ctx context.Context) ([]*model.Class, error) {
	list, err := s.classes.List(ctx)
	return list, asKind(model.EntityClass, 0, err)
}

func (s *RosterService) CreateClass(ctx context.Context, req model.ClassCreateRequest) (*model.Class, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.classes.Create(ctx, &model.Class{Name: req.Name, Description: req.Description})
	if err != nil {
		return nil, asKind(model.EntityClass, 0, err)
	}
	logger.Info("class created", "class_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *RosterService) ClassDetails(ctx context.Context, id int64) (*model.ClassDetails, error) {
	c, err := s.classes.Get(ctx, id)
	if err != nil {
		return nil, asKind(model.EntityClass, id, err)
	}
	students, err := s.students.ListByClass(ctx, id)
	if err != nil {
		return nil, asKind(model.EntityClass, id, err)
	}
	teachers, err := s.teachers.ListByClass(ctx, id)
	if err != nil {
		return nil, asKind(model.EntityClass, id, err)
	}
	return &model.ClassDetails{Class: c, Students: students, Teachers: teachers}, nil
}

// DeleteClass removes the class and everything that belongs to it. Dependents
// go first so a partial failure never leaves rows pointing at a missing class.
func (s *RosterService) DeleteClass(ctx context.Context, id int64) error {
	if _, err := s.classes.Get(ctx, id); err != nil {
		return asKind(model.EntityClass, id, err)
	}

	err := s.within(ctx, func(ctx context.Context) error {
		steps := []func(context.Context, int64) (int64, error){
			s.purchases.DeleteByClass,
			s.ledger.DeleteByClass,
			s.products.DeleteByClass,
			s.teachers.DeleteByClass,
			s.students.DeleteByClass,
		}
		for _, step := range steps {
			if _, err := step(ctx, id); err != nil {
				return err
			}
		}
		return s.classes.Delete(ctx, id)
	})
	if err != nil {
		return asKind(model.EntityClass, id, err)
	}
	logger.Info("class deleted", "class_id", id)
	return nil
}

// EnsureDefaultClass creates a class named name when none exist.
func (s *RosterService) EnsureDefaultClass(ctx context.Context, name string) (*model.Class, error) {
	n, err := s.classes.Count(ctx)
	if err != nil {
		return nil, asKind(model.EntityClass, 0, err)
	}
	if n > 0 {
		return nil, nil
	}
	return s.CreateClass(ctx, model.ClassCreateRequest{Name: name, Description: "Default class"})
}

func (s *RosterService) ListStudents(ctx context.Context, classID int64) ([]*model.Student, error) {
	if classID == 0 {
		return nil, model.InvalidArgument(model.EntityClass, 0, "classId is required")
	}
	list, err := s.students.ListByClass(ctx, classID)
	return list, asKind(model.EntityClass, classID, err)
}

func (s *RosterService) CreateStudent(ctx context.Context, req model.StudentCreateRequest) (*model.Student, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.classes.Get(ctx, req.ClassID); err != nil {
		return nil, asKind(model.EntityClass, req.ClassID, err)
	}
	if err := s.passwordAvailable(ctx, model.EntityStudent, req.Password); err != nil {
		return nil, err
	}

	st, err := s.students.Create(ctx, &model.Student{
		Password: req.Password,
		Name:     req.Name,
		Balance:  req.Balance,
		ClassID:  req.ClassID,
	})
	if err != nil {
		return nil, asKind(model.EntityStudent, 0, err)
	}
	logger.Info("student created", "student_id", st.ID, "class_id", st.ClassID)
	return st, nil
}

// DeleteStudent removes the student together with their purchases and
// ledger entries.
func (s *RosterService) DeleteStudent(ctx context.Context, id int64) error {
	err := s.within(ctx, func(ctx context.Context) error {
		if _, err := s.purchases.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if _, err := s.ledger.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		return s.students.Delete(ctx, id)
	})
	if err != nil {
		return asKind(model.EntityStudent, id, err)
	}
	logger.Info("student deleted", "student_id", id)
	return nil
}

func (s *RosterService) ListTeachers(ctx context.Context, classID int64) ([]*model.Teacher, error) {
	list, err := s.teachers.ListByClass(ctx, classID)
	return list, asKind(model.EntityClass, classID, err)
}

func (s *RosterService) CreateTeacher(ctx context.Context, req model.TeacherCreateRequest) (*model.Teacher, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.classes.Get(ctx, req.ClassID); err != nil {
		return nil, asKind(model.EntityClass, req.ClassID, err)
	}
	if err := s.passwordAvailable(ctx, model.EntityTeacher, req.Password); err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = "Teacher"
	}
	t, err := s.teachers.Create(ctx, &model.Teacher{
		Password: req.Password,
		Name:     name,
		ClassID:  req.ClassID,
	})
	if err != nil {
		return nil, asKind(model.EntityTeacher, 0, err)
	}
	logger.Info("teacher created", "teacher_id", t.ID, "class_id", t.ClassID)
	return t, nil
}

func (s *RosterService) DeleteTeacher(ctx context.Context, id int64) error {
	if err := s.teachers.Delete(ctx, id); err != nil {
		return asKind(model.EntityTeacher, id, err)
	}
	logger.Info("teacher deleted", "teacher_id", id)
	return nil
}

// PurgePurchases deletes the purchase history of a class and returns how
// many records went.
func (s *RosterService) PurgePurchases(ctx context.Context, classID int64) (int64, error) {
	if _, err := s.classes.Get(ctx, classID); err != nil {
		return 0, asKind(model.EntityClass, classID, err)
	}
	n, err := s.purchases.DeleteByClass(ctx, classID)
	if err != nil {
		return 0, asKind(model.EntityClass, classID, err)
	}
	logger.Info("purchase history purged", "class_id", classID, "deleted", n)
	return n, nil
}

// passwordAvailable fails when password already identifies someone, since a
// login has nothing else to tell accounts apart.
func (s *RosterService) passwordAvailable(ctx context.Context, entity string, password string) error {
	for _, a := range s.admins {
		if a.Password == password {
			return model.InvalidArgument(entity, 0, "password already in use")
		}
	}

	_, err := s.teachers.FindByPassword(ctx, password)
	if err == nil {
		return model.InvalidArgument(entity, 0, "password already in use")
	}
	if !errors.Is(err, model.ErrNotFound) {
		return asKind(model.EntityTeacher, 0, err)
	}

	_, err = s.students.FindByPassword(ctx, password)
	if err == nil {
		return model.InvalidArgument(entity, 0, "password already in use")
	}
	if !errors.Is(err, model.ErrNotFound) {
		return asKind(model.EntityStudent, 0, err)
	}
	return nil
}

func (s *RosterService) within(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTransaction(ctx, fn)
}
