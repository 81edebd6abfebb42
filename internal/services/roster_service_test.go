package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/classroom-points/internal/config"
	"github.com/nimasrn/classroom-points/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type rosterMocks struct {
	classes   *MockClassStore
	students  *MockStudentStore
	teachers  *MockTeacherStore
	products  *MockProductStore
	purchases *MockPurger
	ledger    *MockPurger
	tx        *MockTransactor
}

func newRosterService(admins ...config.SuperAdmin) (*RosterService, *rosterMocks) {
	m := &rosterMocks{
		classes:   new(MockClassStore),
		students:  new(MockStudentStore),
		teachers:  new(MockTeacherStore),
		products:  new(MockProductStore),
		purchases: new(MockPurger),
		ledger:    new(MockPurger),
		tx:        new(MockTransactor),
	}
	svc := NewRosterService(m.classes, m.students, m.teachers, m.products, m.purchases, m.ledger, m.tx, admins)
	return svc, m
}

func TestRosterService_CreateClass(t *testing.T) {
	svc, m := newRosterService()
	ctx := context.Background()

	_, err := svc.CreateClass(ctx, model.ClassCreateRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	m.classes.On("Create", ctx, &model.Class{Name: "5B", Description: "morning"}).
		Return(&model.Class{ID: 7, Name: "5B", Description: "morning"}, nil)

	c, err := svc.CreateClass(ctx, model.ClassCreateRequest{Name: "5B", Description: "morning"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	m.classes.AssertExpectations(t)
}

func TestRosterService_ClassDetails(t *testing.T) {
	svc, m := newRosterService()
	ctx := context.Background()

	m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3, Name: "5B"}, nil)
	m.students.On("ListByClass", ctx, int64(3)).Return([]*model.Student{{ID: 1, Name: "ana"}}, nil)
	m.teachers.On("ListByClass", ctx, int64(3)).Return([]*model.Teacher{{ID: 2, Name: "Ms. Lee"}}, nil)

	d, err := svc.ClassDetails(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "5B", d.Class.Name)
	assert.Len(t, d.Students, 1)
	assert.Len(t, d.Teachers, 1)

	m.classes.On("Get", ctx, int64(4)).Return(nil, model.NotFound(model.EntityClass, 4))
	_, err = svc.ClassDetails(ctx, 4)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRosterService_DeleteClass_CascadesInOrder(t *testing.T) {
	svc, m := newRosterService()
	ctx := context.Background()

	var order []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { order = append(order, name) }
	}

	m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
	m.tx.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	m.purchases.On("DeleteByClass", ctx, int64(3)).Run(record("purchases")).Return(int64(4), nil)
	m.ledger.On("DeleteByClass", ctx, int64(3)).Run(record("ledger")).Return(int64(2), nil)
	m.products.On("DeleteByClass", ctx, int64(3)).Run(record("products")).Return(int64(1), nil)
	m.teachers.On("DeleteByClass", ctx, int64(3)).Run(record("teachers")).Return(int64(1), nil)
	m.students.On("DeleteByClass", ctx, int64(3)).Run(record("students")).Return(int64(3), nil)
	m.classes.On("Delete", ctx, int64(3)).Run(record("class")).Return(nil)

	require.NoError(t, svc.DeleteClass(ctx, 3))
	assert.Equal(t, []string{"purchases", "ledger", "products", "teachers", "students", "class"}, order)
	m.tx.AssertExpectations(t)
}

func TestRosterService_DeleteClass_StopsOnFailure(t *testing.T) {
	svc, m := newRosterService()
	ctx := context.Background()

	m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
	m.tx.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	m.purchases.On("DeleteByClass", ctx, int64(3)).Return(int64(0), errors.New("connection reset"))

	err := svc.DeleteClass(ctx, 3)
	assert.ErrorIs(t, err, model.ErrUnavailable)
	m.ledger.AssertNotCalled(t, "DeleteByClass", mock.Anything, mock.Anything)
	m.classes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRosterService_EnsureDefaultClass(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when empty", func(t *testing.T) {
		svc, m := newRosterService()
		m.classes.On("Count", ctx).Return(int64(0), nil)
		m.classes.On("Create", ctx, mock.MatchedBy(func(c *model.Class) bool { return c.Name == "Default Class" })).
			Return(&model.Class{ID: 1, Name: "Default Class"}, nil)

		c, err := svc.EnsureDefaultClass(ctx, "Default Class")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, int64(1), c.ID)
	})

	t.Run("skips when classes exist", func(t *testing.T) {
		svc, m := newRosterService()
		m.classes.On("Count", ctx).Return(int64(2), nil)

		c, err := svc.EnsureDefaultClass(ctx, "Default Class")
		require.NoError(t, err)
		assert.Nil(t, c)
		m.classes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestRosterService_CreateStudent(t *testing.T) {
	ctx := context.Background()
	req := model.StudentCreateRequest{Password: "s3cret", Name: "ana", ClassID: 3, Balance: 25}

	t.Run("ok", func(t *testing.T) {
		svc, m := newRosterService(config.SuperAdmin{Password: "root", Name: "Admin"})
		m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
		m.teachers.On("FindByPassword", ctx, "s3cret").Return(nil, model.NotFound(model.EntityTeacher, 0))
		m.students.On("FindByPassword", ctx, "s3cret").Return(nil, model.NotFound(model.EntityStudent, 0))
		m.students.On("Create", ctx, &model.Student{Password: "s3cret", Name: "ana", ClassID: 3, Balance: 25}).
			Return(&model.Student{ID: 9, Password: "s3cret", Name: "ana", ClassID: 3, Balance: 25}, nil)

		st, err := svc.CreateStudent(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(9), st.ID)
	})

	t.Run("duplicate student password", func(t *testing.T) {
		svc, m := newRosterService()
		m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
		m.teachers.On("FindByPassword", ctx, "s3cret").Return(nil, model.NotFound(model.EntityTeacher, 0))
		m.students.On("FindByPassword", ctx, "s3cret").Return(&model.Student{ID: 1}, nil)

		_, err := svc.CreateStudent(ctx, req)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
		m.students.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("super admin password", func(t *testing.T) {
		svc, m := newRosterService(config.SuperAdmin{Password: "s3cret", Name: "Admin"})
		m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)

		_, err := svc.CreateStudent(ctx, req)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})

	t.Run("negative balance", func(t *testing.T) {
		svc, _ := newRosterService()
		bad := req
		bad.Balance = -1
		_, err := svc.CreateStudent(ctx, bad)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})

	t.Run("missing class", func(t *testing.T) {
		svc, m := newRosterService()
		m.classes.On("Get", ctx, int64(3)).Return(nil, model.NotFound(model.EntityClass, 3))
		_, err := svc.CreateStudent(ctx, req)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestRosterService_DeleteStudent(t *testing.T) {
	svc, m := newRosterService()
	ctx := context.Background()

	var order []string
	m.tx.On("WithinTransaction", ctx, mock.Anything).Return(nil)
	m.purchases.On("DeleteByStudent", ctx, int64(9)).Run(func(mock.Arguments) { order = append(order, "purchases") }).Return(int64(2), nil)
	m.ledger.On("DeleteByStudent", ctx, int64(9)).Run(func(mock.Arguments) { order = append(order, "ledger") }).Return(int64(3), nil)
	m.students.On("Delete", ctx, int64(9)).Run(func(mock.Arguments) { order = append(order, "student") }).Return(nil)

	require.NoError(t, svc.DeleteStudent(ctx, 9))
	assert.Equal(t, []string{"purchases", "ledger", "student"}, order)

	m.purchases.On("DeleteByStudent", ctx, int64(10)).Return(int64(0), nil)
	m.ledger.On("DeleteByStudent", ctx, int64(10)).Return(int64(0), nil)
	m.students.On("Delete", ctx, int64(10)).Return(model.NotFound(model.EntityStudent, 10))
	assert.ErrorIs(t, svc.DeleteStudent(ctx, 10), model.ErrNotFound)
}

func TestRosterService_CreateTeacher(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults the name", func(t *testing.T) {
		svc, m := newRosterService()
		m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
		m.teachers.On("FindByPassword", ctx, "chalk").Return(nil, model.NotFound(model.EntityTeacher, 0))
		m.students.On("FindByPassword", ctx, "chalk").Return(nil, model.NotFound(model.EntityStudent, 0))
		m.teachers.On("Create", ctx, &model.Teacher{Password: "chalk", Name: "Teacher", ClassID: 3}).
			Return(&model.Teacher{ID: 4, Name: "Teacher", ClassID: 3}, nil)

		teacher, err := svc.CreateTeacher(ctx, model.TeacherCreateRequest{Password: "chalk", ClassID: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(4), teacher.ID)
	})

	t.Run("duplicate teacher password", func(t *testing.T) {
		svc, m := newRosterService()
		m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
		m.teachers.On("FindByPassword", ctx, "chalk").Return(&model.Teacher{ID: 1}, nil)

		_, err := svc.CreateTeacher(ctx, model.TeacherCreateRequest{Password: "chalk", ClassID: 3})
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})

	t.Run("store unavailable", func(t *testing.T) {
		svc, m := newRosterService()
		m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
		m.teachers.On("FindByPassword", ctx, "chalk").Return(nil, errors.New("dial tcp: refused"))

		_, err := svc.CreateTeacher(ctx, model.TeacherCreateRequest{Password: "chalk", ClassID: 3})
		assert.ErrorIs(t, err, model.ErrUnavailable)
	})
}

func TestRosterService_PurgePurchases(t *testing.T) {
	svc, m := newRosterService()
	ctx := context.Background()

	m.classes.On("Get", ctx, int64(3)).Return(&model.Class{ID: 3}, nil)
	m.purchases.On("DeleteByClass", ctx, int64(3)).Return(int64(5), nil)

	n, err := svc.PurgePurchases(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	m.classes.On("Get", ctx, int64(8)).Return(nil, model.NotFound(model.EntityClass, 8))
	_, err = svc.PurgePurchases(ctx, 8)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRosterService_ListStudents_RequiresClass(t *testing.T) {
	svc, _ := newRosterService()
	_, err := svc.ListStudents(context.Background(), 0)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}
