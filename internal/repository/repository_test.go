package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	store Store
	ctx   context.Context
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(database.Migrate(db))

	s.db = db
	s.store = NewStore(db)
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *RepositoryTestSuite) createUser(email string) *models.User {
	u := &models.User{Name: email, Email: email, PasswordHash: "hash"}
	s.Require().NoError(s.store.Users().Create(s.ctx, u))
	return u
}

func (s *RepositoryTestSuite) createProject(name string, owner *models.User, members ...models.User) *models.Project {
	p := &models.Project{Name: name, OwnerID: &owner.ID, Members: members}
	s.Require().NoError(s.store.Projects().Create(s.ctx, p))
	return p
}

func (s *RepositoryTestSuite) TestUsers() {
	u := s.createUser("ada@example.com")
	s.NotEmpty(u.ID)
	s.Equal(models.RoleMember, u.Role)

	found, err := s.store.Users().FindByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	dup := &models.User{Name: "dup", Email: "ada@example.com", PasswordHash: "hash"}
	err = s.store.Users().Create(s.ctx, dup)
	s.True(errors.Is(err, gorm.ErrDuplicatedKey))

	s.Require().NoError(s.store.Users().Delete(s.ctx, u.ID))
	_, err = s.store.Users().FindByID(s.ctx, u.ID)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))

	users, err := s.store.Users().List(s.ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *RepositoryTestSuite) TestProjectsAndMembers() {
	owner := s.createUser("owner@example.com")
	member := s.createUser("member@example.com")
	outsider := s.createUser("outsider@example.com")

	p := s.createProject("Apollo", owner, *member)
	s.Equal(models.ProjectStatusPlanned, p.Status)

	found, err := s.store.Projects().FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal([]string{member.ID}, found.MemberIDs())

	byName, err := s.store.Projects().FindByName(s.ctx, "Apollo")
	s.Require().NoError(err)
	s.Equal(p.ID, byName.ID)

	for _, tc := range []struct {
		user *models.User
		want int
	}{{owner, 1}, {member, 1}, {outsider, 0}} {
		visible, err := s.store.Projects().ListVisibleTo(s.ctx, tc.user.ID)
		s.Require().NoError(err)
		s.Len(visible, tc.want, tc.user.Email)
	}

	s.Require().NoError(s.store.Projects().AddMember(s.ctx, p.ID, outsider))
	s.Require().NoError(s.store.Projects().RemoveMember(s.ctx, p.ID, member.ID))
	found, err = s.store.Projects().FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal([]string{outsider.ID}, found.MemberIDs())

	// removing a member never deletes the user
	_, err = s.store.Users().FindByID(s.ctx, member.ID)
	s.NoError(err)
}

func (s *RepositoryTestSuite) TestListMemberOf() {
	owner := s.createUser("owner@example.com")
	member := s.createUser("member@example.com")
	p1 := s.createProject("One", owner)
	s.createProject("Two", owner)
	s.Require().NoError(s.store.Projects().AddMember(s.ctx, p1.ID, member))

	joined, err := s.store.Projects().ListMemberOf(s.ctx, member.ID)
	s.Require().NoError(err)
	s.Require().Len(joined, 1)
	s.Equal(p1.ID, joined[0].ID)
	s.Equal([]string{member.ID}, joined[0].MemberIDs())

	joined, err = s.store.Projects().ListMemberOf(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Empty(joined)
}

func (s *RepositoryTestSuite) TestProjectOwnership() {
	owner := s.createUser("owner@example.com")
	p1 := s.createProject("One", owner)
	s.createProject("Two", owner)

	owned, err := s.store.Projects().ListOwnedBy(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Len(owned, 2)

	s.Require().NoError(s.store.Projects().ClearOwner(s.ctx, owner.ID))
	found, err := s.store.Projects().FindByID(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.Nil(found.OwnerID)

	s.Require().NoError(s.store.Projects().UpdateStatus(s.ctx, p1.ID, models.ProjectStatusCompleted))
	found, err = s.store.Projects().FindByID(s.ctx, p1.ID)
	s.Require().NoError(err)
	s.Equal(models.ProjectStatusCompleted, found.Status)

	s.Require().NoError(s.store.Projects().Delete(s.ctx, p1.ID))
	_, err = s.store.Projects().FindByID(s.ctx, p1.ID)
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *RepositoryTestSuite) TestTasks() {
	owner := s.createUser("owner@example.com")
	worker := s.createUser("worker@example.com")
	p := s.createProject("Apollo", owner)

	t1 := &models.Task{Title: "one", ProjectID: p.ID, AssigneeID: &worker.ID}
	t2 := &models.Task{Title: "two", ProjectID: p.ID, Status: models.TaskStatusDone, AssigneeID: &worker.ID}
	t3 := &models.Task{Title: "three", ProjectID: p.ID}
	for _, t := range []*models.Task{t1, t2, t3} {
		s.Require().NoError(s.store.Tasks().Create(s.ctx, t))
	}
	s.Equal(models.TaskStatusPending, t1.Status)

	listed, err := s.store.Tasks().ListByProject(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)

	total, done, err := s.store.Tasks().CountByStatus(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Equal(int64(1), done)

	assigned, err := s.store.Tasks().ListAssignedTo(s.ctx, worker.ID)
	s.Require().NoError(err)
	s.Len(assigned, 2)

	s.Require().NoError(s.store.Tasks().ReleaseAssignee(s.ctx, worker.ID))
	released, err := s.store.Tasks().FindByID(s.ctx, t2.ID)
	s.Require().NoError(err)
	s.Nil(released.AssigneeID)
	s.Equal(models.TaskStatusAwaitingReassignment, released.Status)

	// Update writes a nil assignee
	t3.AssigneeID = &owner.ID
	s.Require().NoError(s.store.Tasks().Update(s.ctx, t3))
	t3.AssigneeID = nil
	s.Require().NoError(s.store.Tasks().Update(s.ctx, t3))
	reloaded, err := s.store.Tasks().FindByID(s.ctx, t3.ID)
	s.Require().NoError(err)
	s.Nil(reloaded.AssigneeID)
}

func (s *RepositoryTestSuite) TestTransactionRollsBack() {
	errBoom := errors.New("boom")
	err := s.store.Transaction(s.ctx, func(tx Store) error {
		if err := tx.Users().Create(s.ctx, &models.User{Name: "x", Email: "x@example.com", PasswordHash: "h"}); err != nil {
			return err
		}
		return errBoom
	})
	s.ErrorIs(err, errBoom)

	_, err = s.store.Users().FindByEmail(s.ctx, "x@example.com")
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *RepositoryTestSuite) TestLogs() {
	rid := "project-1"
	s.Require().NoError(s.store.Logs().Create(s.ctx, &models.Log{
		Action:       models.ActionProjectCreated,
		ResourceType: strptr("project"),
		ResourceID:   &rid,
		Details:      datatypes.JSON(`{"name":"Apollo"}`),
	}))

	logs, err := s.store.Logs().ListByResource(s.ctx, "project", rid)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.JSONEq(`{"name":"Apollo"}`, string(logs[0].Details))
}

func strptr(s string) *string { return &s }
