package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/models"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"sqlite", "postgres", "mysql", ""} {
		d, err := Dialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := Dialector("oracle", "dsn")
	assert.Error(t, err)
}

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(&config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:", GinMode: "test"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	// second run is a no-op
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable("project_members"))
	assert.True(t, db.Migrator().HasIndex("tasks", "idx_tasks_project_status"))
}

func TestVisibleTo(t *testing.T) {
	db, err := Open(&config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:", GinMode: "test"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, Migrate(db))

	owner := models.User{Name: "owner", Email: "owner@example.com", PasswordHash: "x"}
	member := models.User{Name: "member", Email: "member@example.com", PasswordHash: "x"}
	outsider := models.User{Name: "outsider", Email: "outsider@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, db.Create(&outsider).Error)

	p1 := models.Project{Name: "P1", OwnerID: &owner.ID, Members: []models.User{member}}
	p2 := models.Project{Name: "P2", OwnerID: &outsider.ID}
	require.NoError(t, db.Create(&p1).Error)
	require.NoError(t, db.Create(&p2).Error)

	var got []models.Project
	require.NoError(t, db.Scopes(VisibleTo(member.ID)).Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, p1.ID, got[0].ID)

	got = nil
	require.NoError(t, db.Scopes(VisibleTo(owner.ID)).Find(&got).Error)
	require.Len(t, got, 1)

	got = nil
	require.NoError(t, db.Scopes(VisibleTo(outsider.ID)).Find(&got).Error)
	require.Len(t, got, 1)
	assert.Equal(t, p2.ID, got[0].ID)
}
