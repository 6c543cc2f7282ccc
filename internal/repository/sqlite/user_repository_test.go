package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-management/internal/domain"
	"inventory-management/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = Migrate(context.Background(), db)
	require.NoError(t, err)
	return db
}

func newSampleUser() *domain.User {
	return &domain.User{
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: "hash",
	}
}

func createSampleUser(t *testing.T, repo *UserRepository) *domain.User {
	t.Helper()
	user := newSampleUser()
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	user := createSampleUser(t, repo)

	_, err := uuid.Parse(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Test User", user.Name)
	assert.Equal(t, "test@example.com", user.Email)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	createSampleUser(t, repo)

	err := repo.Create(context.Background(), newSampleUser())
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepository_GetByID(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	created := createSampleUser(t, repo)

	user, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, created.Name, user.Name)
	assert.Equal(t, created.Email, user.Email)
	assert.True(t, created.CreatedAt.Equal(user.CreatedAt))

	_, err = repo.GetByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	created := createSampleUser(t, repo)

	user, err := repo.GetByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, "hash", user.PasswordHash)

	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	createSampleUser(t, repo)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.User{
			Name:         fmt.Sprintf("Test User %d", i),
			Email:        fmt.Sprintf("test%d@example.com", i),
			PasswordHash: "hash",
		}))
	}

	page, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Users, 6)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Size)
	assert.Equal(t, "test@example.com", page.Users[0].Email)

	page, err = repo.List(ctx, 1, 3)
	require.NoError(t, err)
	assert.Len(t, page.Users, 3)
	assert.Equal(t, 6, page.Total)

	page, err = repo.List(ctx, 2, 4)
	require.NoError(t, err)
	assert.Len(t, page.Users, 2)

	page, err = repo.List(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Users)
	assert.Equal(t, 6, page.Total)

	_, err = repo.List(ctx, 0, 10)
	assert.Error(t, err)
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	created := createSampleUser(t, repo)
	time.Sleep(2 * time.Millisecond)

	updated, err := repo.Update(ctx, created.ID, domain.UserUpdate{
		Name:  strPtr("Updated Name"),
		Email: strPtr("updated@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Updated Name", updated.Name)
	assert.Equal(t, "updated@example.com", updated.Email)
	assert.Equal(t, "hash", updated.PasswordHash)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	created := createSampleUser(t, repo)

	_, err := repo.Update(ctx, created.ID, domain.UserUpdate{Password: strPtr("new-hash")})
	require.NoError(t, err)

	user, err := repo.GetByEmail(ctx, created.Email)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", user.PasswordHash)
}

func TestUserRepository_UpdateNoFieldsReturnsCurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	created := createSampleUser(t, repo)

	user, err := repo.Update(ctx, created.ID, domain.UserUpdate{})
	require.NoError(t, err)
	assert.Equal(t, created.Name, user.Name)
	assert.True(t, user.UpdatedAt.Equal(created.UpdatedAt))
}

func TestUserRepository_UpdateNonexistent(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.Update(context.Background(), uuid.NewString(), domain.UserUpdate{Name: strPtr("Will Not Update")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	createSampleUser(t, repo)
	other := &domain.User{Name: "Other", Email: "other@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, other))

	_, err := repo.Update(ctx, other.ID, domain.UserUpdate{Email: strPtr("test@example.com")})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))
	created := createSampleUser(t, repo)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err := repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), repository.ErrNotFound)
}
