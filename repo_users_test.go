package taskvault_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/taskvault/taskvault"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	// A named in-memory database keeps each test isolated while
	// surviving pool reconnects.
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, taskvault.CreateSchema(context.Background(), db))

	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, users taskvault.Users, username, email, role string, blocked bool) *taskvault.User {
	t.Helper()
	user, err := users.Create(context.Background(), &taskvault.User{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: "$2a$10$fakehash",
		IsBlocked:    blocked,
	})
	require.NoError(t, err)
	return user
}

func TestUsersListSearch(t *testing.T) {
	ctx := context.Background()
	repo := taskvault.NewRepositoryManager(newTestDB(t))
	users := repo.Users()

	seedUser(t, users, "alice7x", "alice@example.com", taskvault.RoleUser, false)
	seedUser(t, users, "bobadmin", "bob@example.com", taskvault.RoleAdmin, false)
	seedUser(t, users, "carol99", "carol@example.com", taskvault.RoleUser, true)

	t.Run("by username", func(t *testing.T) {
		got, err := users.List(ctx, taskvault.UserListCriteria{Search: "alice"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "alice7x", got[0].Username)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := users.List(ctx, taskvault.UserListCriteria{Search: "carol@"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "carol99", got[0].Username)
	})

	t.Run("by role", func(t *testing.T) {
		got, err := users.List(ctx, taskvault.UserListCriteria{Search: "admin"})
		require.NoError(t, err)
		// Matches both the role and the bobadmin username.
		require.Len(t, got, 1)
		assert.Equal(t, taskvault.RoleAdmin, got[0].Role)
	})

	t.Run("blocked keyword", func(t *testing.T) {
		got, err := users.List(ctx, taskvault.UserListCriteria{Search: "blocked"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].IsBlocked)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := users.List(ctx, taskvault.UserListCriteria{Search: "zzz"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestUsersListPagination(t *testing.T) {
	ctx := context.Background()
	repo := taskvault.NewRepositoryManager(newTestDB(t))
	users := repo.Users()

	seedUser(t, users, "alice7x", "alice@example.com", taskvault.RoleUser, false)
	seedUser(t, users, "bobadmin", "bob@example.com", taskvault.RoleAdmin, false)
	seedUser(t, users, "carol99", "carol@example.com", taskvault.RoleUser, false)

	got, err := users.List(ctx, taskvault.UserListCriteria{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = users.List(ctx, taskvault.UserListCriteria{Offset: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	total, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
