package database

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ann := createUser(t, db, "Ann", "ann@example.com")
	bob := createUser(t, db, "Bob", "bob@example.com")
	assert.NotZero(t, ann.ID)
	assert.Greater(t, bob.ID, ann.ID)

	found, err := db.GetUserByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, *ann, *found)

	ann.Name = "Anna"
	require.NoError(t, db.UpdateUser(ctx, ann))
	found, err = db.GetUserByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", found.Name)

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, ann.ID, users[0].ID)
	assert.Equal(t, bob.ID, users[1].ID)

	require.NoError(t, db.DeleteUser(ctx, bob.ID))
	_, err = db.GetUserByID(ctx, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUser_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createUser(t, db, "Ann", "ann@example.com")

	err := db.CreateUser(ctx, &models.User{Name: "Other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	bob := createUser(t, db, "Bob", "bob@example.com")
	bob.Email = "ann@example.com"
	err = db.UpdateUser(ctx, bob)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUser_NotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetUserByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "user with id = 42 not found", err.Error())

	assert.ErrorIs(t, db.UpdateUser(ctx, &models.User{ID: 42, Name: "x", Email: "x@example.com"}), domain.ErrNotFound)
	assert.ErrorIs(t, db.DeleteUser(ctx, 42), domain.ErrNotFound)

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUser_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := createUser(t, db, "Owner", "owner@example.com")
	item := createItem(t, db, owner.ID, "Drill", true)

	require.NoError(t, db.DeleteUser(ctx, owner.ID))

	ok, err := db.ItemExists(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
