package repository

import (
	"context"
	"testing"

	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUserRepo() *MemoryRepository[*models.User] {
	return NewMemoryRepository(func() *models.User { return &models.User{} })
}

func TestMemoryRepository_SaveAssignsIDAndFinds(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo()

	saved, err := repo.Save(ctx, &models.User{UserName: "alice", Password: "p1", Roles: []string{"USER"}})
	require.NoError(t, err)
	require.False(t, saved.ID.IsZero())

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.UserName)
	assert.Equal(t, "p1", found.Password)
	assert.Equal(t, []string{"USER"}, found.Roles)
}

func TestMemoryRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo()

	u := &models.User{UserName: "alice"}
	_, err := repo.Save(ctx, u)
	require.NoError(t, err)

	u.UserName = "alice2"
	_, err = repo.Save(ctx, u)
	require.NoError(t, err)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "alice2", all[0].UserName)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo()

	u := &models.User{UserName: "alice"}
	_, err := repo.Save(ctx, u)
	require.NoError(t, err)

	u.UserName = "mutated"
	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.UserName)
}

func TestMemoryRepository_FindOneBy(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo()

	_, err := repo.Save(ctx, &models.User{UserName: "alice"})
	require.NoError(t, err)
	bob, err := repo.Save(ctx, &models.User{UserName: "bob"})
	require.NoError(t, err)

	found, err := repo.FindOneBy(ctx, "userName", "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, found.ID)

	_, err = repo.FindOneBy(ctx, "userName", "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_FindAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo()

	for _, name := range []string{"a", "b", "c"} {
		_, err := repo.Save(ctx, &models.User{UserName: name})
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].UserName)
	assert.Equal(t, "b", all[1].UserName)
	assert.Equal(t, "c", all[2].UserName)
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepo()

	a, err := repo.Save(ctx, &models.User{UserName: "a"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, &models.User{UserName: "b"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, a.ID))
	_, err = repo.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// absent ids are ignored
	require.NoError(t, repo.DeleteByID(ctx, primitive.NewObjectID()))

	require.NoError(t, repo.DeleteAll(ctx))
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNoopTransactor(t *testing.T) {
	called := false
	err := NoopTransactor{}.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
