package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddListRemove(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	entry, err := svc.Add(ctx, "u@example.com", AddInput{ApartmentID: "apt-1", Price: 10})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "v@example.com", AddInput{ApartmentID: "apt-2", Price: 5})
	require.NoError(t, err)

	mine, err := svc.List(ctx, "u@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, entry.ID, mine[0].ID)

	n, err := svc.Remove(ctx, "v@example.com", entry.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "another owner must not remove the entry")

	n, err = svc.Remove(ctx, "u@example.com", entry.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = svc.Remove(ctx, "u@example.com", entry.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddRejectsInvalidEntries(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()

	for _, in := range []AddInput{{Price: 10}, {ApartmentID: "a", Price: 0}, {ApartmentID: "a", Price: -1}} {
		_, err := svc.Add(ctx, "u@example.com", in)
		require.ErrorIs(t, err, ErrInvalidEntry)
	}
}

func TestDeleteManyIsScopedAndIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	a, _ := svc.Add(ctx, "u@example.com", AddInput{ApartmentID: "1", Price: 1})
	b, _ := svc.Add(ctx, "u@example.com", AddInput{ApartmentID: "2", Price: 1})
	c, _ := svc.Add(ctx, "u@example.com", AddInput{ApartmentID: "3", Price: 1})
	other, _ := svc.Add(ctx, "v@example.com", AddInput{ApartmentID: "4", Price: 1})

	n, err := repo.DeleteMany(ctx, "u@example.com", []string{a.ID, b.ID, other.ID, "does-not-exist"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.DeleteMany(ctx, "u@example.com", []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Zero(t, n)

	left, _ := svc.List(ctx, "u@example.com")
	require.Len(t, left, 1)
	assert.Equal(t, c.ID, left[0].ID)

	theirs, _ := svc.List(ctx, "v@example.com")
	assert.Len(t, theirs, 1)
}
