package categoryservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	categorydb "github.com/tnt-tag-history/tnt-history/app/modules/category/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func TestCacheReadsThroughOnce(t *testing.T) {
	repo := NewFakeCategoryRepo()
	stored := []*categorydb.Category{{Name: "tournament"}, {Name: "update"}}
	repo.ListFunc = func(ctx context.Context, db bun.IDB) ([]*categorydb.Category, error) {
		return stored, nil
	}
	cache := NewCache(repo, nil)
	ctx := context.Background()

	list, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, ok, err := cache.Lookup(ctx, "update")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = cache.Lookup(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"List"}, repo.Trace())
}

func TestCacheStaysStaleUntilRefresh(t *testing.T) {
	repo := NewFakeCategoryRepo()
	stored := []*categorydb.Category{{Name: "tournament"}}
	repo.ListFunc = func(ctx context.Context, db bun.IDB) ([]*categorydb.Category, error) {
		return stored, nil
	}
	cache := NewCache(repo, nil)
	ctx := context.Background()

	_, ok, _ := cache.Lookup(ctx, "record")
	assert.False(t, ok)

	stored = append(stored, &categorydb.Category{Name: "record"})
	_, ok, _ = cache.Lookup(ctx, "record")
	assert.False(t, ok, "loaded snapshot is not invalidated")

	require.NoError(t, cache.Refresh(ctx))
	_, ok, _ = cache.Lookup(ctx, "record")
	assert.True(t, ok)
}

func TestCacheFailedRefreshKeepsSnapshot(t *testing.T) {
	repo := NewFakeCategoryRepo()
	fail := false
	repo.ListFunc = func(ctx context.Context, db bun.IDB) ([]*categorydb.Category, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return []*categorydb.Category{{Name: "tournament"}}, nil
	}
	cache := NewCache(repo, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)

	fail = true
	assert.Error(t, cache.Refresh(ctx))
	_, ok, err := cache.Lookup(ctx, "tournament")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExistsUsesContextCache(t *testing.T) {
	repo := NewFakeCategoryRepo()
	repo.ListFunc = func(ctx context.Context, db bun.IDB) ([]*categorydb.Category, error) {
		return []*categorydb.Category{{Name: "tournament"}}, nil
	}
	svc := NewCategoryService(repo, nil, nil, nil)
	ctx := WithCache(context.Background(), svc.NewCache())

	for range 3 {
		ok, err := svc.Exists(ctx, "tournament")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, []string{"List"}, repo.Trace())

	ok, err := svc.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"List", "List"}, repo.Trace())
}
