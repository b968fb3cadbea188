package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/app/repositories"
	"github.com/shashiranjanraj/vastra/pkg/cache"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Women > Dresses > Mini", []string{"Women", "Dresses", "Mini"}},
		{"Women->Dresses->Mini", []string{"Women", "Dresses", "Mini"}},
		{"Women/Dresses/Mini", []string{"Women", "Dresses", "Mini"}},
		{"Women|Dresses", []string{"Women", "Dresses"}},
		{" Women >  > Dresses ", []string{"Women", "Dresses"}},
		{"", nil},
		{" > / | ", nil},
	}
	for _, c := range cases {
		got := repositories.SplitPath(c.in)
		if len(c.want) == 0 {
			assert.Empty(t, got, "input %q", c.in)
			continue
		}
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestResolveCreatesChain(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	leafID, err := repo.Resolve(ctx, "Women > Dresses > Mini")
	require.NoError(t, err)

	var nodes []models.Category
	require.NoError(t, db.Order("lft").Find(&nodes).Error)
	require.Len(t, nodes, 3)

	women, dresses, mini := nodes[0], nodes[1], nodes[2]
	assert.Equal(t, "women", women.Path)
	assert.Equal(t, "women/dresses", dresses.Path)
	assert.Equal(t, "women/dresses/mini", mini.Path)
	assert.Equal(t, mini.ID, leafID)

	assert.Nil(t, women.ParentID)
	require.NotNil(t, dresses.ParentID)
	assert.Equal(t, women.ID, *dresses.ParentID)
	require.NotNil(t, mini.ParentID)
	assert.Equal(t, dresses.ID, *mini.ParentID)

	// Nested set: women [1,6], dresses [2,5], mini [3,4].
	assert.Equal(t, 1, women.Lft)
	assert.Equal(t, 6, women.Rgt)
	assert.True(t, women.IsAncestorOf(mini))
	assert.True(t, dresses.IsAncestorOf(mini))
	assert.False(t, mini.IsAncestorOf(dresses))
}

func TestResolveIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	first, err := repo.Resolve(ctx, "Women > Dresses")
	require.NoError(t, err)
	second, err := repo.Resolve(ctx, "Women > Dresses")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestResolveSharesPrefix(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	_, err := repo.Resolve(ctx, "Women > Dresses")
	require.NoError(t, err)
	_, err = repo.Resolve(ctx, "Women > Shoes")
	require.NoError(t, err)

	var women []models.Category
	require.NoError(t, db.Where("name = ?", "Women").Find(&women).Error)
	require.Len(t, women, 1)

	var children []models.Category
	require.NoError(t, db.Where("parent_id = ?", women[0].ID).Order("lft").Find(&children).Error)
	require.Len(t, children, 2)
	assert.True(t, women[0].IsAncestorOf(children[0]))
	assert.True(t, women[0].IsAncestorOf(children[1]))
}

func TestResolveReusesCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	first, err := repo.Resolve(ctx, "Women")
	require.NoError(t, err)
	second, err := repo.Resolve(ctx, "WOMEN")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveSlugCollisionGetsSuffix(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	// Distinct display names that slugify identically.
	firstID, err := repo.Resolve(ctx, "T-Shirts")
	require.NoError(t, err)
	secondID, err := repo.Resolve(ctx, "T Shirts")
	require.NoError(t, err)
	require.NotEqual(t, firstID, secondID)

	var first, second models.Category
	require.NoError(t, db.First(&first, firstID).Error)
	require.NoError(t, db.First(&second, secondID).Error)
	assert.Equal(t, "t-shirts", first.Path)
	assert.Equal(t, "t-shirts-2", second.Path)

	// Each is stable on re-resolution.
	again, err := repo.Resolve(ctx, "T Shirts")
	require.NoError(t, err)
	assert.Equal(t, secondID, again)
}

func TestResolveConcurrentSlugCollision(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Distinct display names that slugify identically, racing from separate
	// goroutines. Whichever insert loses must recover through the duplicate
	// key and take the next suffix, never surface the collision.
	names := []string{"T-Shirts", "T Shirts"}
	ids := make([]uint, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(n int, path string) {
			defer wg.Done()
			repo := repositories.NewCategoryRepository(db)
			ids[n], errs[n] = repo.Resolve(ctx, path)
		}(i, name)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.NotEqual(t, ids[0], ids[1], "each display name gets its own node")

	var nodes []models.Category
	require.NoError(t, db.Order("lft").Find(&nodes).Error)
	require.Len(t, nodes, 2)
	paths := []string{nodes[0].Path, nodes[1].Path}
	assert.ElementsMatch(t, []string{"t-shirts", "t-shirts-2"}, paths)

	// Both stay stable on re-resolution.
	for i, name := range names {
		repo := repositories.NewCategoryRepository(db)
		again, err := repo.Resolve(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, ids[i], again)
	}
}

func TestResolveConcurrentSamePath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			repo := repositories.NewCategoryRepository(db)
			ids[n], errs[n] = repo.Resolve(ctx, "Men > Shoes > Sneakers")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestSubtree(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	_, err := repo.Resolve(ctx, "Women > Dresses > Mini")
	require.NoError(t, err)
	_, err = repo.Resolve(ctx, "Women > Dresses > Maxi")
	require.NoError(t, err)
	_, err = repo.Resolve(ctx, "Women > Shoes")
	require.NoError(t, err)

	var dresses models.Category
	require.NoError(t, db.Where("path = ?", "women/dresses").First(&dresses).Error)

	nodes, err := repo.Subtree(ctx, dresses.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "Dresses", nodes[0].Name)
	paths := []string{nodes[1].Path, nodes[2].Path}
	assert.Contains(t, paths, "women/dresses/mini")
	assert.Contains(t, paths, "women/dresses/maxi")
}

func TestDeleteSubtreeAndRestore(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	leafID, err := repo.Resolve(ctx, "Women > Dresses > Mini")
	require.NoError(t, err)

	var dresses models.Category
	require.NoError(t, db.Where("path = ?", "women/dresses").First(&dresses).Error)
	require.NoError(t, repo.DeleteSubtree(ctx, dresses.ID))

	// Dresses and Mini are gone from default scope; Women survives.
	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A feed referencing the deleted path restores the original nodes
	// instead of duplicating them.
	restoredID, err := repo.Resolve(ctx, "Women > Dresses > Mini")
	require.NoError(t, err)
	assert.Equal(t, leafID, restoredID)

	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

// Needs a reachable Redis; the resolver's fast path is inert without one.
func TestResolveCacheEntrySurvivesDelete(t *testing.T) {
	if err := cache.Connect(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { cache.RDB = nil })

	db := newTestDB(t)
	repo := repositories.NewCategoryRepository(db)
	ctx := context.Background()

	// Unique names keep this run's keys out of any shared Redis.
	season := fmt.Sprintf("Season %d", time.Now().UnixNano())
	path := season + " > Outlet"

	leafID, err := repo.Resolve(ctx, path)
	require.NoError(t, err)
	// Warm the cache entry for the full path.
	again, err := repo.Resolve(ctx, path)
	require.NoError(t, err)
	require.Equal(t, leafID, again)

	var root models.Category
	require.NoError(t, db.Where("parent_id IS NULL AND name = ?", season).First(&root).Error)
	require.NoError(t, repo.DeleteSubtree(ctx, root.ID))

	// The cached id now points at a soft-deleted node. Resolve must not
	// hand it back as-is: the stale entry is dropped and the path is
	// restored in place.
	restoredID, err := repo.Resolve(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, leafID, restoredID)

	var leaf models.Category
	require.NoError(t, db.First(&leaf, restoredID).Error)
	assert.False(t, leaf.DeletedAt.Valid, "the resolved node is live again")
}
