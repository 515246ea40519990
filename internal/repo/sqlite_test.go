package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chengAMS/hyperdoc/internal/manifold"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteInsertAssignsIncreasingIds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		id, err := store.Insert(ctx, []float64{1, 0, 0}, "some chunk text", "A")
		require.NoError(t, err)
		require.Greater(t, id, last)
		last = id
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), count)
}

func TestSQLiteTagOperations(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, []float64{1, 0, 0}, "tagged a", "A")
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := store.Insert(ctx, []float64{1, 0, 0}, "tagged b", "B")
		require.NoError(t, err)
	}

	byTag, err := store.ListByTag(ctx, "A")
	require.NoError(t, err)
	require.Len(t, byTag, 3)
	for _, chunk := range byTag {
		require.Equal(t, "A", chunk.Tag)
	}

	tags, err := store.DistinctTags(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, tags)

	deleted, err := store.DeleteByTag(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	byTag, err = store.ListByTag(ctx, "A")
	require.NoError(t, err)
	require.Empty(t, byTag)
}

func TestSQLiteConcurrentInserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const writers = 40
	ids := make([]int64, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = store.Insert(ctx, []float64{1, 0, 0}, fmt.Sprintf("concurrent chunk %d", i), "C")
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]struct{}, writers)
	for i, id := range ids {
		require.NoError(t, errs[i], "writer %d", i)
		require.Greater(t, id, int64(0))
		_, dup := seen[id]
		require.False(t, dup, "id %d assigned twice", id)
		seen[id] = struct{}{}
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(writers), count)
}

func TestSQLiteDeleteMissingTag(t *testing.T) {
	store := openTestStore(t)
	deleted, err := store.DeleteByTag(context.Background(), "nope")
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestSQLiteListAllOrdered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := store.Insert(ctx, []float64{1, 0, 0}, "ordered chunk", "T")
		require.NoError(t, err)
	}
	chunks, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	for i := 1; i < len(chunks); i++ {
		require.Greater(t, chunks[i].ID, chunks[i-1].ID)
	}
}

func TestSQLitePointRoundTripPreservesDistance(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	l, err := manifold.NewLorentz(4)
	require.NoError(t, err)
	point, err := l.Project([]float64{0.3, -0.7, 0.2, 0.5})
	require.NoError(t, err)
	probe, err := l.Project([]float64{-0.1, 0.4, 0.9, -0.2})
	require.NoError(t, err)
	want := l.Distance(point, probe)

	_, err = store.Insert(ctx, point, "round trip chunk", "rt")
	require.NoError(t, err)
	chunks, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0].Point, 5)
	require.InDelta(t, want, l.Distance(chunks[0].Point, probe), manifold.Tolerance)
}
