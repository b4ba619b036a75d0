package jobstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCollectionPair(t *testing.T) map[string]Collection {
	sq, err := NewSQLiteCollection(filepath.Join(t.TempDir(), "jobs.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Collection{
		"memory": NewMemoryCollection(),
		"sqlite": sq,
	}
}

func TestCollections_InsertFindUpdate(t *testing.T) {
	for name, coll := range testCollectionPair(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := &Job{ID: "job-1", Status: StatusPending, ProjectGoal: "build a thing", CreatedAt: 100, UpdatedAt: 100}

			require.NoError(t, coll.InsertOne(ctx, job))

			found, err := coll.FindOne(ctx, "job-1")
			require.NoError(t, err)
			require.Equal(t, StatusPending, found.Status)

			require.NoError(t, coll.UpdateOne(ctx, "job-1", Update{
				"status":        StatusRunning,
				"progress":      42,
				"current_stage": "proposal",
			}))

			updated, err := coll.FindOne(ctx, "job-1")
			require.NoError(t, err)
			require.Equal(t, StatusRunning, updated.Status)
			require.Equal(t, 42, updated.Progress)
			require.Equal(t, "proposal", updated.CurrentStage)
		})
	}
}

func TestCollections_FindOneMissing(t *testing.T) {
	for name, coll := range testCollectionPair(t) {
		t.Run(name, func(t *testing.T) {
			_, err := coll.FindOne(context.Background(), "missing")
			require.Error(t, err)
			var nf *ErrNotFound
			require.ErrorAs(t, err, &nf)
		})
	}
}

func TestCollections_FindSortSkipLimit(t *testing.T) {
	for name, coll := range testCollectionPair(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"a", "b", "c", "d"} {
				require.NoError(t, coll.InsertOne(ctx, &Job{
					ID: id, Status: StatusPending, CreatedAt: int64(i), UpdatedAt: int64(i),
				}))
			}

			results, err := coll.Find(ctx).Sort("created_at", true).Skip(1).Limit(2).All(ctx)
			require.NoError(t, err)
			require.Len(t, results, 2)
			require.Equal(t, "c", results[0].ID)
			require.Equal(t, "b", results[1].ID)
		})
	}
}

func TestCollections_InsertDuplicateErrors(t *testing.T) {
	for name, coll := range testCollectionPair(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job := &Job{ID: "dup", Status: StatusPending}
			require.NoError(t, coll.InsertOne(ctx, job))
			require.Error(t, coll.InsertOne(ctx, job))
		})
	}
}
