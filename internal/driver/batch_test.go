package driver

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_InsertMarksPresentOnCommit(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	insertNotes(t, d, "r1", "r2")

	assert.True(t, d.cache.IsPresent("notes", "r1"))
	assert.True(t, d.cache.IsPresent("notes", "r2"))
	res, err := d.Find(ctx, "notes", "r1")
	require.NoError(t, err)
	assert.Equal(t, AlreadyKnown{ID: "r1"}, res)
	assert.Equal(t, 2, countNotes(t, d))
}

func TestBatch_DeleteMarksAbsentOnCommit(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()
	insertNotes(t, d, "r1", "r2")

	err := d.Batch(ctx, []Operation{
		Delete("notes", "DELETE FROM notes WHERE id = ?", []any{"r1"}),
	})
	require.NoError(t, err)

	assert.False(t, d.cache.IsPresent("notes", "r1"))
	assert.True(t, d.cache.IsPresent("notes", "r2"))

	res, err := d.Find(ctx, "notes", "r1")
	require.NoError(t, err)
	assert.Equal(t, NotFound{ID: "r1"}, res)
}

func TestBatch_UpdateHasNoCacheEffect(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()
	require.NoError(t, d.UnsafeExecute(ctx, `INSERT INTO notes (id, body) VALUES ('r1', 'old')`))

	err := d.Batch(ctx, []Operation{
		Update("UPDATE notes SET body = ? WHERE id = ?", []any{"new", "r1"}),
	})
	require.NoError(t, err)
	assert.False(t, d.cache.IsPresent("notes", "r1"))

	res, err := d.Find(ctx, "notes", "r1")
	require.NoError(t, err)
	m := res.(Materialized)
	body, _ := m.Row.Get("body")
	assert.Equal(t, "new", body)
}

func TestBatch_MixedOperationsInOrder(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	err := d.Batch(ctx, []Operation{
		Insert("notes", insertNote, []any{"r1", "a", 1}, []any{"r2", "b", 2}),
		Insert("tasks", "INSERT INTO tasks (id, title) VALUES (?, ?)", []any{"t1", "todo"}),
		Update("UPDATE notes SET n = n + 10 WHERE id = ?", []any{"r2"}),
		Delete("notes", "DELETE FROM notes WHERE id = ?", []any{"r1"}),
	})
	require.NoError(t, err)

	assert.False(t, d.cache.IsPresent("notes", "r1"))
	assert.True(t, d.cache.IsPresent("notes", "r2"))
	assert.True(t, d.cache.IsPresent("tasks", "t1"))

	n, err := d.Count(ctx, "SELECT n FROM notes WHERE id = 'r2'")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, 1, countNotes(t, d))
}

func TestBatch_FailurePartwayRollsBackEverything(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	err := d.Batch(ctx, []Operation{
		Insert("notes", insertNote, []any{"r1", "a", 1}),
		Insert("tasks", "INSERT INTO tasks (id, title) VALUES (?, ?)", []any{"t1", "todo"}),
		Insert("notes", insertNote, []any{"r2", "b", 2}, []any{"r1", "dup", 3}),
	})
	require.Error(t, err)
	assert.True(t, IsExecutionFailure(err))

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Operation)
	assert.Equal(t, 1, de.ArgSet)
	assert.Equal(t, "notes", de.Table)
	assert.Contains(t, de.Error(), "UNIQUE constraint failed")

	assert.Equal(t, 0, countNotes(t, d))
	n, err := d.Count(ctx, "SELECT COUNT(*) FROM tasks")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.False(t, d.cache.IsPresent("notes", "r1"))
	assert.False(t, d.cache.IsPresent("notes", "r2"))
	assert.False(t, d.cache.IsPresent("tasks", "t1"))
}

func TestBatch_FailedDeleteKeepsCacheEntry(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()
	insertNotes(t, d, "r1")

	err := d.Batch(ctx, []Operation{
		Delete("notes", "DELETE FROM notes WHERE id = ?", []any{"r1"}),
		Update("UPDATE missing_table SET x = ?", []any{1}),
	})
	require.Error(t, err)
	assert.True(t, IsExecutionFailure(err))

	assert.True(t, d.cache.IsPresent("notes", "r1"))
	assert.Equal(t, 1, countNotes(t, d))
}

func TestBatch_MalformedArgument(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	err := d.Batch(ctx, []Operation{
		Insert("notes", insertNote, []any{"r1", "a", 1}),
		Insert("notes", insertNote, []any{"r2", map[string]any{"nested": true}, 2}),
	})
	require.Error(t, err)
	assert.True(t, IsMalformedArgument(err))
	assert.False(t, IsExecutionFailure(err))

	var de *Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Operation)
	assert.Equal(t, 0, de.ArgSet)

	assert.Equal(t, 0, countNotes(t, d))
	assert.False(t, d.cache.IsPresent("notes", "r1"))
}

func TestBatch_RejectsNonStringRecordID(t *testing.T) {
	d := newTestDriver(t)

	err := d.Batch(context.Background(), []Operation{
		Insert("notes", insertNote, []any{42, "a", 1}),
	})
	assert.True(t, IsMalformedArgument(err))
	assert.Contains(t, err.Error(), "record id must be a string")

	err = d.Batch(context.Background(), []Operation{
		Delete("notes", "DELETE FROM notes", []any{}),
	})
	assert.True(t, IsMalformedArgument(err))
}

func TestBatch_InvalidOperation(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	cases := map[string]Operation{
		"missing table": {Kind: OpInsert, SQL: insertNote, ArgSets: [][]any{{"r1", "a", 1}}},
		"missing sql":   {Kind: OpUpdate, ArgSets: [][]any{{}}},
		"unknown kind":  {Kind: OpKind(9), SQL: "SELECT 1"},
	}
	for name, op := range cases {
		t.Run(name, func(t *testing.T) {
			err := d.Batch(ctx, []Operation{op})
			require.Error(t, err)
			assert.True(t, IsMalformedArgument(err))
		})
	}
}

func TestBatch_AcceptsScalarArgumentTypes(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	err := d.Batch(ctx, []Operation{
		Insert("notes", insertNote,
			[]any{"r1", nil, true},
			[]any{"r2", "text", int64(5)},
			[]any{"r3", "float", 2.5},
			[]any{"r4", "uint", uint8(3)},
		),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, countNotes(t, d))
}

func TestBatch_EmptyBatch(t *testing.T) {
	d := newTestDriver(t)

	require.NoError(t, d.Batch(context.Background(), nil))
	require.NoError(t, d.Batch(context.Background(), []Operation{Insert("notes", insertNote)}))
	assert.Equal(t, 0, countNotes(t, d))
}

func TestBatch_ObserverSeesOutcome(t *testing.T) {
	obs := &recordingObserver{}
	d := newTestDriver(t, WithObserver(obs))
	ctx := context.Background()

	insertNotes(t, d, "r1")
	_ = d.Batch(ctx, []Operation{Insert("notes", insertNote, []any{"r1", "dup", 1})})

	require.Len(t, obs.batches, 2)
	assert.NoError(t, obs.batches[0])
	assert.True(t, IsExecutionFailure(obs.batches[1]))
}

func TestBatch_ConcurrentCallers(t *testing.T) {
	d := newTestDriver(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", w)
			if err := d.Batch(ctx, []Operation{Insert("notes", insertNote, []any{id, "body", w})}); err != nil {
				errs <- err
				return
			}
			if _, err := d.Find(ctx, "notes", id); err != nil {
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent batch failed: %v", err)
	}

	assert.Equal(t, workers, countNotes(t, d))
	for w := 0; w < workers; w++ {
		assert.True(t, d.cache.IsPresent("notes", fmt.Sprintf("r%d", w)))
	}
}

func TestOpKind(t *testing.T) {
	for _, name := range []string{"insert", "update", "delete"} {
		k, err := ParseOpKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}

	k, err := ParseOpKind("DELETE")
	require.NoError(t, err)
	assert.Equal(t, OpDelete, k)

	_, err = ParseOpKind("upsert")
	assert.Error(t, err)
	assert.Equal(t, "OpKind(7)", OpKind(7).String())
}
