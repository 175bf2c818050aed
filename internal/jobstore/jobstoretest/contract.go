// Package jobstoretest checks that a jobstore.Store behaves like the in-memory reference.
package jobstoretest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/types"
)

// NewJob returns a pending job with a fresh id.
func NewJob(created time.Time) *types.Job {
	return &types.Job{
		ID:      uuid.NewString(),
		Status:  types.JobStatusPending,
		Message: "Job queued",
		Request: types.JobRequest{
			PostingText: "We are hiring a data engineer to build pipelines.",
			ResumeID:    "base",
			Overrides:   types.Overrides{CompanyName: "Acme"},
		},
		Logs:      []types.LogEntry{{Timestamp: created, Level: "INFO", Message: "Job queued"}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// Run exercises the Store contract against store.
func Run(t *testing.T, store jobstore.Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("create and get", func(t *testing.T) {
		job := NewJob(base)
		require.NoError(t, store.Create(ctx, job))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, types.JobStatusPending, got.Status)
		assert.Equal(t, "Acme", got.Request.CompanyName)
		assert.True(t, base.Equal(got.CreatedAt))
		require.Len(t, got.Logs, 1)
	})

	t.Run("create twice fails", func(t *testing.T) {
		job := NewJob(base)
		require.NoError(t, store.Create(ctx, job))
		assert.ErrorIs(t, store.Create(ctx, job), jobstore.ErrExists)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, jobstore.ErrNotFound)
	})

	t.Run("put replaces whole entry", func(t *testing.T) {
		job := NewJob(base)
		require.NoError(t, store.Create(ctx, job))

		job.Status = types.JobStatusCompleted
		job.Percent = 100
		job.Result = &types.JobResult{TexPath: "/out/Acme_SRE.tex", Company: "Acme", Position: "SRE", UpdatedSections: []string{"Professional Summary"}}
		job.UpdatedAt = base.Add(time.Minute)
		require.NoError(t, store.Put(ctx, job))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, types.JobStatusCompleted, got.Status)
		assert.Equal(t, 100, got.Percent)
		require.NotNil(t, got.Result)
		assert.Equal(t, []string{"Professional Summary"}, got.Result.UpdatedSections)
	})

	t.Run("put unknown", func(t *testing.T) {
		assert.ErrorIs(t, store.Put(ctx, NewJob(base)), jobstore.ErrNotFound)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		job := NewJob(base)
		require.NoError(t, store.Create(ctx, job))

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		got.Status = types.JobStatusFailed
		got.Logs[0].Message = "mutated"

		again, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, types.JobStatusPending, again.Status)
		assert.Equal(t, "Job queued", again.Logs[0].Message)
	})

	t.Run("list includes created jobs", func(t *testing.T) {
		first := NewJob(base.Add(time.Hour))
		second := NewJob(base.Add(2 * time.Hour))
		require.NoError(t, store.Create(ctx, second))
		require.NoError(t, store.Create(ctx, first))

		jobs, err := store.List(ctx)
		require.NoError(t, err)
		idx := map[string]int{}
		for i, j := range jobs {
			idx[j.ID] = i
		}
		require.Contains(t, idx, first.ID)
		require.Contains(t, idx, second.ID)
		assert.Less(t, idx[first.ID], idx[second.ID])
	})
}
