package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/jobs"
)

func TestStore_CopySemantics(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	job := &jobs.ExtractionJob{JobID: "a", Kind: jobs.KindInvoices, GCSURIs: []string{"gs://b/1.pdf"}}
	require.NoError(t, s.SaveJob(ctx, job))

	job.GCSURIs[0] = "changed"
	job.Status = jobs.JobStatusFailed

	got, err := s.GetJob(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "gs://b/1.pdf", got.GCSURIs[0])
	assert.Empty(t, got.Status)

	got.Kind = jobs.KindStatement
	again, _ := s.GetJob(ctx, "a")
	assert.Equal(t, jobs.KindInvoices, again.Kind)
}

func TestStore_Errors(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.Error(t, s.SaveJob(ctx, &jobs.ExtractionJob{}))

	_, err := s.GetJob(ctx, "missing")
	assert.True(t, errors.Is(err, jobs.ErrJobNotFound))

	err = s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, "x")
	assert.True(t, errors.Is(err, jobs.ErrJobNotFound))
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.ExtractionJob{
		{JobID: "s1", Kind: jobs.KindStatement, Status: jobs.JobStatusCompleted},
		{JobID: "i1", Kind: jobs.KindInvoices, Status: jobs.JobStatusPending},
		{JobID: "s2", Kind: jobs.KindStatement, Status: jobs.JobStatusPending},
		{JobID: "t1", Kind: jobs.KindTrialBalance, Status: jobs.JobStatusFailed},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, j))
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "t1", all[0].JobID, "newest first")
	assert.Equal(t, "s1", all[3].JobID)

	statements, _ := s.ListJobs(ctx, jobs.JobFilter{Kind: jobs.KindStatement})
	require.Len(t, statements, 2)
	assert.Equal(t, "s2", statements[0].JobID)

	pending, _ := s.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	assert.Len(t, pending, 2)

	page, _ := s.ListJobs(ctx, jobs.JobFilter{Offset: 1, Limit: 2})
	require.Len(t, page, 2)
	assert.Equal(t, "s2", page[0].JobID)
	assert.Equal(t, "i1", page[1].JobID)

	empty, _ := s.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, s.UpdateJobStatus(ctx, "i1", jobs.JobStatusFailed, "boom"))
	got, _ := s.GetJob(ctx, "i1")
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestQueue_PublishDefaults(t *testing.T) {
	store := NewStore()
	q := NewQueue(1, 1, store).WithRetries(4, 0)
	ctx := context.Background()

	job := &jobs.ExtractionJob{Kind: jobs.KindStatement}
	require.NoError(t, q.Publish(ctx, job))

	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, jobs.JobStatusPending, job.Status)
	assert.Equal(t, 4, job.MaxRetries)
	assert.False(t, job.CreatedAt.IsZero())

	stored, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, stored.Status)

	// The buffer is full and nobody consumes.
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Publish(short, &jobs.ExtractionJob{Kind: jobs.KindStatement}), context.DeadlineExceeded)
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 2, store).WithRetries(3, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		if calls.Add(1) < 3 {
			return errors.New("rate limited")
		}
		return nil
	}))

	job := &jobs.ExtractionJob{Kind: jobs.KindTrialBalance}
	require.NoError(t, q.Publish(ctx, job))

	assert.Eventually(t, func() bool {
		got, err := store.GetJob(ctx, job.JobID)
		return err == nil && got.Status == jobs.JobStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	got, _ := store.GetJob(ctx, job.JobID)
	assert.Equal(t, 2, got.RetryCount)
	assert.Empty(t, got.Error)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, int32(3), calls.Load())

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(1, 1, nil)
	require.NoError(t, q.Close())
	require.NoError(t, q.Stop(context.Background()))

	assert.ErrorIs(t, q.Publish(context.Background(), &jobs.ExtractionJob{}), ErrQueueClosed)
	assert.ErrorIs(t, q.Start(context.Background(), nil), ErrQueueClosed)
}

func TestQueue_StopUnblocksPublisherOnFullBuffer(t *testing.T) {
	q := NewQueue(1, 1, NewStore())
	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, &jobs.ExtractionJob{Kind: jobs.KindStatement}))

	published := make(chan error, 1)
	go func() {
		published <- q.Publish(ctx, &jobs.ExtractionJob{Kind: jobs.KindInvoices})
	}()

	// Give the second publish time to block on the full buffer.
	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, q.Stop(stopCtx))

	select {
	case err := <-published:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("publish still blocked after Stop")
	}
}
