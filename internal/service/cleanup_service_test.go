package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physics-portal-api/pkg/jobs"
	"github.com/noah-isme/physics-portal-api/pkg/storage"
)

func newTestStore(t *testing.T) *storage.ObjectStore {
	t.Helper()
	store, err := storage.NewObjectStore(storage.Options{
		Dir:           t.TempDir(),
		Bucket:        "pdfs",
		PublicBaseURL: "http://localhost:8080/files",
		MaxBytes:      1 << 20,
		Now:           func() time.Time { return baseTime },
	})
	require.NoError(t, err)
	return store
}

type failingEnqueuer struct{ calls int }

func (f *failingEnqueuer) TryEnqueue(job jobs.Job) error {
	f.calls++
	return jobs.ErrStopped
}

func TestCleanupDiscardInlineWithoutQueue(t *testing.T) {
	store := newTestStore(t)
	obj, err := store.Put("lessons", "a.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	metrics := NewMetricsService()
	svc := NewCleanupService(store, metrics, nil)
	svc.Discard(obj.URL, "", "https://elsewhere.example/x.pdf")

	_, err = store.Open(obj.Key)
	require.Error(t, err)
}

func TestCleanupDiscardFallsBackWhenQueueRejects(t *testing.T) {
	store := newTestStore(t)
	obj, err := store.Put("exams", "b.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	q := &failingEnqueuer{}
	svc := NewCleanupService(store, nil, nil)
	svc.Attach(q)
	svc.Discard(obj.URL)

	assert.Equal(t, 1, q.calls)
	_, err = store.Open(obj.Key)
	require.Error(t, err)
}

func TestCleanupThroughQueue(t *testing.T) {
	store := newTestStore(t)
	obj, err := store.Put("bac", "c.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	svc := NewCleanupService(store, NewMetricsService(), nil)
	done := make(chan error, 1)
	q := jobs.NewQueue("cleanup-test", svc.Handle, jobs.QueueConfig{
		Workers: 1,
		OnFinish: func(job jobs.Job, err error) {
			svc.Finish(job, err)
			done <- err
		},
	})
	q.Start(context.Background())
	defer q.Stop()
	svc.Attach(q)

	svc.Discard(obj.URL)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup job did not finish")
	}
	_, err = store.Open(obj.Key)
	require.Error(t, err)
}

func TestCleanupHandleRejectsBadPayload(t *testing.T) {
	svc := NewCleanupService(newTestStore(t), nil, nil)
	err := svc.Handle(context.Background(), jobs.Job{ID: "1", Payload: 42})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.Handle(ctx, jobs.Job{ID: "2", Payload: "lessons/x.pdf"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCleanupDiscardInlineWhenQueueFull(t *testing.T) {
	store := newTestStore(t)
	svc := NewCleanupService(store, NewMetricsService(), nil)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := jobs.NewQueue("cleanup-full", func(ctx context.Context, job jobs.Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, jobs.QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()
	svc.Attach(q)

	busy, err := store.Put("lessons", "busy.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	queued, err := store.Put("lessons", "queued.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	overflow, err := store.Put("exams", "overflow.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	svc.Discard(busy.URL)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not pick up the first job")
	}
	svc.Discard(queued.URL)

	done := make(chan struct{})
	go func() {
		svc.Discard(overflow.URL)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Discard blocked on a full queue")
	}

	_, err = store.Open(overflow.Key)
	require.Error(t, err)
}
