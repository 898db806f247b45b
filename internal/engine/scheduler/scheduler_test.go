package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/nixplan/internal/adapters/telemetry"
	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/nixplan/internal/core/ports/mocks"
	"go.trai.ch/nixplan/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func gitPackage(t *testing.T, name, version, url, rev string) domain.LockedPackage {
	t.Helper()
	src, err := domain.ParseSource("git+" + url + "#" + rev)
	require.NoError(t, err)
	return domain.LockedPackage{
		ID:     domain.NewPackageID(name, version),
		Source: src,
	}
}

func TestScheduler_Run_MixedSources(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry, err := domain.ParseSource("registry+https://index.example.org")
	require.NoError(t, err)

	pinned := gitPackage(t, "leftpad", "0.1.0", "https://example.org/leftpad.git", "abc123")
	withChecksum := gitPackage(t, "ring", "0.17.5", "https://example.org/ring.git", "def456")
	withChecksum.Checksum = "sha256-already"

	packages := []domain.LockedPackage{
		pinned,
		withChecksum,
		{ID: domain.NewPackageID("libc", "0.2.150"), Source: registry, Checksum: "sha256-libc"},
		{ID: domain.NewPackageID("server", "0.1.0")},
	}

	store := mocks.NewMockChecksumStore(ctrl)
	store.EXPECT().Get("https://example.org/leftpad.git#abc123").Return("", nil)
	store.EXPECT().Put("https://example.org/leftpad.git#abc123", "sha256-fetched").Return(nil)

	prefetcher := mocks.NewMockPrefetcher(ctrl)
	prefetcher.EXPECT().
		Prefetch(gomock.Any(), "https://example.org/leftpad.git", "abc123").
		Return("sha256-fetched", nil)

	s := scheduler.New(prefetcher, store, telemetry.NewNoOpTracer())
	checksums, err := s.Run(context.Background(), packages, 2)
	require.NoError(t, err)

	assert.Equal(t, map[domain.PackageID]string{pinned.ID: "sha256-fetched"}, checksums)
	assert.Equal(t, scheduler.StatusCompleted, s.GetStatusMap()[pinned.ID])
}

func TestScheduler_Run_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pinned := gitPackage(t, "leftpad", "0.1.0", "https://example.org/leftpad.git", "abc123")

	store := mocks.NewMockChecksumStore(ctrl)
	store.EXPECT().Get("https://example.org/leftpad.git#abc123").Return("sha256-stored", nil)

	// The prefetcher must not be consulted on a hit.
	prefetcher := mocks.NewMockPrefetcher(ctrl)

	s := scheduler.New(prefetcher, store, telemetry.NewNoOpTracer())
	checksums, err := s.Run(context.Background(), []domain.LockedPackage{pinned}, 1)
	require.NoError(t, err)

	assert.Equal(t, "sha256-stored", checksums[pinned.ID])
	assert.Equal(t, scheduler.StatusCached, s.GetStatusMap()[pinned.ID])
}

func TestScheduler_Run_FailureDoesNotStopOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	broken := gitPackage(t, "broken", "0.1.0", "https://example.org/broken.git", "aaa")
	good := gitPackage(t, "good", "0.2.0", "https://example.org/good.git", "bbb")

	store := mocks.NewMockChecksumStore(ctrl)
	store.EXPECT().Get(gomock.Any()).Return("", nil).Times(2)
	store.EXPECT().Put("https://example.org/good.git#bbb", "sha256-good").Return(nil)

	prefetcher := mocks.NewMockPrefetcher(ctrl)
	prefetcher.EXPECT().
		Prefetch(gomock.Any(), "https://example.org/broken.git", "aaa").
		Return("", errors.New("remote hung up"))
	prefetcher.EXPECT().
		Prefetch(gomock.Any(), "https://example.org/good.git", "bbb").
		Return("sha256-good", nil)

	s := scheduler.New(prefetcher, store, telemetry.NewNoOpTracer())
	checksums, err := s.Run(context.Background(), []domain.LockedPackage{broken, good}, 1)

	require.Error(t, err)
	assert.ErrorContains(t, err, "prefetch failed")
	assert.Equal(t, "sha256-good", checksums[good.ID])

	statuses := s.GetStatusMap()
	assert.Equal(t, scheduler.StatusFailed, statuses[broken.ID])
	assert.Equal(t, scheduler.StatusCompleted, statuses[good.ID])
}

func TestScheduler_Run_ParallelismBound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		packages := []domain.LockedPackage{
			gitPackage(t, "a", "1.0.0", "https://example.org/a.git", "a1"),
			gitPackage(t, "b", "1.0.0", "https://example.org/b.git", "b1"),
			gitPackage(t, "c", "1.0.0", "https://example.org/c.git", "c1"),
		}

		store := mocks.NewMockChecksumStore(ctrl)
		store.EXPECT().Get(gomock.Any()).Return("", nil).AnyTimes()
		store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		proceed := make(chan struct{})
		prefetcher := mocks.NewMockPrefetcher(ctrl)
		prefetcher.EXPECT().
			Prefetch(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string) (string, error) {
				<-proceed
				return "sha256-x", nil
			}).Times(3)

		s := scheduler.New(prefetcher, store, telemetry.NewNoOpTracer())

		errCh := make(chan error)
		go func() {
			_, err := s.Run(context.Background(), packages, 2)
			errCh <- err
		}()

		synctest.Wait()

		running := 0
		pending := 0
		for _, status := range s.GetStatusMap() {
			switch status {
			case scheduler.StatusRunning:
				running++
			case scheduler.StatusPending:
				pending++
			}
		}
		assert.Equal(t, 2, running)
		assert.Equal(t, 1, pending)

		close(proceed)
		require.NoError(t, <-errCh)

		for id, status := range s.GetStatusMap() {
			assert.Equal(t, scheduler.StatusCompleted, status, "package %s", id)
		}
	})
}

func TestScheduler_Run_CanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pinned := gitPackage(t, "leftpad", "0.1.0", "https://example.org/leftpad.git", "abc123")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scheduler.New(mocks.NewMockPrefetcher(ctrl), mocks.NewMockChecksumStore(ctrl), telemetry.NewNoOpTracer())
	_, err := s.Run(ctx, []domain.LockedPackage{pinned}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_Run_EmitsPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pinned := gitPackage(t, "leftpad", "0.1.0", "https://example.org/leftpad.git", "abc123")

	store := mocks.NewMockChecksumStore(ctrl)
	store.EXPECT().Get(gomock.Any()).Return("sha256-stored", nil)

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"leftpad 0.1.0"})

	s := scheduler.New(mocks.NewMockPrefetcher(ctrl), store, tracer)
	_, err := s.Run(context.Background(), []domain.LockedPackage{pinned}, 1)
	require.NoError(t, err)
}
