// Package scheduler implements the parallel checksum prefetcher for git
// pinned packages.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.trai.ch/nixplan/internal/core/domain"
	"go.trai.ch/nixplan/internal/core/ports"
	"go.trai.ch/zerr"
)

// FetchStatus represents the status of one prefetch job.
type FetchStatus string

const (
	// StatusPending indicates the job is waiting to be executed.
	StatusPending FetchStatus = "Pending"
	// StatusRunning indicates the job is currently executing.
	StatusRunning FetchStatus = "Running"
	// StatusCompleted indicates the checksum was fetched.
	StatusCompleted FetchStatus = "Completed"
	// StatusFailed indicates the prefetch failed.
	StatusFailed FetchStatus = "Failed"
	// StatusCached indicates the checksum came from the local store.
	StatusCached FetchStatus = "Cached"
)

// Scheduler resolves the checksums of git pinned packages, bounded by a
// parallelism limit and backed by the persistent checksum store.
type Scheduler struct {
	prefetcher ports.Prefetcher
	store      ports.ChecksumStore
	tracer     ports.Tracer

	mu     sync.RWMutex
	status map[domain.PackageID]FetchStatus
}

// New creates a new Scheduler.
func New(prefetcher ports.Prefetcher, store ports.ChecksumStore, tracer ports.Tracer) *Scheduler {
	return &Scheduler{
		prefetcher: prefetcher,
		store:      store,
		tracer:     tracer,
		status:     make(map[domain.PackageID]FetchStatus),
	}
}

func (s *Scheduler) updateStatus(id domain.PackageID, status FetchStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = status
}

func (s *Scheduler) getStatus(id domain.PackageID) FetchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[id]
}

// cacheKey is the checksum store key of a pinned revision.
func cacheKey(src domain.Source) string {
	return src.URL + "#" + src.Rev
}

// Run prefetches the checksums of every git pinned package that does not
// carry one yet. It returns the fetched checksums by package ID. All jobs
// are attempted even when some fail; the combined error is returned.
func (s *Scheduler) Run(ctx context.Context, packages []domain.LockedPackage, parallelism int) (map[domain.PackageID]string, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	state := s.newRunState(ctx, packages, parallelism)
	if len(state.ready) == 0 {
		return state.checksums, nil
	}

	ids := make([]string, len(state.ready))
	for i, job := range state.ready {
		ids[i] = job.id.String()
	}
	s.tracer.EmitPlan(ctx, ids)

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return state.checksums, errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.checksums, state.errs
}

type job struct {
	id  domain.PackageID
	src domain.Source
}

type result struct {
	id       domain.PackageID
	checksum string
	cached   bool
	err      error
}

type schedulerRunState struct {
	ready       []job
	active      int
	resultsCh   chan result
	checksums   map[domain.PackageID]string
	errs        error
	ctx         context.Context
	parallelism int
	s           *Scheduler
}

func (s *Scheduler) newRunState(ctx context.Context, packages []domain.LockedPackage, parallelism int) *schedulerRunState {
	var ready []job
	for _, pkg := range packages {
		if pkg.Source.Kind != domain.SourceGit || pkg.Checksum != "" {
			continue
		}
		ready = append(ready, job{id: pkg.ID, src: pkg.Source})
		s.updateStatus(pkg.ID, StatusPending)
	}

	return &schedulerRunState{
		ready:       ready,
		resultsCh:   make(chan result, parallelism),
		checksums:   make(map[domain.PackageID]string),
		ctx:         ctx,
		parallelism: parallelism,
		s:           s,
	}
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		j := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(j.id, StatusRunning)

		go func(j job) {
			state.resultsCh <- state.fetchOne(state.ctx, j)
		}(j)
	}
}

func (state *schedulerRunState) fetchOne(ctx context.Context, j job) result {
	key := cacheKey(j.src)

	// A revision's content never changes, so a stored checksum is final.
	if checksum, err := state.s.store.Get(key); err == nil && checksum != "" {
		return result{id: j.id, checksum: checksum, cached: true}
	}

	ctx, span := state.s.tracer.Start(ctx, fmt.Sprintf("prefetch %s", j.id.String()))
	defer span.End()
	span.SetAttribute("url", j.src.URL)
	span.SetAttribute("rev", j.src.Rev)

	checksum, err := state.s.prefetcher.Prefetch(ctx, j.src.URL, j.src.Rev)
	if err != nil {
		span.RecordError(err)
		return result{id: j.id, err: err}
	}

	if err := state.s.store.Put(key, checksum); err != nil {
		span.RecordError(err)
		return result{id: j.id, err: err}
	}
	return result{id: j.id, checksum: checksum}
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--
	if res.err != nil {
		wrappedErr := zerr.With(zerr.Wrap(res.err, "prefetch failed"), "package", res.id.String())
		state.errs = errors.Join(state.errs, wrappedErr)
		state.s.updateStatus(res.id, StatusFailed)
		return
	}

	state.checksums[res.id] = res.checksum
	if res.cached {
		state.s.updateStatus(res.id, StatusCached)
	} else {
		state.s.updateStatus(res.id, StatusCompleted)
	}
}
