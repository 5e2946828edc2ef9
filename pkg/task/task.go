// Package task runs background jobs whose completion callers can await,
// either in-process through a Future or by polling the runner by id.
package task

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"strategyWorkbench/domain"
	"strategyWorkbench/pkg/logger"

	"github.com/google/uuid"
)

// ErrRunnerClosed is returned by futures whose runner shut down first.
var ErrRunnerClosed = errors.New("task runner closed")

const defaultMaxRetained = 500

type Func func(ctx context.Context) (any, error)

type Future struct {
	id        string
	name      string
	createdAt time.Time
	done      chan struct{}

	mu         sync.RWMutex
	status     domain.TaskStatus
	result     any
	err        error
	finishedAt time.Time
}

func (f *Future) ID() string {
	return f.id
}

// Done is closed once the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the task finishes or ctx ends.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		f.mu.RLock()
		defer f.mu.RUnlock()
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) Status() domain.TaskStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

func (f *Future) View() domain.TaskView {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v := domain.TaskView{
		ID:        f.id,
		Name:      f.name,
		Status:    f.status,
		Result:    f.result,
		CreatedAt: f.createdAt,
	}
	if f.err != nil {
		v.Error = f.err.Error()
	}
	if !f.finishedAt.IsZero() {
		t := f.finishedAt
		v.FinishedAt = &t
	}
	return v
}

func (f *Future) setStatus(s domain.TaskStatus) {
	f.mu.Lock()
	f.status = s
	f.mu.Unlock()
}

func (f *Future) finish(result any, err error) {
	f.mu.Lock()
	f.result = result
	f.err = err
	f.finishedAt = time.Now()
	if err != nil {
		f.status = domain.TaskFailed
	} else {
		f.status = domain.TaskSucceeded
	}
	f.mu.Unlock()
	close(f.done)
}

type Option func(*Runner)

// WithLatency delays every task before it runs, standing in for a slow backend.
func WithLatency(d time.Duration) Option {
	return func(r *Runner) {
		r.latency = d
	}
}

func WithMaxRetained(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxRetained = n
		}
	}
}

type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	latency     time.Duration
	maxRetained int

	mu    sync.Mutex
	tasks map[string]*Future
}

func NewRunner(opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		ctx:         ctx,
		cancel:      cancel,
		maxRetained: defaultMaxRetained,
		tasks:       make(map[string]*Future),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit starts fn in the background and returns its future immediately.
func (r *Runner) Submit(name string, fn Func) *Future {
	f := &Future{
		id:        uuid.NewString(),
		name:      name,
		createdAt: time.Now(),
		done:      make(chan struct{}),
		status:    domain.TaskPending,
	}

	r.mu.Lock()
	r.tasks[f.id] = f
	r.pruneLocked()
	r.mu.Unlock()

	if r.ctx.Err() != nil {
		f.finish(nil, ErrRunnerClosed)
		return f
	}

	r.wg.Add(1)
	go r.run(f, fn)

	return f
}

func (r *Runner) run(f *Future, fn Func) {
	defer r.wg.Done()

	if r.latency > 0 {
		timer := time.NewTimer(r.latency)
		select {
		case <-timer.C:
		case <-r.ctx.Done():
			timer.Stop()
			f.finish(nil, ErrRunnerClosed)
			return
		}
	}

	f.setStatus(domain.TaskRunning)

	result, err := fn(r.ctx)
	if err != nil {
		logger.Error("task failed", "task_id", f.id, "name", f.name, "error", err.Error())
	} else {
		logger.Debug("task finished", "task_id", f.id, "name", f.name)
	}
	f.finish(result, err)
}

func (r *Runner) Get(id string) (*Future, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return f, nil
}

// Close cancels pending tasks and waits for running ones to return.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

// pruneLocked drops the oldest finished tasks once the table is over capacity.
func (r *Runner) pruneLocked() {
	if len(r.tasks) <= r.maxRetained {
		return
	}

	finished := make([]*Future, 0, len(r.tasks))
	for _, f := range r.tasks {
		select {
		case <-f.done:
			finished = append(finished, f)
		default:
		}
	}

	sort.Slice(finished, func(i, j int) bool {
		return finished[i].createdAt.Before(finished[j].createdAt)
	})

	toDrop := len(r.tasks) - r.maxRetained
	for i := 0; i < toDrop && i < len(finished); i++ {
		delete(r.tasks, finished[i].id)
	}
}
