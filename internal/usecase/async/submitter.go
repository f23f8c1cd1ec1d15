package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ErrorSink receives the failures of submitted tasks nobody is waiting on.
type ErrorSink interface {
	Report(task string, err error)
}

type ErrorSinkFunc func(task string, err error)

func (f ErrorSinkFunc) Report(task string, err error) { f(task, err) }

// LogSink writes task failures to a slog logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Report(task string, err error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("background task failed", "task", task, "error", err.Error())
}

// Future is the eventual result of a submitted task.
type Future struct {
	done chan struct{}
	err  error
}

// Done is closed once the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submitter runs fire-and-forget tasks on their own goroutines.
// Tasks run with a context that keeps the caller's values but not its
// cancellation, so a finished request does not abort them.
type Submitter struct {
	sink ErrorSink
	wg   sync.WaitGroup
}

func NewSubmitter(sink ErrorSink) *Submitter {
	if sink == nil {
		sink = LogSink{}
	}
	return &Submitter{sink: sink}
}

func (s *Submitter) Submit(ctx context.Context, task string, fn func(ctx context.Context) error) *Future {
	f := &Future{done: make(chan struct{})}
	detached := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(f.done)

		f.err = run(detached, fn)
		if f.err != nil {
			s.sink.Report(task, f.err)
		}
	}()
	return f
}

// Drain waits for every in-flight task, or until ctx is done. When ctx
// expires first, the waiting goroutine outlives the call and exits once
// the remaining tasks finish.
func (s *Submitter) Drain(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return fn(ctx)
}
