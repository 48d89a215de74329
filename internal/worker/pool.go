package worker

import (
	"context"
	"sort"
	"sync"
)

// Task is a unit of work producing a value of type T
type Task[T any] func(ctx context.Context) (T, error)

// Result pairs a task's output with its submission index
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

type job[T any] struct {
	index int
	task  Task[T]
}

// Pool runs tasks on a fixed number of goroutines. Results are drained
// as they arrive, so any number of tasks may be submitted before Wait.
type Pool[T any] struct {
	workers    int
	jobQueue   chan job[T]
	results    chan Result[T]
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	submitted  int
	collected  []Result[T]
	drained    chan struct{}
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool[T]{
		workers:    workers,
		jobQueue:   make(chan job[T], workers*2),
		results:    make(chan Result[T], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		drained:    make(chan struct{}),
	}
	go p.drain()
	return p
}

// Start launches the workers
func (p *Pool[T]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobQueue:
			if !ok {
				return
			}
			value, err := j.task(p.ctx)
			select {
			case p.results <- Result[T]{Index: j.index, Value: value, Err: err}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *Pool[T]) drain() {
	defer close(p.drained)
	for r := range p.results {
		p.collected = append(p.collected, r)
	}
}

// Submit queues a task and returns its index. It must not be called
// concurrently with itself or after Wait.
func (p *Pool[T]) Submit(task Task[T]) int {
	index := p.submitted
	p.submitted++
	select {
	case <-p.ctx.Done():
	case p.jobQueue <- job[T]{index: index, task: task}:
	}
	return index
}

// Wait closes the queue, waits for all tasks and returns the results ordered
// by submission index. Tasks dropped by cancellation have no result.
func (p *Pool[T]) Wait() []Result[T] {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.drained
	p.cancelFunc()

	results := p.collected
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return results
}

// Shutdown stops the workers without waiting for queued tasks
func (p *Pool[T]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	<-p.drained
}

func (p *Pool[T]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// Run executes tasks with the given concurrency and returns ordered results
func Run[T any](ctx context.Context, workers int, tasks []Task[T]) []Result[T] {
	p := NewPool[T](ctx, workers)
	p.Start()
	for _, t := range tasks {
		p.Submit(t)
	}
	return p.Wait()
}
