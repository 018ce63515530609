// Package worker runs batch conversions on a bounded pool of goroutines.
package worker

import (
	"context"
	"sync"
)

// Job is one conversion handed to the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job reports back
type Result interface {
	GetError() error
}

// Pool runs queued jobs on a fixed number of goroutines. Jobs see a context
// derived from the one given to NewPool; Shutdown cancels it.
type Pool struct {
	size    int
	queue   chan Job
	out     chan Result
	running sync.WaitGroup
	ctx     context.Context
	stop    context.CancelFunc
	sealed  sync.Once
}

// NewPool creates a pool of size goroutines (at least one)
func NewPool(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = 1
	}

	ctx, stop := context.WithCancel(ctx)

	return &Pool{
		size:  size,
		queue: make(chan Job, 2*size),
		out:   make(chan Result, 2*size),
		ctx:   ctx,
		stop:  stop,
	}
}

// Start launches the goroutines
func (p *Pool) Start() {
	p.running.Add(p.size)
	for n := 0; n < p.size; n++ {
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.running.Done()

	for {
		job, ok := p.next()
		if !ok {
			return
		}
		if !p.deliver(job.Execute(p.ctx)) {
			return
		}
	}
}

// next blocks until a job is queued, the queue is closed or the pool stops
func (p *Pool) next() (Job, bool) {
	select {
	case <-p.ctx.Done():
		return nil, false
	case job, ok := <-p.queue:
		return job, ok
	}
}

func (p *Pool) deliver(r Result) bool {
	select {
	case p.out <- r:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Submit queues a job. It reports false, without queueing, once the pool
// has been stopped.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}

	select {
	case p.queue <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Collect runs submit in its own goroutine, then closes the queue and
// returns every result once the workers drain it.
func (p *Pool) Collect(submit func(p *Pool)) []Result {
	go func() {
		submit(p)
		close(p.queue)
		p.running.Wait()
		p.seal()
	}()

	var results []Result
	for r := range p.out {
		results = append(results, r)
	}
	p.stop()
	return results
}

// Shutdown stops the pool and waits for its goroutines
func (p *Pool) Shutdown() {
	p.stop()
	p.running.Wait()
	p.seal()
}

func (p *Pool) seal() {
	p.sealed.Do(func() { close(p.out) })
}
