package generate

import "sync/atomic"

// boundedQueue is a single-producer, multi-consumer channel with an
// explicit capacity counter, so a producer that outruns its consumers
// has send() refused (it returns false) instead of growing an unbounded
// goroutine backlog. Adapted from the donor VM's device-interrupt delivery
// channel: the same backpressure shape, repurposed here to hand generated
// program requests to a fixed worker pool instead of hardware responses to
// an interrupt controller.
type boundedQueue[T any] struct {
	channel  chan T
	count    atomic.Int32
	capacity int32
}

func newBoundedQueue[T any](capacity int32) *boundedQueue[T] {
	return &boundedQueue[T]{
		channel:  make(chan T, capacity),
		capacity: capacity,
	}
}

func (q *boundedQueue[T]) send(v T) bool {
	newCount := q.count.Add(1)
	if newCount > q.capacity {
		q.count.Add(-1)
		return false
	}
	q.channel <- v
	return true
}

func (q *boundedQueue[T]) receive() (T, bool) {
	v, ok := <-q.channel
	if ok {
		q.count.Add(-1)
	}
	return v, ok
}

func (q *boundedQueue[T]) close() {
	close(q.channel)
}

// workerPool runs n workers pulling jobs off a bounded queue until it is
// closed and drained, sending each job's result, tagged with its
// submission index, on results in completion order.
type workerPool struct {
	jobs    *boundedQueue[genJob]
	results chan genResult
	n       int
}

type genJob struct {
	index int
	seed  int64
	shape Shape
}

type genResult struct {
	index   int
	program *GeneratedProgram
	err     error
}

func newWorkerPool(n int, queueDepth int32) *workerPool {
	return &workerPool{
		jobs:    newBoundedQueue[genJob](queueDepth),
		results: make(chan genResult, queueDepth),
		n:       n,
	}
}

func (p *workerPool) start() {
	for i := 0; i < p.n; i++ {
		go func() {
			for {
				job, ok := p.jobs.receive()
				if !ok {
					return
				}
				prog, err := generateOne(job.seed, job.shape)
				p.results <- genResult{index: job.index, program: prog, err: err}
			}
		}()
	}
}

func (p *workerPool) submit(job genJob) bool {
	return p.jobs.send(job)
}

func (p *workerPool) closeJobs() {
	p.jobs.close()
}
