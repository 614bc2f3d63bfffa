package backend

import "golang.org/x/sync/errgroup"

// DefaultConcurrency is the default bound on outstanding stores.
const DefaultConcurrency = 5

// writeQueue bounds the number of in-flight asynchronous stores. Submit
// blocks the caller only once the bound is reached, until a slot frees;
// errgroup.Group's SetLimit gives us that for free, the idiomatic Go
// replacement for a poll-the-queue-every-10ms loop.
type writeQueue struct {
	g *errgroup.Group
}

func newWriteQueue(concurrency int) *writeQueue {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	return &writeQueue{g: g}
}

// submit enqueues fn, blocking if the queue is saturated.
func (q *writeQueue) submit(fn func() error) {
	q.g.Go(fn)
}

// flush waits for every submitted fn to return.
func (q *writeQueue) flush() error {
	return q.g.Wait()
}
