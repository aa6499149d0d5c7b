package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"golang.org/x/sync/errgroup"
)

type saveFunc func(ctx context.Context, cart domain.Cart) error

// writeQueue runs persistence writes in the background.
type writeQueue interface {
	enqueue(cart domain.Cart) error
	// flush waits for the writes enqueued before the call.
	flush(ctx context.Context) error
	// close rejects further writes and waits for pending ones. Writes still
	// running when ctx is done are cancelled.
	close(ctx context.Context) error
}

func newWriteQueue(mode WriteMode, save saveFunc, report func(error)) (writeQueue, error) {
	switch mode {
	case WriteModeConcurrent:
		return newConcurrentQueue(save, report), nil
	case WriteModeSerial:
		return newSerialQueue(save, report), nil
	default:
		return nil, fmt.Errorf("write mode[%s] is not valid", mode)
	}
}

type concurrentQueue struct {
	save   saveFunc
	report func(error)

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu      sync.Mutex
	closed  bool
	nextID  uint64
	pending map[uint64]chan struct{}
}

func newConcurrentQueue(save saveFunc, report func(error)) *concurrentQueue {
	ctx, cancel := context.WithCancel(context.Background())

	return &concurrentQueue{
		save:    save,
		report:  report,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]chan struct{}),
	}
}

func (q *concurrentQueue) enqueue(cart domain.Cart) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}

	id := q.nextID
	q.nextID++

	done := make(chan struct{})
	q.pending[id] = done

	q.group.Go(func() error {
		defer func() {
			q.mu.Lock()
			delete(q.pending, id)
			q.mu.Unlock()

			close(done)
		}()

		if err := q.save(q.ctx, cart); err != nil {
			q.report(err)
		}

		return nil
	})

	return nil
}

func (q *concurrentQueue) flush(ctx context.Context) error {
	q.mu.Lock()
	waiting := make([]chan struct{}, 0, len(q.pending))
	for _, done := range q.pending {
		waiting = append(waiting, done)
	}
	q.mu.Unlock()

	for _, done := range waiting {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (q *concurrentQueue) close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	err := q.flush(ctx)

	q.cancel()
	_ = q.group.Wait()

	return err
}

type serialQueue struct {
	save   saveFunc
	report func(error)

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	wake   chan struct{}

	mu         sync.Mutex
	closed     bool
	pending    domain.Cart
	hasPending bool
	enqueued   uint64
	written    uint64
	// progress is closed and replaced every time written moves
	progress chan struct{}
}

func newSerialQueue(save saveFunc, report func(error)) *serialQueue {
	ctx, cancel := context.WithCancel(context.Background())

	q := &serialQueue{
		save:     save,
		report:   report,
		ctx:      ctx,
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
		progress: make(chan struct{}),
	}

	q.group.Go(q.run)

	return q
}

func (q *serialQueue) enqueue(cart domain.Cart) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}

	q.pending = cart
	q.hasPending = true
	q.enqueued++
	q.mu.Unlock()

	q.signal()

	return nil
}

func (q *serialQueue) run() error {
	defer q.release()

	for {
		select {
		case <-q.ctx.Done():
			return nil
		case <-q.wake:
		}

		for {
			q.mu.Lock()
			if !q.hasPending {
				closed := q.closed
				q.mu.Unlock()

				if closed {
					return nil
				}
				break
			}

			cart, seq := q.pending, q.enqueued
			q.pending, q.hasPending = nil, false
			q.mu.Unlock()

			if err := q.save(q.ctx, cart); err != nil {
				q.report(err)
			}

			q.mu.Lock()
			q.written = seq
			q.advance()
			q.mu.Unlock()
		}
	}
}

// release unblocks flush callers once the writer is gone.
func (q *serialQueue) release() {
	q.mu.Lock()
	dropped := q.hasPending
	q.pending, q.hasPending = nil, false
	q.written = q.enqueued
	q.advance()
	q.mu.Unlock()

	if dropped {
		q.report(fmt.Errorf("pending write dropped: %w", ErrClosed))
	}
}

func (q *serialQueue) advance() {
	close(q.progress)
	q.progress = make(chan struct{})
}

func (q *serialQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *serialQueue) flush(ctx context.Context) error {
	q.mu.Lock()
	target := q.enqueued

	for q.written < target {
		progress := q.progress
		q.mu.Unlock()

		select {
		case <-progress:
		case <-ctx.Done():
			return ctx.Err()
		}

		q.mu.Lock()
	}
	q.mu.Unlock()

	return nil
}

func (q *serialQueue) close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.signal()

	err := q.flush(ctx)

	q.cancel()
	_ = q.group.Wait()

	return err
}
