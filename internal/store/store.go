package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikolayk812/gomarketplace-cart/internal/domain"
	"github.com/nikolayk812/gomarketplace-cart/internal/port"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrClosed = errors.New("cart store is closed")

const notProvidedMsg = "cart: store used outside of its provider, attach one with WithStore"

// Listener receives the cart after every change. The cart must not be modified.
type Listener func(cart domain.Cart)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store holds the cart in memory and mirrors every change to a repository.
//
// Mutations are applied synchronously and in call order. Writes run in the
// background and their completion is never awaited by the mutating call.
type Store struct {
	repo    port.CartRepository
	log     logrus.FieldLogger
	policy  ErrorPolicy
	mode    WriteMode
	onError func(error)

	writes writeQueue
	loader errgroup.Group

	mu             sync.RWMutex
	cart           domain.Cart
	mutated        bool
	closed         bool
	listeners      []listenerEntry
	nextListenerID uint64
	cancelLoad     context.CancelFunc

	errMu sync.Mutex
	errs  []error
}

func New(repo port.CartRepository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is nil")
	}

	s := &Store{
		repo:   repo,
		log:    logrus.StandardLogger(),
		policy: ErrorPolicyLog,
		mode:   WriteModeConcurrent,
		cart:   domain.Cart{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.WithField("component", "cartstore")

	writes, err := newWriteQueue(s.mode, s.repo.Save, s.backgroundError("save"))
	if err != nil {
		return nil, fmt.Errorf("newWriteQueue: %w", err)
	}
	s.writes = writes

	return s, nil
}

// Open loads the persisted cart in the background. Until it completes the
// store serves an empty cart.
func (s *Store) Open(ctx context.Context) {
	s.mustBeProvided()

	s.mu.Lock()
	if s.closed || s.cancelLoad != nil {
		s.mu.Unlock()
		return
	}

	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel

	s.loader.Go(func() error {
		defer cancel()

		if err := s.Load(loadCtx); err != nil {
			s.recordError(err)
		}

		return nil
	})
	s.mu.Unlock()
}

// Load replaces the in-memory cart with the persisted one. A missing or
// unreadable cart leaves the store empty. The persisted cart is discarded
// when the cart already changed in memory, since its writes supersede it.
func (s *Store) Load(ctx context.Context) error {
	s.mustBeProvided()

	cart, found, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) && s.isClosed() {
			s.log.Debug("load cancelled by close")
			return nil
		}
		return s.report("load", err)
	}

	if !found {
		s.log.Debug("no persisted cart")
		return nil
	}

	s.mu.Lock()
	if s.mutated {
		s.mu.Unlock()
		s.log.WithField("items", len(cart)).Warn("cart changed while loading, persisted cart discarded")
		return nil
	}

	s.cart = cart
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.log.WithField("items", len(cart)).Debug("persisted cart loaded")
	notify(listeners, cart)

	return nil
}

// Products returns a snapshot of the cart.
func (s *Store) Products() domain.Cart {
	s.mustBeProvided()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cart.Clone()
}

func (s *Store) AddToCart(p domain.Product) {
	s.update("add", func(c domain.Cart) domain.Cart {
		return domain.AddProduct(c, p)
	})
}

// Increment raises the quantity of the item with id. An unknown id leaves the
// cart as is, the cart is still written.
func (s *Store) Increment(id string) {
	s.update("increment", func(c domain.Cart) domain.Cart {
		return domain.IncrementItem(c, id)
	})
}

// Decrement lowers the quantity of the item with id, stopping at zero. Items
// are never removed.
func (s *Store) Decrement(id string) {
	s.update("decrement", func(c domain.Cart) domain.Cart {
		return domain.DecrementItem(c, id)
	})
}

// Subscribe registers fn to be called synchronously after every change.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mustBeProvided()

	if fn == nil {
		panic("cart: Subscribe called with a nil listener")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListenerID
	s.nextListenerID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Flush waits for the writes issued so far. Under ErrorPolicyPropagate it
// returns the failures collected since the previous Flush.
func (s *Store) Flush(ctx context.Context) error {
	s.mustBeProvided()

	if err := s.writes.flush(ctx); err != nil {
		return fmt.Errorf("writes.flush: %w", err)
	}

	return s.takeErrors()
}

// Close stops the background load, waits for pending writes and rejects
// further writes. Writes still running when ctx is done are cancelled.
func (s *Store) Close(ctx context.Context) error {
	s.mustBeProvided()

	s.mu.Lock()
	s.closed = true
	cancelLoad := s.cancelLoad
	s.mu.Unlock()

	if cancelLoad != nil {
		cancelLoad()
	}
	_ = s.loader.Wait()

	var errs []error

	if err := s.writes.close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("writes.close: %w", err))
	}

	if err := s.takeErrors(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *Store) update(op string, fn func(domain.Cart) domain.Cart) {
	s.mustBeProvided()

	s.mu.Lock()
	next := fn(s.cart)
	s.cart = next
	s.mutated = true
	listeners := s.listenersLocked()

	// enqueue under the lock so serial writes follow mutation order
	enqueueErr := s.writes.enqueue(next)
	s.mu.Unlock()

	s.log.WithField("op", op).WithField("items", len(next)).Debug("cart updated")
	notify(listeners, next)

	if enqueueErr != nil {
		if err := s.report("save", enqueueErr); err != nil {
			s.recordError(err)
		}
	}
}

func (s *Store) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l.fn)
	}
	return out
}

func notify(listeners []Listener, cart domain.Cart) {
	for _, fn := range listeners {
		fn(cart.Clone())
	}
}

// report applies the error policy. It returns a non-nil error only under
// ErrorPolicyPropagate.
func (s *Store) report(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)

	switch s.policy {
	case ErrorPolicySilent:
		return nil
	case ErrorPolicyPropagate:
		s.log.WithError(err).Error("cart persistence failed")
		if s.onError != nil {
			s.onError(err)
		}
		return err
	default:
		s.log.WithError(err).Warn("cart persistence failed")
		return nil
	}
}

func (s *Store) backgroundError(op string) func(error) {
	return func(err error) {
		if err := s.report(op, err); err != nil {
			s.recordError(err)
		}
	}
}

func (s *Store) recordError(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	s.errs = append(s.errs, err)
}

func (s *Store) takeErrors() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()

	err := errors.Join(s.errs...)
	s.errs = nil

	return err
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}

func (s *Store) mustBeProvided() {
	if s == nil {
		panic(notProvidedMsg)
	}
}
