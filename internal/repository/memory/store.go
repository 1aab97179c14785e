// Package memory is an in-process storage backend. Transactions stage a copy
// of the whole state and swap it in on commit, so a failed transaction leaves
// nothing behind.
package memory

import (
	"context"
	"sync"

	"cabbooking/internal/domain"
	"cabbooking/internal/repository"
)

type state struct {
	accounts map[string]*domain.Account
	cabs     map[string]*domain.Cab
	bookings map[string]*domain.Booking
	payments map[string]*domain.Payment
}

func newState() *state {
	return &state{
		accounts: make(map[string]*domain.Account),
		cabs:     make(map[string]*domain.Cab),
		bookings: make(map[string]*domain.Booking),
		payments: make(map[string]*domain.Payment),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, a := range s.accounts {
		c.accounts[id] = a.Clone()
	}
	for id, cab := range s.cabs {
		cp := *cab
		c.cabs[id] = &cp
	}
	for id, b := range s.bookings {
		cp := *b
		c.bookings[id] = &cp
	}
	for id, p := range s.payments {
		cp := *p
		c.payments[id] = &cp
	}
	return c
}

// Store is an in-memory implementation of repository.Store.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults *faults
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		st:     newState(),
		faults: &faults{errs: make(map[string]error)},
	}
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)

// WithinTx runs fn against a staged copy of the state and commits it if fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.st.clone()
	v := view{lock: noopLocker{}, state: func() *state { return staged }, faults: s.faults}
	if err := fn(v.repositories()); err != nil {
		return err
	}
	s.st = staged
	return nil
}

// Repositories returns auto-commit repositories over the live state.
func (s *Store) Repositories() repository.Repositories {
	v := view{lock: &s.mu, state: func() *state { return s.st }, faults: s.faults}
	return v.repositories()
}

// InjectError makes the named operation fail with err until cleared with a nil err.
// Operation names are "<repo>.<method>", e.g. "payments.create".
func (s *Store) InjectError(op string, err error) {
	s.faults.set(op, err)
}

// Observe registers fn to be called with the name of every operation before
// it runs. Pass nil to stop observing.
func (s *Store) Observe(fn func(op string)) {
	s.faults.observe(fn)
}

// view binds repositories to a state and the lock guarding it.
type view struct {
	lock   sync.Locker
	state  func() *state
	faults *faults
}

func (v view) do(op string, fn func(st *state) error) error {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.faults.notify(op)
	if err := v.faults.get(op); err != nil {
		return err
	}
	return fn(v.state())
}

func (v view) repositories() repository.Repositories {
	return repository.Repositories{
		Accounts: &AccountRepository{v: v},
		Cabs:     &CabRepository{v: v},
		Bookings: &BookingRepository{v: v},
		Payments: &PaymentRepository{v: v},
		Registry: &AvailabilityRegistry{v: v},
	}
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

type faults struct {
	mu       sync.RWMutex
	errs     map[string]error
	observer func(op string)
}

func (f *faults) observe(fn func(op string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = fn
}

func (f *faults) notify(op string) {
	f.mu.RLock()
	fn := f.observer
	f.mu.RUnlock()
	if fn != nil {
		fn(op)
	}
}

func (f *faults) set(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

func (f *faults) get(op string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errs[op]
}
