package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store almacenamiento en memoria del libro de stock. Las unidades de trabajo son serializadas
// (un solo escritor) y trabajan sobre una copia del estado que solo se publica en el commit.
type Store struct {
	mu          sync.RWMutex
	state       *state
	writer      chan struct{}
	lockTimeout time.Duration
	newID       func() string
}

type state struct {
	items        map[string]*entity.StockItem
	batches      map[string]*entity.Batch
	ledger       []*entity.LedgerEntry
	reservations map[string]*entity.Reservation
}

func newState() *state {
	return &state{
		items:        map[string]*entity.StockItem{},
		batches:      map[string]*entity.Batch{},
		reservations: map[string]*entity.Reservation{},
	}
}

func (st *state) clone() *state {
	c := &state{
		items:        make(map[string]*entity.StockItem, len(st.items)),
		batches:      make(map[string]*entity.Batch, len(st.batches)),
		ledger:       make([]*entity.LedgerEntry, len(st.ledger)),
		reservations: make(map[string]*entity.Reservation, len(st.reservations)),
	}
	for k, v := range st.items {
		cp := *v
		c.items[k] = &cp
	}
	for k, v := range st.batches {
		cp := *v
		c.batches[k] = &cp
	}
	// Los asientos son inmutables: se comparten.
	copy(c.ledger, st.ledger)
	for k, v := range st.reservations {
		cp := *v
		c.reservations[k] = &cp
	}
	return c
}

// NewStore crea el almacenamiento. lockTimeout acota la espera por la unidad de trabajo (0 = 5s).
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		state:       newState(),
		writer:      make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		newID:       uuid.NewString,
	}
}

// Run ejecuta fn con repositorios sobre una copia privada del estado; si fn no falla la copia
// reemplaza al estado confirmado. Devuelve domain.ErrLockTimeout si no obtiene el turno a tiempo.
func (s *Store) Run(ctx context.Context, fn func(r inventory.Repos) error) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return &domain.Error{Kind: domain.ErrLockTimeout, Message: "could not acquire stock lock within " + s.lockTimeout.String()}
	}
	defer func() { <-s.writer }()

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	if err := fn(s.repos(func(f func(*state) error) error { return f(work) }, false)); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()
	return nil
}

// Reader repositorios de solo lectura sobre el estado confirmado.
func (s *Store) Reader() inventory.Repos {
	return s.repos(func(f func(*state) error) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return f(s.state)
	}, true)
}

type access func(func(*state) error) error

func (s *Store) repos(a access, readOnly bool) inventory.Repos {
	b := base{access: a, readOnly: readOnly, newID: s.newID}
	return inventory.Repos{
		StockItems:   &stockItemRepo{b},
		Batches:      &batchRepo{b},
		Ledger:       &ledgerRepo{b},
		Reservations: &reservationRepo{b},
	}
}

type base struct {
	access   access
	readOnly bool
	newID    func() string
}

var errReadOnly = &domain.Error{Kind: domain.ErrConflict, Message: "write outside of a unit of work"}

func (b base) write(f func(*state) error) error {
	if b.readOnly {
		return errReadOnly
	}
	return b.access(f)
}
