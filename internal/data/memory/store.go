// Package memory is an in-process backend for the settlement store. Writes made
// inside a unit of work are staged and applied together on commit; a failed or
// panicking unit of work leaves no trace.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/split"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
)

type walletKey struct {
	owner string
	mode  wallet.Mode
}

type table[K comparable, V any] struct {
	rows  map[K]V
	clone func(V) V
}

func newTable[K comparable, V any](clone func(V) V) *table[K, V] {
	return &table[K, V]{rows: make(map[K]V), clone: clone}
}

// staged is the per-unit-of-work view of a table
type staged[K comparable, V any] struct {
	mu    *sync.RWMutex
	base  *table[K, V]
	dirty map[K]V
}

func stage[K comparable, V any](mu *sync.RWMutex, base *table[K, V]) *staged[K, V] {
	return &staged[K, V]{mu: mu, base: base, dirty: make(map[K]V)}
}

func (s *staged[K, V]) get(k K) (V, bool) {
	if v, ok := s.dirty[k]; ok {
		return s.base.clone(v), true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.base.rows[k]
	if !ok {
		var zero V
		return zero, false
	}
	return s.base.clone(v), true
}

func (s *staged[K, V]) put(k K, v V) {
	s.dirty[k] = s.base.clone(v)
}

func (s *staged[K, V]) all() []V {
	s.mu.RLock()
	out := make([]V, 0, len(s.base.rows)+len(s.dirty))
	for k, v := range s.base.rows {
		if _, changed := s.dirty[k]; !changed {
			out = append(out, s.base.clone(v))
		}
	}
	s.mu.RUnlock()
	for _, v := range s.dirty {
		out = append(out, s.base.clone(v))
	}
	return out
}

// commit must run under the store's write lock
func (s *staged[K, V]) commit() {
	for k, v := range s.dirty {
		s.base.rows[k] = v
	}
}

// Store keeps every settlement record in memory
type Store struct {
	mu           sync.RWMutex
	wallets      *table[walletKey, *wallet.Wallet]
	transactions *table[uuid.UUID, *transaction.Transaction]
	escrows      *table[uuid.UUID, *escrow.Escrow]
	splits       *table[uuid.UUID, *split.SplitPayment]
	circles      *table[uuid.UUID, *circle.Circle]
	jars         *table[uuid.UUID, *jar.MoneyJar]
	cards        *table[uuid.UUID, *card.VirtualCard]
	outbox       *table[int64, *outbox.Message]
	outboxSeq    atomic.Int64
	logger       *slog.Logger
}

var _ uow.UnitOfWork = (*Store)(nil)

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		wallets:      newTable[walletKey](cloneWallet),
		transactions: newTable[uuid.UUID](cloneTransaction),
		escrows:      newTable[uuid.UUID](cloneEscrow),
		splits:       newTable[uuid.UUID](cloneSplit),
		circles:      newTable[uuid.UUID](cloneCircle),
		jars:         newTable[uuid.UUID](cloneJar),
		cards:        newTable[uuid.UUID](cloneCard),
		outbox:       newTable[int64](cloneMessage),
		logger:       logger,
	}
}

// Execute runs fn against staged repositories and commits them if fn succeeds
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	tx := s.begin()
	if err := fn(ctx, tx); err != nil {
		s.logger.Debug("Discarding staged writes", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx.commit()
	return nil
}

// Outbox returns an outbox repository whose calls each commit on their own
func (s *Store) Outbox() outbox.Repository {
	return &autoCommitOutbox{store: s}
}

type unitOfWork struct {
	store        *Store
	wallets      *staged[walletKey, *wallet.Wallet]
	transactions *staged[uuid.UUID, *transaction.Transaction]
	escrows      *staged[uuid.UUID, *escrow.Escrow]
	splits       *staged[uuid.UUID, *split.SplitPayment]
	circles      *staged[uuid.UUID, *circle.Circle]
	jars         *staged[uuid.UUID, *jar.MoneyJar]
	cards        *staged[uuid.UUID, *card.VirtualCard]
	outbox       *staged[int64, *outbox.Message]
}

func (s *Store) begin() *unitOfWork {
	return &unitOfWork{
		store:        s,
		wallets:      stage(&s.mu, s.wallets),
		transactions: stage(&s.mu, s.transactions),
		escrows:      stage(&s.mu, s.escrows),
		splits:       stage(&s.mu, s.splits),
		circles:      stage(&s.mu, s.circles),
		jars:         stage(&s.mu, s.jars),
		cards:        stage(&s.mu, s.cards),
		outbox:       stage(&s.mu, s.outbox),
	}
}

func (u *unitOfWork) commit() {
	u.wallets.commit()
	u.transactions.commit()
	u.escrows.commit()
	u.splits.commit()
	u.circles.commit()
	u.jars.commit()
	u.cards.commit()
	u.outbox.commit()
}

func (u *unitOfWork) Wallets() wallet.Repository {
	return &walletRepository{rows: u.wallets}
}

func (u *unitOfWork) Transactions() transaction.Repository {
	return &transactionRepository{rows: u.transactions}
}

func (u *unitOfWork) Escrows() escrow.Repository {
	return &escrowRepository{rows: u.escrows}
}

func (u *unitOfWork) Splits() split.Repository {
	return &splitRepository{rows: u.splits}
}

func (u *unitOfWork) Circles() circle.Repository {
	return &circleRepository{rows: u.circles}
}

func (u *unitOfWork) Jars() jar.Repository {
	return &jarRepository{rows: u.jars}
}

func (u *unitOfWork) Cards() card.Repository {
	return &cardRepository{rows: u.cards}
}

func (u *unitOfWork) Outbox() outbox.Repository {
	return &outboxRepository{rows: u.outbox, seq: &u.store.outboxSeq}
}
