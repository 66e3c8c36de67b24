package postgres

import (
	"context"
	"log/slog"

	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/split"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/domain/wallet"
	"github.com/grymey-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// txRunner is the part of PostgresDB the unit of work depends on
type txRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// UnitOfWork runs settlement operations inside one PostgreSQL transaction
type UnitOfWork struct {
	db           txRunner
	wallets      *WalletRepository
	transactions *TransactionRepository
	escrows      *EscrowRepository
	splits       *SplitRepository
	circles      *CircleRepository
	jars         *JarRepository
	cards        *CardRepository
	outbox       *OutboxRepository
}

func NewUnitOfWork(logger *slog.Logger, db *persistence.PostgresDB) *UnitOfWork {
	return &UnitOfWork{
		db:           db,
		wallets:      NewWalletRepository(logger, db),
		transactions: NewTransactionRepository(logger, db),
		escrows:      NewEscrowRepository(logger, db),
		splits:       NewSplitRepository(logger, db),
		circles:      NewCircleRepository(logger, db),
		jars:         NewJarRepository(logger, db),
		cards:        NewCardRepository(logger, db),
		outbox:       NewOutboxRepository(logger, db),
	}
}

// Execute commits every write fn makes through repos, or none of them
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	return u.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &txRepositories{uow: u, tx: tx})
	})
}

// Outbox returns the pool-backed outbox repository used by the outbox poller
func (u *UnitOfWork) Outbox() outbox.Repository {
	return u.outbox
}

// txRepositories hands out repositories bound to tx
type txRepositories struct {
	uow *UnitOfWork
	tx  pgx.Tx
}

func (r *txRepositories) Wallets() wallet.Repository           { return r.uow.wallets.WithTx(r.tx) }
func (r *txRepositories) Transactions() transaction.Repository { return r.uow.transactions.WithTx(r.tx) }
func (r *txRepositories) Escrows() escrow.Repository           { return r.uow.escrows.WithTx(r.tx) }
func (r *txRepositories) Splits() split.Repository             { return r.uow.splits.WithTx(r.tx) }
func (r *txRepositories) Circles() circle.Repository           { return r.uow.circles.WithTx(r.tx) }
func (r *txRepositories) Jars() jar.Repository                 { return r.uow.jars.WithTx(r.tx) }
func (r *txRepositories) Cards() card.Repository               { return r.uow.cards.WithTx(r.tx) }
func (r *txRepositories) Outbox() outbox.Repository            { return r.uow.outbox.WithTx(r.tx) }
