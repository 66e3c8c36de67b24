// Package uow defines the atomic unit of work that settlement operations run in.
// Every write made through the Repositories handed to an Execute callback is
// committed together, or not at all.
package uow

import (
	"context"

	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/split"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// Repositories bound to one unit of work
type Repositories interface {
	Wallets() wallet.Repository
	Transactions() transaction.Repository
	Escrows() escrow.Repository
	Splits() split.Repository
	Circles() circle.Repository
	Jars() jar.Repository
	Cards() card.Repository
	Outbox() outbox.Repository
}

// UnitOfWork runs fn atomically, rolling back when fn returns an error or panics
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
