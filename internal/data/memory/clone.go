package memory

import (
	"maps"
	"slices"

	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/outbox"
	"github.com/grymey-ledger/internal/domain/split"
	"github.com/grymey-ledger/internal/domain/transaction"
	"github.com/grymey-ledger/internal/domain/wallet"
)

// Records are copied on the way in and out so callers never share memory with
// the store. Pointer fields are only ever reassigned by the domain, never written
// through, so they are copied shallowly.

func cloneWallet(w *wallet.Wallet) *wallet.Wallet {
	c := *w
	c.Ledger = slices.Clone(w.Ledger)
	return &c
}

func cloneTransaction(t *transaction.Transaction) *transaction.Transaction {
	c := *t
	c.Metadata = maps.Clone(t.Metadata)
	return &c
}

func cloneEscrow(e *escrow.Escrow) *escrow.Escrow {
	c := *e
	c.Conditions = slices.Clone(e.Conditions)
	if e.Dispute != nil {
		d := *e.Dispute
		c.Dispute = &d
	}
	return &c
}

func cloneSplit(s *split.SplitPayment) *split.SplitPayment {
	c := *s
	c.Recipients = slices.Clone(s.Recipients)
	return &c
}

func cloneCircle(ci *circle.Circle) *circle.Circle {
	c := *ci
	c.Members = slices.Clone(ci.Members)
	c.Contributions = slices.Clone(ci.Contributions)
	c.Rules.AllowedApprovers = slices.Clone(ci.Rules.AllowedApprovers)
	c.Withdrawals = make([]circle.Withdrawal, len(ci.Withdrawals))
	for i, w := range ci.Withdrawals {
		w.Approvals = slices.Clone(w.Approvals)
		if w.Rejection != nil {
			r := *w.Rejection
			w.Rejection = &r
		}
		c.Withdrawals[i] = w
	}
	return &c
}

func cloneJar(j *jar.MoneyJar) *jar.MoneyJar {
	c := *j
	return &c
}

func cloneCard(v *card.VirtualCard) *card.VirtualCard {
	c := *v
	return &c
}

func cloneMessage(m *outbox.Message) *outbox.Message {
	c := *m
	c.Payload = slices.Clone(m.Payload)
	return &c
}
