package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/grymey-ledger/internal/domain/card"
	"github.com/grymey-ledger/internal/domain/circle"
	"github.com/grymey-ledger/internal/domain/escrow"
	"github.com/grymey-ledger/internal/domain/jar"
	"github.com/grymey-ledger/internal/domain/shared"
	"github.com/grymey-ledger/internal/domain/split"
)

// versioned records are updated only when the stored version matches the one
// the caller loaded; the caller's copy is then bumped.
func updateVersioned[V any](rows *staged[uuid.UUID, V], id uuid.UUID, version *int, value V, storedVersion func(V) int, notFound error) error {
	current, ok := rows.get(id)
	if !ok {
		return notFound
	}
	if storedVersion(current) != *version {
		return shared.ErrConcurrentUpdate
	}
	*version++
	rows.put(id, value)
	return nil
}

type escrowRepository struct {
	rows *staged[uuid.UUID, *escrow.Escrow]
}

func (r *escrowRepository) Create(ctx context.Context, e *escrow.Escrow) error {
	r.rows.put(e.ID, e)
	return nil
}

func (r *escrowRepository) Get(ctx context.Context, id uuid.UUID) (*escrow.Escrow, error) {
	e, ok := r.rows.get(id)
	if !ok {
		return nil, escrow.NotFound(id)
	}
	return e, nil
}

func (r *escrowRepository) Update(ctx context.Context, e *escrow.Escrow) error {
	return updateVersioned(r.rows, e.ID, &e.Version, e, func(s *escrow.Escrow) int { return s.Version }, escrow.NotFound(e.ID))
}

func (r *escrowRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*escrow.Escrow, error) {
	var out []*escrow.Escrow
	for _, e := range r.rows.all() {
		if e.IsParty(userID) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b *escrow.Escrow) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return page(out, limit, offset), nil
}

type splitRepository struct {
	rows *staged[uuid.UUID, *split.SplitPayment]
}

func (r *splitRepository) Create(ctx context.Context, s *split.SplitPayment) error {
	r.rows.put(s.ID, s)
	return nil
}

func (r *splitRepository) Get(ctx context.Context, id uuid.UUID) (*split.SplitPayment, error) {
	s, ok := r.rows.get(id)
	if !ok {
		return nil, split.NotFound(id)
	}
	return s, nil
}

func (r *splitRepository) Update(ctx context.Context, s *split.SplitPayment) error {
	return updateVersioned(r.rows, s.ID, &s.Version, s, func(v *split.SplitPayment) int { return v.Version }, split.NotFound(s.ID))
}

func (r *splitRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*split.SplitPayment, error) {
	var out []*split.SplitPayment
	for _, s := range r.rows.all() {
		if s.IsParty(userID) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b *split.SplitPayment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return page(out, limit, offset), nil
}

type circleRepository struct {
	rows *staged[uuid.UUID, *circle.Circle]
}

func (r *circleRepository) Create(ctx context.Context, c *circle.Circle) error {
	r.rows.put(c.ID, c)
	return nil
}

func (r *circleRepository) Get(ctx context.Context, id uuid.UUID) (*circle.Circle, error) {
	c, ok := r.rows.get(id)
	if !ok {
		return nil, circle.NotFound(id)
	}
	return c, nil
}

func (r *circleRepository) Update(ctx context.Context, c *circle.Circle) error {
	return updateVersioned(r.rows, c.ID, &c.Version, c, func(v *circle.Circle) int { return v.Version }, circle.NotFound(c.ID))
}

// ListByMember returns circles where userID is invited or active
func (r *circleRepository) ListByMember(ctx context.Context, userID string) ([]*circle.Circle, error) {
	var out []*circle.Circle
	for _, c := range r.rows.all() {
		if slices.ContainsFunc(c.Members, func(m circle.Member) bool { return m.UserID == userID }) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *circle.Circle) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

type jarRepository struct {
	rows *staged[uuid.UUID, *jar.MoneyJar]
}

func (r *jarRepository) Create(ctx context.Context, j *jar.MoneyJar) error {
	r.rows.put(j.ID, j)
	return nil
}

func (r *jarRepository) Get(ctx context.Context, id uuid.UUID) (*jar.MoneyJar, error) {
	j, ok := r.rows.get(id)
	if !ok {
		return nil, jar.NotFound(id)
	}
	return j, nil
}

func (r *jarRepository) Update(ctx context.Context, j *jar.MoneyJar) error {
	return updateVersioned(r.rows, j.ID, &j.Version, j, func(v *jar.MoneyJar) int { return v.Version }, jar.NotFound(j.ID))
}

func (r *jarRepository) ListByUser(ctx context.Context, userID string) ([]*jar.MoneyJar, error) {
	var out []*jar.MoneyJar
	for _, j := range r.rows.all() {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	slices.SortFunc(out, func(a, b *jar.MoneyJar) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

type cardRepository struct {
	rows *staged[uuid.UUID, *card.VirtualCard]
}

func (r *cardRepository) Create(ctx context.Context, c *card.VirtualCard) error {
	r.rows.put(c.ID, c)
	return nil
}

func (r *cardRepository) Get(ctx context.Context, id uuid.UUID) (*card.VirtualCard, error) {
	c, ok := r.rows.get(id)
	if !ok {
		return nil, card.NotFound(id)
	}
	return c, nil
}

func (r *cardRepository) Update(ctx context.Context, c *card.VirtualCard) error {
	return updateVersioned(r.rows, c.ID, &c.Version, c, func(v *card.VirtualCard) int { return v.Version }, card.NotFound(c.ID))
}

func (r *cardRepository) ListByUser(ctx context.Context, userID string) ([]*card.VirtualCard, error) {
	var out []*card.VirtualCard
	for _, c := range r.rows.all() {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *card.VirtualCard) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
