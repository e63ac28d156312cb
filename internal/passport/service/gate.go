package service

import (
	"context"
	"errors"

	"passport/internal/passport/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
)

// Gate answers whether a passport can be read or mutated. Fact and exchange
// services consult it at the start of every operation, inside their own
// transaction, so it never takes locks itself.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Active loads a passport that exists and has not been destroyed.
func (g *Gate) Active(ctx context.Context, id domain.PassportID) (*models.Passport, error) {
	p, err := g.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "passport not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load passport")
	}
	if p.Destroyed {
		return nil, dErrors.New(dErrors.CodeNotFound, "passport not found")
	}
	return p, nil
}

// Mutable loads an active passport and refuses it while either the passport
// or the whole system is paused.
func (g *Gate) Mutable(ctx context.Context, id domain.PassportID) (*models.Passport, error) {
	p, err := g.Active(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.requireSystemRunning(ctx); err != nil {
		return nil, err
	}
	if p.Paused {
		return nil, dErrors.New(dErrors.CodePaused, "passport is paused")
	}
	return p, nil
}

func (g *Gate) requireSystemRunning(ctx context.Context) error {
	paused, err := g.store.SystemPaused(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read system pause")
	}
	if paused {
		return dErrors.New(dErrors.CodePaused, "system is paused")
	}
	return nil
}
