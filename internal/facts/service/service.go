package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"passport/internal/commitment"
	"passport/internal/events"
	"passport/internal/facts/models"
	pmodels "passport/internal/passport/models"
	"passport/pkg/domain"
	dErrors "passport/pkg/domain-errors"
	"passport/pkg/platform/sentinel"
	"passport/pkg/platform/tx"
	"passport/pkg/requestcontext"
)

// Store persists facts, private data descriptors and write permissions.
type Store interface {
	GetFact(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.Fact, error)
	PutFact(ctx context.Context, f *models.Fact) error
	GetPrivateData(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, error)
	PutPrivateData(ctx context.Context, d *models.PrivateData) error
	Permissions(ctx context.Context, pid domain.PassportID) (models.Permissions, error)
	SetPermissionMode(ctx context.Context, pid domain.PassportID, mode models.PermissionMode) error
	AddToAllowList(ctx context.Context, pid domain.PassportID, attester domain.Address) (bool, error)
	RemoveFromAllowList(ctx context.Context, pid domain.PassportID, attester domain.Address) (bool, error)
	ListAllowList(ctx context.Context, pid domain.PassportID) ([]domain.Address, error)
}

// PassportGate resolves passports for reads and mutations.
type PassportGate interface {
	Active(ctx context.Context, pid domain.PassportID) (*pmodels.Passport, error)
	Mutable(ctx context.Context, pid domain.PassportID) (*pmodels.Passport, error)
}

// Cache is an optional read-through cache for fact and descriptor reads.
//
// Readers take the triple's Generation before loading from the store and hand
// it back on Store*; the cache drops the fill if Invalidate ran in between.
type Cache interface {
	Generation(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (uint64, error)
	Fact(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.Fact, bool, error)
	StoreFact(ctx context.Context, f *models.Fact, generation uint64) error
	PrivateData(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, bool, error)
	StorePrivateData(ctx context.Context, d *models.PrivateData, generation uint64) error
	Invalidate(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) error
}

type EventPublisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service stores attester facts and private data descriptors. Writes are
// namespaced by the calling attester and gated by the passport's permission
// mode.
type Service struct {
	store     Store
	tx        tx.Runner
	gate      PassportGate
	cache     Cache
	publisher EventPublisher
	logger    *slog.Logger
	clock     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(store Store, runner tx.Runner, gate PassportGate, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("facts store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("passport gate is required")
	}
	svc := &Service{store: store, tx: runner, gate: gate}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SetFact records value under the caller's namespace, overwriting any
// previous value.
func (s *Service) SetFact(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey, value string) (*models.Fact, error) {
	f := &models.Fact{PassportID: pid, Attester: caller, Key: key, Exists: true, Value: value}
	err := s.attesterWrite(ctx, caller, pid, key, func(ctx context.Context) error {
		f.UpdatedAt = s.now(ctx)
		if err := s.store.PutFact(ctx, f); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store fact")
		}
		return s.emit(ctx, attesterEvent(events.TypeFactUpdated, pid, caller, key))
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFact clears the exists flag. The last value is retained.
func (s *Service) DeleteFact(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey) error {
	return s.attesterWrite(ctx, caller, pid, key, func(ctx context.Context) error {
		f, err := s.store.GetFact(ctx, pid, caller, key)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			f = &models.Fact{PassportID: pid, Attester: caller, Key: key}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fact")
		}
		f.Exists = false
		f.UpdatedAt = s.now(ctx)
		if err := s.store.PutFact(ctx, f); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete fact")
		}
		return s.emit(ctx, attesterEvent(events.TypeFactDeleted, pid, caller, key))
	})
}

// GetFact never fails for an active passport; a missing record reads as
// Exists=false.
func (s *Service) GetFact(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.Fact, error) {
	if _, err := s.gate.Active(ctx, pid); err != nil {
		return nil, err
	}
	gen, fill := s.cachedGeneration(ctx, pid, attester, key)
	if fill {
		if f, ok, err := s.cache.Fact(ctx, pid, attester, key); err == nil && ok {
			return f, nil
		} else if err != nil {
			s.warn(ctx, "fact cache read failed", err)
		}
	}
	f, err := s.store.GetFact(ctx, pid, attester, key)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return &models.Fact{PassportID: pid, Attester: attester, Key: key}, nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fact")
	}
	if fill {
		if err := s.cache.StoreFact(ctx, f, gen); err != nil {
			s.warn(ctx, "fact cache write failed", err)
		}
	}
	return f, nil
}

// SetPrivateData records where the caller's ciphertext lives and the hash of
// its data key.
func (s *Service) SetPrivateData(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey, contentPointer string, dataKeyHash commitment.Digest) (*models.PrivateData, error) {
	d := &models.PrivateData{
		PassportID:     pid,
		Attester:       caller,
		Key:            key,
		Exists:         true,
		ContentPointer: contentPointer,
		DataKeyHash:    dataKeyHash,
	}
	err := s.attesterWrite(ctx, caller, pid, key, func(ctx context.Context) error {
		d.UpdatedAt = s.now(ctx)
		if err := s.store.PutPrivateData(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store private data")
		}
		return s.emit(ctx, attesterEvent(events.TypePrivateDataUpdated, pid, caller, key))
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeletePrivateData(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey) error {
	return s.attesterWrite(ctx, caller, pid, key, func(ctx context.Context) error {
		d, err := s.store.GetPrivateData(ctx, pid, caller, key)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			d = &models.PrivateData{PassportID: pid, Attester: caller, Key: key}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load private data")
		}
		d.Exists = false
		d.UpdatedAt = s.now(ctx)
		if err := s.store.PutPrivateData(ctx, d); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete private data")
		}
		return s.emit(ctx, attesterEvent(events.TypePrivateDataDeleted, pid, caller, key))
	})
}

func (s *Service) GetPrivateData(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, error) {
	if _, err := s.gate.Active(ctx, pid); err != nil {
		return nil, err
	}
	gen, fill := s.cachedGeneration(ctx, pid, attester, key)
	if fill {
		if d, ok, err := s.cache.PrivateData(ctx, pid, attester, key); err == nil && ok {
			return d, nil
		} else if err != nil {
			s.warn(ctx, "private data cache read failed", err)
		}
	}
	d, err := s.lookupPrivateData(ctx, pid, attester, key)
	if err != nil {
		return nil, err
	}
	if fill && d.Exists {
		if err := s.cache.StorePrivateData(ctx, d, gen); err != nil {
			s.warn(ctx, "private data cache write failed", err)
		}
	}
	return d, nil
}

// cachedGeneration reads the triple's cache generation. fill is false when
// there is no cache or its generation is unreadable; such reads bypass the
// cache entirely.
func (s *Service) cachedGeneration(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (gen uint64, fill bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx, pid, attester, key)
	if err != nil {
		s.warn(ctx, "fact cache generation read failed", err)
		return 0, false
	}
	return gen, true
}

// Descriptor returns an existing private data descriptor straight from the
// store, joining the caller's transaction. Missing or deleted descriptors are
// NotFound.
func (s *Service) Descriptor(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, error) {
	d, err := s.lookupPrivateData(ctx, pid, attester, key)
	if err != nil {
		return nil, err
	}
	if !d.Exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "private data not found")
	}
	return d, nil
}

func (s *Service) lookupPrivateData(ctx context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, error) {
	d, err := s.store.GetPrivateData(ctx, pid, attester, key)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return &models.PrivateData{PassportID: pid, Attester: attester, Key: key}, nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load private data")
	}
	return d, nil
}

// SetPermissionMode switches the passport between open writes and
// allow-list-only writes. Owner only.
func (s *Service) SetPermissionMode(ctx context.Context, caller domain.Address, pid domain.PassportID, mode models.PermissionMode) error {
	if _, err := models.ParsePermissionMode(string(mode)); err != nil {
		return err
	}
	return s.ownerWrite(ctx, caller, pid, func(ctx context.Context) error {
		if err := s.store.SetPermissionMode(ctx, pid, mode); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set permission mode")
		}
		return s.emit(ctx, events.Event{
			PassportID: pid,
			Type:       events.TypePermissionModeChanged,
			Actor:      caller,
			Detail:     string(mode),
		})
	})
}

// AddToAllowList is idempotent; re-adding a listed attester emits nothing.
func (s *Service) AddToAllowList(ctx context.Context, caller domain.Address, pid domain.PassportID, attester domain.Address) error {
	if attester.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "attester cannot be the zero address")
	}
	return s.ownerWrite(ctx, caller, pid, func(ctx context.Context) error {
		added, err := s.store.AddToAllowList(ctx, pid, attester)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allow-list")
		}
		if !added {
			return nil
		}
		return s.emit(ctx, events.Event{PassportID: pid, Type: events.TypeAllowListAdded, Actor: caller, Attester: events.Ptr(attester)})
	})
}

func (s *Service) RemoveFromAllowList(ctx context.Context, caller domain.Address, pid domain.PassportID, attester domain.Address) error {
	return s.ownerWrite(ctx, caller, pid, func(ctx context.Context) error {
		removed, err := s.store.RemoveFromAllowList(ctx, pid, attester)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update allow-list")
		}
		if !removed {
			return nil
		}
		return s.emit(ctx, events.Event{PassportID: pid, Type: events.TypeAllowListRemoved, Actor: caller, Attester: events.Ptr(attester)})
	})
}

// IsAllowed reports whether attester may currently write into the passport.
func (s *Service) IsAllowed(ctx context.Context, pid domain.PassportID, attester domain.Address) (bool, error) {
	if _, err := s.gate.Active(ctx, pid); err != nil {
		return false, err
	}
	perms, err := s.store.Permissions(ctx, pid)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permissions")
	}
	return perms.Permits(attester), nil
}

// AllowList returns the permission mode and listed attesters.
func (s *Service) AllowList(ctx context.Context, pid domain.PassportID) (models.PermissionMode, []domain.Address, error) {
	if _, err := s.gate.Active(ctx, pid); err != nil {
		return "", nil, err
	}
	perms, err := s.store.Permissions(ctx, pid)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permissions")
	}
	list, err := s.store.ListAllowList(ctx, pid)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allow-list")
	}
	return perms.Mode, list, nil
}

// attesterWrite runs fn after the passport and permission gates pass, then
// drops the cached copy of the triple.
func (s *Service) attesterWrite(ctx context.Context, caller domain.Address, pid domain.PassportID, key domain.FactKey, fn func(ctx context.Context) error) error {
	err := s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		if _, err := s.gate.Mutable(ctx, pid); err != nil {
			return err
		}
		perms, err := s.store.Permissions(ctx, pid)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load permissions")
		}
		if !perms.Permits(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "attester is not on the allow-list")
		}
		return fn(ctx)
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, pid, caller, key); err != nil {
			s.warn(ctx, "fact cache invalidation failed", err)
		}
	}
	s.logAudit(ctx, "fact_write", "passport_id", pid, "attester", caller, "key", key)
	return nil
}

func (s *Service) ownerWrite(ctx context.Context, caller domain.Address, pid domain.PassportID, fn func(ctx context.Context) error) error {
	err := s.tx.RunInTx(ctx, pid.String(), func(ctx context.Context) error {
		p, err := s.gate.Mutable(ctx, pid)
		if err != nil {
			return err
		}
		if !p.IsOwner(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not the passport owner")
		}
		return fn(ctx)
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "permissions_changed", "passport_id", pid)
	return nil
}

func attesterEvent(t events.Type, pid domain.PassportID, attester domain.Address, key domain.FactKey) events.Event {
	return events.Event{
		PassportID: pid,
		Type:       t,
		Actor:      attester,
		Attester:   events.Ptr(attester),
		Key:        events.Ptr(key),
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
	}
	return nil
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.WarnContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
}

func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "log_type", "audit", "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}
