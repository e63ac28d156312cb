package store

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"passport/internal/facts/models"
	"passport/pkg/domain"
	"passport/pkg/platform/sentinel"
	txcontext "passport/pkg/platform/tx"
)

type recordKey struct {
	passport domain.PassportID
	attester domain.Address
	key      domain.FactKey
}

// InMemoryStore keeps facts, descriptors and permissions in process memory.
type InMemoryStore struct {
	mu          sync.RWMutex
	facts       map[recordKey]models.Fact
	privateData map[recordKey]models.PrivateData
	modes       map[domain.PassportID]models.PermissionMode
	allowList   map[domain.PassportID]map[domain.Address]struct{}
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		facts:       make(map[recordKey]models.Fact),
		privateData: make(map[recordKey]models.PrivateData),
		modes:       make(map[domain.PassportID]models.PermissionMode),
		allowList:   make(map[domain.PassportID]map[domain.Address]struct{}),
	}
}

func (s *InMemoryStore) GetFact(_ context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facts[recordKey{pid, attester, key}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &f, nil
}

func (s *InMemoryStore) PutFact(ctx context.Context, f *models.Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{f.PassportID, f.Attester, f.Key}
	prev, existed := s.facts[k]
	s.facts[k] = *f

	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.facts[k] = prev
			return
		}
		delete(s.facts, k)
	})
	return nil
}

func (s *InMemoryStore) GetPrivateData(_ context.Context, pid domain.PassportID, attester domain.Address, key domain.FactKey) (*models.PrivateData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.privateData[recordKey{pid, attester, key}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

func (s *InMemoryStore) PutPrivateData(ctx context.Context, d *models.PrivateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{d.PassportID, d.Attester, d.Key}
	prev, existed := s.privateData[k]
	s.privateData[k] = *d

	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.privateData[k] = prev
			return
		}
		delete(s.privateData, k)
	})
	return nil
}

// Permissions returns the passport's mode and a copy of its allow-list.
// Passports that never set a mode are open.
func (s *InMemoryStore) Permissions(_ context.Context, pid domain.PassportID) (models.Permissions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mode, ok := s.modes[pid]
	if !ok {
		mode = models.ModeOpen
	}
	list := make(map[domain.Address]struct{}, len(s.allowList[pid]))
	for a := range s.allowList[pid] {
		list[a] = struct{}{}
	}
	return models.Permissions{Mode: mode, AllowList: list}, nil
}

func (s *InMemoryStore) SetPermissionMode(ctx context.Context, pid domain.PassportID, mode models.PermissionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.modes[pid]
	s.modes[pid] = mode

	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.modes[pid] = prev
			return
		}
		delete(s.modes, pid)
	})
	return nil
}

// AddToAllowList reports false when the attester was already listed.
func (s *InMemoryStore) AddToAllowList(ctx context.Context, pid domain.PassportID, attester domain.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.allowList[pid]
	if !ok {
		list = make(map[domain.Address]struct{})
		s.allowList[pid] = list
	}
	if _, listed := list[attester]; listed {
		return false, nil
	}
	list[attester] = struct{}{}
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.allowList[pid], attester)
	})
	return true, nil
}

// RemoveFromAllowList reports false when the attester was not listed.
func (s *InMemoryStore) RemoveFromAllowList(ctx context.Context, pid domain.PassportID, attester domain.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, listed := s.allowList[pid][attester]; !listed {
		return false, nil
	}
	delete(s.allowList[pid], attester)
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.allowList[pid][attester] = struct{}{}
	})
	return true, nil
}

// ListAllowList returns listed attesters in ascending byte order.
func (s *InMemoryStore) ListAllowList(_ context.Context, pid domain.PassportID) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Address, 0, len(s.allowList[pid]))
	for a := range s.allowList[pid] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out, nil
}
