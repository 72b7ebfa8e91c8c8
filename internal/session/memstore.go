package session

import (
	"sync"
	"time"
)

// MemStore is an in-memory Store, used by tests and by the CLI's
// single-shot `enginectl run` command where no durable session is needed.
// It implements the same CAS contract as BoltStore under a single mutex.
type MemStore struct {
	mu         sync.Mutex
	bySession  map[string]*Blueprint
	byChain    map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		bySession: make(map[string]*Blueprint),
		byChain:   make(map[string]string),
	}
}

func (s *MemStore) Get(sessionId string) (*Blueprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.bySession[sessionId]
	if !ok {
		return nil, ErrNotFound
	}
	return bp.Clone(), nil
}

func (s *MemStore) GetByChainID(chainId string, includeDormant bool) (*Blueprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionId, ok := s.byChain[chainId]
	if !ok {
		return nil, ErrNotFound
	}
	bp, ok := s.bySession[sessionId]
	if !ok {
		return nil, ErrNotFound
	}
	if !includeDormant && bp.IsComplete() {
		return nil, ErrNotFound
	}
	return bp.Clone(), nil
}

func (s *MemStore) Put(bp *Blueprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := bp.Clone()
	cp.Version++
	cp.UpdatedAt = time.Now()
	s.bySession[cp.SessionID] = cp
	if cp.ChainID != "" {
		s.byChain[cp.ChainID] = cp.SessionID
	}
	*bp = *cp
	return nil
}

func (s *MemStore) PutCAS(bp *Blueprint, expectedVersion int) (*Blueprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bySession[bp.SessionID]
	currentVersion := 0
	if ok {
		currentVersion = existing.Version
	} else if expectedVersion != 0 {
		return nil, ErrCASConflict
	}
	if currentVersion != expectedVersion {
		return nil, ErrCASConflict
	}

	cp := bp.Clone()
	cp.Version = expectedVersion + 1
	cp.UpdatedAt = time.Now()
	s.bySession[cp.SessionID] = cp
	if cp.ChainID != "" {
		s.byChain[cp.ChainID] = cp.SessionID
	}
	return cp.Clone(), nil
}

func (s *MemStore) Delete(sessionId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bp, ok := s.bySession[sessionId]; ok && bp.ChainID != "" {
		delete(s.byChain, bp.ChainID)
	}
	delete(s.bySession, sessionId)
	return nil
}

func (s *MemStore) ChainContext(sessionId string) (map[string]interface{}, error) {
	bp, err := s.Get(sessionId)
	if err != nil {
		return nil, err
	}
	if bp.ChainContext == nil {
		return map[string]interface{}{}, nil
	}
	return bp.ChainContext, nil
}
