package session

import (
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
)

var (
	bucketSessions   = []byte("sessions")
	bucketChainIndex = []byte("chain_index")
)

// BoltStore persists SessionBlueprints in a BoltDB file. Because BoltDB
// serializes all Update() transactions against one file, the CAS check and
// the write happen inside a single transaction and are therefore
// race-free — exactly the "mutex + version field" primitive the Design
// Notes call for, with BoltDB supplying the mutex.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) a BoltDB file at path and ensures
// its buckets exist.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSessions); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketChainIndex)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying BoltDB handle.
func (s *BoltStore) Close() error { return s.db.Close() }

func (s *BoltStore) Get(sessionId string) (*Blueprint, error) {
	var bp Blueprint
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(sessionId))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &bp)
	})
	if err != nil {
		return nil, err
	}
	return &bp, nil
}

func (s *BoltStore) GetByChainID(chainId string, includeDormant bool) (*Blueprint, error) {
	var sessionId string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketChainIndex).Get([]byte(chainId))
		if v == nil {
			return ErrNotFound
		}
		sessionId = string(v)
		return nil
	})
	if err != nil {
		return nil, err
	}

	bp, err := s.Get(sessionId)
	if err != nil {
		return nil, err
	}
	if !includeDormant && bp.IsComplete() {
		return nil, ErrNotFound
	}
	return bp, nil
}

func (s *BoltStore) Put(bp *Blueprint) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.putLocked(tx, bp, bp.Version+1)
	})
}

func (s *BoltStore) PutCAS(bp *Blueprint, expectedVersion int) (*Blueprint, error) {
	var stored Blueprint
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		existing := b.Get([]byte(bp.SessionID))

		currentVersion := 0
		if existing != nil {
			var current Blueprint
			if err := json.Unmarshal(existing, &current); err != nil {
				return err
			}
			currentVersion = current.Version
		} else if expectedVersion != 0 {
			return ErrCASConflict
		}

		if currentVersion != expectedVersion {
			return ErrCASConflict
		}

		stored = *bp
		stored.Version = expectedVersion + 1
		return s.putLocked(tx, &stored, stored.Version)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *BoltStore) putLocked(tx *bolt.Tx, bp *Blueprint, version int) error {
	cp := *bp
	cp.Version = version
	data, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	if err := tx.Bucket(bucketSessions).Put([]byte(cp.SessionID), data); err != nil {
		return err
	}
	if cp.ChainID != "" {
		if err := tx.Bucket(bucketChainIndex).Put([]byte(cp.ChainID), []byte(cp.SessionID)); err != nil {
			return err
		}
	}
	*bp = cp
	return nil
}

func (s *BoltStore) Delete(sessionId string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		data := b.Get([]byte(sessionId))
		if data != nil {
			var bp Blueprint
			if err := json.Unmarshal(data, &bp); err == nil && bp.ChainID != "" {
				_ = tx.Bucket(bucketChainIndex).Delete([]byte(bp.ChainID))
			}
		}
		return b.Delete([]byte(sessionId))
	})
}

func (s *BoltStore) ChainContext(sessionId string) (map[string]interface{}, error) {
	bp, err := s.Get(sessionId)
	if err != nil {
		return nil, err
	}
	if bp.ChainContext == nil {
		return map[string]interface{}{}, nil
	}
	return bp.ChainContext, nil
}
