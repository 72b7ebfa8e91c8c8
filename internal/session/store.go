package session

import "errors"

// ErrNotFound is returned when a sessionId has no stored blueprint.
var ErrNotFound = errors.New("session: blueprint not found")

// ErrCASConflict is returned by PutCAS when expectedVersion does not match
// the stored blueprint's current version (spec.md §5, §8 "CAS on session
// store"): the loser must retry against the fresh value.
var ErrCASConflict = errors.New("session: compare-and-swap conflict")

// Store is the Chain Session Store of spec.md §6.4.
type Store interface {
	// Get returns the blueprint for sessionId.
	Get(sessionId string) (*Blueprint, error)

	// GetByChainID finds a blueprint by its chainId (the resumption token
	// handed back to the caller). When includeDormant is false, only
	// non-complete blueprints are considered.
	GetByChainID(chainId string, includeDormant bool) (*Blueprint, error)

	// Put unconditionally stores (inserts or replaces) a blueprint,
	// incrementing its version.
	Put(bp *Blueprint) error

	// PutCAS stores bp only if the currently-persisted blueprint's Version
	// equals expectedVersion (0 for "must not exist yet"). On success the
	// stored copy's Version is bumped and returned. On conflict it returns
	// ErrCASConflict and the caller should re-Get and retry.
	PutCAS(bp *Blueprint, expectedVersion int) (*Blueprint, error)

	// Delete removes a blueprint (chain completion or abort).
	Delete(sessionId string) error

	// ChainContext returns the accumulated variableName -> value map for
	// sessionId (spec.md §6.4 getChainContext).
	ChainContext(sessionId string) (map[string]interface{}, error)
}
