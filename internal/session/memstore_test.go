package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_PutCAS_FirstInsertRequiresZero(t *testing.T) {
	s := NewMemStore()
	bp := &Blueprint{SessionID: "s1", ChainID: "c1", TotalSteps: 3}

	_, err := s.PutCAS(bp, 1)
	assert.ErrorIs(t, err, ErrCASConflict)

	stored, err := s.PutCAS(bp, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
}

func TestMemStore_PutCAS_ConflictOnStaleVersion(t *testing.T) {
	s := NewMemStore()
	bp := &Blueprint{SessionID: "s1", ChainID: "c1", TotalSteps: 3}
	first, err := s.PutCAS(bp, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	_, err = s.PutCAS(bp, 0)
	assert.ErrorIs(t, err, ErrCASConflict)

	second, err := s.PutCAS(first, first.Version)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
}

func TestMemStore_GetByChainID_ExcludesDormantByDefault(t *testing.T) {
	s := NewMemStore()
	bp := &Blueprint{SessionID: "s1", ChainID: "c1", CurrentStep: 4, TotalSteps: 3}
	_, err := s.PutCAS(bp, 0)
	require.NoError(t, err)

	_, err = s.GetByChainID("c1", false)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetByChainID("c1", true)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
}

func TestMemStore_CloneIsolatesCallerMutations(t *testing.T) {
	s := NewMemStore()
	bp := &Blueprint{SessionID: "s1", ChainID: "c1", ChainContext: map[string]interface{}{"x": "1"}}
	_, err := s.PutCAS(bp, 0)
	require.NoError(t, err)

	got, err := s.Get("s1")
	require.NoError(t, err)
	got.ChainContext["x"] = "mutated"

	got2, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "1", got2.ChainContext["x"])
}

func TestMemStore_Delete(t *testing.T) {
	s := NewMemStore()
	bp := &Blueprint{SessionID: "s1", ChainID: "c1"}
	_, err := s.PutCAS(bp, 0)
	require.NoError(t, err)

	require.NoError(t, s.Delete("s1"))
	_, err = s.Get("s1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetByChainID("c1", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
