package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEntry struct {
	id, name string
}

func (f fakeEntry) EntryID() string   { return f.id }
func (f fakeEntry) EntryName() string { return f.name }

func TestStore_ResolveByIDOrName(t *testing.T) {
	s := NewStore[fakeEntry]()
	s.Put(fakeEntry{id: "greet", name: "Greeting Prompt"})

	v, ok := s.Resolve("GREET")
	assert.True(t, ok)
	assert.Equal(t, "greet", v.id)

	v, ok = s.Resolve("greeting prompt")
	assert.True(t, ok)
	assert.Equal(t, "greet", v.id)

	_, ok = s.Resolve("missing")
	assert.False(t, ok)
}

func TestStore_PutReplacesAtomically(t *testing.T) {
	s := NewStore[fakeEntry]()
	s.Put(fakeEntry{id: "a", name: "A"})
	s.Put(fakeEntry{id: "a", name: "A renamed"})

	assert.Equal(t, 1, s.Len())
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A renamed", v.name)
}

func TestStore_Delete(t *testing.T) {
	s := NewStore[fakeEntry]()
	s.Put(fakeEntry{id: "a", name: "A"})
	s.Delete("A")
	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}
