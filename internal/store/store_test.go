package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCRUD(t *testing.T) {
	s := New[string, int]()

	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Upsert("a", 1)
	s.Upsert("b", 2)

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, s.Len())

	s.Upsert("a", 10)
	v, _ = s.Get("a")
	assert.Equal(t, 10, v)

	s.Remove("a")
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New[string, int]()
	s.Upsert("a", 1)

	snapshot := s.GetAll()
	snapshot["a"] = 99
	snapshot["b"] = 2

	v, _ := s.Get("a")
	assert.Equal(t, 1, v, "mutating a snapshot must not touch the store")
	assert.Equal(t, 1, s.Len())
}

func TestReplaceAllDiscardsLocalState(t *testing.T) {
	s := New[string, int]()
	s.Upsert("local", 1)

	incoming := map[string]int{"x": 10, "y": 20}
	s.ReplaceAll(incoming)

	_, ok := s.Get("local")
	assert.False(t, ok, "ReplaceAll must discard records absent from the server snapshot")
	assert.Equal(t, 2, s.Len())

	// The caller's map is copied, not retained
	incoming["z"] = 30
	assert.Equal(t, 2, s.Len())
}
