package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollection_ZeroValueIsEmpty(t *testing.T) {
	var c Collection[string]

	_, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, c.Items("missing"))
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestCollection_PutDoesNotMutateReceiver(t *testing.T) {
	var base Collection[int]
	next := base.Put("a", []int{1, 2})

	assert.False(t, base.Has("a"))
	entry, ok := next.Get("a")
	require.True(t, ok)
	assert.Equal(t, Entry[int]{Key: "a", Items: []int{1, 2}}, entry)
}

func TestCollection_PutReplacesEntry(t *testing.T) {
	c := Collection[int]{}.Put("page", []int{1, 2, 3}).Put("page", []int{4})

	assert.Equal(t, []int{4}, c.Items("page"))
	assert.Equal(t, 1, c.Len())
}

func TestCollection_PutIsIdempotent(t *testing.T) {
	items := []string{"x", "y"}
	once := Collection[string]{}.Put("k", items)
	twice := once.Put("k", items)

	a, _ := once.Get("k")
	b, _ := twice.Get("k")
	assert.Equal(t, a, b)
	assert.Equal(t, once.Keys(), twice.Keys())
}

func TestCollection_IndependentKeys(t *testing.T) {
	c := Collection[string]{}.Put("b", []string{"2"}).Put("a", []string{"1"})

	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Equal(t, []string{"1"}, c.Items("a"))
	assert.Equal(t, []string{"2"}, c.Items("b"))
}

func TestCollection_EntriesAreCopied(t *testing.T) {
	src := []int{1, 2}
	c := Collection[int]{}.Put("k", src)

	src[0] = 99
	got := c.Items("k")
	assert.Equal(t, 1, got[0], "Put should copy the payload")

	got[1] = 42
	assert.Equal(t, []int{1, 2}, c.Items("k"), "Get should return a copy")
}

func TestCollection_EmptyPayloadIsStored(t *testing.T) {
	c := Collection[int]{}.Put("empty", []int{})

	assert.True(t, c.Has("empty"))
	entry, ok := c.Get("empty")
	require.True(t, ok)
	assert.Empty(t, entry.Items)
}
