// Package cache holds the most recent server result per request fingerprint.
//
// A Collection is a value: Put returns a new Collection and never touches the
// receiver, so a Collection embedded in a state snapshot can be handed to any
// number of readers without coordination. There is no TTL, size bound or
// eviction; entries live as long as the process and a later Put for the same
// key replaces the earlier one wholesale.
package cache

import (
	"maps"
	"slices"
)

// Entry is the cached result for one fingerprint.
type Entry[T any] struct {
	Key   string
	Items []T
}

// Collection maps fingerprints to their latest Entry.
// The zero value is an empty collection ready for use.
type Collection[T any] struct {
	entries map[string][]T
}

// Get returns the entry stored under key.
func (c Collection[T]) Get(key string) (Entry[T], bool) {
	items, ok := c.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	return Entry[T]{Key: key, Items: cloneItems(items)}, true
}

// Items is Get without the presence flag; absent keys yield nil.
func (c Collection[T]) Items(key string) []T {
	return cloneItems(c.entries[key])
}

// Has reports whether key has been stored, even with an empty payload.
func (c Collection[T]) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Put returns a collection in which key maps to items.
func (c Collection[T]) Put(key string, items []T) Collection[T] {
	next := make(map[string][]T, len(c.entries)+1)
	maps.Copy(next, c.entries)
	next[key] = cloneItems(items)
	return Collection[T]{entries: next}
}

// Keys lists the stored fingerprints in ascending order.
func (c Collection[T]) Keys() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Len returns the number of stored fingerprints.
func (c Collection[T]) Len() int {
	return len(c.entries)
}

func cloneItems[T any](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
