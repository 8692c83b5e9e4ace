// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package results

import "github.com/telekom/gradenotify/pkg/score"

// Entry is a single key/value pair of an Ordered map.
type Entry[T any] struct {
	Key   string
	Value T
}

// Ordered is a map that remembers insertion order.
type Ordered[T any] struct {
	keys   []string
	values map[string]T
}

// Scores maps student identifiers to their score.
type Scores = Ordered[score.Score]

// Rows maps student identifiers to the remaining raw columns of their row.
type Rows = Ordered[[]string]

// Records maps the key field of each row to the other named fields.
type Records = Ordered[map[string]string]

// Set stores v under k. Existing keys keep their position.
func (o *Ordered[T]) Set(k string, v T) {
	if o.values == nil {
		o.values = make(map[string]T)
	}
	if _, ok := o.values[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
}

// Get returns the value stored under k.
func (o *Ordered[T]) Get(k string) (T, bool) {
	v, ok := o.values[k]
	return v, ok
}

// Len returns the number of distinct keys.
func (o *Ordered[T]) Len() int {
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Ordered[T]) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Entries returns all key/value pairs in insertion order.
func (o *Ordered[T]) Entries() []Entry[T] {
	out := make([]Entry[T], 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, Entry[T]{Key: k, Value: o.values[k]})
	}
	return out
}
