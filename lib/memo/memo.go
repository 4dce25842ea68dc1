// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package memo caches the results of keyed asynchronous loads.
//
// A Memo holds completed values and the set of loads in flight. Get
// returns a cached value immediately, joins an in-flight load for the
// same key, or starts a new one. At most one load per key runs at a
// time, so concurrent readers of the same missing value share a single
// fetch.
//
// Loads run detached from the caller's cancellation: a caller that
// gives up returns ctx.Err() at once, while the load it started still
// completes and populates the cache for the next caller. Failed loads
// are not cached; the next Get retries.
//
// The cache is unbounded. Entries are only dropped by Reset.
package memo

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo is a keyed cache of loaded values. The zero value is ready to
// use. A Memo must not be copied after first use.
type Memo[V any] struct {
	mu         sync.Mutex
	values     map[string]V
	generation uint64
	group      singleflight.Group

	// waiting, when set, is called once a Get has joined or started
	// the load for its key and is about to block on it.
	waiting func(key string)
}

// Get returns the value for key, loading it with load if absent.
func (m *Memo[V]) Get(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if value, ok := m.Peek(key); ok {
		return value, nil
	}

	detached := context.WithoutCancel(ctx)
	channel := m.group.DoChan(key, func() (any, error) {
		// A load for this key may have completed between Peek and
		// DoChan.
		if value, ok := m.Peek(key); ok {
			return value, nil
		}
		m.mu.Lock()
		generation := m.generation
		m.mu.Unlock()

		value, err := load(detached)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		if m.generation == generation {
			if m.values == nil {
				m.values = make(map[string]V)
			}
			m.values[key] = value
		}
		m.mu.Unlock()
		return value, nil
	})

	if m.waiting != nil {
		m.waiting(key)
	}

	var zero V
	select {
	case outcome := <-channel:
		if outcome.Err != nil {
			return zero, outcome.Err
		}
		return outcome.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Peek returns the cached value for key without loading.
func (m *Memo[V]) Peek(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok
}

// Len returns the number of cached values.
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Reset drops every cached value. Loads already in flight complete for
// their waiting callers but are not cached.
func (m *Memo[V]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = nil
	m.generation++
}
