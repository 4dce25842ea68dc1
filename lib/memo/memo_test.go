// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/sitesearch/lib/testutil"
)

func TestGetCachesValue(t *testing.T) {
	var memo Memo[string]
	var loads atomic.Int32
	load := func(context.Context) (string, error) {
		loads.Add(1)
		return "value", nil
	}

	for range 3 {
		value, err := memo.Get(context.Background(), "key", load)
		if err != nil || value != "value" {
			t.Fatalf("Get = %q, %v", value, err)
		}
	}
	if loads.Load() != 1 {
		t.Errorf("load ran %d times, want 1", loads.Load())
	}
	if memo.Len() != 1 {
		t.Errorf("Len = %d, want 1", memo.Len())
	}
}

func TestConcurrentGetsShareOneLoad(t *testing.T) {
	const callers = 8

	var memo Memo[int]
	var loads, waiting atomic.Int32
	allWaiting := make(chan struct{})
	memo.waiting = func(string) {
		if waiting.Add(1) == callers {
			close(allWaiting)
		}
	}
	release := make(chan struct{})
	load := func(context.Context) (int, error) {
		loads.Add(1)
		<-release
		return 42, nil
	}

	results := make(chan int, callers)
	var waitGroup sync.WaitGroup
	for range callers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			value, err := memo.Get(context.Background(), "chunk.0", load)
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			results <- value
		}()
	}

	// Every caller is blocked on a load before any load may finish, so
	// none of them can be answered from the cache.
	testutil.RequireClosed(t, allWaiting, 5*time.Second, "all callers waiting")
	close(release)
	waitGroup.Wait()
	close(results)

	for value := range results {
		if value != 42 {
			t.Errorf("caller received %d, want 42", value)
		}
	}
	if loads.Load() != 1 {
		t.Errorf("load ran %d times, want 1", loads.Load())
	}
}

func TestFailedLoadIsNotCached(t *testing.T) {
	var memo Memo[string]
	failure := errors.New("fetch failed")

	_, err := memo.Get(context.Background(), "key", func(context.Context) (string, error) {
		return "", failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("got %v, want %v", err, failure)
	}
	if memo.Len() != 0 {
		t.Fatalf("failed load was cached")
	}

	value, err := memo.Get(context.Background(), "key", func(context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil || value != "recovered" {
		t.Errorf("retry Get = %q, %v", value, err)
	}
}

func TestCancelledCallerStillPopulatesCache(t *testing.T) {
	var memo Memo[string]
	release := make(chan struct{})
	loadDone := make(chan struct{})
	var loadContextErr atomic.Value

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := memo.Get(ctx, "key", func(loadContext context.Context) (string, error) {
			defer close(loadDone)
			<-release
			if err := loadContext.Err(); err != nil {
				loadContextErr.Store(err)
			}
			return "late", nil
		})
		errs <- err
	}()

	cancel()
	err := testutil.RequireReceive(t, errs, 5*time.Second, "cancelled Get returns")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	close(release)
	testutil.RequireClosed(t, loadDone, 5*time.Second, "detached load finishes")
	if stored := loadContextErr.Load(); stored != nil {
		t.Errorf("load observed cancellation: %v", stored)
	}

	value, err := memo.Get(context.Background(), "key", func(context.Context) (string, error) {
		t.Error("value should already be cached")
		return "", nil
	})
	if err != nil || value != "late" {
		t.Errorf("Get after detached load = %q, %v", value, err)
	}
}

func TestReset(t *testing.T) {
	var memo Memo[int]
	memo.Get(context.Background(), "a", func(context.Context) (int, error) { return 1, nil })
	memo.Get(context.Background(), "b", func(context.Context) (int, error) { return 2, nil })
	if memo.Len() != 2 {
		t.Fatalf("Len = %d", memo.Len())
	}
	memo.Reset()
	if memo.Len() != 0 {
		t.Errorf("Len after Reset = %d", memo.Len())
	}
	if _, ok := memo.Peek("a"); ok {
		t.Error("Peek found a value after Reset")
	}
}
