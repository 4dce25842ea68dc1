// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remotestore

import (
	"context"
	"errors"
	"time"

	"github.com/bureau-foundation/sitesearch/lib/clock"
)

// RetryPolicy retries transient store failures with exponential
// backoff. The Store never applies one itself; callers opt in around
// Open or individual reads.
type RetryPolicy struct {
	// Attempts is the total number of tries. Values below 1 mean one.
	Attempts int

	// InitialBackoff is the wait before the second attempt. Each
	// further wait doubles, capped at MaxBackoff when that is set.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done. It returns the last error from fn.
func (policy RetryPolicy) Do(ctx context.Context, c clock.Clock, fn func(context.Context) error) error {
	attempts := max(policy.Attempts, 1)
	backoff := policy.InitialBackoff

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil || attempt >= attempts || !Retryable(err) {
			return err
		}
		select {
		case <-c.After(backoff):
		case <-ctx.Done():
			return err
		}
		backoff *= 2
		if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}
}

// Retryable reports whether err is a transient fetch failure worth
// retrying: a chunk fetch failure or an unreachable manifest. Anything
// else is permanent.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return isChunkFetchError(err) || errors.Is(err, ErrManifestUnavailable)
}
