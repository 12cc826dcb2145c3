// Copyright (c) 2024-2025 The dllm-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package poll drives the periodic fetches behind every view and holds
// their latest results.
//
// A failed poll never clears data: the last good value stays on screen next
// to the error until a later poll succeeds.
package poll

import "time"

// Snapshot is the latest state of one polled source.
type Snapshot[T any] struct {
	Value     T
	Err       error
	UpdatedAt time.Time
	FailedAt  time.Time
	Loaded    bool
}

// Apply records a poll result. Success replaces the value and clears the
// error; failure keeps the value and records the error.
func (s *Snapshot[T]) Apply(v T, err error, at time.Time) {
	if err != nil {
		s.Err = err
		s.FailedAt = at
		return
	}
	s.Value = v
	s.Err = nil
	s.UpdatedAt = at
	s.Loaded = true
}

// Stale reports whether the shown value predates the latest failure.
func (s *Snapshot[T]) Stale() bool {
	return s.Err != nil && s.Loaded
}

// Loading reports whether nothing has arrived yet and no error either.
func (s *Snapshot[T]) Loading() bool {
	return !s.Loaded && s.Err == nil
}
