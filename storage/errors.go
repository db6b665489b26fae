// Copyright 2026 Caselode
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested entity was not found.
	// It is never retried; callers treat it as an empty result.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey indicates a create for a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict indicates an optimistic concurrency violation: the
	// caller's token no longer matches the stored one. Not retried
	// automatically; the caller must re-read and retry.
	ErrConflict = errors.New("concurrency token mismatch")

	// ErrThrottled indicates a transient capacity rejection by the store.
	// Retried with backoff.
	ErrThrottled = errors.New("store throttled")

	// ErrUnavailable indicates a transient connectivity failure.
	// Retried with backoff.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInvalid indicates a malformed key or entity. Fatal for the
	// calling operation, never retried.
	ErrInvalid = errors.New("invalid key or entity")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")

	// ErrInvalidMaxAttempts indicates a retry policy configured with a
	// non-positive attempt ceiling.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)

// IsRetryable reports whether an operation that failed with err may
// succeed on a later attempt. Only throttling and availability failures
// qualify; conflicts, duplicates and validation failures never do.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrThrottled) || errors.Is(err, ErrUnavailable)
}
