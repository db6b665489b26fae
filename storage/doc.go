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


// Package storage provides the partitioned-store abstraction for lexbase.
//
// Entities are addressed by a three-level hierarchical Key (tenant,
// category, item). The first two levels form the sub-partition within
// which range queries are guaranteed efficient; point reads and
// conditional writes always target a full key.
//
// # Generic repositories
//
// Repository is parameterized over any type carrying the Entity
// capability (hierarchical key + store-managed version). Concrete
// entity repositories compose the generic operations instead of
// subclassing behavior:
//
//	repo, err := badger.NewEntityRepository(backend)  // Repository[*core.KnowledgeEntity]
//
// # Failure taxonomy
//
// All operations fail with one of the package sentinels: ErrNotFound
// (absent key, returned as an empty result), ErrDuplicateKey (create of
// an existing key), ErrConflict (optimistic concurrency violation, never
// retried automatically), ErrThrottled and ErrUnavailable (transient,
// retried with bounded exponential backoff via RetryWithBackoff), and
// ErrInvalid (malformed key or entity, fatal to the operation). Use
// errors.Is to classify and IsRetryable to drive retry decisions.
//
// # Concurrency tokens and soft delete
//
// Every write returns an opaque ETag. Update and tokened Delete require
// the caller's token to match the stored one and fail with ErrConflict
// otherwise, performing no mutation. SoftDelete marks an entity with an
// expiry instead of removing it; expired entities are excluded from
// normal reads but remain queryable with IncludeExpired.
//
// # Thread safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
