package storage

import (
	"context"
	"fmt"
	"time"
)

// Key is the three-level hierarchical key addressing one stored entity.
// The first two levels (tenant + category) form the sub-partition within
// which range queries are efficient; the third level identifies the item.
type Key struct {
	TenantID string
	Category string
	ItemID   string
}

// Partition identifies a sub-partition: the set of entities sharing the
// first two key levels.
type Partition struct {
	TenantID string
	Category string
}

// Validate checks that all three key levels are present.
func (k Key) Validate() error {
	if k.TenantID == "" || k.Category == "" || k.ItemID == "" {
		return fmt.Errorf("%w: incomplete key %q", ErrInvalid, k.String())
	}
	return nil
}

// Partition returns the sub-partition the key belongs to.
func (k Key) Partition() Partition {
	return Partition{TenantID: k.TenantID, Category: k.Category}
}

func (k Key) String() string {
	return k.TenantID + "/" + k.Category + "/" + k.ItemID
}

// Validate checks that both partition levels are present.
func (p Partition) Validate() error {
	if p.TenantID == "" || p.Category == "" {
		return fmt.Errorf("%w: incomplete partition %s/%s", ErrInvalid, p.TenantID, p.Category)
	}
	return nil
}

// Entity is the capability an entity type must carry to be stored: a
// hierarchical key plus a store-managed version.
type Entity interface {
	// EntityKey returns the three levels of the hierarchical key.
	EntityKey() (tenantID, category, itemID string)

	// EntityVersion returns the current version of the entity.
	EntityVersion() uint64

	// SetEntityVersion records the version assigned by the store.
	SetEntityVersion(v uint64)
}

// KeyOf builds a Key from an entity's key parts.
func KeyOf(e Entity) Key {
	tenant, category, item := e.EntityKey()
	return Key{TenantID: tenant, Category: category, ItemID: item}
}

// Codec serializes entities of one type for storage.
type Codec[T Entity] interface {
	Marshal(entity T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// Item couples an entity with its store-level metadata.
type Item[T Entity] struct {
	Entity T

	// ETag is the opaque optimistic concurrency token for the stored
	// state. It changes on every write.
	ETag string

	// ExpiresAt is non-zero when the entity has been soft-deleted.
	ExpiresAt time.Time
}

// Expired reports whether the item has been soft-deleted as of now.
func (it *Item[T]) Expired(now time.Time) bool {
	return !it.ExpiresAt.IsZero() && !now.Before(it.ExpiresAt)
}

// Query scopes a partition scan.
type Query[T Entity] struct {
	// Limit caps the number of items returned per page. Non-positive
	// means the implementation default.
	Limit int

	// Cursor continues a previous page. Empty starts from the beginning
	// of the partition.
	Cursor string

	// IncludeExpired also returns soft-deleted entities.
	IncludeExpired bool

	// Filter, when set, keeps only matching entities. Filtered-out
	// items do not count against Limit.
	Filter func(entity T) bool
}

// Page is one page of query results.
type Page[T Entity] struct {
	Items []*Item[T]

	// NextCursor is non-empty when more results remain.
	NextCursor string
}

// BatchItemResult is the outcome of one item within a batched write.
type BatchItemResult struct {
	Key      Key
	ETag     string
	Attempts int
	Err      error
}

// BatchCost is aggregate cost metadata for a batched write.
type BatchCost struct {
	BytesWritten int64
	Elapsed      time.Duration
}

// BatchWriteResult holds per-item results plus aggregate cost for a
// batched write. Items is parallel to the input slice; a failure of one
// item does not abort the others.
type BatchWriteResult struct {
	Items []BatchItemResult
	Cost  BatchCost
}

// Succeeded returns the number of items written.
func (r *BatchWriteResult) Succeeded() int {
	n := 0
	for i := range r.Items {
		if r.Items[i].Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of items that permanently failed.
func (r *BatchWriteResult) Failed() int {
	return len(r.Items) - r.Succeeded()
}

// Repository provides generic CRUD, query and batch operations over a
// partitioned store for one entity type. Implementations must be
// thread-safe and support concurrent access.
type Repository[T Entity] interface {
	// Create stores a new entity. The key must not already exist within
	// its sub-partition; returns ErrDuplicateKey when it does. On
	// success the entity's version is 1 and a fresh concurrency token is
	// returned.
	Create(ctx context.Context, entity T) (*Item[T], error)

	// Get performs a point lookup scoped to the exact hierarchical key.
	// Soft-deleted entities are treated as absent. Returns ErrNotFound
	// when the key is absent.
	Get(ctx context.Context, key Key) (*Item[T], error)

	// Update overwrites an existing entity. The supplied token must
	// match the stored one; on mismatch the call fails with ErrConflict
	// and performs no write. The version increments on success.
	Update(ctx context.Context, entity T, etag string) (*Item[T], error)

	// Upsert creates the entity if absent or overwrites it if present,
	// keyed by its identity, incrementing the version either way.
	Upsert(ctx context.Context, entity T) (*Item[T], error)

	// Delete removes the entity. A non-empty token enforces optimistic
	// concurrency as in Update; an empty token deletes unconditionally.
	Delete(ctx context.Context, key Key, etag string) error

	// SoftDelete marks the entity with an expiry instead of removing it.
	// Expired entities are excluded from Get and from queries unless
	// IncludeExpired is set.
	SoftDelete(ctx context.Context, key Key, ttl time.Duration) error

	// QueryPartition scans a single sub-partition, returning one page
	// plus a continuation cursor when more results remain. Never fans
	// out across partitions.
	QueryPartition(ctx context.Context, partition Partition, query Query[T]) (*Page[T], error)

	// BatchPut writes entities in parallel within one sub-partition and
	// returns per-item results plus aggregate cost. With upsert false
	// each item uses Create semantics, otherwise Upsert semantics.
	// Transient per-item failures are retried per the repository's retry
	// policy before being reported as failed.
	BatchPut(ctx context.Context, entities []T, upsert bool) (*BatchWriteResult, error)

	// Count returns the number of entities, optionally scoped to one
	// partition (nil counts the whole store). The query's Filter and
	// IncludeExpired are honored; Limit and Cursor are ignored.
	Count(ctx context.Context, partition *Partition, query Query[T]) (int, error)

	// Close releases repository resources.
	Close() error
}
