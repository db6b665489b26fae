package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/caselode/lexbase/storage"
)

const (
	defaultPoolSize   = 10
	defaultPageSize   = 50
	defaultMaxRetries = 3
	defaultRetryDelay = 100 * time.Millisecond
)

// Repository implements storage.Repository over a BadgerDB backend.
// One Repository serves one entity type; the codec defines its stored
// format. Batched writes are dispatched on a bounded worker pool.
type Repository[T storage.Entity] struct {
	backend    *Backend
	codec      storage.Codec[T]
	pool       *ants.Pool
	pageSize   int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Repository.
type Option[T storage.Entity] func(*Repository[T]) error

// WithPoolSize sets the worker pool size for batched writes.
// Default is 10, matching the default ingestion batch size.
func WithPoolSize[T storage.Entity](size int) Option[T] {
	return func(r *Repository[T]) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithRetryPolicy sets the per-operation retry ceiling and base backoff
// delay for transient store failures.
func WithRetryPolicy[T storage.Entity](maxAttempts int, baseDelay time.Duration) Option[T] {
	return func(r *Repository[T]) error {
		if maxAttempts <= 0 {
			return storage.ErrInvalidMaxAttempts
		}
		r.maxRetries = maxAttempts
		r.retryDelay = baseDelay
		return nil
	}
}

// WithPageSize sets the default page size for partition queries.
func WithPageSize[T storage.Entity](size int) Option[T] {
	return func(r *Repository[T]) error {
		if size < 1 {
			size = 1
		}
		r.pageSize = size
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger[T storage.Entity](logger *slog.Logger) Option[T] {
	return func(r *Repository[T]) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRepository creates a repository for one entity type on a backend.
func NewRepository[T storage.Entity](backend *Backend, codec storage.Codec[T], opts ...Option[T]) (*Repository[T], error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", storage.ErrInvalid)
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: nil codec", storage.ErrInvalid)
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	r := &Repository[T]{
		backend:    backend,
		codec:      codec,
		pool:       pool,
		pageSize:   defaultPageSize,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.pool.Release()
			return nil, optErr
		}
	}

	return r, nil
}

// Close releases the worker pool. The backend is owned by the caller.
func (r *Repository[T]) Close() error {
	r.pool.Release()
	return nil
}

// Create stores a new entity under its full hierarchical key.
func (r *Repository[T]) Create(ctx context.Context, entity T) (*storage.Item[T], error) {
	var item *storage.Item[T]
	err := storage.RetryWithBackoff(ctx, func() error {
		var err error
		item, _, err = r.putOnce(entity, false)
		return err
	}, r.maxRetries, r.retryDelay)
	return item, err
}

// Upsert creates the entity if absent or overwrites it if present,
// incrementing the stored version either way.
func (r *Repository[T]) Upsert(ctx context.Context, entity T) (*storage.Item[T], error) {
	var item *storage.Item[T]
	err := storage.RetryWithBackoff(ctx, func() error {
		var err error
		item, _, err = r.putOnce(entity, true)
		return err
	}, r.maxRetries, r.retryDelay)
	return item, err
}

// Get performs a point lookup. Soft-deleted entities whose expiry has
// passed are reported as absent.
func (r *Repository[T]) Get(ctx context.Context, key storage.Key) (*storage.Item[T], error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var item *storage.Item[T]
	err := storage.RetryWithBackoff(ctx, func() error {
		item = nil
		txErr := r.backend.WithTx(func(tx *badger.Txn) error {
			env, err := readEnvelope(tx, makeEntityKey(key))
			if err != nil {
				return err
			}
			if env == nil {
				return storage.ErrNotFound
			}
			if expired(env, time.Now().UTC()) {
				return storage.ErrNotFound
			}
			entity, err := r.codec.Unmarshal(env.Payload)
			if err != nil {
				return err
			}
			item = &storage.Item[T]{Entity: entity, ETag: env.ETag, ExpiresAt: env.ExpiresAt}
			return nil
		}, false)
		return classifyErr(txErr)
	}, r.maxRetries, r.retryDelay)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Update overwrites an existing entity under optimistic concurrency.
// A token mismatch fails with ErrConflict and performs no write.
func (r *Repository[T]) Update(ctx context.Context, entity T, etag string) (*storage.Item[T], error) {
	key := storage.KeyOf(entity)
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if etag == "" {
		return nil, fmt.Errorf("%w: empty concurrency token", storage.ErrInvalid)
	}

	var item *storage.Item[T]
	err := storage.RetryWithBackoff(ctx, func() error {
		txErr := r.backend.WithTx(func(tx *badger.Txn) error {
			encoded := makeEntityKey(key)
			env, err := readEnvelope(tx, encoded)
			if err != nil {
				return err
			}
			if env == nil || expired(env, time.Now().UTC()) {
				return storage.ErrNotFound
			}
			if env.ETag != etag {
				return fmt.Errorf("%w: %s", storage.ErrConflict, key)
			}

			old, err := r.codec.Unmarshal(env.Payload)
			if err != nil {
				return err
			}
			entity.SetEntityVersion(old.EntityVersion() + 1)

			payload, err := r.codec.Marshal(entity)
			if err != nil {
				return err
			}
			next := &storage.Envelope{ETag: uuid.NewString(), Payload: payload}
			if err := tx.Set(encoded, storage.MarshalEnvelope(next)); err != nil {
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			item = &storage.Item[T]{Entity: entity, ETag: next.ETag}
			return nil
		}, true)
		return classifyErr(txErr)
	}, r.maxRetries, r.retryDelay)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the entity. A non-empty token enforces optimistic
// concurrency; an empty token deletes unconditionally.
func (r *Repository[T]) Delete(ctx context.Context, key storage.Key, etag string) error {
	if err := key.Validate(); err != nil {
		return err
	}

	return storage.RetryWithBackoff(ctx, func() error {
		txErr := r.backend.WithTx(func(tx *badger.Txn) error {
			encoded := makeEntityKey(key)
			env, err := readEnvelope(tx, encoded)
			if err != nil {
				return err
			}
			if env == nil {
				return storage.ErrNotFound
			}
			if etag != "" && env.ETag != etag {
				return fmt.Errorf("%w: %s", storage.ErrConflict, key)
			}
			if err := tx.Delete(encoded); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		return classifyErr(txErr)
	}, r.maxRetries, r.retryDelay)
}

// SoftDelete marks the entity with an expiry instead of removing it.
// The payload is left untouched; only the envelope changes, which also
// rotates the concurrency token.
func (r *Repository[T]) SoftDelete(ctx context.Context, key storage.Key, ttl time.Duration) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: non-positive ttl", storage.ErrInvalid)
	}

	return storage.RetryWithBackoff(ctx, func() error {
		txErr := r.backend.WithTx(func(tx *badger.Txn) error {
			encoded := makeEntityKey(key)
			env, err := readEnvelope(tx, encoded)
			if err != nil {
				return err
			}
			if env == nil {
				return storage.ErrNotFound
			}
			env.ETag = uuid.NewString()
			env.ExpiresAt = time.Now().UTC().Add(ttl)
			if err := tx.Set(encoded, storage.MarshalEnvelope(env)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		return classifyErr(txErr)
	}, r.maxRetries, r.retryDelay)
}

// QueryPartition scans one sub-partition, returning a page plus a
// continuation cursor when more rows remain.
func (r *Repository[T]) QueryPartition(ctx context.Context, partition storage.Partition, query storage.Query[T]) (*storage.Page[T], error) {
	if err := partition.Validate(); err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = r.pageSize
	}

	var page *storage.Page[T]
	err := storage.RetryWithBackoff(ctx, func() error {
		var err error
		page, err = r.queryOnce(partition, query, limit)
		return err
	}, r.maxRetries, r.retryDelay)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *Repository[T]) queryOnce(partition storage.Partition, query storage.Query[T], limit int) (*storage.Page[T], error) {
	prefix := makePartitionPrefix(partition)
	page := &storage.Page[T]{}
	now := time.Now().UTC()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := prefix
		if query.Cursor != "" {
			start = makeEntityKey(storage.Key{
				TenantID: partition.TenantID,
				Category: partition.Category,
				ItemID:   query.Cursor,
			})
		}

		iter.Seek(start)
		// The cursor names the last item already delivered; skip it.
		if query.Cursor != "" && iter.Valid() && bytes.Equal(iter.Item().Key(), start) {
			iter.Next()
		}

		lastItemID := ""
		for ; iter.Valid(); iter.Next() {
			if len(page.Items) == limit {
				page.NextCursor = lastItemID
				return nil
			}

			var env *storage.Envelope
			err := iter.Item().Value(func(val []byte) error {
				var err error
				env, err = storage.UnmarshalEnvelope(val)
				return err
			})
			if err != nil {
				return err
			}
			if !query.IncludeExpired && expired(env, now) {
				continue
			}

			entity, err := r.codec.Unmarshal(env.Payload)
			if err != nil {
				return err
			}
			if query.Filter != nil && !query.Filter(entity) {
				continue
			}

			page.Items = append(page.Items, &storage.Item[T]{
				Entity:    entity,
				ETag:      env.ETag,
				ExpiresAt: env.ExpiresAt,
			})
			lastItemID = itemIDFromKey(iter.Item().KeyCopy(nil), prefix)
		}
		return nil
	}, false)
	if err != nil {
		return nil, classifyErr(err)
	}
	return page, nil
}

// Count returns the number of entities matching the query, optionally
// scoped to one partition. A nil partition counts the whole store.
func (r *Repository[T]) Count(ctx context.Context, partition *storage.Partition, query storage.Query[T]) (int, error) {
	prefix := makeStorePrefix()
	if partition != nil {
		if err := partition.Validate(); err != nil {
			return 0, err
		}
		prefix = makePartitionPrefix(*partition)
	}

	count := 0
	err := storage.RetryWithBackoff(ctx, func() error {
		count = 0
		now := time.Now().UTC()
		txErr := r.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Seek(prefix); iter.Valid(); iter.Next() {
				var env *storage.Envelope
				err := iter.Item().Value(func(val []byte) error {
					var err error
					env, err = storage.UnmarshalEnvelope(val)
					return err
				})
				if err != nil {
					return err
				}
				if !query.IncludeExpired && expired(env, now) {
					continue
				}
				if query.Filter != nil {
					entity, err := r.codec.Unmarshal(env.Payload)
					if err != nil {
						return err
					}
					if !query.Filter(entity) {
						continue
					}
				}
				count++
			}
			return nil
		}, false)
		return classifyErr(txErr)
	}, r.maxRetries, r.retryDelay)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// BatchPut writes entities in parallel within one sub-partition. With
// upsert false each item uses Create semantics, otherwise Upsert
// semantics. Per-item transient failures are retried with backoff; a
// failure of one item does not abort the others.
func (r *Repository[T]) BatchPut(ctx context.Context, entities []T, upsert bool) (*storage.BatchWriteResult, error) {
	result := &storage.BatchWriteResult{Items: make([]storage.BatchItemResult, len(entities))}
	if len(entities) == 0 {
		return result, nil
	}

	part := storage.KeyOf(entities[0]).Partition()
	for _, entity := range entities {
		if storage.KeyOf(entity).Partition() != part {
			return nil, fmt.Errorf("%w: batch spans partitions", storage.ErrInvalid)
		}
	}

	start := time.Now()
	bytesWritten := make([]int64, len(entities))

	var wg sync.WaitGroup
	for i := range entities {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			res := &result.Items[i]
			res.Key = storage.KeyOf(entities[i])

			attempts := 0
			err := storage.RetryWithBackoff(ctx, func() error {
				attempts++
				item, written, err := r.putOnce(entities[i], upsert)
				if err != nil {
					return err
				}
				res.ETag = item.ETag
				bytesWritten[i] = int64(written)
				return nil
			}, r.maxRetries, r.retryDelay)
			res.Attempts = attempts
			res.Err = err
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool rejected the task (released or overloaded); run on
			// the caller so the item is still attempted.
			task()
		}
	}
	wg.Wait()

	for _, n := range bytesWritten {
		result.Cost.BytesWritten += n
	}
	result.Cost.Elapsed = time.Since(start)
	return result, nil
}

// putOnce performs a single create/upsert attempt in its own transaction.
// Returns the stored item and the number of bytes written.
func (r *Repository[T]) putOnce(entity T, upsert bool) (*storage.Item[T], int, error) {
	key := storage.KeyOf(entity)
	if err := key.Validate(); err != nil {
		return nil, 0, err
	}
	if err := validateKeyParts(key.TenantID, key.Category, key.ItemID); err != nil {
		return nil, 0, err
	}

	var (
		item    *storage.Item[T]
		written int
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		encoded := makeEntityKey(key)
		existing, err := readEnvelope(tx, encoded)
		if err != nil {
			return err
		}

		version := uint64(1)
		if existing != nil {
			if !upsert {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, key)
			}
			old, err := r.codec.Unmarshal(existing.Payload)
			if err != nil {
				return err
			}
			version = old.EntityVersion() + 1
		}
		entity.SetEntityVersion(version)

		payload, err := r.codec.Marshal(entity)
		if err != nil {
			return err
		}
		// A successful write clears any pending expiry: the entity is
		// live again.
		env := &storage.Envelope{ETag: uuid.NewString(), Payload: payload}
		encodedEnv := storage.MarshalEnvelope(env)
		if err := tx.Set(encoded, encodedEnv); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		written = len(encodedEnv)
		item = &storage.Item[T]{Entity: entity, ETag: env.ETag}
		return nil
	}, true)
	if err != nil {
		return nil, 0, classifyErr(err)
	}
	return item, written, nil
}

// Helper methods

// expired reports whether an envelope's expiry has passed.
func expired(env *storage.Envelope, now time.Time) bool {
	return !env.ExpiresAt.IsZero() && !now.Before(env.ExpiresAt)
}

// readEnvelope reads an envelope from the transaction.
// Returns nil without error when the key is absent.
func readEnvelope(tx *badger.Txn, key []byte) (*storage.Envelope, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var env *storage.Envelope
	err = item.Value(func(val []byte) error {
		var valErr error
		env, valErr = storage.UnmarshalEnvelope(val)
		return valErr
	})
	return env, err
}
