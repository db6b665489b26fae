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

// Package lexbase wires the knowledge store, ingestion pipeline and
// searcher together. All collaborators are constructed explicitly at
// process start and injected; there are no lazy global clients.
package lexbase

import (
	"log/slog"

	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/ingestion"
	"github.com/caselode/lexbase/search"
	"github.com/caselode/lexbase/storage"
	"github.com/caselode/lexbase/storage/badger"
)

// Database bundles the store backend and the entity repository.
type Database struct {
	backend  *badger.Backend
	entities *badger.EntityRepository
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
	repoOpts []badger.Option[*core.KnowledgeEntity]
}

// WithInMemory runs the store without persistence.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithRepositoryOptions passes options through to the entity repository.
func WithRepositoryOptions(opts ...badger.Option[*core.KnowledgeEntity]) DatabaseOption {
	return func(o *databaseOptions) {
		o.repoOpts = append(o.repoOpts, opts...)
	}
}

// NewDatabase opens the store at filePath and builds the entity
// repository on it.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	entities, err := badger.NewEntityRepository(backend, options.repoOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:  backend,
		entities: entities,
		logger:   slog.Default(),
	}, nil
}

// Close releases the repository and the backend.
func (db *Database) Close() error {
	if err := db.entities.Close(); err != nil {
		db.logger.Error("error closing entity repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// EntityRepository returns the knowledge entity repository.
func (db *Database) EntityRepository() storage.Repository[*core.KnowledgeEntity] {
	return db.entities
}

// NewIngestionPipeline builds a pipeline over this database. The
// fetcher and parser are supplied by the caller; see the source
// package for the file/XML collaborators.
func (db *Database) NewIngestionPipeline(fetcher ingestion.Fetcher, parser ingestion.RecordParser, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.entities, fetcher, parser, opts...)
}

// NewSearcher builds a keyword searcher over this database.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.entities, opts...)
}
