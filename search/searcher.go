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


package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/storage"
)

// Result is one search hit with its ranking score.
type Result struct {
	Entity *core.KnowledgeEntity
	ETag   string
	Score  float64
}

// Searcher provides tenant-scoped keyword search over knowledge
// entities. A document matches when its searchable text contains every
// query word; hits are ranked by keyword overlap and classifier
// confidence.
type Searcher struct {
	repo   storage.Repository[*core.KnowledgeEntity]
	logger *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher over an entity repository.
func NewSearcher(repo storage.Repository[*core.KnowledgeEntity], opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	s := &Searcher{
		repo:   repo,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search scans one tenant's knowledge articles for the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) Search(ctx context.Context, tenantID, query string, maxHits int) ([]*Result, error) {
	return s.SearchWithMonitor(ctx, tenantID, query, maxHits, nil)
}

// SearchWithMonitor is Search with observation hooks for each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, tenantID, query string, maxHits int, monitor SearchMonitor) ([]*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return nil, ErrEmptyQuery
	}
	monitor.Start(query, queryWords)

	partition := storage.Partition{
		TenantID: tenantID,
		Category: core.DocumentTypeKnowledgeArticle,
	}

	var results []*Result
	scanned := 0
	cursor := ""
	for {
		page, err := s.repo.QueryPartition(ctx, partition, storage.Query[*core.KnowledgeEntity]{
			Cursor: cursor,
			Filter: func(entity *core.KnowledgeEntity) bool {
				scanned++
				return containsAllQueryWords(entity.SearchableText, queryWords)
			},
		})
		if err != nil {
			s.logger.Error("error scanning partition", "tenant", tenantID, "err", err)
			return nil, err
		}

		for _, item := range page.Items {
			results = append(results, &Result{
				Entity: item.Entity,
				ETag:   item.ETag,
				Score:  score(item.Entity, queryWords),
			})
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	monitor.AfterScan(scanned, len(results))

	// Rank by score; ties keep partition order for stable output.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}

	monitor.Finish(results)
	return results, nil
}

// score ranks a matching entity. Keyword overlap dominates; classifier
// confidence breaks ties between equally overlapping documents.
func score(entity *core.KnowledgeEntity, queryWords []string) float64 {
	overlap := float64(keywordOverlap(entity.Keywords, queryWords)) / float64(len(queryWords))
	return overlap + 0.1*entity.Classification.Confidence
}
