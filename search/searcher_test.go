package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/storage/badger"
)

func seedEntity(t *testing.T, repo *badger.EntityRepository, tenantID, entityID, title, body string, keywords []string) {
	t.Helper()

	entity := &core.KnowledgeEntity{
		TenantID:       tenantID,
		DocumentType:   core.DocumentTypeKnowledgeArticle,
		EntityID:       entityID,
		Title:          title,
		Body:           body,
		ContentKind:    core.ContentKindGuidance,
		SecurityLevel:  core.SecurityLevelRestrictedB,
		Keywords:       keywords,
		SearchableText: fmt.Sprintf("%s %s", title, body),
	}

	_, err := repo.Create(context.Background(), entity)
	require.NoError(t, err)
}

func newTestSearcher(t *testing.T) (*Searcher, *badger.EntityRepository, func()) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	searcher, err := NewSearcher(repo)
	require.NoError(t, err)

	return searcher, repo, func() { repo.Close(); backend.Close() }
}

func TestSearchMatchesAllQueryWords(t *testing.T) {
	searcher, repo, cleanup := newTestSearcher(t)
	defer cleanup()

	seedEntity(t, repo, "tenant-a", "art-1", "appeal procedures",
		"how to appeal a tribunal decision", []string{"appeal", "tribunal"})
	seedEntity(t, repo, "tenant-a", "art-2", "benefit rates",
		"current benefit rates for claimants", []string{"benefit", "rates"})

	results, err := searcher.Search(context.Background(), "tenant-a", "tribunal appeal", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "art-1", results[0].Entity.EntityID)
	assert.NotEmpty(t, results[0].ETag)

	// A query word absent from every document yields no hits.
	results, err = searcher.Search(context.Background(), "tenant-a", "appeal deadline", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTenantScoped(t *testing.T) {
	searcher, repo, cleanup := newTestSearcher(t)
	defer cleanup()

	seedEntity(t, repo, "tenant-a", "art-1", "appeal guidance", "appeal guidance text", nil)
	seedEntity(t, repo, "tenant-b", "art-1", "appeal guidance", "appeal guidance text", nil)

	results, err := searcher.Search(context.Background(), "tenant-a", "appeal", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tenant-a", results[0].Entity.TenantID)
}

func TestSearchRanking(t *testing.T) {
	searcher, repo, cleanup := newTestSearcher(t)
	defer cleanup()

	// Both match; only the first carries the query words as keywords.
	seedEntity(t, repo, "tenant-a", "art-strong", "appeal tribunal guide",
		"appeal tribunal details", []string{"appeal", "tribunal"})
	seedEntity(t, repo, "tenant-a", "art-weak", "misc notes",
		"mentions appeal and tribunal once", nil)

	results, err := searcher.Search(context.Background(), "tenant-a", "appeal tribunal", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "art-strong", results[0].Entity.EntityID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchMaxHits(t *testing.T) {
	searcher, repo, cleanup := newTestSearcher(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		seedEntity(t, repo, "tenant-a", fmt.Sprintf("art-%d", i), "appeal notes",
			"appeal body text", nil)
	}

	results, err := searcher.Search(context.Background(), "tenant-a", "appeal", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchValidation(t *testing.T) {
	searcher, _, cleanup := newTestSearcher(t)
	defer cleanup()

	_, err := searcher.Search(context.Background(), "", "appeal", 10)
	assert.ErrorIs(t, err, ErrTenantRequired)

	// Stop words only.
	_, err = searcher.Search(context.Background(), "tenant-a", "the of and", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = NewSearcher(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestTokenizeAndFilter(t *testing.T) {
	words := tokenizeAndFilter("The Appeal, (Tribunal) and the DEADLINE!")
	assert.Equal(t, []string{"appeal", "tribunal", "deadline"}, words)
}
