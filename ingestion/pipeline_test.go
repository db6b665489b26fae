package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/storage"
	"github.com/caselode/lexbase/storage/badger"
)

type stubFetcher struct {
	data []byte
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type stubParser struct {
	records []*core.RawRecord
	err     error
}

func (p *stubParser) Parse(_ []byte) ([]*core.RawRecord, error) {
	return p.records, p.err
}

// flakyCodec fails marshalling with a transient error a fixed number of
// times before delegating to the real codec.
type flakyCodec struct {
	inner    storage.EntityCodec
	mu       sync.Mutex
	failures int
}

func (c *flakyCodec) Marshal(entity *core.KnowledgeEntity) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return nil, storage.ErrThrottled
	}
	return c.inner.Marshal(entity)
}

func (c *flakyCodec) Unmarshal(data []byte) (*core.KnowledgeEntity, error) {
	return c.inner.Unmarshal(data)
}

func relevantRecord(i int) *core.RawRecord {
	return &core.RawRecord{
		ID:    fmt.Sprintf("art-%03d", i),
		Title: "Agent Authorization for Appeals",
		Body: "Authorization requirements under the Employment Insurance Act, s. 29 " +
			"for agents. See Smith v. Canada (AG), 2023 SST 123.",
	}
}

func irrelevantRecord(i int) *core.RawRecord {
	return &core.RawRecord{
		ID:    fmt.Sprintf("plain-%03d", i),
		Title: "Garden Notes",
		Body:  "The garden looks lovely in the morning sunshine and the soil is finally warm enough for planting.",
	}
}

func newTestPipeline(t *testing.T, records []*core.RawRecord) (*Pipeline, *badger.EntityRepository, func()) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	pipeline, err := NewPipeline(repo, &stubFetcher{data: []byte("source")}, &stubParser{records: records},
		WithBatchDelay(0))
	require.NoError(t, err)

	return pipeline, repo, func() { repo.Close(); backend.Close() }
}

func TestPipelineRequiresDependencies(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	_, err = NewPipeline(nil, &stubFetcher{}, &stubParser{})
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil, &stubParser{})
	assert.ErrorIs(t, err, ErrFetcherRequired)

	_, err = NewPipeline(repo, &stubFetcher{}, nil)
	assert.ErrorIs(t, err, ErrParserRequired)
}

func TestPipelineRequiresTenant(t *testing.T) {
	pipeline, _, cleanup := newTestPipeline(t, nil)
	defer cleanup()

	_, err := pipeline.Run(context.Background(), "source.xml", RunOptions{})
	assert.ErrorIs(t, err, ErrTenantRequired)
}

func TestPipelineRunScenario(t *testing.T) {
	// 25 records, 3 deliberately malformed with empty bodies.
	records := make([]*core.RawRecord, 0, 25)
	for i := 0; i < 22; i++ {
		records = append(records, relevantRecord(i))
	}
	for i := 0; i < 3; i++ {
		records = append(records, &core.RawRecord{ID: fmt.Sprintf("bad-%d", i), Body: ""})
	}

	pipeline, repo, cleanup := newTestPipeline(t, records)
	defer cleanup()

	result, err := pipeline.Run(context.Background(), "source.xml", RunOptions{TenantID: "tenant-a"})
	require.NoError(t, err)

	assert.Equal(t, 25, result.Seen)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 22, result.Succeeded+result.Failed)
	assert.Equal(t, 22, result.Transformed)
	assert.Equal(t, 22, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.NotZero(t, result.Duration)

	// Every transformed record was relevant in this scenario.
	assert.Equal(t, 22, result.Relevance.Relevant)
	assert.Equal(t, 22, result.Relevance.ByCategory[CategoryAuthorization])
	assert.Equal(t, 22, result.Relevance.ByCategory[CategoryAppeal])

	part := storage.Partition{TenantID: "tenant-a", Category: core.DocumentTypeKnowledgeArticle}
	count, err := repo.Count(context.Background(), &part, storage.Query[*core.KnowledgeEntity]{})
	require.NoError(t, err)
	assert.Equal(t, 22, count)
}

func TestPipelineWrittenEntityShape(t *testing.T) {
	pipeline, repo, cleanup := newTestPipeline(t, []*core.RawRecord{relevantRecord(1)})
	defer cleanup()

	_, err := pipeline.Run(context.Background(), "source.xml", RunOptions{TenantID: "tenant-a", IngestedBy: "ops"})
	require.NoError(t, err)

	item, err := repo.Get(context.Background(), storage.Key{
		TenantID: "tenant-a",
		Category: core.DocumentTypeKnowledgeArticle,
		ItemID:   "art-001",
	})
	require.NoError(t, err)

	entity := item.Entity
	assert.Equal(t, uint64(1), entity.Version)
	assert.Equal(t, "ops", entity.IngestedBy)
	assert.Contains(t, entity.SourceRef, "source.xml#")
	assert.True(t, entity.Classification.IsRelevant)
	assert.Len(t, entity.Citations, 2)
	assert.Equal(t, core.ContentKindJurisprudence, entity.ContentKind)
	assert.Equal(t, core.SecurityLevelRestrictedB, entity.SecurityLevel)
}

func TestPipelineReingestionIncrementsVersion(t *testing.T) {
	pipeline, repo, cleanup := newTestPipeline(t, []*core.RawRecord{relevantRecord(1)})
	defer cleanup()

	ctx := context.Background()
	opts := RunOptions{TenantID: "tenant-a"}

	_, err := pipeline.Run(ctx, "source.xml", opts)
	require.NoError(t, err)
	_, err = pipeline.Run(ctx, "source.xml", opts)
	require.NoError(t, err)

	part := storage.Partition{TenantID: "tenant-a", Category: core.DocumentTypeKnowledgeArticle}
	count, err := repo.Count(ctx, &part, storage.Query[*core.KnowledgeEntity]{})
	require.NoError(t, err)
	assert.Equal(t, 1, count, "re-ingestion must not duplicate")

	item, err := repo.Get(ctx, storage.Key{
		TenantID: "tenant-a",
		Category: core.DocumentTypeKnowledgeArticle,
		ItemID:   "art-001",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), item.Entity.Version)
}

func TestPipelineFilterRelevantOnly(t *testing.T) {
	records := []*core.RawRecord{
		relevantRecord(1), relevantRecord(2),
		irrelevantRecord(1), irrelevantRecord(2), irrelevantRecord(3),
	}
	pipeline, repo, cleanup := newTestPipeline(t, records)
	defer cleanup()

	result, err := pipeline.Run(context.Background(), "source.xml", RunOptions{
		TenantID:           "tenant-a",
		FilterRelevantOnly: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Transformed)
	assert.Equal(t, 3, result.Filtered)
	assert.Equal(t, 2, result.Succeeded)

	// Classification stats reflect the unfiltered set.
	assert.Equal(t, 2, result.Relevance.Relevant)

	count, err := repo.Count(context.Background(), nil, storage.Query[*core.KnowledgeEntity]{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipelineFetchFailureAbortsRun(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	pipeline, err := NewPipeline(repo, &stubFetcher{err: errors.New("blob unreachable")}, &stubParser{}, WithBatchDelay(0))
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), "source.xml", RunOptions{TenantID: "tenant-a"})
	assert.ErrorIs(t, err, ErrFetchFailed)
	require.NotNil(t, result)
	assert.Zero(t, result.Ingested)
	assert.Zero(t, result.Succeeded)
	assert.NotEmpty(t, result.Errors)
}

func TestPipelineParseFailureAbortsRun(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	pipeline, err := NewPipeline(repo, &stubFetcher{data: []byte("junk")},
		&stubParser{err: errors.New("malformed document")}, WithBatchDelay(0))
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), "source.xml", RunOptions{TenantID: "tenant-a"})
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.Zero(t, result.Ingested)
}

func TestPipelineRetriesThrottledWrites(t *testing.T) {
	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	// Marshalling fails twice with a transient error, then succeeds on
	// the third attempt.
	codec := &flakyCodec{failures: 2}
	repo, err := badger.NewRepository[*core.KnowledgeEntity](backend, codec)
	require.NoError(t, err)
	defer repo.Close()

	pipeline, err := NewPipeline(repo, &stubFetcher{data: []byte("source")},
		&stubParser{records: []*core.RawRecord{relevantRecord(1)}}, WithBatchDelay(0))
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), "source.xml", RunOptions{TenantID: "tenant-a"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)

	// Exactly one stored entity; the retries did not duplicate it.
	count, err := repo.Count(context.Background(), nil, storage.Query[*core.KnowledgeEntity]{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipelineErrorSampleCapped(t *testing.T) {
	var result BatchResult
	for i := 0; i < 12; i++ {
		result.AddError(fmt.Sprintf("failure %d", i))
	}

	assert.Len(t, result.Errors, maxErrorSamples)
	assert.Equal(t, 12, result.ErrorsTotal)
	assert.Equal(t, "failure 0", result.Errors[0])
}
