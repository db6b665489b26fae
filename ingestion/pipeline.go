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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/metrics"
	"github.com/caselode/lexbase/storage"
)

// Stage identifies where a run currently is. Stages always advance in
// order; there is no resumable checkpoint between runs.
type Stage string

const (
	StageFetching     Stage = "fetching"
	StageParsing      Stage = "parsing"
	StageTransforming Stage = "transforming"
	StageFiltering    Stage = "filtering"
	StageIngesting    Stage = "ingesting"
	StageReporting    Stage = "reporting"
)

const (
	defaultBatchSize  = 10
	defaultBatchDelay = 200 * time.Millisecond

	// DefaultIngestedBy is recorded on entities when the caller does not
	// name an actor.
	DefaultIngestedBy = "lexbase-ingest"
)

// Fetcher retrieves the raw bytes of a named source.
type Fetcher interface {
	Fetch(ctx context.Context, sourceName string) ([]byte, error)
}

// RecordParser turns raw source bytes into records.
type RecordParser interface {
	Parse(data []byte) ([]*core.RawRecord, error)
}

// Pipeline drives one ingestion run end to end: fetch, parse, then per
// record canonicalize, classify, extract and build, an optional
// relevance filter, and batched writes into the entity repository.
//
// Per-item failures never abort a run; fetch and parse failures do.
// Re-running the same source is idempotent through the repository's
// upsert-by-key semantics.
type Pipeline struct {
	repo       storage.Repository[*core.KnowledgeEntity]
	fetcher    Fetcher
	parser     RecordParser
	classifier *Classifier
	batchSize  int
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets how many entities are written per store batch.
// Default is 10; the batch size is also the peak number of in-flight
// store writes.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithBatchDelay sets the pacing delay between store batches.
func WithBatchDelay(delay time.Duration) Option {
	return func(p *Pipeline) error {
		if delay <= 0 {
			p.limiter = rate.NewLimiter(rate.Inf, 1)
			return nil
		}
		p.limiter = rate.NewLimiter(rate.Every(delay), 1)
		return nil
	}
}

// WithClassifierWeights replaces the default scoring parameters.
func WithClassifierWeights(weights ClassifierWeights) Option {
	return func(p *Pipeline) error {
		p.classifier = NewClassifier(weights)
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline. The repository, fetcher
// and parser are injected so the pipeline can run against in-memory
// fakes in tests.
func NewPipeline(
	repo storage.Repository[*core.KnowledgeEntity],
	fetcher Fetcher,
	parser RecordParser,
	opts ...Option,
) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if parser == nil {
		return nil, ErrParserRequired
	}

	p := &Pipeline{
		repo:       repo,
		fetcher:    fetcher,
		parser:     parser,
		classifier: NewClassifier(DefaultClassifierWeights()),
		batchSize:  defaultBatchSize,
		limiter:    rate.NewLimiter(rate.Every(defaultBatchDelay), 1),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// RunOptions holds per-run parameters.
type RunOptions struct {
	// TenantID scopes every written entity. Required.
	TenantID string

	// IngestedBy is the actor recorded in entity audit fields.
	// Defaults to DefaultIngestedBy.
	IngestedBy string

	// FilterRelevantOnly drops entities the classifier marked not
	// relevant before the write phase. Relevance statistics still
	// reflect the full unfiltered set.
	FilterRelevantOnly bool

	// Progress, when set, receives progress output during the write
	// phase (typically os.Stderr).
	Progress io.Writer
}

// Run executes one ingestion run over the named source and returns the
// per-run summary. The BatchResult always carries counts, even when the
// run aborts; run-level failures are returned as the error.
func (p *Pipeline) Run(ctx context.Context, sourceName string, opts RunOptions) (*BatchResult, error) {
	result := &BatchResult{Relevance: newRelevanceStats()}
	start := time.Now()

	if opts.TenantID == "" {
		return nil, ErrTenantRequired
	}
	if opts.IngestedBy == "" {
		opts.IngestedBy = DefaultIngestedBy
	}

	p.logger.Info("ingestion run starting",
		"source", sourceName, "tenant", opts.TenantID, "stage", StageFetching)

	data, err := p.fetcher.Fetch(ctx, sourceName)
	if err != nil {
		return p.abort(result, start, fmt.Errorf("%w: %w", ErrFetchFailed, err))
	}

	p.logger.Debug("source fetched", "source", sourceName, "bytes", len(data), "stage", StageParsing)

	raws, err := p.parser.Parse(data)
	if err != nil {
		return p.abort(result, start, fmt.Errorf("%w: %w", ErrParseFailed, err))
	}

	p.logger.Debug("source parsed", "records", len(raws), "stage", StageTransforming)

	entities := p.transformAll(raws, sourceName, opts, result)

	if opts.FilterRelevantOnly {
		p.logger.Debug("filtering entities", "stage", StageFiltering)
		kept := entities[:0]
		for _, entity := range entities {
			if entity.Classification.IsRelevant {
				kept = append(kept, entity)
			} else {
				result.Filtered++
			}
		}
		entities = kept
		metrics.AddRecords(metrics.OutcomeFiltered, result.Filtered)
	}

	p.logger.Debug("writing entities", "entities", len(entities), "stage", StageIngesting)
	runErr := p.ingest(ctx, entities, opts.Progress, result)

	result.Duration = time.Since(start)
	p.logger.Info("ingestion run finished",
		"stage", StageReporting,
		"seen", result.Seen,
		"transformed", result.Transformed,
		"skipped", result.Skipped,
		"filtered", result.Filtered,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration", result.Duration)
	metrics.CountRun(runErr)
	return result, runErr
}

// abort finalizes a run that failed before any entity could be written.
func (p *Pipeline) abort(result *BatchResult, start time.Time, err error) (*BatchResult, error) {
	result.AddError(err.Error())
	result.Duration = time.Since(start)
	p.logger.Error("ingestion run aborted", "err", err)
	metrics.CountRun(err)
	return result, err
}

// transformAll runs the four per-record transform steps. A skip or
// failure excludes only that record; later records are unaffected.
func (p *Pipeline) transformAll(raws []*core.RawRecord, sourceName string, opts RunOptions, result *BatchResult) []*core.KnowledgeEntity {
	entities := make([]*core.KnowledgeEntity, 0, len(raws))
	for _, raw := range raws {
		result.Seen++

		entity, err := p.transform(raw, sourceName, opts)
		if err != nil {
			if errors.Is(err, ErrRecordSkipped) {
				result.Skipped++
				metrics.CountRecord(metrics.OutcomeSkipped)
				continue
			}
			result.Failed++
			result.AddError(fmt.Sprintf("transform %s: %v", raw.ID, err))
			metrics.CountRecord(metrics.OutcomeFailed)
			continue
		}

		result.Transformed++
		tallyRelevance(&result.Relevance, entity.Classification)
		entities = append(entities, entity)
	}
	return entities
}

// transform turns one raw record into an entity. The four steps run
// strictly in order and are synchronous and pure.
func (p *Pipeline) transform(raw *core.RawRecord, sourceName string, opts RunOptions) (*core.KnowledgeEntity, error) {
	record, err := Canonicalize(raw)
	if err != nil {
		return nil, err
	}

	classification := p.classifier.Classify(record.Title, record.Body)
	citations := ExtractCitations(record.Body)

	return BuildEntity(BuildInput{
		Record:         record,
		Classification: classification,
		Citations:      citations,
		TenantID:       opts.TenantID,
		IngestedBy:     opts.IngestedBy,
		SourceRef:      fmt.Sprintf("%s#%016x", sourceName, core.Fingerprint(record.Body)),
	})
}

// ingest writes entities in fixed-size batches with pacing between
// batches. Counters are reduced from per-item batch results after each
// batch settles; nothing mutable is shared across in-flight writes.
func (p *Pipeline) ingest(ctx context.Context, entities []*core.KnowledgeEntity, progress io.Writer, result *BatchResult) error {
	if len(entities) == 0 {
		return nil
	}

	var tracker *ProgressTracker
	if progress != nil {
		tracker = NewProgressTracker(progress, len(entities), p.batchSize)
		tracker.Start()
		defer tracker.Finish()
	}

	for offset := 0; offset < len(entities); offset += p.batchSize {
		end := offset + p.batchSize
		if end > len(entities) {
			end = len(entities)
		}
		batch := entities[offset:end]

		if err := p.limiter.Wait(ctx); err != nil {
			// Cancelled mid-run: everything not yet written is failed.
			remaining := len(entities) - offset
			result.Ingested += remaining
			result.Failed += remaining
			result.AddError(fmt.Sprintf("run cancelled with %d entities unwritten: %v", remaining, err))
			return err
		}

		batchResult, err := p.repo.BatchPut(ctx, batch, true)
		result.Ingested += len(batch)
		if err != nil {
			result.Failed += len(batch)
			result.AddError(fmt.Sprintf("batch write: %v", err))
			metrics.AddRecords(metrics.OutcomeFailed, len(batch))
			continue
		}

		retries := 0
		for _, item := range batchResult.Items {
			if item.Attempts > 1 {
				retries += item.Attempts - 1
			}
			if item.Err != nil {
				result.Failed++
				result.AddError(fmt.Sprintf("write %s: %v", item.Key, item.Err))
				metrics.CountRecord(metrics.OutcomeFailed)
				continue
			}
			result.Succeeded++
			metrics.CountRecord(metrics.OutcomeSucceeded)
		}
		metrics.AddStoreRetries(retries)
		metrics.ObserveBatchWrite(batchResult.Cost.Elapsed, batchResult.Cost.BytesWritten)

		if tracker != nil {
			tracker.Add(len(batch))
		}
	}
	return nil
}

func tallyRelevance(stats *RelevanceStats, classification core.Classification) {
	if classification.IsRelevant {
		stats.Relevant++
	}
	for _, category := range classification.Categories {
		stats.ByCategory[category]++
	}
	for _, agentType := range classification.AgentTypes {
		stats.ByAgentType[agentType]++
	}
}
