package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when an entity repository is not provided.
	ErrRepositoryRequired = errors.New("entity repository required")

	// ErrFetcherRequired is returned when a source fetcher is not provided.
	ErrFetcherRequired = errors.New("source fetcher required")

	// ErrParserRequired is returned when a record parser is not provided.
	ErrParserRequired = errors.New("record parser required")

	// ErrTenantRequired is returned when a run is started without a tenant id.
	ErrTenantRequired = errors.New("tenant id required")

	// ErrRecordSkipped signals that a record failed a validation
	// precondition and was dropped before transformation. Skips are
	// counted separately from transform failures.
	ErrRecordSkipped = errors.New("record skipped")

	// ErrFetchFailed is returned when the raw source cannot be read.
	// Fetch failures abort the whole run.
	ErrFetchFailed = errors.New("source fetch failed")

	// ErrParseFailed is returned when the raw source cannot be parsed
	// into records. Parse failures abort the whole run.
	ErrParseFailed = errors.New("source parse failed")
)
