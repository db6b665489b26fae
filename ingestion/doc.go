// Package ingestion turns raw legal knowledge records into persisted
// entities.
//
// The Pipeline type drives one run end to end:
//   - Fetch the raw source and parse it into records
//   - Canonicalize, classify, extract citations, build the entity
//   - Optionally filter to relevant entities only
//   - Write in fixed-size batches with pacing and per-item retry
//
// Per-record failures and skips are counted and never abort the run;
// fetch and parse failures abort with zero ingested entities. The
// returned BatchResult carries counts, relevance statistics and a
// capped error sample.
package ingestion
