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
	"fmt"
	"strings"
	"time"
)

const (
	// maxErrorSamples caps the error list carried by a BatchResult so a
	// pathological source cannot grow the report without bound.
	maxErrorSamples = 5

	// maxErrorMessageLength truncates individual sampled messages.
	maxErrorMessageLength = 200
)

// RelevanceStats tallies classifier verdicts over the full transformed
// set, before any relevance filtering.
type RelevanceStats struct {
	Relevant    int
	ByCategory  map[string]int
	ByAgentType map[string]int
}

func newRelevanceStats() RelevanceStats {
	return RelevanceStats{
		ByCategory:  make(map[string]int),
		ByAgentType: make(map[string]int),
	}
}

// BatchResult is the per-run summary returned by Pipeline.Run.
type BatchResult struct {
	Seen        int // records handed over by the parser
	Transformed int // records that became entities
	Skipped     int // records dropped by validation preconditions
	Filtered    int // entities dropped by the relevant-only filter
	Ingested    int // entities submitted to the store
	Succeeded   int // entities persisted
	Failed      int // transform failures plus exhausted store writes

	// Errors holds the first maxErrorSamples error messages;
	// ErrorsTotal counts all of them.
	Errors      []string
	ErrorsTotal int

	Relevance RelevanceStats
	Duration  time.Duration
}

// AddError records one failure message, keeping only the first few.
func (r *BatchResult) AddError(msg string) {
	r.ErrorsTotal++
	if len(r.Errors) < maxErrorSamples {
		if len(msg) > maxErrorMessageLength {
			msg = msg[:maxErrorMessageLength]
		}
		r.Errors = append(r.Errors, msg)
	}
}

// Summary renders a multi-line operator report.
func (r *BatchResult) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "records: %d seen, %d transformed, %d skipped, %d filtered\n",
		r.Seen, r.Transformed, r.Skipped, r.Filtered)
	fmt.Fprintf(&b, "writes:  %d ingested, %d succeeded, %d failed\n",
		r.Ingested, r.Succeeded, r.Failed)
	fmt.Fprintf(&b, "relevant: %d of %d\n", r.Relevance.Relevant, r.Transformed)
	fmt.Fprintf(&b, "duration: %s", r.Duration.Round(time.Millisecond))

	if r.ErrorsTotal > 0 {
		fmt.Fprintf(&b, "\nerrors (%d total, showing first %d):", r.ErrorsTotal, len(r.Errors))
		for _, msg := range r.Errors {
			fmt.Fprintf(&b, "\n  - %s", msg)
		}
	}
	return b.String()
}
