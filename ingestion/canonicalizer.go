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

	"github.com/google/uuid"

	"github.com/caselode/lexbase/core"
)

// PlaceholderTitle is assigned when a source record carries no title.
const PlaceholderTitle = "Untitled Document"

// CanonicalRecord is the normalized intermediate form of one source
// record. It exists only between canonicalization and entity building.
type CanonicalRecord struct {
	ID    string
	Title string
	Body  string

	DeclaredJurisdiction   string
	DeclaredDate           string
	DeclaredClassification string
}

// Canonicalize normalizes one raw source record. A missing id is
// synthesized from the current time plus a random suffix, a missing
// title gets a placeholder. Records whose body is shorter than
// core.MinBodyLength are rejected with ErrRecordSkipped so callers can
// count skips separately from failures.
func Canonicalize(raw *core.RawRecord) (*CanonicalRecord, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil record", ErrRecordSkipped)
	}

	body := strings.TrimSpace(raw.Body)
	if len(body) < core.MinBodyLength {
		return nil, fmt.Errorf("%w: %w (%d chars)", ErrRecordSkipped, core.ErrBodyTooShort, len(body))
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = synthesizeID()
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = PlaceholderTitle
	}

	return &CanonicalRecord{
		ID:                     id,
		Title:                  title,
		Body:                   body,
		DeclaredJurisdiction:   strings.TrimSpace(raw.Jurisdiction),
		DeclaredDate:           strings.TrimSpace(raw.Date),
		DeclaredClassification: strings.TrimSpace(raw.Classification),
	}, nil
}

// synthesizeID builds an id for records the source left anonymous.
// Time plus a random suffix keeps ids unique even within one batch.
func synthesizeID() string {
	return fmt.Sprintf("gen-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
