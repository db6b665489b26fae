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
	"sort"
	"strings"
	"time"

	"github.com/caselode/lexbase/core"
)

const (
	maxKeywords      = 20
	minKeywordLength = 4
)

// Stop words dropped from the derived keyword set. Words shorter than
// minKeywordLength never reach this filter.
var keywordStopWords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "have": true,
	"been": true, "were": true, "will": true, "must": true, "shall": true,
	"should": true, "would": true, "could": true, "your": true, "their": true,
	"they": true, "them": true, "then": true, "than": true, "when": true,
	"where": true, "which": true, "what": true, "also": true, "such": true,
	"under": true, "upon": true, "about": true, "into": true, "over": true,
	"other": true, "more": true, "each": true, "some": true, "only": true,
	"these": true, "those": true, "after": true, "before": true, "there": true,
}

// BuildInput gathers the outputs of the three transform steps plus the
// run-level attribution fields.
type BuildInput struct {
	Record         *CanonicalRecord
	Classification core.Classification
	Citations      []core.Citation

	TenantID   string
	IngestedBy string
	SourceRef  string
}

// BuildEntity assembles a canonical knowledge entity. All derivations
// are deterministic. On any validation failure no entity is returned;
// partial entities are never handed to the store.
func BuildEntity(in BuildInput) (*core.KnowledgeEntity, error) {
	record := in.Record

	entity := &core.KnowledgeEntity{
		TenantID:     in.TenantID,
		DocumentType: core.DocumentTypeKnowledgeArticle,
		EntityID:     record.ID,

		Title:       record.Title,
		Body:        record.Body,
		ContentKind: deriveContentKind(record.Title, in.Citations),

		Classification: in.Classification,
		Citations:      in.Citations,
		SecurityLevel:  core.ParseSecurityLevel(record.DeclaredClassification),

		Keywords:       deriveKeywords(record.Title, record.Body),
		SearchableText: deriveSearchableText(record.Title, record.Body, in.Citations),

		IngestedAt: time.Now().UTC(),
		IngestedBy: in.IngestedBy,
		SourceRef:  in.SourceRef,
	}

	if err := core.ValidateEntity(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// deriveContentKind inspects the title and extracted citations.
// Checked in priority order; first match wins.
func deriveContentKind(title string, citations []core.Citation) core.ContentKind {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "regulation") || strings.Contains(lower, "reg."):
		return core.ContentKindRegulation
	case strings.Contains(lower, "procedure") || strings.Contains(lower, "process"):
		return core.ContentKindProcedure
	}
	for _, citation := range citations {
		if citation.Kind == core.CitationKindCaseLaw {
			return core.ContentKindJurisprudence
		}
	}
	return core.ContentKindGuidance
}

// deriveKeywords returns the top frequency-ranked terms of title+body,
// stop words removed. Ties keep first-seen order so the result is
// stable across runs.
func deriveKeywords(title, body string) []string {
	counts := make(map[string]int)
	var firstSeen []string

	for _, word := range strings.Fields(strings.ToLower(title + " " + body)) {
		cleaned := strings.Trim(word, ".,!?;:'\"-()[]{}")
		if len(cleaned) < minKeywordLength || keywordStopWords[cleaned] {
			continue
		}
		if counts[cleaned] == 0 {
			firstSeen = append(firstSeen, cleaned)
		}
		counts[cleaned]++
	}

	sort.SliceStable(firstSeen, func(i, j int) bool {
		return counts[firstSeen[i]] > counts[firstSeen[j]]
	})

	if len(firstSeen) > maxKeywords {
		firstSeen = firstSeen[:maxKeywords]
	}
	return firstSeen
}

// deriveSearchableText builds the lower-cased blob scanned by keyword
// search: title, body, then every citation reference text.
func deriveSearchableText(title, body string, citations []core.Citation) string {
	parts := make([]string, 0, 2+len(citations))
	parts = append(parts, title, body)
	for _, citation := range citations {
		parts = append(parts, citation.ReferenceText)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
