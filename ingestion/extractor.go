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
	"regexp"
	"sort"
	"strings"

	"github.com/caselode/lexbase/core"
)

// Citation patterns run against original-case text; legal citations are
// case-sensitive, so the scan buffer is never lower-cased here.
var (
	// Smith v. Canada (AG), 2023 SST 123
	// The leading party is a single capitalized token so that an
	// ordinary sentence word before the name is not swallowed into
	// the reference.
	caseLawPattern = regexp.MustCompile(
		`[A-Z][\w.'-]*\s+v\.\s+[A-Z][\w.'-]*(?:\s+[A-Z][\w.'-]*)*(?:\s+\([^)]*\))?,\s+\d{4}\s+[A-Z]{2,}\s+\d+`)

	// Employment Insurance Act, s. 29(1)
	statutePattern = regexp.MustCompile(
		`(?:[A-Z][\w'-]*\s+)+Act,\s+(?:s\.|section)\s+\d+(?:\([^)]*\))?`)

	// Employment Insurance Regulations, s. 14
	regulationPattern = regexp.MustCompile(
		`(?:[A-Z][\w'-]*\s+)+Regulations?,\s+(?:s\.|section|para\.)\s+\d+`)
)

type citationMatch struct {
	kind  core.CitationKind
	text  string
	start int
	rank  int
}

// ExtractCitations scans body text and returns typed legal references in
// the order they appear. Duplicates and overlapping matches from
// different pattern families are all retained; verification and
// deduplication belong to a downstream collaborator.
func ExtractCitations(body string) []core.Citation {
	if body == "" {
		return nil
	}

	var matches []citationMatch
	families := []struct {
		kind    core.CitationKind
		pattern *regexp.Regexp
	}{
		{core.CitationKindCaseLaw, caseLawPattern},
		{core.CitationKindStatute, statutePattern},
		{core.CitationKindRegulation, regulationPattern},
	}

	for rank, family := range families {
		for _, loc := range family.pattern.FindAllStringIndex(body, -1) {
			matches = append(matches, citationMatch{
				kind:  family.kind,
				text:  strings.TrimSpace(body[loc[0]:loc[1]]),
				start: loc[0],
				rank:  rank,
			})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	// Text order first; overlapping matches at the same offset keep a
	// fixed family order so extraction stays deterministic.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].rank < matches[j].rank
	})

	citations := make([]core.Citation, len(matches))
	for i, m := range matches {
		citations[i] = core.Citation{
			Kind:          m.kind,
			ReferenceText: m.text,
			Verified:      false,
		}
	}
	return citations
}
