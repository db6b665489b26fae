package search

import "strings"

// Stop words ignored when matching query words against documents
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "or": true, "in": true,
	"that": true, "have": true, "it": true, "for": true, "not": true,
	"on": true, "with": true, "as": true, "you": true, "do": true, "at": true,
	"this": true, "but": true, "by": true, "from": true, "how": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords checks if all query words (after filtering) appear in the document
func containsAllQueryWords(document string, queryWords []string) bool {
	if len(queryWords) == 0 {
		return false
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}

	return true
}

// keywordOverlap counts how many query words appear in the derived
// keyword set. Used as a ranking signal on top of the match filter.
func keywordOverlap(keywords, queryWords []string) int {
	if len(keywords) == 0 || len(queryWords) == 0 {
		return 0
	}

	keywordSet := make(map[string]bool, len(keywords))
	for _, keyword := range keywords {
		keywordSet[keyword] = true
	}

	overlap := 0
	for _, qWord := range queryWords {
		if keywordSet[qWord] {
			overlap++
		}
	}
	return overlap
}
