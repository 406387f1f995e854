// Package relevance implements the lexical relevance scorer and the query
// classifier that together drive source routing.
//
// Both are pure: no I/O, no state beyond the configured term lists, and
// deterministic output for a given input. The scorer measures what fraction
// of a query's terms appear in a candidate text; the classifier decides
// whether a query needs live external sources at all.
package relevance

import "strings"

// Score returns the fraction of query terms found as substrings of text.
//
// The query is lowercased and split on whitespace; duplicate terms count
// separately and no stopwords are removed. A term matches if it occurs
// anywhere in the lowercased text (substring containment, not token
// equality). An empty query scores 0 against everything, which lets empty
// input degrade naturally to a "no sources relevant" answer downstream.
func Score(query, text string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	textLower := strings.ToLower(text)
	matches := 0
	for _, term := range terms {
		if strings.Contains(textLower, term) {
			matches++
		}
	}
	return float64(matches) / float64(len(terms))
}

// Classification is the routing decision for a single query.
type Classification struct {
	// External reports that the query asks for live information unrelated
	// to indexed documents, so the document index should be skipped.
	External bool
}

// Default term lists. Carried over unchanged from the previous
// implementation of this router; treated as tunable configuration but the
// defaults must stay intact for behavioral parity.
var (
	// defaultDocumentTerms mark a query as document-scoped. They take
	// precedence over external terms: "what does the document say about
	// today's weather" stays a document query.
	defaultDocumentTerms = []string{
		"document", "pdf", "file", "page", "section", "chapter", "report",
		"uploaded", "this document", "the document", "according to", "mentioned",
		"content", "text", "written", "shows", "describes", "analysis",
	}

	// defaultExternalTerms suggest the answer lives outside the index:
	// weather, current events, markets, geography, time-sensitive and
	// general-knowledge phrasings, real-time data.
	defaultExternalTerms = []string{
		"weather", "temperature", "climate", "rain", "snow", "sunny", "cloudy", "forecast",
		"news", "today", "current", "latest", "recent", "now", "happening",
		"price", "stock", "market", "bitcoin", "cryptocurrency", "exchange", "trading", "usd", "eur", "dollar",
		"city", "country", "location", "map", "directions", "distance", "tokyo", "london", "paris", "new york",
		"time", "date", "schedule", "calendar", "when",
		"what is", "who is", "how to", "define", "meaning",
		"live", "real-time", "updates", "status", "current status",
	}

	// defaultObviousExternalPatterns are multi-word phrases that are
	// external regardless of the single-term lists.
	defaultObviousExternalPatterns = []string{
		"weather in", "temperature in", "price of", "cost of", "bitcoin", "cryptocurrency",
		"current", "today", "latest", "news about", "what happened", "live",
	}
)

// Classifier decides whether a query is external using keyword heuristics.
// The zero value is not usable; construct with NewClassifier or
// DefaultClassifier.
type Classifier struct {
	documentTerms   []string
	externalTerms   []string
	obviousPatterns []string
}

// DefaultClassifier returns a classifier with the default term lists.
func DefaultClassifier() *Classifier {
	return NewClassifier(nil, nil, nil)
}

// NewClassifier returns a classifier with custom term lists. Nil or empty
// slices fall back to the defaults, so partial overrides are possible.
func NewClassifier(documentTerms, externalTerms, obviousPatterns []string) *Classifier {
	c := &Classifier{
		documentTerms:   documentTerms,
		externalTerms:   externalTerms,
		obviousPatterns: obviousPatterns,
	}
	if len(c.documentTerms) == 0 {
		c.documentTerms = defaultDocumentTerms
	}
	if len(c.externalTerms) == 0 {
		c.externalTerms = defaultExternalTerms
	}
	if len(c.obviousPatterns) == 0 {
		c.obviousPatterns = defaultObviousExternalPatterns
	}
	return c
}

// Classify applies the decision rule in fixed order:
//
//  1. Any document term present → not external. Document cues deliberately
//     override external cues.
//  2. Otherwise any external term or obvious-external pattern → external.
//  3. Otherwise → not external.
func (c *Classifier) Classify(query string) Classification {
	queryLower := strings.ToLower(query)

	if containsAny(queryLower, c.documentTerms) {
		return Classification{External: false}
	}
	if containsAny(queryLower, c.externalTerms) || containsAny(queryLower, c.obviousPatterns) {
		return Classification{External: true}
	}
	return Classification{External: false}
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
