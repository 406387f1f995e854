// Package evidence defines the shared data model for retrieved evidence and
// the citations built from it.
//
// A piece of Evidence is one unit of retrieved text plus its provenance and
// relevance score. A Citation is a numbered, user-facing reference to
// evidence that survived relevance filtering. Both are immutable once
// created; the aggregator in internal/answer is the only producer of
// citations.
package evidence

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// SourceKind identifies which adapter produced a piece of evidence.
type SourceKind string

// Source kinds, in the fixed order sources are queried. Citation index
// assignment follows this order: document first, then cloud file, then web.
const (
	SourceDocument  SourceKind = "document"
	SourceCloudFile SourceKind = "cloud_file"
	SourceWeb       SourceKind = "web"
)

// WireType returns the source label used in API payloads. The labels are
// kept for contract compatibility with existing clients: indexed documents
// report as "pdf", cloud files as "google_drive".
func (k SourceKind) WireType() string {
	switch k {
	case SourceDocument:
		return "pdf"
	case SourceCloudFile:
		return "google_drive"
	case SourceWeb:
		return "web"
	}
	return string(k)
}

// PreviewLimit is the maximum length in bytes of a citation content preview.
const PreviewLimit = 200

// Evidence is one unit of retrieved text with provenance.
type Evidence struct {
	Kind      SourceKind
	Text      string
	Locator   Locator // page number, file URL, or search engine URL
	Relevance float64 // lexical relevance in [0,1], set by the aggregator
}

// Locator identifies where a piece of evidence came from within its source.
// Exactly one field group is meaningful per source kind: Page (and optional
// Image) for documents, URL plus Name for cloud files, URL for web results.
type Locator struct {
	Page  string // document page label; "N/A" for non-document sources
	Image string // optional extracted image path for document evidence
	URL   string // cloud file or web source URL
	Name  string // cloud file display name
}

// Citation is a numbered reference to evidence kept by the aggregator.
// Index is 1-based and dense: it equals the citation's position in the
// aggregation's citation list, in source-query order. Validation may reorder
// citations for presentation but must never renumber them.
type Citation struct {
	Index     int
	Kind      SourceKind
	Locator   Locator
	Preview   string
	Relevance float64
}

// Marker returns the bracketed marker form of the citation index, e.g. "[3]".
func (c Citation) Marker() string {
	return fmt.Sprintf("[%d]", c.Index)
}

// wireCitation is the API payload shape for a citation. Field names and
// per-source presence rules are part of the client contract: document
// citations carry a page and optional image, cloud file citations carry a
// URL and name, web citations carry only the engine URL.
type wireCitation struct {
	Citation  string  `json:"citation"`
	Page      string  `json:"page"`
	Image     *string `json:"image"`
	Type      string  `json:"type"`
	URL       string  `json:"url,omitempty"`
	Content   string  `json:"content"`
	Name      string  `json:"name,omitempty"`
	Relevance float64 `json:"relevance"`
}

// MarshalJSON encodes the citation in the wire format.
func (c Citation) MarshalJSON() ([]byte, error) {
	w := wireCitation{
		Citation:  c.Marker(),
		Page:      c.Locator.Page,
		Type:      c.Kind.WireType(),
		URL:       c.Locator.URL,
		Content:   c.Preview,
		Name:      c.Locator.Name,
		Relevance: c.Relevance,
	}
	if w.Page == "" {
		if c.Kind == SourceDocument {
			w.Page = "Unknown"
		} else {
			w.Page = "N/A"
		}
	}
	if c.Locator.Image != "" {
		img := c.Locator.Image
		w.Image = &img
	}
	return json.Marshal(w)
}

// NewCitation builds a citation from kept evidence, truncating the content
// preview to PreviewLimit.
func NewCitation(index int, ev Evidence) Citation {
	return Citation{
		Index:     index,
		Kind:      ev.Kind,
		Locator:   ev.Locator,
		Preview:   Preview(ev.Text),
		Relevance: ev.Relevance,
	}
}

// Preview bounds text to PreviewLimit bytes, appending an ellipsis when
// truncated. The cut never splits a multi-byte rune.
func Preview(text string) string {
	if len(text) <= PreviewLimit {
		return text
	}
	return TruncateOnRune(text, PreviewLimit) + "..."
}

// TruncateOnRune cuts text to at most limit bytes, backing up to the
// nearest rune boundary so the result is always valid UTF-8.
func TruncateOnRune(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
