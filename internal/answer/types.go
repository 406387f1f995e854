package answer

import (
	"github.com/finch0/finch/internal/evidence"
)

// Result is the complete outcome of answering one query. Field names and
// nesting are part of the API contract; see the handler in internal/api.
type Result struct {
	Response      string              `json:"response"`
	Citations     []evidence.Citation `json:"citations"`
	SourcesUsed   SourcesUsed         `json:"sources_used"`
	RelevanceInfo RelevanceInfo       `json:"relevance_info"`
}

// SourcesUsed counts the evidence that survived relevance filtering per
// source. WebSearch is 1 when web evidence was kept, else 0.
type SourcesUsed struct {
	PDFDocuments    int `json:"pdf_documents"`
	GoogleDriveDocs int `json:"google_drive_docs"`
	WebSearch       int `json:"web_search"`
}

// RelevanceInfo reports how well the query matched the document index and
// which external sources contributed.
type RelevanceInfo struct {
	PDFRelevanceScore   float64 `json:"pdf_relevance_score"`
	TotalPDFChunksFound int     `json:"total_pdf_chunks_found"`
	RelevantPDFChunks   int     `json:"relevant_pdf_chunks"`
	RelevantDriveDocs   int     `json:"relevant_drive_docs"`
	WebSearchUsed       bool    `json:"web_search_used"`
}
