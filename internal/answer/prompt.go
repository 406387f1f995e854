package answer

import (
	"fmt"
	"strings"
)

// Source priority notes, selected by how well the document index covered
// the query.
const (
	priorityExternal = "Note: This query appears to be outside the scope of the uploaded PDF content. Focus on external sources (Google Drive and web search) for the answer."
	priorityDocument = "Note: This query is well-covered by the PDF content. Use PDF information as the primary source, supplemented by external sources if needed."
	priorityMixed    = "Note: This query partially relates to the PDF content. Combine information from all sources appropriately."
)

// Coverage bands for the priority note. Below the lower bound the note
// steers the model away from document content entirely; above the upper
// bound documents become the primary source.
const (
	coverageLowerBound = 0.3
	coverageUpperBound = 0.7
)

const promptTemplate = `You are an advanced AI assistant with access to multiple knowledge sources.

%s

Available Information:

PDF Documents: %s

Google Drive: %s

Web Search: %s

User Question: %s

Instructions:
1. Answer the question using the most relevant and appropriate sources
2. If the query is NOT well-covered by PDF content, prioritize Google Drive and web search results
3. If the query asks for current/recent information, prioritize web search and Google Drive
4. Include citation numbers [1], [2], [3] etc. in your response to reference sources
5. If you mention specific data, charts, or images, include the citation number
6. Be specific about where each piece of information comes from
7. If information is not available in any source, clearly state this

Answer with citations:`

// composePrompt renders the generation prompt from gathered evidence.
// Empty source sections get explicit placeholders so the model never sees
// a blank slot.
func composePrompt(query string, set *EvidenceSet) string {
	return fmt.Sprintf(promptTemplate,
		priorityNote(set.DocScore),
		sectionOrDefault(documentSection(set), "No PDF context available"),
		sectionOrDefault(fileSection(set), "No Google Drive context available"),
		sectionOrDefault(webSection(set), "No web context available"),
		query,
	)
}

// priorityNote maps document coverage to a steering note.
func priorityNote(docScore float64) string {
	switch {
	case docScore < coverageLowerBound:
		return priorityExternal
	case docScore > coverageUpperBound:
		return priorityDocument
	default:
		return priorityMixed
	}
}

func documentSection(set *EvidenceSet) string {
	texts := make([]string, 0, len(set.Documents))
	for _, ev := range set.Documents {
		texts = append(texts, ev.Text)
	}
	return strings.Join(texts, "\n")
}

func fileSection(set *EvidenceSet) string {
	texts := make([]string, 0, len(set.Files))
	for _, ev := range set.Files {
		texts = append(texts, ev.Text)
	}
	return strings.Join(texts, "\n")
}

func webSection(set *EvidenceSet) string {
	if set.Web == nil {
		return ""
	}
	return set.Web.Text
}

func sectionOrDefault(section, placeholder string) string {
	if section == "" {
		return placeholder
	}
	return section
}
