// Package answer implements the core question answering pipeline: classify
// the query, gather evidence from the document index, cloud files, and web
// search, compose a grounded prompt, generate a response, and validate its
// citations.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finch0/finch/internal/relevance"
)

// MaxQueryLen bounds accepted query length in bytes. The engine itself
// answers queries of any length; transports enforce the bound before
// calling it.
const MaxQueryLen = 2000

// Engine answers queries over all configured evidence sources.
type Engine struct {
	classifier *relevance.Classifier
	aggregator *Aggregator
	generator  Generator
	logger     *slog.Logger
}

// NewEngine creates an answer engine.
func NewEngine(classifier *relevance.Classifier, aggregator *Aggregator, generator Generator, logger *slog.Logger) (*Engine, error) {
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if classifier == nil {
		classifier = relevance.DefaultClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		classifier: classifier,
		aggregator: aggregator,
		generator:  generator,
		logger:     logger,
	}, nil
}

// Answer runs the full pipeline for one query. Evidence source failures
// degrade to missing evidence; a generation failure degrades to a fallback
// response. An empty query is not an error: it scores zero against every
// source and flows through to a degraded answer. The only errors returned
// are for context cancellation.
func (e *Engine) Answer(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)

	external := e.classifier.Classify(query).External
	e.logger.Debug("query classified", "external", external)

	set := e.aggregator.Gather(ctx, query, external)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	citations := set.Citations()

	response, err := e.generator.Generate(ctx, composePrompt(query, set))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.logger.Error("generation failed, returning fallback response", "error", err)
		response = fallbackResponse(len(citations))
	}

	webUsed := 0
	if set.Web != nil {
		webUsed = 1
	}

	return &Result{
		Response:  response,
		Citations: validateCitations(response, citations),
		SourcesUsed: SourcesUsed{
			PDFDocuments:    len(set.Documents),
			GoogleDriveDocs: len(set.Files),
			WebSearch:       webUsed,
		},
		RelevanceInfo: RelevanceInfo{
			PDFRelevanceScore:   set.DocScore,
			TotalPDFChunksFound: set.TotalDocChunks,
			RelevantPDFChunks:   len(set.Documents),
			RelevantDriveDocs:   len(set.Files),
			WebSearchUsed:       set.Web != nil,
		},
	}, nil
}

// fallbackResponse is returned when generation fails after retries.
func fallbackResponse(sources int) string {
	return fmt.Sprintf("I found relevant information from %d sources, but couldn't generate a complete response. Please try rephrasing your question.", sources)
}
