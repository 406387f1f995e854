package answer

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/finch0/finch/internal/drive"
	"github.com/finch0/finch/internal/evidence"
	"github.com/finch0/finch/internal/index"
	"github.com/finch0/finch/internal/relevance"
)

// DocumentSearcher searches the local document index.
type DocumentSearcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Chunk, error)
}

// FileSearcher searches cloud files and retrieves their content.
type FileSearcher interface {
	SearchAndRetrieve(ctx context.Context, query string) ([]drive.File, error)
}

// WebSearcher performs a web search and returns one formatted text block.
type WebSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Thresholds tunes evidence selection. The zero value is replaced by
// DefaultThresholds.
type Thresholds struct {
	// DocumentKeep is the minimum relevance for an indexed chunk to count
	// as evidence.
	DocumentKeep float64
	// ExternalTrigger: a mean document score below this turns on both
	// external sources.
	ExternalTrigger float64
	// ExternalKeep is the minimum relevance for cloud file or web evidence.
	ExternalKeep float64
	// SearchK is how many chunks the index search returns.
	SearchK int
}

// DefaultThresholds returns the standard selection thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DocumentKeep:    0.2,
		ExternalTrigger: 0.3,
		ExternalKeep:    0.1,
		SearchK:         5,
	}
}

// defaultWebSourceURL attributes web evidence when the engine provides no
// single source URL (the formatted block aggregates several results).
const defaultWebSourceURL = "https://duckduckgo.com"

// Trigger terms for source selection. A query mentioning recency gets both
// external sources, realtime terms lean on web search, document terms lean
// on cloud files.
var (
	recencyTerms  = []string{"latest", "current", "recent", "update", "new", "today", "now"}
	realtimeTerms = []string{"news", "market", "price", "stock", "weather", "event"}
	documentTerms = []string{"document", "file", "report", "my", "our", "company"}
)

// EvidenceSet is everything gathered for one query, grouped by source in
// citation order.
type EvidenceSet struct {
	Documents []evidence.Evidence
	Files     []evidence.Evidence
	Web       *evidence.Evidence

	// TotalDocChunks is how many chunks the index search returned before
	// relevance filtering.
	TotalDocChunks int
	// DocScore is the mean relevance of kept document chunks, 0 when none.
	DocScore float64
}

// Citations numbers all kept evidence in the fixed source order: documents
// first, then cloud files, then web. Indices are 1-based and dense.
func (s *EvidenceSet) Citations() []evidence.Citation {
	var citations []evidence.Citation
	add := func(ev evidence.Evidence) {
		citations = append(citations, evidence.NewCitation(len(citations)+1, ev))
	}
	for _, ev := range s.Documents {
		add(ev)
	}
	for _, ev := range s.Files {
		add(ev)
	}
	if s.Web != nil {
		add(*s.Web)
	}
	return citations
}

// Aggregator gathers evidence from all configured sources for one query.
// Sources may be nil; a nil source is simply never consulted. Source
// failures degrade to empty evidence rather than failing the query.
type Aggregator struct {
	docs         DocumentSearcher
	files        FileSearcher
	web          WebSearcher
	thresholds   Thresholds
	webSourceURL string
	logger       *slog.Logger
}

// NewAggregator creates an evidence aggregator. Zero-value thresholds get
// defaults.
func NewAggregator(docs DocumentSearcher, files FileSearcher, web WebSearcher, thresholds Thresholds, logger *slog.Logger) *Aggregator {
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		docs:         docs,
		files:        files,
		web:          web,
		thresholds:   thresholds,
		webSourceURL: defaultWebSourceURL,
		logger:       logger,
	}
}

// Gather runs the full evidence pipeline: document search (skipped for
// external queries), source selection, then cloud file and web search in
// parallel.
func (a *Aggregator) Gather(ctx context.Context, query string, external bool) *EvidenceSet {
	set := &EvidenceSet{}

	if external {
		a.logger.Debug("skipping document search, query classified external")
	} else {
		a.gatherDocuments(ctx, query, set)
	}

	useWeb, useFiles := a.selectExternalSources(query, set.DocScore)

	// The two external sources are independent; query them concurrently.
	// Both writes target distinct fields of set, and Wait orders them
	// before any read.
	g, gctx := errgroup.WithContext(ctx)
	if useFiles && a.files != nil {
		g.Go(func() error {
			a.gatherFiles(gctx, query, set)
			return nil
		})
	}
	if useWeb && a.web != nil {
		g.Go(func() error {
			a.gatherWeb(gctx, query, set)
			return nil
		})
	}
	_ = g.Wait()

	return set
}

func (a *Aggregator) gatherDocuments(ctx context.Context, query string, set *EvidenceSet) {
	if a.docs == nil {
		return
	}

	chunks, err := a.docs.Search(ctx, query, a.thresholds.SearchK)
	if err != nil {
		a.logger.Warn("document search failed", "error", err)
		return
	}
	set.TotalDocChunks = len(chunks)

	var total float64
	for _, chunk := range chunks {
		score := relevance.Score(query, chunk.Text)
		if score <= a.thresholds.DocumentKeep {
			continue
		}
		set.Documents = append(set.Documents, evidence.Evidence{
			Kind:      evidence.SourceDocument,
			Text:      chunk.Text,
			Locator:   evidence.Locator{Page: chunk.Page, Image: chunk.ImagePath},
			Relevance: score,
		})
		total += score
	}
	if len(set.Documents) > 0 {
		set.DocScore = total / float64(len(set.Documents))
	}

	a.logger.Debug("document search done",
		"total_chunks", set.TotalDocChunks,
		"relevant_chunks", len(set.Documents),
		"score", set.DocScore)
}

// selectExternalSources decides which external sources to consult based on
// document coverage and trigger terms in the query.
func (a *Aggregator) selectExternalSources(query string, docScore float64) (useWeb, useFiles bool) {
	switch {
	case docScore < a.thresholds.ExternalTrigger:
		return true, true
	case containsAnyTerm(query, recencyTerms):
		return true, true
	case containsAnyTerm(query, realtimeTerms):
		return true, false
	case containsAnyTerm(query, documentTerms):
		return false, true
	}
	return false, false
}

func (a *Aggregator) gatherFiles(ctx context.Context, query string, set *EvidenceSet) {
	files, err := a.files.SearchAndRetrieve(ctx, query)
	if err != nil {
		a.logger.Warn("cloud file search failed", "error", err)
		return
	}

	for _, f := range files {
		score := relevance.Score(query, f.Name+" "+f.Content)
		if score <= a.thresholds.ExternalKeep {
			continue
		}
		set.Files = append(set.Files, evidence.Evidence{
			Kind:      evidence.SourceCloudFile,
			Text:      f.Content,
			Locator:   evidence.Locator{URL: f.URL, Name: f.Name},
			Relevance: score,
		})
	}

	a.logger.Debug("cloud file search done",
		"retrieved", len(files),
		"relevant", len(set.Files))
}

func (a *Aggregator) gatherWeb(ctx context.Context, query string, set *EvidenceSet) {
	block, err := a.web.Search(ctx, query)
	if err != nil {
		a.logger.Warn("web search failed", "error", err)
		return
	}
	if block == "" {
		return
	}

	score := relevance.Score(query, block)
	if score <= a.thresholds.ExternalKeep {
		a.logger.Debug("web results not relevant", "score", score)
		return
	}

	set.Web = &evidence.Evidence{
		Kind:      evidence.SourceWeb,
		Text:      block,
		Locator:   evidence.Locator{URL: a.webSourceURL},
		Relevance: score,
	}
	a.logger.Debug("web search done", "score", score)
}

func containsAnyTerm(query string, terms []string) bool {
	q := strings.ToLower(query)
	for _, term := range terms {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}
