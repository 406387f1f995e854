// Package index implements the local document index: chunked document text
// stored in PostgreSQL with pgvector embeddings, searched by cosine
// similarity.
//
// The Store is the document-side evidence source for the answer engine. It
// is constructed once at startup and is safe for concurrent use; searches
// are read-only and side-effect-free from the caller's perspective.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"google.golang.org/genai"
)

// VectorDimension is the embedding width stored in the documents table.
// gemini-embedding-001 emits 3072 dimensions by default and supports
// truncation via OutputDimensionality; the schema in db/migrations uses 768.
const VectorDimension int32 = 768

// EmbedTimeout bounds a single embedding call.
const EmbedTimeout = 15 * time.Second

// MaxSearchQueryLen bounds the query text sent to the embedder.
const MaxSearchQueryLen = 2000

// Chunk is one indexed unit of document text returned by Search.
type Chunk struct {
	ID        string
	Source    string // originating file name or upload name
	Page      string // page or section label within the source
	ImagePath string // optional path to an extracted page image
	Text      string
}

// Store manages indexed document chunks backed by PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a document index store.
func NewStore(pool *pgxpool.Pool, embedder ai.Embedder, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger}, nil
}

// embed generates a vector embedding for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	dim := VectorDimension
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding response")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// Add inserts one chunk into the index. A zero-value ID gets a fresh UUID.
// Re-adding the same ID replaces the stored text and embedding.
func (s *Store) Add(ctx context.Context, chunk Chunk) error {
	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("chunk text is empty")
	}
	if chunk.ID == "" {
		chunk.ID = uuid.NewString()
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vec, err := s.embed(embedCtx, chunk.Text)
	if err != nil {
		return fmt.Errorf("embedding chunk: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, source, page, image_path, content, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET source = EXCLUDED.source, page = EXCLUDED.page,
		     image_path = EXCLUDED.image_path, content = EXCLUDED.content,
		     embedding = EXCLUDED.embedding, updated_at = now()`,
		chunk.ID, chunk.Source, chunk.Page, nullable(chunk.ImagePath), chunk.Text, vec,
	)
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// Search returns up to k chunks nearest to the query by cosine distance.
// An empty query returns no chunks without touching the embedder.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Chunk, error) {
	if strings.TrimSpace(query) == "" {
		return []Chunk{}, nil
	}
	if k <= 0 {
		k = 5
	}
	if len(query) > MaxSearchQueryLen {
		query = query[:MaxSearchQueryLen]
	}
	if strings.ContainsRune(query, 0) {
		return []Chunk{}, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
	defer cancel()

	vec, err := s.embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, source, page, COALESCE(image_path, ''), content
		 FROM documents
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Count returns the number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// DeleteBySource removes all chunks ingested from the given source name.
// Returns the number of chunks removed.
func (s *Store) DeleteBySource(ctx context.Context, source string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("deleting documents: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Ping verifies database connectivity; used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging index database: %w", err)
	}
	return nil
}

func scanChunks(rows pgx.Rows) ([]Chunk, error) {
	chunks := []Chunk{}
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Source, &c.Page, &c.ImagePath, &c.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
