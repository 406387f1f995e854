package index

// ingest.go implements document ingestion for the index.
//
// Provides functionality to:
//   - Add files or directories of extracted text to the index
//   - Split raw text into paragraph-bounded chunks with a size cap
//   - Generate deterministic chunk IDs from source and position

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// IngestStore defines the storage operations needed by Ingester.
// The interface is declared here, by the consumer, so tests can substitute
// a fake without a database.
type IngestStore interface {
	// Add adds one chunk to the index
	Add(ctx context.Context, chunk Chunk) error

	// DeleteBySource removes previously ingested chunks for a source
	DeleteBySource(ctx context.Context, source string) (int64, error)
}

// defaultSupportedExtensions are the text formats ingestion accepts.
// Binary formats (PDF, images, audio) are extracted upstream; ingestion
// only ever sees text.
var defaultSupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".html": true,
	".xml":  true,
}

// MaxChunkSize caps chunk length in bytes. gemini-embedding-001 truncates
// past ~2048 tokens; 6KB of text keeps chunks comfortably inside that.
const MaxChunkSize = 6 * 1024

// maxIngestFileSize guards against accidentally ingesting huge files.
const maxIngestFileSize = 10 * 1024 * 1024 // 10MB

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	FilesAdded   int
	FilesSkipped int
	FilesFailed  int
	ChunksAdded  int
	TotalSize    int64
	Duration     time.Duration
}

// Ingester splits text into chunks and stores them.
type Ingester struct {
	store               IngestStore
	supportedExtensions map[string]bool
}

// NewIngester creates a document ingester.
//
// extensions optionally restricts the accepted file extensions (e.g.
// []string{".txt", ".md"}); empty means the defaults.
func NewIngester(store IngestStore, extensions []string) *Ingester {
	extMap := make(map[string]bool, len(defaultSupportedExtensions))
	if len(extensions) > 0 {
		for _, ext := range extensions {
			extMap[strings.ToLower(ext)] = true
		}
	} else {
		// Copy the defaults so instances never share a map.
		for k, v := range defaultSupportedExtensions {
			extMap[k] = v
		}
	}

	return &Ingester{
		store:               store,
		supportedExtensions: extMap,
	}
}

// IngestText chunks raw text and stores it under the given source name,
// replacing any chunks previously stored for that source. Returns the
// number of chunks written.
func (ing *Ingester) IngestText(ctx context.Context, source, text string) (int, error) {
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("source name is required")
	}

	chunks := SplitChunks(text, MaxChunkSize)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no content to ingest from %q", source)
	}

	if _, err := ing.store.DeleteBySource(ctx, source); err != nil {
		return 0, fmt.Errorf("replacing existing chunks for %q: %w", source, err)
	}

	for i, text := range chunks {
		chunk := Chunk{
			ID:     chunkID(source, i),
			Source: source,
			Page:   fmt.Sprintf("%d", i+1),
			Text:   text,
		}
		if err := ing.store.Add(ctx, chunk); err != nil {
			return i, fmt.Errorf("storing chunk %d of %q: %w", i+1, source, err)
		}
	}
	return len(chunks), nil
}

// IngestPath ingests a file, or every supported file under a directory.
func (ing *Ingester) IngestPath(ctx context.Context, path string) (*IngestResult, error) {
	start := time.Now()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	result := &IngestResult{}
	if info.IsDir() {
		err = ing.ingestDir(ctx, abs, result)
	} else {
		err = ing.ingestFile(ctx, abs, result)
	}
	result.Duration = time.Since(start)
	return result, err
}

func (ing *Ingester) ingestDir(ctx context.Context, dir string, result *IngestResult) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories (.git and friends).
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ing.ingestFile(ctx, path, result); err != nil {
			return err
		}
		return ctx.Err()
	})
}

func (ing *Ingester) ingestFile(ctx context.Context, path string, result *IngestResult) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !ing.supportedExtensions[ext] {
		result.FilesSkipped++
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		result.FilesFailed++
		return nil //nolint:nilerr // unreadable file: count and continue
	}
	if info.Size() > maxIngestFileSize {
		result.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator CLI input
	if err != nil {
		result.FilesFailed++
		return nil //nolint:nilerr // unreadable file: count and continue
	}

	n, err := ing.IngestText(ctx, filepath.Base(path), string(data))
	if err != nil {
		result.FilesFailed++
		return nil //nolint:nilerr // empty or failed file: count and continue
	}

	result.FilesAdded++
	result.ChunksAdded += n
	result.TotalSize += info.Size()
	return nil
}

// SplitChunks splits text into chunks at paragraph boundaries, packing
// consecutive paragraphs until maxSize would be exceeded. A single
// paragraph larger than maxSize is hard-split.
func SplitChunks(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = MaxChunkSize
	}

	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// Hard-split oversized paragraphs.
		for len(para) > maxSize {
			flush()
			chunks = append(chunks, para[:maxSize])
			para = strings.TrimSpace(para[maxSize:])
		}
		if para == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(para) > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// chunkID derives a stable chunk identifier from the source name and chunk
// position, so re-ingesting a source overwrites rather than duplicates.
func chunkID(source string, position int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s#%d", source, position)))
	return hex.EncodeToString(sum[:16])
}
