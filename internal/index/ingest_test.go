package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records chunks in memory for ingestion tests.
type fakeStore struct {
	chunks  []Chunk
	addErr  error
	deleted []string
}

func (f *fakeStore) Add(_ context.Context, chunk Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.chunks = append(f.chunks, chunk)
	return nil
}

func (f *fakeStore) DeleteBySource(_ context.Context, source string) (int64, error) {
	f.deleted = append(f.deleted, source)
	var kept []Chunk
	var n int64
	for _, c := range f.chunks {
		if c.Source == source {
			n++
			continue
		}
		kept = append(kept, c)
	}
	f.chunks = kept
	return n, nil
}

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		maxSize int
		want    []string
	}{
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: "  \n\n  \n\n ",
			want: nil,
		},
		{
			name: "single paragraph",
			text: "hello world",
			want: []string{"hello world"},
		},
		{
			name:    "paragraphs packed under limit",
			text:    "one\n\ntwo\n\nthree",
			maxSize: 100,
			want:    []string{"one\n\ntwo\n\nthree"},
		},
		{
			name:    "paragraphs split at limit",
			text:    "aaaa\n\nbbbb\n\ncccc",
			maxSize: 10,
			want:    []string{"aaaa\n\nbbbb", "cccc"},
		},
		{
			name:    "oversized paragraph hard split",
			text:    strings.Repeat("x", 25),
			maxSize: 10,
			want:    []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SplitChunks(tt.text, tt.maxSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitChunksRespectsCap(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := range 50 {
		fmt.Fprintf(&sb, "paragraph number %d with a bit of filler text\n\n", i)
	}

	for _, chunk := range SplitChunks(sb.String(), 200) {
		assert.LessOrEqual(t, len(chunk), 200)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestIngestText(t *testing.T) {
	t.Parallel()

	t.Run("stores chunks with sequential pages", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{}
		ing := NewIngester(store, nil)

		n, err := ing.IngestText(context.Background(), "notes.txt", "first\n\nsecond")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.Len(t, store.chunks, 1)
		assert.Equal(t, "notes.txt", store.chunks[0].Source)
		assert.Equal(t, "1", store.chunks[0].Page)
	})

	t.Run("replaces previous chunks for the source", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{}
		ing := NewIngester(store, nil)

		_, err := ing.IngestText(context.Background(), "doc.md", "v1 content")
		require.NoError(t, err)
		_, err = ing.IngestText(context.Background(), "doc.md", "v2 content")
		require.NoError(t, err)

		require.Len(t, store.chunks, 1)
		assert.Equal(t, "v2 content", store.chunks[0].Text)
		assert.Contains(t, store.deleted, "doc.md")
	})

	t.Run("empty source rejected", func(t *testing.T) {
		t.Parallel()
		ing := NewIngester(&fakeStore{}, nil)
		_, err := ing.IngestText(context.Background(), "  ", "content")
		assert.Error(t, err)
	})

	t.Run("empty content rejected", func(t *testing.T) {
		t.Parallel()
		ing := NewIngester(&fakeStore{}, nil)
		_, err := ing.IngestText(context.Background(), "empty.txt", "\n\n")
		assert.Error(t, err)
	})

	t.Run("stable chunk IDs across runs", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{}
		ing := NewIngester(store, nil)

		_, err := ing.IngestText(context.Background(), "a.txt", "same text")
		require.NoError(t, err)
		first := store.chunks[0].ID

		_, err = ing.IngestText(context.Background(), "a.txt", "same text")
		require.NoError(t, err)
		assert.Equal(t, first, store.chunks[0].ID)
	})
}

func TestIngestPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha content"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("beta content"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.bin"), []byte{0x00, 0x01}, 0o600))

	sub := filepath.Join(dir, ".hidden")
	require.NoError(t, os.Mkdir(sub, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "d.txt"), []byte("hidden"), 0o600))

	store := &fakeStore{}
	ing := NewIngester(store, nil)

	result, err := ing.IngestPath(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesAdded)
	assert.Equal(t, 1, result.FilesSkipped)
	assert.Equal(t, 0, result.FilesFailed)
	assert.Equal(t, 2, result.ChunksAdded)
	assert.Len(t, store.chunks, 2)
}

func TestIngestPathSingleFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("quarterly report text"), 0o600))

	store := &fakeStore{}
	ing := NewIngester(store, nil)

	result, err := ing.IngestPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesAdded)
	require.Len(t, store.chunks, 1)
	assert.Equal(t, "report.txt", store.chunks[0].Source)
}

func TestIngestPathMissing(t *testing.T) {
	t.Parallel()

	ing := NewIngester(&fakeStore{}, nil)
	_, err := ing.IngestPath(context.Background(), "/nonexistent/path")
	assert.Error(t, err)
}

func TestNewIngesterCustomExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.log"), []byte("log line"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("text"), 0o600))

	store := &fakeStore{}
	ing := NewIngester(store, []string{".log"})

	result, err := ing.IngestPath(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesAdded)
	assert.Equal(t, 1, result.FilesSkipped)
}
