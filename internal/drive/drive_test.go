package drive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/finch0/finch/internal/testutil"
)

// newTestClient wires a Client against a fake Drive API server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), testutil.DiscardLogger(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return client
}

func TestSearchAndRetrieve(t *testing.T) {
	var gotQuery string

	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files": [
			{"id": "doc1", "name": "Quarterly Report", "mimeType": "application/vnd.google-apps.document",
			 "modifiedTime": "2025-06-01T10:00:00Z", "webViewLink": "https://docs.google.com/d/doc1", "size": "2048"},
			{"id": "txt1", "name": "notes.txt", "mimeType": "text/plain",
			 "modifiedTime": "2025-06-02T10:00:00Z", "webViewLink": "https://drive.google.com/file/txt1", "size": "128"},
			{"id": "img1", "name": "diagram.png", "mimeType": "image/png",
			 "modifiedTime": "2025-06-03T10:00:00Z", "webViewLink": "https://drive.google.com/file/img1", "size": "9000"}
		]}`)
	})
	mux.HandleFunc("/files/doc1/export", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.URL.Query().Get("mimeType"))
		fmt.Fprint(w, "exported document body")
	})
	mux.HandleFunc("/files/txt1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		fmt.Fprint(w, "plain text file body")
	})

	client := newTestClient(t, mux)

	files, err := client.SearchAndRetrieve(context.Background(), "quarterly report")
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Contains(t, gotQuery, "name contains 'quarterly report'")
	assert.Contains(t, gotQuery, "fullText contains 'quarterly report'")
	assert.Contains(t, gotQuery, "trashed = false")

	assert.Equal(t, "Quarterly Report", files[0].Name)
	assert.Equal(t, "exported document body", files[0].Content)
	assert.Equal(t, "https://docs.google.com/d/doc1", files[0].URL)
	assert.EqualValues(t, 2048, files[0].Size)

	assert.Equal(t, "plain text file body", files[1].Content)

	// Unsupported MIME types still surface the file with a placeholder.
	assert.Equal(t, "Cannot extract text from file type: image/png", files[2].Content)
}

func TestSearchAndRetrieveContentCap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files": [{"id": "big1", "name": "big.txt", "mimeType": "text/plain"}]}`)
	})
	mux.HandleFunc("/files/big1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", ContentLimit*3))
	})

	client := newTestClient(t, mux)

	files, err := client.SearchAndRetrieve(context.Background(), "big")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Len(t, files[0].Content, ContentLimit)
}

func TestSearchAndRetrieveContentCapKeepsValidUTF8(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files": [{"id": "cjk1", "name": "cjk.txt", "mimeType": "text/plain"}]}`)
	})
	mux.HandleFunc("/files/cjk1", func(w http.ResponseWriter, _ *http.Request) {
		// Pad so the cap lands inside a three-byte rune.
		fmt.Fprint(w, strings.Repeat("a", ContentLimit-1)+strings.Repeat("界", 10))
	})

	client := newTestClient(t, mux)

	files, err := client.SearchAndRetrieve(context.Background(), "cjk")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, utf8.ValidString(files[0].Content))
	assert.True(t, strings.HasSuffix(files[0].Content, "a"))
}

func TestSearchAndRetrieveSkipsFailedDownloads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files": [
			{"id": "bad1", "name": "broken.txt", "mimeType": "text/plain"},
			{"id": "ok1", "name": "fine.txt", "mimeType": "text/plain"}
		]}`)
	})
	mux.HandleFunc("/files/bad1", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/files/ok1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "fine")
	})

	client := newTestClient(t, mux)

	files, err := client.SearchAndRetrieve(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "fine.txt", files[0].Name)
}

func TestSearchError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))

	_, err := client.SearchAndRetrieve(context.Background(), "anything")
	assert.Error(t, err)
}

func TestEscapeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain query", want: "plain query"},
		{in: "o'brien", want: `o\'brien`},
		{in: `back\slash`, want: `back\\slash`},
		{in: `both\'`, want: `both\\\'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeQuery(tt.in))
	}
}

func TestMockSearchAndRetrieve(t *testing.T) {
	t.Parallel()

	files, err := Mock{}.SearchAndRetrieve(context.Background(), "revenue")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name, "revenue")
	assert.NotEmpty(t, files[0].Content)
}
