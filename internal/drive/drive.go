// Package drive implements the cloud file evidence source backed by the
// Google Drive API. Files are matched by name or full text, and text content
// is extracted inline: Google Docs export as plain text, Sheets as CSV,
// plain text files download directly.
package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/finch0/finch/internal/evidence"
)

// MaxResults is the number of files retrieved per search.
const MaxResults = 5

// ContentLimit caps extracted file content in bytes. Drive files can be
// arbitrarily large; only the head participates in relevance scoring.
const ContentLimit = 2000

// maxDownloadSize bounds a single file download.
const maxDownloadSize = 5 * 1024 * 1024 // 5MB

// File is one retrieved cloud file with its extracted text.
type File struct {
	ID       string
	Name     string
	Content  string // extracted text, capped at ContentLimit
	URL      string // webViewLink for citation locators
	Modified string // RFC 3339 modification time
	Size     int64
}

// Client searches Google Drive and retrieves file content.
type Client struct {
	svc        *drivev3.Service
	logger     *slog.Logger
	maxResults int64
}

// NewClient creates a Drive client. Pass option.WithCredentialsFile for
// service account auth in production; tests inject option.WithEndpoint and
// option.WithoutAuthentication.
func NewClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	return &Client{
		svc:        svc,
		logger:     logger,
		maxResults: MaxResults,
	}, nil
}

// SearchAndRetrieve finds files matching the query and returns them with
// extracted content. Files whose content cannot be retrieved are skipped.
func (c *Client) SearchAndRetrieve(ctx context.Context, query string) ([]File, error) {
	listed, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(listed))
	for _, f := range listed {
		content, err := c.fileContent(ctx, f.Id, f.MimeType)
		if err != nil {
			c.logger.Warn("skipping drive file, content retrieval failed",
				"file_id", f.Id, "name", f.Name, "error", err)
			continue
		}
		content = evidence.TruncateOnRune(content, ContentLimit)
		files = append(files, File{
			ID:       f.Id,
			Name:     f.Name,
			Content:  content,
			URL:      f.WebViewLink,
			Modified: f.ModifiedTime,
			Size:     f.Size,
		})
	}
	return files, nil
}

func (c *Client) search(ctx context.Context, query string) ([]*drivev3.File, error) {
	q := fmt.Sprintf("(name contains '%[1]s' or fullText contains '%[1]s') and trashed = false",
		escapeQuery(query))

	result, err := c.svc.Files.List().
		Q(q).
		PageSize(c.maxResults).
		Fields("files(id, name, mimeType, modifiedTime, webViewLink, size)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("searching drive: %w", err)
	}
	return result.Files, nil
}

// fileContent extracts text from a file according to its MIME type.
func (c *Client) fileContent(ctx context.Context, fileID, mimeType string) (string, error) {
	switch {
	case strings.HasPrefix(mimeType, "text/"), mimeType == "application/json":
		resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("downloading file: %w", err)
		}
		return readBody(resp.Body)

	case mimeType == "application/vnd.google-apps.document":
		resp, err := c.svc.Files.Export(fileID, "text/plain").Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("exporting document: %w", err)
		}
		return readBody(resp.Body)

	case mimeType == "application/vnd.google-apps.spreadsheet":
		resp, err := c.svc.Files.Export(fileID, "text/csv").Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("exporting spreadsheet: %w", err)
		}
		return readBody(resp.Body)

	default:
		return fmt.Sprintf("Cannot extract text from file type: %s", mimeType), nil
	}
}

func readBody(body io.ReadCloser) (string, error) {
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(io.LimitReader(body, maxDownloadSize))
	if err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	return string(data), nil
}

// escapeQuery escapes characters meaningful inside a Drive query string
// literal, so user input cannot break out of the contains clause.
func escapeQuery(query string) string {
	query = strings.ReplaceAll(query, `\`, `\\`)
	return strings.ReplaceAll(query, `'`, `\'`)
}
