package drive

import (
	"context"
	"fmt"
)

// Mock stands in for the Drive client when no credentials are configured,
// so the rest of the pipeline stays exercisable in local development.
type Mock struct{}

// SearchAndRetrieve returns a single placeholder file mentioning the query.
func (Mock) SearchAndRetrieve(_ context.Context, query string) ([]File, error) {
	return []File{
		{
			ID:       "mock_1",
			Name:     fmt.Sprintf("Mock Document about %s", query),
			Content:  fmt.Sprintf("This is mock content related to %s. This would normally come from Google Drive.", query),
			URL:      "https://docs.google.com/mock",
			Modified: "2024-01-01T00:00:00Z",
			Size:     1024,
		},
	}, nil
}
