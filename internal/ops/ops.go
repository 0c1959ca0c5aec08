// Package ops implements the conversation queries shared by the MCP server
// and the CLI.
package ops

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hpungsan/chronicle/internal/cache"
	"github.com/hpungsan/chronicle/internal/progress"
)

// Pagination limits
const (
	DefaultListLimit   = 20
	MaxListLimit       = 100
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	MaxQueryLength     = 1000
	DefaultRadius      = 10
	DefaultRecent      = 20
)

// Index is the view of the conversation cache the queries need.
type Index interface {
	EnsureFresh(ctx context.Context) (cache.Stats, error)
	Lookup(ctx context.Context, sessionID string) (*progress.Record, error)
	All() []*progress.Record
}

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// refresh runs a freshness pass. A failed pass is logged and the cached
// records are served; only cancellation is returned.
func refresh(ctx context.Context, idx Index) error {
	if _, err := idx.EnsureFresh(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Warn("freshness pass failed, serving cached records", "error", err)
	}
	return nil
}

// clampLimit applies the default and maximum to a requested limit.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// paginate slices items to [offset, offset+limit).
func paginate[T any](items []T, limit, offset int) ([]T, Pagination) {
	offset = max(offset, 0)
	total := len(items)
	page := []T{}
	if offset < total {
		page = items[offset:min(offset+limit, total)]
	}
	return page, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(page) < total,
		Total:   total,
	}
}

func cleanProject(p string) string {
	return strings.TrimSpace(p)
}
