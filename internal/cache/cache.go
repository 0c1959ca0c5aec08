// Package cache holds one progress.Record per conversation and keeps it in
// step with the log files on disk.
package cache

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/progress"
)

// Discoverer lists conversation logs and reports their modification times.
type Discoverer interface {
	Discover(ctx context.Context) ([]progress.Source, error)
	Stat(path string) (time.Time, error)
}

// Stats summarizes one freshness pass.
type Stats struct {
	PassID  string `json:"pass_id"`
	Scanned int    `json:"scanned"`
	Derived int    `json:"derived"`
	Skipped int    `json:"skipped"`
	Evicted int    `json:"evicted"`
	Errors  int    `json:"errors"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithExcerptWidth sets the display width of FirstMessage excerpts.
func WithExcerptWidth(width int) Option {
	return func(c *Cache) {
		c.extractor.ExcerptWidth = width
	}
}

// Cache maps session ids to records. Records are replaced wholesale, never
// mutated, so callers may hold them without locking.
type Cache struct {
	disc      Discoverer
	extractor progress.Extractor

	mu      sync.RWMutex
	records map[string]entry
	gen     uint64

	group       singleflight.Group
	derivations atomic.Int64
}

// New creates an empty cache over disc.
func New(disc Discoverer, opts ...Option) *Cache {
	c := &Cache{
		disc:    disc,
		records: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureFresh runs one freshness pass: records whose file is new or has a
// strictly newer mtime are re-derived, and records whose file is gone are
// evicted. Per-file failures are logged and counted; the previous record for
// that file is kept. Only discovery and context errors are returned.
func (c *Cache) EnsureFresh(ctx context.Context) (Stats, error) {
	stats := Stats{PassID: newPassID()}
	start := time.Now()

	// Records published after this point may come from files this
	// discovery does not see yet; the sweep below leaves them alone.
	c.mu.RLock()
	startGen := c.gen
	c.mu.RUnlock()

	sources, err := c.disc.Discover(ctx)
	if err != nil {
		return stats, err
	}

	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if seen[src.SessionID] {
			slog.Warn("duplicate session id", "session_id", src.SessionID, "path", src.Path)
			continue
		}
		seen[src.SessionID] = true
		stats.Scanned++

		mtime, err := c.disc.Stat(src.Path)
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				stats.Evicted += c.evict(src.SessionID)
				continue
			}
			slog.Warn("cannot stat conversation log", "pass", stats.PassID, "path", src.Path, "error", err)
			stats.Errors++
			continue
		}

		if cur := c.Get(src.SessionID); cur != nil && cur.Path == src.Path && !mtime.After(cur.SourceMtime) {
			stats.Skipped++
			continue
		}

		if _, err := c.derive(src); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				stats.Evicted += c.evict(src.SessionID)
				continue
			}
			slog.Warn("cannot derive conversation", "pass", stats.PassID, "path", src.Path, "error", err)
			stats.Errors++
			continue
		}
		stats.Derived++
	}

	c.mu.Lock()
	for id, e := range c.records {
		if !seen[id] && e.gen <= startGen {
			delete(c.records, id)
			stats.Evicted++
		}
	}
	c.mu.Unlock()

	slog.Debug("freshness pass",
		"pass", stats.PassID,
		"scanned", stats.Scanned,
		"derived", stats.Derived,
		"skipped", stats.Skipped,
		"evicted", stats.Evicted,
		"errors", stats.Errors,
		"elapsed", time.Since(start))
	return stats, nil
}

// derive parses src and publishes its record. Concurrent calls for the same
// session share one parse.
func (c *Cache) derive(src progress.Source) (*progress.Record, error) {
	v, err, _ := c.group.Do(src.SessionID, func() (any, error) {
		// Stat before reading so an append during the parse leaves the
		// record looking stale rather than fresh.
		mtime, err := c.disc.Stat(src.Path)
		if err != nil {
			return nil, errors.NewUnreadableFile(src.Path, err)
		}
		if cur := c.Get(src.SessionID); cur != nil && cur.Path == src.Path && !mtime.After(cur.SourceMtime) {
			return cur, nil
		}
		rec, err := c.extractor.ExtractFile(src)
		if err != nil {
			return nil, err
		}
		rec.SourceMtime = mtime
		c.derivations.Add(1)

		c.mu.Lock()
		defer c.mu.Unlock()
		if cur, ok := c.records[src.SessionID]; ok && cur.rec.Path == src.Path && cur.rec.SourceMtime.After(mtime) {
			return cur.rec, nil
		}
		c.gen++
		c.records[src.SessionID] = entry{rec: rec, gen: c.gen}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*progress.Record), nil
}

func (c *Cache) evict(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[sessionID]; !ok {
		return 0
	}
	delete(c.records, sessionID)
	return 1
}

// Get returns the cached record for sessionID, or nil.
func (c *Cache) Get(sessionID string) *progress.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[sessionID].rec
}

// Lookup returns the record for sessionID. A cached record is re-derived
// when its file has changed; an uncached one triggers a freshness pass.
// An unknown or removed session is NOT_FOUND.
func (c *Cache) Lookup(ctx context.Context, sessionID string) (*progress.Record, error) {
	if rec := c.Get(sessionID); rec != nil {
		return c.revalidate(rec)
	}
	if _, err := c.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	if rec := c.Get(sessionID); rec != nil {
		return rec, nil
	}
	return nil, errors.NewUnknownSession(sessionID)
}

// revalidate returns the current record for rec's file, parsing it again
// only when its mtime has advanced.
func (c *Cache) revalidate(rec *progress.Record) (*progress.Record, error) {
	fresh, err := c.derive(progress.Source{SessionID: rec.SessionID, Path: rec.Path, Project: rec.Project})
	switch {
	case err == nil:
		return fresh, nil
	case stderrors.Is(err, fs.ErrNotExist):
		c.evict(rec.SessionID)
		return nil, errors.NewUnknownSession(rec.SessionID)
	default:
		slog.Warn("cannot revalidate conversation", "path", rec.Path, "error", err)
		return rec, nil
	}
}

// All returns every cached record ordered by session id.
func (c *Cache) All() []*progress.Record {
	c.mu.RLock()
	out := make([]*progress.Record, 0, len(c.records))
	for _, e := range c.records {
		out = append(out, e.rec)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Derivations returns how many times a log has been parsed into a record.
func (c *Cache) Derivations() int64 {
	return c.derivations.Load()
}

// entry is a published record and the generation it was published at.
type entry struct {
	rec *progress.Record
	gen uint64
}

func newPassID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}
