// Package discover enumerates conversation logs under a projects root laid
// out as <root>/<project>/<session>.jsonl.
package discover

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/progress"
)

const (
	logExt          = ".jsonl"
	subagentsDir    = "subagents"
	sessionsIndexID = "sessions-index"
)

// FS discovers logs on the local filesystem.
type FS struct {
	root string
}

// New returns a discoverer rooted at root.
func New(root string) *FS {
	return &FS{root: root}
}

// Root returns the projects root.
func (d *FS) Root() string {
	return d.root
}

// Discover lists every conversation log, sorted by project then session id.
// A missing root yields an empty set. Unreadable project directories are
// logged and skipped.
func (d *FS) Discover(ctx context.Context) ([]progress.Source, error) {
	projects, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewUnreadableFile(d.root, err)
	}

	var out []progress.Source
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !p.IsDir() || p.Name() == subagentsDir {
			continue
		}
		dir := filepath.Join(d.root, p.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("cannot read project dir", "path", dir, "error", err)
			continue
		}
		for _, f := range files {
			if !isLog(f) {
				continue
			}
			out = append(out, progress.Source{
				SessionID: strings.TrimSuffix(f.Name(), logExt),
				Path:      filepath.Join(dir, f.Name()),
				Project:   p.Name(),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Project != out[j].Project {
			return out[i].Project < out[j].Project
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out, nil
}

// Stat returns path's modification time.
func (d *FS) Stat(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if info.IsDir() {
		return time.Time{}, fmt.Errorf("%s: is a directory", path)
	}
	return info.ModTime(), nil
}

func isLog(f fs.DirEntry) bool {
	if f.IsDir() || filepath.Ext(f.Name()) != logExt {
		return false
	}
	return !strings.Contains(f.Name(), sessionsIndexID)
}
