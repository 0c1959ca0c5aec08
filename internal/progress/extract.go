package progress

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/hpungsan/chronicle/internal/transcript"
)

// TodoWriteTool is the tool name whose invocations carry task-list snapshots.
const TodoWriteTool = "TodoWrite"

// DefaultExcerptWidth is the display width of FirstMessage when unset.
const DefaultExcerptWidth = 200

type todoWriteInput struct {
	Todos []struct {
		Content string `json:"content"`
		Status  string `json:"status"`
	} `json:"todos"`
}

// Extractor builds Records from parsed entries.
type Extractor struct {
	// ExcerptWidth bounds FirstMessage in display columns.
	ExcerptWidth int
}

// ExtractFile parses src.Path and extracts its Record. The only error is
// UNREADABLE_FILE; a read error part way through is logged and the entries
// read so far are used.
func (x Extractor) ExtractFile(src Source) (*Record, error) {
	r, err := transcript.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rec := x.Extract(src, r.All())

	if err := r.Err(); err != nil {
		slog.Warn("conversation log truncated", "path", src.Path, "error", err)
	}
	if n := r.Malformed(); n > 0 {
		slog.Warn("skipped malformed entries", "path", src.Path, "count", n)
	}
	return rec, nil
}

// Extract consumes entries in order and builds the Record for src.
// SourceMtime is left zero; the cache stamps it.
func (x Extractor) Extract(src Source, entries iter.Seq[transcript.Entry]) *Record {
	rec := &Record{
		SessionID: src.SessionID,
		Project:   src.Project,
		Path:      src.Path,
		Snapshots: []Snapshot{},
	}

	var summary string
	for e := range entries {
		if !e.Timestamp.IsZero() {
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = e.Timestamp
			}
			rec.UpdatedAt = e.Timestamp
		}

		switch e.Kind {
		case transcript.KindSummary:
			if e.Summary != "" {
				summary = e.Summary
			}
		case transcript.KindUser:
			rec.MessageCount = e.Index
			if rec.FirstMessage == "" && !e.IsMeta && e.Text != "" {
				rec.FirstMessage = x.excerpt(e.Text)
			}
		case transcript.KindAssistant:
			rec.MessageCount = e.Index
			for _, tu := range e.ToolUses {
				if snap, ok := snapshotOf(tu, e); ok {
					rec.Snapshots = append(rec.Snapshots, snap)
				}
			}
		}
	}

	rec.Summary = summary
	if rec.Summary == "" {
		rec.Summary = rec.FirstMessage
	}

	rec.FinalState = categorize(rec.FinalTodos())
	rec.Chapters, rec.PendingWork = BuildChapters(rec.Snapshots)
	return rec
}

func snapshotOf(tu transcript.ToolUse, e transcript.Entry) (Snapshot, bool) {
	if tu.Name != TodoWriteTool {
		return Snapshot{}, false
	}

	var in todoWriteInput
	if err := json.Unmarshal(tu.Input, &in); err != nil || in.Todos == nil {
		slog.Debug("ignoring undecodable TodoWrite input", "index", tu.Index, "error", err)
		return Snapshot{}, false
	}

	items := make([]TodoItem, 0, len(in.Todos))
	for _, t := range in.Todos {
		desc := strings.TrimSpace(t.Content)
		if desc == "" {
			continue
		}
		items = append(items, TodoItem{Description: desc, Status: ParseStatus(t.Status)})
	}

	return Snapshot{
		MessageIndex: tu.Index,
		Timestamp:    e.Timestamp,
		Items:        items,
	}, true
}

func (x Extractor) excerpt(text string) string {
	width := x.ExcerptWidth
	if width <= 0 {
		width = DefaultExcerptWidth
	}
	flat := strings.Join(strings.Fields(text), " ")
	return runewidth.Truncate(flat, width, "...")
}

// String implements fmt.Stringer for log attributes.
func (s Source) String() string {
	return fmt.Sprintf("%s/%s", s.Project, s.SessionID)
}
