// Package fixture builds Claude Code style JSONL conversation logs for tests.
package fixture

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Todo is one TodoWrite item.
type Todo struct {
	Content string
	Status  string
}

// Log accumulates JSONL lines for one session.
type Log struct {
	SessionID string
	Cwd       string

	base  time.Time
	step  int
	lines [][]byte
}

// New starts a log for sessionID with timestamps from 2025-01-01T00:00:00Z,
// one minute apart.
func New(sessionID string) *Log {
	return &Log{
		SessionID: sessionID,
		Cwd:       "/home/dev/project",
		base:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// At sets the timestamp of the next entry; later entries follow one minute apart.
func (l *Log) At(t time.Time) *Log {
	l.base = t.UTC()
	l.step = 0
	return l
}

func (l *Log) next() string {
	ts := l.base.Add(time.Duration(l.step) * time.Minute)
	l.step++
	return ts.Format(time.RFC3339Nano)
}

func (l *Log) add(v map[string]any) *Log {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	l.lines = append(l.lines, b)
	return l
}

// User appends a user message with string content.
func (l *Log) User(text string) *Log {
	return l.add(map[string]any{
		"type":      "user",
		"sessionId": l.SessionID,
		"cwd":       l.Cwd,
		"timestamp": l.next(),
		"message":   map[string]any{"role": "user", "content": text},
	})
}

// Meta appends a user entry flagged isMeta.
func (l *Log) Meta(text string) *Log {
	return l.add(map[string]any{
		"type":      "user",
		"isMeta":    true,
		"sessionId": l.SessionID,
		"timestamp": l.next(),
		"message":   map[string]any{"role": "user", "content": text},
	})
}

// Assistant appends an assistant message with one text block.
func (l *Log) Assistant(text string) *Log {
	return l.add(map[string]any{
		"type":      "assistant",
		"sessionId": l.SessionID,
		"timestamp": l.next(),
		"message": map[string]any{
			"role":    "assistant",
			"content": []any{map[string]any{"type": "text", "text": text}},
		},
	})
}

// Tool appends an assistant message invoking an arbitrary tool.
func (l *Log) Tool(name string, input any) *Log {
	return l.add(map[string]any{
		"type":      "assistant",
		"sessionId": l.SessionID,
		"timestamp": l.next(),
		"message": map[string]any{
			"role": "assistant",
			"content": []any{map[string]any{
				"type":  "tool_use",
				"id":    "toolu_" + l.SessionID,
				"name":  name,
				"input": input,
			}},
		},
	})
}

// Todos appends an assistant message carrying a TodoWrite invocation.
func (l *Log) Todos(items ...Todo) *Log {
	todos := make([]any, len(items))
	for i, it := range items {
		todos[i] = map[string]any{
			"content":    it.Content,
			"status":     it.Status,
			"activeForm": it.Content,
		}
	}
	return l.Tool("TodoWrite", map[string]any{"todos": todos})
}

// ToolResult appends a user entry carrying only a tool_result block.
func (l *Log) ToolResult() *Log {
	return l.add(map[string]any{
		"type":      "user",
		"sessionId": l.SessionID,
		"timestamp": l.next(),
		"message": map[string]any{
			"role": "user",
			"content": []any{map[string]any{
				"type":        "tool_result",
				"tool_use_id": "toolu_" + l.SessionID,
				"content":     "ok",
			}},
		},
	})
}

// Summary appends a summary entry.
func (l *Log) Summary(text string) *Log {
	return l.add(map[string]any{"type": "summary", "summary": text, "leafUuid": "leaf"})
}

// Raw appends a literal line.
func (l *Log) Raw(line string) *Log {
	l.lines = append(l.lines, []byte(line))
	return l
}

// Pad appends n alternating user/assistant messages.
func (l *Log) Pad(n int) *Log {
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			l.User("continue")
		} else {
			l.Assistant("working")
		}
	}
	return l
}

// Bytes returns the JSONL content.
func (l *Log) Bytes() []byte {
	var buf bytes.Buffer
	for _, line := range l.lines {
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Write writes the log to root/project/<session>.jsonl and returns the path.
func (l *Log) Write(t testing.TB, root, project string) string {
	t.Helper()
	dir := filepath.Join(root, project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, l.SessionID+".jsonl")
	if err := os.WriteFile(path, l.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Touch sets path's modification time to mtime.
func Touch(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
