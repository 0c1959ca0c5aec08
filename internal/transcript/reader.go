package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hpungsan/chronicle/internal/errors"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Reader yields entries from one log file lazily, in file order.
type Reader struct {
	path string
	f    *os.File
	br   *bufio.Reader
	buf  []byte

	line      int
	index     int
	malformed int
	err       error
}

// Open opens a log file for reading. The error is an UNREADABLE_FILE
// ChronicleError wrapping the underlying os error.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewUnreadableFile(path, err)
	}

	return &Reader{path: path, f: f, br: bufio.NewReaderSize(f, 64*1024)}, nil
}

// Next returns the next entry. It returns false at end of file or on a
// read error (see Err). Malformed lines, including lines over the size
// limit, are skipped.
func (r *Reader) Next() (Entry, bool) {
	for {
		text, tooLong, err := r.readLine()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return Entry{}, false
		}
		r.line++
		if tooLong {
			r.malformed++
			slog.Debug("skipping oversized entry",
				"error", errors.NewMalformedEntry(r.path, r.line, fmt.Errorf("line exceeds %d bytes", maxLineSize)))
			continue
		}
		line := bytes.TrimSpace(text)
		if len(line) == 0 {
			continue
		}

		var raw rawEntry
		if err := json.Unmarshal(line, &raw); err != nil {
			r.malformed++
			slog.Debug("skipping malformed entry", "error", errors.NewMalformedEntry(r.path, r.line, err))
			continue
		}

		kind := Kind(raw.Type)
		switch kind {
		case KindUser, KindAssistant:
			r.index++
		case KindSummary, KindSystem:
		default:
			continue
		}

		return r.decode(kind, &raw), true
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed and reported with tooLong set and no content. The
// returned slice is only valid until the next call.
func (r *Reader) readLine() ([]byte, bool, error) {
	r.buf = r.buf[:0]
	tooLong := false
	for {
		chunk, err := r.br.ReadSlice('\n')
		if !tooLong {
			if len(r.buf)+len(chunk) > maxLineSize {
				tooLong = true
				r.buf = r.buf[:0]
			} else {
				r.buf = append(r.buf, chunk...)
			}
		}
		switch err {
		case nil:
			return r.buf, tooLong, nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(r.buf) == 0 && !tooLong {
				return nil, false, io.EOF
			}
			return r.buf, tooLong, nil
		default:
			return nil, false, err
		}
	}
}

// All returns an iterator over the remaining entries.
func (r *Reader) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for {
			e, ok := r.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// Err returns the first non-EOF read error.
func (r *Reader) Err() error {
	return r.err
}

// Malformed returns how many lines have been skipped as invalid JSON or
// oversized.
func (r *Reader) Malformed() int {
	return r.malformed
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

func (r *Reader) decode(kind Kind, raw *rawEntry) Entry {
	e := Entry{
		Kind:      kind,
		Timestamp: parseTimestamp(raw.Timestamp),
		SessionID: raw.SessionID,
		Cwd:       raw.Cwd,
		IsMeta:    raw.IsMeta,
	}

	switch kind {
	case KindSummary:
		e.Summary = strings.TrimSpace(raw.Summary)
	case KindSystem:
		e.Text = textOf(raw.Content)
	default:
		e.Index = r.index
		var msg rawMessage
		if len(raw.Message) > 0 && json.Unmarshal(raw.Message, &msg) == nil {
			e.Text, e.ToolUses = extractContent(msg.Content, r.index)
		}
	}
	return e
}

// extractContent splits message content into joined text and tool invocations.
// Content is either a plain string or an array of typed blocks.
func extractContent(raw json.RawMessage, index int) (string, []ToolUse) {
	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", nil
	}

	var (
		parts []string
		tools []ToolUse
	)
	for _, b := range blocks {
		switch b.Type {
		case "text":
			if t := strings.TrimSpace(b.Text); t != "" {
				parts = append(parts, t)
			}
		case "tool_use":
			tools = append(tools, ToolUse{
				ID:    b.ID,
				Name:  b.Name,
				Input: b.Input,
				Index: index,
			})
		}
	}
	return strings.Join(parts, "\n"), tools
}

func textOf(raw json.RawMessage) string {
	text, _ := extractContent(raw, 0)
	return text
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	// ISO8601 without timezone
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
