// Package transcript reads Claude Code conversation logs (one JSON object per
// line) into typed entries with a running message index.
package transcript

import (
	"encoding/json"
	"time"
)

// Kind is the entry type. Only these four kinds are surfaced; other record
// types found in logs (file-history snapshots, queue operations) are skipped.
type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindSummary   Kind = "summary"
	KindSystem    Kind = "system"
)

// IsMessage reports whether entries of this kind advance the message index.
func (k Kind) IsMessage() bool {
	return k == KindUser || k == KindAssistant
}

// ToolUse is one tool invocation found in an assistant entry.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage

	// Index is the message index of the entry that carried the invocation.
	Index int
}

// Entry is one parsed log line.
type Entry struct {
	Kind      Kind
	Timestamp time.Time

	// Index is the 1-based message index for user/assistant entries, 0 otherwise.
	Index int

	SessionID string
	Cwd       string
	IsMeta    bool

	// Text holds the joined text blocks of a user/assistant message, or the
	// content string of a system entry.
	Text string

	// Summary is set for summary entries.
	Summary string

	ToolUses []ToolUse
}

// rawEntry mirrors the on-disk record.
type rawEntry struct {
	Type      string          `json:"type"`
	IsMeta    bool            `json:"isMeta"`
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"sessionId"`
	Cwd       string          `json:"cwd"`
	Message   json.RawMessage `json:"message"`
	Summary   string          `json:"summary"`
	Content   json.RawMessage `json:"content"` // system entries
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}
