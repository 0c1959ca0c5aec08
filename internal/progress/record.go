// Package progress derives structured task-list progress from parsed
// conversation logs: TodoWrite snapshots, final task state, and chapters.
package progress

import (
	"strings"
	"time"
)

// Status is the state of one task-list item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ParseStatus maps a raw status string to a Status. Unknown values are pending.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusInProgress:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// Source identifies one conversation log on disk.
type Source struct {
	SessionID string
	Path      string
	Project   string
}

// TodoItem is one task in a snapshot.
type TodoItem struct {
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// Snapshot is the task list captured at a message index.
type Snapshot struct {
	MessageIndex int        `json:"message_index"`
	Timestamp    time.Time  `json:"timestamp,omitzero"`
	Items        []TodoItem `json:"items"`
}

// FinalState categorizes the last snapshot's items by status.
type FinalState struct {
	Completed  []string `json:"completed"`
	InProgress []string `json:"in_progress"`
	Pending    []string `json:"pending"`
}

// MessageRange is an inclusive range of message indices.
type MessageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Chapter is the message range attributed to the task(s) completed at CompletedAt.
type Chapter struct {
	Title        string       `json:"title"`
	Tasks        []string     `json:"tasks"`
	MessageRange MessageRange `json:"message_range"`
	CompletedAt  int          `json:"completed_at"`
}

// PendingTask is a task that was never marked completed.
type PendingTask struct {
	Title     string `json:"title"`
	StartedAt int    `json:"started_at"`
}

// Record is the cached unit per conversation. A Record is never modified
// after it is published; re-derivation builds a new one.
type Record struct {
	SessionID    string    `json:"session_id"`
	Project      string    `json:"project"`
	Path         string    `json:"path"`
	FirstMessage string    `json:"first_message"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
	MessageCount int       `json:"message_count"`

	// SourceMtime is the backing file's modification time at derivation.
	SourceMtime time.Time `json:"source_mtime,omitzero"`

	Snapshots   []Snapshot    `json:"snapshots"`
	FinalState  FinalState    `json:"final_state"`
	Chapters    []Chapter     `json:"chapters"`
	PendingWork []PendingTask `json:"pending_work"`
}

// FinalTodos returns the items of the last snapshot in their original order.
func (r *Record) FinalTodos() []TodoItem {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return r.Snapshots[len(r.Snapshots)-1].Items
}

func categorize(items []TodoItem) FinalState {
	fs := FinalState{
		Completed:  []string{},
		InProgress: []string{},
		Pending:    []string{},
	}
	for _, it := range items {
		switch it.Status {
		case StatusCompleted:
			fs.Completed = append(fs.Completed, it.Description)
		case StatusInProgress:
			fs.InProgress = append(fs.InProgress, it.Description)
		default:
			fs.Pending = append(fs.Pending, it.Description)
		}
	}
	return fs
}
