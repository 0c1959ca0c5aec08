package transcript

import (
	"fmt"
	"time"
)

// Message is a rendered user/assistant entry.
type Message struct {
	Index     int       `json:"index"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Content   string    `json:"content"`
	Tools     []string  `json:"tools,omitempty"`
}

// Render converts a message entry into its rendered form.
func Render(e Entry) Message {
	m := Message{
		Index:     e.Index,
		Role:      string(e.Kind),
		Timestamp: e.Timestamp,
		Content:   e.Text,
	}
	for _, tu := range e.ToolUses {
		m.Tools = append(m.Tools, tu.Name)
	}
	return m
}

// Window re-reads path and returns the rendered messages with index in
// [start, end], plus the total message count of the file.
func Window(path string, start, end int) ([]Message, int, error) {
	r, err := Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()

	msgs := []Message{}
	total := 0
	for e := range r.All() {
		if !e.Kind.IsMessage() {
			continue
		}
		total = e.Index
		if e.Index >= start && e.Index <= end {
			msgs = append(msgs, Render(e))
		}
	}
	if err := r.Err(); err != nil {
		return msgs, total, fmt.Errorf("read %s: %w", path, err)
	}
	return msgs, total, nil
}
