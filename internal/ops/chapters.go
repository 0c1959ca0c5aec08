package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/progress"
)

// ChaptersInput contains parameters for the Chapters operation.
type ChaptersInput struct {
	SessionID string // required
}

// ChaptersOutput contains the result of the Chapters operation. Chapters
// end at their completing message, so messages after the last completion
// belong to no chapter; OpenRange spans them when there are any.
type ChaptersOutput struct {
	SessionID    string                 `json:"session_id"`
	Summary      string                 `json:"summary"`
	Chapters     []progress.Chapter     `json:"chapters"`
	OpenRange    *progress.MessageRange `json:"open_range,omitempty"`
	PendingWork  []progress.PendingTask `json:"pending_work"`
	MessageCount int                    `json:"message_count"`
}

// Chapters returns the completion-derived chapters of one conversation and
// the tasks that were never completed.
func Chapters(ctx context.Context, idx Index, input ChaptersInput) (*ChaptersOutput, error) {
	id := strings.TrimSpace(input.SessionID)
	if id == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}

	if err := refresh(ctx, idx); err != nil {
		return nil, err
	}
	rec, err := idx.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ChaptersOutput{
		SessionID:    rec.SessionID,
		Summary:      rec.Summary,
		Chapters:     rec.Chapters,
		OpenRange:    openRange(rec.Chapters, rec.MessageCount),
		PendingWork:  rec.PendingWork,
		MessageCount: rec.MessageCount,
	}, nil
}

// openRange returns the messages after the last chapter, or nil if none.
func openRange(chapters []progress.Chapter, count int) *progress.MessageRange {
	start := 1
	if n := len(chapters); n > 0 {
		start = chapters[n-1].MessageRange.End + 1
	}
	if start > count {
		return nil
	}
	return &progress.MessageRange{Start: start, End: count}
}
