package ops

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/progress"
	"github.com/hpungsan/chronicle/internal/transcript"
)

// ContextInput contains parameters for the Context operation.
// Exactly one addressing mode must be used: Start/End, Around (with Radius),
// or Recent.
type ContextInput struct {
	SessionID string // required

	Start int // inclusive, >= 1
	End   int // inclusive, >= Start

	Around int // centre message index
	Radius int // default: 10

	Recent int // last N messages

	Expand int // widens the resolved range on both sides
}

// ContextOutput contains the result of the Context operation.
type ContextOutput struct {
	SessionID       string               `json:"session_id"`
	Start           int                  `json:"start"`
	End             int                  `json:"end"`
	Messages        []transcript.Message `json:"messages"`
	MessageCount    int                  `json:"message_count"`
	CanExpandBefore bool                 `json:"can_expand_before"`
	CanExpandAfter  bool                 `json:"can_expand_after"`
	Chapter         string               `json:"chapter,omitempty"`
}

type contextMode int

const (
	modeRange contextMode = iota
	modeAround
	modeRecent
)

// resolveMode validates addressing. Range checks that do not depend on the
// conversation length happen here, before any lookup.
func resolveMode(input ContextInput) (contextMode, error) {
	hasRange := input.Start != 0 || input.End != 0
	hasAround := input.Around != 0 || input.Radius != 0
	hasRecent := input.Recent != 0

	modes := 0
	for _, b := range []bool{hasRange, hasAround, hasRecent} {
		if b {
			modes++
		}
	}
	if modes != 1 {
		return 0, errors.NewInvalidRequest("specify exactly one of start/end, around/radius, or recent")
	}
	if input.Expand < 0 {
		return 0, errors.NewInvalidRequest("expand must not be negative")
	}

	switch {
	case hasRange:
		if input.Start < 1 || input.Start > input.End {
			return 0, errors.NewRangeOutOfBounds(input.Start, input.End)
		}
		return modeRange, nil
	case hasAround:
		if input.Around < 1 {
			return 0, errors.NewRangeOutOfBounds(input.Around, input.Around)
		}
		if input.Radius < 0 {
			return 0, errors.NewInvalidRequest("radius must not be negative")
		}
		return modeAround, nil
	default:
		if input.Recent < 0 {
			return 0, errors.NewInvalidRequest("recent must not be negative")
		}
		return modeRecent, nil
	}
}

// Context re-reads a conversation log and returns the messages in the
// requested index range, widened by Expand and clamped to the conversation.
func Context(ctx context.Context, idx Index, input ContextInput) (*ContextOutput, error) {
	id := strings.TrimSpace(input.SessionID)
	if id == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	mode, err := resolveMode(input)
	if err != nil {
		return nil, err
	}

	rec, err := idx.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	var start, end int
	switch mode {
	case modeRange:
		start, end = input.Start, input.End
	case modeAround:
		radius := input.Radius
		if radius == 0 {
			radius = DefaultRadius
		}
		start, end = max(1, input.Around-radius), input.Around+radius
	case modeRecent:
		start, end = max(1, rec.MessageCount-input.Recent+1), max(1, rec.MessageCount)
	}
	start = max(1, start-input.Expand)
	end += input.Expand

	msgs, total, err := transcript.Window(rec.Path, start, end)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewUnknownSession(id)
		}
		if errors.Is(err, errors.ErrUnreadableFile) {
			return nil, err
		}
		// Read failed part way; serve what was read.
		slog.Warn("conversation log truncated", "path", rec.Path, "error", err)
	}
	end = min(end, total)

	out := &ContextOutput{
		SessionID:       rec.SessionID,
		Start:           start,
		End:             end,
		Messages:        msgs,
		MessageCount:    total,
		CanExpandBefore: start > 1,
		CanExpandAfter:  end < total,
	}
	if ch, ok := progress.ChapterAt(rec.Chapters, start); ok {
		out.Chapter = ch.Title
	}
	return out, nil
}
