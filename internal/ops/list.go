package ops

import (
	"context"
	"sort"
	"time"

	"github.com/hpungsan/chronicle/internal/progress"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Project string // optional filter
	Limit   int    // default: 20, max: 100
	Offset  int    // default: 0
}

// ConversationSummary is one conversation in a List result.
type ConversationSummary struct {
	SessionID    string    `json:"session_id"`
	Project      string    `json:"project"`
	Timestamp    time.Time `json:"timestamp,omitzero"`
	LastModified time.Time `json:"last_modified"`
	Summary      string    `json:"summary"`
	FirstMessage string    `json:"first_message"`
	Completed    []string  `json:"completed"`
	InProgress   []string  `json:"in_progress"`
	Pending      []string  `json:"pending"`
	MessageCount int       `json:"message_count"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []ConversationSummary `json:"items"`
	Pagination Pagination            `json:"pagination"`
	Sort       string                `json:"sort"`
}

// List returns conversations, most recently modified first.
func List(ctx context.Context, idx Index, input ListInput) (*ListOutput, error) {
	if err := refresh(ctx, idx); err != nil {
		return nil, err
	}

	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	project := cleanProject(input.Project)

	var recs []*progress.Record
	for _, rec := range idx.All() {
		if project != "" && rec.Project != project {
			continue
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].SourceMtime.Equal(recs[j].SourceMtime) {
			return recs[i].SourceMtime.After(recs[j].SourceMtime)
		}
		return recs[i].SessionID < recs[j].SessionID
	})

	page, pagination := paginate(recs, limit, input.Offset)
	items := make([]ConversationSummary, len(page))
	for i, rec := range page {
		items[i] = summarize(rec)
	}

	return &ListOutput{
		Items:      items,
		Pagination: pagination,
		Sort:       "last_modified_desc",
	}, nil
}

func summarize(rec *progress.Record) ConversationSummary {
	return ConversationSummary{
		SessionID:    rec.SessionID,
		Project:      rec.Project,
		Timestamp:    rec.CreatedAt,
		LastModified: rec.SourceMtime,
		Summary:      rec.Summary,
		FirstMessage: rec.FirstMessage,
		Completed:    rec.FinalState.Completed,
		InProgress:   rec.FinalState.InProgress,
		Pending:      rec.FinalState.Pending,
		MessageCount: rec.MessageCount,
	}
}
