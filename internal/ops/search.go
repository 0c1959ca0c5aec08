package ops

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/hpungsan/chronicle/internal/errors"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query   string // whitespace-separated terms; empty yields no results
	Project string // optional filter
	Limit   int    // default: 20, max: 100
	Offset  int    // default: 0
}

// SearchResultItem is one matching conversation.
type SearchResultItem struct {
	SessionID    string    `json:"session_id"`
	Score        int       `json:"score"`
	MatchedTodos []string  `json:"matched_todos"`
	Summary      string    `json:"summary"`
	Project      string    `json:"project"`
	Timestamp    time.Time `json:"timestamp,omitzero"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

// Search scores each conversation's current task list against the query.
// A task contributes one point per distinct query term it contains,
// compared case-insensitively. Conversations scoring zero are omitted.
func Search(ctx context.Context, idx Index, input SearchInput) (*SearchOutput, error) {
	if len(input.Query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d bytes", MaxQueryLength))
	}

	limit := clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	fold := cases.Fold()
	terms := queryTerms(fold, input.Query)
	if len(terms) == 0 {
		page, pagination := paginate([]SearchResultItem{}, limit, input.Offset)
		return &SearchOutput{Items: page, Pagination: pagination, Sort: "score_desc"}, nil
	}

	if err := refresh(ctx, idx); err != nil {
		return nil, err
	}
	project := cleanProject(input.Project)

	var results []SearchResultItem
	for _, rec := range idx.All() {
		if project != "" && rec.Project != project {
			continue
		}
		score := 0
		var matched []string
		for _, todo := range rec.FinalTodos() {
			n := countTerms(fold.String(todo.Description), terms)
			if n == 0 {
				continue
			}
			score += n
			matched = append(matched, todo.Description)
		}
		if score == 0 {
			continue
		}
		results = append(results, SearchResultItem{
			SessionID:    rec.SessionID,
			Score:        score,
			MatchedTodos: matched,
			Summary:      rec.Summary,
			Project:      rec.Project,
			Timestamp:    rec.CreatedAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.SessionID < b.SessionID
	})

	page, pagination := paginate(results, limit, input.Offset)
	return &SearchOutput{
		Items:      page,
		Pagination: pagination,
		Sort:       "score_desc",
	}, nil
}

// queryTerms folds and splits query, dropping duplicate terms.
func queryTerms(fold cases.Caser, query string) []string {
	seen := map[string]bool{}
	var terms []string
	for _, t := range strings.Fields(fold.String(query)) {
		if seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

func countTerms(folded string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(folded, t) {
			n++
		}
	}
	return n
}
