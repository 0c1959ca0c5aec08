package ops

import (
	"context"
	"sort"
	"time"
)

// ProjectSummary describes one project directory.
type ProjectSummary struct {
	Name          string    `json:"name"`
	Conversations int       `json:"conversations"`
	LastModified  time.Time `json:"last_modified"`
}

// ProjectsOutput contains the result of the Projects operation.
type ProjectsOutput struct {
	Items []ProjectSummary `json:"items"`
}

// Projects lists every project that has at least one conversation, by name.
func Projects(ctx context.Context, idx Index) (*ProjectsOutput, error) {
	if err := refresh(ctx, idx); err != nil {
		return nil, err
	}

	byName := map[string]*ProjectSummary{}
	for _, rec := range idx.All() {
		p, ok := byName[rec.Project]
		if !ok {
			p = &ProjectSummary{Name: rec.Project}
			byName[rec.Project] = p
		}
		p.Conversations++
		if rec.SourceMtime.After(p.LastModified) {
			p.LastModified = rec.SourceMtime
		}
	}

	items := make([]ProjectSummary, 0, len(byName))
	for _, p := range byName {
		items = append(items, *p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	return &ProjectsOutput{Items: items}, nil
}
