package progress

import (
	"cmp"
	"slices"
	"strings"
)

// chapterTitleSep joins the descriptions of tasks completed together.
const chapterTitleSep = "; "

type taskState struct {
	title       string
	order       int
	startedAt   int
	completedAt int // 0 until first seen completed
}

// BuildChapters segments a conversation by task completion. Each chapter
// covers the messages after the previous completion up to and including its
// own; messages after the last completion are left out. Tasks completed at
// the same message share a chapter. A task's first
// completion is final even if a later snapshot reverts it. Tasks never
// completed are returned as pending work ordered by the message that first
// mentioned them.
func BuildChapters(snapshots []Snapshot) ([]Chapter, []PendingTask) {
	tasks := map[string]*taskState{}
	var order []*taskState

	for _, snap := range snapshots {
		for _, it := range snap.Items {
			ts, ok := tasks[it.Description]
			if !ok {
				ts = &taskState{title: it.Description, order: len(order), startedAt: snap.MessageIndex}
				tasks[it.Description] = ts
				order = append(order, ts)
			}
			if it.Status == StatusCompleted && ts.completedAt == 0 {
				ts.completedAt = snap.MessageIndex
			}
		}
	}

	var done, open []*taskState
	for _, ts := range order {
		if ts.completedAt > 0 {
			done = append(done, ts)
		} else {
			open = append(open, ts)
		}
	}
	slices.SortStableFunc(done, func(a, b *taskState) int {
		return cmp.Compare(a.completedAt, b.completedAt)
	})
	slices.SortStableFunc(open, func(a, b *taskState) int {
		return cmp.Compare(a.startedAt, b.startedAt)
	})

	chapters := []Chapter{}
	prev := 0
	for i := 0; i < len(done); {
		at := done[i].completedAt
		var names []string
		for ; i < len(done) && done[i].completedAt == at; i++ {
			names = append(names, done[i].title)
		}
		chapters = append(chapters, Chapter{
			Title:        strings.Join(names, chapterTitleSep),
			Tasks:        names,
			MessageRange: MessageRange{Start: prev + 1, End: at},
			CompletedAt:  at,
		})
		prev = at
	}

	pending := make([]PendingTask, 0, len(open))
	for _, ts := range open {
		pending = append(pending, PendingTask{Title: ts.title, StartedAt: ts.startedAt})
	}
	return chapters, pending
}

// ChapterAt returns the chapter whose range contains index.
func ChapterAt(chapters []Chapter, index int) (Chapter, bool) {
	i, found := slices.BinarySearchFunc(chapters, index, func(c Chapter, idx int) int {
		switch {
		case c.MessageRange.End < idx:
			return -1
		case c.MessageRange.Start > idx:
			return 1
		default:
			return 0
		}
	})
	if !found {
		return Chapter{}, false
	}
	return chapters[i], true
}
