package progress

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func snap(idx int, items ...TodoItem) Snapshot {
	return Snapshot{MessageIndex: idx, Items: items}
}

func item(desc string, st Status) TodoItem {
	return TodoItem{Description: desc, Status: st}
}

func TestBuildChapters_Empty(t *testing.T) {
	chapters, pending := BuildChapters(nil)
	if chapters == nil || len(chapters) != 0 {
		t.Errorf("chapters = %#v, want empty non-nil", chapters)
	}
	if pending == nil || len(pending) != 0 {
		t.Errorf("pending = %#v, want empty non-nil", pending)
	}
}

func TestBuildChapters_Sequential(t *testing.T) {
	chapters, pending := BuildChapters([]Snapshot{
		snap(3, item("A", StatusInProgress), item("B", StatusPending), item("C", StatusPending)),
		snap(10, item("A", StatusCompleted), item("B", StatusInProgress), item("C", StatusPending)),
		snap(25, item("A", StatusCompleted), item("B", StatusCompleted), item("C", StatusInProgress)),
	})

	want := []Chapter{
		{Title: "A", Tasks: []string{"A"}, MessageRange: MessageRange{1, 10}, CompletedAt: 10},
		{Title: "B", Tasks: []string{"B"}, MessageRange: MessageRange{11, 25}, CompletedAt: 25},
	}
	if len(chapters) != len(want) {
		t.Fatalf("len(chapters) = %d, want %d", len(chapters), len(want))
	}
	for i := range want {
		if fmt.Sprint(chapters[i]) != fmt.Sprint(want[i]) {
			t.Errorf("chapters[%d] = %+v, want %+v", i, chapters[i], want[i])
		}
	}
	if len(pending) != 1 || pending[0] != (PendingTask{Title: "C", StartedAt: 3}) {
		t.Errorf("pending = %+v", pending)
	}
}

func TestBuildChapters_SameIndexGrouped(t *testing.T) {
	chapters, _ := BuildChapters([]Snapshot{
		snap(5, item("Write tests", StatusCompleted), item("Fix lint", StatusCompleted)),
	})
	if len(chapters) != 1 {
		t.Fatalf("len(chapters) = %d, want 1", len(chapters))
	}
	if chapters[0].Title != "Write tests; Fix lint" {
		t.Errorf("Title = %q", chapters[0].Title)
	}
	if len(chapters[0].Tasks) != 2 {
		t.Errorf("Tasks = %v", chapters[0].Tasks)
	}
}

func TestBuildChapters_FirstCompletionWins(t *testing.T) {
	chapters, pending := BuildChapters([]Snapshot{
		snap(4, item("A", StatusCompleted)),
		snap(9, item("A", StatusInProgress)),
		snap(12, item("A", StatusCompleted)),
	})
	if len(chapters) != 1 || chapters[0].CompletedAt != 4 {
		t.Errorf("chapters = %+v, want single chapter completed at 4", chapters)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %+v, want none", pending)
	}
}

func TestBuildChapters_DroppedTaskStaysPending(t *testing.T) {
	_, pending := BuildChapters([]Snapshot{
		snap(2, item("Old plan", StatusPending)),
		snap(7, item("New plan", StatusInProgress)),
	})
	if len(pending) != 2 {
		t.Fatalf("pending = %+v, want 2", pending)
	}
	if pending[0].Title != "Old plan" || pending[1].Title != "New plan" {
		t.Errorf("pending order = %+v", pending)
	}
}

func TestChapterAt(t *testing.T) {
	chapters := []Chapter{
		{Title: "A", MessageRange: MessageRange{1, 10}, CompletedAt: 10},
		{Title: "B", MessageRange: MessageRange{11, 25}, CompletedAt: 25},
	}
	tests := []struct {
		idx  int
		want string
		ok   bool
	}{
		{1, "A", true},
		{10, "A", true},
		{11, "B", true},
		{25, "B", true},
		{26, "", false},
		{0, "", false},
	}
	for _, tt := range tests {
		got, ok := ChapterAt(chapters, tt.idx)
		if ok != tt.ok || got.Title != tt.want {
			t.Errorf("ChapterAt(%d) = (%q, %v), want (%q, %v)", tt.idx, got.Title, ok, tt.want, tt.ok)
		}
	}
}

// genSnapshots draws a snapshot sequence with non-decreasing indices over a
// small task vocabulary.
func genSnapshots(t *rapid.T) []Snapshot {
	names := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	statuses := []Status{StatusPending, StatusInProgress, StatusCompleted}

	n := rapid.IntRange(0, 12).Draw(t, "snapshots")
	idx := 1
	out := make([]Snapshot, 0, n)
	for i := 0; i < n; i++ {
		idx += rapid.IntRange(0, 6).Draw(t, "gap")
		picked := rapid.SliceOfNDistinct(rapid.SampledFrom(names), 0, len(names), rapid.ID[string]).Draw(t, "names")
		items := make([]TodoItem, len(picked))
		for j, name := range picked {
			items[j] = TodoItem{Description: name, Status: rapid.SampledFrom(statuses).Draw(t, "status")}
		}
		out = append(out, Snapshot{MessageIndex: idx, Items: items})
	}
	return out
}

func TestBuildChapters_Invariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		snaps := genSnapshots(t)
		chapters, pending := BuildChapters(snaps)

		prevEnd := 0
		seen := map[string]bool{}
		for i, ch := range chapters {
			if ch.MessageRange.Start != prevEnd+1 {
				t.Fatalf("chapter %d starts at %d, want %d", i, ch.MessageRange.Start, prevEnd+1)
			}
			if ch.MessageRange.End != ch.CompletedAt {
				t.Fatalf("chapter %d ends at %d, completed at %d", i, ch.MessageRange.End, ch.CompletedAt)
			}
			if ch.CompletedAt <= prevEnd {
				t.Fatalf("chapter %d completion %d not after %d", i, ch.CompletedAt, prevEnd)
			}
			if len(ch.Tasks) == 0 {
				t.Fatalf("chapter %d has no tasks", i)
			}
			for _, task := range ch.Tasks {
				if seen[task] {
					t.Fatalf("task %q in more than one chapter", task)
				}
				seen[task] = true
			}
			prevEnd = ch.CompletedAt
		}

		prevStart := 0
		for _, p := range pending {
			if seen[p.Title] {
				t.Fatalf("task %q both completed and pending", p.Title)
			}
			if p.StartedAt < prevStart {
				t.Fatalf("pending not ordered by start: %+v", pending)
			}
			prevStart = p.StartedAt
			seen[p.Title] = true
		}

		for _, s := range snaps {
			for _, it := range s.Items {
				if !seen[it.Description] {
					t.Fatalf("task %q neither completed nor pending", it.Description)
				}
			}
		}
	})
}
