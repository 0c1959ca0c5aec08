package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/fixture"
	"github.com/hpungsan/chronicle/internal/progress"
)

func TestChapters_HappyPath(t *testing.T) {
	idx, root := testIndex(t)
	writeAt(t, root, testProject, fixture.New("memory").
		User("Build a better memory server").
		Assistant("ok").
		User("start").
		Todos(fixture.Todo{Content: "Study memory server", Status: "in_progress"}).
		Pad(15).
		Todos(
			fixture.Todo{Content: "Study memory server", Status: "completed"},
			fixture.Todo{Content: "Design search", Status: "in_progress"},
		), baseTime)

	out, err := Chapters(context.Background(), idx, ChaptersInput{SessionID: "memory"})
	if err != nil {
		t.Fatalf("Chapters failed: %v", err)
	}
	if len(out.Chapters) != 1 {
		t.Fatalf("len(Chapters) = %d, want 1", len(out.Chapters))
	}
	ch := out.Chapters[0]
	if ch.Title != "Study memory server" || ch.MessageRange != (progress.MessageRange{Start: 1, End: 20}) || ch.CompletedAt != 20 {
		t.Errorf("chapter = %+v", ch)
	}
	if len(out.PendingWork) != 1 || out.PendingWork[0] != (progress.PendingTask{Title: "Design search", StartedAt: 20}) {
		t.Errorf("PendingWork = %+v", out.PendingWork)
	}
	if out.MessageCount != 20 {
		t.Errorf("MessageCount = %d, want 20", out.MessageCount)
	}
	if out.Summary != "Build a better memory server" {
		t.Errorf("Summary = %q", out.Summary)
	}
}

func TestChapters_NoTasks(t *testing.T) {
	idx, root := testIndex(t)
	writeAt(t, root, testProject, fixture.New("plain").User("hi").Assistant("hello"), baseTime)

	out, err := Chapters(context.Background(), idx, ChaptersInput{SessionID: "plain"})
	if err != nil {
		t.Fatalf("Chapters failed: %v", err)
	}
	if out.Chapters == nil || len(out.Chapters) != 0 {
		t.Errorf("Chapters = %#v, want empty", out.Chapters)
	}
	if out.PendingWork == nil || len(out.PendingWork) != 0 {
		t.Errorf("PendingWork = %#v, want empty", out.PendingWork)
	}
}

func TestChapters_Errors(t *testing.T) {
	idx, _ := testIndex(t)

	_, err := Chapters(context.Background(), idx, ChaptersInput{SessionID: "  "})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank id err = %v, want INVALID_REQUEST", err)
	}

	_, err = Chapters(context.Background(), idx, ChaptersInput{SessionID: "nope"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown id err = %v, want NOT_FOUND", err)
	}
}

func TestChapters_OpenRange(t *testing.T) {
	idx, root := testIndex(t)
	writeAt(t, root, testProject, fixture.New("tail").
		User("start").
		Todos(fixture.Todo{Content: "First", Status: "completed"}).
		Pad(3).
		Todos(
			fixture.Todo{Content: "First", Status: "completed"},
			fixture.Todo{Content: "Second", Status: "completed"},
		).
		Pad(4), baseTime)
	writeAt(t, root, testProject, fixture.New("closed").
		User("start").
		Todos(fixture.Todo{Content: "Only", Status: "completed"}), baseTime)
	writeAt(t, root, testProject, fixture.New("untracked").
		User("hello").
		Assistant("hi"), baseTime)

	tests := []struct {
		id        string
		lastEnd   int
		openRange *progress.MessageRange
	}{
		{"tail", 6, &progress.MessageRange{Start: 7, End: 10}},
		{"closed", 2, nil},
		{"untracked", 0, &progress.MessageRange{Start: 1, End: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			out, err := Chapters(context.Background(), idx, ChaptersInput{SessionID: tt.id})
			if err != nil {
				t.Fatalf("Chapters failed: %v", err)
			}
			if n := len(out.Chapters); n > 0 && out.Chapters[n-1].MessageRange.End != tt.lastEnd {
				t.Errorf("last chapter ends at %d, want %d", out.Chapters[n-1].MessageRange.End, tt.lastEnd)
			}
			switch {
			case tt.openRange == nil && out.OpenRange != nil:
				t.Errorf("OpenRange = %+v, want nil", *out.OpenRange)
			case tt.openRange != nil && (out.OpenRange == nil || *out.OpenRange != *tt.openRange):
				t.Errorf("OpenRange = %v, want %+v", out.OpenRange, *tt.openRange)
			}
		})
	}
}
