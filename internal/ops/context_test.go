package ops

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hpungsan/chronicle/internal/errors"
	"github.com/hpungsan/chronicle/internal/fixture"
)

// fiftyMessages writes a 50-message conversation whose first task completes
// at message 20.
func fiftyMessages(t *testing.T) (func(ContextInput) (*ContextOutput, error), string) {
	t.Helper()
	idx, root := testIndex(t)
	path := writeAt(t, root, testProject, fixture.New("ctx").
		User("start").
		Pad(18).
		Todos(fixture.Todo{Content: "Setup", Status: "completed"}).
		Pad(30), baseTime)

	run := func(in ContextInput) (*ContextOutput, error) {
		in.SessionID = "ctx"
		return Context(context.Background(), idx, in)
	}
	return run, path
}

func TestContext_ExpandWithinBounds(t *testing.T) {
	run, _ := fiftyMessages(t)

	out, err := run(ContextInput{Start: 21, End: 35, Expand: 5})
	if err != nil {
		t.Fatalf("Context failed: %v", err)
	}
	if out.Start != 16 || out.End != 40 {
		t.Errorf("range = [%d, %d], want [16, 40]", out.Start, out.End)
	}
	if len(out.Messages) != 25 {
		t.Fatalf("len(Messages) = %d, want 25", len(out.Messages))
	}
	if out.Messages[0].Index != 16 || out.Messages[24].Index != 40 {
		t.Errorf("message indices = %d..%d", out.Messages[0].Index, out.Messages[24].Index)
	}
	if !out.CanExpandBefore || !out.CanExpandAfter {
		t.Errorf("CanExpandBefore=%v CanExpandAfter=%v, want both true", out.CanExpandBefore, out.CanExpandAfter)
	}
	if out.MessageCount != 50 {
		t.Errorf("MessageCount = %d, want 50", out.MessageCount)
	}
	if out.Chapter != "Setup" {
		t.Errorf("Chapter = %q, want Setup", out.Chapter)
	}
}

func TestContext_Clamping(t *testing.T) {
	run, _ := fiftyMessages(t)

	tests := []struct {
		name          string
		in            ContextInput
		start, end    int
		count         int
		before, after bool
	}{
		{"whole", ContextInput{Start: 1, End: 50}, 1, 50, 50, false, false},
		{"expand floors at 1", ContextInput{Start: 3, End: 4, Expand: 5}, 1, 9, 9, false, true},
		{"end past total", ContextInput{Start: 45, End: 60}, 45, 50, 6, true, false},
		{"start past total", ContextInput{Start: 60, End: 70}, 60, 50, 0, true, false},
		{"around", ContextInput{Around: 10, Radius: 2}, 8, 12, 5, true, true},
		{"around default radius", ContextInput{Around: 3}, 1, 13, 13, false, true},
		{"recent", ContextInput{Recent: 5}, 46, 50, 5, true, false},
		{"recent more than total", ContextInput{Recent: 80}, 1, 50, 50, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(tt.in)
			if err != nil {
				t.Fatalf("Context failed: %v", err)
			}
			if out.Start != tt.start || out.End != tt.end {
				t.Errorf("range = [%d, %d], want [%d, %d]", out.Start, out.End, tt.start, tt.end)
			}
			if len(out.Messages) != tt.count {
				t.Errorf("len(Messages) = %d, want %d", len(out.Messages), tt.count)
			}
			if out.CanExpandBefore != tt.before || out.CanExpandAfter != tt.after {
				t.Errorf("expand flags = %v/%v, want %v/%v", out.CanExpandBefore, out.CanExpandAfter, tt.before, tt.after)
			}
		})
	}
}

func TestContext_Validation(t *testing.T) {
	run, _ := fiftyMessages(t)

	tests := []struct {
		name string
		in   ContextInput
		code errors.ErrorCode
	}{
		{"start zero", ContextInput{Start: 0, End: 5}, errors.ErrRangeOutOfBounds},
		{"start negative", ContextInput{Start: -2, End: 5}, errors.ErrRangeOutOfBounds},
		{"start after end", ContextInput{Start: 9, End: 3}, errors.ErrRangeOutOfBounds},
		{"around zero with radius", ContextInput{Radius: 3}, errors.ErrRangeOutOfBounds},
		{"negative expand", ContextInput{Start: 1, End: 2, Expand: -1}, errors.ErrInvalidRequest},
		{"negative radius", ContextInput{Around: 4, Radius: -1}, errors.ErrInvalidRequest},
		{"negative recent", ContextInput{Recent: -1}, errors.ErrInvalidRequest},
		{"no mode", ContextInput{}, errors.ErrInvalidRequest},
		{"two modes", ContextInput{Start: 1, End: 2, Recent: 3}, errors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(tt.in)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestContext_UnknownSession(t *testing.T) {
	idx, _ := testIndex(t)
	_, err := Context(context.Background(), idx, ContextInput{SessionID: "missing", Start: 1, End: 2})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}

	_, err = Context(context.Background(), idx, ContextInput{Start: 1, End: 2})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing session_id err = %v, want INVALID_REQUEST", err)
	}
}

func TestContext_FileRemovedAfterCaching(t *testing.T) {
	run, path := fiftyMessages(t)
	if _, err := run(ContextInput{Start: 1, End: 1}); err != nil {
		t.Fatalf("Context failed: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	_, err := run(ContextInput{Start: 1, End: 1})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestContext_RangeCheckedBeforeLookup(t *testing.T) {
	idx, _ := testIndex(t)
	_, err := Context(context.Background(), idx, ContextInput{SessionID: "missing", Start: 5, End: 1})
	if !errors.Is(err, errors.ErrRangeOutOfBounds) {
		t.Errorf("err = %v, want RANGE_OUT_OF_BOUNDS", err)
	}
}

func TestContext_RecentFollowsGrowingLog(t *testing.T) {
	idx, root := testIndex(t)
	log := fixture.New("grow").User("start").Pad(9)
	writeAt(t, root, testProject, log, baseTime)

	run := func(in ContextInput) *ContextOutput {
		t.Helper()
		in.SessionID = "grow"
		out, err := Context(context.Background(), idx, in)
		if err != nil {
			t.Fatalf("Context failed: %v", err)
		}
		return out
	}

	out := run(ContextInput{Recent: 3})
	if out.Start != 8 || out.End != 10 || out.CanExpandAfter {
		t.Fatalf("before growth = [%d, %d] after=%v, want [8, 10] false", out.Start, out.End, out.CanExpandAfter)
	}

	log.Todos(fixture.Todo{Content: "Setup", Status: "completed"}).Pad(9)
	writeAt(t, root, testProject, log, baseTime.Add(time.Minute))

	out = run(ContextInput{Recent: 3})
	if out.Start != 18 || out.End != 20 {
		t.Errorf("after growth = [%d, %d], want [18, 20]", out.Start, out.End)
	}
	if out.CanExpandAfter || out.MessageCount != 20 {
		t.Errorf("CanExpandAfter=%v MessageCount=%d, want false 20", out.CanExpandAfter, out.MessageCount)
	}

	// The chapter label comes from the re-derived record too.
	if out := run(ContextInput{Around: 5}); out.Chapter != "Setup" {
		t.Errorf("Chapter = %q, want Setup", out.Chapter)
	}
}
