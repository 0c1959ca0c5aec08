package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hpungsan/chronicle/internal/fixture"
)

func TestDiscover_Layout(t *testing.T) {
	root := t.TempDir()
	fixture.New("b-session").User("hi").Write(t, root, "-home-dev-api")
	fixture.New("a-session").User("hi").Write(t, root, "-home-dev-api")
	fixture.New("c-session").User("hi").Write(t, root, "-home-dev-web")

	// Noise that must be ignored.
	fixture.New("nested").User("hi").Write(t, filepath.Join(root, "-home-dev-api"), subagentsDir)
	fixture.New("sessions-index").User("{}").Write(t, root, "-home-dev-web")
	if err := os.WriteFile(filepath.Join(root, "-home-dev-web", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New(root).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []struct{ project, session string }{
		{"-home-dev-api", "a-session"},
		{"-home-dev-api", "b-session"},
		{"-home-dev-web", "c-session"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Project != w.project || got[i].SessionID != w.session {
			t.Errorf("got[%d] = %+v, want %s/%s", i, got[i], w.project, w.session)
		}
		if filepath.Base(got[i].Path) != w.session+".jsonl" {
			t.Errorf("got[%d].Path = %s", i, got[i].Path)
		}
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	got, err := New(filepath.Join(t.TempDir(), "absent")).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d sources, want 0", len(got))
	}
}

func TestDiscover_Canceled(t *testing.T) {
	root := t.TempDir()
	fixture.New("s").User("hi").Write(t, root, "p")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(root).Discover(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestStat(t *testing.T) {
	root := t.TempDir()
	path := fixture.New("s").User("hi").Write(t, root, "p")
	mtime := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	fixture.Touch(t, path, mtime)

	d := New(root)
	got, err := d.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !got.Equal(mtime) {
		t.Errorf("Stat = %v, want %v", got, mtime)
	}

	if _, err := d.Stat(filepath.Join(root, "p", "gone.jsonl")); !os.IsNotExist(err) {
		t.Errorf("Stat(missing) err = %v, want not-exist", err)
	}
	if _, err := d.Stat(filepath.Join(root, "p")); err == nil {
		t.Error("Stat(dir) should fail")
	}
}
