package ops

import (
	"context"
	"testing"
	"time"

	"github.com/hpungsan/chronicle/internal/fixture"
)

func TestProjects(t *testing.T) {
	idx, root := testIndex(t)
	writeAt(t, root, "-home-dev-web", fixture.New("w1").User("x"), baseTime)
	writeAt(t, root, "-home-dev-api", fixture.New("a1").User("x"), baseTime)
	writeAt(t, root, "-home-dev-api", fixture.New("a2").User("x"), baseTime.Add(time.Hour))

	out, err := Projects(context.Background(), idx)
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if len(out.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(out.Items))
	}
	api := out.Items[0]
	if api.Name != "-home-dev-api" || api.Conversations != 2 {
		t.Errorf("Items[0] = %+v", api)
	}
	if !api.LastModified.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("LastModified = %v", api.LastModified)
	}
	if out.Items[1].Name != "-home-dev-web" || out.Items[1].Conversations != 1 {
		t.Errorf("Items[1] = %+v", out.Items[1])
	}
}

func TestProjects_Empty(t *testing.T) {
	idx, _ := testIndex(t)
	out, err := Projects(context.Background(), idx)
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if out.Items == nil || len(out.Items) != 0 {
		t.Errorf("Items = %#v, want empty", out.Items)
	}
}
