package socialmuse

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWorkspacesGetCreatesOnce(t *testing.T) {
	kv := NewMemoryKV()
	built := 0
	r := NewWorkspaces(func(id string) *Workspace {
		built++
		return NewWorkspace(id, WorkspaceDeps{Store: NewStore(kv, id), Gate: NewKeyGate(kv, id, "k")})
	})

	ctx := context.Background()
	a1, err := r.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	a2, _ := r.Get(ctx, "a")
	if a1 != a2 {
		t.Error("Get returned a different workspace for the same id")
	}
	if _, err := r.Get(ctx, "b"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if built != 2 || r.Len() != 2 {
		t.Errorf("built=%d len=%d, want 2 and 2", built, r.Len())
	}
}

func TestWorkspacesEvictKeepsData(t *testing.T) {
	kv := NewMemoryKV()
	past := time.Now().Add(-3 * time.Hour)
	r := NewWorkspaces(func(id string) *Workspace {
		return NewWorkspace(id, WorkspaceDeps{
			Store:   NewStore(kv, id),
			Gate:    NewKeyGate(kv, id, "k"),
			Drafter: staticDrafter(),
			Now:     func() time.Time { return past },
		})
	})

	ctx := context.Background()
	w, _ := r.Get(ctx, "a")
	if _, err := w.Generate(ctx, CampaignData{Idea: "keep me", Tone: ToneWitty}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if n := r.Evict(time.Hour); n != 1 {
		t.Fatalf("Evict = %d, want 1", n)
	}
	if r.Len() != 0 {
		t.Fatalf("Len after evict = %d", r.Len())
	}

	again, err := r.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again == w {
		t.Error("evicted workspace was reused")
	}
	if s := again.Snapshot(); len(s.History) != 1 || s.History[0].Idea != "keep me" {
		t.Errorf("history after reload = %+v", s.History)
	}
}

func TestWorkspacesConcurrentGetSharesOneWorkspace(t *testing.T) {
	kv := NewMemoryKV()
	r := NewWorkspaces(func(id string) *Workspace {
		return NewWorkspace(id, WorkspaceDeps{Store: NewStore(kv, id), Gate: NewKeyGate(kv, id, "k")})
	})

	ctx := context.Background()
	got := make([]*Workspace, 20)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := r.Get(ctx, "a")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			got[i] = w
		}()
	}
	wg.Wait()

	for i, w := range got {
		if w != got[0] {
			t.Fatalf("Get #%d returned a different workspace", i)
		}
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestWorkspacesGetMarksSeen(t *testing.T) {
	kv := NewMemoryKV()
	clock := time.Now().Add(-3 * time.Hour)
	r := NewWorkspaces(func(id string) *Workspace {
		return NewWorkspace(id, WorkspaceDeps{
			Store: NewStore(kv, id),
			Gate:  NewKeyGate(kv, id, "k"),
			Now:   func() time.Time { return clock },
		})
	})

	ctx := context.Background()
	if _, err := r.Get(ctx, "a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	clock = time.Now()
	if _, err := r.Get(ctx, "a"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := r.Evict(time.Hour); n != 0 {
		t.Errorf("Evict = %d right after Get, want 0", n)
	}
}

func TestWorkspacesEvictSkipsInFlightCalls(t *testing.T) {
	kv := NewMemoryKV()
	past := time.Now().Add(-3 * time.Hour)
	release := make(chan struct{})
	started := make(chan struct{})
	r := NewWorkspaces(func(id string) *Workspace {
		return NewWorkspace(id, WorkspaceDeps{
			Store: NewStore(kv, id),
			Gate:  NewKeyGate(kv, id, "k"),
			Drafter: draftFunc(func(context.Context, string, CampaignData) ([]SocialPost, error) {
				close(started)
				<-release
				return samplePosts(), nil
			}),
			Now: func() time.Time { return past },
		})
	})

	ctx := context.Background()
	w, err := r.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	done := make(chan error)
	go func() {
		_, err := w.Generate(ctx, CampaignData{Idea: "slow", Tone: ToneWitty})
		done <- err
	}()
	<-started

	if n := r.Evict(time.Hour); n != 0 {
		t.Errorf("Evict = %d during a model call, want 0", n)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n := r.Evict(time.Hour); n != 1 {
		t.Errorf("Evict = %d after the call finished, want 1", n)
	}
}
