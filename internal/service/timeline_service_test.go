package service

import (
	"context"
	"testing"
	"time"

	"github.com/beeline-social/engagement-core/internal/domain"
)

func seedContent(repo *fakeContentRepo, contentID, ownerID string, createdAt time.Time) {
	repo.items[contentID] = &domain.ContentItem{
		ContentID: contentID,
		OwnerID:   ownerID,
		CreatedAt: createdAt,
	}
}

func TestHomeTimelineMergesNewestFirst(t *testing.T) {
	graph := newFakeGraphRepo()
	content := newFakeContentRepo()
	svc := NewTimelineService(graph, content, 100)

	graph.users["alice"] = &domain.User{UserID: "alice", Following: []string{"bob", "carol"}}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedContent(content, "c1", "bob", base.Add(1*time.Minute))
	seedContent(content, "c2", "carol", base.Add(3*time.Minute))
	seedContent(content, "c3", "bob", base.Add(2*time.Minute))

	items, err := svc.HomeTimeline(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("home timeline: %v", err)
	}

	wantOrder := []string{"c2", "c3", "c1"}
	if len(items) != len(wantOrder) {
		t.Fatalf("items = %d, want %d", len(items), len(wantOrder))
	}
	for i, want := range wantOrder {
		if items[i].ContentID != want {
			t.Errorf("items[%d] = %s, want %s", i, items[i].ContentID, want)
		}
	}
}

func TestHomeTimelineTruncatesToLimit(t *testing.T) {
	graph := newFakeGraphRepo()
	content := newFakeContentRepo()
	svc := NewTimelineService(graph, content, 100)

	graph.users["alice"] = &domain.User{UserID: "alice", Following: []string{"bob"}}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedContent(content, string(rune('a'+i)), "bob", base.Add(time.Duration(i)*time.Minute))
	}

	items, err := svc.HomeTimeline(context.Background(), "alice", 2)
	if err != nil {
		t.Fatalf("home timeline: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if !items[0].CreatedAt.After(items[1].CreatedAt) {
		t.Error("items not in newest-first order")
	}
}

func TestHomeTimelineSkipsFailedOwner(t *testing.T) {
	graph := newFakeGraphRepo()
	content := newFakeContentRepo()
	svc := NewTimelineService(graph, content, 100)

	graph.users["alice"] = &domain.User{UserID: "alice", Following: []string{"bob", "carol"}}
	seedContent(content, "c1", "bob", time.Now().UTC())
	content.errOwners["carol"] = true

	items, err := svc.HomeTimeline(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("home timeline: %v", err)
	}
	if len(items) != 1 || items[0].ContentID != "c1" {
		t.Errorf("items = %+v, want bob's content only", items)
	}
}

func TestHomeTimelineEmptyFollowing(t *testing.T) {
	graph := newFakeGraphRepo()
	content := newFakeContentRepo()
	svc := NewTimelineService(graph, content, 100)

	graph.users["alice"] = &domain.User{UserID: "alice"}

	items, err := svc.HomeTimeline(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("home timeline: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestHomeTimelineUnknownUserIsEmpty(t *testing.T) {
	graph := newFakeGraphRepo()
	content := newFakeContentRepo()
	svc := NewTimelineService(graph, content, 100)

	items, err := svc.HomeTimeline(context.Background(), "ghost", 10)
	if err != nil {
		t.Fatalf("home timeline: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}

func TestHomeTimelineCapsFanOut(t *testing.T) {
	graph := newFakeGraphRepo()
	content := newFakeContentRepo()
	svc := NewTimelineService(graph, content, 1)

	graph.users["alice"] = &domain.User{UserID: "alice", Following: []string{"bob", "carol"}}
	seedContent(content, "c1", "bob", time.Now().UTC())
	seedContent(content, "c2", "carol", time.Now().UTC())

	if _, err := svc.HomeTimeline(context.Background(), "alice", 10); err != nil {
		t.Fatalf("home timeline: %v", err)
	}
	if len(content.queried) != 1 {
		t.Errorf("owners queried = %v, want exactly 1", content.queried)
	}
}
