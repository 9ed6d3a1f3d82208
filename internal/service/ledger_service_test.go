package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/beeline-social/engagement-core/internal/domain"
)

func newLedgerFixture(t *testing.T) (*fakeContentRepo, *fakeNotifier, LedgerService) {
	t.Helper()
	content := newFakeContentRepo()
	interactions := newFakeInteractionRepo(content)
	notifier := &fakeNotifier{}
	svc := NewLedgerService(interactions, content, notifier)

	content.items["post-1"] = &domain.ContentItem{
		ContentID: "post-1",
		OwnerID:   "bob",
		Caption:   "hello",
		CreatedAt: time.Now().UTC(),
	}
	return content, notifier, svc
}

func TestRecordLikeBumpsCounterAndNotifies(t *testing.T) {
	content, notifier, svc := newLedgerFixture(t)

	in, err := svc.Record(context.Background(), "alice", domain.KindLike, "post-1", "", "")
	if err != nil {
		t.Fatalf("record like: %v", err)
	}
	if in.InteractionID != "like:alice:post-1" {
		t.Errorf("interaction id = %q, want deterministic like id", in.InteractionID)
	}
	if got := content.items["post-1"].LikeCount; got != 1 {
		t.Errorf("like count = %d, want 1", got)
	}

	if len(notifier.notified) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.notified))
	}
	n := notifier.notified[0]
	if n.Kind != domain.NotifyLike || n.RecipientID != "bob" || n.ActorID != "alice" {
		t.Errorf("notification = %+v, want like from alice to bob", n)
	}
}

func TestRecordLikeRetryIsNoOp(t *testing.T) {
	content, notifier, svc := newLedgerFixture(t)

	first, err := svc.Record(context.Background(), "alice", domain.KindLike, "post-1", "", "")
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, err := svc.Record(context.Background(), "alice", domain.KindLike, "post-1", "", "")
	if err != nil {
		t.Fatalf("retried record: %v", err)
	}

	if second.InteractionID != first.InteractionID {
		t.Errorf("retry returned id %q, want existing %q", second.InteractionID, first.InteractionID)
	}
	if got := content.items["post-1"].LikeCount; got != 1 {
		t.Errorf("like count after retry = %d, want 1", got)
	}
	if len(notifier.notified) != 1 {
		t.Errorf("notifications after retry = %d, want 1", len(notifier.notified))
	}
}

func TestRecordCommentRequiresBody(t *testing.T) {
	_, _, svc := newLedgerFixture(t)

	_, err := svc.Record(context.Background(), "alice", domain.KindComment, "post-1", "   ", "")
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestRecordRejectsUnknownKind(t *testing.T) {
	_, _, svc := newLedgerFixture(t)

	_, err := svc.Record(context.Background(), "alice", domain.InteractionKind("wave"), "post-1", "", "")
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestRecordOnMissingContent(t *testing.T) {
	_, _, svc := newLedgerFixture(t)

	_, err := svc.Record(context.Background(), "alice", domain.KindLike, "gone", "", "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRecordReplyToNonComment(t *testing.T) {
	_, _, svc := newLedgerFixture(t)

	like, err := svc.Record(context.Background(), "alice", domain.KindLike, "post-1", "", "")
	if err != nil {
		t.Fatalf("record like: %v", err)
	}

	_, err = svc.Record(context.Background(), "carol", domain.KindComment, "post-1", "me too", like.InteractionID)
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestRecordReplyThreadsUnderParent(t *testing.T) {
	_, _, svc := newLedgerFixture(t)

	parent, err := svc.Record(context.Background(), "alice", domain.KindComment, "post-1", "first", "")
	if err != nil {
		t.Fatalf("record parent comment: %v", err)
	}
	reply, err := svc.Record(context.Background(), "carol", domain.KindComment, "post-1", "agreed", parent.InteractionID)
	if err != nil {
		t.Fatalf("record reply: %v", err)
	}

	page, err := svc.ListReplies(context.Background(), parent.InteractionID, 10, "")
	if err != nil {
		t.Fatalf("list replies: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].InteractionID != reply.InteractionID {
		t.Errorf("replies = %+v, want the single reply", page.Items)
	}
}

func TestCommentExcerptKeepsRunesWhole(t *testing.T) {
	_, notifier, svc := newLedgerFixture(t)

	// 50 three-byte runes, 150 bytes. The excerpt limit lands inside a rune.
	body := strings.Repeat("日", 50)
	if _, err := svc.Record(context.Background(), "alice", domain.KindComment, "post-1", body, ""); err != nil {
		t.Fatalf("record comment: %v", err)
	}

	if len(notifier.notified) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.notified))
	}
	msg := notifier.notified[0].Message
	if !utf8.ValidString(msg) {
		t.Fatalf("excerpt %q is not valid UTF-8", msg)
	}
	if want := strings.Repeat("日", 46); msg != want {
		t.Errorf("excerpt = %d bytes, want 138 (46 whole runes)", len(msg))
	}
}

func TestRemoveForeignInteraction(t *testing.T) {
	_, _, svc := newLedgerFixture(t)

	like, err := svc.Record(context.Background(), "alice", domain.KindLike, "post-1", "", "")
	if err != nil {
		t.Fatalf("record like: %v", err)
	}

	err = svc.Remove(context.Background(), "mallory", like.InteractionID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestRemoveReversesCounter(t *testing.T) {
	content, _, svc := newLedgerFixture(t)

	like, err := svc.Record(context.Background(), "alice", domain.KindLike, "post-1", "", "")
	if err != nil {
		t.Fatalf("record like: %v", err)
	}
	if err := svc.Remove(context.Background(), "alice", like.InteractionID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if got := content.items["post-1"].LikeCount; got != 0 {
		t.Errorf("like count = %d, want 0", got)
	}
	if err := svc.Remove(context.Background(), "alice", like.InteractionID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
}

func TestListForTargetFiltersByKind(t *testing.T) {
	_, _, svc := newLedgerFixture(t)

	if _, err := svc.Record(context.Background(), "alice", domain.KindLike, "post-1", "", ""); err != nil {
		t.Fatalf("record like: %v", err)
	}
	if _, err := svc.Record(context.Background(), "carol", domain.KindComment, "post-1", "nice", ""); err != nil {
		t.Fatalf("record comment: %v", err)
	}

	all, err := svc.ListForTarget(context.Background(), "post-1", "", 10, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all.Items) != 2 {
		t.Errorf("all interactions = %d, want 2", len(all.Items))
	}

	likes, err := svc.ListForTarget(context.Background(), "post-1", domain.KindLike, 10, "")
	if err != nil {
		t.Fatalf("list likes: %v", err)
	}
	if len(likes.Items) != 1 || likes.Items[0].Kind != domain.KindLike {
		t.Errorf("likes = %+v, want only the like", likes.Items)
	}
}
