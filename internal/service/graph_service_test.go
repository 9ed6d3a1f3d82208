package service

import (
	"context"
	"errors"
	"testing"

	"github.com/beeline-social/engagement-core/internal/domain"
)

func newGraphFixture() (*fakeGraphRepo, *fakeEngagementStore, *fakeNotifier, GraphService) {
	repo := newFakeGraphRepo()
	st := newFakeEngagementStore()
	notifier := &fakeNotifier{}
	return repo, st, notifier, NewGraphService(repo, st, notifier)
}

func TestFollowRejectsSelf(t *testing.T) {
	_, _, _, svc := newGraphFixture()

	err := svc.Follow(context.Background(), "alice", "alice")
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("err = %v, want ErrInvalidOperation", err)
	}
}

func TestFollowAddsBothEdgesAndNotifies(t *testing.T) {
	repo, st, notifier, svc := newGraphFixture()

	if err := svc.Follow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	alice := repo.users["alice"]
	if len(alice.Following) != 1 || alice.Following[0] != "bob" {
		t.Errorf("alice following = %v, want [bob]", alice.Following)
	}
	bob := repo.users["bob"]
	if len(bob.Followers) != 1 || bob.Followers[0] != "alice" {
		t.Errorf("bob followers = %v, want [alice]", bob.Followers)
	}

	if len(st.dirty) != 0 {
		t.Errorf("dirty pairs = %v, want cleared", st.dirty)
	}

	if len(notifier.notified) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.notified))
	}
	n := notifier.notified[0]
	if n.Kind != domain.NotifyFollow || n.RecipientID != "bob" || n.ActorID != "alice" {
		t.Errorf("notification = %+v, want follow from alice to bob", n)
	}
}

func TestFollowIsIdempotent(t *testing.T) {
	repo, _, _, svc := newGraphFixture()

	for i := 0; i < 2; i++ {
		if err := svc.Follow(context.Background(), "alice", "bob"); err != nil {
			t.Fatalf("follow %d: %v", i+1, err)
		}
	}

	if got := len(repo.users["alice"].Following); got != 1 {
		t.Errorf("following entries = %d, want 1", got)
	}
	if got := len(repo.users["bob"].Followers); got != 1 {
		t.Errorf("follower entries = %d, want 1", got)
	}
}

func TestFollowSecondHalfFailureLeavesDirtyPair(t *testing.T) {
	repo, st, _, svc := newGraphFixture()
	repo.addFollowerErr = errors.New("write throttled")

	err := svc.Follow(context.Background(), "alice", "bob")
	if err == nil {
		t.Fatal("expected error when the follower edge write fails")
	}
	if len(st.dirty) != 1 {
		t.Fatalf("dirty pairs = %d, want 1 left for the reconciler", len(st.dirty))
	}
	pair := st.dirty[0]
	if pair.FollowerID != "alice" || pair.TargetID != "bob" || pair.Unfollow {
		t.Errorf("dirty pair = %+v, want follow alice->bob", pair)
	}
}

func TestUnfollowRemovesBothEdges(t *testing.T) {
	repo, st, _, svc := newGraphFixture()

	if err := svc.Follow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := svc.Unfollow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}

	if got := len(repo.users["alice"].Following); got != 0 {
		t.Errorf("following entries = %d, want 0", got)
	}
	if got := len(repo.users["bob"].Followers); got != 0 {
		t.Errorf("follower entries = %d, want 0", got)
	}
	if len(st.dirty) != 0 {
		t.Errorf("dirty pairs = %v, want cleared", st.dirty)
	}
}

func TestIsFollowing(t *testing.T) {
	_, _, _, svc := newGraphFixture()

	if err := svc.Follow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	following, err := svc.IsFollowing(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("is following: %v", err)
	}
	if !following {
		t.Error("alice should follow bob")
	}

	reverse, err := svc.IsFollowing(context.Background(), "bob", "alice")
	if err != nil {
		t.Fatalf("is following: %v", err)
	}
	if reverse {
		t.Error("bob should not follow alice")
	}
}

func TestGetFollowingUnknownUserIsEmpty(t *testing.T) {
	_, _, _, svc := newGraphFixture()

	following, err := svc.GetFollowing(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("get following: %v", err)
	}
	if len(following) != 0 {
		t.Errorf("following = %v, want empty", following)
	}

	followers, err := svc.GetFollowers(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("get followers: %v", err)
	}
	if len(followers) != 0 {
		t.Errorf("followers = %v, want empty", followers)
	}
}
