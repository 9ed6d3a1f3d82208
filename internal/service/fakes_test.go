package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/beeline-social/engagement-core/internal/domain"
	"github.com/beeline-social/engagement-core/internal/store"
	"github.com/beeline-social/engagement-core/pkg/pubsub"
)

// In-memory fakes for the repository, store, and pubsub dependencies.

type fakeGraphRepo struct {
	users              map[string]*domain.User
	addFollowerErr     error
	removeFollowerErr  error
	removeFollowingErr error
}

func newFakeGraphRepo() *fakeGraphRepo {
	return &fakeGraphRepo{users: make(map[string]*domain.User)}
}

func (f *fakeGraphRepo) EnsureUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		f.users[userID] = &domain.User{UserID: userID}
	}
	return nil
}

func addMember(set []string, member string) []string {
	for _, m := range set {
		if m == member {
			return set
		}
	}
	return append(set, member)
}

func removeMember(set []string, member string) []string {
	out := set[:0]
	for _, m := range set {
		if m != member {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeGraphRepo) AddFollowing(_ context.Context, followerID, targetID string) error {
	u, ok := f.users[followerID]
	if !ok {
		return fmt.Errorf("user %s: %w", followerID, domain.ErrNotFound)
	}
	u.Following = addMember(u.Following, targetID)
	return nil
}

func (f *fakeGraphRepo) AddFollower(_ context.Context, targetID, followerID string) error {
	if f.addFollowerErr != nil {
		return f.addFollowerErr
	}
	u, ok := f.users[targetID]
	if !ok {
		return fmt.Errorf("user %s: %w", targetID, domain.ErrNotFound)
	}
	u.Followers = addMember(u.Followers, followerID)
	return nil
}

func (f *fakeGraphRepo) RemoveFollowing(_ context.Context, followerID, targetID string) error {
	if f.removeFollowingErr != nil {
		return f.removeFollowingErr
	}
	if u, ok := f.users[followerID]; ok {
		u.Following = removeMember(u.Following, targetID)
	}
	return nil
}

func (f *fakeGraphRepo) RemoveFollower(_ context.Context, targetID, followerID string) error {
	if f.removeFollowerErr != nil {
		return f.removeFollowerErr
	}
	if u, ok := f.users[targetID]; ok {
		u.Followers = removeMember(u.Followers, followerID)
	}
	return nil
}

func (f *fakeGraphRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeGraphRepo) IsFollowing(_ context.Context, followerID, targetID string) (bool, error) {
	u, ok := f.users[followerID]
	if !ok {
		return false, nil
	}
	for _, m := range u.Following {
		if m == targetID {
			return true, nil
		}
	}
	return false, nil
}

type fakeContentRepo struct {
	items     map[string]*domain.ContentItem
	errOwners map[string]bool
	queried   []string
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		items:     make(map[string]*domain.ContentItem),
		errOwners: make(map[string]bool),
	}
}

func (f *fakeContentRepo) Create(_ context.Context, item *domain.ContentItem) error {
	if _, ok := f.items[item.ContentID]; ok {
		return fmt.Errorf("content %s: %w", item.ContentID, domain.ErrConflict)
	}
	copied := *item
	f.items[item.ContentID] = &copied
	return nil
}

func (f *fakeContentRepo) Get(_ context.Context, contentID string) (*domain.ContentItem, error) {
	item, ok := f.items[contentID]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", contentID, domain.ErrNotFound)
	}
	copied := *item
	return &copied, nil
}

func (f *fakeContentRepo) Delete(_ context.Context, contentID, ownerID string) error {
	item, ok := f.items[contentID]
	if !ok {
		return fmt.Errorf("content %s: %w", contentID, domain.ErrNotFound)
	}
	if item.OwnerID != ownerID {
		return fmt.Errorf("content %s: %w", contentID, domain.ErrForbidden)
	}
	delete(f.items, contentID)
	return nil
}

func (f *fakeContentRepo) ListByOwner(_ context.Context, ownerID string, limit int32, _ string) (*domain.ContentPage, error) {
	f.queried = append(f.queried, ownerID)
	if f.errOwners[ownerID] {
		return nil, fmt.Errorf("owner %s: %w", ownerID, domain.ErrUpstreamUnavailable)
	}
	var items []domain.ContentItem
	for _, item := range f.items {
		if item.OwnerID == ownerID {
			items = append(items, *item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if int32(len(items)) > limit {
		items = items[:limit]
	}
	return &domain.ContentPage{Items: items}, nil
}

type fakeInteractionRepo struct {
	rows    map[string]*domain.Interaction
	content *fakeContentRepo
}

func newFakeInteractionRepo(content *fakeContentRepo) *fakeInteractionRepo {
	return &fakeInteractionRepo{rows: make(map[string]*domain.Interaction), content: content}
}

func (f *fakeInteractionRepo) counter(item *domain.ContentItem, kind domain.InteractionKind) *int64 {
	switch kind {
	case domain.KindLike:
		return &item.LikeCount
	case domain.KindComment:
		return &item.CommentCount
	default:
		return &item.ShareCount
	}
}

func (f *fakeInteractionRepo) Insert(_ context.Context, in *domain.Interaction) error {
	if _, ok := f.rows[in.InteractionID]; ok {
		return fmt.Errorf("interaction %s: %w", in.InteractionID, domain.ErrConflict)
	}
	target, ok := f.content.items[in.TargetContentID]
	if !ok {
		return fmt.Errorf("content %s: %w", in.TargetContentID, domain.ErrNotFound)
	}
	copied := *in
	f.rows[in.InteractionID] = &copied
	*f.counter(target, in.Kind)++
	return nil
}

func (f *fakeInteractionRepo) Get(_ context.Context, interactionID string) (*domain.Interaction, error) {
	in, ok := f.rows[interactionID]
	if !ok {
		return nil, fmt.Errorf("interaction %s: %w", interactionID, domain.ErrNotFound)
	}
	copied := *in
	return &copied, nil
}

func (f *fakeInteractionRepo) Delete(_ context.Context, in *domain.Interaction) error {
	if _, ok := f.rows[in.InteractionID]; !ok {
		return fmt.Errorf("interaction %s: %w", in.InteractionID, domain.ErrNotFound)
	}
	delete(f.rows, in.InteractionID)
	if target, ok := f.content.items[in.TargetContentID]; ok {
		if c := f.counter(target, in.Kind); *c > 0 {
			*c--
		}
	}
	return nil
}

func (f *fakeInteractionRepo) list(filter func(*domain.Interaction) bool, limit int32) *domain.InteractionPage {
	var items []domain.Interaction
	for _, in := range f.rows {
		if filter(in) {
			items = append(items, *in)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if int32(len(items)) > limit {
		items = items[:limit]
	}
	return &domain.InteractionPage{Items: items}
}

func (f *fakeInteractionRepo) ListForTarget(_ context.Context, targetContentID string, kind domain.InteractionKind, limit int32, _ string) (*domain.InteractionPage, error) {
	return f.list(func(in *domain.Interaction) bool {
		return in.TargetContentID == targetContentID && (kind == "" || in.Kind == kind)
	}, limit), nil
}

func (f *fakeInteractionRepo) ListReplies(_ context.Context, parentID string, limit int32, _ string) (*domain.InteractionPage, error) {
	return f.list(func(in *domain.Interaction) bool {
		return in.ParentID == parentID
	}, limit), nil
}

type fakeNotificationRepo struct {
	byRecipient map[string][]domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{byRecipient: make(map[string][]domain.Notification)}
}

func (f *fakeNotificationRepo) Insert(_ context.Context, n *domain.Notification) error {
	f.byRecipient[n.RecipientID] = append(f.byRecipient[n.RecipientID], *n)
	return nil
}

func (f *fakeNotificationRepo) List(_ context.Context, recipientID string, limit int32, _ string) (*domain.NotificationPage, error) {
	items := append([]domain.Notification(nil), f.byRecipient[recipientID]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].NotificationID > items[j].NotificationID
	})
	if int32(len(items)) > limit {
		items = items[:limit]
	}
	return &domain.NotificationPage{Items: items}, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, recipientID string) (int64, error) {
	var count int64
	for _, n := range f.byRecipient[recipientID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, recipientID, notificationID string) (bool, error) {
	inbox := f.byRecipient[recipientID]
	for i := range inbox {
		if inbox[i].NotificationID == notificationID {
			already := inbox[i].Read
			inbox[i].Read = true
			return already, nil
		}
	}
	return false, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
}

func (f *fakeNotificationRepo) Delete(_ context.Context, recipientID, notificationID string) error {
	inbox := f.byRecipient[recipientID]
	for i := range inbox {
		if inbox[i].NotificationID == notificationID {
			f.byRecipient[recipientID] = append(inbox[:i], inbox[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
}

type fakeEngagementStore struct {
	counts map[string]int64
	primed map[string]bool
	dirty  []store.DirtyPair
}

func newFakeEngagementStore() *fakeEngagementStore {
	return &fakeEngagementStore{
		counts: make(map[string]int64),
		primed: make(map[string]bool),
	}
}

func (f *fakeEngagementStore) GetUnreadCount(_ context.Context, userID string) (int64, bool, error) {
	if !f.primed[userID] {
		return 0, false, nil
	}
	return f.counts[userID], true, nil
}

func (f *fakeEngagementStore) SetUnreadCount(_ context.Context, userID string, count int64) error {
	f.counts[userID] = count
	f.primed[userID] = true
	return nil
}

func (f *fakeEngagementStore) CondIncrUnreadCount(_ context.Context, userID string) error {
	if f.primed[userID] {
		f.counts[userID]++
	}
	return nil
}

func (f *fakeEngagementStore) CondDecrUnreadCount(_ context.Context, userID string) error {
	if f.primed[userID] && f.counts[userID] > 0 {
		f.counts[userID]--
	}
	return nil
}

func (f *fakeEngagementStore) InvalidateUnreadCount(_ context.Context, userID string) error {
	delete(f.primed, userID)
	delete(f.counts, userID)
	return nil
}

func (f *fakeEngagementStore) RecordDirtyPair(_ context.Context, pair store.DirtyPair) error {
	f.dirty = append(f.dirty, pair)
	return nil
}

func (f *fakeEngagementStore) PopDirtyPairs(_ context.Context, n int64) ([]store.DirtyPair, error) {
	if int64(len(f.dirty)) < n {
		n = int64(len(f.dirty))
	}
	pairs := append([]store.DirtyPair(nil), f.dirty[:n]...)
	f.dirty = f.dirty[n:]
	return pairs, nil
}

func (f *fakeEngagementStore) ClearDirtyPair(_ context.Context, pair store.DirtyPair) error {
	for i, p := range f.dirty {
		if p == pair {
			f.dirty = append(f.dirty[:i], f.dirty[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeEngagementStore) Close() error { return nil }

type fakeNotifier struct {
	notified []*domain.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n *domain.Notification) error {
	f.notified = append(f.notified, n)
	return nil
}

func (f *fakeNotifier) List(context.Context, string, int32, string) (*domain.NotificationPage, error) {
	return &domain.NotificationPage{}, nil
}

func (f *fakeNotifier) UnreadCount(context.Context, string) (int64, error) { return 0, nil }

func (f *fakeNotifier) MarkRead(context.Context, string, string) error { return nil }

func (f *fakeNotifier) Delete(context.Context, string, string) error { return nil }

type publishedEvent struct {
	channel string
	event   *pubsub.Event
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, event *pubsub.Event) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedEvent{channel: channel, event: event})
	return nil
}
