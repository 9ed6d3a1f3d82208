package repository

import (
	"context"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// GraphRepository exposes the two symmetric follow sets as independent,
// idempotent set mutations. The service layer composes the two halves of a
// follow; the reconciler re-applies them to repair a crash between the steps.
type GraphRepository interface {
	// EnsureUser creates the user item if it does not exist yet.
	EnsureUser(ctx context.Context, userID string) error
	// AddFollowing adds target to follower's following set.
	AddFollowing(ctx context.Context, followerID, targetID string) error
	// AddFollower adds follower to target's followers set.
	AddFollower(ctx context.Context, targetID, followerID string) error
	// RemoveFollowing removes target from follower's following set.
	RemoveFollowing(ctx context.Context, followerID, targetID string) error
	// RemoveFollower removes follower from target's followers set.
	RemoveFollower(ctx context.Context, targetID, followerID string) error
	// GetUser loads the user item with both follow sets.
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	// IsFollowing checks the follower's own following set.
	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
}

// ContentRepository persists content items and serves the per-owner
// newest-first partitions the timeline aggregator fans out over.
type ContentRepository interface {
	Create(ctx context.Context, item *domain.ContentItem) error
	Get(ctx context.Context, contentID string) (*domain.ContentItem, error)
	Delete(ctx context.Context, contentID, ownerID string) error
	// ListByOwner returns the owner's content newest-first with a cursor.
	ListByOwner(ctx context.Context, ownerID string, limit int32, cursor string) (*domain.ContentPage, error)
}

// InteractionRepository is the append-only interaction log with atomic
// counter propagation onto the owning content record.
type InteractionRepository interface {
	// Insert appends the interaction and increments the matching counter on
	// the target content in one transaction. Fails with domain.ErrNotFound
	// when the target is gone and domain.ErrConflict on a duplicate id.
	Insert(ctx context.Context, in *domain.Interaction) error
	Get(ctx context.Context, interactionID string) (*domain.Interaction, error)
	// Delete removes the interaction and decrements the matching counter,
	// flooring at zero.
	Delete(ctx context.Context, in *domain.Interaction) error
	ListForTarget(ctx context.Context, targetContentID string, kind domain.InteractionKind, limit int32, cursor string) (*domain.InteractionPage, error)
	ListReplies(ctx context.Context, parentID string, limit int32, cursor string) (*domain.InteractionPage, error)
}

// NotificationRepository is the durable per-recipient inbox.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, recipientID string, limit int32, cursor string) (*domain.NotificationPage, error)
	// CountUnread counts the recipient's unread entries. It walks the whole
	// inbox partition, so callers should cache the result.
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// MarkRead flips the entry to read and reports whether it already was,
	// so callers can keep cached unread counts honest on repeats.
	MarkRead(ctx context.Context, recipientID, notificationID string) (alreadyRead bool, err error)
	Delete(ctx context.Context, recipientID, notificationID string) error
}
