package service

import (
	"context"

	"github.com/beeline-social/engagement-core/internal/domain"
)

// GraphService manages the follow graph.
type GraphService interface {
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
	GetFollowing(ctx context.Context, userID string) ([]string, error)
	GetFollowers(ctx context.Context, userID string) ([]string, error)
}

// ContentService manages content records. Engagement counters on them are
// owned by the ledger and never written through this path.
type ContentService interface {
	Create(ctx context.Context, ownerID, caption, mediaURL string) (*domain.ContentItem, error)
	Get(ctx context.Context, contentID string) (*domain.ContentItem, error)
	Delete(ctx context.Context, contentID, actorID string) error
	ListByOwner(ctx context.Context, ownerID string, limit int32, cursor string) (*domain.ContentPage, error)
}

// LedgerService records and removes interactions, keeping the content
// counters in lockstep.
type LedgerService interface {
	// Record appends an interaction. Retried likes and shares are idempotent
	// no-ops returning the existing row.
	Record(ctx context.Context, actorID string, kind domain.InteractionKind, targetContentID, body, parentID string) (*domain.Interaction, error)
	// Remove deletes the actor's own interaction and reverses its counter.
	Remove(ctx context.Context, actorID, interactionID string) error
	ListForTarget(ctx context.Context, targetContentID string, kind domain.InteractionKind, limit int32, cursor string) (*domain.InteractionPage, error)
	ListReplies(ctx context.Context, parentID string, limit int32, cursor string) (*domain.InteractionPage, error)
}

// TimelineService aggregates followed users' content on read.
type TimelineService interface {
	HomeTimeline(ctx context.Context, userID string, limit int32) ([]domain.ContentItem, error)
}

// NotifierService fans engagement events out to their recipients and serves
// the durable inbox.
type NotifierService interface {
	// Notify persists the notification and pushes it to the live channels.
	// Self-notifications are suppressed.
	Notify(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, recipientID string, limit int32, cursor string) (*domain.NotificationPage, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	Delete(ctx context.Context, recipientID, notificationID string) error
}
