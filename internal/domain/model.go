package domain

import "time"

// InteractionKind enumerates the typed interactions recorded in the ledger.
type InteractionKind string

const (
	KindLike    InteractionKind = "like"
	KindComment InteractionKind = "comment"
	KindShare   InteractionKind = "share"
)

// Valid reports whether k is a known interaction kind.
func (k InteractionKind) Valid() bool {
	switch k {
	case KindLike, KindComment, KindShare:
		return true
	}
	return false
}

// TimeSortFormat renders timestamps at fixed width so their lexicographic
// order matches their chronological order. Used in range keys and in
// time-prefixed notification ids.
const TimeSortFormat = "2006-01-02T15:04:05.000000000Z"

// NotificationKind enumerates the events that fan out to recipients.
type NotificationKind string

const (
	NotifyLike    NotificationKind = "like"
	NotifyComment NotificationKind = "comment"
	NotifyShare   NotificationKind = "share"
	NotifyFollow  NotificationKind = "follow"
)

// User holds the engagement-relevant slice of a user record: its identity and
// the two symmetric follow sets. Profile fields live elsewhere.
type User struct {
	UserID    string   `json:"user_id"`
	Following []string `json:"following"`
	Followers []string `json:"followers"`
}

// ContentItem is the post/reel abstraction. Counters are mutated only through
// the interaction ledger's transactional path, never written directly.
type ContentItem struct {
	ContentID    string    `json:"content_id"`
	OwnerID      string    `json:"owner_id"`
	Caption      string    `json:"caption,omitempty"`
	MediaURL     string    `json:"media_url,omitempty"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	ShareCount   int64     `json:"share_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Interaction is one row of the append-only interaction log.
// Immutable once created except for deletion by its own actor.
type Interaction struct {
	InteractionID   string          `json:"interaction_id"`
	Kind            InteractionKind `json:"kind"`
	ActorID         string          `json:"actor_id"`
	TargetContentID string          `json:"target_content_id"`
	Body            string          `json:"body,omitempty"`
	ParentID        string          `json:"parent_interaction_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Notification is a durable per-recipient inbox entry.
type Notification struct {
	NotificationID  string           `json:"notification_id"`
	RecipientID     string           `json:"recipient_id"`
	ActorID         string           `json:"actor_id"`
	Kind            NotificationKind `json:"kind"`
	TargetContentID string           `json:"target_content_id,omitempty"`
	Message         string           `json:"message,omitempty"`
	Read            bool             `json:"read"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ContentPage is one page of content items plus the continuation token.
type ContentPage struct {
	Items      []ContentItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// InteractionPage is one page of interactions plus the continuation token.
type InteractionPage struct {
	Items      []Interaction `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// NotificationPage is one page of notifications plus the continuation token.
type NotificationPage struct {
	Items      []Notification `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
