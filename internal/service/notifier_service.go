package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/beeline-social/engagement-core/internal/domain"
	"github.com/beeline-social/engagement-core/internal/repository"
	"github.com/beeline-social/engagement-core/internal/store"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/pubsub"
)

// notifierService implements NotifierService. Delivery has three legs: the
// durable inbox row, a Redis publish for connected clients, and a Kafka
// produce for downstream consumers. The row is the source of truth; the two
// pushes are best-effort and never fail the triggering action.
type notifierService struct {
	repo  repository.NotificationRepository
	store store.EngagementStore
	live  pubsub.Publisher
	bus   pubsub.Publisher
}

// NewNotifierService creates a new NotifierService instance. live carries
// real-time pushes to connected clients, bus feeds the external event topic.
func NewNotifierService(repo repository.NotificationRepository, st store.EngagementStore, live, bus pubsub.Publisher) NotifierService {
	return &notifierService{repo: repo, store: st, live: live, bus: bus}
}

// newNotificationID prefixes the id with its creation time, so the inbox
// range key built from it sorts chronologically.
func newNotificationID(createdAt time.Time) string {
	return createdAt.UTC().Format(domain.TimeSortFormat) + "-" + uuid.NewString()
}

func (s *notifierService) Notify(ctx context.Context, n *domain.Notification) error {
	l := pkglog.Ctx(ctx)

	if n.ActorID == n.RecipientID {
		return nil
	}

	n.CreatedAt = time.Now().UTC()
	n.NotificationID = newNotificationID(n.CreatedAt)
	n.Read = false

	if err := s.repo.Insert(ctx, n); err != nil {
		return err
	}

	if err := s.store.CondIncrUnreadCount(ctx, n.RecipientID); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, n.RecipientID).
			Msg("failed to bump cached unread count")
	}

	payload := pubsub.NotificationPayload{
		NotificationID:  n.NotificationID,
		ActorID:         n.ActorID,
		RecipientID:     n.RecipientID,
		Kind:            string(n.Kind),
		TargetContentID: n.TargetContentID,
		Message:         n.Message,
		CreatedAt:       n.CreatedAt.Format(time.RFC3339Nano),
	}
	event, err := pubsub.NewEvent(pubsub.EventNotificationCreated, n.RecipientID, payload)
	if err != nil {
		l.Warn().Err(err).Msg("failed to build notification event")
		return nil
	}

	channel := pubsub.UserNotificationChannel(n.RecipientID)
	if err := s.live.Publish(ctx, channel, event); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, n.RecipientID).
			Msg("failed to publish live notification")
	}
	if err := s.bus.Publish(ctx, channel, event); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, n.RecipientID).
			Msg("failed to produce notification event")
	}
	return nil
}

func (s *notifierService) List(ctx context.Context, recipientID string, limit int32, cursor string) (*domain.NotificationPage, error) {
	return s.repo.List(ctx, recipientID, limit, cursor)
}

// UnreadCount serves from the Redis cache, falling back to an inbox recount
// on a miss and priming the cache with the result.
func (s *notifierService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	l := pkglog.Ctx(ctx)

	count, found, err := s.store.GetUnreadCount(ctx, recipientID)
	if err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, recipientID).
			Msg("redis get unread count failed, falling back to recount")
	}
	if found {
		return count, nil
	}

	count, err = s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	if err := s.store.SetUnreadCount(ctx, recipientID, count); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, recipientID).
			Msg("failed to prime cached unread count")
	}
	return count, nil
}

func (s *notifierService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	l := pkglog.Ctx(ctx)

	alreadyRead, err := s.repo.MarkRead(ctx, recipientID, notificationID)
	if err != nil {
		return err
	}
	if alreadyRead {
		return nil
	}

	if err := s.store.CondDecrUnreadCount(ctx, recipientID); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, recipientID).
			Msg("failed to drop cached unread count")
	}

	payload := pubsub.NotificationReadPayload{
		NotificationID: notificationID,
		RecipientID:    recipientID,
	}
	event, err := pubsub.NewEvent(pubsub.EventNotificationRead, recipientID, payload)
	if err != nil {
		l.Warn().Err(err).Msg("failed to build notification read event")
		return nil
	}
	if err := s.live.Publish(ctx, pubsub.UserNotificationChannel(recipientID), event); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, recipientID).
			Msg("failed to publish notification read event")
	}
	return nil
}

func (s *notifierService) Delete(ctx context.Context, recipientID, notificationID string) error {
	l := pkglog.Ctx(ctx)

	if err := s.repo.Delete(ctx, recipientID, notificationID); err != nil {
		return err
	}

	// The deleted entry may or may not have been unread. Drop the cached
	// count and let the next read recount.
	if err := s.store.InvalidateUnreadCount(ctx, recipientID); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, recipientID).
			Msg("failed to invalidate cached unread count")
	}
	return nil
}
