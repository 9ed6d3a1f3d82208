package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/beeline-social/engagement-core/internal/domain"
	"github.com/beeline-social/engagement-core/internal/repository"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
)

const commentExcerptLen = 140

// ledgerService implements LedgerService.
type ledgerService struct {
	interactions repository.InteractionRepository
	content      repository.ContentRepository
	notifier     NotifierService
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(interactions repository.InteractionRepository, content repository.ContentRepository, notifier NotifierService) LedgerService {
	return &ledgerService{interactions: interactions, content: content, notifier: notifier}
}

// interactionID derives the row id. Likes and shares get a deterministic id
// from (kind, actor, target), so a client retry hits the same row and the
// conditional insert turns it into a no-op. Comments are never idempotent
// and get a fresh UUID.
func interactionID(kind domain.InteractionKind, actorID, targetContentID string) string {
	switch kind {
	case domain.KindLike, domain.KindShare:
		return string(kind) + ":" + actorID + ":" + targetContentID
	default:
		return uuid.NewString()
	}
}

func (s *ledgerService) Record(ctx context.Context, actorID string, kind domain.InteractionKind, targetContentID, body, parentID string) (*domain.Interaction, error) {
	l := pkglog.Ctx(ctx)

	if !kind.Valid() {
		return nil, fmt.Errorf("unknown interaction kind %q: %w", kind, domain.ErrInvalidOperation)
	}
	if kind == domain.KindComment && strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("comment body is empty: %w", domain.ErrInvalidOperation)
	}
	if kind != domain.KindComment {
		body = ""
		if parentID != "" {
			return nil, fmt.Errorf("only comments can reply: %w", domain.ErrInvalidOperation)
		}
	}

	target, err := s.content.Get(ctx, targetContentID)
	if err != nil {
		return nil, err
	}

	if parentID != "" {
		parent, err := s.interactions.Get(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.Kind != domain.KindComment || parent.TargetContentID != targetContentID {
			return nil, fmt.Errorf("parent %s is not a comment on this content: %w", parentID, domain.ErrInvalidOperation)
		}
	}

	in := &domain.Interaction{
		InteractionID:   interactionID(kind, actorID, targetContentID),
		Kind:            kind,
		ActorID:         actorID,
		TargetContentID: targetContentID,
		Body:            body,
		ParentID:        parentID,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.interactions.Insert(ctx, in); err != nil {
		if errors.Is(err, domain.ErrConflict) && kind != domain.KindComment {
			// Retried like/share. The row already exists and the counter
			// was bumped exactly once, so return the existing row.
			return s.interactions.Get(ctx, in.InteractionID)
		}
		return nil, err
	}

	notification := &domain.Notification{
		RecipientID:     target.OwnerID,
		ActorID:         actorID,
		Kind:            domain.NotificationKind(kind),
		TargetContentID: targetContentID,
		Message:         excerpt(body),
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldInteractionID, in.InteractionID).
			Str(pkglog.FieldRecipientID, target.OwnerID).
			Msg("failed to deliver interaction notification")
	}
	return in, nil
}

func (s *ledgerService) Remove(ctx context.Context, actorID, interactionID string) error {
	in, err := s.interactions.Get(ctx, interactionID)
	if err != nil {
		return err
	}
	if in.ActorID != actorID {
		return fmt.Errorf("interaction %s belongs to another user: %w", interactionID, domain.ErrForbidden)
	}
	return s.interactions.Delete(ctx, in)
}

func (s *ledgerService) ListForTarget(ctx context.Context, targetContentID string, kind domain.InteractionKind, limit int32, cursor string) (*domain.InteractionPage, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("unknown interaction kind %q: %w", kind, domain.ErrInvalidOperation)
	}
	return s.interactions.ListForTarget(ctx, targetContentID, kind, limit, cursor)
}

func (s *ledgerService) ListReplies(ctx context.Context, parentID string, limit int32, cursor string) (*domain.InteractionPage, error) {
	return s.interactions.ListReplies(ctx, parentID, limit, cursor)
}

// excerpt truncates a comment body for the notification message without
// cutting through a multi-byte rune.
func excerpt(body string) string {
	if len(body) <= commentExcerptLen {
		return body
	}
	cut := commentExcerptLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut]
}
