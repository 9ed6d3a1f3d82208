package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/beeline-social/engagement-core/internal/domain"
	"github.com/beeline-social/engagement-core/internal/repository"
	"github.com/beeline-social/engagement-core/internal/store"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
)

// graphService implements GraphService.
//
// A follow is two independent set mutations, one on each user item. They are
// not transactional: the pair is recorded as dirty before the first write and
// cleared after the second, so a crash in between leaves a marker the
// reconciler uses to re-apply both halves. Set mutations are idempotent, so
// re-applying a completed pair is harmless.
type graphService struct {
	repo     repository.GraphRepository
	store    store.EngagementStore
	notifier NotifierService
}

// NewGraphService creates a new GraphService instance.
func NewGraphService(repo repository.GraphRepository, st store.EngagementStore, notifier NotifierService) GraphService {
	return &graphService{repo: repo, store: st, notifier: notifier}
}

func (s *graphService) Follow(ctx context.Context, followerID, targetID string) error {
	l := pkglog.Ctx(ctx)

	if followerID == targetID {
		return fmt.Errorf("cannot follow yourself: %w", domain.ErrInvalidOperation)
	}

	if err := s.repo.EnsureUser(ctx, followerID); err != nil {
		return err
	}
	if err := s.repo.EnsureUser(ctx, targetID); err != nil {
		return err
	}

	pair := store.DirtyPair{FollowerID: followerID, TargetID: targetID}
	if err := s.store.RecordDirtyPair(ctx, pair); err != nil {
		l.Warn().Err(err).Msg("failed to record dirty follow pair")
	}

	if err := s.repo.AddFollowing(ctx, followerID, targetID); err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldUserID, followerID).
			Str("target_id", targetID).
			Msg("failed to add following edge")
		return err
	}
	if err := s.repo.AddFollower(ctx, targetID, followerID); err != nil {
		// First half landed; the dirty pair stays recorded for the
		// reconciler to finish the second half.
		l.Error().Err(err).
			Str(pkglog.FieldUserID, followerID).
			Str("target_id", targetID).
			Msg("failed to add follower edge, pair left for reconciler")
		return err
	}

	if err := s.store.ClearDirtyPair(ctx, pair); err != nil {
		l.Warn().Err(err).Msg("failed to clear dirty follow pair")
	}

	notification := &domain.Notification{
		RecipientID: targetID,
		ActorID:     followerID,
		Kind:        domain.NotifyFollow,
	}
	if err := s.notifier.Notify(ctx, notification); err != nil {
		l.Warn().Err(err).
			Str(pkglog.FieldRecipientID, targetID).
			Msg("failed to deliver follow notification")
	}
	return nil
}

func (s *graphService) Unfollow(ctx context.Context, followerID, targetID string) error {
	l := pkglog.Ctx(ctx)

	if followerID == targetID {
		return fmt.Errorf("cannot unfollow yourself: %w", domain.ErrInvalidOperation)
	}

	pair := store.DirtyPair{FollowerID: followerID, TargetID: targetID, Unfollow: true}
	if err := s.store.RecordDirtyPair(ctx, pair); err != nil {
		l.Warn().Err(err).Msg("failed to record dirty unfollow pair")
	}

	if err := s.repo.RemoveFollowing(ctx, followerID, targetID); err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldUserID, followerID).
			Str("target_id", targetID).
			Msg("failed to remove following edge")
		return err
	}
	if err := s.repo.RemoveFollower(ctx, targetID, followerID); err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldUserID, followerID).
			Str("target_id", targetID).
			Msg("failed to remove follower edge, pair left for reconciler")
		return err
	}

	if err := s.store.ClearDirtyPair(ctx, pair); err != nil {
		l.Warn().Err(err).Msg("failed to clear dirty unfollow pair")
	}
	return nil
}

func (s *graphService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, targetID)
}

// GetFollowing returns who userID follows. A user item only exists once the
// user has touched the graph, so a missing item reads as an empty set.
func (s *graphService) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return user.Following, nil
}

func (s *graphService) GetFollowers(ctx context.Context, userID string) ([]string, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return user.Followers, nil
}
