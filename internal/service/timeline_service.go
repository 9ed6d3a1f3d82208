package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/beeline-social/engagement-core/internal/domain"
	"github.com/beeline-social/engagement-core/internal/repository"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
)

// timelineService implements TimelineService with fan-out on read: one
// concurrent query per followed user, merged newest-first.
type timelineService struct {
	graph       repository.GraphRepository
	content     repository.ContentRepository
	fanoutWidth int
}

// NewTimelineService creates a new TimelineService instance. fanoutWidth caps
// how many followed users are queried per timeline read.
func NewTimelineService(graph repository.GraphRepository, content repository.ContentRepository, fanoutWidth int) TimelineService {
	return &timelineService{graph: graph, content: content, fanoutWidth: fanoutWidth}
}

// HomeTimeline aggregates the newest content across everyone userID follows.
// Each owner is queried for up to limit items, so the merged prefix of size
// limit is complete even when a single owner dominates. A failed owner query
// drops that owner from this read instead of failing the whole timeline.
func (s *timelineService) HomeTimeline(ctx context.Context, userID string, limit int32) ([]domain.ContentItem, error) {
	l := pkglog.Ctx(ctx)

	user, err := s.graph.GetUser(ctx, userID)
	if err != nil {
		// A user item only exists once the user has touched the graph;
		// no item means an empty timeline, not a failed read.
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.ContentItem{}, nil
		}
		return nil, err
	}

	owners := user.Following
	if len(owners) > s.fanoutWidth {
		l.Warn().
			Str(pkglog.FieldUserID, userID).
			Int("following", len(owners)).
			Int("fanout_width", s.fanoutWidth).
			Msg("following set exceeds fan-out width, truncating")
		owners = owners[:s.fanoutWidth]
	}
	if len(owners) == 0 {
		return []domain.ContentItem{}, nil
	}

	var (
		mu     sync.Mutex
		merged []domain.ContentItem
		wg     sync.WaitGroup
	)
	for _, owner := range owners {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			page, err := s.content.ListByOwner(ctx, owner, limit, "")
			if err != nil {
				l.Warn().Err(err).
					Str("owner_id", owner).
					Msg("owner timeline query failed, skipping owner")
				return
			}
			mu.Lock()
			merged = append(merged, page.Items...)
			mu.Unlock()
		}(owner)
	}
	wg.Wait()

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if int32(len(merged)) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}
