package reconciler

import (
	"context"
	"time"

	"github.com/beeline-social/engagement-core/internal/repository"
	"github.com/beeline-social/engagement-core/internal/store"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
)

// Config controls the sweep cadence and batch size.
type Config struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// Reconciler periodically repairs follow-graph symmetry. A follow or unfollow
// is two set mutations on two user items; a crash between them leaves the
// pair recorded as dirty in Redis. The sweep re-applies both halves, which is
// safe to repeat because set mutations are idempotent.
type Reconciler struct {
	store  store.EngagementStore
	repo   repository.GraphRepository
	cfg    Config
	quit   chan struct{}
	doneCh chan struct{}
}

// New creates a new Reconciler.
func New(st store.EngagementStore, repo repository.GraphRepository, cfg Config) *Reconciler {
	return &Reconciler{
		store:  st,
		repo:   repo,
		cfg:    cfg,
		quit:   make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep drains one batch of dirty pairs and re-applies both halves of each.
// A pair that still fails goes back on the queue for the next cycle.
func (r *Reconciler) Sweep(ctx context.Context) {
	l := pkglog.L()

	batch := int64(r.cfg.BatchSize)
	if batch <= 0 {
		batch = 100
	}

	pairs, err := r.store.PopDirtyPairs(ctx, batch)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to pop dirty pairs")
		return
	}
	if len(pairs) == 0 {
		return
	}

	repaired := 0
	for _, pair := range pairs {
		if err := r.repair(ctx, pair); err != nil {
			l.Error().Err(err).
				Str("follower_id", pair.FollowerID).
				Str("target_id", pair.TargetID).
				Bool("unfollow", pair.Unfollow).
				Msg("reconciler: repair failed, requeueing pair")
			if err := r.store.RecordDirtyPair(ctx, pair); err != nil {
				l.Error().Err(err).Msg("reconciler: failed to requeue dirty pair")
			}
			continue
		}
		repaired++
	}

	l.Info().
		Int("repaired", repaired).
		Int("batch", len(pairs)).
		Msg("reconciler: graph symmetry sweep complete")
}

func (r *Reconciler) repair(ctx context.Context, pair store.DirtyPair) error {
	if pair.Unfollow {
		if err := r.repo.RemoveFollowing(ctx, pair.FollowerID, pair.TargetID); err != nil {
			return err
		}
		return r.repo.RemoveFollower(ctx, pair.TargetID, pair.FollowerID)
	}
	if err := r.repo.AddFollowing(ctx, pair.FollowerID, pair.TargetID); err != nil {
		return err
	}
	return r.repo.AddFollower(ctx, pair.TargetID, pair.FollowerID)
}
