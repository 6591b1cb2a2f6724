package versioning

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Manager is the façade over identity assignment, extraction and application
// for one state type. Every operation comes in a blocking form and an Async
// form returning a Future; batch forms fan out over an errgroup and join the
// results in input order.
//
// Batch sub-tasks mutate their targets in place. A failing sub-task does not
// cancel its siblings: they run to completion and their mutations stay, but
// the joined result is the BatchError of the failure. The join returns once
// every sub-task has finished, so targets are safe to read when it does; the
// first failure is logged the moment it happens. Targets must not be shared
// between concurrent operations.
type Manager[T any] struct {
	opts   []Option
	config *config
	log    zerolog.Logger
}

// NewManager returns a Manager configured with opts. Options are passed on to
// every Extract and Apply the Manager performs.
func NewManager[T any](opts ...Option) *Manager[T] {
	cfg := newConfig(opts)
	return &Manager[T]{
		opts:   opts,
		config: cfg,
		log:    cfg.logger.With().Str("component", "versioning").Logger(),
	}
}

// ExtractVersion computes the change-set between pair.Before and pair.After.
func (m *Manager[T]) ExtractVersion(ctx context.Context, pair DiffPair[T]) ([]Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Extract(pair, m.opts...)
}

// ExtractVersionAsync is the asynchronous form of ExtractVersion.
func (m *Manager[T]) ExtractVersionAsync(ctx context.Context, pair DiffPair[T]) *Future[[]Version] {
	return Go(ctx, func(ctx context.Context) ([]Version, error) {
		return m.ExtractVersion(ctx, pair)
	})
}

// ExtractVersions extracts every pair concurrently. The i-th result belongs
// to the i-th pair.
func (m *Manager[T]) ExtractVersions(ctx context.Context, pairs []DiffPair[T]) ([][]Version, error) {
	out := make([][]Version, len(pairs))
	err := m.batch(ctx, "extract", len(pairs), func(ctx context.Context, i int) error {
		versions, err := m.ExtractVersion(ctx, pairs[i])
		if err != nil {
			return err
		}
		out[i] = versions
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractVersionsAsync is the asynchronous form of ExtractVersions.
func (m *Manager[T]) ExtractVersionsAsync(ctx context.Context, pairs []DiffPair[T]) *Future[[][]Version] {
	return Go(ctx, func(ctx context.Context) ([][]Version, error) {
		return m.ExtractVersions(ctx, pairs)
	})
}

// ApplyState applies versions to target in place and returns it.
func (m *Manager[T]) ApplyState(ctx context.Context, target *T, versions []Version) (*T, error) {
	if err := ctx.Err(); err != nil {
		return target, err
	}
	return Apply(target, versions, m.opts...)
}

// ApplyStateAsync is the asynchronous form of ApplyState.
func (m *Manager[T]) ApplyStateAsync(ctx context.Context, target *T, versions []Version) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) {
		return m.ApplyState(ctx, target, versions)
	})
}

// ApplyStates applies each change-set of versionLists to target, one after
// the other.
func (m *Manager[T]) ApplyStates(ctx context.Context, target *T, versionLists [][]Version) (*T, error) {
	for i, versions := range versionLists {
		if _, err := m.ApplyState(ctx, target, versions); err != nil {
			return target, errors.Wrapf(err, "change-set %d", i)
		}
	}
	return target, nil
}

// ApplyStatesAsync is the asynchronous form of ApplyStates.
func (m *Manager[T]) ApplyStatesAsync(ctx context.Context, target *T, versionLists [][]Version) *Future[*T] {
	return Go(ctx, func(ctx context.Context) (*T, error) {
		return m.ApplyStates(ctx, target, versionLists)
	})
}

// ApplyEach applies versionLists[i] to targets[i] concurrently.
func (m *Manager[T]) ApplyEach(ctx context.Context, targets []*T, versionLists [][]Version) ([]*T, error) {
	if len(targets) != len(versionLists) {
		return nil, errors.Errorf("versioning: %d targets but %d change-sets", len(targets), len(versionLists))
	}
	err := m.batch(ctx, "apply", len(targets), func(ctx context.Context, i int) error {
		_, err := m.ApplyState(ctx, targets[i], versionLists[i])
		return err
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

// ApplyEachAsync is the asynchronous form of ApplyEach.
func (m *Manager[T]) ApplyEachAsync(ctx context.Context, targets []*T, versionLists [][]Version) *Future[[]*T] {
	return Go(ctx, func(ctx context.Context) ([]*T, error) {
		return m.ApplyEach(ctx, targets, versionLists)
	})
}

// ApplyMap applies byTarget[t] to every t of targets concurrently. Targets
// without an entry are returned unchanged.
func (m *Manager[T]) ApplyMap(ctx context.Context, targets []*T, byTarget map[*T][]Version) ([]*T, error) {
	err := m.batch(ctx, "apply", len(targets), func(ctx context.Context, i int) error {
		versions, ok := byTarget[targets[i]]
		if !ok {
			return nil
		}
		_, err := m.ApplyState(ctx, targets[i], versions)
		return err
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

// ApplyMapAsync is the asynchronous form of ApplyMap.
func (m *Manager[T]) ApplyMapAsync(ctx context.Context, targets []*T, byTarget map[*T][]Version) *Future[[]*T] {
	return Go(ctx, func(ctx context.Context) ([]*T, error) {
		return m.ApplyMap(ctx, targets, byTarget)
	})
}

// AssignIdentities assigns missing identities in every root concurrently.
func (m *Manager[T]) AssignIdentities(ctx context.Context, roots ...*T) ([]*T, error) {
	err := m.batch(ctx, "assign", len(roots), func(ctx context.Context, i int) error {
		if roots[i] == nil {
			return nil
		}
		root, err := AssignIdentities(*roots[i])
		if err != nil {
			return err
		}
		*roots[i] = root
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roots, nil
}

// AssignIdentitiesAsync is the asynchronous form of AssignIdentities.
func (m *Manager[T]) AssignIdentitiesAsync(ctx context.Context, roots ...*T) *Future[[]*T] {
	return Go(ctx, func(ctx context.Context) ([]*T, error) {
		return m.AssignIdentities(ctx, roots...)
	})
}

// batch runs task for every index in [0, n) and waits for all of them. The
// error is the BatchError of the first sub-task to fail.
func (m *Manager[T]) batch(ctx context.Context, op string, n int, task func(ctx context.Context, i int) error) error {
	log := m.log.With().Str("op", op).Int("count", n).Logger()
	log.Debug().Msg("dispatching batch")

	var (
		g     errgroup.Group
		once  sync.Once
		first *BatchError
	)
	if m.config.concurrency > 0 {
		g.SetLimit(m.config.concurrency)
	}

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := task(ctx, i); err != nil {
				log.Debug().Int("index", i).Err(err).Msg("batch task failed")
				once.Do(func() { first = &BatchError{Index: i, Err: err} })
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Debug().Int("index", first.Index).Msg("batch failed")
		return first
	}
	log.Debug().Msg("batch joined")
	return nil
}
