package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmdash/internal/cache"
	"github.com/mamadbah2/farmdash/internal/domain/models"
	"github.com/mamadbah2/farmdash/internal/metrics"
)

// Source is the read side of the backing document store.
type Source interface {
	ReadAll(ctx context.Context, collection, orderBy string) ([]models.Record, error)
}

// Subscriber is implemented by stores that push live changes.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string, fn func([]models.Record)) error
}

// CollectionResult is the settled outcome of one collection read.
type CollectionResult struct {
	Collection string
	Records    []models.Record
	Err        error
	Cached     bool
}

// Fetcher reads every collection concurrently. A failing branch never
// cancels its siblings; it settles with an error and no records.
type Fetcher struct {
	source           Source
	timeout          time.Duration
	cache            *cache.TTL[[]models.Record]
	cachedCollection string
	logger           *zap.Logger
	metrics          *metrics.Recorder
}

// NewFetcher wires a fetcher. cache may be nil to disable caching.
func NewFetcher(source Source, timeout time.Duration, c *cache.TTL[[]models.Record], cachedCollection string, recorder *metrics.Recorder, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source:           source,
		timeout:          timeout,
		cache:            c,
		cachedCollection: cachedCollection,
		logger:           logger,
		metrics:          recorder,
	}
}

// FetchAll joins one read per collection and returns results keyed by name.
func (f *Fetcher) FetchAll(ctx context.Context, collections []string) map[string]CollectionResult {
	results := make([]CollectionResult, len(collections))

	var g errgroup.Group
	for i, name := range collections {
		i, name := i, name
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]CollectionResult, len(results))
	for _, r := range results {
		if r.Err != nil {
			f.metrics.CollectionFailed(r.Collection)
			f.logger.Warn("collection fetch failed, treating as empty",
				zap.String("collection", r.Collection), zap.Error(r.Err))
		}
		out[r.Collection] = r
	}
	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, name string) (result CollectionResult) {
	result.Collection = name
	defer func() {
		if p := recover(); p != nil {
			result.Records = nil
			result.Err = fmt.Errorf("read %s panicked: %v", name, p)
		}
	}()

	useCache := f.cache != nil && name == f.cachedCollection
	var gen uint64
	if useCache {
		gen = f.cache.Generation()
		if records, ok := f.cache.Get(); ok {
			result.Records = records
			result.Cached = true
			return result
		}
	}

	readCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	records, err := f.source.ReadAll(readCtx, name, models.OrderField(name))
	if err != nil {
		result.Err = fmt.Errorf("read %s: %w", name, err)
		return result
	}

	// a write during the read leaves the cache empty for the next cycle
	if useCache && !f.cache.SetIfGeneration(records, gen) {
		f.logger.Debug("cache changed during read, not storing", zap.String("collection", name))
	}
	result.Records = records
	return result
}
