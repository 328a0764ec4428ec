package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mamadbah2/farmdash/internal/cache"
	"github.com/mamadbah2/farmdash/internal/domain/models"
	"github.com/mamadbah2/farmdash/internal/metrics"
)

// DefaultCooldown is the minimum gap between two completed fetch cycles.
const DefaultCooldown = 30 * time.Second

// DefaultMaxAge bounds how long a watched snapshot is served without a recompute.
const DefaultMaxAge = 10 * time.Minute

var (
	// ErrAllCollectionsFailed is a batch failure: no collection could be read.
	ErrAllCollectionsFailed = errors.New("all collections failed to load")
	// ErrServiceClosed is returned once Close has been called.
	ErrServiceClosed = errors.New("analytics service closed")
	// ErrWatchUnsupported is returned by Watch when the store cannot push changes.
	ErrWatchUnsupported = errors.New("store does not support change subscriptions")
)

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone used for year and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithCooldown sets the minimum gap between completed cycles.
func WithCooldown(d time.Duration) Option {
	return func(s *Service) { s.cooldown = d }
}

// WithMaxAge sets how old a snapshot may get before RefreshStale recomputes
// it even when no change was pushed. Zero disables the age check.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) { s.maxAge = d }
}

// WithFetchTimeout bounds every individual collection read.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.fetchTimeout = d }
}

// WithCachedCollection caches reads of one collection for ttl.
func WithCachedCollection(collection string, ttl time.Duration) Option {
	return func(s *Service) {
		s.cachedCollection = collection
		s.cacheTTL = ttl
	}
}

// WithMetrics publishes cycle metrics through r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithDateFields overrides the keys normalized as dates.
func WithDateFields(fields DateFields) Option {
	return func(s *Service) { s.dateFields = fields }
}

// Service owns the latest analytics snapshot. Each fetch cycle builds a new
// immutable snapshot that replaces the previous one atomically.
type Service struct {
	source  Source
	fetcher *Fetcher
	cache   *cache.TTL[[]models.Record]
	logger  *zap.Logger
	metrics *metrics.Recorder

	now              func() time.Time
	loc              *time.Location
	cooldown         time.Duration
	maxAge           time.Duration
	fetchTimeout     time.Duration
	cachedCollection string
	cacheTTL         time.Duration
	dateFields       DateFields

	lifetime context.Context
	stop     context.CancelFunc

	group    singleflight.Group
	snapshot atomic.Pointer[models.Snapshot]
	watching atomic.Bool

	mu            sync.Mutex
	loading       bool
	lastErr       string
	lastCompleted time.Time
	dirty         bool
	invalidations uint64
	changes       uint64
}

// cycleMarks are the write counters observed when a cycle started.
type cycleMarks struct {
	invalidations uint64
	changes       uint64
}

// NewService wires the analytics engine on top of source.
func NewService(source Source, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		source:     source,
		logger:     logger,
		now:        time.Now,
		loc:        time.Local,
		cooldown:   DefaultCooldown,
		maxAge:     DefaultMaxAge,
		dateFields: DefaultDateFields,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cachedCollection != "" && s.cacheTTL > 0 {
		s.cache = cache.NewTTL[[]models.Record](s.cacheTTL, s.now)
	}
	s.fetcher = NewFetcher(source, s.fetchTimeout, s.cache, s.cachedCollection, s.metrics, logger.Named("fetcher"))
	s.lifetime, s.stop = context.WithCancel(context.Background())
	return s
}

// Refresh runs a fetch cycle unless the previous one completed less than the
// cooldown ago. It reports whether a cycle actually ran. Concurrent callers
// share the in-flight cycle. A cycle whose ctx is cancelled, or which
// outlives Close, is discarded without touching the published state.
func (s *Service) Refresh(ctx context.Context) (bool, error) {
	if s.lifetime.Err() != nil {
		return false, ErrServiceClosed
	}

	v, err, _ := s.group.Do("refresh", func() (any, error) {
		if !s.due() {
			s.metrics.Cycle(metrics.OutcomeSuppressed)
			s.logger.Debug("fetch cycle suppressed by cooldown", zap.Duration("cooldown", s.cooldown))
			return false, nil
		}
		if err := s.runCycle(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// RefreshStale skips the cycle when live subscriptions are active, no
// change was pushed since the last cycle and the snapshot is still current.
func (s *Service) RefreshStale(ctx context.Context) (bool, error) {
	snap := s.snapshot.Load()
	if s.watching.Load() && !s.isDirty() && snap != nil && !s.expired(snap) {
		return false, nil
	}
	return s.Refresh(ctx)
}

// expired reports whether snap outlived maxAge or was computed on another
// calendar day, which moves the month and year windows.
func (s *Service) expired(snap *models.Snapshot) bool {
	now := s.now().In(s.loc)
	if s.maxAge > 0 && now.Sub(snap.ComputedAt) >= s.maxAge {
		return true
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := snap.ComputedAt.In(s.loc).Date()
	return y1 != y2 || m1 != m2 || d1 != d2
}

// Invalidate is called after a write to collection. It drops the cache when
// collection is the cached one and lifts the cooldown.
func (s *Service) Invalidate(collection string) {
	if s.cache != nil && collection == s.cachedCollection {
		s.cache.Invalidate()
	}
	s.mu.Lock()
	s.dirty = true
	s.lastCompleted = time.Time{}
	s.invalidations++
	s.changes++
	s.mu.Unlock()
	s.logger.Debug("analytics invalidated", zap.String("collection", collection))
}

// Watch subscribes to every collection when the store supports it. Pushed
// changes mark the snapshot dirty; the cached collection is replaced in place.
func (s *Service) Watch(ctx context.Context) error {
	sub, ok := s.source.(Subscriber)
	if !ok {
		return ErrWatchUnsupported
	}
	s.watching.Store(true)

	for _, name := range models.Collections {
		name := name
		go func() {
			err := sub.Subscribe(ctx, name, func(records []models.Record) {
				s.onChange(name, records)
			})
			if err != nil && ctx.Err() == nil {
				s.watching.Store(false)
				s.logger.Warn("change subscription stopped, falling back to periodic refresh",
					zap.String("collection", name), zap.Error(err))
			}
		}()
	}
	return nil
}

// State returns the read-only view consumed by the dashboard.
func (s *Service) State() models.AnalyticsState {
	s.mu.Lock()
	state := models.AnalyticsState{Loading: s.loading}
	if s.lastErr != "" {
		msg := s.lastErr
		state.Error = &msg
	}
	s.mu.Unlock()

	state.Alerts = []models.Alert{}
	snap := s.snapshot.Load()
	if snap == nil {
		return state
	}

	computedAt := snap.ComputedAt
	state.CycleID = snap.CycleID
	state.ComputedAt = &computedAt
	state.FailedCollections = snap.FailedCollections
	state.Financial = &snap.Metrics.Financial
	state.Field = &snap.Metrics.Field
	state.Animal = &snap.Metrics.Animal
	state.Warehouse = &snap.Metrics.Warehouse
	state.Equipment = &snap.Metrics.Equipment
	state.Tasks = &snap.Metrics.Tasks
	state.Alerts = snap.Alerts
	return state
}

// Snapshot returns the latest published snapshot, or nil before the first cycle.
func (s *Service) Snapshot() *models.Snapshot {
	return s.snapshot.Load()
}

// Close cancels in-flight cycles; their results are discarded.
func (s *Service) Close() {
	s.stop()
	// wait for a publication that passed its liveness check before stop
	s.mu.Lock()
	s.mu.Unlock()
}

func (s *Service) due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCompleted.IsZero() {
		return true
	}
	return s.now().Sub(s.lastCompleted) >= s.cooldown
}

func (s *Service) isDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Service) onChange(collection string, records []models.Record) {
	if s.cache != nil && collection == s.cachedCollection {
		s.cache.Set(records)
	}
	s.mu.Lock()
	s.dirty = true
	s.changes++
	s.mu.Unlock()
	s.logger.Debug("collection changed", zap.String("collection", collection), zap.Int("records", len(records)))
}

func (s *Service) runCycle(ctx context.Context) (err error) {
	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopAfter := context.AfterFunc(s.lifetime, cancel)
	defer stopAfter()

	cycleID := uuid.NewString()
	started := s.now()

	s.mu.Lock()
	s.loading = true
	marks := cycleMarks{invalidations: s.invalidations, changes: s.changes}
	s.mu.Unlock()

	var failed []string
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("analytics cycle panicked: %v", p)
		}
		s.finish(cycleID, started, marks, failed, err)
	}()

	results := s.fetcher.FetchAll(cycleCtx, models.Collections)

	for name, r := range results {
		if r.Err != nil {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	if err := s.liveness(cycleCtx); err != nil {
		return err
	}
	if len(failed) == len(models.Collections) {
		return ErrAllCollectionsFailed
	}

	snap := &models.Snapshot{
		CycleID:           cycleID,
		ComputedAt:        s.now().In(s.loc),
		FailedCollections: failed,
	}
	snap.Metrics, snap.Alerts = s.compute(results, snap.ComputedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.liveness(cycleCtx); err != nil {
		return err
	}
	s.snapshot.Store(snap)
	s.metrics.Snapshot(snap, s.now().Sub(started))
	return nil
}

func (s *Service) liveness(ctx context.Context) error {
	if s.lifetime.Err() != nil {
		return ErrServiceClosed
	}
	return ctx.Err()
}

// finish records the cycle outcome. A failed cycle keeps the previous snapshot.
// Writes that landed while the cycle ran keep the snapshot dirty, and an
// Invalidate keeps the cooldown lifted.
func (s *Service) finish(cycleID string, started time.Time, marks cycleMarks, failed []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	switch {
	case err == nil:
		s.lastErr = ""
		if s.invalidations == marks.invalidations {
			s.lastCompleted = s.now()
		}
		if s.changes == marks.changes {
			s.dirty = false
		}
		s.metrics.Cycle(metrics.OutcomeCompleted)
		s.logger.Info("fetch cycle completed",
			zap.String("cycle_id", cycleID),
			zap.Duration("duration", s.now().Sub(started)),
			zap.Strings("failed_collections", failed))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrServiceClosed):
		s.metrics.Cycle(metrics.OutcomeDiscarded)
		s.logger.Info("fetch cycle discarded", zap.String("cycle_id", cycleID), zap.Error(err))
	default:
		s.lastErr = err.Error()
		s.metrics.Cycle(metrics.OutcomeFailed)
		s.logger.Error("fetch cycle failed", zap.String("cycle_id", cycleID), zap.Error(err))
	}
}

func (s *Service) compute(results map[string]CollectionResult, now time.Time) (models.MetricsBundle, []models.Alert) {
	records := func(name string) []models.Record {
		return NormalizeAll(results[name].Records, s.dateFields)
	}

	transactions := mapRecords(records(models.CollectionTransactions), models.TransactionFromRecord)
	fields := mapRecords(records(models.CollectionFields), models.FieldFromRecord)
	yields := mapRecords(records(models.CollectionFieldYields), models.FieldYieldFromRecord)
	statuses := mapRecords(records(models.CollectionFieldStatus), models.FieldStatusFromRecord)
	costs := mapRecords(records(models.CollectionFieldCosts), models.FieldCostFromRecord)
	animals := mapRecords(records(models.CollectionAnimals), models.AnimalFromRecord)
	items := mapRecords(records(models.CollectionWarehouse), models.WarehouseItemFromRecord)
	equipment := mapRecords(records(models.CollectionEquipment), models.EquipmentFromRecord)
	tasks := mapRecords(records(models.CollectionTasks), models.TaskFromRecord)

	bundle := models.MetricsBundle{
		Financial: AnalyzeFinancial(transactions, now),
		Field:     AnalyzeFields(fields, yields, now),
		Animal:    AnalyzeAnimals(animals, transactions, now),
		Warehouse: AnalyzeWarehouse(items),
		Equipment: AnalyzeEquipment(equipment, now),
		Tasks:     AnalyzeTasks(tasks, now),
	}
	bundle.Field.Operations = AnalyzeFieldOperations(fields, statuses, costs, now)

	alerts := GenerateAlerts(bundle.Financial, bundle.Field, bundle.Animal, bundle.Warehouse)
	return bundle, alerts
}

func mapRecords[T any](records []models.Record, fn func(models.Record) T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		out = append(out, fn(r))
	}
	return out
}
