package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

func farmData() map[string][]models.Record {
	return map[string][]models.Record{
		models.CollectionTransactions: {
			{"id": "t1", "type": "income", "category": "zboże", "amount": 1000, "date": map[string]any{"seconds": testNow.Unix()}},
			{"id": "t2", "type": "expense", "category": "pasza", "amount": "900", "date": testNow.Format(time.RFC3339)},
			{"id": "t3", "type": "expense", "category": "pasza", "amount": 50, "date": "not-a-date"},
		},
		models.CollectionFields: {
			{"id": "f1", "area": 10, "crop": "pszenica"},
		},
		models.CollectionAnimals: {
			{"id": "a1", "type": "krowa", "health": "zdrowy"},
			{"id": "a2", "type": "krowa", "health": "chory"},
		},
		models.CollectionWarehouse: {
			{"id": "w1", "quantity": 2, "minStock": 5},
		},
	}
}

func newTestService(src Source, clock *fakeClock, opts ...Option) *Service {
	base := []Option{WithClock(clock.Now), WithLocation(time.UTC), WithCooldown(30 * time.Second)}
	return NewService(src, nil, append(base, opts...)...)
}

func TestService_RefreshPublishesSnapshot(t *testing.T) {
	clock := newFakeClock(testNow)
	svc := newTestService(newFakeSource(farmData()), clock)
	defer svc.Close()

	refreshed, err := svc.Refresh(context.Background())
	if err != nil || !refreshed {
		t.Fatalf("Refresh=%v, %v", refreshed, err)
	}

	state := svc.State()
	if state.Loading || state.Error != nil {
		t.Fatalf("state loading=%v error=%v", state.Loading, state.Error)
	}
	if !state.Ready() || state.CycleID == "" {
		t.Fatal("expected a published snapshot")
	}
	if state.Financial.NetProfit != 100 || state.Financial.ProfitMargin != 10 {
		t.Errorf("financial=%+v", state.Financial)
	}
	if state.Animal.Health.HealthIndex != 50 {
		t.Errorf("HealthIndex=%v", state.Animal.Health.HealthIndex)
	}
	if state.Field.FieldUtilization.UtilizationRate != 100 {
		t.Errorf("UtilizationRate=%v", state.Field.FieldUtilization.UtilizationRate)
	}
	if len(state.Alerts) == 0 || state.Alerts[0].Severity != models.SeverityDanger {
		t.Errorf("alerts=%+v", state.Alerts)
	}
}

func TestService_CooldownSuppressesRefetch(t *testing.T) {
	clock := newFakeClock(testNow)
	src := newFakeSource(farmData())
	svc := newTestService(src, clock)
	defer svc.Close()

	if ok, err := svc.Refresh(context.Background()); !ok || err != nil {
		t.Fatalf("first Refresh=%v, %v", ok, err)
	}

	clock.Advance(10 * time.Second)
	if ok, err := svc.Refresh(context.Background()); ok || err != nil {
		t.Fatalf("second Refresh=%v, %v, want suppressed", ok, err)
	}
	if got := src.readCount(models.CollectionTransactions); got != 1 {
		t.Fatalf("reads=%d after suppressed refresh, want 1", got)
	}

	clock.Advance(21 * time.Second)
	if ok, err := svc.Refresh(context.Background()); !ok || err != nil {
		t.Fatalf("third Refresh=%v, %v, want a new cycle", ok, err)
	}
	if got := src.readCount(models.CollectionTransactions); got != 2 {
		t.Fatalf("reads=%d after cooldown, want 2", got)
	}
}

func TestService_TeardownDiscardsLateResult(t *testing.T) {
	clock := newFakeClock(testNow)
	src := newFakeSource(farmData())
	src.release = make(chan struct{})
	src.entered = make(chan struct{})
	svc := newTestService(src, clock)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx)
		done <- err
	}()

	<-src.entered
	cancel()
	close(src.release)

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Refresh err=%v, want context.Canceled", err)
	}
	state := svc.State()
	if state.Ready() || state.Error != nil || state.Loading {
		t.Fatalf("state mutated after teardown: %+v", state)
	}
}

func TestService_CloseDiscardsInFlightCycle(t *testing.T) {
	clock := newFakeClock(testNow)
	src := newFakeSource(farmData())
	src.release = make(chan struct{})
	src.entered = make(chan struct{})
	svc := newTestService(src, clock)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background())
		done <- err
	}()

	<-src.entered
	svc.Close()
	close(src.release)

	if err := <-done; !errors.Is(err, ErrServiceClosed) && !errors.Is(err, context.Canceled) {
		t.Fatalf("Refresh err=%v, want closed", err)
	}
	if svc.Snapshot() != nil {
		t.Fatal("snapshot published after Close")
	}
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, ErrServiceClosed) {
		t.Fatalf("Refresh after Close err=%v", err)
	}
}

func TestService_PartialFailureStillPublishes(t *testing.T) {
	clock := newFakeClock(testNow)
	src := newFakeSource(farmData())
	src.setErr(models.CollectionTasks, errors.New("permission denied"))
	svc := newTestService(src, clock)
	defer svc.Close()

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh err=%v", err)
	}
	state := svc.State()
	if len(state.FailedCollections) != 1 || state.FailedCollections[0] != models.CollectionTasks {
		t.Fatalf("FailedCollections=%v", state.FailedCollections)
	}
	if state.Tasks.Total != 0 {
		t.Fatalf("failed collection must be treated as empty, got %+v", state.Tasks)
	}
}

func TestService_BatchFailureKeepsPreviousSnapshot(t *testing.T) {
	clock := newFakeClock(testNow)
	src := newFakeSource(farmData())
	svc := newTestService(src, clock)
	defer svc.Close()

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh err=%v", err)
	}
	first := svc.State().CycleID

	for _, c := range models.Collections {
		src.setErr(c, errors.New("store offline"))
	}
	svc.Invalidate(models.CollectionTransactions)

	if _, err := svc.Refresh(context.Background()); !errors.Is(err, ErrAllCollectionsFailed) {
		t.Fatalf("Refresh err=%v, want ErrAllCollectionsFailed", err)
	}
	state := svc.State()
	if state.Error == nil || state.Loading {
		t.Fatalf("expected visible error and loading cleared, got %+v", state)
	}
	if state.CycleID != first || !state.Ready() {
		t.Fatalf("previous snapshot not retained: cycle=%q", state.CycleID)
	}
}

func TestService_InvalidateDropsCacheAndCooldown(t *testing.T) {
	clock := newFakeClock(testNow)
	src := newFakeSource(farmData())
	svc := newTestService(src, clock, WithCachedCollection(models.CollectionWarehouse, 5*time.Minute))
	defer svc.Close()

	ctx := context.Background()
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	svc.Invalidate(models.CollectionTransactions)
	if ok, _ := svc.Refresh(ctx); !ok {
		t.Fatal("Invalidate must lift the cooldown")
	}
	if got := src.readCount(models.CollectionWarehouse); got != 1 {
		t.Fatalf("warehouse reads=%d, want 1 (cached)", got)
	}

	svc.Invalidate(models.CollectionWarehouse)
	if ok, _ := svc.Refresh(ctx); !ok {
		t.Fatal("expected refresh after warehouse write")
	}
	if got := src.readCount(models.CollectionWarehouse); got != 2 {
		t.Fatalf("warehouse reads=%d, want 2 after invalidation", got)
	}
}

func TestService_WriteDuringCycleIsNotLost(t *testing.T) {
	clock := newFakeClock(testNow)
	src := newFakeSource(farmData())
	src.blockOn = models.CollectionWarehouse
	src.release = make(chan struct{})
	src.entered = make(chan struct{})
	svc := newTestService(src, clock, WithCachedCollection(models.CollectionWarehouse, 5*time.Minute))
	defer svc.Close()

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(ctx)
		done <- err
	}()

	<-src.entered
	src.setData(models.CollectionWarehouse, []models.Record{
		{"id": "w1", "quantity": 2, "minStock": 5},
		{"id": "w2", "quantity": 1, "minStock": 4},
		{"id": "w3", "quantity": 3, "minStock": 10},
	})
	svc.Invalidate(models.CollectionWarehouse)
	close(src.release)

	if err := <-done; err != nil {
		t.Fatalf("in-flight Refresh err=%v", err)
	}
	if got := svc.State().Warehouse.StockLevels.LowStock; got != 1 {
		t.Fatalf("in-flight cycle lowStock=%d, want 1 (read before the write)", got)
	}

	ok, err := svc.Refresh(ctx)
	if err != nil || !ok {
		t.Fatalf("Refresh after write=%v, %v, want a cycle despite cooldown", ok, err)
	}
	if got := src.readCount(models.CollectionWarehouse); got != 2 {
		t.Fatalf("warehouse reads=%d, want 2 (stale read must not be cached)", got)
	}
	if got := svc.State().Warehouse.StockLevels.LowStock; got != 3 {
		t.Fatalf("lowStock=%d, want 3", got)
	}
}

func TestService_PushedChangeDuringCycleKeepsSnapshotDirty(t *testing.T) {
	clock := newFakeClock(testNow)
	fake := newFakeSource(farmData())
	fake.blockOn = models.CollectionAnimals
	fake.release = make(chan struct{})
	fake.entered = make(chan struct{})
	src := subscribingSource{fake}
	svc := newTestService(src, clock)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Watch(ctx); err != nil {
		t.Fatalf("Watch err=%v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.RefreshStale(ctx)
		done <- err
	}()
	<-fake.entered
	svc.onChange(models.CollectionAnimals, nil)
	close(fake.release)
	if err := <-done; err != nil {
		t.Fatalf("RefreshStale err=%v", err)
	}

	clock.Advance(time.Minute)
	if ok, err := svc.RefreshStale(ctx); !ok || err != nil {
		t.Fatalf("RefreshStale after change during cycle=%v, %v", ok, err)
	}
}

func TestService_RefreshStaleRecomputesAgedSnapshot(t *testing.T) {
	clock := newFakeClock(testNow)
	src := subscribingSource{newFakeSource(farmData())}
	svc := newTestService(src, clock, WithMaxAge(15*time.Minute))
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Watch(ctx); err != nil {
		t.Fatalf("Watch err=%v", err)
	}
	if ok, err := svc.RefreshStale(ctx); !ok || err != nil {
		t.Fatalf("initial RefreshStale=%v, %v", ok, err)
	}

	clock.Advance(14 * time.Minute)
	if ok, _ := svc.RefreshStale(ctx); ok {
		t.Fatal("snapshot younger than max age must be reused")
	}

	clock.Advance(time.Minute)
	if ok, err := svc.RefreshStale(ctx); !ok || err != nil {
		t.Fatalf("RefreshStale at max age=%v, %v", ok, err)
	}
}

func TestService_RefreshStaleRecomputesAcrossMonths(t *testing.T) {
	clock := newFakeClock(testNow)
	src := subscribingSource{newFakeSource(farmData())}
	svc := newTestService(src, clock, WithMaxAge(0))
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Watch(ctx); err != nil {
		t.Fatalf("Watch err=%v", err)
	}
	if _, err := svc.RefreshStale(ctx); err != nil {
		t.Fatal(err)
	}
	if got := svc.State().Financial.MonthlyRevenue; got != 1000 {
		t.Fatalf("MonthlyRevenue=%v, want 1000", got)
	}

	clock.Advance(62 * 24 * time.Hour)
	ok, err := svc.RefreshStale(ctx)
	if err != nil || !ok {
		t.Fatalf("RefreshStale two months later=%v, %v", ok, err)
	}
	if got := svc.State().Financial.MonthlyRevenue; got != 0 {
		t.Fatalf("MonthlyRevenue=%v, want 0 in a later month", got)
	}
}

func TestService_RefreshStaleWithWatch(t *testing.T) {
	clock := newFakeClock(testNow)
	src := subscribingSource{newFakeSource(farmData())}
	svc := newTestService(src, clock)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Watch(ctx); err != nil {
		t.Fatalf("Watch err=%v", err)
	}

	if ok, err := svc.RefreshStale(ctx); !ok || err != nil {
		t.Fatalf("initial RefreshStale=%v, %v", ok, err)
	}

	clock.Advance(time.Minute)
	if ok, _ := svc.RefreshStale(ctx); ok {
		t.Fatal("RefreshStale must skip when nothing changed")
	}

	svc.onChange(models.CollectionAnimals, nil)
	if ok, err := svc.RefreshStale(ctx); !ok || err != nil {
		t.Fatalf("RefreshStale after change=%v, %v", ok, err)
	}
}

func TestService_WatchUnsupported(t *testing.T) {
	svc := newTestService(newFakeSource(nil), newFakeClock(testNow))
	defer svc.Close()
	if err := svc.Watch(context.Background()); !errors.Is(err, ErrWatchUnsupported) {
		t.Fatalf("Watch err=%v", err)
	}
}
