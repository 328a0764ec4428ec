package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeSource serves canned records and counts reads per collection.
type fakeSource struct {
	mu    sync.Mutex
	data  map[string][]models.Record
	errs  map[string]error
	reads map[string]int

	// when set, ReadAll signals entered once and then waits for release,
	// ignoring ctx, to simulate a late response. blockOn limits the wait
	// to one collection.
	blockOn string
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newFakeSource(data map[string][]models.Record) *fakeSource {
	if data == nil {
		data = map[string][]models.Record{}
	}
	return &fakeSource{data: data, errs: map[string]error{}, reads: map[string]int{}}
}

func (f *fakeSource) ReadAll(ctx context.Context, collection, orderBy string) ([]models.Record, error) {
	f.mu.Lock()
	f.reads[collection]++
	err := f.errs[collection]
	records := f.data[collection]
	release := f.release
	if f.blockOn != "" && f.blockOn != collection {
		release = nil
	}
	f.mu.Unlock()

	if release != nil {
		f.once.Do(func() { close(f.entered) })
		<-release
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (f *fakeSource) setData(collection string, records []models.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[collection] = records
}

func (f *fakeSource) setErr(collection string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[collection] = err
}

func (f *fakeSource) readCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[collection]
}

// subscribingSource blocks in Subscribe until ctx is done.
type subscribingSource struct {
	*fakeSource
}

func (s subscribingSource) Subscribe(ctx context.Context, collection string, fn func([]models.Record)) error {
	<-ctx.Done()
	return ctx.Err()
}
