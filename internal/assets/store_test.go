package assets

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroken = errors.New("broken")

// fakeLoader counts requests per key and fails according to failFn
type fakeLoader struct {
	mu     sync.Mutex
	calls  map[Key]int
	failFn func(key Key, call int) bool
}

func newFakeLoader(failFn func(key Key, call int) bool) *fakeLoader {
	return &fakeLoader{calls: make(map[Key]int), failFn: failFn}
}

func (f *fakeLoader) Load(_ context.Context, key Key, _ int) (any, error) {
	f.mu.Lock()
	f.calls[key]++
	call := f.calls[key]
	f.mu.Unlock()

	if f.failFn != nil && f.failFn(key, call) {
		return nil, errBroken
	}
	return string(key), nil
}

func (f *fakeLoader) Calls(key Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeLoader) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func advanceBackoff(t *testing.T, clock *quartz.Mock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(DefaultBackoff).MustWait(ctx)
}

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	require.Len(t, m, 56)

	sounds := 0
	for _, key := range m {
		if _, ok := key.Sound(); ok {
			sounds++
		}
	}
	assert.Equal(t, 4, sounds)
	assert.Equal(t, "static/cards/1H.png", m[0].Path())
	assert.Equal(t, "static/sounds/bet.mp3", m[52].Path())
}

func TestStore(t *testing.T) {
	t.Run("loads everything on the first pass", func(t *testing.T) {
		clock := quartz.NewMock(t)
		loader := newFakeLoader(nil)
		store := NewStore(loader, quietLogger(), Options{Clock: clock})

		var seen []Status
		store.OnChange(func(s Status) { seen = append(seen, s) })

		state := store.Load(context.Background(), DefaultManifest())
		assert.Equal(t, Ready, state)
		assert.True(t, store.Ready())
		assert.Equal(t, 56, loader.Total())

		require.Len(t, seen, 1)
		assert.True(t, seen[0].Ready())

		handle, ok := store.Handle(CardKey("1H"))
		require.True(t, ok)
		assert.Equal(t, "1H", handle)
	})

	t.Run("terminal failure after the retry ceiling", func(t *testing.T) {
		clock := quartz.NewMock(t)
		broken := map[Key]bool{CardKey("7C"): true, SoundKey("win"): true}
		loader := newFakeLoader(func(key Key, _ int) bool { return broken[key] })
		store := NewStore(loader, quietLogger(), Options{Clock: clock})

		state := store.Load(context.Background(), DefaultManifest())
		require.Equal(t, RetryPending, state)

		status := store.Status()
		assert.Equal(t, 1, status.Retries)
		assert.Equal(t, "Loading assets... retry 1/5", status.Text)
		assert.ElementsMatch(t, []Key{CardKey("7C"), SoundKey("win")}, status.Failed)

		for i := 2; i <= 4; i++ {
			advanceBackoff(t, clock)
			status = store.Status()
			require.Equal(t, RetryPending, status.State)
			assert.Equal(t, i, status.Retries)
		}

		advanceBackoff(t, clock)
		status = store.Status()
		assert.Equal(t, Failed, status.State)
		assert.Equal(t, 5, status.Retries)
		assert.Equal(t, FailedText, status.Text)
		assert.False(t, store.Ready())

		// failing entries were requested once per pass, the rest only once
		assert.Equal(t, 5, loader.Calls(CardKey("7C")))
		assert.Equal(t, 5, loader.Calls(SoundKey("win")))
		assert.Equal(t, 1, loader.Calls(CardKey("1H")))

		// terminal: a second load does nothing
		before := loader.Total()
		assert.Equal(t, Failed, store.Load(context.Background(), DefaultManifest()))
		assert.Equal(t, before, loader.Total())
		assert.False(t, store.Ready())
	})

	t.Run("ready on the third attempt and stays ready", func(t *testing.T) {
		clock := quartz.NewMock(t)
		loader := newFakeLoader(func(_ Key, call int) bool { return call < 3 })
		store := NewStore(loader, quietLogger(), Options{Clock: clock})

		require.Equal(t, RetryPending, store.Load(context.Background(), DefaultManifest()))
		advanceBackoff(t, clock)
		require.Equal(t, RetryPending, store.Status().State)
		advanceBackoff(t, clock)
		require.True(t, store.Ready())

		assert.Equal(t, 3*56, loader.Total())

		assert.Equal(t, Ready, store.Load(context.Background(), DefaultManifest()))
		assert.Equal(t, 3*56, loader.Total(), "loaded entries are not requested again")
	})

	t.Run("only failed entries are re-requested", func(t *testing.T) {
		clock := quartz.NewMock(t)
		loader := newFakeLoader(func(key Key, call int) bool {
			return key == CardKey("13S") && call == 1
		})
		store := NewStore(loader, quietLogger(), Options{Clock: clock})

		require.Equal(t, RetryPending, store.Load(context.Background(), DefaultManifest()))
		_, ok := store.Handle(CardKey("13S"))
		assert.False(t, ok)

		advanceBackoff(t, clock)
		assert.True(t, store.Ready())
		assert.Equal(t, 2, loader.Calls(CardKey("13S")))
		assert.Equal(t, 1, loader.Calls(CardKey("12S")))

		rec, ok := store.Record(CardKey("13S"))
		require.True(t, ok)
		assert.Equal(t, Loaded, rec.Status)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		clock := quartz.NewMock(t)
		loader := newFakeLoader(func(Key, int) bool { return true })
		store := NewStore(loader, quietLogger(), Options{Clock: clock})

		ctx, cancel := context.WithCancel(context.Background())
		require.Equal(t, RetryPending, store.Load(ctx, Manifest{CardKey("1H")}))
		cancel()

		advanceBackoff(t, clock)
		assert.Equal(t, 1, loader.Calls(CardKey("1H")))
		assert.Equal(t, RetryPending, store.Status().State)
	})

	t.Run("custom ceiling", func(t *testing.T) {
		clock := quartz.NewMock(t)
		loader := newFakeLoader(func(Key, int) bool { return true })
		store := NewStore(loader, quietLogger(), Options{Clock: clock, MaxRetries: 2})

		var texts []string
		store.OnChange(func(s Status) { texts = append(texts, s.Text) })

		store.Load(context.Background(), Manifest{SoundKey("bet")})
		advanceBackoff(t, clock)

		assert.Equal(t, []string{"Loading assets... retry 1/2", FailedText}, texts)
	})
}
