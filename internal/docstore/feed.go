package docstore

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// loader reads the whole collection, sorted by id.
type loader func(ctx context.Context) ([]Document, error)

// feed fans change signals out to subscriptions. Each subscription owns one goroutine and
// a one-slot signal channel: a burst of changes collapses into a single reload, and the
// reload always happens after the change that triggered it, so the listener never misses
// the final state.
type feed struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
	load loader
	log  *zap.Logger
}

type subscription struct {
	fn     Listener
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newFeed(load loader, log *zap.Logger) *feed {
	return &feed{
		subs: make(map[*subscription]struct{}),
		load: load,
		log:  log,
	}
}

func (f *feed) subscribe(ctx context.Context, fn Listener) func() {
	sub := &subscription{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	sub.signal <- struct{}{} // initial delivery

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			f.mu.Lock()
			delete(f.subs, sub)
			f.mu.Unlock()
			close(sub.done)
		})
	}

	go f.run(ctx, sub)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-sub.done:
		}
	}()
	return cancel
}

func (f *feed) run(ctx context.Context, sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case <-ctx.Done():
			return
		case <-sub.signal:
			docs, err := f.load(ctx)
			if err != nil {
				f.log.Warn("load snapshot for subscriber", zap.Error(err))
				continue
			}
			select {
			case <-sub.done:
				return
			default:
			}
			sub.fn(docs)
		}
	}
}

// notify marks every subscription as stale. It never blocks.
func (f *feed) notify() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		select {
		case sub.signal <- struct{}{}:
		default: // a reload is already pending
		}
	}
}

func (f *feed) close() {
	f.mu.Lock()
	subs := make([]*subscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() {
			f.mu.Lock()
			delete(f.subs, sub)
			f.mu.Unlock()
			close(sub.done)
		})
	}
}
