package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const changeChannel = "directory:changes"

// Bus is the directory change bus: writes publish the changed path on a
// redis pub/sub channel and every portal instance fans the notification out
// to its local subscribers. Pub/sub delivers at-most-once with no replay,
// which fits the directory's snapshot semantics — a subscriber that misses an
// intermediate notification still converges on the next one, because it
// always re-reads the full snapshot.
type Bus struct {
	client *redis.Client
	log    zerolog.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]*busSub
}

type busSub struct {
	path    string
	notify  func(changedPath string)
	onError func(error)
}

func NewBus(client *redis.Client, log zerolog.Logger) *Bus {
	return &Bus{client: client, log: log, subs: make(map[int]*busSub)}
}

// Start begins receiving notifications. It returns once the channel
// subscription is established; delivery runs until ctx is cancelled.
func (b *Bus) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, changeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("change bus subscribe: %w", err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					b.fail(fmt.Errorf("change bus channel closed"))
					return
				}
				b.dispatch(msg.Payload)
			}
		}
	}()
	return nil
}

// Publish announces that path changed.
func (b *Bus) Publish(ctx context.Context, path string) error {
	return b.client.Publish(ctx, changeChannel, path).Err()
}

// Subscribe registers a local subscriber for a path. The callback fires for
// a notification on the path itself, on anything beneath it, or on an
// ancestor of it. The returned function cancels the subscription; no
// callback runs after it returns.
func (b *Bus) Subscribe(path string, notify func(changedPath string), onError func(error)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = &busSub{path: strings.Trim(path, "/"), notify: notify, onError: onError}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bus) dispatch(changedPath string) {
	changed := strings.Trim(changedPath, "/")

	b.mu.Lock()
	matched := make([]*busSub, 0, len(b.subs))
	for _, sub := range b.subs {
		if pathsOverlap(sub.path, changed) {
			matched = append(matched, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range matched {
		sub.notify(changed)
	}
}

func (b *Bus) fail(err error) {
	b.log.Error().Err(err).Msg("change bus receive loop stopped")

	b.mu.Lock()
	subs := make([]*busSub, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	// Report once per subscriber and stop; there is no auto-retry.
	for _, sub := range subs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

// pathsOverlap reports whether one path is the other or an ancestor of it.
func pathsOverlap(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}
