package service

import (
	"context"
	"strings"
	"sync"

	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/core/ports"
)

// memDirectory is an in-memory ports.Directory with synchronous change
// notifications, used by the service tests in place of the mongo/redis
// implementation.
type memDirectory struct {
	mu     sync.Mutex
	nodes  map[string]map[string]map[string]any
	subs   map[int]*memSub
	nextID int

	// failErr, when set, makes every operation fail with it.
	failErr error
}

type memSub struct {
	path     string
	onChange func(ports.Snapshot)
	onError  func(error)
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		nodes: make(map[string]map[string]map[string]any),
		subs:  make(map[int]*memSub),
	}
}

func splitMemPath(path string) (node, key string) {
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func (d *memDirectory) snapshotLocked(path string) ports.Snapshot {
	node, key := splitMemPath(path)
	records := d.nodes[node]
	if key != "" {
		rec, ok := records[key]
		if !ok {
			return ports.Snapshot{}
		}
		value := make(map[string]any, len(rec))
		for k, v := range rec {
			value[k] = v
		}
		return ports.Snapshot{Exists: true, Value: value}
	}
	value := make(map[string]any, len(records))
	for k, rec := range records {
		copied := make(map[string]any, len(rec))
		for f, v := range rec {
			copied[f] = v
		}
		value[k] = copied
	}
	return ports.Snapshot{Exists: len(value) > 0, Value: value}
}

func (d *memDirectory) Get(_ context.Context, path string) (ports.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failErr != nil {
		return ports.Snapshot{}, d.failErr
	}
	return d.snapshotLocked(path), nil
}

func (d *memDirectory) Set(_ context.Context, path string, value map[string]any) error {
	d.mu.Lock()
	if d.failErr != nil {
		d.mu.Unlock()
		return d.failErr
	}
	node, key := splitMemPath(path)
	if d.nodes[node] == nil {
		d.nodes[node] = make(map[string]map[string]any)
	}
	copied := make(map[string]any, len(value))
	for k, v := range value {
		copied[k] = v
	}
	d.nodes[node][key] = copied
	d.mu.Unlock()

	d.notify(path)
	return nil
}

func (d *memDirectory) Update(_ context.Context, path string, partial map[string]any) error {
	d.mu.Lock()
	if d.failErr != nil {
		d.mu.Unlock()
		return d.failErr
	}
	node, key := splitMemPath(path)
	if d.nodes[node] == nil {
		d.nodes[node] = make(map[string]map[string]any)
	}
	if d.nodes[node][key] == nil {
		d.nodes[node][key] = make(map[string]any)
	}
	for k, v := range partial {
		d.nodes[node][key][k] = v
	}
	d.mu.Unlock()

	d.notify(path)
	return nil
}

func (d *memDirectory) Remove(_ context.Context, path string) error {
	d.mu.Lock()
	if d.failErr != nil {
		d.mu.Unlock()
		return d.failErr
	}
	node, key := splitMemPath(path)
	if key == "" {
		delete(d.nodes, node)
	} else {
		delete(d.nodes[node], key)
	}
	d.mu.Unlock()

	d.notify(path)
	return nil
}

func (d *memDirectory) Subscribe(path string, onChange func(ports.Snapshot), onError func(error)) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = &memSub{path: strings.Trim(path, "/"), onChange: onChange, onError: onError}
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

func (d *memDirectory) notify(changedPath string) {
	changed := strings.Trim(changedPath, "/")

	d.mu.Lock()
	type delivery struct {
		fn   func(ports.Snapshot)
		snap ports.Snapshot
	}
	deliveries := make([]delivery, 0, len(d.subs))
	for _, sub := range d.subs {
		if changed == sub.path ||
			strings.HasPrefix(changed, sub.path+"/") ||
			strings.HasPrefix(sub.path, changed+"/") {
			deliveries = append(deliveries, delivery{fn: sub.onChange, snap: d.snapshotLocked(sub.path)})
		}
	}
	d.mu.Unlock()

	for _, dv := range deliveries {
		dv.fn(dv.snap)
	}
}

// seedAccount registers an account record directly, bypassing the workflow.
func (d *memDirectory) seedAccount(key string, account *domain.Account) {
	_ = d.Set(context.Background(), ports.UserPath(key), domain.AccountRecord(account))
}

// seedLink publishes a link record directly.
func (d *memDirectory) seedLink(link *domain.Link) {
	_ = d.Set(context.Background(), ports.LinkPath(link.Key), domain.LinkRecord(link))
}
