package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartelhax/portal/internal/core/domain"
	"github.com/cartelhax/portal/internal/core/ports"
)

// ChangeBus fans directory change notifications out to subscribers. Writes
// publish the changed path; subscribers are notified with it and re-read
// their own snapshot.
type ChangeBus interface {
	Publish(ctx context.Context, path string) error
	Subscribe(path string, notify func(changedPath string), onError func(error)) (unsubscribe func())
}

// Directory implements ports.Directory on MongoDB: one collection per top
// path segment, record key as _id, record fields as the document. Writes are
// last-write-wins with no version check.
type Directory struct {
	db  *mongo.Database
	bus ChangeBus
	log zerolog.Logger
}

func NewDirectory(db *mongo.Database, bus ChangeBus, log zerolog.Logger) *Directory {
	return &Directory{db: db, bus: bus, log: log}
}

func splitPath(path string) (node, key string, err error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return "", "", fmt.Errorf("empty directory path")
		}
		return parts[0], "", nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", fmt.Errorf("directory path %q has too many segments", path)
	}
}

func (d *Directory) Get(ctx context.Context, path string) (ports.Snapshot, error) {
	node, key, err := splitPath(path)
	if err != nil {
		return ports.Snapshot{}, err
	}

	if key == "" {
		return d.getNode(ctx, node)
	}

	var doc bson.M
	err = d.db.Collection(node).FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ports.Snapshot{}, nil
	}
	if err != nil {
		return ports.Snapshot{}, d.unavailable("get", path, err)
	}
	delete(doc, "_id")
	return ports.Snapshot{Exists: true, Value: plainMap(doc)}, nil
}

func (d *Directory) getNode(ctx context.Context, node string) (ports.Snapshot, error) {
	cursor, err := d.db.Collection(node).Find(ctx, bson.M{})
	if err != nil {
		return ports.Snapshot{}, d.unavailable("get", node, err)
	}
	defer cursor.Close(ctx)

	value := make(map[string]any)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return ports.Snapshot{}, d.unavailable("get", node, err)
		}
		key, _ := doc["_id"].(string)
		if key == "" {
			continue
		}
		delete(doc, "_id")
		value[key] = plainMap(doc)
	}
	if err := cursor.Err(); err != nil {
		return ports.Snapshot{}, d.unavailable("get", node, err)
	}
	return ports.Snapshot{Exists: len(value) > 0, Value: value}, nil
}

func (d *Directory) Set(ctx context.Context, path string, value map[string]any) error {
	node, key, err := splitPath(path)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("set requires a record path, got %q", path)
	}

	opts := options.Replace().SetUpsert(true)
	_, err = d.db.Collection(node).ReplaceOne(ctx, bson.M{"_id": key}, bson.M(value), opts)
	if err != nil {
		return d.unavailable("set", path, err)
	}
	d.publish(ctx, path)
	return nil
}

func (d *Directory) Update(ctx context.Context, path string, partial map[string]any) error {
	node, key, err := splitPath(path)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("update requires a record path, got %q", path)
	}

	opts := options.Update().SetUpsert(true)
	_, err = d.db.Collection(node).UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M(partial)}, opts)
	if err != nil {
		return d.unavailable("update", path, err)
	}
	d.publish(ctx, path)
	return nil
}

func (d *Directory) Remove(ctx context.Context, path string) error {
	node, key, err := splitPath(path)
	if err != nil {
		return err
	}

	coll := d.db.Collection(node)
	if key == "" {
		_, err = coll.DeleteMany(ctx, bson.M{})
	} else {
		_, err = coll.DeleteOne(ctx, bson.M{"_id": key})
	}
	if err != nil {
		return d.unavailable("remove", path, err)
	}
	d.publish(ctx, path)
	return nil
}

// Subscribe registers with the change bus and re-reads the subscribed path's
// snapshot on every matching notification. A write anywhere under the
// subscribed path, or to an ancestor of it, triggers a delivery.
func (d *Directory) Subscribe(path string, onChange func(ports.Snapshot), onError func(error)) func() {
	return d.bus.Subscribe(path, func(string) {
		snap, err := d.Get(context.Background(), path)
		if err != nil {
			onError(err)
			return
		}
		onChange(snap)
	}, onError)
}

func (d *Directory) publish(ctx context.Context, path string) {
	if err := d.bus.Publish(ctx, path); err != nil {
		// The write itself succeeded; a lost notification only delays the
		// next snapshot delivery.
		d.log.Warn().Err(err).Str("path", path).Msg("change publish failed")
	}
}

func (d *Directory) unavailable(op, path string, err error) error {
	d.log.Error().Err(err).Str("op", op).Str("path", path).Msg("directory operation failed")
	return fmt.Errorf("%s %s: %w", op, path, domain.ErrDirectoryUnavailable)
}

// plainMap rewrites a decoded bson document into plain Go types so the rest
// of the system never sees bson.M or primitive.A.
func plainMap(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for field, value := range doc {
		out[field] = plainValue(value)
	}
	return out
}

func plainValue(value any) any {
	switch v := value.(type) {
	case bson.M:
		return plainMap(v)
	case bson.D:
		return plainMap(v.Map())
	case primitive.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	case primitive.DateTime:
		return int64(v)
	default:
		return v
	}
}
