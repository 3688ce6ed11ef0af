// Package store is a thin JSON document layer over Redis, shaped like the
// hierarchical tree database the web app was built against: documents live at
// slash-separated paths, collections track their children, and Push generates
// time-ordered ids.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ameko/fete/internal/errors"
)

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
}

// Client owns all persisted application state. Reads of absent documents
// return a CodeNotFound error; callers decide whether that means "empty".
type Client struct {
	redis  redis.UniversalClient
	prefix string
}

func New(c Config) *Client {
	return &Client{
		redis:  c.Redis,
		prefix: c.Prefix,
	}
}

// Get unmarshals the document at path into dest.
func (c *Client) Get(ctx context.Context, path string, dest any) error {
	b, err := c.redis.Get(ctx, c.docKey(path)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return errors.New(errors.CodeNotFound, errors.WithMessagef("store: no document at %s", path))
	}
	if err != nil {
		return fmt.Errorf("store: get %s: %w", path, err)
	}

	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("store: decode %s: %w", path, err)
	}

	return nil
}

// Set overwrites the document at path and registers it in its parent
// collection so Children can find it later.
func (c *Client) Set(ctx context.Context, path string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}

	if err := c.redis.Set(ctx, c.docKey(path), b, 0).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", path, err)
	}

	if parent, id := splitPath(path); parent != "" {
		if err := c.redis.SAdd(ctx, c.idsKey(parent), id).Err(); err != nil {
			return fmt.Errorf("store: register %s: %w", path, err)
		}
	}

	return nil
}

// Merge applies a partial update to the document at path, creating it when
// absent. Read-modify-write: concurrent merges to the same document can lose
// fields, which is the consistency the backing tree database offers anyway.
func (c *Client) Merge(ctx context.Context, path string, fields map[string]any) error {
	doc := make(map[string]any)
	if err := c.Get(ctx, path, &doc); err != nil && !errors.Is(err, errors.CodeNotFound) {
		return err
	}

	for k, v := range fields {
		doc[k] = v
	}

	return c.Set(ctx, path, doc)
}

// Push appends value as a new child of collection under a generated id.
// UUIDv7 keys are time-ordered, matching the push-key contract of the
// original tree database.
func (c *Client) Push(ctx context.Context, collection string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("store: generate push id: %w", err)
	}

	if err := c.Set(ctx, collection+"/"+id.String(), value); err != nil {
		return "", err
	}

	return id.String(), nil
}

// Delete removes the document at path and unregisters it from its parent.
// Deleting an absent document is not an error.
func (c *Client) Delete(ctx context.Context, path string) error {
	if err := c.redis.Del(ctx, c.docKey(path)).Err(); err != nil {
		return fmt.Errorf("store: delete %s: %w", path, err)
	}

	if parent, id := splitPath(path); parent != "" {
		if err := c.redis.SRem(ctx, c.idsKey(parent), id).Err(); err != nil {
			return fmt.Errorf("store: unregister %s: %w", path, err)
		}
	}

	return nil
}

// Children returns the raw documents of a collection keyed by child id.
// An empty or unknown collection yields an empty map, not an error.
func (c *Client) Children(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	ids, err := c.redis.SMembers(ctx, c.idsKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: children of %s: %w", collection, err)
	}

	docs := make(map[string]json.RawMessage, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.docKey(collection + "/" + id)
	}

	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("store: children of %s: %w", collection, err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // child deleted between SMEMBERS and MGET
		}
		docs[ids[i]] = json.RawMessage(s)
	}

	return docs, nil
}

// SetIndex maps field to value in the named secondary index.
func (c *Client) SetIndex(ctx context.Context, index, field, value string) error {
	if err := c.redis.HSet(ctx, c.idxKey(index), field, value).Err(); err != nil {
		return fmt.Errorf("store: index %s: set %s: %w", index, field, err)
	}

	return nil
}

// SetIndexNX maps field to value only when the field is unclaimed, reporting
// whether this call won. This is the store's create-if-absent primitive.
func (c *Client) SetIndexNX(ctx context.Context, index, field, value string) (bool, error) {
	ok, err := c.redis.HSetNX(ctx, c.idxKey(index), field, value).Result()
	if err != nil {
		return false, fmt.Errorf("store: index %s: setnx %s: %w", index, field, err)
	}

	return ok, nil
}

// GetIndex resolves field in the named secondary index.
func (c *Client) GetIndex(ctx context.Context, index, field string) (string, error) {
	v, err := c.redis.HGet(ctx, c.idxKey(index), field).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", errors.New(errors.CodeNotFound, errors.WithMessagef("store: index %s: no entry for %s", index, field))
	}
	if err != nil {
		return "", fmt.Errorf("store: index %s: get %s: %w", index, field, err)
	}

	return v, nil
}

// DeleteIndex removes field from the named secondary index.
func (c *Client) DeleteIndex(ctx context.Context, index, field string) error {
	if err := c.redis.HDel(ctx, c.idxKey(index), field).Err(); err != nil {
		return fmt.Errorf("store: index %s: delete %s: %w", index, field, err)
	}

	return nil
}

func (c *Client) docKey(path string) string {
	return fmt.Sprintf("%s:doc:%s", c.prefix, path)
}

func (c *Client) idsKey(collection string) string {
	return fmt.Sprintf("%s:ids:%s", c.prefix, collection)
}

func (c *Client) idxKey(index string) string {
	return fmt.Sprintf("%s:idx:%s", c.prefix, index)
}

func splitPath(path string) (parent, id string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}

	return path[:i], path[i+1:]
}
