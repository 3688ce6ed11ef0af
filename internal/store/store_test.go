package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/store"
)

type doc struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestClient_SetGet(t *testing.T) {
	c := makeClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "users/u1", doc{Name: "Ana", Score: 2}))

	var got doc
	require.NoError(t, c.Get(ctx, "users/u1", &got))
	require.Equal(t, doc{Name: "Ana", Score: 2}, got)
}

func TestClient_GetMissing(t *testing.T) {
	c := makeClient(t)

	var got doc
	err := c.Get(context.Background(), "users/nope", &got)
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestClient_PushChildren(t *testing.T) {
	c := makeClient(t)
	ctx := context.Background()

	id1, err := c.Push(ctx, "wishes", doc{Name: "a"})
	require.NoError(t, err)
	id2, err := c.Push(ctx, "wishes", doc{Name: "b"})
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	docs, err := c.Children(ctx, "wishes")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Contains(t, docs, id1)
	require.Contains(t, docs, id2)
}

func TestClient_ChildrenEmpty(t *testing.T) {
	c := makeClient(t)

	docs, err := c.Children(context.Background(), "nothing/here")
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestClient_Merge(t *testing.T) {
	c := makeClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "users/u1", doc{Name: "Ana", Score: 1}))
	require.NoError(t, c.Merge(ctx, "users/u1", map[string]any{"score": 2}))

	var got doc
	require.NoError(t, c.Get(ctx, "users/u1", &got))
	require.Equal(t, doc{Name: "Ana", Score: 2}, got, "merge should keep untouched fields")
}

func TestClient_MergeCreatesMissing(t *testing.T) {
	c := makeClient(t)
	ctx := context.Background()

	require.NoError(t, c.Merge(ctx, "users/u9", map[string]any{"name": "Zoe"}))

	var got doc
	require.NoError(t, c.Get(ctx, "users/u9", &got))
	require.Equal(t, "Zoe", got.Name)
}

func TestClient_Delete(t *testing.T) {
	c := makeClient(t)
	ctx := context.Background()

	id, err := c.Push(ctx, "wishes", doc{Name: "a"})
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "wishes/"+id))

	docs, err := c.Children(ctx, "wishes")
	require.NoError(t, err)
	require.Empty(t, docs)

	require.NoError(t, c.Delete(ctx, "wishes/"+id), "deleting absent document is not an error")
}

func TestClient_Index(t *testing.T) {
	c := makeClient(t)
	ctx := context.Background()

	claimed, err := c.SetIndexNX(ctx, "users:byname", "Ana", "u1")
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = c.SetIndexNX(ctx, "users:byname", "Ana", "u2")
	require.NoError(t, err)
	require.False(t, claimed, "second claim for the same field should lose")

	id, err := c.GetIndex(ctx, "users:byname", "Ana")
	require.NoError(t, err)
	require.Equal(t, "u1", id)

	_, err = c.GetIndex(ctx, "users:byname", "Zoe")
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func makeClient(t *testing.T) *store.Client {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	t.Cleanup(func() { rc.Close() })
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return store.New(store.Config{
		Redis:  rc,
		Prefix: "test",
	})
}
