package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/store"
	"github.com/ameko/fete/internal/user"
)

func TestService_Create(t *testing.T) {
	s, _ := makeService(t)

	u, err := s.Create(context.Background(), "Ana")
	require.NoError(t, err)

	require.NotEmpty(t, u.ID)
	require.Equal(t, "Ana", u.Name)
	require.Equal(t, domain.StepQuizQ1, u.Step)
	require.Zero(t, u.Score)
	require.NotEmpty(t, u.CreatedAt)
}

func TestService_FindByName_Missing(t *testing.T) {
	s, _ := makeService(t)

	_, err := s.FindByName(context.Background(), "Nobody")
	require.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestService_FindByName_UnindexedRecord(t *testing.T) {
	// Records other writers pushed straight into the tree, without going
	// through the directory, must still resolve.
	s, st := makeService(t)
	ctx := context.Background()

	_, err := st.Push(ctx, "users", domain.User{
		Name: "Sam",
		Step: domain.StepQuizQ2,
	})
	require.NoError(t, err)

	u, err := s.FindByName(ctx, "Sam")
	require.NoError(t, err)
	require.Equal(t, "Sam", u.Name)
	require.Equal(t, domain.StepQuizQ2, u.Step)
	require.NotEmpty(t, u.ID)
}

func TestService_GetOrCreate_Idempotent(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, "Ana")
	require.NoError(t, err)

	second, err := s.GetOrCreate(ctx, "Ana")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID, "same name should resolve to the same identity")
}

func TestService_Update(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	u, err := s.Create(ctx, "Ana")
	require.NoError(t, err)

	err = s.Update(ctx, u.ID, map[string]any{
		"step":  domain.StepQuizQ2,
		"score": 1,
	})
	require.NoError(t, err)

	got, err := s.FindByName(ctx, "Ana")
	require.NoError(t, err)
	require.Equal(t, domain.StepQuizQ2, got.Step)
	require.Equal(t, 1, got.Score)
	require.Equal(t, "Ana", got.Name, "fields outside the update should survive")
}

func makeService(t *testing.T) (*user.Service, *store.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	t.Cleanup(func() { rc.Close() })
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	st := store.New(store.Config{Redis: rc, Prefix: "test"})
	return user.NewService(user.Config{Store: st}), st
}
