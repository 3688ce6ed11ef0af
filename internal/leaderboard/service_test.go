package leaderboard_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/leaderboard"
	"github.com/ameko/fete/internal/store"
	"github.com/ameko/fete/internal/user"
)

func TestService_AddScore_Validation(t *testing.T) {
	s, _ := makeService(t)

	_, err := s.AddScore(context.Background(), leaderboard.AddScoreRequest{Name: "", Delta: 5})
	require.True(t, errors.Is(err, errors.CodeInvalidArgument))

	_, err = s.AddScore(context.Background(), leaderboard.AddScoreRequest{Name: "Ana", Delta: 0})
	require.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestService_AddScore_Accumulates(t *testing.T) {
	s, users := makeService(t)
	ctx := context.Background()

	entry, err := s.AddScore(ctx, leaderboard.AddScoreRequest{Name: "Ana", Delta: 3})
	require.NoError(t, err)
	require.Equal(t, 3, entry.Score)

	entry, err = s.AddScore(ctx, leaderboard.AddScoreRequest{Name: "Ana", Delta: 2})
	require.NoError(t, err)
	require.Equal(t, 5, entry.Score)

	u, err := users.FindByName(ctx, "Ana")
	require.NoError(t, err)
	require.Equal(t, u.ID, entry.UserID, "entry should be keyed by directory identity")
}

func TestService_AddScore_NegativeDelta(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	_, err := s.AddScore(ctx, leaderboard.AddScoreRequest{Name: "Ana", Delta: 3})
	require.NoError(t, err)

	entry, err := s.AddScore(ctx, leaderboard.AddScoreRequest{Name: "Ana", Delta: -1})
	require.NoError(t, err)
	require.Equal(t, 2, entry.Score)
}

func TestService_Top(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		_, err := s.AddScore(ctx, leaderboard.AddScoreRequest{
			Name:  fmt.Sprintf("Guest%d", i),
			Delta: i,
		})
		require.NoError(t, err)
	}

	top, err := s.Top(ctx)
	require.NoError(t, err)

	require.Len(t, top, 10, "top should be capped at 10")
	require.Equal(t, 12, top[0].Score)
	for i := 1; i < len(top); i++ {
		require.GreaterOrEqual(t, top[i-1].Score, top[i].Score, "top should be sorted by score descending")
	}
}

func makeService(t *testing.T) (*leaderboard.Service, *user.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	t.Cleanup(func() { rc.Close() })
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	st := store.New(store.Config{Redis: rc, Prefix: "test"})
	users := user.NewService(user.Config{Store: st})

	return leaderboard.NewService(leaderboard.Config{
		Store: st,
		Users: users,
	}), users
}
