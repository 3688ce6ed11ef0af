package quiz_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/event"
	"github.com/ameko/fete/internal/quiz"
	"github.com/ameko/fete/internal/store"
)

func TestService_AddQuestion_Validation(t *testing.T) {
	tests := map[string]quiz.AddQuestionRequest{
		"missing question": {
			Options: []string{"a", "b", "c", "d"},
		},
		"too few options": {
			Question: "Quel âge ?",
			Options:  []string{"30", "31"},
		},
		"too many options": {
			Question: "Quel âge ?",
			Options:  []string{"30", "31", "32", "33", "34"},
		},
	}

	for name, req := range tests {
		req := req
		t.Run(name, func(t *testing.T) {
			s, _ := makeService(t)

			_, err := s.AddQuestion(context.Background(), req)
			require.True(t, errors.Is(err, errors.CodeInvalidArgument))
		})
	}
}

func TestService_QuestionLifecycle(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	id, err := s.AddQuestion(ctx, quiz.AddQuestionRequest{
		Question:      "Plat préféré de Junior ?",
		Options:       []string{"Thiéboudienne", "Yassa", "Mafé", "Pizza"},
		CorrectAnswer: 0,
	})
	require.NoError(t, err)

	questions, err := s.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Equal(t, id, questions[0].ID)
	require.Equal(t, "Plat préféré de Junior ?", questions[0].Question)

	require.NoError(t, s.DeleteQuestion(ctx, id))

	questions, err = s.ListQuestions(ctx)
	require.NoError(t, err)
	require.Empty(t, questions)
}

func TestService_RecordScore_Percentage(t *testing.T) {
	tests := map[string]struct {
		score int
		total int
		want  float64
	}{
		"perfect score":   {score: 10, total: 10, want: 100},
		"two thirds":      {score: 2, total: 3, want: 66.67},
		"zero total":      {score: 3, total: 0, want: 0},
		"nothing correct": {score: 0, total: 5, want: 0},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			s, _ := makeService(t)
			ctx := context.Background()

			_, err := s.RecordScore(ctx, quiz.RecordScoreRequest{
				Name:  "Ana",
				Score: tt.score,
				Total: tt.total,
			})
			require.NoError(t, err)

			scores, err := s.Leaderboard(ctx)
			require.NoError(t, err)
			require.Len(t, scores, 1)
			require.Equal(t, tt.want, scores[0].Percentage)
		})
	}
}

func TestService_RecordScore_RequiresName(t *testing.T) {
	s, _ := makeService(t)

	_, err := s.RecordScore(context.Background(), quiz.RecordScoreRequest{Score: 1, Total: 3})
	require.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestService_Leaderboard_SortedByPercentage(t *testing.T) {
	s, _ := makeService(t)
	ctx := context.Background()

	for _, attempt := range []quiz.RecordScoreRequest{
		{Name: "Ana", Score: 1, Total: 3},
		{Name: "Sam", Score: 3, Total: 3},
		{Name: "Zoe", Score: 2, Total: 3},
	} {
		_, err := s.RecordScore(ctx, attempt)
		require.NoError(t, err)
	}

	scores, err := s.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	require.Equal(t, "Sam", scores[0].Name)
	require.Equal(t, "Zoe", scores[1].Name)
	require.Equal(t, "Ana", scores[2].Name)
}

func TestService_RecordsChatQuizCompletion(t *testing.T) {
	eb := event.NewBus()
	s, _ := makeService(t, withEventBus(eb))

	eb.Publish(context.Background(), domain.EventQuizCompleted{
		Username: "Ana",
		Score:    2,
		Total:    3,
	})
	eb.Stop()

	scores, err := s.Leaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, "Ana", scores[0].Name)
	require.Equal(t, 66.67, scores[0].Percentage)
}

type option func(c *quiz.Config)

func withEventBus(eb *event.Bus) option {
	return func(c *quiz.Config) {
		c.EventBus = eb
	}
}

func makeService(t *testing.T, opts ...option) (*quiz.Service, *store.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	t.Cleanup(func() { rc.Close() })
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	st := store.New(store.Config{Redis: rc, Prefix: "test"})

	c := quiz.Config{Store: st}
	for _, opt := range opts {
		opt(&c)
	}

	return quiz.NewService(c), st
}
