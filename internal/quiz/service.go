// Package quiz manages the standalone quiz: a question bank, recorded
// attempts, and a percentage-based leaderboard. Chat quiz passes also land
// here through the quiz-completed event.
package quiz

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/event"
	"github.com/ameko/fete/internal/sanitize"
	"github.com/ameko/fete/internal/store"
)

const (
	questionsPath = "quiz/questions"
	scoresPath    = "quiz/scores"

	optionsPerQuestion = 4
	leaderboardSize    = 10
)

type Config struct {
	Store    *store.Client
	EventBus *event.Bus
}

type Service struct {
	store *store.Client
}

func NewService(c Config) *Service {
	s := &Service{
		store: c.Store,
	}

	if c.EventBus != nil {
		c.EventBus.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
			done := e.(domain.EventQuizCompleted)
			_, err := s.RecordScore(ctx, RecordScoreRequest{
				Name:  done.Username,
				Score: done.Score,
				Total: done.Total,
			})
			return err
		})
	}

	return s
}

type Question struct {
	ID            string   `json:"id,omitempty"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	CreatedAt     string   `json:"created_at"`
}

func (s *Service) ListQuestions(ctx context.Context) ([]Question, error) {
	docs, err := s.store.Children(ctx, questionsPath)
	if err != nil {
		return nil, err
	}

	questions := make([]Question, 0, len(docs))
	for id, raw := range docs {
		var q Question
		if err := json.Unmarshal(raw, &q); err != nil {
			continue
		}
		q.ID = id
		questions = append(questions, q)
	}

	sort.Slice(questions, func(i, j int) bool {
		return questions[i].CreatedAt < questions[j].CreatedAt
	})

	return questions, nil
}

type AddQuestionRequest struct {
	Question      string
	Options       []string
	CorrectAnswer int
}

// AddQuestion stores a new bank question; exactly four options are required.
func (s *Service) AddQuestion(ctx context.Context, req AddQuestionRequest) (string, error) {
	question := sanitize.Clean(req.Question, 200)

	options := make([]string, 0, len(req.Options))
	for _, opt := range req.Options {
		options = append(options, sanitize.Clean(opt, 100))
	}

	if question == "" || len(options) != optionsPerQuestion {
		return "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("Question et 4 options requises"))
	}

	return s.store.Push(ctx, questionsPath, Question{
		Question:      question,
		Options:       options,
		CorrectAnswer: req.CorrectAnswer,
		CreatedAt:     domain.Timestamp(time.Now()),
	})
}

func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	return s.store.Delete(ctx, questionsPath+"/"+id)
}

type Score struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	CreatedAt  string  `json:"created_at"`
}

type RecordScoreRequest struct {
	Name  string
	Score int
	Total int
}

// RecordScore stores one quiz attempt. The percentage is computed with
// decimal arithmetic and rounded to two places so leaderboard ordering does
// not hinge on float artifacts.
func (s *Service) RecordScore(ctx context.Context, req RecordScoreRequest) (string, error) {
	name := sanitize.Clean(req.Name, 40)
	if name == "" {
		return "", errors.New(errors.CodeInvalidArgument, errors.WithMessagef("Name required"))
	}

	var percentage float64
	if req.Total > 0 {
		percentage = decimal.NewFromInt(int64(req.Score)).
			Div(decimal.NewFromInt(int64(req.Total))).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			InexactFloat64()
	}

	return s.store.Push(ctx, scoresPath, Score{
		Name:       name,
		Score:      req.Score,
		Total:      req.Total,
		Percentage: percentage,
		CreatedAt:  domain.Timestamp(time.Now()),
	})
}

// Leaderboard returns the best attempts by percentage, capped at 10.
func (s *Service) Leaderboard(ctx context.Context) ([]Score, error) {
	docs, err := s.store.Children(ctx, scoresPath)
	if err != nil {
		return nil, err
	}

	scores := make([]Score, 0, len(docs))
	for id, raw := range docs {
		var sc Score
		if err := json.Unmarshal(raw, &sc); err != nil {
			continue
		}
		sc.ID = id
		scores = append(scores, sc)
	}

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Percentage > scores[j].Percentage
	})

	if len(scores) > leaderboardSize {
		scores = scores[:leaderboardSize]
	}

	return scores, nil
}
