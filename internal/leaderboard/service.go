// Package leaderboard tracks the party-game leaderboard: arbitrary score
// deltas keyed by guest identity.
package leaderboard

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/sanitize"
	"github.com/ameko/fete/internal/store"
	"github.com/ameko/fete/internal/user"
)

const (
	collection = "leaderboard"
	topSize    = 10
)

type Config struct {
	Store *store.Client
	Users *user.Service
}

type Service struct {
	store *store.Client
	users *user.Service
}

func NewService(c Config) *Service {
	return &Service{
		store: c.Store,
		users: c.Users,
	}
}

type Entry struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

type AddScoreRequest struct {
	Name  string
	Delta int
}

// AddScore applies a signed delta to a guest's entry, creating guest and
// entry on first use.
func (s *Service) AddScore(ctx context.Context, req AddScoreRequest) (*Entry, error) {
	name := sanitize.Clean(req.Name, 40)
	if name == "" || req.Delta == 0 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("name and non-zero delta required"))
	}

	u, err := s.users.GetOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}

	path := collection + "/" + u.ID

	entry := Entry{Name: u.Name}
	if err := s.store.Get(ctx, path, &entry); err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	entry.Score += req.Delta
	if err := s.store.Set(ctx, path, entry); err != nil {
		return nil, err
	}

	entry.UserID = u.ID
	return &entry, nil
}

// Top returns the highest-scoring entries, capped at 10.
func (s *Service) Top(ctx context.Context) ([]Entry, error) {
	docs, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(docs))
	for id, raw := range docs {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		e.UserID = id
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if len(entries) > topSize {
		entries = entries[:topSize]
	}

	return entries, nil
}
