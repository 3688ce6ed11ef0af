// Package memorygame tracks best completion times for the memory game.
// Lower is better; only strictly lower times overwrite.
package memorygame

import (
	"context"
	"encoding/json"

	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/sanitize"
	"github.com/ameko/fete/internal/store"
	"github.com/ameko/fete/internal/user"
)

const collection = "games/memory"

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

type record struct {
	BestTimeMs int `json:"best_time_ms"`
}

type Snapshot struct {
	// UserBestMs is nil when the guest has no recorded time (or no name was
	// given); GlobalBestMs is nil when nobody has played yet.
	UserBestMs   *int
	GlobalBestMs *int
}

// Get returns the named guest's best time and the global best.
func (s *Service) Get(ctx context.Context, name string) (*Snapshot, error) {
	snap := &Snapshot{}

	if name = sanitize.Clean(name, 40); name != "" {
		u, err := s.users.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}

		var r record
		err = s.store.Get(ctx, collection+"/"+u.ID, &r)
		if err != nil && !errors.Is(err, errors.CodeNotFound) {
			return nil, err
		}
		if err == nil && r.BestTimeMs > 0 {
			snap.UserBestMs = &r.BestTimeMs
		}
	}

	docs, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	for _, raw := range docs {
		var r record
		if err := json.Unmarshal(raw, &r); err != nil || r.BestTimeMs <= 0 {
			continue
		}
		if snap.GlobalBestMs == nil || r.BestTimeMs < *snap.GlobalBestMs {
			best := r.BestTimeMs
			snap.GlobalBestMs = &best
		}
	}

	return snap, nil
}

type SubmitRequest struct {
	Name       string
	BestTimeMs int
}

// Submit stores a new time when it beats the guest's current best, and
// returns whichever time remains on record.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (int, error) {
	name := sanitize.Clean(req.Name, 40)
	if name == "" || req.BestTimeMs <= 0 {
		return 0, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("name and best_time_ms required"))
	}

	u, err := s.users.GetOrCreate(ctx, name)
	if err != nil {
		return 0, err
	}

	path := collection + "/" + u.ID

	var cur record
	err = s.store.Get(ctx, path, &cur)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return 0, err
	}

	if cur.BestTimeMs <= 0 || req.BestTimeMs < cur.BestTimeMs {
		if err := s.store.Set(ctx, path, record{BestTimeMs: req.BestTimeMs}); err != nil {
			return 0, err
		}
		return req.BestTimeMs, nil
	}

	return cur.BestTimeMs, nil
}
