// Package wish is the wish wall: guests leave messages, everyone hearts them.
package wish

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/event"
	"github.com/ameko/fete/internal/sanitize"
	"github.com/ameko/fete/internal/store"
)

const collection = "wishes"

const (
	maxNameLen    = 40
	maxMessageLen = 2000
)

type Config struct {
	Store    *store.Client
	EventBus *event.Bus
}

type Service struct {
	store *store.Client
	eb    *event.Bus
}

func NewService(c Config) *Service {
	return &Service{
		store: c.Store,
		eb:    c.EventBus,
	}
}

type Wish struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	Hearts    int    `json:"hearts"`
	CreatedAt string `json:"created_at"`
}

// List returns all wishes, newest first.
func (s *Service) List(ctx context.Context) ([]Wish, error) {
	docs, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	wishes := make([]Wish, 0, len(docs))
	for id, raw := range docs {
		var w Wish
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		w.ID = id
		wishes = append(wishes, w)
	}

	sort.Slice(wishes, func(i, j int) bool {
		return wishes[i].CreatedAt > wishes[j].CreatedAt
	})

	return wishes, nil
}

type AddRequest struct {
	Name    string
	Message string
}

// Add posts a new wish. Both fields are required after sanitization.
func (s *Service) Add(ctx context.Context, req AddRequest) (string, error) {
	name := sanitize.Clean(req.Name, maxNameLen)
	message := sanitize.Clean(req.Message, maxMessageLen)

	if name == "" || message == "" {
		return "", errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("name and message required"))
	}

	id, err := s.store.Push(ctx, collection, Wish{
		Name:      name,
		Message:   message,
		Hearts:    0,
		CreatedAt: domain.Timestamp(time.Now()),
	})
	if err != nil {
		return "", err
	}

	s.eb.Publish(ctx, domain.EventWishAdded{Author: name})
	return id, nil
}

// Heart increments a wish's heart count and returns the new total.
// Read-modify-write: concurrent hearts can lose an increment, same as the
// original backend.
func (s *Service) Heart(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("id required"))
	}

	path := collection + "/" + id

	var w Wish
	if err := s.store.Get(ctx, path, &w); err != nil && !errors.Is(err, errors.CodeNotFound) {
		return 0, err
	}

	w.Hearts++
	if err := s.store.Set(ctx, path, w); err != nil {
		return 0, err
	}

	return w.Hearts, nil
}
