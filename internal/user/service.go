// Package user is the directory mapping display names to guest records.
package user

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/store"
)

const (
	collection = "users"
	nameIndex  = "users:byname"
)

type Config struct {
	Store *store.Client
}

// Service resolves display names to stable user ids. Names are the only key
// guests have, so two people typing the same name share one record; that is
// an accepted limitation, not something the directory tries to fix.
type Service struct {
	store *store.Client
}

func NewService(c Config) *Service {
	return &Service{
		store: c.Store,
	}
}

// FindByName resolves a name through the byname index, falling back to a
// linear scan for records other writers pushed without indexing. When
// duplicates exist the scan returns the first match in store iteration
// order, which is not guaranteed to be stable.
func (s *Service) FindByName(ctx context.Context, name string) (*domain.User, error) {
	id, err := s.store.GetIndex(ctx, nameIndex, name)
	if err == nil {
		return s.get(ctx, id)
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	docs, err := s.store.Children(ctx, collection)
	if err != nil {
		return nil, err
	}

	for id, raw := range docs {
		var u domain.User
		if err := json.Unmarshal(raw, &u); err != nil {
			continue
		}
		if u.Name == name {
			u.ID = id
			return &u, nil
		}
	}

	return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("user: no record for %q", name))
}

// Create registers a fresh record for name at the first quiz step. The byname
// index claim is atomic: when two creates race, the loser discards its record
// and returns the winner's.
func (s *Service) Create(ctx context.Context, name string) (*domain.User, error) {
	u := domain.User{
		Name:      name,
		Step:      domain.StepQuizQ1,
		Score:     0,
		CreatedAt: domain.Timestamp(time.Now()),
	}

	id, err := s.store.Push(ctx, collection, u)
	if err != nil {
		return nil, err
	}

	claimed, err := s.store.SetIndexNX(ctx, nameIndex, name, id)
	if err != nil {
		return nil, err
	}

	if !claimed {
		// Lost the race; the indexed record is the identity everyone else
		// will resolve, so drop ours and use it.
		if err := s.store.Delete(ctx, collection+"/"+id); err != nil {
			return nil, err
		}
		return s.FindByName(ctx, name)
	}

	u.ID = id
	return &u, nil
}

// GetOrCreate is the single entry point feature modules use to turn a name
// into a stable identity.
func (s *Service) GetOrCreate(ctx context.Context, name string) (*domain.User, error) {
	u, err := s.FindByName(ctx, name)
	if errors.Is(err, errors.CodeNotFound) {
		return s.Create(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Update merges fields into the user record. Partial and non-transactional.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) error {
	return s.store.Merge(ctx, collection+"/"+id, fields)
}

func (s *Service) get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := s.store.Get(ctx, collection+"/"+id, &u); err != nil {
		return nil, err
	}

	u.ID = id
	return &u, nil
}
