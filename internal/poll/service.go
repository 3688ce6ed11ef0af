// Package poll serves party polls with idempotent per-guest voting.
package poll

import (
	"context"
	"fmt"

	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/sanitize"
	"github.com/ameko/fete/internal/store"
	"github.com/ameko/fete/internal/user"
)

const (
	maxQuestionLen = 120
	maxLabelLen    = 60
)

type Config struct {
	Store *store.Client
	Users *user.Service

	// Celebrant is templated into the lazily-created default poll.
	Celebrant string
}

type Service struct {
	store     *store.Client
	users     *user.Service
	celebrant string
}

func NewService(c Config) *Service {
	return &Service{
		store:     c.Store,
		users:     c.Users,
		celebrant: c.Celebrant,
	}
}

type Poll struct {
	Question string            `json:"question"`
	Options  map[string]Option `json:"options"`
	Counts   map[string]int    `json:"counts,omitempty"`
}

type Option struct {
	Label string `json:"label"`
	// Votes is a presence set keyed by user id, so voting twice cannot
	// double count.
	Votes map[string]bool `json:"votes,omitempty"`
}

// Get returns a poll with per-option vote counts, creating the default cake
// poll the first time an empty id is read.
func (s *Service) Get(ctx context.Context, id string) (*Poll, error) {
	path := pollPath(id)

	var p Poll
	err := s.store.Get(ctx, path, &p)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	if len(p.Options) == 0 {
		p = Poll{
			Question: fmt.Sprintf("Quel gateau pour %s ?", s.celebrant),
			Options: map[string]Option{
				"opt1": {Label: "Choco"},
				"opt2": {Label: "Vanille"},
				"opt3": {Label: "Fraise"},
			},
		}
		if err := s.store.Set(ctx, path, p); err != nil {
			return nil, err
		}
	}

	p.Counts = make(map[string]int, len(p.Options))
	for oid, opt := range p.Options {
		p.Counts[oid] = len(opt.Votes)
	}

	return &p, nil
}

type CreateRequest struct {
	Question string
	Options  []string
}

// Create overwrites the poll with a fresh question and options labelled
// opt1..optN. Any previous votes are gone.
func (s *Service) Create(ctx context.Context, id string, req CreateRequest) error {
	p := Poll{
		Question: sanitize.Clean(req.Question, maxQuestionLen),
		Options:  make(map[string]Option, len(req.Options)),
	}

	for i, label := range req.Options {
		p.Options[fmt.Sprintf("opt%d", i+1)] = Option{
			Label: sanitize.Clean(label, maxLabelLen),
		}
	}

	return s.store.Set(ctx, pollPath(id), p)
}

type VoteRequest struct {
	Name     string
	OptionID string
}

// Vote records a presence flag for the guest under the chosen option.
// Re-voting the same option is a no-op.
func (s *Service) Vote(ctx context.Context, id string, req VoteRequest) error {
	name := sanitize.Clean(req.Name, 40)
	if name == "" || req.OptionID == "" {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("name and option_id required"))
	}

	u, err := s.users.GetOrCreate(ctx, name)
	if err != nil {
		return err
	}

	path := pollPath(id)

	var p Poll
	if err := s.store.Get(ctx, path, &p); err != nil && !errors.Is(err, errors.CodeNotFound) {
		return err
	}

	if p.Options == nil {
		p.Options = make(map[string]Option)
	}

	opt := p.Options[req.OptionID]
	if opt.Votes == nil {
		opt.Votes = make(map[string]bool)
	}
	opt.Votes[u.ID] = true
	p.Options[req.OptionID] = opt

	return s.store.Set(ctx, path, p)
}

func pollPath(id string) string {
	return "polls/" + id
}
