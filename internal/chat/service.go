// Package chat is the conversational engine behind /message: a command
// dispatcher plus a per-user quiz state machine over the user directory.
package chat

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/ameko/fete/internal/domain"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/event"
	"github.com/ameko/fete/internal/user"
)

const (
	welcomeIcon = "https://cdn-icons-png.flaticon.com/512/744/744502.png"
	candlesIcon = "https://cdn-icons-png.flaticon.com/512/4151/4151051.png"
	songLink    = "https://www.youtube.com/watch?v=90bG0HzV5MU"
)

type Config struct {
	Users    *user.Service
	EventBus *event.Bus

	// Celebrant is the default honoree name, used when a request does not
	// carry its own.
	Celebrant string
	// PartyDate is the countdown target.
	PartyDate time.Time

	// Now and PickAnecdote exist so tests can pin time and randomness.
	Now          func() time.Time
	PickAnecdote func(n int) int
}

type Service struct {
	users     *user.Service
	eb        *event.Bus
	celebrant string
	partyDate time.Time
	now       func() time.Time
	pick      func(n int) int

	commands map[string]command
}

type command func(ctx context.Context, u *domain.User, celebrant string, resp *Response) error

func NewService(c Config) *Service {
	s := &Service{
		users:     c.Users,
		eb:        c.EventBus,
		celebrant: c.Celebrant,
		partyDate: c.PartyDate,
		now:       c.Now,
		pick:      c.PickAnecdote,
	}

	if s.now == nil {
		s.now = time.Now
	}
	if s.pick == nil {
		s.pick = rand.Intn
	}

	s.commands = map[string]command{
		"rejouer":  s.replay,
		"anecdote": s.anecdote,
		"bougies":  s.candles,
		"musique":  s.song,
		"carte":    s.card,
		"galerie":  s.gallery,
		"compte":   s.countdown,
	}

	return s
}

type Request struct {
	Text      string
	Name      string
	Celebrant string
}

type Response struct {
	Replies     []string
	FilterImage *string
}

func (r *Response) say(replies ...string) {
	r.Replies = append(r.Replies, replies...)
}

// Handle runs one chat turn. Missing or malformed fields are treated as empty
// strings; the only errors returned are store failures.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	resp := &Response{Replies: []string{}}

	text := strings.TrimSpace(req.Text)
	lower := strings.ToLower(text)

	celebrant := strings.TrimSpace(req.Celebrant)
	if celebrant == "" {
		celebrant = s.celebrant
	}

	// Help works before any name is known and never touches user state.
	if lower == "aide" || lower == "help" || lower == "?" {
		resp.say(
			"Commandes disponibles :",
			"- 'anecdote' : une anecdote sur le célébré",
			"- 'bougies'  : souffler les bougies",
			"- 'musique'  : chanson d'anniversaire",
			"- 'carte'    : petit message",
			"- 'rejouer'  : recommencer le quiz",
			"- 'galerie'  : voir les photos",
			"- 'compte'   : voir le compte à rebours",
		)
		return resp, nil
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		if fields := strings.Fields(text); len(fields) > 0 {
			name = fields[0]
		}
	}
	name = capitalize(name)

	if name == "" {
		resp.say("Dis-moi ton prénom pour commencer.")
		return resp, nil
	}

	u, err := s.users.FindByName(ctx, name)
	if errors.Is(err, errors.CodeNotFound) {
		return resp, s.welcome(ctx, name, celebrant, resp)
	}
	if err != nil {
		return nil, err
	}

	if cmd, ok := s.commands[lower]; ok {
		if err := cmd(ctx, u, celebrant, resp); err != nil {
			return nil, err
		}
		s.eb.Publish(ctx, domain.EventChatCommand{Command: lower})
		return resp, nil
	}

	return resp, s.advanceQuiz(ctx, u, lower, celebrant, resp)
}

// welcome bootstraps a first-time guest: record, greeting, anecdote, and the
// opening question.
func (s *Service) welcome(ctx context.Context, name, celebrant string, resp *Response) error {
	if _, err := s.users.Create(ctx, name); err != nil {
		return err
	}

	resp.say(
		fmt.Sprintf("Bienvenue %s !", name),
		fmt.Sprintf("Joyeux anniversaire à %s !", celebrant),
		"Voici une anecdote : "+s.pickAnecdote(celebrant),
		fill(stages[domain.StepQuizQ1].ask, celebrant),
	)
	resp.FilterImage = ptr(welcomeIcon)
	return nil
}

// advanceQuiz interprets the message as the answer to the user's current
// question and moves the state machine one step forward.
func (s *Service) advanceQuiz(ctx context.Context, u *domain.User, answer, celebrant string, resp *Response) error {
	st, ok := stages[u.Step]
	if !ok {
		resp.say("Tu as déjà joué. Tape 'rejouer', 'anecdote' ou 'galerie'.")
		return nil
	}

	score := u.Score
	if answer == st.answer {
		score++
		resp.say(fill(st.right, celebrant))
	} else {
		resp.say(fill(st.wrong, celebrant))
	}

	if err := s.users.Update(ctx, u.ID, map[string]any{
		"step":  st.next,
		"score": score,
	}); err != nil {
		return err
	}

	if st.next == domain.StepDone {
		resp.say(
			fmt.Sprintf("Merci d'avoir joué %s ! Score : %d/%d", u.Name, score, quizLength),
			"Tape 'rejouer' pour recommencer ou 'aide' pour les commandes.",
		)
		s.eb.Publish(ctx, domain.EventQuizCompleted{
			Username: u.Name,
			Score:    score,
			Total:    quizLength,
		})
		return nil
	}

	resp.say(fill(stages[st.next].ask, celebrant))
	return nil
}

func (s *Service) replay(ctx context.Context, u *domain.User, celebrant string, resp *Response) error {
	if err := s.users.Update(ctx, u.ID, map[string]any{
		"step":  domain.StepQuizQ1,
		"score": 0,
	}); err != nil {
		return err
	}

	resp.say("C'est reparti !", fill(stages[domain.StepQuizQ1].ask, celebrant))
	return nil
}

func (s *Service) anecdote(_ context.Context, _ *domain.User, celebrant string, resp *Response) error {
	resp.say("Anecdote : " + s.pickAnecdote(celebrant))
	return nil
}

func (s *Service) candles(_ context.Context, _ *domain.User, _ string, resp *Response) error {
	resp.say("Soufflons les bougies ! Fais un vœu.")
	resp.FilterImage = ptr(candlesIcon)
	return nil
}

func (s *Service) song(_ context.Context, _ *domain.User, _ string, resp *Response) error {
	resp.say("Chanson d'anniversaire : " + songLink)
	return nil
}

func (s *Service) card(_ context.Context, _ *domain.User, celebrant string, resp *Response) error {
	resp.say(fmt.Sprintf("Carte pour %s : Que cette année t'apporte succès, joie et code sans bugs !", celebrant))
	return nil
}

func (s *Service) gallery(_ context.Context, _ *domain.User, _ string, resp *Response) error {
	resp.say("📸 Va dans la section 'Galerie Photo' pour voir et partager des photos !")
	return nil
}

func (s *Service) countdown(_ context.Context, _ *domain.User, _ string, resp *Response) error {
	days := int(math.Floor(s.partyDate.Sub(s.now()).Hours() / 24))
	if days > 0 {
		resp.say(fmt.Sprintf("Prochain anniversaire dans %d jours ! 🎉", days))
	} else {
		resp.say("🎉 C'est l'anniversaire aujourd'hui ! 🎉")
	}
	return nil
}

func (s *Service) pickAnecdote(celebrant string) string {
	return fill(anecdoteTemplates[s.pick(len(anecdoteTemplates))], celebrant)
}

// capitalize upper-cases the first rune and lower-cases the rest, matching
// how the app normalizes typed first names.
func capitalize(s string) string {
	if s == "" {
		return ""
	}

	r := []rune(s)
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}

func ptr(s string) *string {
	return &s
}
