package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ameko/fete/internal/api"
	"github.com/ameko/fete/internal/chat"
	"github.com/ameko/fete/internal/event"
	"github.com/ameko/fete/internal/gallery"
	"github.com/ameko/fete/internal/leaderboard"
	"github.com/ameko/fete/internal/memorygame"
	"github.com/ameko/fete/internal/poll"
	"github.com/ameko/fete/internal/quiz"
	"github.com/ameko/fete/internal/store"
	"github.com/ameko/fete/internal/telemetry"
	"github.com/ameko/fete/internal/user"
	"github.com/ameko/fete/internal/wish"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Redis struct {
		Store struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Party struct {
		// Celebrant is the default honoree name templated into chat replies.
		Celebrant string
		// Date is the party day in YYYY-MM-DD, the countdown target.
		Date string
	}
}

type Server struct {
	c Config

	eb *event.Bus

	partyDate time.Time

	infra struct {
		redis redis.UniversalClient
		store *store.Client
	}

	service struct {
		users       *user.Service
		chat        *chat.Service
		wishes      *wish.Service
		leaderboard *leaderboard.Service
		polls       *poll.Service
		memoryGame  *memorygame.Service
		gallery     *gallery.Service
		quiz        *quiz.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}
	s.applyDefaults()

	var err error
	s.partyDate, err = time.Parse("2006-01-02", s.c.Party.Date)
	if err != nil {
		return nil, fmt.Errorf("server: parse party date %q: %w", s.c.Party.Date, err)
	}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) applyDefaults() {
	if s.c.HTTP.Port == 0 {
		s.c.HTTP.Port = 8080
	}
	if s.c.Redis.Store.Prefix == "" {
		s.c.Redis.Store.Prefix = "fete"
	}
	if s.c.Party.Celebrant == "" {
		s.c.Party.Celebrant = "Junior"
	}
	if s.c.Party.Date == "" {
		s.c.Party.Date = "2024-12-25"
	}
}

func (s *Server) initInfra() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Redis.Store.Addrs,
		Password: s.c.Redis.Store.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	s.infra.redis = r
	s.infra.store = store.New(store.Config{
		Redis:  r,
		Prefix: s.c.Redis.Store.Prefix,
	})

	return nil
}

func (s *Server) initService() {
	s.service.users = user.NewService(user.Config{
		Store: s.infra.store,
	})

	s.service.chat = chat.NewService(chat.Config{
		Users:     s.service.users,
		EventBus:  s.eb,
		Celebrant: s.c.Party.Celebrant,
		PartyDate: s.partyDate,
	})

	s.service.wishes = wish.NewService(wish.Config{
		Store:    s.infra.store,
		EventBus: s.eb,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		Store: s.infra.store,
		Users: s.service.users,
	})

	s.service.polls = poll.NewService(poll.Config{
		Store:     s.infra.store,
		Users:     s.service.users,
		Celebrant: s.c.Party.Celebrant,
	})

	s.service.memoryGame = memorygame.NewService(memorygame.Config{
		Store: s.infra.store,
		Users: s.service.users,
	})

	s.service.gallery = gallery.NewService(gallery.Config{
		Store: s.infra.store,
	})

	s.service.quiz = quiz.NewService(quiz.Config{
		Store:    s.infra.store,
		EventBus: s.eb,
	})

	telemetry.ObserveBus(s.eb)
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	api.New(api.Config{
		Engine:      e,
		Chat:        s.service.chat,
		Wishes:      s.service.wishes,
		Leaderboard: s.service.leaderboard,
		Polls:       s.service.polls,
		MemoryGame:  s.service.memoryGame,
		Gallery:     s.service.gallery,
		Quiz:        s.service.quiz,
		PartyDate:   s.partyDate,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if err := s.infra.redis.Close(); err != nil {
		slog.ErrorContext(ctx, "server: close redis failed", "error", err)
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
