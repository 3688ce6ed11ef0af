// Package api is the HTTP JSON surface: informal REST over gin, CORS-open,
// flat {error: ...} bodies on failure.
package api

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ameko/fete/internal/chat"
	"github.com/ameko/fete/internal/errors"
	"github.com/ameko/fete/internal/gallery"
	"github.com/ameko/fete/internal/leaderboard"
	"github.com/ameko/fete/internal/memorygame"
	"github.com/ameko/fete/internal/poll"
	"github.com/ameko/fete/internal/quiz"
	"github.com/ameko/fete/internal/wish"
)

type Config struct {
	Engine *gin.Engine

	Chat        *chat.Service
	Wishes      *wish.Service
	Leaderboard *leaderboard.Service
	Polls       *poll.Service
	MemoryGame  *memorygame.Service
	Gallery     *gallery.Service
	Quiz        *quiz.Service

	// PartyDate is the countdown target. Now is injectable for tests.
	PartyDate time.Time
	Now       func() time.Time
}

type API struct {
	chat        *chat.Service
	wishes      *wish.Service
	leaderboard *leaderboard.Service
	polls       *poll.Service
	memoryGame  *memorygame.Service
	gallery     *gallery.Service
	quiz        *quiz.Service

	partyDate time.Time
	now       func() time.Time
}

func New(c Config) *API {
	a := &API{
		chat:        c.Chat,
		wishes:      c.Wishes,
		leaderboard: c.Leaderboard,
		polls:       c.Polls,
		memoryGame:  c.MemoryGame,
		gallery:     c.Gallery,
		quiz:        c.Quiz,
		partyDate:   c.PartyDate,
		now:         c.Now,
	}

	if a.now == nil {
		a.now = time.Now
	}

	e := c.Engine
	e.Use(CORS())

	e.GET("/health", a.health)

	e.GET("/wishes", a.listWishes)
	e.POST("/wishes", a.addWish)
	e.POST("/wishes/heart", a.heartWish)

	e.POST("/leaderboard/score", a.addScore)
	e.GET("/leaderboard/top", a.topScores)

	e.GET("/polls/:id", a.getPoll)
	e.POST("/polls/:id", a.postPoll)

	e.GET("/games/memory/best", a.memoryBest)
	e.POST("/games/memory/best", a.memorySubmit)

	e.GET("/gallery", a.listPhotos)
	e.POST("/gallery", a.uploadPhoto)

	e.GET("/countdown", a.countdown)

	e.POST("/message", a.message)

	e.GET("/quiz/questions", a.listQuestions)
	e.POST("/quiz/questions", a.addQuestion)
	e.DELETE("/quiz/questions/:id", a.deleteQuestion)
	e.POST("/quiz/score", a.recordScore)
	e.GET("/quiz/leaderboard", a.quizLeaderboard)

	return a
}

// renderError maps coded errors to their HTTP status; anything unrecognized
// is a 500 with the raw message.
func renderError(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.JSON(e.HTTPStatusCode(), gin.H{"error": e.Message})
}

// bind decodes the JSON body into req, treating malformed or missing bodies
// as the zero request. Validation belongs to the services.
func bind(c *gin.Context, req any) {
	_ = c.ShouldBindJSON(req)
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": a.now().UTC().Format(time.RFC3339),
	})
}

func (a *API) listWishes(c *gin.Context) {
	wishes, err := a.wishes.List(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wishes": wishes})
}

func (a *API) addWish(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	bind(c, &req)

	if _, err := a.wishes.Add(c.Request.Context(), wish.AddRequest{
		Name:    req.Name,
		Message: req.Message,
	}); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) heartWish(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	bind(c, &req)

	hearts, err := a.wishes.Heart(c.Request.Context(), req.ID)
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "hearts": hearts})
}

func (a *API) addScore(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Delta int    `json:"delta"`
	}
	bind(c, &req)

	entry, err := a.leaderboard.AddScore(c.Request.Context(), leaderboard.AddScoreRequest{
		Name:  req.Name,
		Delta: req.Delta,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "entry": entry})
}

func (a *API) topScores(c *gin.Context) {
	top, err := a.leaderboard.Top(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"top": top})
}

func (a *API) getPoll(c *gin.Context) {
	p, err := a.polls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"poll": p})
}

func (a *API) postPoll(c *gin.Context) {
	var req struct {
		Action   string   `json:"action"`
		Question string   `json:"question"`
		Options  []string `json:"options"`
		Name     string   `json:"name"`
		OptionID string   `json:"option_id"`
	}
	bind(c, &req)

	switch req.Action {
	case "create":
		if err := a.polls.Create(c.Request.Context(), c.Param("id"), poll.CreateRequest{
			Question: req.Question,
			Options:  req.Options,
		}); err != nil {
			renderError(c, err)
			return
		}
	case "vote":
		if err := a.polls.Vote(c.Request.Context(), c.Param("id"), poll.VoteRequest{
			Name:     req.Name,
			OptionID: req.OptionID,
		}); err != nil {
			renderError(c, err)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) memoryBest(c *gin.Context) {
	snap, err := a.memoryGame.Get(c.Request.Context(), c.Query("name"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"user_best_ms":   snap.UserBestMs,
		"global_best_ms": snap.GlobalBestMs,
	})
}

func (a *API) memorySubmit(c *gin.Context) {
	var req struct {
		Name       string `json:"name"`
		BestTimeMs int    `json:"best_time_ms"`
	}
	bind(c, &req)

	best, err := a.memoryGame.Submit(c.Request.Context(), memorygame.SubmitRequest{
		Name:       req.Name,
		BestTimeMs: req.BestTimeMs,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "best_time_ms": best})
}

func (a *API) listPhotos(c *gin.Context) {
	photos, err := a.gallery.List(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

func (a *API) uploadPhoto(c *gin.Context) {
	var req struct {
		Image   string `json:"image"`
		Caption string `json:"caption"`
		Name    string `json:"name"`
	}
	bind(c, &req)

	id, err := a.gallery.Upload(c.Request.Context(), gallery.UploadRequest{
		Image:   req.Image,
		Caption: req.Caption,
		Name:    req.Name,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "photo_id": id})
}

func (a *API) countdown(c *gin.Context) {
	diff := a.partyDate.Sub(a.now())

	if diff <= 0 {
		c.JSON(http.StatusOK, gin.H{
			"active":  false,
			"message": "🎉 C'est l'anniversaire aujourd'hui ! 🎉",
		})
		return
	}

	totalMinutes := int(math.Floor(diff.Minutes()))
	c.JSON(http.StatusOK, gin.H{
		"active":        true,
		"days":          totalMinutes / (24 * 60),
		"hours":         totalMinutes / 60 % 24,
		"minutes":       totalMinutes % 60,
		"next_birthday": a.partyDate.UTC().Format(time.RFC3339),
	})
}

func (a *API) message(c *gin.Context) {
	var req struct {
		Text      string `json:"text"`
		Name      string `json:"name"`
		Celebrant string `json:"celebrant"`
	}
	bind(c, &req)

	resp, err := a.chat.Handle(c.Request.Context(), chat.Request{
		Text:      req.Text,
		Name:      req.Name,
		Celebrant: req.Celebrant,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replies":      resp.Replies,
		"filter_image": resp.FilterImage,
	})
}

func (a *API) listQuestions(c *gin.Context) {
	questions, err := a.quiz.ListQuestions(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (a *API) addQuestion(c *gin.Context) {
	var req struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correctAnswer"`
	}
	bind(c, &req)

	id, err := a.quiz.AddQuestion(c.Request.Context(), quiz.AddQuestionRequest{
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "question_id": id})
}

func (a *API) deleteQuestion(c *gin.Context) {
	if err := a.quiz.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) recordScore(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
		Total int    `json:"total"`
	}
	bind(c, &req)

	id, err := a.quiz.RecordScore(c.Request.Context(), quiz.RecordScoreRequest{
		Name:  req.Name,
		Score: req.Score,
		Total: req.Total,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "score_id": id})
}

func (a *API) quizLeaderboard(c *gin.Context) {
	scores, err := a.quiz.Leaderboard(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": scores})
}
