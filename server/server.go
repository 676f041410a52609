// Package server exposes the simulation over JSON HTTP routes. Handlers only
// parse requests and map errors to status codes, the ranking and writing
// logic lives in feed, linkpred, graph and publisher.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Luismorlan/feedsim/audit"
	"github.com/Luismorlan/feedsim/clock"
	"github.com/Luismorlan/feedsim/feed"
	"github.com/Luismorlan/feedsim/graph"
	"github.com/Luismorlan/feedsim/linkpred"
	"github.com/Luismorlan/feedsim/publisher"
	"github.com/Luismorlan/feedsim/server/middlewares"
	"github.com/Luismorlan/feedsim/store"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	defaultFollowersRatio = 1.0
)

// Server wires the domain components behind the HTTP routes.
type Server struct {
	store     *store.GormStore
	clock     clock.Service
	graph     *graph.Accessor
	feed      *feed.Selector
	predictor *linkpred.Predictor
	publisher *publisher.Publisher
}

// NewServer builds every component on top of st. Served feeds are recorded
// through log.
func NewServer(st *store.GormStore, clk clock.Service, log audit.Log) *Server {
	g := graph.NewAccessor(st)
	return &Server{
		store:     st,
		clock:     clk,
		graph:     g,
		feed:      feed.NewSelector(st, clk, g, log),
		predictor: linkpred.NewPredictor(st, g),
		publisher: publisher.NewPublisher(st),
	}
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.POST("/read", s.read)
	r.POST("/search", s.search)
	r.POST("/read_mentions", s.readMentions)
	r.POST("/follow_suggestions", s.followSuggestions)
	r.POST("/recommendations", s.recommendations)

	r.GET("/current_time", s.currentTime)
	r.POST("/update_time", s.updateTime)

	r.POST("/follow", s.follow)
	r.POST("/followers", s.followers)

	r.POST("/reaction", s.reaction)
	r.POST("/post", s.post)
	r.POST("/comment", s.comment)
	r.POST("/share", s.share)
	r.POST("/news", s.news)

	r.POST("/register", s.register)
	r.POST("/get_user", s.getUser)
	r.POST("/update_user", s.updateUser)
}

// ok acknowledges a write.
func ok(c *gin.Context, extra gin.H) {
	body := gin.H{"status": http.StatusOK}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func abort(c *gin.Context, code int, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"status": code, "msg": err.Error()})
}

// fail maps a domain error to its status code.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		abort(c, http.StatusNotFound, err)
	case errors.Is(err, graph.ErrInvalidAction):
		abort(c, http.StatusBadRequest, err)
	default:
		middlewares.Logger(c).WithError(err).Error("request failed")
		abort(c, http.StatusInternalServerError, err)
	}
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abort(c, http.StatusBadRequest, errors.Wrap(err, "malformed request body"))
		return false
	}
	return true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// lenientId accepts a JSON number or a numeric string. Anything else means
// no user.
func lenientId(raw json.RawMessage) *int64 {
	if isNull(raw) {
		return nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return &id
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// lenientFloat accepts a JSON number or a numeric string, returning def for
// anything else.
func lenientFloat(raw json.RawMessage, def float64) float64 {
	if isNull(raw) {
		return def
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return def
	}
	return f
}

// present reports a flag that counts as set whenever the key is sent, unless
// its value is false or null.
func present(raw json.RawMessage) bool {
	return !isNull(raw) && string(raw) != "false"
}
