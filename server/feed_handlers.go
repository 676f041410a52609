package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Luismorlan/feedsim/audit"
	"github.com/Luismorlan/feedsim/feed"
	"github.com/Luismorlan/feedsim/model"
	"github.com/gin-gonic/gin"
)

type readRequest struct {
	Uid              json.RawMessage `json:"uid"`
	Limit            int             `json:"limit"`
	Mode             string          `json:"mode"`
	VisibilityRounds int64           `json:"visibility_rounds"`
	FollowersRatio   json.RawMessage `json:"followers_ratio"`
	Article          json.RawMessage `json:"article"`
}

type windowRequest struct {
	Uid              json.RawMessage `json:"uid"`
	VisibilityRounds int64           `json:"visibility_rounds"`
}

type suggestionRequest struct {
	UserID        int64  `json:"user_id"`
	NNeighbors    int    `json:"n_neighbors"`
	LeaningBiased int    `json:"leaning_biased"`
	Mode          string `json:"mode"`
}

func (s *Server) read(c *gin.Context) {
	var req readRequest
	if !bind(c, &req) {
		return
	}
	ids, err := s.feed.Select(c.Request.Context(), feed.Request{
		UserID:           lenientId(req.Uid),
		Strategy:         model.ParseFeedStrategy(req.Mode),
		Limit:            req.Limit,
		VisibilityRounds: req.VisibilityRounds,
		FollowersRatio:   lenientFloat(req.FollowersRatio, defaultFollowersRatio),
		ArticlesOnly:     present(req.Article),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(ids))
}

func (s *Server) search(c *gin.Context) {
	var req windowRequest
	if !bind(c, &req) {
		return
	}
	uid := lenientId(req.Uid)
	if uid == nil {
		c.JSON(http.StatusOK, []int64{})
		return
	}
	ids, err := s.feed.Search(c.Request.Context(), *uid, req.VisibilityRounds)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(ids))
}

// readMentions answers 404 when the user has no pending mention.
func (s *Server) readMentions(c *gin.Context) {
	var req windowRequest
	if !bind(c, &req) {
		return
	}
	uid := lenientId(req.Uid)
	if uid == nil {
		c.JSON(http.StatusOK, []int64{})
		return
	}
	ids, err := s.feed.ReadMention(c.Request.Context(), *uid, req.VisibilityRounds)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ids)
}

// followSuggestions answers a JSON object from candidate id to probability.
func (s *Server) followSuggestions(c *gin.Context) {
	var req suggestionRequest
	if !bind(c, &req) {
		return
	}
	weights, err := s.predictor.Suggest(c.Request.Context(), req.UserID, req.NNeighbors,
		req.LeaningBiased, model.ParseFollowStrategy(req.Mode))
	if err != nil {
		fail(c, err)
		return
	}
	res := make(map[string]float64, len(weights))
	for id, w := range weights {
		res[strconv.FormatInt(id, 10)] = w
	}
	c.JSON(http.StatusOK, res)
}

type historyRequest struct {
	UserID int64 `json:"user_id"`
}

// recommendations lists the feeds already served to user_id, oldest first.
func (s *Server) recommendations(c *gin.Context) {
	var req historyRequest
	if !bind(c, &req) {
		return
	}
	history, err := audit.History(c.Request.Context(), s.store, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
