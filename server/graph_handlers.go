package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type timeRequest struct {
	Day  int `json:"day"`
	Hour int `json:"round"`
}

type followRequest struct {
	UserID int64  `json:"user_id"`
	Target int64  `json:"target"`
	Action string `json:"action"`
	Round  int64  `json:"tid"`
}

type followersRequest struct {
	UserID int64 `json:"user_id"`
}

type followerView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Since    int64  `json:"since"`
}

func (s *Server) currentTime(c *gin.Context) {
	round, err := s.clock.CurrentRound(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) updateTime(c *gin.Context) {
	var req timeRequest
	if !bind(c, &req) {
		return
	}
	round, err := s.clock.Advance(c.Request.Context(), req.Day, req.Hour)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

// follow appends a follow event between two registered users. A refused
// event, e.g. following twice, is still answered with 200 and applied=false.
func (s *Server) follow(c *gin.Context) {
	var req followRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	for _, id := range []int64{req.UserID, req.Target} {
		if _, err := s.store.UserByID(ctx, id); err != nil {
			fail(c, err)
			return
		}
	}
	applied, err := s.graph.Follow(ctx, req.UserID, req.Target, req.Action, req.Round)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"applied": applied})
}

// followers lists the accounts user_id currently follows, with the round of
// the follow event still in force.
func (s *Server) followers(c *gin.Context) {
	var req followersRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	edges, err := s.graph.Following(ctx, req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	res := make([]followerView, 0, len(edges))
	for _, e := range edges {
		user, err := s.store.UserByID(ctx, e.FollowerID)
		if err != nil {
			fail(c, err)
			return
		}
		res = append(res, followerView{UserID: user.Id, Username: user.Username, Since: e.Round})
	}
	c.JSON(http.StatusOK, res)
}
