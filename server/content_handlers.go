package server

import (
	"net/http"

	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/publisher"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type reactionRequest struct {
	UserID int64  `json:"user_id"`
	PostID int64  `json:"post_id"`
	Type   string `json:"type"`
	Round  int64  `json:"tid"`
}

// replyRequest is a draft answering or resharing post_id.
type replyRequest struct {
	publisher.Draft
	PostID int64 `json:"post_id"`
}

func (s *Server) reaction(c *gin.Context) {
	var req reactionRequest
	if !bind(c, &req) {
		return
	}
	if req.Type != model.ReactionLike && req.Type != model.ReactionDislike {
		abort(c, http.StatusBadRequest, errors.Errorf("invalid reaction type %q", req.Type))
		return
	}
	err := s.publisher.React(c.Request.Context(), req.UserID, req.PostID, req.Type, req.Round)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (s *Server) post(c *gin.Context) {
	var req publisher.Draft
	if !bind(c, &req) {
		return
	}
	post, err := s.publisher.Post(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"post_id": post.Id})
}

func (s *Server) comment(c *gin.Context) {
	var req replyRequest
	if !bind(c, &req) {
		return
	}
	post, err := s.publisher.Comment(c.Request.Context(), req.PostID, req.Draft)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"post_id": post.Id})
}

func (s *Server) share(c *gin.Context) {
	var req replyRequest
	if !bind(c, &req) {
		return
	}
	post, err := s.publisher.Share(c.Request.Context(), req.PostID, req.Draft)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"post_id": post.Id})
}

func (s *Server) news(c *gin.Context) {
	var req publisher.NewsDraft
	if !bind(c, &req) {
		return
	}
	article, post, err := s.publisher.News(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	extra := gin.H{"article_id": article.Id}
	if post != nil {
		extra["post_id"] = post.Id
	}
	ok(c, extra)
}
