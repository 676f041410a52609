package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Luismorlan/feedsim/audit"
	"github.com/Luismorlan/feedsim/clock"
	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	"github.com/Luismorlan/feedsim/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	store  *store.GormStore
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	st := store.NewGormStore(utils.CreateTempDB(t))
	router := gin.New()
	NewServer(st, clock.NewStoreClock(st), audit.NewStoreLog(st)).RegisterRoutes(router)
	return &testServer{t: t, store: st, router: router}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.Nil(s.t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

// call posts body to path, asserts the status and decodes the answer into res.
func (s *testServer) call(path string, body interface{}, code int, res interface{}) {
	s.t.Helper()
	w := s.do(http.MethodPost, path, body)
	require.Equal(s.t, code, w.Code, w.Body.String())
	if res != nil {
		require.Nil(s.t, json.Unmarshal(w.Body.Bytes(), res))
	}
}

func (s *testServer) register(name string, interests ...string) int64 {
	s.t.Helper()
	var res struct {
		Id int64 `json:"id"`
	}
	s.call("/register", gin.H{
		"username":  name,
		"email":     name + "@feedsim.io",
		"password":  "secret",
		"age":       30,
		"leaning":   "left",
		"interests": interests,
	}, http.StatusOK, &res)
	return res.Id
}

func (s *testServer) publish(author int64, text string) int64 {
	s.t.Helper()
	var res struct {
		PostID int64 `json:"post_id"`
	}
	s.call("/post", gin.H{"user_id": author, "text": text, "tid": 1}, http.StatusOK, &res)
	return res.PostID
}

func TestLenientParsing(t *testing.T) {
	id := lenientId(json.RawMessage(`12`))
	require.NotNil(t, id)
	assert.Equal(t, int64(12), *id)

	id = lenientId(json.RawMessage(`"7"`))
	require.NotNil(t, id)
	assert.Equal(t, int64(7), *id)

	assert.Nil(t, lenientId(json.RawMessage(`"abc"`)))
	assert.Nil(t, lenientId(json.RawMessage(`null`)))
	assert.Nil(t, lenientId(nil))
	assert.Nil(t, lenientId(json.RawMessage(`{}`)))

	assert.Equal(t, 0.5, lenientFloat(json.RawMessage(`0.5`), 1))
	assert.Equal(t, 0.25, lenientFloat(json.RawMessage(`"0.25"`), 1))
	assert.Equal(t, 1.0, lenientFloat(json.RawMessage(`"half"`), 1))
	assert.Equal(t, 1.0, lenientFloat(nil, 1))

	assert.True(t, present(json.RawMessage(`true`)))
	assert.True(t, present(json.RawMessage(`""`)))
	assert.False(t, present(json.RawMessage(`false`)))
	assert.False(t, present(json.RawMessage(`null`)))
	assert.False(t, present(nil))
}

func TestReadServesOtherUsersPosts(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	p1 := s.publish(alice, "first")
	p2 := s.publish(alice, "second")
	s.publish(bob, "mine")

	var ids []int64
	s.call("/read", gin.H{
		"uid":               strconv.FormatInt(bob, 10),
		"limit":             10,
		"mode":              "rchrono",
		"visibility_rounds": 10,
	}, http.StatusOK, &ids)
	assert.Equal(t, []int64{p2, p1}, ids)

	var history []audit.FeedServed
	s.call("/recommendations", gin.H{"user_id": bob}, http.StatusOK, &history)
	require.Len(t, history, 1)
	assert.Equal(t, ids, history[0].PostIds)
	require.NotNil(t, history[0].UserID)
	assert.Equal(t, bob, *history[0].UserID)
}

func TestReadEmptyFeed(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/read", gin.H{"uid": "nobody", "limit": 5, "mode": "unknown"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/read", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimeRoutes(t *testing.T) {
	s := newTestServer(t)

	var round model.Round
	w := s.do(http.MethodGet, "/current_time", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &round))
	assert.Equal(t, 0, round.Day)
	assert.Equal(t, 0, round.Hour)
	first := round.Id

	s.call("/update_time", gin.H{"day": 0, "round": 1}, http.StatusOK, &round)
	assert.Equal(t, first+1, round.Id)
	assert.Equal(t, 1, round.Hour)

	w = s.do(http.MethodGet, "/current_time", nil)
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &round))
	assert.Equal(t, first+1, round.Id)
}

func TestFollowAndFollowers(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	var res struct {
		Status  int  `json:"status"`
		Applied bool `json:"applied"`
	}
	s.call("/follow", gin.H{"user_id": alice, "target": bob, "action": "follow", "tid": 3}, http.StatusOK, &res)
	assert.Equal(t, 200, res.Status)
	assert.True(t, res.Applied)

	s.call("/follow", gin.H{"user_id": alice, "target": bob, "action": "follow", "tid": 4}, http.StatusOK, &res)
	assert.False(t, res.Applied)

	var followers []followerView
	s.call("/followers", gin.H{"user_id": alice}, http.StatusOK, &followers)
	assert.Equal(t, []followerView{{UserID: bob, Username: "bob", Since: 3}}, followers)

	s.call("/follow", gin.H{"user_id": alice, "target": bob, "action": "unfollow", "tid": 5}, http.StatusOK, &res)
	assert.True(t, res.Applied)
	s.call("/followers", gin.H{"user_id": alice}, http.StatusOK, &followers)
	assert.Empty(t, followers)
}

func TestFollowRejectsUnknownUsersAndActions(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	s.call("/follow", gin.H{"user_id": alice, "target": 999, "action": "follow"}, http.StatusNotFound, nil)
	s.call("/follow", gin.H{"user_id": alice, "target": bob, "action": "block"}, http.StatusBadRequest, nil)
}

func TestFollowSuggestions(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	s.register("bob")
	s.register("carol")

	var weights map[string]float64
	s.call("/follow_suggestions", gin.H{"user_id": alice, "n_neighbors": 3, "leaning_biased": 1, "mode": "random"},
		http.StatusOK, &weights)
	require.NotEmpty(t, weights)
	sum := 0.0
	for id, w := range weights {
		_, err := strconv.ParseInt(id, 10, 64)
		assert.Nil(t, err)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	s.call("/follow_suggestions", gin.H{"user_id": 999, "n_neighbors": 3, "mode": "jaccard"}, http.StatusNotFound, nil)
}

func TestContentRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	root := s.publish(alice, "hello @bob")

	var res struct {
		PostID int64 `json:"post_id"`
	}
	s.call("/comment", gin.H{"user_id": bob, "text": "hi", "tid": 1, "post_id": root}, http.StatusOK, &res)
	comment, err := s.store.PostByID(context.Background(), res.PostID)
	require.Nil(t, err)
	assert.Equal(t, root, comment.CommentTo)
	assert.Equal(t, root, comment.ThreadID)

	s.call("/share", gin.H{"user_id": bob, "text": "look", "tid": 1, "post_id": root}, http.StatusOK, &res)
	shared, err := s.store.PostByID(context.Background(), res.PostID)
	require.Nil(t, err)
	assert.Equal(t, root, shared.SharedFrom)

	s.call("/comment", gin.H{"user_id": bob, "text": "hi", "post_id": 999}, http.StatusNotFound, nil)

	s.call("/reaction", gin.H{"user_id": bob, "post_id": root, "type": "like", "tid": 1}, http.StatusOK, nil)
	s.call("/reaction", gin.H{"user_id": bob, "post_id": root, "type": "love", "tid": 1}, http.StatusBadRequest, nil)
	post, err := s.store.PostByID(context.Background(), root)
	require.Nil(t, err)
	assert.Equal(t, 1, post.ReactionCount)
}

func TestNewsRoute(t *testing.T) {
	s := newTestServer(t)
	page := s.register("dailynews")
	s.publish(page, "plain post")

	var res struct {
		ArticleID int64  `json:"article_id"`
		PostID    *int64 `json:"post_id"`
	}
	s.call("/news", gin.H{
		"user_id":    page,
		"tweet":      "breaking",
		"tid":        1,
		"title":      "Budget vote",
		"link":       "https://example.org/budget",
		"publisher":  "Example Daily",
		"rss":        "https://example.org/rss",
		"fetched_on": 1700000000,
		"topics":     []string{"economy"},
	}, http.StatusOK, &res)
	require.NotNil(t, res.PostID)
	assert.NotZero(t, res.ArticleID)

	post, err := s.store.PostByID(context.Background(), *res.PostID)
	require.Nil(t, err)
	require.NotNil(t, post.NewsID)
	assert.Equal(t, res.ArticleID, *post.NewsID)

	var ids []int64
	s.call("/read", gin.H{
		"uid":               "nobody",
		"limit":             10,
		"mode":              "rchrono",
		"visibility_rounds": 10,
		"article":           true,
	}, http.StatusOK, &ids)
	assert.Equal(t, []int64{*res.PostID}, ids)

	s.call("/news", gin.H{"user_id": 999, "tweet": "ghost", "link": "https://example.org/ghost"}, http.StatusNotFound, nil)
}

func TestReadMentions(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	s.call("/read_mentions", gin.H{"uid": bob, "visibility_rounds": 10}, http.StatusNotFound, nil)

	var res struct {
		PostID int64 `json:"post_id"`
	}
	s.call("/post", gin.H{"user_id": alice, "text": "ping @bob", "tid": 1, "mentions": []string{"@bob"}},
		http.StatusOK, &res)

	var ids []int64
	s.call("/read_mentions", gin.H{"uid": bob, "visibility_rounds": 10}, http.StatusOK, &ids)
	assert.Equal(t, []int64{res.PostID}, ids)

	s.call("/read_mentions", gin.H{"uid": bob, "visibility_rounds": 10}, http.StatusNotFound, nil)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.register("alice", "sport", "music", "sport")
	assert.Equal(t, id, s.register("alice"))

	var profile userProfile
	s.call("/get_user", gin.H{"username": "alice", "email": "alice@feedsim.io"}, http.StatusOK, &profile)
	assert.Equal(t, id, profile.Id)
	assert.Equal(t, 30, profile.Age)
	assert.Equal(t, "left", profile.Leaning)
	assert.Equal(t, []string{"music", "sport"}, profile.Interests)

	s.call("/update_user", gin.H{
		"username":     "alice",
		"email":        "alice@feedsim.io",
		"recsys_type":  "common_interests",
		"frecsys_type": "",
	}, http.StatusOK, nil)
	s.call("/get_user", gin.H{"username": "alice", "email": "alice@feedsim.io"}, http.StatusOK, &profile)
	assert.Equal(t, "common_interests", profile.RecsysType)
	assert.Equal(t, "default", profile.FrecsysType)

	s.call("/get_user", gin.H{"username": "alice", "email": "other@feedsim.io"}, http.StatusNotFound, nil)
	s.call("/update_user", gin.H{"username": "ghost", "recsys_type": "random"}, http.StatusNotFound, nil)
}
