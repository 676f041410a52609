// Package feed selects the posts served to an agent by /read and /search.
//
// Every strategy shares the same visibility rule: a post is a candidate iff
// its round is at least the current round id minus the requested window.
// Strategies that mix followers with other authors split the limit with the
// followers ratio, the follower half always comes first.
package feed

import (
	"context"
	"math"

	"github.com/Luismorlan/feedsim/audit"
	"github.com/Luismorlan/feedsim/clock"
	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	. "github.com/Luismorlan/feedsim/utils/log"
	"github.com/pkg/errors"
)

const (
	// rchronoCap bounds the plain reverse chronological feed whatever the
	// requested limit.
	rchronoCap = 10
	// searchHashtags bounds the hashtags a search starts from, searchResults
	// the posts it returns.
	searchHashtags = 10
	searchResults  = 10
)

type feedStore interface {
	Posts(ctx context.Context, q store.PostQuery) ([]model.Post, error)
	PostsByTopics(ctx context.Context, topicIds []int64, q store.PostQuery) ([]store.PostMatch, error)
	ReactedPosts(ctx context.Context, userIds []int64, types []string, q store.PostQuery) ([]store.PostMatch, error)
	ThreadHeads(ctx context.Context, q store.PostQuery) ([]model.Post, error)
	UserByID(ctx context.Context, id int64) (model.User, error)
	PageIds(ctx context.Context, leaning string) ([]int64, error)
	UserInterestIds(ctx context.Context, userId int64) ([]int64, error)
	PostsReactedByPeers(ctx context.Context, userId int64, interestIds []int64, f store.PeerFilter, types []string, q store.PostQuery) ([]store.PostMatch, error)
	SimilarUsers(ctx context.Context, target model.User, limit int) ([]store.SimilarUser, error)
	RecentHashtagIds(ctx context.Context, userId int64, minRound int64, limit int) ([]int64, error)
	PostIdsWithHashtags(ctx context.Context, hashtagIds []int64, excludeUser int64, minRound int64, limit int) ([]int64, error)
	TakeMention(ctx context.Context, userId int64, minRound int64) (model.Mention, error)
}

type followerSource interface {
	CurrentFollowers(ctx context.Context, userId int64) ([]int64, error)
}

/*

Request is one feed selection.

UserID: requester, nil for an author-agnostic feed
Strategy: ranking strategy, see model.FeedStrategy
Limit: maximum number of posts, rchrono ignores it
VisibilityRounds: window in rounds, posts older than current - window are hidden
FollowersRatio: share of the limit reserved to followers, in [0, 1]. NaN and
values above 1 are treated as 1, values below 0 as 0.
ArticlesOnly: serve posts carrying an article only. With a known requester
the authors are further restricted to pages sharing its leaning.

*/
type Request struct {
	UserID           *int64
	Strategy         model.FeedStrategy
	Limit            int
	VisibilityRounds int64
	FollowersRatio   float64
	ArticlesOnly     bool
}

// Selector ranks posts. It holds no per request state and is safe for
// concurrent use.
type Selector struct {
	store     feedStore
	clock     clock.Service
	followers followerSource
	log       audit.Log
}

func NewSelector(store feedStore, clock clock.Service, followers followerSource, log audit.Log) *Selector {
	return &Selector{store: store, clock: clock, followers: followers, log: log}
}

// Select returns the ordered post ids of the feed. Groups produced by the
// strategy are concatenated without deduplication. A non-empty feed is
// recorded in the audit log with the current round.
func (s *Selector) Select(ctx context.Context, req Request) ([]int64, error) {
	round, err := s.clock.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	base, err := s.baseQuery(ctx, req, round.Id-req.VisibilityRounds)
	if err != nil {
		return nil, err
	}

	groups, err := s.dispatch(ctx, req, base)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to select %s feed", req.Strategy)
	}

	ids := flatten(groups)
	if len(ids) == 0 {
		return ids, nil
	}
	err = s.log.Record(ctx, audit.FeedServed{
		UserID:   req.UserID,
		Strategy: req.Strategy,
		PostIds:  ids,
		Round:    round.Id,
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// baseQuery is the visibility and article filter shared by every strategy.
func (s *Selector) baseQuery(ctx context.Context, req Request, visibility int64) (store.PostQuery, error) {
	q := store.PostQuery{MinRound: visibility, ArticlesOnly: req.ArticlesOnly}
	if !req.ArticlesOnly || req.UserID == nil {
		return q, nil
	}
	user, err := s.store.UserByID(ctx, *req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		Log.Debugf("article feed for unknown user %d, pages not restricted", *req.UserID)
		return q, nil
	}
	if err != nil {
		return q, err
	}
	pages, err := s.store.PageIds(ctx, user.Leaning)
	if err != nil {
		return q, err
	}
	q.AuthorSets = append(q.AuthorSets, pages)
	return q, nil
}

func (s *Selector) dispatch(ctx context.Context, req Request, base store.PostQuery) ([][]int64, error) {
	f, a := split(req.Limit, req.FollowersRatio)
	switch req.Strategy {
	case model.FeedStrategyRChrono:
		return s.rchrono(ctx, req, base)
	case model.FeedStrategyRChronoPopularity:
		return s.popular(ctx, req, base)
	case model.FeedStrategyRChronoFollowers:
		return s.followersSplit(ctx, req, base, store.OrderNewest, f, a)
	case model.FeedStrategyRChronoFollowersPopularity:
		return s.followersSplit(ctx, req, base, store.OrderPopular, f, a)
	case model.FeedStrategyRChronoComments:
		return s.comments(ctx, req, base, f, a)
	case model.FeedStrategyCommonInterests:
		return s.commonInterests(ctx, req, base, f, a)
	case model.FeedStrategyCommonUserInterests:
		return s.commonUserInterests(ctx, req, base, f, a)
	case model.FeedStrategySimilarUsersReact:
		return s.similarUsersReact(ctx, req, base)
	case model.FeedStrategySimilarUsersPosts:
		return s.similarUsersPosts(ctx, req, base)
	default:
		return s.random(ctx, req, base)
	}
}

// split divides limit between the follower half and the additional half.
// A ratio of 0 or less gives the whole limit to the additional half.
func split(limit int, ratio float64) (int, int) {
	if math.IsNaN(ratio) || ratio > 1 {
		ratio = 1
	}
	if ratio <= 0 {
		return 0, limit
	}
	if ratio < 1 {
		f := int(float64(limit) * ratio)
		return f, limit - f
	}
	return limit, 0
}

func flatten(groups [][]int64) []int64 {
	ids := []int64{}
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		ids = append(ids, g...)
	}
	return ids
}

func postIds(posts []model.Post) []int64 {
	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.Id)
	}
	return ids
}

func matchIds(matches []store.PostMatch) []int64 {
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Id)
	}
	return ids
}
