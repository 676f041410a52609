package feed

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/Luismorlan/feedsim/store"
	"github.com/pkg/errors"
)

var (
	anyReaction = []string{model.ReactionLike, model.ReactionDislike}
	likes       = []string{model.ReactionLike}
)

func (s *Selector) posts(ctx context.Context, q store.PostQuery) ([]int64, error) {
	posts, err := s.store.Posts(ctx, q)
	if err != nil {
		return nil, err
	}
	return postIds(posts), nil
}

func (s *Selector) currentFollowers(ctx context.Context, uid *int64) ([]int64, error) {
	if uid == nil {
		return []int64{}, nil
	}
	return s.followers.CurrentFollowers(ctx, *uid)
}

func (s *Selector) rchrono(ctx context.Context, req Request, base store.PostQuery) ([][]int64, error) {
	q := base
	q.ExcludeAuthor = req.UserID
	q.Order = store.OrderNewest
	q.Limit = rchronoCap
	ids, err := s.posts(ctx, q)
	return [][]int64{ids}, err
}

func (s *Selector) popular(ctx context.Context, req Request, base store.PostQuery) ([][]int64, error) {
	q := base
	q.ExcludeAuthor = req.UserID
	q.Order = store.OrderPopular
	q.Limit = req.Limit
	ids, err := s.posts(ctx, q)
	return [][]int64{ids}, err
}

func (s *Selector) random(ctx context.Context, req Request, base store.PostQuery) ([][]int64, error) {
	q := base
	q.ExcludeAuthor = req.UserID
	q.Order = store.OrderRandom
	q.Limit = req.Limit
	ids, err := s.posts(ctx, q)
	return [][]int64{ids}, err
}

// followersSplit serves f posts written by current followers, then a posts
// from the whole visible pool minus the requester's own, both in order.
func (s *Selector) followersSplit(ctx context.Context, req Request, base store.PostQuery, order store.PostOrder, f, a int) ([][]int64, error) {
	followers, err := s.currentFollowers(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	fq := base
	fq.AuthorSets = append(append([][]int64{}, base.AuthorSets...), followers)
	fq.Order = order
	fq.Limit = f
	followerIds, err := s.posts(ctx, fq)
	if err != nil {
		return nil, err
	}

	aq := base
	aq.ExcludeAuthor = req.UserID
	aq.Order = order
	aq.Limit = a
	additionalIds, err := s.posts(ctx, aq)
	if err != nil {
		return nil, err
	}
	return [][]int64{followerIds, additionalIds}, nil
}

// comments serves the latest post of each thread the followers took part
// in, most reacted first. The additional half runs the very same follower
// restricted query with the additional limit, so the two halves overlap.
func (s *Selector) comments(ctx context.Context, req Request, base store.PostQuery, f, a int) ([][]int64, error) {
	followers, err := s.currentFollowers(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	q := base
	q.AuthorSets = append(append([][]int64{}, base.AuthorSets...), followers)
	q.Order = store.OrderPopular

	groups := [][]int64{}
	for _, limit := range []int{f, a} {
		q.Limit = limit
		heads, err := s.store.ThreadHeads(ctx, q)
		if err != nil {
			return nil, err
		}
		groups = append(groups, postIds(heads))
	}
	return groups, nil
}

// commonInterests ranks posts by the number of topics they share with the
// requester's interests, followers first then everybody else.
func (s *Selector) commonInterests(ctx context.Context, req Request, base store.PostQuery, f, a int) ([][]int64, error) {
	if req.UserID == nil {
		return nil, nil
	}
	interests, err := s.store.UserInterestIds(ctx, *req.UserID)
	if err != nil {
		return nil, err
	}
	followers, err := s.currentFollowers(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	fq := base
	fq.ExcludeAuthor = req.UserID
	fq.AuthorSets = append(append([][]int64{}, base.AuthorSets...), followers)
	fq.Limit = f
	followerMatches, err := s.store.PostsByTopics(ctx, interests, fq)
	if err != nil {
		return nil, err
	}

	aq := base
	aq.ExcludeAuthor = req.UserID
	aq.AuthorsNotIn = followers
	aq.Limit = a
	otherMatches, err := s.store.PostsByTopics(ctx, interests, aq)
	if err != nil {
		return nil, err
	}
	return [][]int64{matchIds(followerMatches), matchIds(otherMatches)}, nil
}

// commonUserInterests serves the posts most reacted to by users sharing an
// interest with the requester, split between those the requester follows
// and the others. Each half falls back to plain visible posts when nothing
// qualifies.
func (s *Selector) commonUserInterests(ctx context.Context, req Request, base store.PostQuery, f, a int) ([][]int64, error) {
	if req.UserID == nil {
		return nil, nil
	}
	interests, err := s.store.UserInterestIds(ctx, *req.UserID)
	if err != nil {
		return nil, err
	}
	followers, err := s.currentFollowers(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if followers == nil {
		followers = []int64{}
	}

	followerIds, err := s.peersReactedOrFallback(ctx, *req.UserID, interests, store.PeerFilter{In: followers}, base, f)
	if err != nil {
		return nil, err
	}
	otherIds, err := s.peersReactedOrFallback(ctx, *req.UserID, interests, store.PeerFilter{NotIn: followers}, base, a)
	if err != nil {
		return nil, err
	}
	return [][]int64{followerIds, otherIds}, nil
}

func (s *Selector) peersReactedOrFallback(ctx context.Context, uid int64, interests []int64, peers store.PeerFilter, base store.PostQuery, limit int) ([]int64, error) {
	q := base
	q.Limit = limit
	matches, err := s.store.PostsReactedByPeers(ctx, uid, interests, peers, anyReaction, q)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matchIds(matches), nil
	}
	return s.posts(ctx, q)
}

// similarUsersReact serves the posts most liked by the limit users most
// similar to the requester.
func (s *Selector) similarUsersReact(ctx context.Context, req Request, base store.PostQuery) ([][]int64, error) {
	similar, err := s.similarUserIds(ctx, req)
	if err != nil {
		return nil, err
	}
	ids, err := s.reactedOrFallback(ctx, similar, likes, base, req.Limit)
	return [][]int64{ids}, err
}

// similarUsersPosts serves posts written by the limit users most similar to
// the requester, in store order.
func (s *Selector) similarUsersPosts(ctx context.Context, req Request, base store.PostQuery) ([][]int64, error) {
	similar, err := s.similarUserIds(ctx, req)
	if err != nil {
		return nil, err
	}
	q := base
	q.AuthorSets = append(append([][]int64{}, base.AuthorSets...), similar)
	q.Limit = req.Limit
	ids, err := s.posts(ctx, q)
	return [][]int64{ids}, err
}

func (s *Selector) similarUserIds(ctx context.Context, req Request) ([]int64, error) {
	if req.UserID == nil {
		return nil, errors.Wrap(store.ErrNotFound, "similarity needs a requester")
	}
	user, err := s.store.UserByID(ctx, *req.UserID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.SimilarUsers(ctx, user, req.Limit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Id)
	}
	return ids, nil
}

// reactedOrFallback ranks the visible posts userIds reacted to with types.
// When nothing qualifies it serves limit visible posts in store order
// instead, the requester's own posts included.
func (s *Selector) reactedOrFallback(ctx context.Context, userIds []int64, types []string, base store.PostQuery, limit int) ([]int64, error) {
	q := base
	q.Limit = limit
	if len(userIds) > 0 {
		matches, err := s.store.ReactedPosts(ctx, userIds, types, q)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			return matchIds(matches), nil
		}
	}
	return s.posts(ctx, q)
}
