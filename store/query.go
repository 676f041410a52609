package store

import (
	"github.com/Luismorlan/feedsim/model"
	"gorm.io/gorm"
)

// PostOrder selects the ORDER BY of a post query.
type PostOrder int

const (
	// OrderNatural leaves the order to the store.
	OrderNatural PostOrder = iota
	// OrderNewest is reverse chronological, post id descending.
	OrderNewest
	// OrderPopular is reaction_count descending, ties on post id descending.
	OrderPopular
	// OrderRandom is uniform random.
	OrderRandom
)

func (o PostOrder) clause() string {
	switch o {
	case OrderNewest:
		return "posts.id DESC"
	case OrderPopular:
		return "posts.reaction_count DESC, posts.id DESC"
	case OrderRandom:
		return "RANDOM()"
	}
	return ""
}

/*

PostQuery is the shared candidate filter of every feed strategy.

MinRound: visibility horizon, posts with round >= MinRound are visible
ExcludeAuthor: drop the requester's own posts when set
AuthorSets: the author must belong to every listed set. An empty set matches
nothing, which lets callers express "followers of a user without followers".
AuthorsNotIn: the author must belong to none of these
ArticlesOnly: keep only posts carrying an article reference
Order, Limit: applied in the store. A non-positive Limit returns no rows.

*/
type PostQuery struct {
	MinRound      int64
	ExcludeAuthor *int64
	AuthorSets    [][]int64
	AuthorsNotIn  []int64
	ArticlesOnly  bool
	Order         PostOrder
	Limit         int
}

// PostMatch is a post with the count of joined rows that selected it: matched
// topics for PostsByTopics, qualifying reactions for ReactedPosts.
type PostMatch struct {
	model.Post
	Total int64
}

// apply adds the filter to tx. It returns false when the filter is known to
// match nothing, so the caller can skip the round trip.
func (q PostQuery) apply(tx *gorm.DB) (*gorm.DB, bool) {
	if q.Limit <= 0 {
		return tx, false
	}
	tx = tx.Where("posts.round >= ?", q.MinRound)
	if q.ExcludeAuthor != nil {
		tx = tx.Where("posts.user_id <> ?", *q.ExcludeAuthor)
	}
	for _, set := range q.AuthorSets {
		if len(set) == 0 {
			return tx, false
		}
		tx = tx.Where("posts.user_id IN ?", set)
	}
	if len(q.AuthorsNotIn) > 0 {
		tx = tx.Where("posts.user_id NOT IN ?", q.AuthorsNotIn)
	}
	if q.ArticlesOnly {
		tx = tx.Where("posts.news_id IS NOT NULL")
	}
	return tx, true
}
