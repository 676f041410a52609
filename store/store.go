// Package store is the event store of the simulation: users, posts, the
// append-only follow and reaction logs, topics, rounds and the
// recommendation audit log, kept in a relational database through gorm.
package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrNotFound is returned, wrapped, when a referenced user, post, round or
// mention does not exist. Check it with errors.Is.
var ErrNotFound = errors.New("not found")

// EventStore is everything the ranking engines read from, or append to, the
// event store. Every method is atomic on its own, callers never hold a
// transaction across calls.
type EventStore interface {
	CurrentRound(ctx context.Context) (model.Round, error)

	Posts(ctx context.Context, q PostQuery) ([]model.Post, error)
	PostsByTopics(ctx context.Context, topicIds []int64, q PostQuery) ([]PostMatch, error)
	ReactedPosts(ctx context.Context, userIds []int64, types []string, q PostQuery) ([]PostMatch, error)
	ThreadHeads(ctx context.Context, q PostQuery) ([]model.Post, error)
	RecentHashtagIds(ctx context.Context, userId int64, minRound int64, limit int) ([]int64, error)
	PostIdsWithHashtags(ctx context.Context, hashtagIds []int64, excludeUser int64, minRound int64, limit int) ([]int64, error)
	TakeMention(ctx context.Context, userId int64, minRound int64) (model.Mention, error)

	FollowEvents(ctx context.Context, f FollowFilter) ([]model.Follow, error)
	CurrentFollowerIds(ctx context.Context, userId int64) ([]int64, error)
	FollowEdges(ctx context.Context, userIds []int64) ([]model.Follow, error)
	EventCounts(ctx context.Context, userIds []int64) (map[int64]int64, error)
	InDegreeRanking(ctx context.Context, limit int) ([]Degree, error)
	AppendFollow(ctx context.Context, ev model.Follow, accept func(last *model.Follow) bool) (bool, error)

	UserByID(ctx context.Context, id int64) (model.User, error)
	RandomUserIds(ctx context.Context, limit int) ([]int64, error)
	Leanings(ctx context.Context, userIds []int64) (map[int64]string, error)
	PageIds(ctx context.Context, leaning string) ([]int64, error)
	UserInterestIds(ctx context.Context, userId int64) ([]int64, error)
	PostsReactedByPeers(ctx context.Context, userId int64, interestIds []int64, f PeerFilter, types []string, q PostQuery) ([]PostMatch, error)
	SimilarUsers(ctx context.Context, target model.User, limit int) ([]SimilarUser, error)

	InsertRecommendation(ctx context.Context, rec *model.Recommendation) error
}

// GormStore implements EventStore on top of a gorm connection. It is safe
// for concurrent use, gorm pools the underlying connections.
type GormStore struct {
	db *gorm.DB
}

var _ EventStore = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the connection for migrations and tests.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
