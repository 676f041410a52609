package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Posts returns the posts matching q.
func (s *GormStore) Posts(ctx context.Context, q PostQuery) ([]model.Post, error) {
	posts := []model.Post{}
	tx, ok := q.apply(s.db.WithContext(ctx).Model(&model.Post{}))
	if !ok {
		return posts, nil
	}
	if order := q.Order.clause(); order != "" {
		tx = tx.Order(order)
	}
	err := tx.Limit(q.Limit).Find(&posts).Error
	return posts, errors.Wrap(err, "fail to query posts")
}

// PostsByTopics returns posts tagged with any of topicIds, ranked by the
// number of matching topics. q.Order is ignored.
func (s *GormStore) PostsByTopics(ctx context.Context, topicIds []int64, q PostQuery) ([]PostMatch, error) {
	rows := []PostMatch{}
	if len(topicIds) == 0 {
		return rows, nil
	}
	tx, ok := q.apply(s.db.WithContext(ctx).Model(&model.Post{}).
		Select("posts.*, COUNT(post_topics.topic_id) AS total").
		Joins("JOIN post_topics ON post_topics.post_id = posts.id").
		Where("post_topics.topic_id IN ?", topicIds))
	if !ok {
		return rows, nil
	}
	err := tx.Group("posts.id").
		Order("total DESC, posts.id DESC").
		Limit(q.Limit).
		Scan(&rows).Error
	return rows, errors.Wrap(err, "fail to query posts by topics")
}

// ReactedPosts returns posts that userIds reacted to with any of types,
// ranked by the number of such reactions, ties on post id descending. q.Order
// is ignored.
func (s *GormStore) ReactedPosts(ctx context.Context, userIds []int64, types []string, q PostQuery) ([]PostMatch, error) {
	if len(userIds) == 0 {
		return []PostMatch{}, nil
	}
	return s.reactedPosts(ctx, "reactions.user_id IN ?", userIds, types, q)
}

// reactedPosts ranks the posts reacted to by the users selected by the
// reactor condition and its argument.
func (s *GormStore) reactedPosts(ctx context.Context, reactorCond string, reactors interface{}, types []string, q PostQuery) ([]PostMatch, error) {
	rows := []PostMatch{}
	if len(types) == 0 {
		return rows, nil
	}
	tx, ok := q.apply(s.db.WithContext(ctx).Model(&model.Post{}).
		Select("posts.*, COUNT(reactions.user_id) AS total").
		Joins("JOIN reactions ON reactions.post_id = posts.id").
		Where(reactorCond, reactors).
		Where("reactions.type IN ?", types))
	if !ok {
		return rows, nil
	}
	err := tx.Group("posts.id").
		Order("total DESC, posts.id DESC").
		Limit(q.Limit).
		Scan(&rows).Error
	return rows, errors.Wrap(err, "fail to query reacted posts")
}

// ThreadHeads groups the posts matching q by thread and returns the latest
// matching post of each thread, ordered by q.Order.
func (s *GormStore) ThreadHeads(ctx context.Context, q PostQuery) ([]model.Post, error) {
	posts := []model.Post{}
	heads, ok := q.apply(s.db.WithContext(ctx).Model(&model.Post{}).Select("MAX(posts.id)"))
	if !ok {
		return posts, nil
	}
	heads = heads.Group("posts.thread_id")

	tx := s.db.WithContext(ctx).Model(&model.Post{}).Where("posts.id IN (?)", heads)
	if order := q.Order.clause(); order != "" {
		tx = tx.Order(order)
	}
	err := tx.Limit(q.Limit).Find(&posts).Error
	return posts, errors.Wrap(err, "fail to query thread heads")
}

// PostByID returns the post with the given id or ErrNotFound.
func (s *GormStore) PostByID(ctx context.Context, id int64) (model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		return post, notFoundOr(err, "post %d", id)
	}
	return post, nil
}

// CreatePost inserts post. Root posts and shares get their ThreadID
// back-filled with their own id, comments keep the ThreadID set by the caller.
func (s *GormStore) CreatePost(ctx context.Context, post *model.Post) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if post.ThreadID != 0 {
			return nil
		}
		post.ThreadID = post.Id
		return tx.Model(post).UpdateColumn("thread_id", post.Id).Error
	})
	return errors.Wrap(err, "fail to create post")
}

// RedactPost replaces the text of a post, used when an invalid mention is
// stripped after insert.
func (s *GormStore) RedactPost(ctx context.Context, id int64, text string) error {
	err := s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).UpdateColumn("tweet", text).Error
	return errors.Wrapf(err, "fail to redact post %d", id)
}

// AddReaction appends a reaction and bumps the reaction counter of its post.
func (s *GormStore) AddReaction(ctx context.Context, reaction *model.Reaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).
			Where("id = ?", reaction.PostID).
			UpdateColumn("reaction_count", gorm.Expr("reaction_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ErrNotFound, "post %d", reaction.PostID)
		}
		return tx.Create(reaction).Error
	})
	return errors.Wrap(err, "fail to add reaction")
}
