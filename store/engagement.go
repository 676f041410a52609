package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// HashtagByName returns the hashtag row for tag, creating it on first use.
func (s *GormStore) HashtagByName(ctx context.Context, tag string) (model.Hashtag, error) {
	var hashtag model.Hashtag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("hashtag = ?", tag).First(&hashtag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hashtag = model.Hashtag{Hashtag: tag}
			return tx.Create(&hashtag).Error
		}
		return err
	})
	return hashtag, errors.Wrapf(err, "fail to resolve hashtag %s", tag)
}

// TagPost links postId to hashtagId.
func (s *GormStore) TagPost(ctx context.Context, postId, hashtagId int64) error {
	err := s.db.WithContext(ctx).Create(&model.PostHashtag{PostID: postId, HashtagID: hashtagId}).Error
	return errors.Wrapf(err, "fail to tag post %d", postId)
}

// RecentHashtagIds returns up to limit distinct hashtags the user put on its
// own posts since minRound.
func (s *GormStore) RecentHashtagIds(ctx context.Context, userId int64, minRound int64, limit int) ([]int64, error) {
	ids := []int64{}
	if limit <= 0 {
		return ids, nil
	}
	err := s.db.WithContext(ctx).Model(&model.PostHashtag{}).
		Joins("JOIN posts ON posts.id = post_hashtags.post_id").
		Where("posts.user_id = ? AND posts.round >= ?", userId, minRound).
		Distinct("post_hashtags.hashtag_id").
		Order("post_hashtags.hashtag_id").
		Limit(limit).
		Pluck("post_hashtags.hashtag_id", &ids).Error
	return ids, errors.Wrapf(err, "fail to read hashtags of user %d", userId)
}

// PostIdsWithHashtags samples up to limit visible posts by other authors
// carrying any of hashtagIds.
func (s *GormStore) PostIdsWithHashtags(ctx context.Context, hashtagIds []int64, excludeUser int64, minRound int64, limit int) ([]int64, error) {
	ids := []int64{}
	if len(hashtagIds) == 0 || limit <= 0 {
		return ids, nil
	}
	matching := s.db.WithContext(ctx).Model(&model.PostHashtag{}).
		Select("post_id").
		Where("hashtag_id IN ?", hashtagIds)
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id IN (?) AND user_id <> ? AND round >= ?", matching, excludeUser, minRound).
		Order("RANDOM()").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, errors.Wrap(err, "fail to search posts by hashtags")
}

// AddMention records that userId was mentioned by postId.
func (s *GormStore) AddMention(ctx context.Context, mention *model.Mention) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(mention).Error, "fail to add mention")
}

// TakeMention picks a random unanswered mention of userId since minRound and
// marks it answered. It returns ErrNotFound when there is none.
func (s *GormStore) TakeMention(ctx context.Context, userId int64, minRound int64) (model.Mention, error) {
	var mention model.Mention
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND answered = ? AND round >= ?", userId, false, minRound).
			Order("RANDOM()").
			Take(&mention).Error
		if err != nil {
			return err
		}
		mention.Answered = true
		return tx.Model(&mention).UpdateColumn("answered", true).Error
	})
	if err != nil {
		return mention, notFoundOr(err, "pending mention of user %d", userId)
	}
	return mention, nil
}

// InsertRecommendation appends a served feed to the audit log.
func (s *GormStore) InsertRecommendation(ctx context.Context, rec *model.Recommendation) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(rec).Error, "fail to log recommendation")
}

// Recommendations returns the audit log of userId, oldest first.
func (s *GormStore) Recommendations(ctx context.Context, userId int64) ([]model.Recommendation, error) {
	recs := []model.Recommendation{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userId).Order("id").Find(&recs).Error
	return recs, errors.Wrapf(err, "fail to read recommendations of user %d", userId)
}
