package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserInterestIds returns the distinct interests a user ever showed.
func (s *GormStore) UserInterestIds(ctx context.Context, userId int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.WithContext(ctx).Model(&model.UserInterest{}).
		Where("user_id = ?", userId).
		Distinct("interest_id").
		Order("interest_id").
		Pluck("interest_id", &ids).Error
	return ids, errors.Wrapf(err, "fail to read interests of user %d", userId)
}

// UserInterestNames returns the names of the distinct interests of a user.
func (s *GormStore) UserInterestNames(ctx context.Context, userId int64) ([]string, error) {
	names := []string{}
	err := s.db.WithContext(ctx).Model(&model.Interest{}).
		Joins("JOIN user_interests ON user_interests.interest_id = interests.iid").
		Where("user_interests.user_id = ?", userId).
		Distinct("interests.interest").
		Order("interests.interest").
		Pluck("interests.interest", &names).Error
	return names, errors.Wrapf(err, "fail to read interest names of user %d", userId)
}

// PeerFilter narrows the users sharing interests with a requester. A nil In
// keeps every peer, an empty one keeps none.
type PeerFilter struct {
	In    []int64
	NotIn []int64
}

// interestPeers is the subquery of the users other than userId holding any
// of interestIds, narrowed by f. It returns false when it matches nobody.
func (s *GormStore) interestPeers(ctx context.Context, userId int64, interestIds []int64, f PeerFilter) (*gorm.DB, bool) {
	if len(interestIds) == 0 || (f.In != nil && len(f.In) == 0) {
		return nil, false
	}
	tx := s.db.WithContext(ctx).Model(&model.UserInterest{}).
		Select("user_interests.user_id").
		Joins("JOIN users ON users.id = user_interests.user_id").
		Where("user_interests.interest_id IN ? AND user_interests.user_id <> ?", interestIds, userId)
	if f.In != nil {
		tx = tx.Where("user_interests.user_id IN ?", f.In)
	}
	if len(f.NotIn) > 0 {
		tx = tx.Where("user_interests.user_id NOT IN ?", f.NotIn)
	}
	return tx, true
}

// PostsReactedByPeers is ReactedPosts over the users sharing any of
// interestIds with userId and passing f, resolved in a single query.
func (s *GormStore) PostsReactedByPeers(ctx context.Context, userId int64, interestIds []int64, f PeerFilter, types []string, q PostQuery) ([]PostMatch, error) {
	peers, ok := s.interestPeers(ctx, userId, interestIds, f)
	if !ok {
		return []PostMatch{}, nil
	}
	return s.reactedPosts(ctx, "reactions.user_id IN (?)", peers, types, q)
}

// InterestByName returns the vocabulary entry for name, creating it on first
// use.
func (s *GormStore) InterestByName(ctx context.Context, name string) (model.Interest, error) {
	var interest model.Interest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("interest = ?", name).First(&interest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			interest = model.Interest{Interest: name}
			return tx.Create(&interest).Error
		}
		return err
	})
	return interest, errors.Wrapf(err, "fail to resolve interest %s", name)
}

// AddUserInterests records that userId showed interestIds in round.
func (s *GormStore) AddUserInterests(ctx context.Context, userId int64, interestIds []int64, round int64) error {
	if len(interestIds) == 0 {
		return nil
	}
	rows := make([]model.UserInterest, 0, len(interestIds))
	for _, iid := range interestIds {
		rows = append(rows, model.UserInterest{UserID: userId, InterestID: iid, RoundID: round})
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(&rows).Error, "fail to add user interests")
}

// AddPostTopics tags postId with topicIds.
func (s *GormStore) AddPostTopics(ctx context.Context, postId int64, topicIds []int64) error {
	if len(topicIds) == 0 {
		return nil
	}
	rows := make([]model.PostTopic, 0, len(topicIds))
	for _, tid := range topicIds {
		rows = append(rows, model.PostTopic{PostID: postId, TopicID: tid})
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(&rows).Error, "fail to tag post")
}

// PostTopicIds returns the topics of a post.
func (s *GormStore) PostTopicIds(ctx context.Context, postId int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.WithContext(ctx).Model(&model.PostTopic{}).
		Where("post_id = ?", postId).
		Order("topic_id").
		Pluck("topic_id", &ids).Error
	return ids, errors.Wrapf(err, "fail to read topics of post %d", postId)
}
