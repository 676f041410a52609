package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SimilarUser is a user id with its attribute similarity to a target user.
type SimilarUser struct {
	Id              int64
	SimilarityScore float64
}

// similarityExpr mirrors feed.Similarity. Each categorical attribute equal to
// the target's adds one, age adds 1 - |age delta| / 100.
const similarityExpr = `(CASE WHEN leaning = ? THEN 1 ELSE 0 END) +
(CASE WHEN language = ? THEN 1 ELSE 0 END) +
(CASE WHEN education_level = ? THEN 1 ELSE 0 END) +
(CASE WHEN gender = ? THEN 1 ELSE 0 END) +
(CASE WHEN toxicity = ? THEN 1 ELSE 0 END) +
(CASE WHEN oe = ? THEN 1 ELSE 0 END) +
(CASE WHEN co = ? THEN 1 ELSE 0 END) +
(CASE WHEN ex = ? THEN 1 ELSE 0 END) +
(CASE WHEN ag = ? THEN 1 ELSE 0 END) +
(CASE WHEN ne = ? THEN 1 ELSE 0 END) +
(1 - ABS(age - ?) / 100.0) AS similarity_score`

// UserByID returns the user with the given id or ErrNotFound.
func (s *GormStore) UserByID(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return user, notFoundOr(err, "user %d", id)
	}
	return user, nil
}

// UserByUsername returns the user with the given handle or ErrNotFound.
func (s *GormStore) UserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return user, notFoundOr(err, "user %s", username)
	}
	return user, nil
}

// RegisterUser stores user unless an account with the same username and
// email exists already, in which case the existing account is returned.
func (s *GormStore) RegisterUser(ctx context.Context, user model.User) (model.User, error) {
	var existing model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("username = ? AND email = ?", user.Username, user.Email).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		// Reload so columns filled by database defaults are visible.
		return tx.First(&existing, user.Id).Error
	})
	return existing, errors.Wrapf(err, "fail to register user %s", user.Username)
}

// UserByCredentials returns the user registered with username and email or
// ErrNotFound.
func (s *GormStore) UserByCredentials(ctx context.Context, username, email string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ? AND email = ?", username, email).First(&user).Error
	if err != nil {
		return user, notFoundOr(err, "user %s", username)
	}
	return user, nil
}

// UpdateStrategies changes the feed and follow strategies of a user. Empty
// values leave the current strategy untouched.
func (s *GormStore) UpdateStrategies(ctx context.Context, userId int64, feed, follow string) error {
	if _, err := s.UserByID(ctx, userId); err != nil {
		return err
	}
	updates := map[string]interface{}{}
	if feed != "" {
		updates["recsys_type"] = feed
	}
	if follow != "" {
		updates["frecsys_type"] = follow
	}
	if len(updates) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userId).Updates(updates).Error
	return errors.Wrapf(err, "fail to update strategies of user %d", userId)
}

// RandomUserIds samples up to limit user ids uniformly.
func (s *GormStore) RandomUserIds(ctx context.Context, limit int) ([]int64, error) {
	ids := []int64{}
	if limit <= 0 {
		return ids, nil
	}
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Order("RANDOM()").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, errors.Wrap(err, "fail to sample users")
}

// Leanings returns the leaning of each existing user among userIds.
func (s *GormStore) Leanings(ctx context.Context, userIds []int64) (map[int64]string, error) {
	leanings := map[int64]string{}
	if len(userIds) == 0 {
		return leanings, nil
	}
	users := []model.User{}
	err := s.db.WithContext(ctx).Select("id, leaning").Where("id IN ?", userIds).Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to read leanings")
	}
	for _, u := range users {
		leanings[u.Id] = u.Leaning
	}
	return leanings, nil
}

// PageIds returns the ids of news pages with the given leaning.
func (s *GormStore) PageIds(ctx context.Context, leaning string) ([]int64, error) {
	ids := []int64{}
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("is_page = ? AND leaning = ?", true, leaning).
		Order("id").
		Pluck("id", &ids).Error
	return ids, errors.Wrapf(err, "fail to read %s pages", leaning)
}

// SimilarUsers ranks every other user by attribute similarity to target,
// score descending then id ascending, and keeps the first limit.
func (s *GormStore) SimilarUsers(ctx context.Context, target model.User, limit int) ([]SimilarUser, error) {
	rows := []SimilarUser{}
	if limit <= 0 {
		return rows, nil
	}
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Select("id, "+similarityExpr,
			target.Leaning, target.Language, target.EducationLevel, target.Gender, target.Toxicity,
			target.Oe, target.Co, target.Ex, target.Ag, target.Ne, target.Age).
		Where("id <> ?", target.Id).
		Order("similarity_score DESC, id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, errors.Wrapf(err, "fail to rank users similar to %d", target.Id)
}
