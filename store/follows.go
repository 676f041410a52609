package store

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FollowFilter narrows FollowEvents. Zero fields do not filter.
type FollowFilter struct {
	UserID     *int64
	FollowerID *int64
	Action     string
}

// Degree is a user with the number of follow edges pointing at it.
type Degree struct {
	UserID int64
	Total  int64
}

// FollowEvents returns the raw follow log matching f in append order.
func (s *GormStore) FollowEvents(ctx context.Context, f FollowFilter) ([]model.Follow, error) {
	events := []model.Follow{}
	tx := s.db.WithContext(ctx).Model(&model.Follow{})
	if f.UserID != nil {
		tx = tx.Where("user_id = ?", *f.UserID)
	}
	if f.FollowerID != nil {
		tx = tx.Where("follower_id = ?", *f.FollowerID)
	}
	if f.Action != "" {
		tx = tx.Where("action = ?", f.Action)
	}
	err := tx.Order("round, id").Find(&events).Error
	return events, errors.Wrap(err, "fail to read follow events")
}

// CurrentFollowerIds folds the follow log of userId by parity: a pair with an
// odd number of events is currently connected, whatever the actions say.
func (s *GormStore) CurrentFollowerIds(ctx context.Context, userId int64) ([]int64, error) {
	ids := []int64{}
	err := s.db.WithContext(ctx).Model(&model.Follow{}).
		Where("user_id = ? AND follower_id <> ?", userId, userId).
		Group("follower_id").
		Having("COUNT(*) % 2 = 1").
		Order("follower_id").
		Pluck("follower_id", &ids).Error
	return ids, errors.Wrapf(err, "fail to fold follow events of user %d", userId)
}

// FollowEdges returns every recorded follow action issued by userIds,
// without folding unfollows.
func (s *GormStore) FollowEdges(ctx context.Context, userIds []int64) ([]model.Follow, error) {
	edges := []model.Follow{}
	if len(userIds) == 0 {
		return edges, nil
	}
	err := s.db.WithContext(ctx).
		Where("user_id IN ? AND action = ?", userIds, model.FollowActionFollow).
		Order("id").
		Find(&edges).Error
	return edges, errors.Wrap(err, "fail to read follow edges")
}

// EventCounts returns, for each of userIds, the number of follow log rows it
// issued, any action. Users without rows are absent from the map.
func (s *GormStore) EventCounts(ctx context.Context, userIds []int64) (map[int64]int64, error) {
	counts := map[int64]int64{}
	if len(userIds) == 0 {
		return counts, nil
	}
	rows := []Degree{}
	err := s.db.WithContext(ctx).Model(&model.Follow{}).
		Select("user_id, COUNT(*) AS total").
		Where("user_id IN ?", userIds).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to count follow events")
	}
	for _, r := range rows {
		counts[r.UserID] = r.Total
	}
	return counts, nil
}

// InDegreeRanking returns the limit users most often targeted by follow
// actions, by count descending then id ascending.
func (s *GormStore) InDegreeRanking(ctx context.Context, limit int) ([]Degree, error) {
	rows := []Degree{}
	if limit <= 0 {
		return rows, nil
	}
	err := s.db.WithContext(ctx).Model(&model.Follow{}).
		Select("follower_id AS user_id, COUNT(*) AS total").
		Where("action = ?", model.FollowActionFollow).
		Group("follower_id").
		Order("total DESC, follower_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, errors.Wrap(err, "fail to rank users by in-degree")
}

// AppendFollow appends ev if accept approves it given the latest event of the
// same pair (nil when the pair has no history). The check and the insert run
// in one transaction.
func (s *GormStore) AppendFollow(ctx context.Context, ev model.Follow, accept func(last *model.Follow) bool) (bool, error) {
	appended := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last model.Follow
		err := tx.Where("user_id = ? AND follower_id = ?", ev.UserID, ev.FollowerID).
			Order("round DESC, id DESC").
			First(&last).Error
		var lastPtr *model.Follow
		switch {
		case err == nil:
			lastPtr = &last
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if !accept(lastPtr) {
			return nil
		}
		appended = true
		return tx.Create(&ev).Error
	})
	if err != nil {
		return false, errors.Wrap(err, "fail to append follow event")
	}
	return appended, nil
}
