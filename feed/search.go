package feed

import (
	"context"

	"github.com/Luismorlan/feedsim/clock"
)

// Search returns up to ten random visible posts by other users carrying a
// hashtag the user put on its own visible posts.
func (s *Selector) Search(ctx context.Context, userId int64, visibilityRounds int64) ([]int64, error) {
	visibility, err := clock.Horizon(ctx, s.clock, visibilityRounds)
	if err != nil {
		return nil, err
	}
	hashtags, err := s.store.RecentHashtagIds(ctx, userId, visibility, searchHashtags)
	if err != nil {
		return nil, err
	}
	if len(hashtags) == 0 {
		return []int64{}, nil
	}
	return s.store.PostIdsWithHashtags(ctx, hashtags, userId, visibility, searchResults)
}

// ReadMention hands out one random pending mention of the user within the
// window and marks it answered. It returns store.ErrNotFound when nothing
// is pending.
func (s *Selector) ReadMention(ctx context.Context, userId int64, visibilityRounds int64) ([]int64, error) {
	visibility, err := clock.Horizon(ctx, s.clock, visibilityRounds)
	if err != nil {
		return nil, err
	}
	mention, err := s.store.TakeMention(ctx, userId, visibility)
	if err != nil {
		return nil, err
	}
	return []int64{mention.PostID}, nil
}
