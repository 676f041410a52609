package model

// FeedStrategy names a content recommendation strategy served by /read.
type FeedStrategy string

const (
	FeedStrategyRChrono                    FeedStrategy = "rchrono"
	FeedStrategyRChronoPopularity          FeedStrategy = "rchrono_popularity"
	FeedStrategyRChronoFollowers           FeedStrategy = "rchrono_followers"
	FeedStrategyRChronoFollowersPopularity FeedStrategy = "rchrono_followers_popularity"
	FeedStrategyRChronoComments            FeedStrategy = "rchrono_comments"
	FeedStrategyCommonInterests            FeedStrategy = "common_interests"
	FeedStrategyCommonUserInterests        FeedStrategy = "common_user_interests"
	FeedStrategySimilarUsersReact          FeedStrategy = "similar_users_react"
	FeedStrategySimilarUsersPosts          FeedStrategy = "similar_users_posts"
	FeedStrategyRandom                     FeedStrategy = "random"
)

var AllFeedStrategy = []FeedStrategy{
	FeedStrategyRChrono,
	FeedStrategyRChronoPopularity,
	FeedStrategyRChronoFollowers,
	FeedStrategyRChronoFollowersPopularity,
	FeedStrategyRChronoComments,
	FeedStrategyCommonInterests,
	FeedStrategyCommonUserInterests,
	FeedStrategySimilarUsersReact,
	FeedStrategySimilarUsersPosts,
	FeedStrategyRandom,
}

func (e FeedStrategy) IsValid() bool {
	switch e {
	case FeedStrategyRChrono, FeedStrategyRChronoPopularity, FeedStrategyRChronoFollowers,
		FeedStrategyRChronoFollowersPopularity, FeedStrategyRChronoComments,
		FeedStrategyCommonInterests, FeedStrategyCommonUserInterests,
		FeedStrategySimilarUsersReact, FeedStrategySimilarUsersPosts, FeedStrategyRandom:
		return true
	}
	return false
}

func (e FeedStrategy) String() string {
	return string(e)
}

// ParseFeedStrategy maps a mode name to its strategy. Unknown names fall back
// to FeedStrategyRandom.
func ParseFeedStrategy(s string) FeedStrategy {
	e := FeedStrategy(s)
	if !e.IsValid() {
		return FeedStrategyRandom
	}
	return e
}

// FollowStrategy names a link prediction heuristic served by
// /follow_suggestions.
type FollowStrategy string

const (
	FollowStrategyRandom                 FollowStrategy = "random"
	FollowStrategyPreferentialAttachment FollowStrategy = "preferential_attachment"
	FollowStrategyCommonNeighbors        FollowStrategy = "common_neighbors"
	FollowStrategyJaccard                FollowStrategy = "jaccard"
	FollowStrategyAdamicAdar             FollowStrategy = "adamic_adar"
)

var AllFollowStrategy = []FollowStrategy{
	FollowStrategyRandom,
	FollowStrategyPreferentialAttachment,
	FollowStrategyCommonNeighbors,
	FollowStrategyJaccard,
	FollowStrategyAdamicAdar,
}

func (e FollowStrategy) IsValid() bool {
	switch e {
	case FollowStrategyRandom, FollowStrategyPreferentialAttachment, FollowStrategyCommonNeighbors,
		FollowStrategyJaccard, FollowStrategyAdamicAdar:
		return true
	}
	return false
}

func (e FollowStrategy) String() string {
	return string(e)
}

// ParseFollowStrategy maps a mode name to its strategy, falling back to
// FollowStrategyRandom.
func ParseFollowStrategy(s string) FollowStrategy {
	e := FollowStrategy(s)
	if !e.IsValid() {
		return FollowStrategyRandom
	}
	return e
}
