package model

const (
	FollowActionFollow   = "follow"
	FollowActionUnfollow = "unfollow"
)

/*

Follow is one event of the append-only follow log. Rows are never updated or
deleted, the current relationship is derived by folding the events of a pair.

UserID: the user performing the action
FollowerID: the user the action is about. The naming is historical: rows with
UserID = u list, through FollowerID, the accounts whose posts u reads.
Round: round of the event
Action: FollowActionFollow or FollowActionUnfollow

*/
type Follow struct {
	Id         int64  `gorm:"primaryKey" json:"id"`
	UserID     int64  `gorm:"index:idx_follow_pair" json:"user_id"`
	FollowerID int64  `gorm:"index:idx_follow_pair;index" json:"follower_id"`
	Round      int64  `json:"round"`
	Action     string `gorm:"size:10;index" json:"action"`
}

// IsValidFollowAction returns true for the two actions the log accepts.
func IsValidFollowAction(action string) bool {
	return action == FollowActionFollow || action == FollowActionUnfollow
}
