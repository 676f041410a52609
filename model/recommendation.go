package model

/*

Recommendation is the audit record of a served feed.

UserID: requester, nil for author-agnostic feeds
PostIds: served post ids in order, joined with "|"
Round: round in which the feed was served

*/
type Recommendation struct {
	Id      int64  `gorm:"primaryKey"`
	UserID  *int64 `gorm:"index"`
	PostIds string `gorm:"size:500"`
	Round   int64
}
