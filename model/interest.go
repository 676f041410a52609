package model

/*

Interest is an entry of the controlled topic vocabulary.

UserInterest records that a user showed an interest in a given round, PostTopic
tags a post with a topic. Both are many-to-many join rows.

*/
type Interest struct {
	Iid      int64  `gorm:"primaryKey" json:"iid"`
	Interest string `gorm:"size:20" json:"interest"`
}

type UserInterest struct {
	Id         int64 `gorm:"primaryKey"`
	UserID     int64 `gorm:"index"`
	InterestID int64 `gorm:"index"`
	RoundID    int64
}

type PostTopic struct {
	Id      int64 `gorm:"primaryKey"`
	PostID  int64 `gorm:"index"`
	TopicID int64 `gorm:"index"`
}
