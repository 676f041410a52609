package model

type Hashtag struct {
	Id      int64  `gorm:"primaryKey"`
	Hashtag string `gorm:"size:20;index"`
}

type PostHashtag struct {
	Id        int64 `gorm:"primaryKey"`
	PostID    int64 `gorm:"index"`
	HashtagID int64 `gorm:"index"`
}
