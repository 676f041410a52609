package model

// Mention records that UserID was mentioned by PostID. Answered flips to true
// once the mention has been handed out by read_mentions.
type Mention struct {
	Id       int64 `gorm:"primaryKey"`
	UserID   int64 `gorm:"index"`
	PostID   int64
	Round    int64
	Answered bool `gorm:"default:false"`
}
