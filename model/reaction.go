package model

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction is an append-only reaction event. The same user may react to the
// same post several times, every row counts.
type Reaction struct {
	Id     int64  `gorm:"primaryKey" json:"id"`
	Round  int64  `json:"round"`
	UserID int64  `gorm:"index" json:"user_id"`
	PostID int64  `gorm:"index" json:"post_id"`
	Type   string `gorm:"size:10;index" json:"type"`
}
