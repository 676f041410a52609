package model

const (
	// NoParent marks CommentTo/SharedFrom of a post that is neither a comment
	// nor a share.
	NoParent int64 = -1
)

/*

Post is a piece of content published in a round, a root post, a comment, a
share or a comment on a news article.

Id: primary key, auto-increment, also the reverse chronological order key
Tweet: post text
Round: round id in which the post was created
UserID: author
CommentTo: parent post id, NoParent for root posts
ThreadID: root post id of the conversation, equals Id on root posts. It is
back-filled right after insert.
NewsID: article reference, nil when the post carries no article
SharedFrom: original post id for reshares, NoParent otherwise
ReactionCount: denormalized number of reactions, bumped on every reaction

*/
type Post struct {
	Id            int64  `gorm:"primaryKey" json:"id"`
	Tweet         string `json:"tweet"`
	Round         int64  `gorm:"index" json:"round"`
	UserID        int64  `gorm:"index" json:"user_id"`
	CommentTo     int64  `gorm:"default:-1" json:"comment_to"`
	ThreadID      int64  `gorm:"index" json:"thread_id"`
	NewsID        *int64 `json:"news_id"`
	SharedFrom    int64  `gorm:"default:-1" json:"shared_from"`
	ReactionCount int    `gorm:"default:0" json:"reaction_count"`
}

// IsComment returns true iff the post replies to another post.
func (p Post) IsComment() bool {
	return p.CommentTo != NoParent
}
