package model

// Round is a tick of the simulation clock. Id grows monotonically and is the
// value compared against Post.Round for visibility.
type Round struct {
	Id   int64 `gorm:"primaryKey" json:"id"`
	Day  int   `json:"day"`
	Hour int   `json:"round"`
}
