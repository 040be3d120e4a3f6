package models

import "time"

// Favorite links a user to a song. Storage keeps at most one row per
// (UserID, SongID).
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SongID    string    `json:"songId"`
	CreatedAt time.Time `json:"createdAt"`
}
