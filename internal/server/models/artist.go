package models

import "time"

// Artist is a catalog entry. ImageKey locates the image in object storage;
// ImageURL is resolved on read and never stored.
type Artist struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	ImageKey    string    `json:"imageKey"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	StreamCount int64     `json:"streamCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
