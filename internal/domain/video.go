package domain

import "time"

// Video is the metadata record for an uploaded video. The media itself lives
// in object storage; this record only points at it.
type Video struct {
	ID           string    `bson:"_id" json:"id"`
	UserID       string    `bson:"userId" json:"userId"` // Owner; only this user may upload media for the video
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description,omitempty" json:"description,omitempty"`
	VideoURL     *string   `bson:"videoUrl,omitempty" json:"videoUrl"`         // Set once the processed video is published
	ThumbnailURL *string   `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl"` // Points at the thumbnail endpoint
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsOwnedBy reports whether userID owns the video.
func (v *Video) IsOwnedBy(userID string) bool {
	return v.UserID != "" && v.UserID == userID
}
