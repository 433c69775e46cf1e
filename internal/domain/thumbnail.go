package domain

import "time"

// Thumbnail is a stored thumbnail image, addressed by the SHA-256 of its
// content. Identical uploads share one document.
type Thumbnail struct {
	ID        string    `bson:"_id" json:"id"`
	MediaType string    `bson:"mediaType" json:"mediaType"` // "image/jpeg" or "image/png"
	Data      []byte    `bson:"data" json:"-"`
	Size      int64     `bson:"size" json:"size"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
