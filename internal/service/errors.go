package service

import (
	"errors"

	"tubely/backend/internal/media"
)

// Pipeline and request errors. Handlers match them with errors.Is; the
// wrapped message carries the detail.
var (
	// ErrValidation covers a bad ID, wrong media type or oversized file. It is
	// always returned before any side effect.
	ErrValidation        = errors.New("validation failed")
	ErrVideoNotFound     = errors.New("video not found")
	ErrForbidden         = errors.New("you do not have permission to modify this video")
	ErrThumbnailNotFound = errors.New("thumbnail not found")

	// ErrProbe and ErrRewrite come from the media tools; the concrete error
	// is a *media.ToolError with the tool's stderr.
	ErrProbe   = media.ErrProbe
	ErrRewrite = media.ErrRewrite

	// ErrPublish means object storage rejected the upload. The record is untouched.
	ErrPublish = errors.New("publish to storage failed")
	// ErrPersistence means the artifact was published but the record could
	// not be updated: storage and record store now disagree.
	ErrPersistence = errors.New("record update failed after publish")
)
