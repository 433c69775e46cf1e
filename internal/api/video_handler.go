package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tubely/backend/internal/domain"
	"tubely/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multipartOverhead is the slack allowed on top of a file limit for the
// multipart envelope (boundaries, part headers, other small fields).
const multipartOverhead = 1 << 20

// VideoHandler holds the video service dependency.
type VideoHandler struct {
	videoService      service.VideoService
	maxVideoBytes     int64
	maxThumbnailBytes int64
	logger            zerolog.Logger
}

// NewVideoHandler creates a new VideoHandler. The limits bound how much of a
// request body is read before the service sees it.
func NewVideoHandler(videoService service.VideoService, maxVideoBytes, maxThumbnailBytes int64, logger zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		videoService:      videoService,
		maxVideoBytes:     maxVideoBytes,
		maxThumbnailBytes: maxThumbnailBytes,
		logger:            logger.With().Str("component", "video_handler").Logger(),
	}
}

// --- DTOs ---

// CreateVideoRequest defines the expected JSON for a new video draft.
type CreateVideoRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// VideoResponse is the DTO for returning a video record.
type VideoResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	VideoURL     *string   `json:"videoUrl"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MapVideoToResponse converts a domain.Video to a VideoResponse DTO.
func MapVideoToResponse(v *domain.Video) VideoResponse {
	if v == nil {
		return VideoResponse{}
	}
	return VideoResponse{
		ID:           v.ID,
		UserID:       v.UserID,
		Title:        v.Title,
		Description:  v.Description,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

// MapVideosToResponse converts a slice of domain.Video to VideoResponse DTOs.
func MapVideosToResponse(videos []domain.Video) []VideoResponse {
	responses := make([]VideoResponse, len(videos))
	for i := range videos {
		responses[i] = MapVideoToResponse(&videos[i])
	}
	return responses
}

// --- Video records ---

// CreateVideo godoc
// @Summary Create a video draft
// @Tags Videos
// @Security BearerAuth
// @Router /videos [post]
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	video, err := h.videoService.CreateVideo(c.Request.Context(), userID, req.Title, req.Description)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapVideoToResponse(video))
}

// ListVideos godoc
// @Summary List the caller's videos
// @Tags Videos
// @Security BearerAuth
// @Router /videos [get]
func (h *VideoHandler) ListVideos(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	videos, err := h.videoService.ListVideos(c.Request.Context(), userID)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapVideosToResponse(videos))
}

// GetVideo godoc
// @Summary Get a video record
// @Tags Videos
// @Router /videos/{videoID} [get]
func (h *VideoHandler) GetVideo(c *gin.Context) {
	video, err := h.videoService.GetVideo(c.Request.Context(), c.Param("videoID"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapVideoToResponse(video))
}

// DeleteVideo godoc
// @Summary Delete a video and its published media
// @Tags Videos
// @Security BearerAuth
// @Router /videos/{videoID} [delete]
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.videoService.DeleteVideo(c.Request.Context(), userID, c.Param("videoID")); err != nil {
		h.respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Uploads ---

// UploadVideo godoc
// @Summary Upload the MP4 for a video
// @Description Multipart field "video". The file is remuxed for streaming and published.
// @Tags Videos
// @Accept multipart/form-data
// @Security BearerAuth
// @Success 200 {object} VideoResponse
// @Failure 400 {object} gin.H "Invalid file"
// @Failure 422 {object} gin.H "File could not be processed"
// @Failure 502 {object} gin.H "Storage rejected the upload"
// @Router /videos/{videoID}/upload [post]
func (h *VideoHandler) UploadVideo(c *gin.Context) {
	h.upload(c, "video", h.maxVideoBytes, h.videoService.UploadVideo)
}

// UploadThumbnail godoc
// @Summary Upload a JPEG or PNG thumbnail for a video
// @Description Multipart field "thumbnail".
// @Tags Videos
// @Accept multipart/form-data
// @Security BearerAuth
// @Success 200 {object} VideoResponse
// @Router /thumbnail_upload/{videoID} [post]
func (h *VideoHandler) UploadThumbnail(c *gin.Context) {
	h.upload(c, "thumbnail", h.maxThumbnailBytes, h.videoService.UploadThumbnail)
}

func (h *VideoHandler) upload(c *gin.Context, field string, limit int64, run func(context.Context, service.UploadRequest) (*domain.Video, error)) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	// Check ownership before the form is parsed, which may spool to disk.
	videoID := c.Param("videoID")
	video, err := h.videoService.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	if !video.IsOwnedBy(userID) {
		h.respondWithError(c, service.ErrForbidden)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	fileHeader, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("File exceeds %d bytes", limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Unable to read form file %q", field))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Unable to open form file")
		return
	}
	defer file.Close()

	video, err = run(c.Request.Context(), service.UploadRequest{
		VideoID:   videoID,
		UserID:    userID,
		MediaType: fileHeader.Header.Get("Content-Type"),
		Body:      file,
		Size:      fileHeader.Size,
	})
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapVideoToResponse(video))
}

// GetThumbnail godoc
// @Summary Serve stored thumbnail bytes
// @Tags Videos
// @Produce image/jpeg,image/png
// @Router /thumbnails/{thumbnailID} [get]
func (h *VideoHandler) GetThumbnail(c *gin.Context) {
	thumb, err := h.videoService.GetThumbnail(c.Request.Context(), c.Param("thumbnailID"))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, thumb.MediaType, thumb.Data)
}

// respondWithError maps service errors to status codes.
func (h *VideoHandler) respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrVideoNotFound), errors.Is(err, service.ErrThumbnailNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProbe), errors.Is(err, service.ErrRewrite):
		abortWithError(c, http.StatusUnprocessableEntity, "The uploaded file could not be processed as a video")
	case errors.Is(err, service.ErrPublish):
		h.logger.Error().Err(err).Msg("publish failed")
		abortWithError(c, http.StatusBadGateway, "Could not store the uploaded file")
	case errors.Is(err, service.ErrPersistence):
		// The object is published but the record does not point at it.
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("video stored but record not updated")
		abortWithError(c, http.StatusInternalServerError, "The video was stored but could not be saved to the record")
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
