package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"tubely/backend/internal/domain"
	"tubely/backend/internal/media"
	"tubely/backend/internal/metrics"
	"tubely/backend/internal/repository"
	"tubely/backend/internal/staging"
	"tubely/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Accepted upload media types.
var (
	videoMediaTypes     = map[string]string{"video/mp4": "mp4"}
	thumbnailMediaTypes = map[string]string{"image/jpeg": "jpg", "image/png": "png"}
)

// UploadRequest is one uploaded file for a video. Body is read once.
type UploadRequest struct {
	VideoID   string
	UserID    string // Authenticated caller
	MediaType string // Declared Content-Type of the file part
	Body      io.Reader
	Size      int64 // Declared size in bytes, -1 if unknown
}

// OrientationProber classifies a staged video file.
type OrientationProber interface {
	ProbeOrientation(ctx context.Context, path string) (media.Orientation, error)
}

// StreamRewriter remuxes a staged video for progressive playback.
type StreamRewriter interface {
	OutputPath(path string) string
	RemuxForStreaming(ctx context.Context, path string) (string, error)
}

// VideoService owns video records and the upload pipelines that fill them.
type VideoService interface {
	CreateVideo(ctx context.Context, userID, title, description string) (*domain.Video, error)
	GetVideo(ctx context.Context, videoID string) (*domain.Video, error)
	ListVideos(ctx context.Context, userID string) ([]domain.Video, error)
	DeleteVideo(ctx context.Context, userID, videoID string) error

	// UploadVideo stages, probes, remuxes and publishes an MP4 and records its URL.
	UploadVideo(ctx context.Context, req UploadRequest) (*domain.Video, error)
	// UploadThumbnail stores a JPEG/PNG thumbnail and records its URL.
	UploadThumbnail(ctx context.Context, req UploadRequest) (*domain.Video, error)
	GetThumbnail(ctx context.Context, thumbnailID string) (*domain.Thumbnail, error)
}

// VideoServiceConfig holds the upload policy.
type VideoServiceConfig struct {
	MaxVideoBytes     int64
	MaxThumbnailBytes int64
	MaxConcurrent     int64 // Video pipelines allowed to run at once
	VerifyRemux       bool  // Re-probe the remuxed file before publishing
	// ThumbnailBaseURL is the public base of this API; thumbnail URLs are
	// {ThumbnailBaseURL}/api/thumbnails/{id}.
	ThumbnailBaseURL string
}

// VideoServiceDeps are the collaborators of the video service.
type VideoServiceDeps struct {
	Videos     repository.VideoRepository
	Thumbnails repository.ThumbnailRepository
	Files      storage.FileStorage
	Stager     *staging.Manager
	Prober     OrientationProber
	Rewriter   StreamRewriter
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

// videoService implements the VideoService interface.
type videoService struct {
	videos     repository.VideoRepository
	thumbnails repository.ThumbnailRepository
	files      storage.FileStorage
	stager     *staging.Manager
	prober     OrientationProber
	rewriter   StreamRewriter
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	cfg        VideoServiceConfig
	slots      *semaphore.Weighted
}

// NewVideoService creates a new instance of videoService.
func NewVideoService(deps VideoServiceDeps, cfg VideoServiceConfig) VideoService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	cfg.ThumbnailBaseURL = strings.TrimRight(cfg.ThumbnailBaseURL, "/")
	m := deps.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	return &videoService{
		videos:     deps.Videos,
		thumbnails: deps.Thumbnails,
		files:      deps.Files,
		stager:     deps.Stager,
		prober:     deps.Prober,
		rewriter:   deps.Rewriter,
		metrics:    m,
		logger:     deps.Logger.With().Str("component", "video_service").Logger(),
		cfg:        cfg,
		slots:      semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// --- Video records ---

// CreateVideo creates an empty video record owned by userID.
func (s *videoService) CreateVideo(ctx context.Context, userID, title, description string) (*domain.Video, error) {
	title = strings.TrimSpace(title)
	if userID == "" || title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	video := &domain.Video{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
	}
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// GetVideo returns a video record by ID.
func (s *videoService) GetVideo(ctx context.Context, videoID string) (*domain.Video, error) {
	if _, err := uuid.Parse(videoID); err != nil {
		return nil, fmt.Errorf("%w: invalid video ID", ErrValidation)
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return video, nil
}

// ListVideos returns the caller's videos.
func (s *videoService) ListVideos(ctx context.Context, userID string) ([]domain.Video, error) {
	return s.videos.ListByUser(ctx, userID)
}

// DeleteVideo removes a video record and then, best effort, its published
// object. A failed record delete leaves the object in place.
func (s *videoService) DeleteVideo(ctx context.Context, userID, videoID string) error {
	video, err := s.authorize(ctx, videoID, userID)
	if err != nil {
		return err
	}

	if err := s.videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}

	if video.VideoURL != nil {
		if key, ok := s.files.KeyFromURL(*video.VideoURL); ok {
			if err := s.files.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
				// The record is already gone; the object is only orphaned.
				s.logger.Warn().Err(err).Str("video_id", videoID).Str("key", key).Msg("failed to delete published video")
			}
		}
	}
	return nil
}

// authorize loads the video and checks that userID owns it.
func (s *videoService) authorize(ctx context.Context, videoID, userID string) (*domain.Video, error) {
	video, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsOwnedBy(userID) {
		return nil, ErrForbidden
	}
	return video, nil
}

// checkUpload validates the declared media type and size and returns the
// file extension for the type.
func checkUpload(req UploadRequest, accepted map[string]string, limit int64) (mediaType, ext string, err error) {
	if req.Body == nil {
		return "", "", fmt.Errorf("%w: missing file", ErrValidation)
	}
	mediaType, _, err = mime.ParseMediaType(req.MediaType)
	if err != nil {
		return "", "", fmt.Errorf("%w: invalid Content-Type %q", ErrValidation, req.MediaType)
	}
	ext, ok := accepted[mediaType]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported media type %q", ErrValidation, mediaType)
	}
	if req.Size > limit {
		return "", "", fmt.Errorf("%w: file is %d bytes, limit is %d", ErrValidation, req.Size, limit)
	}
	return mediaType, ext, nil
}

// --- Video upload pipeline ---

// UploadVideo runs stage -> probe -> remux -> publish -> persist. Every file
// staged along the way is removed before it returns, whatever the outcome.
func (s *videoService) UploadVideo(ctx context.Context, req UploadRequest) (video *domain.Video, err error) {
	defer func() { s.metrics.CountUpload(metrics.KindVideo, err) }()

	video, err = s.authorize(ctx, req.VideoID, req.UserID)
	if err != nil {
		return nil, err
	}
	mediaType, ext, err := checkUpload(req, videoMediaTypes, s.cfg.MaxVideoBytes)
	if err != nil {
		return nil, err
	}

	if err = s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for processing slot: %w", err)
	}
	s.metrics.InFlight.Inc()
	defer func() {
		s.metrics.InFlight.Dec()
		s.slots.Release(1)
	}()

	logger := s.logger.With().Str("video_id", video.ID).Str("user_id", req.UserID).Logger()
	session := s.stager.NewSession()
	// Cleanup does not look at ctx, so it still runs after cancellation.
	defer func() {
		if cerr := session.Release(); cerr != nil {
			logger.Error().Err(cerr).Msg("staged files left behind")
		}
	}()

	if err = s.processVideo(ctx, logger, session, video, mediaType, ext, req); err != nil {
		logger.Error().Err(err).Str("stderr", toolStderr(err)).Msg("video upload failed")
		return nil, err
	}
	logger.Info().Str("url", *video.VideoURL).Msg("video uploaded")
	return video, nil
}

func (s *videoService) processVideo(
	ctx context.Context,
	logger zerolog.Logger,
	session *staging.Session,
	video *domain.Video,
	mediaType, ext string,
	req UploadRequest,
) error {
	// Received -> Staged
	start := time.Now()
	staged, err := session.Stage(req.Body, ext, s.cfg.MaxVideoBytes)
	s.metrics.ObserveStage(metrics.StageStage, start)
	if err != nil {
		if errors.Is(err, staging.ErrTooLarge) {
			return fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.cfg.MaxVideoBytes)
		}
		return fmt.Errorf("stage upload: %w", err)
	}
	logger.Debug().Str("path", staged.Path).Int64("bytes", staged.Size).Msg("upload staged")

	// Staged -> Probed
	start = time.Now()
	orientation, err := s.prober.ProbeOrientation(ctx, staged.Path)
	s.metrics.ObserveStage(metrics.StageProbe, start)
	if err != nil {
		return err
	}

	// Probed -> Rewritten. The output is tracked first so a partial file is
	// released along with the input.
	session.Track(s.rewriter.OutputPath(staged.Path))
	start = time.Now()
	processed, err := s.rewriter.RemuxForStreaming(ctx, staged.Path)
	s.metrics.ObserveStage(metrics.StageRemux, start)
	if err != nil {
		return err
	}

	if s.cfg.VerifyRemux {
		start = time.Now()
		_, err = s.prober.ProbeOrientation(ctx, processed)
		s.metrics.ObserveStage(metrics.StageVerify, start)
		if err != nil {
			return fmt.Errorf("%w: remuxed file failed verification: %w", ErrRewrite, err)
		}
	}

	// Rewritten -> Published
	if err = ctx.Err(); err != nil {
		return err
	}
	key := fmt.Sprintf("%s/%s.%s", orientation, staged.ID, ext)
	start = time.Now()
	err = s.publishFile(ctx, key, processed, mediaType)
	s.metrics.ObserveStage(metrics.StagePublish, start)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	// Published -> Persisted
	url := s.files.URL(key)
	video.VideoURL = &url
	start = time.Now()
	err = s.videos.Update(ctx, video)
	s.metrics.ObserveStage(metrics.StagePersist, start)
	if err != nil {
		s.metrics.InconsistentRecords.Inc()
		logger.Error().Err(err).Str("key", key).Str("url", url).
			Msg("inconsistent state: video published but record not updated")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *videoService) publishFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open processed file: %w", err)
	}
	defer f.Close()
	return s.files.Put(ctx, key, f, contentType)
}

// toolStderr returns the diagnostic output of a failed media tool, if err
// carries one.
func toolStderr(err error) string {
	var toolErr *media.ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Stderr
	}
	return ""
}

// --- Thumbnails ---

// UploadThumbnail stores the image under its content hash and points the
// video's ThumbnailURL at it.
func (s *videoService) UploadThumbnail(ctx context.Context, req UploadRequest) (video *domain.Video, err error) {
	defer func() { s.metrics.CountUpload(metrics.KindThumbnail, err) }()

	video, err = s.authorize(ctx, req.VideoID, req.UserID)
	if err != nil {
		return nil, err
	}
	mediaType, _, err := checkUpload(req, thumbnailMediaTypes, s.cfg.MaxThumbnailBytes)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, s.cfg.MaxThumbnailBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxThumbnailBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.cfg.MaxThumbnailBytes)
	}
	if sniffed := http.DetectContentType(data); sniffed != mediaType {
		return nil, fmt.Errorf("%w: content is %s, declared %s", ErrValidation, sniffed, mediaType)
	}

	sum := sha256.Sum256(data)
	thumb := &domain.Thumbnail{
		ID:        hex.EncodeToString(sum[:]),
		MediaType: mediaType,
		Data:      data,
		Size:      int64(len(data)),
	}
	start := time.Now()
	err = s.thumbnails.Put(ctx, thumb)
	s.metrics.ObserveStage(metrics.StagePublish, start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublish, err)
	}

	url := s.cfg.ThumbnailBaseURL + "/api/thumbnails/" + thumb.ID
	video.ThumbnailURL = &url
	if err = s.videos.Update(ctx, video); err != nil {
		s.metrics.InconsistentRecords.Inc()
		s.logger.Error().Err(err).Str("video_id", video.ID).Str("thumbnail_id", thumb.ID).
			Msg("inconsistent state: thumbnail stored but record not updated")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return video, nil
}

// GetThumbnail returns stored thumbnail bytes.
func (s *videoService) GetThumbnail(ctx context.Context, thumbnailID string) (*domain.Thumbnail, error) {
	thumb, err := s.thumbnails.Get(ctx, thumbnailID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThumbnailNotFound
		}
		return nil, err
	}
	return thumb, nil
}
