package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// VideoHandler implements video upload, listing, and lifecycle endpoints.
type VideoHandler struct {
	Videos         VideoStore
	Users          UserStore
	Media          MediaStore
	Cleaner        AssetCleaner
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Search handles GET /api/v1/videos requests: published videos of a channel,
// optionally filtered by free text and sorted.
func (h VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := repositories.VideoSearchParams{
		OwnerID:  strings.TrimSpace(r.URL.Query().Get("userId")),
		Query:    strings.TrimSpace(r.URL.Query().Get("query")),
		SortBy:   strings.TrimSpace(r.URL.Query().Get("sortBy")),
		SortType: strings.TrimSpace(r.URL.Query().Get("sortType")),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 10),
	}

	page, err := h.Videos.Search(ctx, params)
	if err != nil {
		respondStoreError(ctx, w, err, "videos not found")
		return
	}

	respondJSON(ctx, w, http.StatusOK, page, "videos fetched")
}

// Publish handles POST /api/v1/videos requests: a multipart upload carrying
// the video file and its thumbnail.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "videos.publish")
	defer span.End()

	logger := logging.FromContext(ctx)
	owner := caller(r)

	if h.Media == nil {
		logger.Error("media store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "media services unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid video upload form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	videoFile, err := media.RequireFile(r, "videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}
	defer videoFile.Close()
	if !videoFile.HasAllowedExtension(media.VideoExtensions) {
		respondError(ctx, w, http.StatusBadRequest, "video must be an mp4 file")
		return
	}

	thumbnail, err := media.RequireFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail image is required")
		return
	}
	defer thumbnail.Close()
	if !thumbnail.HasAllowedExtension(media.ImageExtensions) {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail must be a jpg, jpeg or png image")
		return
	}

	videoURL, err := h.Media.Save(ctx, videoFile.StorageKey("videos"), videoFile.File)
	if err != nil {
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbnailURL, err := h.Media.Save(ctx, thumbnail.StorageKey("thumbnails"), thumbnail.File)
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		h.discard(ctx, videoURL)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      owner.ID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.discard(ctx, videoURL, thumbnailURL)
		respondStoreError(ctx, w, err, "owner does not exist")
		return
	}

	logger.Info("video published", "videoId", video.ID, "ownerId", owner.ID)
	respondJSON(ctx, w, http.StatusCreated, video, "video published")
}

// GetByID handles GET /api/v1/videos/{videoId} requests. A successful fetch
// counts a view and lands in the caller's watch history.
func (h VideoHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	viewer := caller(r)

	videoID := r.PathValue("videoId")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video does not exist")
		return
	}

	// The fetch succeeds regardless of bookkeeping: a lost view count or
	// history row is not worth a 500.
	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		logger.Warn("view increment failed", "videoId", videoID, "error", err)
	} else {
		video.Views++
	}
	if h.Users != nil {
		if err := h.Users.RecordWatch(ctx, viewer.ID, videoID); err != nil {
			logger.Warn("watch history record failed", "videoId", videoID, "userId", viewer.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, video, "video fetched")
}

// UpdateDetails handles PATCH /api/v1/videos/{videoId} requests.
func (h VideoHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	var req videoDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.Title == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	updated, err := h.Videos.UpdateDetails(ctx, video.ID, req.Title, req.Description)
	if err != nil {
		respondStoreError(ctx, w, err, "video does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "video updated")
}

// UpdateThumbnail handles PATCH /api/v1/videos/thumbnail/{videoId} requests.
func (h VideoHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if h.Media == nil {
		logger.Error("media store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "media services unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid thumbnail form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	upload, err := media.RequireFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail image is required")
		return
	}
	defer upload.Close()
	if !upload.HasAllowedExtension(media.ImageExtensions) {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail must be a jpg, jpeg or png image")
		return
	}

	location, err := h.Media.Save(ctx, upload.StorageKey("thumbnails"), upload.File)
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	updated, err := h.Videos.UpdateThumbnail(ctx, video.ID, location)
	if err != nil {
		h.discard(ctx, location)
		respondStoreError(ctx, w, err, "video does not exist")
		return
	}

	h.discard(ctx, video.ThumbnailURL)
	respondJSON(ctx, w, http.StatusOK, updated, "thumbnail updated")
}

// Delete handles DELETE /api/v1/videos/{videoId} requests. Hosted assets are
// removed after the row so a failed delete never strands a live video
// without its files.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondStoreError(ctx, w, err, "video does not exist")
		return
	}

	h.discard(ctx, video.VideoURL, video.ThumbnailURL)
	logger.Info("video deleted", "videoId", video.ID)
	respondJSON(ctx, w, http.StatusOK, nil, "video deleted")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId} requests.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	updated, err := h.Videos.SetPublished(ctx, video.ID, !video.IsPublished)
	if err != nil {
		respondStoreError(ctx, w, err, "video does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "publish status toggled")
}

// ownedVideo loads the path video and enforces ownership. On failure it has
// already written the response.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()
	user := caller(r)

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoId"))
	if err != nil {
		respondStoreError(ctx, w, err, "video does not exist")
		return models.Video{}, false
	}

	if err := auth.AssertOwner(video.OwnerID, user.ID); err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			respondError(ctx, w, http.StatusForbidden, "you do not own this video")
			return models.Video{}, false
		}
		logging.FromContext(ctx).Error("ownership check failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return models.Video{}, false
	}

	return video, true
}

func (h VideoHandler) discard(ctx context.Context, locations ...string) {
	if h.Cleaner == nil {
		return
	}
	for _, location := range locations {
		if location == "" {
			continue
		}
		if err := h.Cleaner.Enqueue(ctx, location); err != nil {
			logging.FromContext(ctx).Warn("asset cleanup enqueue failed", "location", location, "error", err)
		}
	}
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h VideoHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 256 << 20
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

type videoDetailsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
