package handlers

import (
	"context"
	"net/http"

	"github.com/clipstream/backend/internal/logging"
)

// LikeHandler implements the idempotent like toggles.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	Tweets   TweetStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId} requests.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("videoId")

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "video does not exist")
		return
	}

	h.toggle(w, r, videoID, h.Likes.ToggleVideoLike)
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId} requests.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	commentID := r.PathValue("commentId")

	if _, err := h.Comments.FindByID(ctx, commentID); err != nil {
		respondStoreError(ctx, w, err, "comment does not exist")
		return
	}

	h.toggle(w, r, commentID, h.Likes.ToggleCommentLike)
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId} requests.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tweetID := r.PathValue("tweetId")

	if _, err := h.Tweets.FindByID(ctx, tweetID); err != nil {
		respondStoreError(ctx, w, err, "tweet does not exist")
		return
	}

	h.toggle(w, r, tweetID, h.Likes.ToggleTweetLike)
}

// ListLikedVideos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) ListLikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := caller(r)

	videos, err := h.Likes.ListLikedVideos(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos, "liked videos fetched")
}

// toggle runs one toggle and maps its outcome: a created like is 201, a
// removed one is 200. The caller has already confirmed the target exists.
func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, targetID string, fn func(context.Context, string, string) (bool, error)) {
	ctx := r.Context()
	user := caller(r)

	liked, err := fn(ctx, targetID, user.ID)
	if err != nil {
		logging.FromContext(ctx).Error("like toggle failed", "targetId", targetID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	if liked {
		respondJSON(ctx, w, http.StatusCreated, likeState{Liked: true}, "liked")
		return
	}
	respondJSON(ctx, w, http.StatusOK, likeState{Liked: false}, "like removed")
}

type likeState struct {
	Liked bool `json:"liked"`
}
