package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// TweetHandler implements the short-post endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Users   UserStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets requests.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	author := caller(r)

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid tweet payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweet content is required")
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   author.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, tweet, "tweet created")
}

// ListByUser handles GET /api/v1/tweets/user/{userId} requests.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("userId")
	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	tweets, err := h.Tweets.ListByOwner(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, tweets, "tweets fetched")
}

// Update handles PATCH /api/v1/tweets/{tweetId} requests. Submitting the
// exact content already stored is rejected, so every accepted update is a
// real change.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, ok := h.ownedTweet(w, r)
	if !ok {
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweet content is required")
		return
	}
	if req.Content == tweet.Content {
		respondError(ctx, w, http.StatusBadRequest, "tweet content is unchanged")
		return
	}

	updated, err := h.Tweets.UpdateContent(ctx, tweet.ID, req.Content)
	if err != nil {
		respondStoreError(ctx, w, err, "tweet does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "tweet updated")
}

// Delete handles DELETE /api/v1/tweets/{tweetId} requests.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, ok := h.ownedTweet(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondStoreError(ctx, w, err, "tweet does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "tweet deleted")
}

func (h TweetHandler) ownedTweet(w http.ResponseWriter, r *http.Request) (models.Tweet, bool) {
	ctx := r.Context()
	user := caller(r)

	tweet, err := h.Tweets.FindByID(ctx, r.PathValue("tweetId"))
	if err != nil {
		respondStoreError(ctx, w, err, "tweet does not exist")
		return models.Tweet{}, false
	}

	if err := auth.AssertOwner(tweet.OwnerID, user.ID); err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			respondError(ctx, w, http.StatusForbidden, "you do not own this tweet")
			return models.Tweet{}, false
		}
		logging.FromContext(ctx).Error("ownership check failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return models.Tweet{}, false
	}

	return tweet, true
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type tweetRequest struct {
	Content string `json:"content"`
}
