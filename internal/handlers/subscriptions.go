package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/logging"
)

// SubscriptionHandler implements channel membership endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId} requests.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriber := caller(r)

	channelID := r.PathValue("channelId")
	if channelID == subscriber.ID {
		respondError(ctx, w, http.StatusBadRequest, "you cannot subscribe to your own channel")
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondStoreError(ctx, w, err, "channel does not exist")
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, subscriber.ID, channelID)
	if err != nil {
		logging.FromContext(ctx).Error("subscription toggle failed", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	if subscribed {
		respondJSON(ctx, w, http.StatusCreated, subscriptionState{Subscribed: true}, "subscribed")
		return
	}
	respondJSON(ctx, w, http.StatusOK, subscriptionState{Subscribed: false}, "unsubscribed")
}

// ListSubscribers handles GET /api/v1/subscriptions/c/{channelId} requests.
func (h SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID := r.PathValue("channelId")
	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondStoreError(ctx, w, err, "channel does not exist")
		return
	}

	subscribers, err := h.Subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, subscribers, "subscribers fetched")
}

// ListSubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId} requests.
func (h SubscriptionHandler) ListSubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID := r.PathValue("subscriberId")
	if _, err := h.Users.FindByID(ctx, subscriberID); err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	channels, err := h.Subscriptions.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, channels, "subscribed channels fetched")
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}
