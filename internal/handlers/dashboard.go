package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/logging"
)

// DashboardHandler implements the channel owner's dashboard endpoints.
type DashboardHandler struct {
	Provider StatsProvider
	Library  VideoStore
}

// Stats handles GET /api/v1/dashboard/stats requests. A channel with no
// uploads or followers gets zero-valued stats, not an error.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := caller(r)

	if h.Provider == nil {
		logging.FromContext(ctx).Error("stats provider unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "dashboard services unavailable")
		return
	}

	stats, err := h.Provider.ChannelStats(ctx, owner.ID)
	if err != nil {
		logging.FromContext(ctx).Error("channel stats failed", "channelId", owner.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats, "channel stats fetched")
}

// Videos handles GET /api/v1/dashboard/videos requests: every video the
// caller owns, drafts included.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := caller(r)

	videos, err := h.Library.ListByOwner(ctx, owner.ID, false)
	if err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, videos, "channel videos fetched")
}
