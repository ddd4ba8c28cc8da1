package handlers

import (
	"net/http"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

func TestDashboardStatsEmptyChannel(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice")

	// A brand-new channel still gets a 200 with zero-valued stats.
	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/stats", token, nil)
	envelope := requireStatus(t, rec, http.StatusOK)

	var stats models.ChannelStats
	decodeData(t, envelope, &stats)
	if stats.TotalVideos != 0 || stats.TotalViews != 0 || stats.TotalSubscribers != 0 || stats.TotalLikes != 0 {
		t.Fatalf("expected zero-valued stats, got %+v", stats)
	}
}

func TestDashboardVideosIncludesDrafts(t *testing.T) {
	env := newTestEnv(t)
	owner, token := env.seedUser(t, "alice")
	env.seedVideo(t, owner.ID, true)
	env.seedVideo(t, owner.ID, false)

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/videos", token, nil)
	envelope := requireStatus(t, rec, http.StatusOK)

	var videos []models.Video
	decodeData(t, envelope, &videos)
	if len(videos) != 2 {
		t.Fatalf("expected drafts to be included, got %d videos", len(videos))
	}
}
