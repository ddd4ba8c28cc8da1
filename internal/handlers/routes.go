package handlers

import (
	"net/http"
	"time"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Verifier      AccessVerifier
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Stats         StatsProvider
	Media         MediaStore
	Cleaner       AssetCleaner

	AuthLimiter    RateLimiter
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Method and
// path-parameter matching is delegated to the mux patterns; handlers never
// re-check the verb.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	gate := AuthGate{Verifier: deps.Verifier, Users: deps.Users}
	users := UserHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Cleaner:        deps.Cleaner,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Users:          deps.Users,
		Media:          deps.Media,
		Cleaner:        deps.Cleaner,
		MaxUploadBytes: deps.MaxUploadBytes,
		NowFunc:        deps.NowFunc,
	}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, NowFunc: deps.NowFunc}
	likes := LikeHandler{Likes: deps.Likes, Videos: deps.Videos, Comments: deps.Comments, Tweets: deps.Tweets}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users, NowFunc: deps.NowFunc}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Users: deps.Users, NowFunc: deps.NowFunc}
	dashboard := DashboardHandler{Provider: deps.Stats, Library: deps.Videos}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", rateLimited(deps.AuthLimiter, "register", users.Register))
	mux.HandleFunc("POST /api/v1/users/login", rateLimited(deps.AuthLimiter, "login", users.Login))
	mux.HandleFunc("POST /api/v1/users/renew-token", rateLimited(deps.AuthLimiter, "renew", users.RenewToken))
	mux.HandleFunc("POST /api/v1/users/logout", gate.Require(users.Logout))
	mux.HandleFunc("POST /api/v1/users/change-password", gate.Require(users.ChangePassword))
	mux.HandleFunc("GET /api/v1/users/current-user", gate.Require(users.CurrentUser))
	mux.HandleFunc("PATCH /api/v1/users/update-profile", gate.Require(users.UpdateProfile))
	mux.HandleFunc("PATCH /api/v1/users/avatar", gate.Require(users.UpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/cover-image", gate.Require(users.UpdateCoverImage))
	mux.HandleFunc("GET /api/v1/users/c/{username}", gate.Require(users.ChannelProfile))
	mux.HandleFunc("GET /api/v1/users/history", gate.Require(users.WatchHistory))

	mux.HandleFunc("GET /api/v1/videos", gate.Require(videos.Search))
	mux.HandleFunc("POST /api/v1/videos", gate.Require(videos.Publish))
	mux.HandleFunc("GET /api/v1/videos/{videoId}", gate.Require(videos.GetByID))
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", gate.Require(videos.UpdateDetails))
	mux.HandleFunc("PATCH /api/v1/videos/thumbnail/{videoId}", gate.Require(videos.UpdateThumbnail))
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", gate.Require(videos.Delete))
	mux.HandleFunc("PATCH /api/v1/videos/toggle/publish/{videoId}", gate.Require(videos.TogglePublish))

	mux.HandleFunc("GET /api/v1/comments/{videoId}", gate.Require(comments.List))
	mux.HandleFunc("POST /api/v1/comments/{videoId}", gate.Require(comments.Create))
	mux.HandleFunc("PATCH /api/v1/comments/c/{commentId}", gate.Require(comments.Update))
	mux.HandleFunc("DELETE /api/v1/comments/c/{commentId}", gate.Require(comments.Delete))

	mux.HandleFunc("POST /api/v1/likes/toggle/v/{videoId}", gate.Require(likes.ToggleVideo))
	mux.HandleFunc("POST /api/v1/likes/toggle/c/{commentId}", gate.Require(likes.ToggleComment))
	mux.HandleFunc("POST /api/v1/likes/toggle/t/{tweetId}", gate.Require(likes.ToggleTweet))
	mux.HandleFunc("GET /api/v1/likes/videos", gate.Require(likes.ListLikedVideos))

	mux.HandleFunc("POST /api/v1/tweets", gate.Require(tweets.Create))
	mux.HandleFunc("GET /api/v1/tweets/user/{userId}", gate.Require(tweets.ListByUser))
	mux.HandleFunc("PATCH /api/v1/tweets/{tweetId}", gate.Require(tweets.Update))
	mux.HandleFunc("DELETE /api/v1/tweets/{tweetId}", gate.Require(tweets.Delete))

	mux.HandleFunc("POST /api/v1/subscriptions/c/{channelId}", gate.Require(subscriptions.Toggle))
	mux.HandleFunc("GET /api/v1/subscriptions/c/{channelId}", gate.Require(subscriptions.ListSubscribers))
	mux.HandleFunc("GET /api/v1/subscriptions/u/{subscriberId}", gate.Require(subscriptions.ListSubscribedChannels))

	mux.HandleFunc("POST /api/v1/playlists", gate.Require(playlists.Create))
	mux.HandleFunc("GET /api/v1/playlists/{playlistId}", gate.Require(playlists.Get))
	mux.HandleFunc("PATCH /api/v1/playlists/{playlistId}", gate.Require(playlists.Update))
	mux.HandleFunc("DELETE /api/v1/playlists/{playlistId}", gate.Require(playlists.Delete))
	mux.HandleFunc("PATCH /api/v1/playlists/add/{videoId}/{playlistId}", gate.Require(playlists.AddVideo))
	mux.HandleFunc("PATCH /api/v1/playlists/remove/{videoId}/{playlistId}", gate.Require(playlists.RemoveVideo))
	mux.HandleFunc("GET /api/v1/playlists/user/{userId}", gate.Require(playlists.ListByUser))

	mux.HandleFunc("GET /api/v1/dashboard/stats", gate.Require(dashboard.Stats))
	mux.HandleFunc("GET /api/v1/dashboard/videos", gate.Require(dashboard.Videos))
}
