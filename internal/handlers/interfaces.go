package handlers

import (
	"context"
	"io"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (models.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
}

// SessionManager owns the token lifecycle for authenticated users.
type SessionManager interface {
	Rotate(ctx context.Context, userID string) (models.TokenPair, error)
	Refresh(ctx context.Context, presented string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// AccessVerifier validates an access token and resolves its subject.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Search(ctx context.Context, params repositories.VideoSearchParams) (models.VideoPage, error)
	ListByOwner(ctx context.Context, ownerID string, publishedOnly bool) ([]models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description string) (models.Video, error)
	UpdateThumbnail(ctx context.Context, id, thumbnailURL string) (models.Video, error)
	SetPublished(ctx context.Context, id string, published bool) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comment threads.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page, limit int) (models.CommentPage, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// LikeStore captures the idempotent like toggles.
type LikeStore interface {
	ToggleVideoLike(ctx context.Context, videoID, userID string) (bool, error)
	ToggleCommentLike(ctx context.Context, commentID, userID string) (bool, error)
	ToggleTweetLike(ctx context.Context, tweetID, userID string) (bool, error)
	ListLikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error)
}

// SubscriptionStore captures channel membership operations.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.UserSummary, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.UserSummary, error)
}

// MediaStore hosts uploaded assets and returns their public location.
type MediaStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// AssetCleaner schedules background removal of replaced or orphaned assets.
type AssetCleaner interface {
	Enqueue(ctx context.Context, location string) error
}

// StatsProvider computes dashboard aggregates for one channel.
type StatsProvider interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}
