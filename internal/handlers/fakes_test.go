package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]models.User
	watch  map[string][]string
	videos *fakeVideoStore
	subs   *fakeSubscriptionStore
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User), watch: make(map[string][]string)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id, fullName, email string) (models.User, error) {
	return s.patch(id, func(u *models.User) {
		u.FullName = fullName
		u.Email = email
	})
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	_, err := s.patch(id, func(u *models.User) { u.Password = passwordHash })
	return err
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, id, avatarURL string) (models.User, error) {
	return s.patch(id, func(u *models.User) { u.AvatarURL = avatarURL })
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, id, coverImageURL string) (models.User, error) {
	return s.patch(id, func(u *models.User) { u.CoverImageURL = coverImageURL })
}

func (s *fakeUserStore) patch(id string, apply func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	apply(&user)
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	profile := models.ChannelProfile{UserSummary: user.Summary(), CoverImageURL: user.CoverImageURL}
	if s.subs != nil {
		s.subs.mu.Lock()
		for _, pair := range s.subs.pairs {
			if pair.channel == user.ID {
				profile.SubscriberCount++
				if pair.subscriber == viewerID {
					profile.IsSubscribed = true
				}
			}
			if pair.subscriber == user.ID {
				profile.SubscribedToCount++
			}
		}
		s.subs.mu.Unlock()
	}
	return profile, nil
}

func (s *fakeUserStore) RecordWatch(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.watch[userID]
	filtered := make([]string, 0, len(history)+1)
	filtered = append(filtered, videoID)
	for _, id := range history {
		if id != videoID {
			filtered = append(filtered, id)
		}
	}
	s.watch[userID] = filtered
	return nil
}

func (s *fakeUserStore) WatchHistory(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.watch[userID]...)
	s.mu.Unlock()

	history := make([]models.VideoWithOwner, 0, len(ids))
	for _, id := range ids {
		video, err := s.videos.FindByID(ctx, id)
		if err != nil {
			continue
		}
		owner, _ := s.FindByID(ctx, video.OwnerID)
		history = append(history, models.VideoWithOwner{Video: video, OwnerDetails: owner.Summary()})
	}
	return history, nil
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
	order  []string
	users  *fakeUserStore
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]models.Video)}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	s.order = append(s.order, video.ID)
	return nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) Search(ctx context.Context, params repositories.VideoSearchParams) (models.VideoPage, error) {
	s.mu.Lock()
	matched := make([]models.Video, 0)
	for _, id := range s.order {
		video := s.videos[id]
		if !video.IsPublished {
			continue
		}
		if params.OwnerID != "" && video.OwnerID != params.OwnerID {
			continue
		}
		if params.Query != "" && !strings.Contains(strings.ToLower(video.Title+" "+video.Description), strings.ToLower(params.Query)) {
			continue
		}
		matched = append(matched, video)
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := models.VideoPage{Page: params.Page, Limit: params.Limit, TotalCount: int64(len(matched))}
	start := (params.Page - 1) * params.Limit
	for i := start; i < len(matched) && i < start+params.Limit; i++ {
		owner, _ := s.users.FindByID(ctx, matched[i].OwnerID)
		page.Videos = append(page.Videos, models.VideoWithOwner{Video: matched[i], OwnerDetails: owner.Summary()})
	}
	return page, nil
}

func (s *fakeVideoStore) ListByOwner(_ context.Context, ownerID string, publishedOnly bool) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	videos := make([]models.Video, 0)
	for _, id := range s.order {
		video := s.videos[id]
		if video.OwnerID != ownerID {
			continue
		}
		if publishedOnly && !video.IsPublished {
			continue
		}
		videos = append(videos, video)
	}
	return videos, nil
}

func (s *fakeVideoStore) UpdateDetails(_ context.Context, id, title, description string) (models.Video, error) {
	return s.patch(id, func(v *models.Video) {
		v.Title = title
		v.Description = description
	})
}

func (s *fakeVideoStore) UpdateThumbnail(_ context.Context, id, thumbnailURL string) (models.Video, error) {
	return s.patch(id, func(v *models.Video) { v.ThumbnailURL = thumbnailURL })
}

func (s *fakeVideoStore) SetPublished(_ context.Context, id string, published bool) (models.Video, error) {
	return s.patch(id, func(v *models.Video) { v.IsPublished = published })
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id string) error {
	_, err := s.patch(id, func(v *models.Video) { v.Views++ })
	return err
}

func (s *fakeVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) patch(id string, apply func(*models.Video)) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	apply(&video)
	s.videos[id] = video
	return video, nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
	order    []string
	users    *fakeUserStore
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.ID] = comment
	s.order = append(s.order, comment.ID)
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) ListByVideo(ctx context.Context, videoID string, page, limit int) (models.CommentPage, error) {
	s.mu.Lock()
	matched := make([]models.Comment, 0)
	for _, id := range s.order {
		if s.comments[id].VideoID == videoID {
			matched = append(matched, s.comments[id])
		}
	}
	s.mu.Unlock()

	result := models.CommentPage{Page: page, Limit: limit, TotalCount: int64(len(matched))}
	start := (page - 1) * limit
	for i := start; i < len(matched) && i < start+limit; i++ {
		owner, _ := s.users.FindByID(ctx, matched[i].OwnerID)
		result.Comments = append(result.Comments, models.CommentWithOwner{Comment: matched[i], OwnerDetails: owner.Summary()})
	}
	return result, nil
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeTweetStore struct {
	mu     sync.Mutex
	tweets map[string]models.Tweet
	order  []string
}

func newFakeTweetStore() *fakeTweetStore {
	return &fakeTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *fakeTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweets[tweet.ID] = tweet
	s.order = append(s.order, tweet.ID)
	return nil
}

func (s *fakeTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *fakeTweetStore) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweets := make([]models.Tweet, 0)
	for _, id := range s.order {
		if s.tweets[id].OwnerID == ownerID {
			tweets = append(tweets, s.tweets[id])
		}
	}
	return tweets, nil
}

func (s *fakeTweetStore) UpdateContent(_ context.Context, id, content string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *fakeTweetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type fakeLikeStore struct {
	mu     sync.Mutex
	likes  map[string]bool
	liked  map[string][]string
	videos *fakeVideoStore
	users  *fakeUserStore
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]bool), liked: make(map[string][]string)}
}

func (s *fakeLikeStore) ToggleVideoLike(_ context.Context, videoID, userID string) (bool, error) {
	created := s.toggle("v", videoID, userID)
	s.mu.Lock()
	if created {
		s.liked[userID] = append(s.liked[userID], videoID)
	} else {
		ids := s.liked[userID]
		for i, id := range ids {
			if id == videoID {
				s.liked[userID] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	return created, nil
}

func (s *fakeLikeStore) ToggleCommentLike(_ context.Context, commentID, userID string) (bool, error) {
	return s.toggle("c", commentID, userID), nil
}

func (s *fakeLikeStore) ToggleTweetLike(_ context.Context, tweetID, userID string) (bool, error) {
	return s.toggle("t", tweetID, userID), nil
}

func (s *fakeLikeStore) toggle(kind, targetID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := kind + ":" + targetID + ":" + userID
	if s.likes[key] {
		delete(s.likes, key)
		return false
	}
	s.likes[key] = true
	return true
}

func (s *fakeLikeStore) ListLikedVideos(ctx context.Context, userID string) ([]models.VideoWithOwner, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.liked[userID]...)
	s.mu.Unlock()

	videos := make([]models.VideoWithOwner, 0, len(ids))
	for _, id := range ids {
		video, err := s.videos.FindByID(ctx, id)
		if err != nil || !video.IsPublished {
			continue
		}
		owner, _ := s.users.FindByID(ctx, video.OwnerID)
		videos = append(videos, models.VideoWithOwner{Video: video, OwnerDetails: owner.Summary()})
	}
	return videos, nil
}

type subscriptionPair struct {
	subscriber string
	channel    string
}

type fakeSubscriptionStore struct {
	mu    sync.Mutex
	pairs []subscriptionPair
	users *fakeUserStore
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, pair := range s.pairs {
		if pair.subscriber == subscriberID && pair.channel == channelID {
			s.pairs = append(s.pairs[:i], s.pairs[i+1:]...)
			return false, nil
		}
	}
	s.pairs = append(s.pairs, subscriptionPair{subscriber: subscriberID, channel: channelID})
	return true, nil
}

func (s *fakeSubscriptionStore) ListSubscribers(ctx context.Context, channelID string) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]models.UserSummary, 0)
	for _, pair := range s.pairs {
		if pair.channel == channelID {
			user, _ := s.users.FindByID(ctx, pair.subscriber)
			members = append(members, user.Summary())
		}
	}
	return members, nil
}

func (s *fakeSubscriptionStore) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]models.UserSummary, 0)
	for _, pair := range s.pairs {
		if pair.subscriber == subscriberID {
			user, _ := s.users.FindByID(ctx, pair.channel)
			members = append(members, user.Summary())
		}
	}
	return members, nil
}

type fakePlaylistStore struct {
	mu        sync.Mutex
	playlists map[string]models.Playlist
	order     []string
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{playlists: make(map[string]models.Playlist)}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[playlist.ID] = playlist
	s.order = append(s.order, playlist.ID)
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlists := make([]models.Playlist, 0)
	for _, id := range s.order {
		if s.playlists[id].OwnerID == ownerID {
			playlists = append(playlists, s.playlists[id])
		}
	}
	return playlists, nil
}

func (s *fakePlaylistStore) Update(_ context.Context, id, name, description string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.Name = name
	playlist.Description = description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, id := range playlist.VideoIDs {
		if id == videoID {
			return repositories.ErrConflict
		}
	}
	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	s.playlists[playlistID] = playlist
	return nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, id := range playlist.VideoIDs {
		if id == videoID {
			playlist.VideoIDs = append(playlist.VideoIDs[:i], playlist.VideoIDs[i+1:]...)
			s.playlists[playlistID] = playlist
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeMediaStore struct {
	mu    sync.Mutex
	saved []string
}

func (s *fakeMediaStore) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	location := "https://cdn.test/" + name
	s.mu.Lock()
	s.saved = append(s.saved, location)
	s.mu.Unlock()
	return location, nil
}

type fakeCleaner struct {
	mu       sync.Mutex
	enqueued []string
}

func (c *fakeCleaner) Enqueue(_ context.Context, location string) error {
	c.mu.Lock()
	c.enqueued = append(c.enqueued, location)
	c.mu.Unlock()
	return nil
}

func (c *fakeCleaner) locations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.enqueued...)
}

// testEnv wires the full route table against in-memory stores and a real
// token manager, so tests drive the mux exactly like a client would.
type testEnv struct {
	mux       *http.ServeMux
	users     *fakeUserStore
	videos    *fakeVideoStore
	comments  *fakeCommentStore
	tweets    *fakeTweetStore
	likes     *fakeLikeStore
	subs      *fakeSubscriptionStore
	playlists *fakePlaylistStore
	media     *fakeMediaStore
	cleaner   *fakeCleaner
	slots     *auth.InMemorySlotStore
	manager   *auth.Manager
	codec     *auth.TokenCodec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserStore()
	videos := newFakeVideoStore()
	comments := newFakeCommentStore()
	likes := newFakeLikeStore()
	subs := newFakeSubscriptionStore()
	users.videos = videos
	users.subs = subs
	videos.users = users
	comments.users = users
	likes.videos = videos
	likes.users = users
	subs.users = users

	env := &testEnv{
		mux:       http.NewServeMux(),
		users:     users,
		videos:    videos,
		comments:  comments,
		tweets:    newFakeTweetStore(),
		likes:     likes,
		subs:      subs,
		playlists: newFakePlaylistStore(),
		media:     &fakeMediaStore{},
		cleaner:   &fakeCleaner{},
		slots:     auth.NewInMemorySlotStore(),
	}
	env.codec = auth.NewTokenCodec("access-secret", "refresh-secret", time.Minute, time.Hour)
	env.manager = auth.NewManager(env.codec, env.slots)

	RegisterRoutes(env.mux, Dependencies{
		Users:         env.users,
		Sessions:      env.manager,
		Verifier:      env.codec,
		Videos:        env.videos,
		Comments:      env.comments,
		Tweets:        env.tweets,
		Likes:         env.likes,
		Subscriptions: env.subs,
		Playlists:     env.playlists,
		Stats:         stubStats{},
		Media:         env.media,
		Cleaner:       env.cleaner,
	})
	return env
}

type stubStats struct{}

func (stubStats) ChannelStats(_ context.Context, _ string) (models.ChannelStats, error) {
	return models.ChannelStats{}, nil
}

// seedUser inserts a user directly and returns it with a valid access token.
func (e *testEnv) seedUser(t *testing.T, username string) (models.User, string) {
	t.Helper()

	hashed, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		FullName: username + " example",
		Password: hashed,
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, _, err := e.codec.IssueAccess(user.ID)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	return user, token
}

func (e *testEnv) seedVideo(t *testing.T, ownerID string, published bool) models.Video {
	t.Helper()

	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     "https://cdn.test/videos/" + uuid.NewString() + ".mp4",
		ThumbnailURL: "https://cdn.test/thumbnails/" + uuid.NewString() + ".png",
		Title:        "seeded video",
		Description:  "seeded description",
		IsPublished:  published,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := e.videos.Create(context.Background(), video); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return video
}

// do runs one request through the mux. A non-empty token rides the
// Authorization header.
func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// doMultipart runs one multipart request through the mux. files maps form
// field names to filenames; file contents are synthetic bytes.
func (e *testEnv) doMultipart(t *testing.T, method, target, token string, fields map[string]string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file %s: %v", field, err)
		}
		if _, err := part.Write([]byte("file-content")); err != nil {
			t.Fatalf("write form file %s: %v", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var body testEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if body.StatusCode != rec.Code {
		t.Fatalf("envelope status %d disagrees with response status %d", body.StatusCode, rec.Code)
	}
	if body.Success != (rec.Code < http.StatusBadRequest) {
		t.Fatalf("envelope success flag %v inconsistent with status %d", body.Success, rec.Code)
	}
	return body
}

func decodeData(t *testing.T, envelope testEnvelope, out any) {
	t.Helper()
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode envelope data: %v", err)
	}
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) testEnvelope {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, rec.Body.String())
	}
	return decodeEnvelope(t, rec)
}
