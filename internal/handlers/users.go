package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const refreshTokenCookie = "refreshToken"

// UserHandler implements account, session, and profile endpoints.
type UserHandler struct {
	Users          UserStore
	Sessions       SessionManager
	Media          MediaStore
	Cleaner        AssetCleaner
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Register handles POST /api/v1/users/register requests. Registration is a
// multipart form: the avatar image is mandatory, the cover image is not.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Media == nil {
		logger.Error("registration dependencies unavailable", "hasUsers", h.Users != nil, "hasMedia", h.Media != nil)
		respondError(ctx, w, http.StatusInternalServerError, "registration services unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid registration form", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	password := r.FormValue("password")

	if username == "" || email == "" || fullName == "" || password == "" {
		logger.Warn("registration missing fields", "username", username, "email", email)
		respondError(ctx, w, http.StatusBadRequest, "username, email, fullName and password are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		logger.Warn("registration invalid email", "email", email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(password) < 8 {
		logger.Warn("registration password too short", "username", username)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if taken, err := h.identityTaken(r, username, email); err != nil {
		logger.Error("registration uniqueness check failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing accounts")
		return
	} else if taken {
		logger.Warn("registration duplicate identity", "username", username, "email", email)
		respondError(ctx, w, http.StatusConflict, "username or email already registered")
		return
	}

	avatar, err := media.RequireFile(r, "avatar")
	if err != nil {
		logger.Warn("registration missing avatar", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "avatar image is required")
		return
	}
	defer avatar.Close()
	if !avatar.HasAllowedExtension(media.ImageExtensions) {
		respondError(ctx, w, http.StatusBadRequest, "avatar must be a jpg, jpeg or png image")
		return
	}

	avatarURL, err := h.Media.Save(ctx, avatar.StorageKey("avatars"), avatar.File)
	if err != nil {
		logger.Error("registration avatar upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	var coverURL string
	cover, ok, err := media.OptionalFile(r, "coverImage")
	if err != nil {
		logger.Warn("registration malformed cover image", "error", err)
		h.discard(ctx, avatarURL)
		respondError(ctx, w, http.StatusBadRequest, "invalid cover image upload")
		return
	}
	if ok {
		defer cover.Close()
		if !cover.HasAllowedExtension(media.ImageExtensions) {
			h.discard(ctx, avatarURL)
			respondError(ctx, w, http.StatusBadRequest, "cover image must be a jpg, jpeg or png image")
			return
		}
		coverURL, err = h.Media.Save(ctx, cover.StorageKey("covers"), cover.File)
		if err != nil {
			logger.Error("registration cover upload failed", "error", err)
			h.discard(ctx, avatarURL)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("registration failed to hash password", "error", err)
		h.discard(ctx, avatarURL, coverURL)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      hashed,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		h.discard(ctx, avatarURL, coverURL)
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("registration conflict", "username", username, "email", email)
			respondError(ctx, w, http.StatusConflict, "username or email already registered")
			return
		}
		logger.Error("registration failed to create user", "error", err, "username", username)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	logger.Info("user registered", "userId", user.ID, "username", username)
	respondJSON(ctx, w, http.StatusCreated, user, "account created")
}

// Login handles POST /api/v1/users/login requests. Either the email or the
// username identifies the account.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if (req.Email == "" && req.Username == "") || req.Password == "" {
		logger.Warn("login missing credentials")
		respondError(ctx, w, http.StatusBadRequest, "email or username and password are required")
		return
	}

	user, err := h.findAccount(r, req.Email, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("login unknown account", "email", req.Email, "username", req.Username)
			respondError(ctx, w, http.StatusNotFound, "account does not exist")
			return
		}
		logger.Error("login account lookup failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !auth.VerifyPassword(req.Password, user.Password) {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Rotate(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	setAuthCookies(w, tokens)
	logger.Info("user logged in", "userId", user.ID)
	respondJSON(ctx, w, http.StatusOK, sessionResponse{User: user, Tokens: tokens}, "logged in")
}

// RenewToken handles POST /api/v1/users/renew-token requests. The refresh
// token arrives in the body or the refreshToken cookie; redeeming it is
// one-time-use, so a replayed token earns a 401 and forces a fresh login.
func (h UserHandler) RenewToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	presented := refreshTokenFromRequest(r)
	if presented == "" {
		logger.Warn("renew missing refresh token")
		respondError(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenMismatch):
			logger.Warn("refresh token rejected", "error", err)
			respondError(ctx, w, http.StatusUnauthorized, "invalid or expired refresh token")
		default:
			logger.Error("refresh failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		}
		return
	}

	setAuthCookies(w, tokens)
	respondJSON(ctx, w, http.StatusOK, tokenResponse{Tokens: tokens}, "session renewed")
}

// Logout handles POST /api/v1/users/logout requests. Revocation clears the
// server-side slot, so outstanding refresh tokens die with the session.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	user := caller(r)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		logger.Error("logout failed", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to log out")
		return
	}

	clearAuthCookies(w)
	logger.Info("user logged out", "userId", user.ID)
	respondJSON(ctx, w, http.StatusOK, nil, "logged out")
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	user := caller(r)

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, http.StatusBadRequest, "oldPassword and newPassword are required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if !auth.VerifyPassword(req.OldPassword, user.Password) {
		logger.Warn("change password old mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusBadRequest, "old password is incorrect")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change password hash failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	logger.Info("password changed", "userId", user.ID)
	respondJSON(ctx, w, http.StatusOK, nil, "password changed")
}

// CurrentUser handles GET /api/v1/users/current-user requests.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, caller(r), "current user")
}

// UpdateProfile handles PATCH /api/v1/users/update-profile requests.
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	user := caller(r)

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName and email are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	updated, err := h.Users.UpdateProfile(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "profile updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar requests. The replaced
// asset is removed in the background.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", "avatars", func(u models.User) string {
		return u.AvatarURL
	}, h.Users.UpdateAvatar)
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", "covers", func(u models.User) string {
		return u.CoverImageURL
	}, h.Users.UpdateCoverImage)
}

// ChannelProfile handles GET /api/v1/users/c/{username} requests.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewer := caller(r)

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile, "channel profile")
}

// WatchHistory handles GET /api/v1/users/history requests.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := caller(r)

	history, err := h.Users.WatchHistory(ctx, user.ID)
	if err != nil {
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	respondJSON(ctx, w, http.StatusOK, history, "watch history")
}

func (h UserHandler) replaceImage(
	w http.ResponseWriter,
	r *http.Request,
	field, prefix string,
	current func(models.User) string,
	update func(ctx context.Context, id, url string) (models.User, error),
) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	user := caller(r)

	if h.Media == nil {
		logger.Error("media store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "media services unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid image form", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	upload, err := media.RequireFile(r, field)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, field+" image is required")
		return
	}
	defer upload.Close()
	if !upload.HasAllowedExtension(media.ImageExtensions) {
		respondError(ctx, w, http.StatusBadRequest, field+" must be a jpg, jpeg or png image")
		return
	}

	location, err := h.Media.Save(ctx, upload.StorageKey(prefix), upload.File)
	if err != nil {
		logger.Error("image upload failed", "field", field, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store image")
		return
	}

	updated, err := update(ctx, user.ID, location)
	if err != nil {
		h.discard(ctx, location)
		respondStoreError(ctx, w, err, "account does not exist")
		return
	}

	h.discard(ctx, current(user))
	respondJSON(ctx, w, http.StatusOK, updated, field+" updated")
}

// identityTaken reports whether the username or email is already registered.
func (h UserHandler) identityTaken(r *http.Request, username, email string) (bool, error) {
	ctx := r.Context()

	if _, err := h.Users.FindByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}

	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}

	return false, nil
}

func (h UserHandler) findAccount(r *http.Request, email, username string) (models.User, error) {
	if email != "" {
		return h.Users.FindByEmail(r.Context(), email)
	}
	return h.Users.FindByUsername(r.Context(), username)
}

// discard hands replaced or orphaned assets to the cleaner. Best effort; a
// full queue only delays removal, it never fails the request.
func (h UserHandler) discard(ctx context.Context, locations ...string) {
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

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h UserHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 256 << 20
}

func refreshTokenFromRequest(r *http.Request) string {
	var req renewTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		if token := strings.TrimSpace(req.RefreshToken); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func setAuthCookies(w http.ResponseWriter, tokens models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type renewTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	User   models.User      `json:"user"`
	Tokens models.TokenPair `json:"tokens"`
}

type tokenResponse struct {
	Tokens models.TokenPair `json:"tokens"`
}
