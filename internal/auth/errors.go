package auth

import "errors"

var (
	// ErrInvalidCredentials indicates the presented password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a token failed signature or expiry validation.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrTokenMismatch indicates a refresh token is no longer the user's current one.
	ErrTokenMismatch = errors.New("refresh token mismatch")
	// ErrUnknownSubject indicates a valid token whose subject no longer resolves to a user.
	ErrUnknownSubject = errors.New("token subject no longer exists")
	// ErrTokenIssuance indicates the token slot could not be loaded or saved.
	ErrTokenIssuance = errors.New("token issuance failed")
	// ErrForbidden indicates the authenticated caller does not own the resource.
	ErrForbidden = errors.New("caller is not the resource owner")
)
