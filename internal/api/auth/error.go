package auth

import (
	"net/http"

	"sitecooking/pkg/response"
)

var (
	ErrUserAlreadyExists         = response.NewError(http.StatusConflict, "user already exists")
	ErrInvalidUsernameOrPassword = response.NewError(http.StatusBadRequest, "please enter a correct username and password")
	ErrUserNotFound              = response.NewError(http.StatusNotFound, "user not found")
	ErrGoogleLoginDisabled       = response.NewError(http.StatusNotFound, "google login is not configured")
	ErrInvalidOAuthState         = response.NewError(http.StatusBadRequest, "invalid oauth state")
	ErrUnverifiedEmail           = response.NewError(http.StatusBadRequest, "google account email is not verified")
	ErrFailedToCreateUser        = response.NewError(http.StatusInternalServerError, "failed to create user")
)
