package auth

import (
	"sitecooking/pkg/response"
	"sitecooking/pkg/view"
)

type RegisterRequest struct {
	Username             string `json:"username" form:"username" validate:"required,min=3,max=150,slug"`
	Email                string `json:"email" form:"email" validate:"required,email,max=254"`
	Password             string `json:"password" form:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password"`
}

type LoginUserRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"next" form:"next"`
}

type LoginUserResponse struct {
	AccessToken      string  `json:"accessToken"`
	ExpiresInMinutes float64 `json:"expiresInMinutes"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type RegisterForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginPage struct {
	view.Frame
	Errors        response.FieldErrors `json:"errors,omitempty"`
	Next          string               `json:"next"`
	Username      string               `json:"username"`
	GoogleEnabled bool                 `json:"google_enabled"`
}

type RegisterPage struct {
	view.Frame
	Form   RegisterForm         `json:"form"`
	Errors response.FieldErrors `json:"errors,omitempty"`
}
