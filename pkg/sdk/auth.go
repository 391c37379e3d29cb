package sdk

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	loginPath    = "auth/token/login"
	logoutPath   = "auth/token/logout"
	registerPath = "auth/users/"
	mePath       = "auth/users/me/"
)

// Identity is the authenticated user's profile.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsStaff  bool   `json:"is_staff,omitempty"`
	BrokerID *int64 `json:"broker_id,omitempty"`
}

// LoginInput holds the credentials sent to the token endpoint.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&in.Password, validation.Required),
	)
}

// RegisterInput holds the fields sent to the registration endpoint.
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// Validate checks required fields and the optional email format.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 150)),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.Email, is.Email),
	)
}

type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

func requestToken(ctx context.Context, t *Transport, in LoginInput) (string, error) {
	var resp loginResponse
	if err := t.Do(ctx, http.MethodPost, loginPath, nil, in, &resp); err != nil {
		return "", err
	}
	if resp.AuthToken == "" {
		return "", ErrMissingToken
	}
	return resp.AuthToken, nil
}

func registerUser(ctx context.Context, t *Transport, in RegisterInput) error {
	return t.Do(ctx, http.MethodPost, registerPath, nil, in, nil)
}

func revokeToken(ctx context.Context, t *Transport) error {
	return t.Do(ctx, http.MethodPost, logoutPath, nil, nil, nil)
}

func fetchMe(ctx context.Context, t *Transport) (*Identity, error) {
	var identity Identity
	if err := t.Do(ctx, http.MethodGet, mePath, nil, nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}
