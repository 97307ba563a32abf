package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/noah-isme/office-admin/internal/models"
	appErrors "github.com/noah-isme/office-admin/pkg/errors"
)

// AuthAPI wraps the /api/auth endpoints.
type AuthAPI struct {
	client *Client
}

// NewAuthAPI constructs the auth client.
func NewAuthAPI(client *Client) *AuthAPI {
	return &AuthAPI{client: client}
}

// Login exchanges credentials for a token. Any rejection, including an
// unknown account or a reply without a token, is reported as
// ErrInvalidCredentials.
func (a *AuthAPI) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	var resp models.LoginResponse
	err := a.client.do(ctx, http.MethodPost, "/api/auth/login/", req, &resp, false)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status >= 400 && appErr.Status < 500 {
			return "", appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, appErrors.ErrInvalidCredentials.Message)
		}
		return "", err
	}
	token := resp.Credential()
	if token == "" {
		return "", appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	return token, nil
}

// Logout tells the API the credential is no longer used.
func (a *AuthAPI) Logout(ctx context.Context) error {
	return a.client.do(ctx, http.MethodPost, "/api/auth/logout/", nil, nil, false)
}

// Verify checks that the current credential is still accepted.
func (a *AuthAPI) Verify(ctx context.Context) error {
	return a.client.do(ctx, http.MethodGet, "/api/auth/verify/", nil, nil, false)
}
