package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pubgames_tictactoe/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// IdentityClient validates bearer tokens against the external identity
// service. Identity issuance lives entirely outside this backend.
type IdentityClient struct {
	baseURL string
	client  *http.Client
}

func NewIdentityClient(baseURL string) *IdentityClient {
	return &IdentityClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether an identity service is configured. When it is
// not, callers fall back to local JWT validation (dev mode).
func (c *IdentityClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// ValidateToken resolves a token to a user via GET /api/validate-token.
func (c *IdentityClient) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/validate-token", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
