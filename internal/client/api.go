package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pubgames_tictactoe/internal/domain"
)

// APIClient is the REST half of the client layer: every operation the
// websockets push is also reachable here, which is what makes polling a
// complete fallback.
type APIClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError carries the HTTP status and server-reported message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *APIClient) Heartbeat(ctx context.Context, inGame bool) error {
	return c.do(ctx, http.MethodPost, "/api/heartbeat", map[string]bool{"in_game": inGame}, nil)
}

func (c *APIClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

func (c *APIClient) OnlineUsers(ctx context.Context) ([]domain.PresenceRecord, error) {
	var out struct {
		Users []domain.PresenceRecord `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/online-users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// ActiveGame returns (nil, nil) when the caller has no active game.
func (c *APIClient) ActiveGame(ctx context.Context) (*domain.Game, error) {
	var out struct {
		Game *domain.Game `json:"game"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/game/active", nil, &out); err != nil {
		return nil, err
	}
	return out.Game, nil
}

func (c *APIClient) Game(ctx context.Context, gameID int64) (*domain.Game, error) {
	var out struct {
		Game *domain.Game `json:"game"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/game/%d", gameID), nil, &out); err != nil {
		return nil, err
	}
	return out.Game, nil
}

type ChallengeRequest struct {
	OpponentID    int64  `json:"opponent_id"`
	Mode          string `json:"mode"`
	MoveTimeLimit int    `json:"move_time_limit"`
	FirstTo       int    `json:"first_to"`
}

func (c *APIClient) CreateChallenge(ctx context.Context, req ChallengeRequest) (*domain.Challenge, error) {
	var out domain.Challenge
	if err := c.do(ctx, http.MethodPost, "/api/game/create-challenge", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) PendingChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	var out struct {
		Challenges []*domain.Challenge `json:"challenges"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/game/pending-challenges", nil, &out); err != nil {
		return nil, err
	}
	return out.Challenges, nil
}

type respondResult struct {
	Accepted bool         `json:"accepted"`
	Game     *domain.Game `json:"game"`
}

func (c *APIClient) RespondChallenge(ctx context.Context, challengeID int64, accept bool) (*domain.Game, error) {
	var out respondResult
	path := fmt.Sprintf("/api/game/%d/respond", challengeID)
	if err := c.do(ctx, http.MethodPost, path, map[string]bool{"accept": accept}, &out); err != nil {
		return nil, err
	}
	return out.Game, nil
}

func (c *APIClient) Move(ctx context.Context, gameID int64, position int) (*domain.MoveResult, error) {
	var out domain.MoveResult
	body := map[string]any{"game_id": gameID, "position": position}
	if err := c.do(ctx, http.MethodPost, "/api/game/move", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) CreateRematch(ctx context.Context, gameID int64) (*domain.RematchRequest, error) {
	var out domain.RematchRequest
	if err := c.do(ctx, http.MethodPost, "/api/game/rematch", map[string]int64{"game_id": gameID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rematch returns (nil, nil) when no offer is open for the game.
func (c *APIClient) Rematch(ctx context.Context, gameID int64) (*domain.RematchRequest, error) {
	var out struct {
		Rematch *domain.RematchRequest `json:"rematch"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/game/rematch/%d", gameID), nil, &out); err != nil {
		return nil, err
	}
	return out.Rematch, nil
}

func (c *APIClient) RespondRematch(ctx context.Context, rematchID int64, accept bool) (*domain.Game, error) {
	var out respondResult
	path := fmt.Sprintf("/api/game/rematch/%d/respond", rematchID)
	if err := c.do(ctx, http.MethodPost, path, map[string]bool{"accept": accept}, &out); err != nil {
		return nil, err
	}
	return out.Game, nil
}

func (c *APIClient) PlayerStats(ctx context.Context) (*domain.PlayerStats, error) {
	var out domain.PlayerStats
	if err := c.do(ctx, http.MethodGet, "/api/stats/player", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) History(ctx context.Context, limit int) ([]*domain.Game, error) {
	var out struct {
		Games []*domain.Game `json:"games"`
	}
	path := fmt.Sprintf("/api/history?limit=%d", limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Games, nil
}
