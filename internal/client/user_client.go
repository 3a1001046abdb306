package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// UserClient reads user display attributes from the user service. The
// coordinator never writes user records; identity itself is owned elsewhere.
type UserClient interface {
	GetUserInfo(ctx context.Context, userID, token string) (*UserInfo, error)
	LookupUser(ctx context.Context, emailOrUsername, token string) (*UserInfo, error)
}

type userClient struct {
	baseURL    string
	httpClient *http.Client
}

type UserInfo struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func NewUserClient(baseURL string, timeout time.Duration) UserClient {
	return &userClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *userClient) GetUserInfo(ctx context.Context, userID, token string) (*UserInfo, error) {
	return c.get(ctx, fmt.Sprintf("%s/users/%s", c.baseURL, userID), token)
}

// LookupUser resolves a user by email or username, used when a head invites a
// member to a project.
func (c *userClient) LookupUser(ctx context.Context, emailOrUsername, token string) (*UserInfo, error) {
	endpoint := fmt.Sprintf("%s/users/lookup?q=%s", c.baseURL, url.QueryEscape(emailOrUsername))
	return c.get(ctx, endpoint, token)
}

func (c *userClient) get(ctx context.Context, endpoint, token string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("user service request failed: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// ErrUserNotFound is returned when the user service has no matching record
var ErrUserNotFound = fmt.Errorf("user not found")
