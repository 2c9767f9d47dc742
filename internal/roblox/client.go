// Package roblox wraps the public Roblox user-directory and thumbnails APIs.
package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

var numericID = regexp.MustCompile(`^\d{1,20}$`)

// User is a resolved Roblox account.
type User struct {
	ID           string
	Name         string
	DisplayName  string
	ThumbnailURL *string
}

// Config tunes the client endpoints and timeout.
type Config struct {
	UsersBaseURL      string
	ThumbnailsBaseURL string
	Timeout           time.Duration
}

// Client calls the Roblox web APIs. All lookups are read-only.
type Client struct {
	users      string
	thumbnails string
	http       *http.Client
	logger     *zap.Logger
}

// NewClient constructs a Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.UsersBaseURL == "" {
		cfg.UsersBaseURL = "https://users.roblox.com"
	}
	if cfg.ThumbnailsBaseURL == "" {
		cfg.ThumbnailsBaseURL = "https://thumbnails.roblox.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		users:      cfg.UsersBaseURL,
		thumbnails: cfg.ThumbnailsBaseURL,
		http:       &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Resolve looks up a user by numeric id or username and attaches the avatar
// thumbnail. A missing thumbnail is not an error; an unknown user is.
func (c *Client) Resolve(ctx context.Context, usernameOrID string) (*User, error) {
	var (
		user *User
		err  error
	)
	if numericID.MatchString(usernameOrID) {
		user, err = c.byID(ctx, usernameOrID)
	} else {
		user, err = c.byUsername(ctx, usernameOrID)
	}
	if err != nil {
		return nil, err
	}

	if url, thumbErr := c.thumbnail(ctx, user.ID); thumbErr != nil {
		c.logger.Warn("thumbnail lookup failed", zap.String("roblox_user_id", user.ID), zap.Error(thumbErr))
	} else {
		user.ThumbnailURL = url
	}

	return user, nil
}

func (c *Client) byID(ctx context.Context, id string) (*User, error) {
	var payload struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	}
	status, err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%s", c.users, id), &payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "roblox user not found")
	}
	if status != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("roblox users api returned %d", status))
	}
	return &User{ID: strconv.FormatInt(payload.ID, 10), Name: payload.Name, DisplayName: payload.DisplayName}, nil
}

func (c *Client) byUsername(ctx context.Context, username string) (*User, error) {
	body, err := json.Marshal(map[string]interface{}{
		"usernames":          []string{username},
		"excludeBannedUsers": false,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode username lookup")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.users+"/v1/usernames/users", bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build username lookup")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "roblox users api unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("roblox users api returned %d", res.StatusCode))
	}

	var payload struct {
		Data []struct {
			ID          int64  `json:"id"`
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode username lookup")
	}
	if len(payload.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "roblox user not found")
	}

	match := payload.Data[0]
	return &User{ID: strconv.FormatInt(match.ID, 10), Name: match.Name, DisplayName: match.DisplayName}, nil
}

func (c *Client) thumbnail(ctx context.Context, id string) (*string, error) {
	var payload struct {
		Data []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/v1/users/avatar-headshot?userIds=%s&size=150x150&format=Png", c.thumbnails, id)
	status, err := c.getJSON(ctx, url, &payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("thumbnails api returned %d", status)
	}
	if len(payload.Data) == 0 || payload.Data[0].ImageURL == "" {
		return nil, nil
	}
	return &payload.Data[0].ImageURL, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build roblox request")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "roblox api unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
			return res.StatusCode, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode roblox response")
		}
	}
	return res.StatusCode, nil
}
