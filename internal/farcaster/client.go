// Package farcaster is the client for the social-graph API. It issues plain
// GET requests, decodes the result envelope, and converts non-2xx statuses
// into typed errors. Retries are deliberately absent: a failed call is the
// caller's problem to tolerate, not this layer's to repeat.
package farcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/castscope/castscope/internal/config"
	"github.com/castscope/castscope/internal/metrics"
	"github.com/castscope/castscope/internal/models"
)

// APIError is a non-2xx response from the upstream API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("farcaster API returned status %d: %s", e.Status, e.Message)
}

// Client talks to the social-graph API
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient creates a new social-graph API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.FarcasterBaseURL).
			SetTimeout(cfg.RequestTimeout).
			SetHeader("User-Agent", cfg.UserAgent),
		limiter: rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst),
	}
}

type allChannelsResponse struct {
	Result struct {
		Channels []models.Channel `json:"channels"`
	} `json:"result"`
}

type channelResponse struct {
	Result struct {
		Channel *models.Channel `json:"channel"`
	} `json:"result"`
}

type followersResponse struct {
	Result struct {
		Users []models.User `json:"users"`
	} `json:"result"`
}

type castsResponse struct {
	Result struct {
		Casts []models.RawCast `json:"casts"`
		Next  *struct {
			Cursor string `json:"cursor"`
		} `json:"next"`
	} `json:"result"`
}

type userResponse struct {
	Result struct {
		User *models.User `json:"user"`
	} `json:"result"`
}

type addressResponse struct {
	Result struct {
		Address struct {
			Address  string `json:"address"`
			Protocol string `json:"protocol"`
		} `json:"address"`
	} `json:"result"`
}

// AllChannels fetches the full channel catalog
func (c *Client) AllChannels(ctx context.Context) ([]models.Channel, error) {
	var out allChannelsResponse
	if err := c.get(ctx, "/v2/all-channels", nil, &out); err != nil {
		return nil, err
	}
	return out.Result.Channels, nil
}

// Channel fetches a single channel by id. Returns nil when the upstream
// knows nothing about the id.
func (c *Client) Channel(ctx context.Context, channelID string) (*models.Channel, error) {
	var out channelResponse
	query := map[string]string{"channelId": channelID}
	if err := c.get(ctx, "/v1/channel", query, &out); err != nil {
		return nil, err
	}
	return out.Result.Channel, nil
}

// ChannelFollowers fetches up to limit followers of a channel
func (c *Client) ChannelFollowers(ctx context.Context, channelID string, limit int) ([]models.User, error) {
	var out followersResponse
	query := map[string]string{
		"channelId": channelID,
		"limit":     strconv.Itoa(limit),
	}
	if err := c.get(ctx, "/v1/channel-followers", query, &out); err != nil {
		return nil, err
	}
	return out.Result.Users, nil
}

// UserCasts fetches up to limit recent casts by a user
func (c *Client) UserCasts(ctx context.Context, fid int64, limit int) ([]models.RawCast, error) {
	var out castsResponse
	query := map[string]string{
		"fid":   strconv.FormatInt(fid, 10),
		"limit": strconv.Itoa(limit),
	}
	if err := c.get(ctx, "/v2/casts", query, &out); err != nil {
		return nil, err
	}
	return out.Result.Casts, nil
}

// TrendingCasts fetches the platform-wide trending casts
func (c *Client) TrendingCasts(ctx context.Context, timeframe, filter string, limit int) ([]models.RawCast, error) {
	var out castsResponse
	query := map[string]string{
		"timeframe": timeframe,
		"limit":     strconv.Itoa(limit),
	}
	if filter != "" {
		query["filter"] = filter
	}
	if err := c.get(ctx, "/v2/trending-casts", query, &out); err != nil {
		return nil, err
	}
	return out.Result.Casts, nil
}

// CastReplies fetches replies to a cast, returning the next page cursor
func (c *Client) CastReplies(ctx context.Context, parentFID int64, parentHash string, limit int, cursor string) ([]models.RawCast, string, error) {
	query := map[string]string{
		"parentFid":  strconv.FormatInt(parentFID, 10),
		"parentHash": parentHash,
		"limit":      strconv.Itoa(limit),
	}
	return c.castsPage(ctx, query, cursor)
}

// CastMentions fetches casts mentioning a user, returning the next page cursor
func (c *Client) CastMentions(ctx context.Context, fid int64, limit int, cursor string) ([]models.RawCast, string, error) {
	query := map[string]string{
		"mentionedFid": strconv.FormatInt(fid, 10),
		"limit":        strconv.Itoa(limit),
	}
	return c.castsPage(ctx, query, cursor)
}

func (c *Client) castsPage(ctx context.Context, query map[string]string, cursor string) ([]models.RawCast, string, error) {
	if cursor != "" {
		query["cursor"] = cursor
	}
	var out castsResponse
	if err := c.get(ctx, "/v2/casts", query, &out); err != nil {
		return nil, "", err
	}
	next := ""
	if out.Result.Next != nil {
		next = out.Result.Next.Cursor
	}
	return out.Result.Casts, next, nil
}

// UserByUsername looks a user up by username. Returns nil when not found.
func (c *Client) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var out userResponse
	query := map[string]string{"username": username}
	if err := c.get(ctx, "/v2/user-by-username", query, &out); err != nil {
		return nil, err
	}
	return out.Result.User, nil
}

// PrimaryAddress resolves a user's verified Ethereum address. Returns ""
// when the user has none.
func (c *Client) PrimaryAddress(ctx context.Context, fid int64) (string, error) {
	var out addressResponse
	query := map[string]string{
		"fid":      strconv.FormatInt(fid, 10),
		"protocol": "ethereum",
	}
	if err := c.get(ctx, "/fc/primary-address", query, &out); err != nil {
		return "", err
	}
	return out.Result.Address.Address, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("farcaster", metrics.OutcomeError).Inc()
		return fmt.Errorf("farcaster request failed: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		metrics.UpstreamRequests.WithLabelValues("farcaster", metrics.OutcomeError).Inc()
		return &APIError{Status: resp.StatusCode(), Message: resp.Status()}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		metrics.UpstreamRequests.WithLabelValues("farcaster", metrics.OutcomeError).Inc()
		return fmt.Errorf("failed to decode farcaster response: %w", err)
	}

	metrics.UpstreamRequests.WithLabelValues("farcaster", metrics.OutcomeOK).Inc()
	return nil
}
