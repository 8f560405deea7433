// Package etherscan is the client for the blockchain-explorer API, used for
// ERC-20 token balance lookups.
package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/castscope/castscope/internal/config"
	"github.com/castscope/castscope/internal/metrics"
)

// Client talks to the blockchain-explorer API
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a new explorer client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.EtherscanBaseURL).
			SetTimeout(cfg.RequestTimeout).
			SetHeader("User-Agent", cfg.UserAgent),
		apiKey: cfg.EtherscanAPIKey,
	}
}

type balanceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// TokenBalance fetches the raw ERC-20 balance of address for the given
// token contract. The raw value is the integer string the explorer returns;
// decimal adjustment is the caller's concern.
func (c *Client) TokenBalance(ctx context.Context, contractAddress, address string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":          "account",
			"action":          "tokenbalance",
			"contractaddress": contractAddress,
			"address":         address,
			"tag":             "latest",
			"apikey":          c.apiKey,
		}).
		Get("/api")
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("etherscan", metrics.OutcomeError).Inc()
		return "", fmt.Errorf("etherscan request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		metrics.UpstreamRequests.WithLabelValues("etherscan", metrics.OutcomeError).Inc()
		return "", fmt.Errorf("etherscan API returned status %d", resp.StatusCode())
	}

	var out balanceResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		metrics.UpstreamRequests.WithLabelValues("etherscan", metrics.OutcomeError).Inc()
		return "", fmt.Errorf("failed to decode etherscan response: %w", err)
	}

	if out.Status != "1" {
		metrics.UpstreamRequests.WithLabelValues("etherscan", metrics.OutcomeError).Inc()
		return "", fmt.Errorf("etherscan API error: %s", out.Message)
	}

	metrics.UpstreamRequests.WithLabelValues("etherscan", metrics.OutcomeOK).Inc()
	return out.Result, nil
}

// FormatBalance converts a raw integer balance string to a float assuming
// the standard 18 decimals.
func FormatBalance(raw string) float64 {
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return parsed / 1e18
}
