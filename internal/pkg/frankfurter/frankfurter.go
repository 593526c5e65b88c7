// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package frankfurter provides a client for fetching historical exchange
// rates from frankfurter.dev.
//
// The frankfurter.dev API publishes the European Central Bank reference
// rates. It is free and does not require an API key or authentication.
// Dates without a publication (weekends, TARGET holidays) resolve to the
// most recent earlier publication.
// See https://frankfurter.dev for usage details and rate limits.
package frankfurter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bufdev/m720ctl/internal/pkg/backoff"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the frankfurter.dev API base URL.
const DefaultBaseURL = "https://api.frankfurter.dev/v1"

// Rate is a single exchange rate returned by the API.
type Rate struct {
	// Date is the publication date of the rate in YYYY-MM-DD format.
	// It may be earlier than the requested date.
	Date string
	// Rate is the value of one unit of the base currency in the quote currency.
	Rate decimal.Decimal
}

// Client is the interface for fetching exchange rates.
type Client interface {
	// GetRate fetches the rate of baseCurrency in quoteCurrency on date (YYYY-MM-DD).
	GetRate(ctx context.Context, baseCurrency string, quoteCurrency string, date string) (Rate, error)
}

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*client)

// ClientWithHTTPClient sets the HTTP client to use for requests.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// ClientWithBaseURL sets the API base URL, e.g. for a self-hosted instance.
func ClientWithBaseURL(baseURL string) ClientOption {
	return func(c *client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// ClientWithRetryPolicy sets the retry policy for transient failures.
func ClientWithRetryPolicy(policy backoff.Policy) ClientOption {
	return func(c *client) {
		c.retryPolicy = policy
	}
}

// NewClient creates a new exchange rate client with the given options.
func NewClient(options ...ClientOption) Client {
	c := &client{
		httpClient:  http.DefaultClient,
		baseURL:     DefaultBaseURL,
		retryPolicy: backoff.DefaultPolicy(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// *** PRIVATE ***

type client struct {
	httpClient  *http.Client
	baseURL     string
	retryPolicy backoff.Policy
}

// frankfurterResponse is the JSON response from the frankfurter.dev API for a single date.
type frankfurterResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (c *client) GetRate(ctx context.Context, baseCurrency string, quoteCurrency string, date string) (Rate, error) {
	// Build the request URL for the historical endpoint.
	query := url.Values{}
	query.Set("base", baseCurrency)
	query.Set("symbols", quoteCurrency)
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(date), query.Encode())
	body, err := backoff.Retry(
		ctx,
		c.retryPolicy,
		func(ctx context.Context, _ int) ([]byte, error) {
			return c.get(ctx, reqURL)
		},
	)
	if err != nil {
		return Rate{}, err
	}
	var frankfurterResp frankfurterResponse
	if err := json.Unmarshal(body, &frankfurterResp); err != nil {
		return Rate{}, fmt.Errorf("parsing response: %w", err)
	}
	rate, ok := frankfurterResp.Rates[quoteCurrency]
	if !ok {
		return Rate{}, fmt.Errorf("no %s rate for %s on %s", quoteCurrency, baseCurrency, date)
	}
	return Rate{
		Date: frankfurterResp.Date,
		Rate: rate,
	}, nil
}

// get performs a single GET. Errors that retrying cannot fix are marked permanent.
func (c *client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}
	return body, nil
}
