// Package github implements the GitHubClient port using the go-github
// library for REST calls and a hand-rolled POST client for GraphQL.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/prtools/prdigest/internal/domain/model"
	"github.com/prtools/prdigest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port. REST traffic goes through
// go-github; GraphQL queries and log downloads use httpClient directly.
type Client struct {
	gh         *gh.Client
	httpClient *http.Client
	token      string // Stored for the GraphQL Authorization header.
	graphqlURL string // Derived from the API base URL.
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// baseURL is the REST API endpoint, e.g. "https://api.github.com/".
func NewClient(token, baseURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	// GraphQL posts and log downloads bypass go-github; the 30-second
	// timeout is a safety net alongside context cancellation.
	httpClient := &http.Client{Timeout: 30 * time.Second}

	return configureClient(client, httpClient, token, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	client := gh.NewClient(httpClient)
	return configureClient(client, httpClient, token, baseURL)
}

// configureClient points both the REST and GraphQL endpoints at baseURL.
func configureClient(client *gh.Client, httpClient *http.Client, token, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	client.BaseURL = u

	graphqlU := *u
	graphqlU.Path = "/graphql"

	return &Client{
		gh:         client,
		httpClient: httpClient,
		token:      token,
		graphqlURL: graphqlU.String(),
	}, nil
}

// FetchREST issues a single authenticated GET against a REST resource path
// (relative to the API base URL) and decodes the JSON response into v.
func (c *Client) FetchREST(ctx context.Context, path string, v any) error {
	req, err := c.gh.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: building request for %s: %v", model.ErrCallFailed, path, err)
	}

	resp, err := c.gh.Do(ctx, req, v)
	if err != nil {
		return classifyRESTError(path, err)
	}

	logRateLimit(resp, path, 0, 0)
	return nil
}

// classifyRESTError maps go-github errors onto the adapter error kinds:
// non-2xx and transport errors are call failures, JSON syntax errors mean the
// body was not JSON, and type errors mean a key path held the wrong type.
func classifyRESTError(path string, err error) error {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) {
		return fmt.Errorf("%w: GET %s: %v", model.ErrCallFailed, path, err)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: GET %s: %v", model.ErrMalformedResponse, path, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: GET %s: %v", model.ErrUnexpectedShape, path, err)
	}

	return fmt.Errorf("%w: GET %s: %v", model.ErrCallFailed, path, err)
}

// restIssueComment is the subset of the Issues API comment shape we consume.
type restIssueComment struct {
	User *struct {
		Login string `json:"login"`
	} `json:"user"`
	Body string `json:"body"`
}

// FetchIssueComments retrieves the PR's general comments from the Issues API
// and maps them to domain model types.
func (c *Client) FetchIssueComments(ctx context.Context, ref model.PRRef) ([]model.IssueComment, error) {
	path := fmt.Sprintf("repos/%s/%s/issues/%d/comments?per_page=100", ref.Owner, ref.Repo, ref.Number)

	var raw []restIssueComment
	if err := c.FetchREST(ctx, path, &raw); err != nil {
		return nil, err
	}

	comments := make([]model.IssueComment, 0, len(raw))
	for _, rc := range raw {
		login := "unknown"
		if rc.User != nil && rc.User.Login != "" {
			login = rc.User.Login
		}
		comments = append(comments, model.IssueComment{
			AuthorLogin: login,
			Body:        rc.Body,
		})
	}

	return comments, nil
}

// logRateLimit logs the GitHub API rate limit status after each REST call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 && resp.Rate.Limit > 0 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
