// Package firemon is a client for the security-manager and
// policy-optimizer REST APIs. It covers the four calls the report
// pipeline needs: login, workflow listing, paged ticket search and
// rule-detail lookup.
package firemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/poreport/poreport/pkg/httpclient"
	"github.com/poreport/poreport/pkg/iohelper"
	"github.com/poreport/poreport/pkg/jsonutil"
)

// DefaultPageSize is the page size for all paged searches.
const DefaultPageSize = 100

// authHeader carries the bearer token on every call after login.
const authHeader = "X-FM-AUTH-Token"

// ErrNoToken is returned when login succeeds but the response carries
// no token.
var ErrNoToken = errors.New("firemon: token not found in login response")

// Client talks to one appliance. It is not safe for concurrent use;
// the pipeline is strictly sequential.
type Client struct {
	smBase   string // {host}/securitymanager/api
	poBase   string // {host}/policyoptimizer/api
	hostBase string // bare host, for building UI links
	hc       *http.Client
	token    string
	limiter  *rate.Limiter
	log      *slog.Logger
	pageSize int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRateLimit paces successive API calls at n requests per second.
// Zero or negative n disables pacing.
func WithRateLimit(n float64) Option {
	return func(c *Client) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(n), 1)
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithPageSize overrides the paged-search page size. Used by tests.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a client for the given host, e.g. "https://fm.example.com".
func New(host string, opts ...Option) *Client {
	base := strings.TrimRight(host, "/")
	c := &Client{
		smBase:   base + "/securitymanager/api",
		poBase:   base + "/policyoptimizer/api",
		hostBase: base,
		hc:       httpclient.Default(),
		log:      slog.Default(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HostBase returns the bare host base URL, for building links into the
// appliance UI.
func (c *Client) HostBase() string { return c.hostBase }

// Login exchanges credentials for a bearer token and stores it on the
// client. Any HTTP error, non-200 status or missing token is returned
// as an error; the caller treats login failure as fatal.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload, err := jsonutil.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("firemon: encode login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.smBase+"/authentication/login", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("firemon: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return fmt.Errorf("firemon: login request: %w", err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firemon: login failed: HTTP %d", resp.StatusCode)
	}

	body, err := iohelper.ReadBody(resp.Body, iohelper.SmallMaxBodySize)
	if err != nil {
		return fmt.Errorf("firemon: read login response: %w", err)
	}

	var lr struct {
		Token string `json:"token"`
	}
	if err := jsonutil.Unmarshal(body, &lr); err != nil {
		return fmt.Errorf("firemon: parse login response: %w", err)
	}
	if lr.Token == "" {
		return ErrNoToken
	}

	c.token = lr.Token
	c.log.Debug("authentication token received")
	return nil
}

// Workflows lists the Policy Optimizer workflows in domain 1. Failures
// are returned to the caller, who treats them as soft (the workflow
// picker just has nothing to offer).
func (c *Client) Workflows(ctx context.Context) ([]Workflow, error) {
	u := c.poBase + "/domain/1/workflow/?page=0&pageSize=100&search=&sort=name"

	var page pagedResults[Workflow]
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, fmt.Errorf("firemon: fetch workflows: %w", err)
	}
	c.log.Info("fetched workflows", slog.Int("count", len(page.Results)))
	return page.Results, nil
}

// Tickets fetches every review ticket matching the filter, page by
// page, until a short or empty page is returned. Any page-level HTTP
// or parse failure aborts with an error; partial results are discarded
// by the caller exiting.
func (c *Client) Tickets(ctx context.Context, workflowID int, status string, days int) ([]Ticket, error) {
	query := TicketQuery(workflowID, status, days)
	encoded := url.QueryEscape(query)
	c.log.Debug("ticket query", slog.String("siql", query))

	var all []Ticket
	for pageNum := 0; ; pageNum++ {
		u := fmt.Sprintf("%s/siql/domain/1/review/paged-search?q=%s&page=%d&pageSize=%d&sortdir=desc&sort=-createdDate&domainId=1",
			c.poBase, encoded, pageNum, c.pageSize)

		var page pagedResults[Ticket]
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("firemon: fetch tickets page %d: %w", pageNum, err)
		}

		if len(page.Results) == 0 {
			break
		}
		all = append(all, page.Results...)
		c.log.Debug("fetched ticket page",
			slog.Int("page", pageNum), slog.Int("count", len(page.Results)))
		if len(page.Results) < c.pageSize {
			break
		}
	}

	c.log.Info("total tickets fetched", slog.Int("count", len(all)))
	return all, nil
}

// RuleDetail looks up one rule's configuration and documentation by the
// (device, policy, rule) triple. A lookup failure or empty result
// returns an error; the caller treats it as soft and renders
// placeholders.
func (c *Client) RuleDetail(ctx context.Context, deviceID, policyGUID, ruleGUID string) (*RuleDetail, error) {
	query := RuleQuery(deviceID, policyGUID, ruleGUID)
	u := c.smBase + "/siql/secrule/paged-search?q=" + url.QueryEscape(query)

	var page pagedResults[RuleDetail]
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, fmt.Errorf("firemon: fetch rule detail: %w", err)
	}
	if len(page.Results) == 0 {
		return nil, fmt.Errorf("firemon: rule %s not found on device %s", ruleGUID, deviceID)
	}
	return &page.Results[0], nil
}

// getJSON performs an authenticated GET and decodes the 200 response
// body into v.
func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := iohelper.ReadBodyDefault(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := jsonutil.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// do paces the request, attaches the auth token when present, and
// executes it.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.token != "" {
		req.Header.Set(authHeader, c.token)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.hc.Do(req)
}
