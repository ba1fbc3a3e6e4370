// Package kb is the typed HTTP client for the external knowledge-base API.
// Query answering, search and feedback all live behind that API; nothing in
// this repository implements them.
package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTimeout marks a request that hit the bounded feedback deadline, as
// opposed to an ordinary transport or status failure.
var ErrTimeout = errors.New("kb: request timed out")

const feedbackTimeout = 10 * time.Second

type Client struct {
	// BaseURL hosts listing, detail and query endpoints.
	BaseURL string
	// FeedbackBaseURL hosts the feedback endpoints; the production deployment
	// serves them from a separate origin.
	FeedbackBaseURL string
	Client          *http.Client
}

func NewClient(baseURL, feedbackBaseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if feedbackBaseURL == "" {
		feedbackBaseURL = baseURL
	}
	return &Client{
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		FeedbackBaseURL: strings.TrimSuffix(feedbackBaseURL, "/"),
		Client:          &http.Client{Timeout: 30 * time.Second},
	}
}

// List fetches the knowledge-base listing, optionally filtered.
func (c *Client) List(ctx context.Context, filters ListFilters) ([]KnowledgeBase, error) {
	u, err := url.Parse(c.BaseURL + "/knowledge-bases")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if filters.Query != "" {
		q.Set("query", filters.Query)
	}
	for _, tag := range filters.Tags {
		q.Add("tags", tag)
	}
	u.RawQuery = q.Encode()

	var out []KnowledgeBase
	if err := c.getJSON(ctx, u.String(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single knowledge base by id.
func (c *Client) Get(ctx context.Context, id string) (*Detail, error) {
	var out Detail
	if err := c.getJSON(ctx, fmt.Sprintf("%s/knowledge-bases/%s", c.BaseURL, url.PathEscape(id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type queryReq struct {
	KnowledgeBaseID string `json:"knowledge_base_id"`
	Query           string `json:"query"`
	MaxResults      int    `json:"max_results"`
}

// Query submits a natural-language question against a knowledge base.
func (c *Client) Query(ctx context.Context, knowledgeBaseID, query string, maxResults int) (QueryResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	var out QueryResult
	err := c.postJSON(ctx, c.BaseURL+"/query", queryReq{
		KnowledgeBaseID: knowledgeBaseID,
		Query:           query,
		MaxResults:      maxResults,
	}, &out)
	if err != nil {
		return QueryResult{}, err
	}
	return out, nil
}

// SendQueryFeedback posts a vote on a single answer. The call carries its own
// bounded deadline so a slow backend surfaces as ErrTimeout, not a hang.
func (c *Client) SendQueryFeedback(ctx context.Context, fb QueryFeedback) error {
	fb.Comments = strings.TrimSpace(fb.Comments)

	cctx, cancel := context.WithTimeout(ctx, feedbackTimeout)
	defer cancel()

	var out FeedbackResponse
	if err := c.postJSON(cctx, c.FeedbackBaseURL+"/query-feedback", fb, &out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: query feedback", ErrTimeout)
		}
		return err
	}
	if !out.Success {
		return fmt.Errorf("kb: query feedback rejected: %s", out.Message)
	}
	return nil
}

// SendFeedback posts the general product feedback form.
func (c *Client) SendFeedback(ctx context.Context, fb Feedback) (FeedbackResponse, error) {
	cctx, cancel := context.WithTimeout(ctx, feedbackTimeout)
	defer cancel()

	var out FeedbackResponse
	if err := c.postJSON(cctx, c.FeedbackBaseURL+"/feedback", fb, &out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return FeedbackResponse{}, fmt.Errorf("%w: feedback", ErrTimeout)
		}
		return FeedbackResponse{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.Client.Do(req)
	if err != nil {
		// The transport wraps context errors; unwrap so callers can match
		// deadline exceeded with errors.Is.
		if cerr := req.Context().Err(); cerr != nil {
			return fmt.Errorf("kb: %s %s: %w", req.Method, req.URL.Path, cerr)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("kb: %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
