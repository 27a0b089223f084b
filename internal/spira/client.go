package spira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// servicePath is the REST service root under the Spira base URL.
const servicePath = "/services/v6_0/RestService.svc"

// ErrAuthenticationFailed means the login probe was rejected or unreachable.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Observer receives one notification per HTTP attempt.
type Observer interface {
	ObserveCall(op string, status int, d time.Duration)
}

// Client communicates with the Spira REST API. Credentials travel as query
// parameters on every URL.
type Client struct {
	baseURL    string
	username   string
	apiKey     string
	httpClient *http.Client
	stats      *CallStats
	observer   Observer
	backoff    func(attempt int) time.Duration
}

func NewClient(baseURL, username, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/") + servicePath,
		username: username,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		backoff: Backoff,
	}
}

// WithStats records per-call latency into stats.
func (c *Client) WithStats(stats *CallStats) *Client {
	c.stats = stats
	return c
}

// WithObserver reports every attempt to o.
func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// Stats returns the latency tracker, or nil.
func (c *Client) Stats() *CallStats {
	return c.stats
}

func (c *Client) url(path string) string {
	q := url.Values{}
	q.Set("username", c.username)
	q.Set("api-key", c.apiKey)
	return c.baseURL + path + "?" + q.Encode()
}

// Projects lists the projects visible to the user. It doubles as the login
// probe.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.call(ctx, "projects", http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return projects, nil
}

// CreateRequirement creates a requirement at the end of the project's list.
func (c *Client) CreateRequirement(ctx context.Context, projectID int, req RemoteRequirement) (*RemoteRequirement, error) {
	var out RemoteRequirement
	path := "/projects/" + strconv.Itoa(projectID) + "/requirements"
	if err := c.call(ctx, "create_requirement", http.MethodPost, path, req, &out); err != nil {
		return nil, fmt.Errorf("create requirement %q: %w", req.Name, err)
	}
	return &out, nil
}

// IndentRequirement moves a requirement one level deeper.
func (c *Client) IndentRequirement(ctx context.Context, projectID, requirementID int) error {
	path := fmt.Sprintf("/projects/%d/requirements/%d/indent", projectID, requirementID)
	if err := c.call(ctx, "indent_requirement", http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("indent requirement %d: %w", requirementID, err)
	}
	return nil
}

// OutdentRequirement moves a requirement one level up.
func (c *Client) OutdentRequirement(ctx context.Context, projectID, requirementID int) error {
	path := fmt.Sprintf("/projects/%d/requirements/%d/outdent", projectID, requirementID)
	if err := c.call(ctx, "outdent_requirement", http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("outdent requirement %d: %w", requirementID, err)
	}
	return nil
}

// CreateTestFolder creates a root test case folder.
func (c *Client) CreateTestFolder(ctx context.Context, projectID int, folder RemoteTestFolder) (*RemoteTestFolder, error) {
	var out RemoteTestFolder
	path := "/projects/" + strconv.Itoa(projectID) + "/test-folders"
	if err := c.call(ctx, "create_test_folder", http.MethodPost, path, folder, &out); err != nil {
		return nil, fmt.Errorf("create test folder %q: %w", folder.Name, err)
	}
	return &out, nil
}

// CreateTestCase creates a test case, inside a folder when TestCaseFolderID is set.
func (c *Client) CreateTestCase(ctx context.Context, projectID int, tc RemoteTestCase) (*RemoteTestCase, error) {
	var out RemoteTestCase
	path := "/projects/" + strconv.Itoa(projectID) + "/test-cases"
	if err := c.call(ctx, "create_test_case", http.MethodPost, path, tc, &out); err != nil {
		return nil, fmt.Errorf("create test case %q: %w", tc.Name, err)
	}
	return &out, nil
}

// CreateTestStep appends a step to a test case.
func (c *Client) CreateTestStep(ctx context.Context, projectID, testCaseID int, step RemoteTestStep) (*RemoteTestStep, error) {
	var out RemoteTestStep
	path := fmt.Sprintf("/projects/%d/test-cases/%d/test-steps", projectID, testCaseID)
	if err := c.call(ctx, "create_test_step", http.MethodPost, path, step, &out); err != nil {
		return nil, fmt.Errorf("create test step for test case %d: %w", testCaseID, err)
	}
	return &out, nil
}

// UploadDocument uploads a file attachment linked to the given artifacts.
func (c *Client) UploadDocument(ctx context.Context, projectID int, doc RemoteDocument) (*RemoteDocument, error) {
	var out RemoteDocument
	path := "/projects/" + strconv.Itoa(projectID) + "/documents/file"
	if err := c.call(ctx, "upload_document", http.MethodPost, path, doc, &out); err != nil {
		return nil, fmt.Errorf("upload document %q: %w", doc.FilenameOrURL, err)
	}
	return &out, nil
}

// call runs one request, retrying throttled and unavailable responses.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = b
	}

	var err error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff(attempt - 1)):
			}
		}
		err = c.do(ctx, op, method, path, body, out)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.observe(op, status, time.Since(start), err != nil || status >= 300)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out == nil {
		return nil
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) observe(op string, status int, d time.Duration, failed bool) {
	if c.stats != nil {
		c.stats.Record(d.Milliseconds(), failed)
	}
	if c.observer != nil {
		c.observer.ObserveCall(op, status, d)
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
