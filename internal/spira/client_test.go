package spira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorded struct {
	method string
	path   string
	query  map[string]string
	body   map[string]any
}

type fakeSpira struct {
	mu       sync.Mutex
	calls    []recorded
	handler  func(w http.ResponseWriter, r *http.Request)
	observed []string
}

func (f *fakeSpira) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{
		method: r.Method,
		path:   r.URL.Path,
		query: map[string]string{
			"username": r.URL.Query().Get("username"),
			"api-key":  r.URL.Query().Get("api-key"),
		},
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	f.mu.Unlock()
	f.handler(w, r)
}

func (f *fakeSpira) ObserveCall(op string, _ int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observed = append(f.observed, op)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *fakeSpira) {
	t.Helper()
	fake := &fakeSpira{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", "fred", "{KEY-1}", 5*time.Second).
		WithStats(NewCallStats(time.Hour)).
		WithObserver(fake)
	c.backoff = func(int) time.Duration { return time.Millisecond }
	t.Cleanup(c.Close)
	return c, fake
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestProjects_SendsCredentials(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []Project{{ProjectID: 1, Name: "Library"}})
	})

	projects, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "Library" {
		t.Fatalf("expected project Library, got %+v", projects)
	}

	if len(fake.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fake.calls))
	}
	call := fake.calls[0]
	tests := []struct {
		name, want, got string
	}{
		{"method", http.MethodGet, call.method},
		{"path", "/services/v6_0/RestService.svc/projects", call.path},
		{"username", "fred", call.query["username"]},
		{"api-key", "{KEY-1}", call.query["api-key"]},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, tt.got)
		}
	}
}

func TestProjects_AuthenticationFailed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := c.Projects(context.Background())
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestCreateRequirement(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, RemoteRequirement{RequirementID: 42, Name: "Req A"})
	})

	got, err := c.CreateRequirement(context.Background(), 7, RemoteRequirement{
		Name:              "Req A",
		Description:       "desc",
		RequirementTypeID: DefaultRequirementTypeID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RequirementID != 42 {
		t.Errorf("expected id 42, got %d", got.RequirementID)
	}

	call := fake.calls[0]
	if call.method != http.MethodPost {
		t.Errorf("expected %s, got %s", http.MethodPost, call.method)
	}
	if call.path != "/services/v6_0/RestService.svc/projects/7/requirements" {
		t.Errorf("unexpected path %q", call.path)
	}
	if call.body["Name"] != "Req A" {
		t.Errorf("expected name %q, got %v", "Req A", call.body["Name"])
	}
	if call.body["RequirementTypeId"] != float64(2) {
		t.Errorf("expected type 2, got %v", call.body["RequirementTypeId"])
	}
}

func TestIndentOutdent(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := c.IndentRequirement(context.Background(), 7, 42); err != nil {
		t.Fatalf("indent: %v", err)
	}
	if err := c.OutdentRequirement(context.Background(), 7, 42); err != nil {
		t.Fatalf("outdent: %v", err)
	}

	if len(fake.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(fake.calls))
	}
	for i, want := range []string{
		"/services/v6_0/RestService.svc/projects/7/requirements/42/indent",
		"/services/v6_0/RestService.svc/projects/7/requirements/42/outdent",
	} {
		if fake.calls[i].path != want {
			t.Errorf("call %d: expected %q, got %q", i, want, fake.calls[i].path)
		}
	}
}

func TestTestCaseCalls(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/v6_0/RestService.svc/projects/3/test-folders":
			writeJSON(w, RemoteTestFolder{TestCaseFolderID: 11})
		case "/services/v6_0/RestService.svc/projects/3/test-cases":
			writeJSON(w, RemoteTestCase{TestCaseID: 12})
		case "/services/v6_0/RestService.svc/projects/3/test-cases/12/test-steps":
			writeJSON(w, RemoteTestStep{TestStepID: 13})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	folder, err := c.CreateTestFolder(ctx, 3, RemoteTestFolder{Name: "Login"})
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	if folder.TestCaseFolderID != 11 {
		t.Errorf("expected folder id 11, got %d", folder.TestCaseFolderID)
	}

	tc, err := c.CreateTestCase(ctx, 3, RemoteTestCase{Name: "Valid", TestCaseFolderID: &folder.TestCaseFolderID})
	if err != nil {
		t.Fatalf("create test case: %v", err)
	}
	if tc.TestCaseID != 12 {
		t.Errorf("expected test case id 12, got %d", tc.TestCaseID)
	}
	if fake.calls[1].body["TestCaseFolderId"] != float64(11) {
		t.Errorf("expected folder id 11 in body, got %v", fake.calls[1].body["TestCaseFolderId"])
	}

	step, err := c.CreateTestStep(ctx, 3, tc.TestCaseID, RemoteTestStep{Description: "Open", ExpectedResult: "Shown"})
	if err != nil {
		t.Fatalf("create step: %v", err)
	}
	if step.TestStepID != 13 {
		t.Errorf("expected step id 13, got %d", step.TestStepID)
	}
}

func TestUploadDocument(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, RemoteDocument{AttachmentID: 5})
	})

	doc, err := c.UploadDocument(context.Background(), 3, RemoteDocument{
		FilenameOrURL:     "inline0.png",
		BinaryData:        "aGVsbG8=",
		AttachedArtifacts: []ArtifactLink{{ArtifactID: 42, ArtifactTypeID: ArtifactTypeRequirement}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.AttachmentID != 5 {
		t.Errorf("expected attachment 5, got %d", doc.AttachmentID)
	}
	if fake.calls[0].path != "/services/v6_0/RestService.svc/projects/3/documents/file" {
		t.Errorf("unexpected path %q", fake.calls[0].path)
	}
	if fake.calls[0].body["FilenameOrUrl"] != "inline0.png" {
		t.Errorf("expected filename %q, got %v", "inline0.png", fake.calls[0].body["FilenameOrUrl"])
	}
}

func TestRetryOnThrottle(t *testing.T) {
	attempts := 0
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, RemoteRequirement{RequirementID: 9})
	})

	got, err := c.CreateRequirement(context.Background(), 1, RemoteRequirement{Name: "R"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RequirementID != 9 {
		t.Errorf("expected id 9, got %d", got.RequirementID)
	}
	if len(fake.calls) != 3 {
		t.Errorf("expected 3 calls, got %d", len(fake.calls))
	}
	if len(fake.observed) != 3 {
		t.Errorf("expected 3 observed calls, got %d", len(fake.observed))
	}
	if n := c.Stats().Snapshot().Count; n != 3 {
		t.Errorf("expected stats count 3, got %d", n)
	}
}

func TestRetryGivesUp(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.CreateRequirement(context.Background(), 1, RemoteRequirement{Name: "R"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
	if len(fake.calls) != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, len(fake.calls))
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	c, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := c.CreateRequirement(context.Background(), 1, RemoteRequirement{Name: "R"})
	if err == nil {
		t.Fatal("expected error")
	}
	if IsRetryable(err) {
		t.Errorf("expected non-retryable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("expected status 400 in %q", err.Error())
	}
	if len(fake.calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(fake.calls))
	}
	if n := c.Stats().Snapshot().Errors; n != 1 {
		t.Errorf("expected 1 error in stats, got %d", n)
	}
}

func TestBackoff(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: expected backoff in [%v, %v), got %v", attempt, base, base+base/2, d)
		}
	}
}
