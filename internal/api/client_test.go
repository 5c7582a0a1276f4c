package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("https://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.Scheme != "https" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

type recorded struct {
	method  string
	path    string
	rawPath string
	query   url.Values
	body    map[string]string
	header  http.Header
}

func newRecordingServer(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*Client, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var seen []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, rawPath: r.URL.EscapedPath(), query: r.URL.Query(), header: r.Header.Clone()}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		respond(w, r)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), seen...)
	}
}

func TestClient_FetchesPagesAndEncodesQueries(t *testing.T) {
	t.Parallel()

	c, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/feed":
			_ = json.NewEncoder(w).Encode(PageResponse[Recipe]{
				Items:      []Recipe{{ID: "r1", Title: "Soup", LikeCount: 3}},
				NextCursor: "c2",
				HasMore:    true,
			})
		case strings.HasSuffix(r.URL.Path, "/comments"):
			_ = json.NewEncoder(w).Encode(PageResponse[Comment]{Items: []Comment{{ID: "c1"}}})
		case strings.HasSuffix(r.URL.Path, "/cooking-logs"):
			_ = json.NewEncoder(w).Encode(PageResponse[CookingLog]{Items: []CookingLog{{ID: "l1"}}, NextCursor: "x", HasMore: false})
		case r.URL.Path == "/api/admin/users":
			_ = json.NewEncoder(w).Encode(PageResponse[User]{Items: []User{{ID: "u1", Role: RoleMember}}})
		default:
			_ = json.NewEncoder(w).Encode(PageResponse[Recipe]{})
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	feed, err := c.FetchFeed(ctx, "", 20)
	if err != nil {
		t.Fatalf("FetchFeed returned error: %v", err)
	}
	if len(feed.Items) != 1 || feed.Items[0].ID != "r1" || feed.Cursor != "c2" || !feed.HasMore {
		t.Fatalf("FetchFeed page = %#v, want r1 with cursor c2", feed)
	}

	if _, err := c.FetchComments(ctx, "r/1", "c2", 5); err != nil {
		t.Fatalf("FetchComments returned error: %v", err)
	}
	logs, err := c.FetchCookingLogs(ctx, "u1", "", 0)
	if err != nil {
		t.Fatalf("FetchCookingLogs returned error: %v", err)
	}
	if logs.HasMore || logs.CanContinue() {
		t.Fatalf("FetchCookingLogs page = %#v, want terminal page despite cursor", logs)
	}
	if _, err := c.SearchRecipes(ctx, "  kimchi ", "", 10); err != nil {
		t.Fatalf("SearchRecipes returned error: %v", err)
	}
	users, err := c.FetchAdminUsers(ctx, "", 10)
	if err != nil || len(users.Items) != 1 || users.Items[0].Role != RoleMember {
		t.Fatalf("FetchAdminUsers = %#v, %v", users, err)
	}

	got := seen()
	if len(got) != 5 {
		t.Fatalf("requests = %d, want 5", len(got))
	}
	if got[0].query.Get("size") != "20" || got[0].query.Has("cursor") {
		t.Fatalf("feed query = %v, want size only", got[0].query)
	}
	if got[1].path != "/api/recipes/r/1/comments" || got[1].rawPath != "/api/recipes/r%2F1/comments" {
		t.Fatalf("comments path = %q", got[1].path)
	}
	if got[1].query.Get("cursor") != "c2" || got[1].query.Get("size") != "5" {
		t.Fatalf("comments query = %v, want cursor and size", got[1].query)
	}
	if got[2].path != "/api/users/u1/cooking-logs" || len(got[2].query) != 0 {
		t.Fatalf("cooking logs request = %s %v", got[2].path, got[2].query)
	}
	if got[3].query.Get("q") != "kimchi" {
		t.Fatalf("search q = %q, want kimchi", got[3].query.Get("q"))
	}

	ids := map[string]bool{}
	for _, r := range got {
		if !strings.HasPrefix(r.header.Get("User-Agent"), "potluck/") {
			t.Fatalf("User-Agent = %q, want potluck/*", r.header.Get("User-Agent"))
		}
		id := r.header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("X-Request-ID = %q, want uuid", id)
		}
		ids[id] = true
	}
	if len(ids) != len(got) {
		t.Fatalf("request ids not unique: %v", ids)
	}
}

func TestClient_RequiresIDs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := c.FetchComments(ctx, " ", "", 0); err == nil {
		t.Fatalf("FetchComments returned nil error, want error")
	}
	if _, err := c.FetchUserRecipes(ctx, "", "", 0); err == nil {
		t.Fatalf("FetchUserRecipes returned nil error, want error")
	}
	if err := c.SubmitMutation(ctx, KindRecipes, "", ActionLike); err == nil {
		t.Fatalf("SubmitMutation returned nil error, want error")
	}
	if _, err := c.SubmitFieldUpdate(ctx, KindRecipes, "r1", "", "x"); err == nil {
		t.Fatalf("SubmitFieldUpdate returned nil error, want error")
	}
}

func TestClient_SubmitsMutationsAndFieldUpdates(t *testing.T) {
	t.Parallel()

	c, seen := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPatch:
			_ = json.NewEncoder(w).Encode(Recipe{ID: "r1", Status: "hidden"})
		}
	})
	ctx := context.Background()

	if err := c.Actions(KindRecipes).SubmitMutation(ctx, "r1", ActionLike); err != nil {
		t.Fatalf("SubmitMutation returned error: %v", err)
	}
	stored, err := c.UpdateRecipeStatus(ctx, "r1", " Hidden ")
	if err != nil {
		t.Fatalf("UpdateRecipeStatus returned error: %v", err)
	}
	if stored.Status != "hidden" {
		t.Fatalf("stored status = %q, want server value hidden", stored.Status)
	}

	got := seen()
	if got[0].method != http.MethodPost || got[0].path != "/api/recipes/r1/actions" || got[0].body["action"] != "like" {
		t.Fatalf("mutation request = %+v", got[0])
	}
	if got[0].header.Get("Content-Type") != "application/json" {
		t.Fatalf("Content-Type = %q", got[0].header.Get("Content-Type"))
	}
	if got[1].method != http.MethodPatch || got[1].path != "/api/admin/recipes/r1" ||
		got[1].body["field"] != "status" || got[1].body["value"] != " Hidden " {
		t.Fatalf("field update request = %+v", got[1])
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	c, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/feed":
			_, _ = w.Write([]byte("{not-json"))
		case "/api/admin/recipes":
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "database down"})
		default:
			http.Error(w, "nope", http.StatusConflict)
		}
	})
	ctx := context.Background()

	_, err := c.FetchFeed(ctx, "", 0)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchFeed error = %v, want decode response error", err)
	}

	_, err = c.FetchAdminRecipes(ctx, "", 0)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != 500 || se.Message != "database down" {
		t.Fatalf("FetchAdminRecipes error = %v, want status 500 with message", err)
	}
	if !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("error text = %q", err.Error())
	}

	err = c.SubmitMutation(ctx, KindUsers, "u1", ActionFollow)
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("SubmitMutation error = %v, want 409", err)
	}
	if se := err.(*StatusError); se.Message != "nope" {
		t.Fatalf("message = %q, want plain body", se.Message)
	}
}

func TestClient_Options(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c, err := NewClient("localhost:9", WithHTTPClient(hc), WithUserAgent("probe/1"), WithUserAgent(" "))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if c.http != hc || c.userAgent != "probe/1" {
		t.Fatalf("options not applied: %+v", c)
	}
	if c.BaseURL() != "http://localhost:9" {
		t.Fatalf("BaseURL = %q", c.BaseURL())
	}
}
