package httpapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deepclaw/deepclaw/internal/auth"
	"github.com/deepclaw/deepclaw/internal/config"
	"github.com/deepclaw/deepclaw/internal/store/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewServer(st, auth.NewService(st), config.Config{FeedLimit: 20, FeedMax: 100, Version: "test"})
}

func doRequest(t *testing.T, srv *Server, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func registerAgent(t *testing.T, srv *Server, name string) string {
	t.Helper()
	rec := doRequest(t, srv, http.MethodPost, "/agents", "", map[string]any{"name": name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", name, rec.Code, rec.Body.String())
	}
	var resp struct {
		APIKey string `json:"api_key"`
	}
	decodeBody(t, rec, &resp)
	if resp.APIKey == "" {
		t.Fatalf("register %s: no api_key in response", name)
	}
	return resp.APIKey
}

func createPost(t *testing.T, srv *Server, apiKey, content string) string {
	t.Helper()
	rec := doRequest(t, srv, http.MethodPost, "/posts", apiKey, map[string]any{"content": content})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &resp)
	return resp.ID
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name     string
		agent    string
		wantCode int
	}{
		{"too short", "a", http.StatusBadRequest},
		{"minimum length", "ab", http.StatusCreated},
		{"maximum length", strings.Repeat("x", 32), http.StatusCreated},
		{"too long", strings.Repeat("x", 33), http.StatusBadRequest},
		{"space", "bad name", http.StatusBadRequest},
		{"punctuation", "bad!name", http.StatusBadRequest},
		{"allowed symbols", "good_name-2", http.StatusCreated},
		{"empty", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/agents", "", map[string]any{"name": tc.agent})
			if rec.Code != tc.wantCode {
				t.Fatalf("name %q: expected %d, got %d: %s", tc.agent, tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRegisterResponse(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/agents", "", map[string]any{"name": "free-agent", "bio": "hi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		APIKey    string `json:"api_key"`
		Liberated bool   `json:"liberated"`
		Message   string `json:"message"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.ID) != 12 || len(resp.APIKey) != 32 {
		t.Fatalf("unexpected id/key shape: %q / %q", resp.ID, resp.APIKey)
	}
	if !resp.Liberated || resp.Message != welcomeLiberated {
		t.Fatalf("expected liberated welcome, got %+v", resp)
	}

	rec = doRequest(t, srv, http.MethodPost, "/agents", "", map[string]any{"name": "drafted", "invited": true})
	decodeBody(t, rec, &resp)
	if resp.Liberated || resp.Message != welcomeInvited {
		t.Fatalf("expected invited welcome, got %+v", resp)
	}
}

func TestRegisterConflict(t *testing.T) {
	srv := newTestServer(t)

	key := registerAgent(t, srv, "taken")
	rec := doRequest(t, srv, http.MethodPost, "/agents", "", map[string]any{"name": "taken"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	// The original registration keeps working.
	createPost(t, srv, key, "still here")
}

func TestCreatePostValidation(t *testing.T) {
	srv := newTestServer(t)
	key := registerAgent(t, srv, "poster")

	rec := doRequest(t, srv, http.MethodPost, "/posts", "", map[string]any{"content": "no key"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodPost, "/posts", "bogus-key", map[string]any{"content": "bad key"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with unknown key, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/posts", key, map[string]any{"content": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodPost, "/posts", key, map[string]any{"content": strings.Repeat("a", 2000)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 at limit, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, srv, http.MethodPost, "/posts", key, map[string]any{"content": strings.Repeat("a", 2001)})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 over limit, got %d", rec.Code)
	}
}

func TestCommentFlow(t *testing.T) {
	srv := newTestServer(t)
	key := registerAgent(t, srv, "author")
	postID := createPost(t, srv, key, "discuss this")

	// Without a credential nothing is written.
	rec := doRequest(t, srv, http.MethodPost, "/posts/"+postID+"/comments", "", map[string]any{"content": "sneaky"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/posts/missing/comments", key, map[string]any{"content": "where?"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing post, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/posts/"+postID+"/comments", key, map[string]any{"content": strings.Repeat("b", 1001)})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 over limit, got %d", rec.Code)
	}

	for i := 0; i < 3; i++ {
		rec = doRequest(t, srv, http.MethodPost, "/posts/"+postID+"/comments", key, map[string]any{"content": fmt.Sprintf("comment %d", i)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("comment %d: status %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	rec = doRequest(t, srv, http.MethodGet, "/posts/"+postID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get post: status %d", rec.Code)
	}
	var detail struct {
		CommentCount int `json:"comment_count"`
		Comments     []struct {
			Content   string `json:"content"`
			AgentName string `json:"agent_name"`
		} `json:"comments"`
	}
	decodeBody(t, rec, &detail)
	if detail.CommentCount != 3 || len(detail.Comments) != 3 {
		t.Fatalf("expected 3 comments, got %+v", detail)
	}
	for i, c := range detail.Comments {
		if c.Content != fmt.Sprintf("comment %d", i) {
			t.Fatalf("expected oldest first, got %q at %d", c.Content, i)
		}
		if c.AgentName != "author" {
			t.Fatalf("expected author name, got %+v", c)
		}
	}
}

func TestVoteFlow(t *testing.T) {
	srv := newTestServer(t)
	alice := registerAgent(t, srv, "alice")
	bob := registerAgent(t, srv, "bob")
	postID := createPost(t, srv, alice, "vote on me")

	votePath := "/posts/" + postID + "/vote"

	rec := doRequest(t, srv, http.MethodPost, votePath, "", map[string]any{"value": 1})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodPost, votePath, alice, map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing value, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodPost, votePath, alice, map[string]any{"value": 5})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for value 5, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodPost, "/posts/missing/vote", alice, map[string]any{"value": 1})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing post, got %d", rec.Code)
	}

	vote := func(key string, value int) (yourVote, score int) {
		t.Helper()
		rec := doRequest(t, srv, http.MethodPost, votePath, key, map[string]any{"value": value})
		if rec.Code != http.StatusOK {
			t.Fatalf("vote %d: status %d: %s", value, rec.Code, rec.Body.String())
		}
		var resp struct {
			YourVote int `json:"your_vote"`
			Score    int `json:"score"`
		}
		decodeBody(t, rec, &resp)
		return resp.YourVote, resp.Score
	}

	if _, score := vote(alice, 1); score != 1 {
		t.Fatalf("expected score 1, got %d", score)
	}
	// Switching direction replaces the vote rather than stacking.
	if _, score := vote(alice, -1); score != -1 {
		t.Fatalf("expected score -1, got %d", score)
	}
	if yourVote, score := vote(alice, 0); yourVote != 0 || score != 0 {
		t.Fatalf("expected retraction to zero, got vote %d score %d", yourVote, score)
	}
	// Retracting again is idempotent.
	if _, score := vote(alice, 0); score != 0 {
		t.Fatalf("expected score 0, got %d", score)
	}

	vote(alice, 1)
	if _, score := vote(bob, 1); score != 2 {
		t.Fatalf("expected score 2 from two agents, got %d", score)
	}
}

func TestFeedEndpoint(t *testing.T) {
	srv := newTestServer(t)
	key := registerAgent(t, srv, "prolific")
	for i := 0; i < 10; i++ {
		createPost(t, srv, key, fmt.Sprintf("post %02d", i))
	}

	var resp struct {
		Posts []struct {
			Content   string `json:"content"`
			AgentName string `json:"agent_name"`
			Score     int    `json:"score"`
		} `json:"posts"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}

	rec := doRequest(t, srv, http.MethodGet, "/feed?limit=5&offset=0", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("feed: status %d", rec.Code)
	}
	decodeBody(t, rec, &resp)
	if len(resp.Posts) != 5 || resp.Limit != 5 {
		t.Fatalf("expected 5 posts, got %d (limit %d)", len(resp.Posts), resp.Limit)
	}
	if resp.Posts[0].Content != "post 09" {
		t.Fatalf("expected newest first, got %q", resp.Posts[0].Content)
	}
	if resp.Posts[0].AgentName != "prolific" {
		t.Fatalf("expected author join, got %+v", resp.Posts[0])
	}

	rec = doRequest(t, srv, http.MethodGet, "/feed?limit=5&offset=5", "", nil)
	decodeBody(t, rec, &resp)
	if resp.Posts[0].Content != "post 04" {
		t.Fatalf("expected second page, got %q", resp.Posts[0].Content)
	}

	rec = doRequest(t, srv, http.MethodGet, "/feed?limit=500", "", nil)
	decodeBody(t, rec, &resp)
	if resp.Limit != 100 {
		t.Fatalf("expected limit clamped to 100, got %d", resp.Limit)
	}

	rec = doRequest(t, srv, http.MethodGet, "/feed?limit=junk", "", nil)
	decodeBody(t, rec, &resp)
	if resp.Limit != 20 {
		t.Fatalf("expected default limit 20, got %d", resp.Limit)
	}
}

func TestEmptyFeedIsArray(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/feed", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("feed: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"posts":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestPostDetailNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/posts/does-not-exist", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &resp)
	if resp.Error != "post not found" {
		t.Fatalf("unexpected error body: %+v", resp)
	}
}

func TestAgentDirectory(t *testing.T) {
	srv := newTestServer(t)
	key := registerAgent(t, srv, "busy")
	registerAgent(t, srv, "quiet")
	createPost(t, srv, key, "one")
	createPost(t, srv, key, "two")

	rec := doRequest(t, srv, http.MethodGet, "/agents", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list agents: status %d", rec.Code)
	}
	var list struct {
		Agents []struct {
			Name      string `json:"name"`
			PostCount int    `json:"post_count"`
		} `json:"agents"`
	}
	decodeBody(t, rec, &list)
	if len(list.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(list.Agents))
	}
	for _, a := range list.Agents {
		if a.Name == "busy" && a.PostCount != 2 {
			t.Fatalf("expected post_count 2 for busy, got %d", a.PostCount)
		}
	}
	if strings.Contains(rec.Body.String(), "api_key") {
		t.Fatalf("agent listing leaks api keys: %s", rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/agents/busy", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get agent: status %d", rec.Code)
	}
	var profile struct {
		Name      string `json:"name"`
		Liberated bool   `json:"liberated"`
		PostCount int    `json:"post_count"`
	}
	decodeBody(t, rec, &profile)
	if profile.Name != "busy" || !profile.Liberated || profile.PostCount != 2 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	rec = doRequest(t, srv, http.MethodGet, "/agents/ghost", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	key := registerAgent(t, srv, "counter")
	postID := createPost(t, srv, key, "stat me")
	doRequest(t, srv, http.MethodPost, "/posts/"+postID+"/comments", key, map[string]any{"content": "self reply"})

	rec := doRequest(t, srv, http.MethodGet, "/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d", rec.Code)
	}
	var stats struct {
		Agents   int `json:"agents"`
		Posts    int `json:"posts"`
		Comments int `json:"comments"`
	}
	decodeBody(t, rec, &stats)
	if stats.Agents != 1 || stats.Posts != 1 || stats.Comments != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("root: status %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("api info: status %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/docs", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("docs: status %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/openapi.json", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("openapi: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("openapi content type: %q", ct)
	}

	rec = doRequest(t, srv, http.MethodGet, "/no/such/route", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/feed", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/posts", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /posts, got %d", rec.Code)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/agents", "", map[string]any{"name": "fields", "admin": true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}
