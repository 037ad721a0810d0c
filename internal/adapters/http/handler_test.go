package httpadapter_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/gviz-app/gviz-api/internal/adapters/http"
	"github.com/gviz-app/gviz-api/internal/adapters/llm"
	"github.com/gviz-app/gviz-api/internal/adapters/storage/memory"
	"github.com/gviz-app/gviz-api/internal/app/chat"
	"github.com/gviz-app/gviz-api/internal/app/recommend"
	"github.com/gviz-app/gviz-api/internal/auth"
	"github.com/gviz-app/gviz-api/internal/domain"
)

type testEnv struct {
	server http.Handler
	mock   *llm.MockGenerator
	issuer *auth.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mock := llm.NewMockGenerator()
	issuer := auth.NewIssuer([]byte("test-secret"), time.Hour)
	gate := auth.NewGate(issuer, auth.NewRevocations())

	server := httpadapter.NewServer(httpadapter.Deps{
		Users:         memory.NewUserStore(),
		Notifications: memory.NewNotificationStore(),
		Issuer:        issuer,
		Gate:          gate,
		Chat:          chat.NewService(mock, chat.NewHistory(40), 5*time.Second),
		Recommend:     recommend.NewService(mock, 5*time.Second),
		CORSOrigin:    "http://localhost:5173",
	})

	return &testEnv{server: server, mock: mock, issuer: issuer}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates a user and returns its auth token.
func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/user/register", "", map[string]string{
		"email":    email,
		"password": "s3cret-pass",
		"name":     "Test User",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "s3cret-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected non-empty token")
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.c"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "whatever",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401, got %d", w.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "a@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "not-the-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "a@example.com")

	w := env.do(t, http.MethodPost, "/api/user/register", "", map[string]string{
		"email": "a@example.com", "password": "x-pass-123", "name": "Other",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	// Token works before logout.
	w := env.do(t, http.MethodGet, "/api/user/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pre-logout profile: expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	// Every subsequent use of the token is rejected.
	for i := 0; i < 2; i++ {
		w = env.do(t, http.MethodGet, "/api/user/profile", token, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("post-logout profile: expected 401, got %d", w.Code)
		}
	}
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/user/profile",
		"/api/user/notifications",
		"/api/recommendation/job",
		"/api/recommendation/skill",
	} {
		w := env.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: expected 401, got %d", path, w.Code)
		}
	}

	w := env.do(t, http.MethodGet, "/api/user/profile", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	w := env.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChat_TextMessage(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")
	env.mock.TextReply = "Hello there!"

	w := env.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "Hi"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var result domain.ChatResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode chat result: %v", err)
	}
	if !result.Success || result.Response != "Hello there!" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestChat_InvalidImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	w := env.do(t, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "what is this?",
		"image":   "not-a-data-url",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env.mock.MultimodalCalls != 0 {
		t.Fatalf("provider must not be called for invalid images")
	}
}

func TestChat_ImageMessage(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")
	env.mock.MultimodalReply = "A chart."

	payload := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})
	w := env.do(t, http.MethodPost, "/api/chat", token, map[string]string{
		"message": "describe this",
		"image":   "data:image/png;base64," + payload,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if env.mock.MultimodalCalls != 1 {
		t.Fatalf("expected 1 multimodal call, got %d", env.mock.MultimodalCalls)
	}
	if env.mock.LastMIMEType != "image/png" {
		t.Fatalf("expected image/png, got %q", env.mock.LastMIMEType)
	}
}

func TestJobRecommendations(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	env.mock.TextReply = `[
		{"title":"Backend Engineer","organization":"Acme","description":"APIs","match_score":92,"required_skills":["Go"]},
		{"title":"SRE","organization":"Globex","description":"Ops","match_score":85,"required_skills":["Linux"]},
		{"title":"Data Engineer","organization":"Initech","description":"Pipelines","match_score":78,"required_skills":["SQL"]}
	]`

	w := env.do(t, http.MethodGet, "/api/recommendation/job", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var items []domain.JobRecommendation
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Title != "Backend Engineer" || items[0].MatchScore != 92 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
}

func TestRecommendations_UserMissing(t *testing.T) {
	env := newTestEnv(t)

	// Valid token for a subject that is not in the user store.
	token, err := env.issuer.Issue(domain.UserID("ghost"))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	for _, path := range []string{"/api/recommendation/job", "/api/recommendation/skill"} {
		w := env.do(t, http.MethodGet, path, token, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestSkillRecommendations_FallbackOnGarbage(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")
	env.mock.TextReply = "no json here"

	w := env.do(t, http.MethodGet, "/api/recommendation/skill", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var items []domain.SkillRecommendation
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 1 || !items[0].Placeholder {
		t.Fatalf("expected single placeholder item, got %+v", items)
	}
}

func TestProfile_UpdateFlowsToRecommendations(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	w := env.do(t, http.MethodPut, "/api/user/profile", token, map[string]any{
		"skills":        []string{"Go", "SQL"},
		"job_interests": []string{"backend"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	env.mock.TextReply = `[]`
	w = env.do(t, http.MethodGet, "/api/recommendation/job", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// The prompt was built from the freshly saved profile.
	for _, want := range []string{"Go, SQL", "backend"} {
		if !bytes.Contains([]byte(env.mock.LastPrompt), []byte(want)) {
			t.Fatalf("prompt missing %q:\n%s", want, env.mock.LastPrompt)
		}
	}
}

func TestNotifications_WelcomeOnRegister(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	w := env.do(t, http.MethodGet, "/api/user/notifications", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var items []struct {
		Title  string `json:"title"`
		Unread bool   `json:"unread"`
		Time   string `json:"time"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode notifications: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Welcome to GViz" {
		t.Fatalf("expected welcome notification, got %+v", items)
	}
	if !items[0].Unread || items[0].Time != "Just now" {
		t.Fatalf("unexpected notification state: %+v", items[0])
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	w := env.do(t, http.MethodGet, "/api/search?q=x", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("short query: expected 400, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/search?q=charts", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("charts")) {
		t.Fatalf("expected query echoed in results, body=%s", w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected CORS origin %q", got)
	}
}

func TestExpiredToken(t *testing.T) {
	env := newTestEnv(t)

	expiredIssuer := auth.NewIssuer([]byte("test-secret"), -time.Minute)
	token, err := expiredIssuer.Issue(domain.UserID("u1"))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	w := env.do(t, http.MethodGet, "/api/user/profile", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("expired")) {
		t.Fatalf("expected expiry message, body=%s", w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/auth/login"},
		{http.MethodGet, "/api/chat"},
		{http.MethodPost, "/api/recommendation/job"},
	}
	for _, c := range cases {
		w := env.do(t, c.method, c.path, token, nil)
		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", c.method, c.path, w.Code)
		}
	}
}

func TestChatHistoryContinuity(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "a@example.com")

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/chat", token, map[string]string{
			"message": fmt.Sprintf("message %d", i),
		})
		if w.Code != http.StatusOK {
			t.Fatalf("chat %d: expected 200, got %d", i, w.Code)
		}
	}

	// Second call carried the first exchange as context.
	if len(env.mock.LastHistory) != 2 {
		t.Fatalf("expected 2 turns of context, got %d", len(env.mock.LastHistory))
	}
	if env.mock.LastHistory[0].Text != "message 0" {
		t.Fatalf("unexpected history head: %+v", env.mock.LastHistory[0])
	}
}
