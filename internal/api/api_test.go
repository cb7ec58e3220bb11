package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"github.com/example/studycore/internal/apperr"
	"github.com/example/studycore/internal/auth"
	"github.com/example/studycore/internal/database"
	"github.com/example/studycore/internal/logger"
	"github.com/example/studycore/internal/study"
)

type fakeProvider struct{}

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (fakeProvider) Exchange(_ context.Context, code string) (*auth.Identity, *oauth2.Token, error) {
	if code == "" {
		return nil, nil, apperr.InvalidInput("missing authorization code")
	}
	return &auth.Identity{ID: "sub-" + code, Email: code + "@example.com", Name: code},
		&oauth2.Token{AccessToken: "at-" + code, Expiry: time.Now().Add(time.Hour)}, nil
}

type testServer struct {
	router *gin.Engine
	svc    *study.Service
	issuer *auth.TokenIssuer
	states *auth.MemoryStateStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := database.NewStore(db)

	log := logger.NewNop()
	svc := study.NewService(store, study.Options{Logger: log})
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	states := auth.NewMemoryStateStore()

	router := NewRouter(RouterConfig{
		AuthHandler: NewAuthHandler(log, AuthHandlerConfig{
			Provider: fakeProvider{},
			States:   states,
			Issuer:   issuer,
			Accounts: svc,
			AppURL:   "/dashboard",
		}),
		AuthMiddleware: NewAuthMiddleware(log, issuer, svc),
		StudyHandler:   NewStudyHandler(log, svc),
		HealthHandler:  NewHealthHandler(store.Ping),
	})
	return &testServer{router: router, svc: svc, issuer: issuer, states: states}
}

// signIn creates a user and returns a bearer token for it
func (s *testServer) signIn(t *testing.T, id string) string {
	t.Helper()
	if _, err := s.svc.SignIn(context.Background(), study.Profile{ID: id, Email: id + "@example.com", Name: id}, "", nil); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	token, err := s.issuer.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env ErrorEnvelope
	decode(t, w, &env)
	return env.Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)
	unknown, _ := s.issuer.Issue("ghost")

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage", "not-a-jwt"},
		{"unknown user", unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/topics", tt.token, nil)
			if w.Code != http.StatusUnauthorized || errorCode(t, w) != "unauthorized" {
				t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/auth/login", "", nil)
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("login status = %d", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("no state in redirect")
	}

	w = s.do(t, http.MethodGet, "/auth/callback?code=alice&state=forged", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("forged state status = %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/auth/callback?code=alice&state="+url.QueryEscape(state), "", nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("callback status = %d location = %q", w.Code, w.Header().Get("Location"))
	}
	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			session = c
		}
	}
	if session == nil || !session.HttpOnly || session.Value == "" {
		t.Fatalf("session cookie = %+v", session)
	}

	// the state is single use
	w = s.do(t, http.MethodGet, "/auth/callback?code=alice&state="+url.QueryEscape(state), "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("replayed state status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "Bearer " + session.Value})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alice@example.com") {
		t.Fatalf("me status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestTopicLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice")
	bob := s.signIn(t, "bob")

	w := s.do(t, http.MethodPost, "/api/topics", alice, map[string]any{"title": "Renal Physiology", "subject": "Medicine"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", w.Code, w.Body.String())
	}
	var topic struct {
		ID string `json:"id"`
	}
	decode(t, w, &topic)

	w = s.do(t, http.MethodPost, "/api/explain", alice, map[string]any{"topic_id": topic.ID, "duration_seconds": 120, "confidence": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("explain status = %d body = %s", w.Code, w.Body.String())
	}
	var result struct {
		NextReviewDate  *string `json:"next_review_date"`
		DaysUntilReview *int    `json:"days_until_review"`
	}
	decode(t, w, &result)
	if result.DaysUntilReview == nil || *result.DaysUntilReview != 14 {
		t.Fatalf("explain result = %s", w.Body.String())
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"get own topic", http.MethodGet, "/api/topics/" + topic.ID, alice, nil, http.StatusOK},
		{"get other's topic", http.MethodGet, "/api/topics/" + topic.ID, bob, nil, http.StatusForbidden},
		{"other's sessions", http.MethodGet, "/api/topics/" + topic.ID + "/sessions", bob, nil, http.StatusNotFound},
		{"own sessions", http.MethodGet, "/api/topics/" + topic.ID + "/sessions", alice, nil, http.StatusOK},
		{"bad confidence", http.MethodPost, "/api/explain", alice, map[string]any{"topic_id": topic.ID, "confidence": 9}, http.StatusBadRequest},
		{"empty title", http.MethodPost, "/api/topics", alice, map[string]any{"title": " "}, http.StatusBadRequest},
		{"due today", http.MethodGet, "/api/due-today", alice, nil, http.StatusOK},
		{"stats", http.MethodGet, "/api/analytics/stats", alice, nil, http.StatusOK},
		{"schedules", http.MethodGet, "/api/schedules", alice, nil, http.StatusOK},
		{"delete other's topic", http.MethodDelete, "/api/topics/" + topic.ID, bob, nil, http.StatusForbidden},
		{"delete own topic", http.MethodDelete, "/api/topics/" + topic.ID, alice, nil, http.StatusOK},
		{"get deleted topic", http.MethodGet, "/api/topics/" + topic.ID, alice, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestCreateScheduleAcceptsIntervalString(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice")

	w := s.do(t, http.MethodPost, "/api/schedules", alice, map[string]any{
		"topic": "Organic chemistry", "start_date": "2024-05-01", "intervals": "1, 3",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var res study.ScheduleResult
	decode(t, w, &res)
	if strings.Join(res.ReviewDates, ",") != "2024-05-02,2024-05-04" {
		t.Fatalf("review dates = %v", res.ReviewDates)
	}

	w = s.do(t, http.MethodPost, "/api/schedules", alice, map[string]any{"topic": "x", "intervals": "1,-2"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_input" {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestImportAndExport(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "topics.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte("title,subject\nRenal Physiology,Medicine\n,Empty\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/topics/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d body = %s", w.Code, w.Body.String())
	}
	var res struct {
		Created int `json:"created"`
		Skipped int `json:"skipped"`
	}
	decode(t, w, &res)
	if res.Created != 1 || res.Skipped != 1 {
		t.Fatalf("import result = %s", w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/topics/export", alice, nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxMIME {
		t.Fatalf("export status = %d type = %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("disposition = %q", w.Header().Get("Content-Disposition"))
	}
}

func TestFeedbackOptionalAuth(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice")

	for _, token := range []string{"", alice, "expired-or-garbage"} {
		w := s.do(t, http.MethodPost, "/api/feedback", token, map[string]any{"message": "Love it", "type": "feature"})
		if w.Code != http.StatusOK {
			t.Fatalf("token %q: status = %d body = %s", token, w.Code, w.Body.String())
		}
	}

	w := s.do(t, http.MethodPost, "/api/feedback", "", map[string]any{"message": ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty message status = %d", w.Code)
	}
}

func TestPreferences(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice")
	bob := s.signIn(t, "bob")

	w := s.do(t, http.MethodPut, "/api/me/preferences", alice, map[string]any{"telegram_chat_id": 555, "reminders_enabled": false})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"telegram_chat_id":555`) {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	w = s.do(t, http.MethodPut, "/api/me/preferences", bob, map[string]any{"telegram_chat_id": 555})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate chat status = %d", w.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/auth/logout", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookies = %+v", cookies)
	}
}
