package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/tissuesalts/internal/logging"
	"github.com/dmitrijs2005/tissuesalts/internal/server/config"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tissuesalts/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	index := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(index, []byte("<html>assessment</html>"), 0o600))

	return &config.Config{
		EndpointAddr:      "127.0.0.1:0",
		IndexPage:         index,
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}
}

func testLogger() logging.Logger {
	return logging.NewJSONLogger(io.Discard, "error")
}

// newStoreServer wires the edge to real services over a temp-file database.
func newStoreServer(t *testing.T) http.Handler {
	t.Helper()
	m := repomanager.NewSQLiteRepositoryManager()
	db, err := repomanager.Open(context.Background(), filepath.Join(t.TempDir(), "app.db"), m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ss := services.NewSessionService(db, m)
	cs := services.NewCredentialService(db, m, ss)
	as := services.NewAssessmentService(db, m, ss)

	return NewServer(testConfig(t), testLogger(), db, cs, ss, as).Handler()
}

type reply struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

func do(t *testing.T, h http.Handler, method, path string, body any) reply {
	t.Helper()
	return doWithHeader(t, h, method, path, body, nil)
}

func doWithHeader(t *testing.T, h http.Handler, method, path string, body any, header map[string]string) reply {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := reply{status: rec.Code, header: rec.Header(), raw: rec.Body.String()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.body), "body: %s", out.raw)
	}
	return out
}

func register(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	r := do(t, h, http.MethodPost, "/api/register", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, r.status, r.raw)
	return r.body["token"].(string)
}

func assertCORS(t *testing.T, h http.Header) {
	t.Helper()
	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type,Authorization", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "GET,PUT,POST,DELETE,OPTIONS", h.Get("Access-Control-Allow-Methods"))
}

// --- end to end ---

func TestRegisterLoginVerifyLogout(t *testing.T) {
	h := newStoreServer(t)

	r := do(t, h, http.MethodPost, "/api/register", map[string]string{"email": "a@x.com", "password": "pw"})
	require.Equal(t, http.StatusOK, r.status, r.raw)
	assert.Equal(t, true, r.body["success"])
	assert.Equal(t, "a@x.com", r.body["email"])
	assert.Equal(t, float64(1), r.body["user_id"])
	regToken := r.body["token"].(string)
	assert.GreaterOrEqual(t, len(regToken), 43)

	r = do(t, h, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "pw"})
	require.Equal(t, http.StatusOK, r.status, r.raw)
	loginToken := r.body["token"].(string)
	assert.NotEqual(t, regToken, loginToken)

	for _, tok := range []string{regToken, loginToken} {
		r = do(t, h, http.MethodPost, "/api/verify-session", map[string]string{"token": tok})
		require.Equal(t, http.StatusOK, r.status, r.raw)
		assert.Equal(t, "a@x.com", r.body["email"])
		assert.Equal(t, float64(1), r.body["user_id"])
		_, hasToken := r.body["token"]
		assert.False(t, hasToken)
	}

	r = do(t, h, http.MethodPost, "/api/logout", map[string]string{"token": loginToken})
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, true, r.body["success"])

	r = do(t, h, http.MethodPost, "/api/verify-session", map[string]string{"token": loginToken})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Invalid session", r.body["error"])

	r = do(t, h, http.MethodPost, "/api/verify-session", map[string]string{"token": regToken})
	assert.Equal(t, http.StatusOK, r.status, "other sessions survive a logout")
}

func TestRegister_Errors(t *testing.T) {
	h := newStoreServer(t)
	register(t, h, "a@x.com", "pw")

	r := do(t, h, http.MethodPost, "/api/register", map[string]string{"email": "a@x.com", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Email already registered", r.body["error"])
	assertCORS(t, r.header)

	for _, body := range []any{
		map[string]string{"email": "b@x.com"},
		map[string]string{"password": "pw"},
		map[string]string{"email": "", "password": ""},
		nil,
	} {
		r = do(t, h, http.MethodPost, "/api/register", body)
		assert.Equal(t, http.StatusBadRequest, r.status)
		assert.Equal(t, "Email and password required", r.body["error"])
	}

	r = do(t, h, http.MethodPost, "/api/register", "{not json")
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Invalid JSON", r.body["error"])
}

func TestLogin_Errors(t *testing.T) {
	h := newStoreServer(t)
	register(t, h, "a@x.com", "pw")

	r := do(t, h, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "PW"})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Invalid credentials", r.body["error"])

	r = do(t, h, http.MethodPost, "/api/login", map[string]string{"email": "nobody@x.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "Invalid credentials", r.body["error"])

	r = do(t, h, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Email and password required", r.body["error"])
}

func TestVerify_MissingToken(t *testing.T) {
	h := newStoreServer(t)

	r := do(t, h, http.MethodPost, "/api/verify-session", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "Token required", r.body["error"])
}

func TestBearerHeaderFallback(t *testing.T) {
	h := newStoreServer(t)
	token := register(t, h, "a@x.com", "pw")

	r := doWithHeader(t, h, http.MethodPost, "/api/verify-session", map[string]string{},
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, r.status, r.raw)
	assert.Equal(t, "a@x.com", r.body["email"])

	r = doWithHeader(t, h, http.MethodPost, "/api/verify-session", map[string]string{"token": "bogus"},
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, r.status, "body token wins over the header")
}

func TestAssessments_SaveAndList(t *testing.T) {
	h := newStoreServer(t)
	tokA := register(t, h, "a@x.com", "pw")
	tokB := register(t, h, "b@x.com", "pw")

	save := func(token, order string) float64 {
		r := do(t, h, http.MethodPost, "/api/save-assessment", map[string]any{
			"token":        token,
			"service_type": "premium",
			"age_group":    "child",
			"answers":      map[string]any{"q1": []int{1, 2}, "q2": map[string]string{"k": "v"}},
			"results":      []string{"Calc Phos", "Nat Mur"},
			"order_number": order,
		})
		require.Equal(t, http.StatusOK, r.status, r.raw)
		assert.Equal(t, true, r.body["success"])
		return r.body["assessment_id"].(float64)
	}

	id1 := save(tokA, "A-1")
	save(tokB, "B-1")
	id2 := save(tokA, "A-2")
	assert.Greater(t, id2, id1)

	r := do(t, h, http.MethodPost, "/api/get-assessments", map[string]string{"token": tokA})
	require.Equal(t, http.StatusOK, r.status, r.raw)

	list := r.body["assessments"].([]any)
	require.Len(t, list, 2)

	first := list[0].(map[string]any)
	assert.Equal(t, id2, first["id"])
	assert.Equal(t, "A-2", first["order_number"])
	assert.Equal(t, "premium", first["service_type"])
	assert.Equal(t, "child", first["age_group"])
	assert.Equal(t, map[string]any{"q1": []any{float64(1), float64(2)}, "q2": map[string]any{"k": "v"}}, first["answers"])
	assert.Equal(t, []any{"Calc Phos", "Nat Mur"}, first["results"])

	createdAt, err := time.Parse(time.RFC3339, first["created_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), createdAt, time.Minute)

	assert.Equal(t, "A-1", list[1].(map[string]any)["order_number"])
}

func TestAssessments_EmptyListAndMissingFields(t *testing.T) {
	h := newStoreServer(t)
	tok := register(t, h, "a@x.com", "pw")

	r := do(t, h, http.MethodPost, "/api/get-assessments", map[string]string{"token": tok})
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, []any{}, r.body["assessments"])

	r = do(t, h, http.MethodPost, "/api/save-assessment", map[string]string{"token": tok})
	require.Equal(t, http.StatusOK, r.status, r.raw)

	r = do(t, h, http.MethodPost, "/api/get-assessments", map[string]string{"token": tok})
	list := r.body["assessments"].([]any)
	require.Len(t, list, 1)
	item := list[0].(map[string]any)
	assert.Nil(t, item["answers"])
	assert.Nil(t, item["results"])
	assert.Equal(t, "", item["service_type"])
}

func TestAssessments_AuthErrors(t *testing.T) {
	h := newStoreServer(t)

	for _, path := range []string{"/api/save-assessment", "/api/get-assessments"} {
		r := do(t, h, http.MethodPost, path, map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, r.status, path)
		assert.Equal(t, "Authentication required", r.body["error"], path)

		r = do(t, h, http.MethodPost, path, map[string]string{"token": "bogus"})
		assert.Equal(t, http.StatusUnauthorized, r.status, path)
		assert.Equal(t, "Invalid session", r.body["error"], path)
		assertCORS(t, r.header)
	}
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	h := newStoreServer(t)

	for _, body := range []any{nil, "garbage", map[string]string{}, map[string]string{"token": "never-issued"}} {
		r := do(t, h, http.MethodPost, "/api/logout", body)
		assert.Equal(t, http.StatusOK, r.status)
		assert.Equal(t, true, r.body["success"])
	}
}

// --- routing and middleware ---

func TestIndexPage(t *testing.T) {
	h := newStoreServer(t)

	r := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Contains(t, r.raw, "assessment")
	assertCORS(t, r.header)
}

func TestRouting_NotFoundAndMethod(t *testing.T) {
	h := newStoreServer(t)

	r := do(t, h, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "Not found", r.body["error"])
	assertCORS(t, r.header)

	r = do(t, h, http.MethodGet, "/api/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, r.status)
	assert.Equal(t, "Method not allowed", r.body["error"])
	assert.Equal(t, http.MethodPost, r.header.Get("Allow"))

	r = do(t, h, http.MethodPost, "/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, r.status)
}

func TestPreflight(t *testing.T) {
	h := newStoreServer(t)

	for _, path := range []string{"/api/register", "/api/get-assessments", "/anything"} {
		r := do(t, h, http.MethodOptions, path, nil)
		assert.Equal(t, http.StatusOK, r.status, path)
		assertCORS(t, r.header)
	}
}

func TestRequestID(t *testing.T) {
	h := newStoreServer(t)

	r := do(t, h, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, r.header.Get(requestIDHeader))

	r = doWithHeader(t, h, http.MethodGet, "/healthz", nil, map[string]string{requestIDHeader: "given-id"})
	assert.Equal(t, "given-id", r.header.Get(requestIDHeader))
}

func TestHealthz(t *testing.T) {
	h := newStoreServer(t)

	r := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "ok", r.body["status"])
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewServer(testConfig(t), testLogger(), nil, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	cfg := testConfig(t)
	cfg.EndpointAddr = "256.0.0.1:bad"
	s := NewServer(cfg, testLogger(), nil, nil, nil, nil)

	err := s.Run(context.Background())
	assert.Error(t, err)
}
