package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/router"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/schema"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/pkg/database"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, DSN: filepath.Join(t.TempDir(), "tracker.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Ensure(context.Background(), db))

	h, err := router.RegisterRoutes(zap.NewNop().Sugar(), db, router.Options{
		Session:        session.Config{Secret: []byte("router-test")},
		BcryptCost:     4,
		RestrictDetail: true,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: srv.URL, client: &http.Client{Jar: jar}}
}

// get follows redirects and returns the final status, path and body.
func (b *browser) get(path string) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func (b *browser) post(path string, form url.Values) (int, string, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	return read(b.t, resp)
}

func read(t *testing.T, resp *http.Response) (int, string, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Request.URL.Path, string(body)
}

func (b *browser) signUp(username, email, password string) string {
	_, _, body := b.post("/signup", url.Values{"username": {username}, "email": {email}, "password": {password}})
	return body
}

func (b *browser) signIn(email, password string) (string, string) {
	_, path, body := b.post("/", url.Values{"email": {email}, "password": {password}})
	return path, body
}

var issueIDPattern = regexp.MustCompile(`data-id="(\d+)"`)

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	code, _, body := read(t, resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestProtectedPagesRedirectToSignIn(t *testing.T) {
	srv := newServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	for _, p := range []string{"/dashboard", "/add-issue", "/issue-detail/1"} {
		resp, err := client.Get(srv.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, p)
		assert.Equal(t, "/", resp.Header.Get("Location"), p)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	srv := newServer(t)
	b := newBrowser(t, srv)

	body := b.signUp("alice", "alice@example.com", "s3cret")
	assert.Contains(t, body, "Account created successfully! Please sign in.")

	body = b.signUp("alice", "other@example.com", "pw")
	assert.Contains(t, body, "Username already taken")
	body = b.signUp("alice2", "alice@example.com", "pw")
	assert.Contains(t, body, "Email already registered")
	body = b.signUp("", "x@example.com", "pw")
	assert.Contains(t, body, "All fields are required.")
	code, path, body := b.post("/signup", url.Values{"username": {"carol"}, "email": {"carol@example.com"}, "password": {strings.Repeat("p", 80)}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/signup", path)
	assert.Contains(t, body, "Password must be at most 72 bytes.")

	path, body = b.signIn("alice@example.com", "wrong")
	assert.Equal(t, "/", path)
	assert.Contains(t, body, "Invalid email or password")

	path, body = b.signIn("alice@example.com", "s3cret")
	assert.Equal(t, "/dashboard", path)
	assert.Contains(t, body, "Welcome back, alice!")
	assert.Contains(t, body, `<span id="current-user">alice</span>`)
	assert.Contains(t, body, `<span id="total-count">0</span>`)
	assert.Contains(t, body, `id="no-issues"`)

	// the notice is shown once
	_, _, body = b.get("/dashboard")
	assert.NotContains(t, body, "Welcome back")

	_, path, _ = b.post("/signout", nil)
	assert.Equal(t, "/", path)
	_, path, _ = b.get("/dashboard")
	assert.Equal(t, "/", path)
}

func TestIssueLifecycle(t *testing.T) {
	srv := newServer(t)
	alice := newBrowser(t, srv)
	alice.signUp("alice", "alice@example.com", "pw")
	alice.signIn("alice@example.com", "pw")

	_, path, body := alice.post("/add-issue", url.Values{"title": {""}})
	assert.Equal(t, "/add-issue", path)
	assert.Contains(t, body, "title is required")

	_, path, body = alice.post("/add-issue", url.Values{
		"title":       {"Login broken"},
		"description": {"Cannot sign in"},
		"type":        {"bug"},
		"priority":    {"high"},
		"labels":      {"auth, ui"},
	})
	assert.Equal(t, "/dashboard", path)
	assert.Contains(t, body, "Issue created successfully!")
	assert.Contains(t, body, `<span id="total-count">1</span>`)
	assert.Contains(t, body, `<span id="open-count">1</span>`)

	m := issueIDPattern.FindStringSubmatch(body)
	require.Len(t, m, 2)
	detail := "/issue-detail/" + m[1]

	code, _, body := alice.get(detail)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `<li class="label">auth</li>`)
	assert.Contains(t, body, `<li class="label">ui</li>`)
	assert.Contains(t, body, `<dd id="issue-status">Open</dd>`)

	_, path, body = alice.post(detail, url.Values{"status": {"resolved"}})
	assert.Equal(t, detail, path)
	assert.Contains(t, body, "Status updated to Resolved")
	assert.Contains(t, body, `<dd id="issue-status">Resolved</dd>`)

	_, _, body = alice.post(detail, url.Values{"status": {"bogus"}})
	assert.Contains(t, body, "status must be one of")
	assert.Contains(t, body, `<dd id="issue-status">Resolved</dd>`)

	_, _, body = alice.get("/dashboard?status=open")
	assert.Contains(t, body, `id="no-issues"`)
	assert.Contains(t, body, `<span id="total-count">1</span>`)
	assert.Contains(t, body, `<span id="resolved-count">1</span>`)

	_, _, body = alice.get("/dashboard?status=all&q=LOGIN")
	assert.True(t, strings.Contains(body, "Login broken"))

	code, _, _ = alice.get("/issue-detail/abc")
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = alice.get("/issue-detail/1")
	assert.Equal(t, http.StatusNotFound, code)

	bob := newBrowser(t, srv)
	bob.signUp("bob", "bob@example.com", "pw")
	bob.signIn("bob@example.com", "pw")
	code, _, _ = bob.get(detail)
	assert.Equal(t, http.StatusNotFound, code)
	_, _, body = bob.get("/dashboard")
	assert.Contains(t, body, `<span id="total-count">0</span>`)
}
