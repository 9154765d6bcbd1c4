package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFlashRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/add-issue", nil)
	Fail(rec, req, "/add-issue", "title is required")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/add-issue", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	next := httptest.NewRequest(http.MethodGet, "/add-issue", nil)
	next.AddCookie(cookies[0])
	out := httptest.NewRecorder()
	f := PopFlash(out, next)
	require.NotNil(t, f)
	assert.Equal(t, "error", f.Kind)
	assert.Equal(t, "title is required", f.Message)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestPopFlash_Missing(t *testing.T) {
	assert.Nil(t, PopFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: "%%%"})
	assert.Nil(t, PopFlash(httptest.NewRecorder(), req))
}

func TestRender(t *testing.T) {
	rd, err := NewRenderer(zap.NewNop().Sugar())
	require.NoError(t, err)
	for _, name := range []string{"signin", "signup", "dashboard", "add_issue", "issue_detail", "not_found", "error"} {
		assert.Contains(t, rd.pages, name)
	}

	rec := httptest.NewRecorder()
	rd.Render(rec, http.StatusNotFound, "not_found", Page{
		Title: "Not found",
		User:  "alice",
		Flash: &Flash{Kind: "success", Message: "<b>hi</b>"},
		Data:  "Issue not found.",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Not found - OpenTrack</title>")
	assert.Contains(t, body, `<span id="current-user">alice</span>`)
	assert.Contains(t, body, "&lt;b&gt;hi&lt;/b&gt;")
	assert.Contains(t, body, "Issue not found.")
}

func TestRender_UnknownPage(t *testing.T) {
	rd, err := NewRenderer(zap.NewNop().Sugar())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	rd.Render(rec, http.StatusOK, "nope", Page{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
