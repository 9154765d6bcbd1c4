package web

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const flashCookie = "flash"

// Flash is a one-shot notice shown on the page after a redirect.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// SetFlash stores a notice to be shown by the next rendered page.
func SetFlash(w http.ResponseWriter, kind, message string) {
	v := base64.RawURLEncoding.EncodeToString([]byte(kind + "\x00" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    v,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending notice, if any, and clears it.
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(string(raw), "\x00")
	if !ok {
		return nil
	}
	return &Flash{Kind: kind, Message: msg}
}

// Success redirects to url with a success notice.
func Success(w http.ResponseWriter, r *http.Request, url, message string) {
	SetFlash(w, "success", message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Fail redirects to url with an error notice.
func Fail(w http.ResponseWriter, r *http.Request, url, message string) {
	SetFlash(w, "error", message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}
