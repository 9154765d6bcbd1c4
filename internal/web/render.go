package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Page is the data every template receives.
type Page struct {
	Title string
	// User is the signed-in username, empty on public pages.
	User  string
	Flash *Flash
	Data  any
}

// Renderer executes the page templates, each combined with the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.SugaredLogger
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string { return t.Format("Jan 2, 2006 15:04") },
	"join":     strings.Join,
}

// NewRenderer parses the embedded templates. Every file other than
// layout.html is a page named after the file without extension.
func NewRenderer(logger *zap.SugaredLogger) (*Renderer, error) {
	entries, err := fs.ReadDir(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template)
	for _, e := range entries {
		if e.Name() == "layout.html" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		t, err := template.New(e.Name()).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", e.Name(), err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes page with status. The page is rendered to a buffer first so a
// template error still produces a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) {
	t, ok := rd.pages[page]
	if !ok {
		rd.logger.Errorw("unknown template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Errorw("render template", "page", page, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
