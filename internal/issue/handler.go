package issue

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/issue/entity"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/session"
	"github.com/ovaphlow/pitchfork/service-issue-tracker/internal/web"
)

// Handler serves the authenticated issue pages. Every method receives the
// caller explicitly.
type Handler struct {
	svc    *Service
	view   *web.Renderer
	logger *zap.SugaredLogger
	// restrictDetail limits the detail page to the issue's reporter.
	restrictDetail bool
}

func NewHandler(svc *Service, view *web.Renderer, logger *zap.SugaredLogger, restrictDetail bool) *Handler {
	return &Handler{svc: svc, view: view, logger: logger, restrictDetail: restrictDetail}
}

type dashboardView struct {
	Summary    *Summary
	Filter     Filter
	Statuses   []entity.Status
	Priorities []entity.Priority
	Types      []entity.Type
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, p session.Principal) {
	q := r.URL.Query()
	f := Filter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Type:     q.Get("type"),
		Query:    q.Get("q"),
	}
	sum, err := h.svc.Dashboard(r.Context(), p.UserID, f)
	if err != nil {
		h.serverError(w, p, "dashboard", err)
		return
	}
	h.view.Render(w, http.StatusOK, "dashboard", web.Page{
		Title: "Dashboard",
		User:  p.Username,
		Flash: web.PopFlash(w, r),
		Data: dashboardView{
			Summary:    sum,
			Filter:     f,
			Statuses:   entity.Statuses,
			Priorities: entity.Priorities,
			Types:      entity.Types,
		},
	})
}

type addIssueView struct {
	Types      []entity.Type
	Priorities []entity.Priority
}

func (h *Handler) AddIssueForm(w http.ResponseWriter, r *http.Request, p session.Principal) {
	h.view.Render(w, http.StatusOK, "add_issue", web.Page{
		Title: "New issue",
		User:  p.Username,
		Flash: web.PopFlash(w, r),
		Data:  addIssueView{Types: entity.Types, Priorities: entity.Priorities},
	})
}

func (h *Handler) AddIssue(w http.ResponseWriter, r *http.Request, p session.Principal) {
	if err := r.ParseForm(); err != nil {
		web.Fail(w, r, "/add-issue", "Invalid request")
		return
	}
	_, err := h.svc.CreateIssue(r.Context(), p.UserID, NewIssue{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Type:        r.PostForm.Get("type"),
		Priority:    r.PostForm.Get("priority"),
		Assignee:    r.PostForm.Get("assignee"),
		Labels:      r.PostForm.Get("labels"),
	})
	if err != nil {
		if apperr.Recoverable(err) {
			web.Fail(w, r, "/add-issue", apperr.Message(err))
			return
		}
		h.serverError(w, p, "create issue", err)
		return
	}
	web.Success(w, r, "/dashboard", "Issue created successfully!")
}

type detailView struct {
	Issue    *entity.Issue
	Labels   entity.Labels
	Statuses []entity.Status
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request, p session.Principal) {
	iss, ok := h.load(w, r, p)
	if !ok {
		return
	}
	h.view.Render(w, http.StatusOK, "issue_detail", web.Page{
		Title: iss.Title,
		User:  p.Username,
		Flash: web.PopFlash(w, r),
		Data:  detailView{Issue: iss, Labels: iss.Labels, Statuses: entity.Statuses},
	})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request, p session.Principal) {
	iss, ok := h.load(w, r, p)
	if !ok {
		return
	}
	self := fmt.Sprintf("/issue-detail/%d", iss.ID)
	if err := r.ParseForm(); err != nil {
		web.Fail(w, r, self, "Invalid request")
		return
	}
	iss, err := h.svc.UpdateStatus(r.Context(), iss, r.PostForm.Get("status"))
	if err != nil {
		if apperr.Recoverable(err) {
			web.Fail(w, r, self, apperr.Message(err))
			return
		}
		h.serverError(w, p, "update status", err)
		return
	}
	web.Success(w, r, self, "Status updated to "+iss.Status.Display())
}

// load resolves the {id} path value. It writes the response itself and
// returns false when the issue cannot be shown to p.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, p session.Principal) (*entity.Issue, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.notFound(w, p)
		return nil, false
	}
	iss, err := h.svc.GetIssue(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.notFound(w, p)
			return nil, false
		}
		h.serverError(w, p, "load issue", err)
		return nil, false
	}
	if h.restrictDetail && iss.ReporterID != p.UserID {
		h.logger.Debugw("issue hidden from non-reporter", "issue_id", iss.ID, "user_id", p.UserID)
		h.notFound(w, p)
		return nil, false
	}
	return iss, true
}

func (h *Handler) notFound(w http.ResponseWriter, p session.Principal) {
	h.view.Render(w, http.StatusNotFound, "not_found", web.Page{Title: "Not found", User: p.Username, Data: "Issue not found."})
}

func (h *Handler) serverError(w http.ResponseWriter, p session.Principal, op string, err error) {
	h.logger.Errorw(op+" failed", "err", err, "user_id", p.UserID)
	h.view.Render(w, http.StatusInternalServerError, "error", web.Page{Title: "Error", User: p.Username})
}
