package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"mergington/internal/adapters/email"
	"mergington/internal/adapters/http/middleware"
	"mergington/internal/adapters/storage/roster"
	"mergington/internal/application/flash"
	"mergington/internal/application/orchestrators"
	"mergington/internal/application/projections"
)

// Deps holds everything the handlers read or mutate.
// The roster is shared by every visitor; Messages keeps one board per visitor.
// Journal and Mailer are optional.
type Deps struct {
	Store    roster.Store
	Messages *flash.Registry
	Journal  orchestrators.SignupJournal
	Mailer   email.Sender
}

// Handler serves the activity page and the signup endpoint.
type Handler struct {
	deps     Deps
	pages    pages
	visitors *visitorCookies
}

// NewHandler parses the page templates and binds the dependencies.
// PRE: deps.Store and deps.Messages are non-nil
// POST: Returns a handler ready to be routed
func NewHandler(deps Deps) (*Handler, error) {
	if deps.Store == nil || deps.Messages == nil {
		return nil, errors.New("store and message registry are required")
	}
	p, err := parsePages("index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{deps: deps, pages: p, visitors: newVisitorCookies()}, nil
}

// signupRequest is the JSON body accepted by POST /signup.
type signupRequest struct {
	Email    string `json:"email"`
	Activity string `json:"activity"`
}

// signupResponse is returned to JSON clients.
type signupResponse struct {
	Message string `json:"message"`
	Added   *bool  `json:"added,omitempty"`
}

// indexPage is the data for templates/index.html.
type indexPage struct {
	Board     projections.ActivityBoard
	CSRFField template.HTML
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// handleIndex renders the full page, or the activity list for non-HTML clients.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !isHTMLRequest(r) {
		h.handleListActivities(w, r)
		return
	}

	visitor := h.visitors.identify(w, r)
	board, err := projections.QueryGetActivityBoard(r.Context(), projections.GetActivityBoardDeps{
		Store:    h.deps.Store,
		Messages: h.deps.Messages.Visitor(visitor),
	})
	if err != nil {
		internalError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	if err := h.pages.render(w, "index.html", indexPage{Board: board, CSRFField: csrf.TemplateField(r)}); err != nil {
		internalError(w, err)
	}
}

// handleListActivities returns the activity list in the same shape a source serves.
func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.deps.Store.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// handleSignup accepts a form post (redirects back to the page) or a JSON body.
// Form results go to the submitter's board; JSON results are only in the response.
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	jsonClient := isJSONBody(r)

	var req signupRequest
	if jsonClient {
		if err := strictDecode(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, signupResponse{Message: "Invalid request"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		req.Email = r.FormValue("email")
		req.Activity = r.FormValue("activity")
	}

	input := orchestrators.SignupInput{
		ActivityID: req.Activity,
		Email:      strings.TrimSpace(req.Email),
		IPAddress:  middleware.ClientIP(r),
		UserAgent:  r.UserAgent(),
	}
	deps := orchestrators.SignupDeps{
		Store:   h.deps.Store,
		Journal: h.deps.Journal,
		Mailer:  h.deps.Mailer,
	}
	if !jsonClient {
		deps.Board = h.deps.Messages.Visitor(h.visitors.identify(w, r))
	}

	res, err := orchestrators.ExecuteSignup(r.Context(), input, deps)
	if err != nil && res.Message == "" {
		internalError(w, err)
		return
	}

	if !jsonClient {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, signupResponse{Message: res.Message})
		return
	}
	added := res.Added
	writeJSON(w, http.StatusOK, signupResponse{Message: res.Message, Added: &added})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
