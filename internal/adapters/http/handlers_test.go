package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"mergington/internal/adapters/storage/roster"
	"mergington/internal/application/flash"
	"mergington/internal/application/orchestrators"
	"mergington/internal/domain/activity"
	"mergington/internal/domain/audit"
)

// memoryJournal implements orchestrators.SignupJournal for testing.
type memoryJournal struct {
	events []audit.Event
}

func (j *memoryJournal) Save(_ context.Context, e audit.Event) error {
	j.events = append(j.events, e)
	return nil
}

// failingStore implements roster.Store and fails every call.
type failingStore struct{}

func (failingStore) List(context.Context) ([]activity.Activity, error) {
	return nil, errors.New("store offline")
}

func (failingStore) GetByID(context.Context, string) (activity.Activity, error) {
	return activity.Activity{}, errors.New("store offline")
}

func (failingStore) Signup(context.Context, string, string) (bool, error) {
	return false, errors.New("store offline")
}

type testApp struct {
	handler  *Handler
	mux      *http.ServeMux
	store    *roster.MemoryStore
	messages *flash.Registry
	journal  *memoryJournal
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := roster.NewMemoryStore(orchestrators.FallbackActivities())
	messages := flash.NewRegistry(time.Minute)
	journal := &memoryJournal{}
	h, err := NewHandler(Deps{Store: store, Messages: messages, Journal: journal})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return &testApp{handler: h, mux: h.Routes(), store: store, messages: messages, journal: journal}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.mux.ServeHTTP(rr, req)
	return rr
}

// testVisitor keeps cookies between requests the way a browser tab does.
type testVisitor struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) newVisitor() *testVisitor {
	return &testVisitor{app: a, cookies: make(map[string]*http.Cookie)}
}

func (v *testVisitor) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range v.cookies {
		req.AddCookie(c)
	}
	rr := v.app.do(req)
	for _, c := range rr.Result().Cookies() {
		v.cookies[c.Name] = c
	}
	return rr
}

func (v *testVisitor) getPage(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rr := v.do(req)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, body = %s", rr.Code, rr.Body.String())
	}
	return rr.Body.String()
}

func (v *testVisitor) postForm(values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return v.do(req)
}

func postJSON(a *testApp, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

// TestIndex_RendersFallbackBoard verifies the initial page.
func TestIndex_RendersFallbackBoard(t *testing.T) {
	page := newTestApp(t).newVisitor().getPage(t)

	for _, want := range []string{
		`id="activities-list"`,
		`id="signup-form"`,
		`id="email"`,
		`<option value="" disabled selected>-- Select an activity --</option>`,
		`<option value="chess">Chess Club</option>`,
		`<option value="robotics">Robotics Team</option>`,
		`<option value="drama">Drama Club</option>`,
		`<p class="activity-meta">ID: chess</p>`,
		`<li>alice@mergington.edu</li>`,
		`<li>ben@mergington.edu</li>`,
		`<li class="empty">No participants yet</li>`,
		`<li>cara@mergington.edu</li>`,
		`Tactics &amp; matches`,
		`id="message" class="hidden"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if n := strings.Count(page, `class="activity-card"`); n != 3 {
		t.Errorf("cards = %d, want 3", n)
	}
	if n := strings.Count(page, `<option `); n != 4 {
		t.Errorf("options = %d, want 4", n)
	}
	if n := strings.Count(page, `class="empty"`); n != 1 {
		t.Errorf("placeholders = %d, want 1", n)
	}
}

// TestIndex_EscapesSourceData verifies names and emails from a source cannot inject markup.
func TestIndex_EscapesSourceData(t *testing.T) {
	store := roster.NewMemoryStore([]activity.Record{{
		ID:           "x",
		Name:         "<script>alert(1)</script>",
		Description:  "**Bold** <img src=x onerror=alert(1)>",
		Participants: activity.Roster{"<b>eve</b>@x"},
	}})
	h, err := NewHandler(Deps{Store: store, Messages: flash.NewRegistry(time.Minute)})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	page := rr.Body.String()
	for _, bad := range []string{"<script>alert(1)</script>", "<img src=x", "<b>eve</b>"} {
		if strings.Contains(page, bad) {
			t.Errorf("page contains unescaped %q", bad)
		}
	}
	if !strings.Contains(page, "<strong>Bold</strong>") {
		t.Error("markdown description not rendered")
	}
}

// TestIndex_JSONForNonHTMLClients verifies content negotiation on GET /.
func TestIndex_JSONForNonHTMLClients(t *testing.T) {
	a := newTestApp(t)
	rr := a.do(httptest.NewRequest(http.MethodGet, "/", nil))

	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q", ct)
	}
	var list []activity.Activity
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 3 || list[1].ID != "robotics" || list[1].Participants == nil {
		t.Errorf("list = %+v", list)
	}
}

// TestListActivities_EmptyRosterIsArray verifies empty rosters encode as [] not null.
func TestListActivities_EmptyRosterIsArray(t *testing.T) {
	rr := newTestApp(t).do(httptest.NewRequest(http.MethodGet, "/api/activities", nil))
	if !strings.Contains(rr.Body.String(), `"id":"robotics","name":"Robotics Team","description":"Build and program robots","participants":[]`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

// TestSignupForm_RedirectsAndRerenders verifies the post/redirect/get flow.
func TestSignupForm_RedirectsAndRerenders(t *testing.T) {
	a := newTestApp(t)
	v := a.newVisitor()

	rr := v.postForm(url.Values{"email": {" x@mergington.edu "}, "activity": {"robotics"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("status = %d, location = %q", rr.Code, rr.Header().Get("Location"))
	}

	page := v.getPage(t)
	if !strings.Contains(page, "<li>x@mergington.edu</li>") {
		t.Error("new participant not rendered")
	}
	if strings.Contains(page, `class="empty"`) {
		t.Error("robotics placeholder still rendered")
	}
	if !strings.Contains(page, `id="message" class="success" role="status">Signed up successfully!</div>`) {
		t.Error("success message not shown")
	}
	if len(a.journal.events) != 1 {
		t.Errorf("journal events = %d, want 1", len(a.journal.events))
	}

	// repeat signup leaves the roster as it was
	v.postForm(url.Values{"email": {"x@mergington.edu"}, "activity": {"robotics"}})
	page = v.getPage(t)
	if n := strings.Count(page, "<li>x@mergington.edu</li>"); n != 1 {
		t.Errorf("x rendered %d times, want 1", n)
	}
	if !strings.Contains(page, "Signed up successfully!") {
		t.Error("repeat signup should still report success")
	}
}

// TestSignupForm_ValidationMessages verifies failures only touch the message region.
func TestSignupForm_ValidationMessages(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   string
	}{
		{name: "missing email", values: url.Values{"activity": {"chess"}}, want: "Please provide an email and select an activity."},
		{name: "blank email", values: url.Values{"email": {"   "}, "activity": {"chess"}}, want: "Please provide an email and select an activity."},
		{name: "missing activity", values: url.Values{"email": {"x@mergington.edu"}}, want: "Please provide an email and select an activity."},
		{name: "unknown activity", values: url.Values{"email": {"x@mergington.edu"}, "activity": {"fencing"}}, want: "Selected activity not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			v := a.newVisitor()
			before := v.getPage(t)

			rr := v.postForm(tt.values)
			if rr.Code != http.StatusSeeOther {
				t.Fatalf("status = %d", rr.Code)
			}

			after := v.getPage(t)
			if !strings.Contains(after, `class="error" role="status">`+tt.want+`</div>`) {
				t.Errorf("message %q not shown", tt.want)
			}
			beforeList := before[strings.Index(before, `id="activities-list"`):strings.Index(before, `id="signup-container"`)]
			afterList := after[strings.Index(after, `id="activities-list"`):strings.Index(after, `id="signup-container"`)]
			if beforeList != afterList {
				t.Error("activity list changed after a rejected signup")
			}
			if len(a.journal.events) != 0 {
				t.Error("rejected signup was journaled")
			}
		})
	}
}

// TestSignupJSON verifies JSON status codes and bodies.
func TestSignupJSON(t *testing.T) {
	a := newTestApp(t)

	rr := postJSON(a, `{"email":"x@mergington.edu","activity":"drama"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var ok struct {
		Message string `json:"message"`
		Added   bool   `json:"added"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ok.Message != "Signed up successfully!" || !ok.Added {
		t.Errorf("body = %+v", ok)
	}

	rr = postJSON(a, `{"email":"x@mergington.edu","activity":"drama"}`)
	if err := json.Unmarshal(rr.Body.Bytes(), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusOK || ok.Added {
		t.Errorf("repeat: status = %d, body = %+v", rr.Code, ok)
	}

	rr = postJSON(a, `{"email":"x@mergington.edu","activity":"fencing"}`)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "Selected activity not found.") {
		t.Errorf("unknown: status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "added") {
		t.Error("error body should not carry added")
	}

	rr = postJSON(a, `{"email":"x@mergington.edu","activity":"drama","extra":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status = %d", rr.Code)
	}
}

// TestSignup_StoreFailureIs500 verifies unexpected errors are not reported as validation.
func TestSignup_StoreFailureIs500(t *testing.T) {
	h, err := NewHandler(Deps{Store: failingStore{}, Messages: flash.NewRegistry(time.Minute)})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(`{"email":"x@y","activity":"chess"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "store offline") {
		t.Error("internal error leaked to client")
	}
}

// TestRoutes_MethodsAndStatic verifies the remaining routes.
func TestRoutes_MethodsAndStatic(t *testing.T) {
	a := newTestApp(t)

	if rr := a.do(httptest.NewRequest(http.MethodGet, "/signup", nil)); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /signup = %d, want 405", rr.Code)
	}
	if rr := a.do(httptest.NewRequest(http.MethodGet, "/nope", nil)); rr.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rr.Code)
	}
	if rr := a.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rr.Code, rr.Body.String())
	}
	rr := a.do(httptest.NewRequest(http.MethodGet, "/static/styles.css", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), ".activity-card") {
		t.Errorf("stylesheet = %d", rr.Code)
	}
	rr = a.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Errorf("metrics = %d", rr.Code)
	}
}

// TestNewHandler_RequiresDeps verifies construction fails without a store.
func TestNewHandler_RequiresDeps(t *testing.T) {
	if _, err := NewHandler(Deps{Messages: flash.NewRegistry(time.Second)}); err == nil {
		t.Error("expected error without store")
	}
}

// TestSignupForm_MessageGoesToSubmitter verifies interleaved clients each see
// only their own result and a bystander sees none.
func TestSignupForm_MessageGoesToSubmitter(t *testing.T) {
	a := newTestApp(t)
	failing := a.newVisitor()
	succeeding := a.newVisitor()

	failing.getPage(t)
	succeeding.getPage(t)

	if rr := failing.postForm(url.Values{"email": {"a@mergington.edu"}, "activity": {""}}); rr.Code != http.StatusSeeOther {
		t.Fatalf("failing post = %d", rr.Code)
	}
	if rr := succeeding.postForm(url.Values{"email": {"b@mergington.edu"}, "activity": {"robotics"}}); rr.Code != http.StatusSeeOther {
		t.Fatalf("succeeding post = %d", rr.Code)
	}

	page := failing.getPage(t)
	if strings.Contains(page, "Signed up successfully!") {
		t.Error("failed submitter sees another client's success")
	}
	if !strings.Contains(page, `class="error" role="status">Please provide an email and select an activity.</div>`) {
		t.Error("failed submitter does not see its own validation message")
	}
	if !strings.Contains(page, "<li>b@mergington.edu</li>") {
		t.Error("roster is shared; the other client's signup should be listed")
	}

	page = succeeding.getPage(t)
	if !strings.Contains(page, `class="success" role="status">Signed up successfully!</div>`) {
		t.Error("successful submitter does not see its message")
	}

	bystander := a.newVisitor().getPage(t)
	if !strings.Contains(bystander, `id="message" class="hidden"`) {
		t.Error("visitor who never posted sees a message")
	}
}

// TestSignupForm_FirstPostIssuesVisitorCookie verifies a post without a prior
// page load still carries its message across the redirect.
func TestSignupForm_FirstPostIssuesVisitorCookie(t *testing.T) {
	v := newTestApp(t).newVisitor()

	rr := v.postForm(url.Values{"email": {"c@mergington.edu"}, "activity": {"fencing"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rr.Code)
	}
	if _, ok := v.cookies[visitorCookieName]; !ok {
		t.Fatal("redirect did not set the visitor cookie")
	}
	if page := v.getPage(t); !strings.Contains(page, "Selected activity not found.") {
		t.Error("message lost across the redirect")
	}
}

// TestVisitorCookie_ForgedValueIsReplaced verifies a tampered cookie does not
// select another visitor's board.
func TestVisitorCookie_ForgedValueIsReplaced(t *testing.T) {
	a := newTestApp(t)
	a.messages.Show("victim", "Signed up successfully!", flash.KindSuccess)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: visitorCookieName, Value: "victim"})
	rr := a.do(req)

	if strings.Contains(rr.Body.String(), "Signed up successfully!") {
		t.Error("forged cookie reached another visitor's message")
	}
	var reissued bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == visitorCookieName && c.Value != "victim" && c.HttpOnly {
			reissued = true
		}
	}
	if !reissued {
		t.Error("forged cookie was not replaced")
	}
}

// TestSignupJSON_LeavesBoardsAlone verifies JSON results are not posted to any page.
func TestSignupJSON_LeavesBoardsAlone(t *testing.T) {
	a := newTestApp(t)
	postJSON(a, `{"email":"x@mergington.edu","activity":"drama"}`)

	if a.messages.Len() != 0 {
		t.Errorf("boards = %d, want 0", a.messages.Len())
	}
}
