package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"portfolio-cli/internal/manage"
	"portfolio-cli/internal/mockapi"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/view"

	"github.com/gin-gonic/gin"
)

type fixture struct {
	srv    *Server
	mgr    *manage.Manager
	themes *store.ThemeStore
	h      http.Handler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	api := httptest.NewServer(mockapi.New(store.DefaultProjects(), nil).Handler())
	t.Cleanup(api.Close)

	kv := store.NewMemoryKV()
	backends := store.NewBackendsWithKV(kv, store.Options{
		Remote: store.RemoteOptions{BaseURL: api.URL + "/projects", Timeout: 5 * time.Second},
	})
	ctx := context.Background()
	slot := view.NewMessageSlot(time.Minute)
	t.Cleanup(slot.Close)

	mgr, err := manage.New(ctx, backends, store.ModeLocal, slot, nil)
	if err != nil {
		t.Fatalf("manage.New: %v", err)
	}
	if _, err := mgr.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := mgr.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	themes := store.NewThemeStore(kv)
	srv, err := NewServer(ServerConfig{Manager: mgr, Source: backends, Themes: themes})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return fixture{srv: srv, mgr: mgr, themes: themes, h: srv.Handler()}
}

func (f fixture) get(path string, datastar bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if datastar {
		req.Header.Set("Datastar-Request", "true")
	}
	rr := httptest.NewRecorder()
	f.h.ServeHTTP(rr, req)
	return rr
}

func (f fixture) post(path string, form url.Values, datastar bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if datastar {
		req.Header.Set("Datastar-Request", "true")
	}
	rr := httptest.NewRecorder()
	f.h.ServeHTTP(rr, req)
	return rr
}

func projectForm(name string) url.Values {
	return url.Values{
		"name":        {name},
		"description": {"A *new* project"},
		"url":         {"https://example.com/" + strings.ToLower(name)},
		"cover-base":  {"https://example.com/a.jpg"},
		"cover-lg":    {"https://example.com/a-lg.jpg"},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rr := f.get("/health", false)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Fatalf("unexpected health response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestHome_RendersFragments(t *testing.T) {
	f := newFixture(t)
	rr := f.get("/", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`id="projects-list"`,
		`id="update-select"`,
		`id="delete-select"`,
		`id="messages"`,
		"DevTerms (index: 0)",
		"Tech Internship Alerts (index: 3)",
		view.SelectPlaceholder,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestFragments_PlainHTML(t *testing.T) {
	f := newFixture(t)
	rr := f.get("/fragments", false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `id="projects-list"`) || !strings.Contains(body, "Cobalt (index: 1)") {
		t.Fatalf("unexpected fragments body:\n%s", body)
	}
	if strings.Contains(body, "data-on:change") {
		t.Fatalf("plain fragments must not carry datastar bindings")
	}
}

func TestCreate_PlainPostRedirects(t *testing.T) {
	f := newFixture(t)
	rr := f.post("/projects", projectForm("Gadget"), false)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}

	snap := f.mgr.Snapshot()
	if len(snap.Projects) != 5 || snap.Projects[4].Name != "Gadget" {
		t.Fatalf("expected Gadget appended, got %+v", snap.Projects)
	}
	if got := f.mgr.Messages().Current().InfoText(); got != `Project "Gadget" created!` {
		t.Fatalf("unexpected info %q", got)
	}

	page := f.get("/", false).Body.String()
	if !strings.Contains(page, "Gadget (index: 4)") {
		t.Fatalf("expected new row on page")
	}
}

func TestCreate_DatastarPatchesFragments(t *testing.T) {
	f := newFixture(t)
	rr := f.post("/projects", projectForm("Gadget"), true)
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/event-stream") {
		t.Fatalf("expected event stream, got %q", got)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"datastar-patch-elements",
		"datastar-patch-signals",
		"#" + view.ListID,
		"#" + view.MessagesID,
		"Gadget (index: 4)",
		"created!",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in stream:\n%s", want, body)
		}
	}
}

func TestCreate_MissingFieldShowsError(t *testing.T) {
	f := newFixture(t)
	form := projectForm("Gadget")
	form.Del("url")
	f.post("/projects", form, false)

	if got := f.mgr.Messages().Current().ErrorText(); got != "Please provide a project url." {
		t.Fatalf("unexpected error %q", got)
	}
	if n := len(f.mgr.Snapshot().Projects); n != 4 {
		t.Fatalf("expected no change, got %d projects", n)
	}
}

func TestDelete_WithoutSelection(t *testing.T) {
	f := newFixture(t)
	f.post("/projects/delete", url.Values{"index": {""}}, false)

	if got := f.mgr.Messages().Current().ErrorText(); got != manage.MsgSelectDelete {
		t.Fatalf("unexpected error %q", got)
	}
	page := f.get("/", false).Body.String()
	if !strings.Contains(page, manage.MsgSelectDelete) {
		t.Fatalf("expected error on page")
	}
}

func TestDelete_BySelection(t *testing.T) {
	f := newFixture(t)
	rev := f.mgr.Snapshot().Revision
	rr := f.post("/projects/delete", url.Values{"index": {"1"}, "revision": {rev}}, false)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	snap := f.mgr.Snapshot()
	if len(snap.Projects) != 3 || snap.Projects[1].Name != "Mailery" {
		t.Fatalf("expected Cobalt removed, got %+v", snap.Projects)
	}
}

func TestUpdate_StaleRevision(t *testing.T) {
	f := newFixture(t)
	form := projectForm("Renamed")
	form.Set("index", "0")
	form.Set("revision", "not-the-current-one")
	f.post("/projects/update", form, false)

	if got := f.mgr.Messages().Current().ErrorText(); got != manage.MsgStale {
		t.Fatalf("unexpected error %q", got)
	}
	if name := f.mgr.Snapshot().Projects[0].Name; name != "DevTerms" {
		t.Fatalf("expected no update, got %q", name)
	}
}

func TestUpdate_BadIndexIs400(t *testing.T) {
	f := newFixture(t)
	form := projectForm("Renamed")
	form.Set("index", "abc")
	if rr := f.post("/projects/update", form, false); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSelect_PrefillsForm(t *testing.T) {
	f := newFixture(t)
	rev := f.mgr.Snapshot().Revision
	rr := f.get("/projects/select?index=2&revision="+rev, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `value="2" selected`) {
		t.Fatalf("expected option 2 selected")
	}
	if !strings.Contains(body, `value="Mailery"`) {
		t.Fatalf("expected name prefilled")
	}
}

func TestSelect_DatastarPatchesSignals(t *testing.T) {
	f := newFixture(t)
	rev := f.mgr.Snapshot().Revision
	signals := url.QueryEscape(`{"update":{"index":"1"},"revision":"` + rev + `"}`)
	rr := f.get("/projects/select?datastar="+signals, true)
	body := rr.Body.String()
	if !strings.Contains(body, "datastar-patch-signals") || !strings.Contains(body, "Cobalt") {
		t.Fatalf("expected Cobalt signals, got:\n%s", body)
	}
}

func TestMode_SwitchToRemote(t *testing.T) {
	f := newFixture(t)
	rr := f.post("/mode", url.Values{"mode": {"remote"}}, false)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if f.mgr.Mode() != store.ModeRemote {
		t.Fatalf("expected remote mode, got %s", f.mgr.Mode())
	}

	f.post("/projects", projectForm("Gadget"), false)
	if got := f.mgr.Messages().Current().InfoText(); !strings.HasSuffix(got, manage.RemoteNote) {
		t.Fatalf("expected remote note, got %q", got)
	}
	if n := len(f.mgr.Snapshot().Projects); n != 4 {
		t.Fatalf("remote writes must not persist, got %d projects", n)
	}

	if rr := f.post("/mode", url.Values{"mode": {"cloud"}}, false); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", rr.Code)
	}
}

func TestTheme_ToggleAndSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.post("/theme", url.Values{}, false)
	got, ok, err := f.themes.Stored(ctx)
	if err != nil || !ok || got != store.ThemeDark {
		t.Fatalf("expected dark after toggle from system light, got %q ok=%v err=%v", got, ok, err)
	}

	f.post("/theme", url.Values{"theme": {"light"}}, false)
	if got, _, _ := f.themes.Stored(ctx); got != store.ThemeLight {
		t.Fatalf("expected light, got %q", got)
	}

	if rr := f.post("/theme", url.Values{"theme": {"sepia"}}, false); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	page := f.get("/", false).Body.String()
	if !strings.Contains(page, `data-theme="light"`) {
		t.Fatalf("expected page rendered with stored theme")
	}
}

func TestShowcase(t *testing.T) {
	f := newFixture(t)

	empty := f.get("/showcase", false).Body.String()
	if !strings.Contains(empty, `id="project-grid"`) || strings.Contains(empty, "project-card") {
		t.Fatalf("expected an empty grid before loading")
	}

	local := f.get("/showcase?source=local", false).Body.String()
	if strings.Count(local, `class="project-card"`) != 4 {
		t.Fatalf("expected 4 local cards")
	}
	if !strings.Contains(local, `alt="Cover for DevTerms project"`) {
		t.Fatalf("expected cover alt text")
	}

	remote := f.get("/showcase?source=remote", true).Body.String()
	if !strings.Contains(remote, "datastar-patch-elements") || !strings.Contains(remote, "#"+view.ProjectGridID) {
		t.Fatalf("expected grid patch, got:\n%s", remote)
	}
	if f.mgr.Mode() != store.ModeLocal {
		t.Fatalf("showcase must not switch the active mode")
	}

	if rr := f.get("/showcase?source=ftp", false); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestEvents_StreamsMessages(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()

	time.Sleep(50 * time.Millisecond)
	f.mgr.Messages().Info("hello there")

	buf := make([]byte, 4096)
	var got strings.Builder
	for !strings.Contains(got.String(), "hello there") {
		n, err := resp.Body.Read(buf)
		got.Write(buf[:n])
		if err != nil {
			t.Fatalf("stream ended before message: %v\n%s", err, got.String())
		}
	}
}
