package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio-cli/internal/manage"
	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/view"

	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Manager *manage.Manager
	// Source backs the showcase page, which can load either mode without
	// switching the manager.
	Source manage.Source
	Themes *store.ThemeStore
	Log    *zap.Logger
}

type Server struct {
	mgr    *manage.Manager
	src    manage.Source
	themes *store.ThemeStore
	log    *zap.Logger
	tmpl   *template.Template
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Manager == nil {
		return nil, errors.New("web: manager is nil")
	}
	if cfg.Themes == nil {
		return nil, errors.New("web: theme store is nil")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"themeGlyph": themeGlyph,
		"fieldSet": func(prefix string, values map[string]string) fieldSet {
			return fieldSet{Prefix: prefix, Values: values}
		},
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{mgr: cfg.Manager, src: cfg.Source, themes: cfg.Themes, log: cfg.Log, tmpl: tmpl}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /showcase", s.handleShowcase)
	mux.HandleFunc("GET /fragments", s.handleFragments)
	mux.HandleFunc("POST /projects", s.handleCreate)
	mux.HandleFunc("GET /projects/select", s.handleSelect)
	mux.HandleFunc("POST /projects/update", s.handleUpdate)
	mux.HandleFunc("POST /projects/delete", s.handleDelete)
	mux.HandleFunc("POST /mode", s.handleMode)
	mux.HandleFunc("POST /theme", s.handleTheme)
	return mux
}

func isDatastarRequest(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Datastar-Request")), "true")
}

func prefersDark(r *http.Request) bool {
	if v := strings.TrimSpace(r.FormValue("prefers-dark")); v != "" {
		return v == "true" || v == "1"
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Sec-CH-Prefers-Color-Scheme")), "dark")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(b)
}

type fieldSet struct {
	Prefix string
	Values map[string]string
}

func themeGlyph(t store.Theme) string {
	if t == store.ThemeLight {
		return "🌙"
	}
	return "☀️"
}

type formVM struct {
	Index  int
	Values map[string]string
}

type pageVM struct {
	Title    string
	Theme    store.Theme
	Mode     store.Mode
	Snapshot view.Snapshot

	Messages     template.HTML
	List         template.HTML
	UpdateSelect template.HTML
	DeleteSelect template.HTML
	Cards        template.HTML

	Edit   formVM
	Source store.Mode

	// Signals seeds the datastar store (data-signals) on first render.
	Signals string
}

func (s *Server) theme(ctx context.Context, r *http.Request) store.Theme {
	t, err := s.themes.Resolve(ctx, prefersDark(r))
	if err != nil {
		s.log.Warn("theme lookup failed", zap.Error(err))
		return store.SystemTheme(prefersDark(r))
	}
	return t
}

func (s *Server) managePage(r *http.Request, snap view.Snapshot, edit formVM) (pageVM, error) {
	vm := pageVM{
		Title:    "Manage Projects",
		Theme:    s.theme(r.Context(), r),
		Mode:     s.mgr.Mode(),
		Snapshot: snap,
		Edit:     edit,
	}
	frags, err := renderFragments(snap, s.mgr.Messages().Current(), edit.Index)
	if err != nil {
		return vm, err
	}
	vm.Messages = template.HTML(frags[view.MessagesID])
	vm.List = template.HTML(frags[view.ListID])
	vm.UpdateSelect = template.HTML(frags[view.UpdateSelectID])
	vm.DeleteSelect = template.HTML(frags[view.DeleteSelectID])

	update := emptyFormSignals()
	update["index"] = ""
	if p, ok := snap.At(edit.Index); ok && edit.Values != nil {
		update = formSignals(p)
		update["index"] = strconv.Itoa(edit.Index)
	}
	sig, err := json.Marshal(map[string]any{
		"theme":    string(vm.Theme),
		"mode":     string(vm.Mode),
		"revision": snap.Revision,
		"create":   emptyFormSignals(),
		"update":   update,
		"delete":   map[string]any{"index": ""},
	})
	if err != nil {
		return vm, err
	}
	vm.Signals = string(sig)
	return vm, nil
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	snap, err := s.mgr.Refresh(r.Context())
	if err != nil {
		s.log.Error("home refresh failed", zap.Error(err))
	}
	vm, err := s.managePage(r, snap, formVM{Index: -1})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeHTMLTemplate(w, "manage", vm)
}

// handleFragments returns the regions a refresh replaces as plain HTML, for
// embedding the list elsewhere without the datastar bindings.
func (s *Server) handleFragments(w http.ResponseWriter, r *http.Request) {
	snap, err := s.mgr.Refresh(r.Context())
	if err != nil {
		s.log.Error("fragments refresh failed", zap.Error(err))
	}
	var b strings.Builder
	if err := view.RenderHTML(&b, snap, s.mgr.Messages().Current()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}

// handleShowcase renders the card grid. The grid starts empty; the load
// buttons fill it from either store regardless of the active mode.
func (s *Server) handleShowcase(w http.ResponseWriter, r *http.Request) {
	vm := pageVM{Title: "Projects", Theme: s.theme(r.Context(), r), Mode: s.mgr.Mode()}

	var projects []model.Project
	if v := strings.TrimSpace(r.URL.Query().Get("source")); v != "" {
		mode, err := store.ParseMode(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		vm.Source = mode
		projects, err = s.listFrom(r.Context(), mode)
		if err != nil {
			s.log.Error("showcase load failed", zap.String("source", string(mode)), zap.Error(err))
			http.Error(w, "Invalid data", http.StatusBadGateway)
			return
		}
	}

	cards, err := view.CardsHTML(projects)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if isDatastarRequest(r) {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElements(cards, datastar.WithSelector("#"+view.ProjectGridID), datastar.WithMode(datastar.ElementPatchModeOuter))
		return
	}

	vm.Cards = template.HTML(cards)
	sig, _ := json.Marshal(map[string]any{"theme": string(vm.Theme)})
	vm.Signals = string(sig)
	s.writeHTMLTemplate(w, "showcase", vm)
}

func (s *Server) listFrom(ctx context.Context, mode store.Mode) ([]model.Project, error) {
	if s.src == nil || mode == s.mgr.Mode() {
		return s.mgr.Backend().List(ctx)
	}
	b, err := s.src.Get(ctx, mode)
	if err != nil {
		return nil, err
	}
	return b.List(ctx)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	res, err := s.mgr.Create(r.Context(), r.Form)
	var signals map[string]any
	if err == nil {
		signals = map[string]any{"create": emptyFormSignals()}
	}
	s.respond(w, r, res, -1, signals)
}

// handleSelect fills the update form from the chosen project. Datastar sends
// the selector value as signals; plain GETs use query params.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	index, revision := r.URL.Query().Get("index"), r.URL.Query().Get("revision")
	if isDatastarRequest(r) {
		var sig struct {
			Update struct {
				Index string `json:"index"`
			} `json:"update"`
			Revision string `json:"revision"`
		}
		if err := datastar.ReadSignals(r, &sig); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		index, revision = sig.Update.Index, sig.Revision
	}

	sel, err := manage.ParseSelection(index, revision)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, ok, err := s.mgr.Select(r.Context(), sel)
	if err != nil {
		s.log.Debug("select failed", zap.Error(err))
	}

	values := emptyFormSignals()
	if ok {
		values = formSignals(p)
	}

	if isDatastarRequest(r) {
		sse := datastar.NewSSE(w, r)
		_ = sse.MarshalAndPatchSignals(map[string]any{"update": values})
		if err != nil {
			s.patchAll(sse, s.mgr.Snapshot(), -1)
		}
		return
	}

	snap := s.mgr.Snapshot()
	edit := formVM{Index: -1}
	if ok {
		edit = formVM{Index: sel.Index, Values: p.FormValues()}
	}
	vm, rerr := s.managePage(r, snap, edit)
	if rerr != nil {
		http.Error(w, rerr.Error(), http.StatusInternalServerError)
		return
	}
	s.writeHTMLTemplate(w, "manage", vm)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	sel, err := manage.ParseSelection(r.Form.Get("index"), r.Form.Get("revision"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.mgr.Update(r.Context(), sel, r.Form)
	selected := sel.Index
	var signals map[string]any
	if err == nil {
		selected = -1
		signals = map[string]any{"update": emptyFormSignals()}
	}
	s.respond(w, r, res, selected, signals)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	sel, err := manage.ParseSelection(r.Form.Get("index"), r.Form.Get("revision"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, _ := s.mgr.Delete(r.Context(), sel)
	s.respond(w, r, res, -1, nil)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	mode, err := store.ParseMode(r.Form.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, _ := s.mgr.SwitchMode(r.Context(), mode)
	s.respond(w, r, res, -1, map[string]any{"mode": string(s.mgr.Mode())})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	ctx := r.Context()
	var (
		next store.Theme
		err  error
	)
	if v := strings.TrimSpace(r.Form.Get("theme")); v != "" {
		next, err = store.ParseTheme(v)
		if err == nil {
			err = s.themes.Set(ctx, next)
		}
	} else {
		next, err = s.themes.Toggle(ctx, prefersDark(r))
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if isDatastarRequest(r) {
		sse := datastar.NewSSE(w, r)
		_ = sse.MarshalAndPatchSignals(map[string]any{"theme": string(next)})
		return
	}
	redirectBack(w, r, "/")
}

// handleEvents streams message slot changes so info messages disappear
// without a reload.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ch, cancel := s.mgr.Messages().Subscribe()
	defer cancel()
	sse := datastar.NewSSE(w, r)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case msg, ok := <-ch:
			if !ok {
				return
			}
			html, err := view.MessagesHTML(msg)
			if err != nil {
				continue
			}
			_ = sse.PatchElements(html, datastar.WithSelector("#"+view.MessagesID), datastar.WithMode(datastar.ElementPatchModeOuter))
		}
	}
}

// respond answers a form post: datastar requests get the refreshed regions
// patched in place, plain posts are redirected back to the page.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, res manage.Result, selected int, signals map[string]any) {
	if !isDatastarRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	sse := datastar.NewSSE(w, r)
	s.patchAll(sse, res.Snapshot, selected)
	if signals != nil {
		_ = sse.MarshalAndPatchSignals(signals)
	}
}

func (s *Server) patchAll(sse *datastar.ServerSentEventGenerator, snap view.Snapshot, selected int) {
	frags, err := renderFragments(snap, s.mgr.Messages().Current(), selected)
	if err != nil {
		_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
		return
	}
	for _, id := range []string{view.MessagesID, view.ListID, view.UpdateSelectID, view.DeleteSelectID} {
		_ = sse.PatchElements(frags[id], datastar.WithSelector("#"+id), datastar.WithMode(datastar.ElementPatchModeOuter))
	}
	_ = sse.MarshalAndPatchSignals(map[string]any{"revision": snap.Revision})
}

func renderFragments(snap view.Snapshot, msg view.Message, selected int) (map[string]string, error) {
	out := map[string]string{}
	var err error
	if out[view.MessagesID], err = view.MessagesHTML(msg); err != nil {
		return nil, err
	}
	if out[view.ListID], err = view.ListHTML(snap); err != nil {
		return nil, err
	}
	updateOpts := view.SelectOpts{Selected: selected, Bind: "update.index", OnChange: "@get('/projects/select')"}
	if out[view.UpdateSelectID], err = view.UpdateSelectHTML(snap, updateOpts); err != nil {
		return nil, err
	}
	if out[view.DeleteSelectID], err = view.DeleteSelectHTML(snap, view.SelectOpts{Selected: -1, Bind: "delete.index"}); err != nil {
		return nil, err
	}
	return out, nil
}

// Signal names mirror the form field names, with the cover fields camel-cased.
func formSignals(p model.Project) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"url":         p.URL,
		"coverBase":   p.Cover.Base,
		"coverLg":     p.Cover.LG,
	}
}

func emptyFormSignals() map[string]any {
	return formSignals(model.Project{})
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	_, _ = io.WriteString(w, b.String())
}

func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	ref := strings.TrimSpace(r.Header.Get("Referer"))
	if ref != "" {
		http.Redirect(w, r, ref, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fallback, http.StatusSeeOther)
}
