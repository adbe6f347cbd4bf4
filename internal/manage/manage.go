// Package manage holds the handlers behind every surface: create, select,
// update, delete and mode switch. Each handler validates input, calls the
// active backend, writes the message slot and refreshes the view.
package manage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/view"

	"go.uber.org/zap"
)

const (
	MsgCreated = `Project "%s" created!`
	MsgUpdated = `Project "%s" updated!`
	MsgDeleted = `Project "%s" deleted!`

	MsgCreateFailed = "Error while trying to create project."
	MsgUpdateFailed = "Error while trying to update project."
	MsgDeleteFailed = "Error while trying to delete project."
	MsgLoadFailed   = "Error while trying to load projects."
	MsgModeFailed   = "Error while trying to switch storage mode."

	MsgSelectUpdate = "Please select a project to update."
	MsgSelectDelete = "Please select a project to delete."
	MsgStale        = "The project list changed; please select the project again."

	MsgModeSwitched = "Now using %s storage."

	RemoteNote = " (NOTE: Remote changes are not persisted)"
)

var (
	ErrNoSelection    = errors.New("no project selected")
	ErrStaleSelection = errors.New("project selection is stale")
	ErrNotFound       = errors.New("project not found")
)

// Form is satisfied by url.Values.
type Form interface {
	Get(key string) string
}

// Source hands out the backend for a mode; *store.Backends implements it.
type Source interface {
	Get(ctx context.Context, mode store.Mode) (store.Backend, error)
}

var _ Source = (*store.Backends)(nil)

// Selection is a positional index plus the revision of the list it was picked
// from. Index < 0 means nothing is selected. An empty Revision skips the
// staleness check.
type Selection struct {
	Index    int
	Revision string
}

func NoSelection() Selection { return Selection{Index: -1} }

func (s Selection) Empty() bool { return s.Index < 0 }

// ParseSelection reads a selector value ("" for the placeholder).
func ParseSelection(index, revision string) (Selection, error) {
	index = strings.TrimSpace(index)
	if index == "" {
		return NoSelection(), nil
	}
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 {
		return NoSelection(), fmt.Errorf("invalid project index %q", index)
	}
	return Selection{Index: i, Revision: strings.TrimSpace(revision)}, nil
}

type Result struct {
	Snapshot view.Snapshot
	Message  view.Message
	Project  model.Project
}

type Manager struct {
	src  Source
	view *view.Synchronizer
	slot *view.MessageSlot
	log  *zap.Logger

	// Serializes handlers; the web server calls in concurrently.
	mu sync.Mutex

	bmu    sync.RWMutex
	active store.Backend
}

func New(ctx context.Context, src Source, mode store.Mode, slot *view.MessageSlot, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if slot == nil {
		slot = view.NewMessageSlot(view.DefaultInfoTTL)
	}
	b, err := src.Get(ctx, mode)
	if err != nil {
		return nil, err
	}
	m := &Manager{src: src, slot: slot, log: log, active: b}
	m.view = view.NewSynchronizer(m.Backend, slot)
	return m, nil
}

func (m *Manager) Backend() store.Backend {
	m.bmu.RLock()
	defer m.bmu.RUnlock()
	return m.active
}

func (m *Manager) Mode() store.Mode            { return m.Backend().Mode() }
func (m *Manager) Messages() *view.MessageSlot { return m.slot }

// Snapshot returns the last rendered state without touching the backend.
func (m *Manager) Snapshot() view.Snapshot { return m.view.Last() }

// Refresh re-reads the collection. Errors come back unwrapped so corrupt
// local data surfaces as store.CorruptDataError.
func (m *Manager) Refresh(ctx context.Context) (view.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Manager) refreshLocked(ctx context.Context) (view.Snapshot, error) {
	snap, err := m.view.Refresh(ctx)
	if err != nil {
		m.log.Error("refresh failed", zap.String("mode", string(m.Mode())), zap.Error(err))
		m.slot.Error(MsgLoadFailed)
	}
	return snap, err
}

// SeedDefaults writes the sample projects when the local store has never
// been written. It is a no-op in remote mode.
func (m *Manager) SeedDefaults(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	local, ok := m.Backend().(*store.LocalBackend)
	if !ok {
		return false, nil
	}
	seeded, err := local.Seed(ctx, store.DefaultProjects())
	if err != nil {
		return false, err
	}
	if seeded {
		m.log.Info("seeded default projects", zap.String("key", local.Key()))
	}
	return seeded, nil
}

func (m *Manager) Create(ctx context.Context, form Form) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := model.FromForm(form.Get)
	if err != nil {
		return m.fail(fieldMessage(err), err)
	}
	created, err := m.Backend().Create(ctx, p)
	if err != nil {
		m.log.Error("create failed", zap.String("name", p.Name), zap.Error(err))
		return m.fail(MsgCreateFailed, err)
	}
	m.info(MsgCreated, created.Name)
	return m.done(ctx, created)
}

// Select returns the project behind a selection so the update form can be
// prefilled. An empty selection returns ok=false and no error.
func (m *Manager) Select(ctx context.Context, sel Selection) (model.Project, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sel.Empty() {
		return model.Project{}, false, nil
	}
	projects, err := m.checked(ctx, sel, MsgUpdateFailed)
	if err != nil {
		return model.Project{}, false, err
	}
	return projects[sel.Index], true, nil
}

func (m *Manager) Update(ctx context.Context, sel Selection, form Form) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sel.Empty() {
		return m.fail(MsgSelectUpdate, ErrNoSelection)
	}
	p, err := model.FromForm(form.Get)
	if err != nil {
		return m.fail(fieldMessage(err), err)
	}
	if _, err := m.checked(ctx, sel, MsgUpdateFailed); err != nil {
		return Result{Snapshot: m.view.Last(), Message: m.slot.Current()}, err
	}
	if err := m.Backend().Update(ctx, sel.Index, p); err != nil {
		m.log.Error("update failed", zap.Int("index", sel.Index), zap.Error(err))
		return m.fail(MsgUpdateFailed, err)
	}
	m.info(MsgUpdated, p.Name)
	return m.done(ctx, p)
}

func (m *Manager) Delete(ctx context.Context, sel Selection) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sel.Empty() {
		return m.fail(MsgSelectDelete, ErrNoSelection)
	}
	projects, err := m.checked(ctx, sel, MsgDeleteFailed)
	if err != nil {
		return Result{Snapshot: m.view.Last(), Message: m.slot.Current()}, err
	}
	target := projects[sel.Index]
	if err := m.Backend().Delete(ctx, sel.Index); err != nil {
		m.log.Error("delete failed", zap.Int("index", sel.Index), zap.Error(err))
		return m.fail(MsgDeleteFailed, err)
	}
	m.info(MsgDeleted, target.Name)
	return m.done(ctx, target)
}

// SwitchMode makes mode the active backend and reloads the list from it.
func (m *Manager) SwitchMode(ctx context.Context, mode store.Mode) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.src.Get(ctx, mode)
	if err != nil {
		m.log.Error("switch mode failed", zap.String("mode", string(mode)), zap.Error(err))
		return m.fail(MsgModeFailed, err)
	}
	m.bmu.Lock()
	m.active = b
	m.bmu.Unlock()
	m.log.Info("storage mode switched", zap.String("mode", string(mode)))

	m.slot.Info(fmt.Sprintf(MsgModeSwitched, mode))
	snap, err := m.refreshLocked(ctx)
	return Result{Snapshot: snap, Message: m.slot.Current()}, err
}

// Resolve turns a CLI reference (positional index or project id) into a
// selection against the current list.
func (m *Manager) Resolve(ctx context.Context, ref string) (Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	projects, err := m.Backend().List(ctx)
	if err != nil {
		return NoSelection(), err
	}
	rev := view.Revision(projects)
	ref = strings.TrimSpace(ref)
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(projects) {
			return NoSelection(), store.IndexError{Index: i, Len: len(projects)}
		}
		return Selection{Index: i, Revision: rev}, nil
	}
	for i, p := range projects {
		if ref != "" && p.ID == ref {
			return Selection{Index: i, Revision: rev}, nil
		}
	}
	return NoSelection(), fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// checked loads the current list and rejects selections that are out of
// range or were made against a different list.
func (m *Manager) checked(ctx context.Context, sel Selection, failMsg string) ([]model.Project, error) {
	projects, err := m.Backend().List(ctx)
	if err != nil {
		m.log.Error("list failed", zap.Error(err))
		m.slot.Error(failMsg)
		return nil, err
	}
	if sel.Revision != "" && sel.Revision != view.Revision(projects) {
		m.slot.Error(MsgStale)
		_, _ = m.view.Refresh(ctx)
		return nil, ErrStaleSelection
	}
	if sel.Index >= len(projects) {
		m.slot.Error(MsgStale)
		return nil, store.IndexError{Index: sel.Index, Len: len(projects)}
	}
	return projects, nil
}

func (m *Manager) info(format string, name string) {
	msg := fmt.Sprintf(format, name)
	if !m.Backend().Persistent() {
		msg += RemoteNote
	}
	m.slot.Info(msg)
}

func (m *Manager) fail(msg string, err error) (Result, error) {
	m.slot.Error(msg)
	return Result{Snapshot: m.view.Last(), Message: m.slot.Current()}, err
}

func (m *Manager) done(ctx context.Context, p model.Project) (Result, error) {
	snap, err := m.refreshLocked(ctx)
	return Result{Snapshot: snap, Message: m.slot.Current(), Project: p}, err
}

func fieldMessage(err error) string {
	var fm model.FieldMissingError
	if errors.As(err, &fm) {
		return fmt.Sprintf("Please provide a project %s.", fm.Field)
	}
	return err.Error()
}
