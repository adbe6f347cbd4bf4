// Package view rebuilds everything the user sees from the current record
// collection: the project list, the update/delete selectors and the message
// slot. Surfaces (web, TUI, CLI) render a Snapshot; they never keep their own
// copy of the collection.
package view

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"

	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"
)

const (
	SelectPlaceholder = "-- Select a project --"
	EmptyPlaceholder  = "No projects yet. Create one above!"
)

type Option struct {
	Label string
	Value string // positional index; "" for the placeholder
	ID    string
}

type Row struct {
	Index   int
	Project model.Project
}

type Snapshot struct {
	Mode       store.Mode
	Persistent bool
	Projects   []model.Project
	Rows       []Row

	UpdateOptions []Option
	DeleteOptions []Option

	// Revision fingerprints the record order. Forms echo it back so a
	// selection made against an older list can be detected.
	Revision string
}

func (s Snapshot) Empty() bool { return len(s.Projects) == 0 }

// At returns the record at index, if present.
func (s Snapshot) At(index int) (model.Project, bool) {
	if index < 0 || index >= len(s.Projects) {
		return model.Project{}, false
	}
	return s.Projects[index], true
}

func NewSnapshot(mode store.Mode, persistent bool, projects []model.Project) Snapshot {
	if projects == nil {
		projects = []model.Project{}
	}
	snap := Snapshot{
		Mode:          mode,
		Persistent:    persistent,
		Projects:      projects,
		Rows:          make([]Row, 0, len(projects)),
		UpdateOptions: selectorOptions(projects),
		DeleteOptions: selectorOptions(projects),
		Revision:      Revision(projects),
	}
	for i, p := range projects {
		snap.Rows = append(snap.Rows, Row{Index: i, Project: p})
	}
	return snap
}

func selectorOptions(projects []model.Project) []Option {
	opts := make([]Option, 0, len(projects)+1)
	opts = append(opts, Option{Label: SelectPlaceholder})
	for i, p := range projects {
		opts = append(opts, Option{Label: p.Name, Value: strconv.Itoa(i), ID: p.ID})
	}
	return opts
}

func Revision(projects []model.Project) string {
	h := sha256.New()
	for _, p := range projects {
		h.Write([]byte(p.ID))
		h.Write([]byte{0})
		h.Write([]byte(p.Name))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// BackendFunc returns the backend selected at the time of the call.
type BackendFunc func() store.Backend

type Synchronizer struct {
	current BackendFunc
	slot    *MessageSlot

	mu   sync.RWMutex
	last Snapshot
}

func NewSynchronizer(current BackendFunc, slot *MessageSlot) *Synchronizer {
	if slot == nil {
		slot = NewMessageSlot(DefaultInfoTTL)
	}
	return &Synchronizer{current: current, slot: slot, last: NewSnapshot("", false, nil)}
}

func (s *Synchronizer) Messages() *MessageSlot { return s.slot }

// Refresh re-reads the full collection from the current backend and replaces
// the last snapshot. On error the previous snapshot is kept.
func (s *Synchronizer) Refresh(ctx context.Context) (Snapshot, error) {
	b := s.current()
	projects, err := b.List(ctx)
	if err != nil {
		return s.Last(), err
	}
	snap := NewSnapshot(b.Mode(), b.Persistent(), projects)
	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()
	return snap, nil
}

// Last is what the surfaces currently display.
func (s *Synchronizer) Last() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
