package store

import (
	"context"
	"encoding/json"
	"sync"

	"portfolio-cli/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ Backend = (*LocalBackend)(nil)

// LocalBackend keeps the whole collection as one JSON array under a single KV
// key. Every mutation is a read-modify-write of that blob.
type LocalBackend struct {
	kv  KV
	key string
	log *zap.Logger

	// Serializes read-modify-write within this process.
	mu    sync.Mutex
	newID func() string
}

func NewLocalBackend(kv KV, key string, log *zap.Logger) *LocalBackend {
	if key == "" {
		key = DefaultProjectsKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalBackend{kv: kv, key: key, log: log, newID: NewProjectID}
}

func NewProjectID() string {
	return "proj-" + uuid.NewString()
}

func (b *LocalBackend) Mode() Mode       { return ModeLocal }
func (b *LocalBackend) Persistent() bool { return true }
func (b *LocalBackend) Key() string      { return b.key }

func (b *LocalBackend) List(ctx context.Context) ([]model.Project, error) {
	projects, _, err := b.load(ctx)
	return projects, err
}

func (b *LocalBackend) Create(ctx context.Context, p model.Project) (model.Project, error) {
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return model.Project{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	projects, _, err := b.load(ctx)
	if err != nil {
		return model.Project{}, err
	}
	p.ID = b.newID()
	projects = append(projects, p)
	if err := b.save(ctx, projects); err != nil {
		return model.Project{}, err
	}
	b.log.Debug("project created", zap.String("backend", "local"), zap.String("id", p.ID), zap.Int("index", len(projects)-1))
	return p, nil
}

func (b *LocalBackend) Update(ctx context.Context, index int, p model.Project) error {
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	projects, _, err := b.load(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(projects) {
		return IndexError{Index: index, Len: len(projects)}
	}
	// The record keeps its identity; only its content is replaced.
	p.ID = projects[index].ID
	projects[index] = p
	if err := b.save(ctx, projects); err != nil {
		return err
	}
	b.log.Debug("project updated", zap.String("backend", "local"), zap.Int("index", index))
	return nil
}

func (b *LocalBackend) Delete(ctx context.Context, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	projects, _, err := b.load(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(projects) {
		return IndexError{Index: index, Len: len(projects)}
	}
	projects = append(projects[:index], projects[index+1:]...)
	if err := b.save(ctx, projects); err != nil {
		return err
	}
	b.log.Debug("project deleted", zap.String("backend", "local"), zap.Int("index", index))
	return nil
}

// Seed writes projects only when nothing has been stored yet. It reports
// whether it wrote.
func (b *LocalBackend) Seed(ctx context.Context, projects []model.Project) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok, err := b.kv.Get(ctx, b.key)
	if err != nil || ok {
		return false, err
	}
	seeded := make([]model.Project, len(projects))
	copy(seeded, projects)
	if err := b.save(ctx, seeded); err != nil {
		return false, err
	}
	b.log.Info("seeded local projects", zap.Int("count", len(seeded)))
	return true, nil
}

// Reset drops the stored collection.
func (b *LocalBackend) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kv.Delete(ctx, b.key)
}

func (b *LocalBackend) load(ctx context.Context) ([]model.Project, bool, error) {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, false, err
	}
	if !ok || len(raw) == 0 {
		return []model.Project{}, false, nil
	}
	projects, err := DecodeCollection(raw)
	if err != nil {
		return nil, true, CorruptDataError{Key: b.key, Err: err}
	}
	return projects, true, nil
}

func (b *LocalBackend) save(ctx context.Context, projects []model.Project) error {
	// Records written by older versions (or hand-edited) may lack an id.
	for i := range projects {
		if projects[i].ID == "" {
			projects[i].ID = b.newID()
		}
	}
	raw, err := EncodeCollection(projects)
	if err != nil {
		return err
	}
	return b.kv.Set(ctx, b.key, raw)
}

// EncodeCollection is the persisted representation of a collection.
func EncodeCollection(projects []model.Project) ([]byte, error) {
	if projects == nil {
		projects = []model.Project{}
	}
	return json.Marshal(projects)
}

func DecodeCollection(raw []byte) ([]model.Project, error) {
	var projects []model.Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		// "null" is a valid JSON document but not a collection.
		projects = []model.Project{}
	}
	return projects, nil
}
