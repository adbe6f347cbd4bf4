package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"portfolio-cli/internal/model"

	"go.uber.org/zap"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("invalid storage mode %q (expected local|remote)", s)
	}
}

// Backend is the record store contract. Records are addressed by their
// position in the collection returned by List.
type Backend interface {
	Mode() Mode
	// Persistent reports whether writes survive; the remote fixture does not.
	Persistent() bool
	List(ctx context.Context) ([]model.Project, error)
	Create(ctx context.Context, p model.Project) (model.Project, error)
	Update(ctx context.Context, index int, p model.Project) error
	Delete(ctx context.Context, index int) error
}

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"

	DefaultProjectsKey = "projects"
	DefaultRemoteURL   = "https://my-json-server.typicode.com/aelew/cse-134b-hw5-data/projects"
)

type LocalOptions struct {
	Driver    string // sqlite|redis|memory
	Path      string // sqlite file
	Key       string
	RedisAddr string
}

type RemoteOptions struct {
	BaseURL string
	Timeout time.Duration
}

type Options struct {
	Local  LocalOptions
	Remote RemoteOptions
	Logger *zap.Logger
}

// Backends lazily opens and caches one backend per mode so callers can switch
// modes without a shared mutable flag.
type Backends struct {
	opts Options

	mu     sync.Mutex
	kv     KV
	local  *LocalBackend
	remote *RemoteBackend
}

func NewBackends(opts Options) *Backends {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if strings.TrimSpace(opts.Local.Key) == "" {
		opts.Local.Key = DefaultProjectsKey
	}
	if strings.TrimSpace(opts.Remote.BaseURL) == "" {
		opts.Remote.BaseURL = DefaultRemoteURL
	}
	return &Backends{opts: opts}
}

// NewBackendsWithKV is used when the caller already owns a KV (tests, --ephemeral).
func NewBackendsWithKV(kv KV, opts Options) *Backends {
	b := NewBackends(opts)
	b.kv = kv
	return b
}

func (b *Backends) Get(ctx context.Context, mode Mode) (Backend, error) {
	switch mode {
	case ModeLocal:
		return b.Local(ctx)
	case ModeRemote:
		return b.Remote(), nil
	default:
		return nil, fmt.Errorf("invalid storage mode %q", mode)
	}
}

func (b *Backends) Local(ctx context.Context) (*LocalBackend, error) {
	kv, err := b.KV(ctx)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.local == nil {
		b.local = NewLocalBackend(kv, b.opts.Local.Key, b.opts.Logger)
	}
	return b.local, nil
}

func (b *Backends) Remote() *RemoteBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remote == nil {
		b.remote = NewRemoteBackend(b.opts.Remote.BaseURL, b.opts.Remote.Timeout, nil, b.opts.Logger)
	}
	return b.remote
}

// KV returns the local key-value store, opening it on first use.
func (b *Backends) KV(ctx context.Context) (KV, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.kv != nil {
		return b.kv, nil
	}
	kv, err := OpenKV(ctx, b.opts.Local)
	if err != nil {
		return nil, err
	}
	b.opts.Logger.Debug("local store opened",
		zap.String("driver", b.opts.Local.Driver),
		zap.String("path", b.opts.Local.Path))
	b.kv = kv
	return kv, nil
}

func (b *Backends) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.kv == nil {
		return nil
	}
	err := b.kv.Close()
	b.kv = nil
	b.local = nil
	return err
}

var (
	ErrIndexOutOfRange = errors.New("project index out of range")
	ErrInvalidData     = errors.New("invalid data")
)

type IndexError struct {
	Index int
	Len   int
}

func (e IndexError) Error() string {
	return fmt.Sprintf("project index %d out of range (have %d)", e.Index, e.Len)
}

func (e IndexError) Unwrap() error { return ErrIndexOutOfRange }

// CorruptDataError means the stored collection could not be decoded.
type CorruptDataError struct {
	Key string
	Err error
}

func (e CorruptDataError) Error() string {
	return fmt.Sprintf("stored %q is not a valid project collection: %v", e.Key, e.Err)
}

func (e CorruptDataError) Unwrap() error { return e.Err }

type HTTPRequestError struct {
	Method string
	URL    string
	Status int // 0 for transport failures
	Err    error
}

func (e HTTPRequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: request failed with HTTP status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e HTTPRequestError) Unwrap() error { return e.Err }
