package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio-cli/internal/model"

	"go.uber.org/zap"
)

var _ Backend = (*RemoteBackend)(nil)

const DefaultRemoteTimeout = 10 * time.Second

// RemoteBackend talks to a REST collection resource, addressing items by
// index-as-id: GET/POST {base}, PUT/DELETE {base}/{index}.
type RemoteBackend struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewRemoteBackend builds a client for baseURL. A nil client gets a default one
// with the given timeout (zero means DefaultRemoteTimeout).
func NewRemoteBackend(baseURL string, timeout time.Duration, client *http.Client, log *zap.Logger) *RemoteBackend {
	if client == nil {
		if timeout <= 0 {
			timeout = DefaultRemoteTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RemoteBackend{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
		log:     log,
	}
}

func (b *RemoteBackend) Mode() Mode       { return ModeRemote }
func (b *RemoteBackend) Persistent() bool { return false }
func (b *RemoteBackend) BaseURL() string  { return b.baseURL }

func (b *RemoteBackend) List(ctx context.Context) ([]model.Project, error) {
	var raw json.RawMessage
	if err := b.do(ctx, http.MethodGet, b.baseURL, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("GET %s: %w: expected a JSON array", b.baseURL, ErrInvalidData)
	}
	var records []remoteRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("GET %s: %w: %v", b.baseURL, ErrInvalidData, err)
	}
	out := make([]model.Project, 0, len(records))
	for _, r := range records {
		out = append(out, r.project())
	}
	return out, nil
}

func (b *RemoteBackend) Create(ctx context.Context, p model.Project) (model.Project, error) {
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return model.Project{}, err
	}
	p.ID = ""
	var echoed remoteRecord
	if err := b.do(ctx, http.MethodPost, b.baseURL, p, &echoed); err != nil {
		return model.Project{}, err
	}
	out := p
	out.ID = echoed.id()
	return out, nil
}

func (b *RemoteBackend) Update(ctx context.Context, index int, p model.Project) error {
	if index < 0 {
		return IndexError{Index: index, Len: -1}
	}
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = ""
	return b.do(ctx, http.MethodPut, b.itemURL(index), p, nil)
}

func (b *RemoteBackend) Delete(ctx context.Context, index int) error {
	if index < 0 {
		return IndexError{Index: index, Len: -1}
	}
	return b.do(ctx, http.MethodDelete, b.itemURL(index), nil, nil)
}

func (b *RemoteBackend) itemURL(index int) string {
	return b.baseURL + "/" + strconv.Itoa(index)
}

func (b *RemoteBackend) do(ctx context.Context, method, url string, body any, out any) error {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return HTTPRequestError{Method: method, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Debug("remote request failed",
			zap.String("method", method), zap.String("url", url),
			zap.Duration("duration", time.Since(start)), zap.Error(err))
		return HTTPRequestError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	b.log.Debug("remote request",
		zap.String("method", method), zap.String("url", url),
		zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return HTTPRequestError{Method: method, URL: url, Status: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return HTTPRequestError{Method: method, URL: url, Status: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, url, err)
	}
	return nil
}

// remoteRecord tolerates numeric ids, which is what json-server style fixtures
// return.
type remoteRecord struct {
	ID          json.RawMessage `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	URL         string          `json:"url"`
	Cover       model.Cover     `json:"cover"`
}

func (r remoteRecord) id() string {
	s := strings.TrimSpace(string(r.ID))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}

func (r remoteRecord) project() model.Project {
	return model.Project{
		ID:          r.id(),
		Name:        r.Name,
		Description: r.Description,
		URL:         r.URL,
		Cover:       r.Cover,
	}
}
