package manage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"portfolio-cli/internal/model"
	"portfolio-cli/internal/store"
	"portfolio-cli/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	backends map[store.Mode]store.Backend
}

func (f fakeSource) Get(_ context.Context, mode store.Mode) (store.Backend, error) {
	b, ok := f.backends[mode]
	if !ok {
		return nil, fmt.Errorf("no backend for %q", mode)
	}
	return b, nil
}

func form(name, u string) url.Values {
	return url.Values{
		model.FieldName:        {name},
		model.FieldDescription: {name + " description"},
		model.FieldURL:         {u},
		model.FieldCoverBase:   {"https://img/" + name + ".jpg"},
		model.FieldCoverLG:     {"https://img/" + name + "-lg.jpg"},
	}
}

type fixture struct {
	m     *Manager
	local *store.LocalBackend
	kv    *store.MemoryKV
}

func newFixture(t *testing.T, remote store.Backend) fixture {
	t.Helper()
	kv := store.NewMemoryKV()
	local := store.NewLocalBackend(kv, "", nil)
	src := fakeSource{backends: map[store.Mode]store.Backend{store.ModeLocal: local}}
	if remote != nil {
		src.backends[store.ModeRemote] = remote
	}
	slot := view.NewMessageSlot(0)
	t.Cleanup(slot.Close)
	m, err := New(context.Background(), src, store.ModeLocal, slot, nil)
	require.NoError(t, err)
	return fixture{m: m, local: local, kv: kv}
}

func (f fixture) seed(t *testing.T, names ...string) view.Snapshot {
	t.Helper()
	ctx := context.Background()
	for _, n := range names {
		_, err := f.m.Create(ctx, form(n, "https://"+n+".dev"))
		require.NoError(t, err)
	}
	snap, err := f.m.Refresh(ctx)
	require.NoError(t, err)
	return snap
}

func TestCreate_AppendsAndRefreshes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.m.Create(ctx, form("DevTerms", "https://devterms.com"))
	require.NoError(t, err)

	assert.Equal(t, `Project "DevTerms" created!`, res.Message.InfoText())
	require.Len(t, res.Snapshot.Projects, 1)
	assert.Equal(t, "DevTerms", res.Snapshot.Projects[0].Name)
	assert.NotEmpty(t, res.Project.ID)
	assert.Equal(t, []string{view.SelectPlaceholder, "DevTerms"}, labels(res.Snapshot.UpdateOptions))
}

func TestCreate_MissingFieldIsRejected(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.m.Create(context.Background(), form("", "https://x"))
	var fm model.FieldMissingError
	require.True(t, errors.As(err, &fm))
	assert.Equal(t, model.FieldName, fm.Field)
	assert.Equal(t, "Please provide a project name.", f.m.Messages().Current().ErrorText())

	got, err := f.local.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemoteCreate500_LeavesViewUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[{"id":1,"name":"Remote","description":"","url":"https://r","cover":{"base":"","lg":""}}]`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newFixture(t, store.NewRemoteBackend(srv.URL, 0, nil, nil))
	ctx := context.Background()
	switched, err := f.m.SwitchMode(ctx, store.ModeRemote)
	require.NoError(t, err)
	before := switched.Snapshot
	require.Len(t, before.Projects, 1)

	res, err := f.m.Create(ctx, form("New", "https://new"))
	var he store.HTTPRequestError
	require.True(t, errors.As(err, &he), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, he.Status)

	assert.Equal(t, MsgCreateFailed, res.Message.ErrorText())
	assert.Equal(t, before, res.Snapshot)
	assert.Equal(t, before, f.m.Snapshot())
}

func TestRemoteWrite500_LeavesViewUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		wantMsg string
		run     func(ctx context.Context, m *Manager, sel Selection) (Result, error)
	}{
		{
			name:    "update",
			method:  http.MethodPut,
			wantMsg: MsgUpdateFailed,
			run: func(ctx context.Context, m *Manager, sel Selection) (Result, error) {
				return m.Update(ctx, sel, form("Renamed", "https://renamed"))
			},
		},
		{
			name:    "delete",
			method:  http.MethodDelete,
			wantMsg: MsgDeleteFailed,
			run: func(ctx context.Context, m *Manager, sel Selection) (Result, error) {
				return m.Delete(ctx, sel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu     sync.Mutex
				writes []string
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					_, _ = w.Write([]byte(`[{"id":1,"name":"Remote","description":"","url":"https://r","cover":{"base":"","lg":""}}]`))
					return
				}
				mu.Lock()
				writes = append(writes, r.Method+" "+r.URL.Path)
				mu.Unlock()
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			f := newFixture(t, store.NewRemoteBackend(srv.URL, 0, nil, nil))
			ctx := context.Background()
			switched, err := f.m.SwitchMode(ctx, store.ModeRemote)
			require.NoError(t, err)
			before := switched.Snapshot

			sel, err := f.m.Resolve(ctx, "0")
			require.NoError(t, err)

			res, err := tt.run(ctx, f.m, sel)
			var he store.HTTPRequestError
			require.True(t, errors.As(err, &he), "got %v", err)
			assert.Equal(t, http.StatusInternalServerError, he.Status)
			mu.Lock()
			assert.Equal(t, []string{tt.method + " /0"}, writes)
			mu.Unlock()

			assert.Equal(t, tt.wantMsg, res.Message.ErrorText())
			assert.Equal(t, before, res.Snapshot)
			assert.Equal(t, before, f.m.Snapshot())
		})
	}
}

func TestRemoteCreate_AddsNotPersistedNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":5,"name":"New","description":"","url":"https://new","cover":{"base":"","lg":""}}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := newFixture(t, store.NewRemoteBackend(srv.URL, 0, nil, nil))
	ctx := context.Background()
	_, err := f.m.SwitchMode(ctx, store.ModeRemote)
	require.NoError(t, err)

	res, err := f.m.Create(ctx, form("New", "https://new"))
	require.NoError(t, err)
	assert.Equal(t, `Project "New" created!`+RemoteNote, res.Message.InfoText())
	// The fixture does not keep writes.
	assert.True(t, res.Snapshot.Empty())
}

func TestDelete_WithoutSelectionIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	before := f.seed(t, "A", "B")

	res, err := f.m.Delete(context.Background(), NoSelection())
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, MsgSelectDelete, res.Message.ErrorText())

	got, err := f.local.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.Projects, got)
}

func TestUpdate_WithoutSelectionIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	before := f.seed(t, "A")

	res, err := f.m.Update(context.Background(), NoSelection(), form("Z", "https://z"))
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Equal(t, MsgSelectUpdate, res.Message.ErrorText())

	got, _ := f.local.List(context.Background())
	assert.Equal(t, before.Projects, got)
}

func TestUpdate_ReplacesSelected(t *testing.T) {
	f := newFixture(t, nil)
	snap := f.seed(t, "A", "B", "C")
	ctx := context.Background()

	p, ok, err := f.m.Select(ctx, Selection{Index: 1, Revision: snap.Revision})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "B", p.Name)

	res, err := f.m.Update(ctx, Selection{Index: 1, Revision: snap.Revision}, form("B2", "https://b2"))
	require.NoError(t, err)
	assert.Equal(t, `Project "B2" updated!`, res.Message.InfoText())
	assert.Equal(t, []string{"A", "B2", "C"}, names(res.Snapshot.Projects))
	assert.Equal(t, snap.Projects[1].ID, res.Snapshot.Projects[1].ID, "update keeps the id")
}

func TestDelete_RemovesSelected(t *testing.T) {
	f := newFixture(t, nil)
	snap := f.seed(t, "A", "B", "C")

	res, err := f.m.Delete(context.Background(), Selection{Index: 0, Revision: snap.Revision})
	require.NoError(t, err)
	assert.Equal(t, `Project "A" deleted!`, res.Message.InfoText())
	assert.Equal(t, []string{"B", "C"}, names(res.Snapshot.Projects))
}

func TestDelete_StaleSelectionIsRejected(t *testing.T) {
	f := newFixture(t, nil)
	snap := f.seed(t, "A", "B", "C")
	ctx := context.Background()

	// Both selections were made against the same rendered list.
	_, err := f.m.Delete(ctx, Selection{Index: 0, Revision: snap.Revision})
	require.NoError(t, err)

	res, err := f.m.Delete(ctx, Selection{Index: 0, Revision: snap.Revision})
	assert.ErrorIs(t, err, ErrStaleSelection)
	assert.Equal(t, MsgStale, res.Message.ErrorText())

	got, _ := f.local.List(ctx)
	assert.Equal(t, []string{"B", "C"}, names(got))
}

func TestDelete_OutOfRange(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, "A")

	_, err := f.m.Delete(context.Background(), Selection{Index: 3})
	assert.ErrorIs(t, err, store.ErrIndexOutOfRange)
}

func TestRefresh_CorruptDataPropagates(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.kv.Set(context.Background(), store.DefaultProjectsKey, []byte(`{not json`)))

	_, err := f.m.Refresh(context.Background())
	var cd store.CorruptDataError
	require.True(t, errors.As(err, &cd), "got %v", err)
	assert.Equal(t, MsgLoadFailed, f.m.Messages().Current().ErrorText())
}

func TestSwitchMode_UnknownBackend(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.m.SwitchMode(context.Background(), store.ModeRemote)
	assert.Error(t, err)
	assert.Equal(t, MsgModeFailed, res.Message.ErrorText())
	assert.Equal(t, store.ModeLocal, f.m.Mode())
}

func TestResolve(t *testing.T) {
	f := newFixture(t, nil)
	snap := f.seed(t, "A", "B")
	ctx := context.Background()

	sel, err := f.m.Resolve(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, Selection{Index: 1, Revision: snap.Revision}, sel)

	sel, err = f.m.Resolve(ctx, snap.Projects[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Index)

	_, err = f.m.Resolve(ctx, "proj-missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.m.Resolve(ctx, "9")
	assert.ErrorIs(t, err, store.ErrIndexOutOfRange)
}

func TestSeedDefaults_OnlyOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	seeded, err := f.m.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
	seeded, err = f.m.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	snap, err := f.m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"DevTerms", "Cobalt", "Mailery", "Tech Internship Alerts"}, names(snap.Projects))
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection("", "abc")
	require.NoError(t, err)
	assert.True(t, sel.Empty())

	sel, err = ParseSelection(" 2 ", "abc")
	require.NoError(t, err)
	assert.Equal(t, Selection{Index: 2, Revision: "abc"}, sel)

	_, err = ParseSelection("-1", "")
	assert.Error(t, err)
	_, err = ParseSelection("x", "")
	assert.Error(t, err)
}

func names(ps []model.Project) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func labels(opts []view.Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Label)
	}
	return out
}
