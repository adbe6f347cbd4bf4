package store

import (
	"context"
	"errors"
	"testing"

	"portfolio-cli/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newTestLocal(t *testing.T) (*LocalBackend, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	return NewLocalBackend(kv, "", nil), kv
}

func sampleProject(name string) model.Project {
	return model.Project{
		Name:        name,
		Description: name + " description",
		URL:         "https://" + name + ".example",
		Cover:       model.Cover{Base: name + ".jpg", LG: name + "-lg.jpg"},
	}
}

var ignoreID = cmpopts.IgnoreFields(model.Project{}, "ID")

func TestLocal_EmptyListIsEmptySequence(t *testing.T) {
	t.Parallel()

	b, _ := newTestLocal(t)
	got, err := b.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice; got %#v", got)
	}
}

func TestLocal_CreateAppendsAtEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, _ := newTestLocal(t)
	for _, n := range []string{"a", "b"} {
		if _, err := b.Create(ctx, sampleProject(n)); err != nil {
			t.Fatalf("Create(%s): %v", n, err)
		}
	}

	p := model.Project{Name: "X", Description: "Y", URL: "https://x", Cover: model.Cover{Base: "a", LG: "b"}}
	created, err := b.Create(ctx, p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected surrogate id to be assigned")
	}

	got, err := b.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(got))
	}
	if diff := cmp.Diff(p, got[2], ignoreID); diff != "" {
		t.Fatalf("last element mismatch (-want +got):\n%s", diff)
	}
	if got[2].ID != created.ID {
		t.Fatalf("expected stored id %q, got %q", created.ID, got[2].ID)
	}
}

func TestLocal_CreateRejectsMissingFields(t *testing.T) {
	t.Parallel()

	b, kv := newTestLocal(t)
	_, err := b.Create(context.Background(), model.Project{Description: "no name"})
	var fm model.FieldMissingError
	if !errors.As(err, &fm) || fm.Field != model.FieldName {
		t.Fatalf("expected FieldMissingError(name), got %v", err)
	}
	if _, ok, _ := kv.Get(context.Background(), DefaultProjectsKey); ok {
		t.Fatalf("rejected create must not write")
	}
}

func TestLocal_UpdateReplacesByIndexAndKeepsID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, _ := newTestLocal(t)
	var ids []string
	for _, n := range []string{"a", "b", "c"} {
		p, err := b.Create(ctx, sampleProject(n))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, p.ID)
	}

	next := sampleProject("b2")
	if err := b.Update(ctx, 1, next); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := b.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff(next, got[1], ignoreID); diff != "" {
		t.Fatalf("updated element mismatch (-want +got):\n%s", diff)
	}
	if got[1].ID != ids[1] {
		t.Fatalf("update must keep identity: want %q got %q", ids[1], got[1].ID)
	}
	if got[0].Name != "a" || got[2].Name != "c" {
		t.Fatalf("neighbours changed: %#v", got)
	}
}

func TestLocal_DeleteShiftsLaterRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, _ := newTestLocal(t)
	for _, n := range []string{"a", "b", "c", "d"} {
		if _, err := b.Create(ctx, sampleProject(n)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	before, _ := b.List(ctx)

	if err := b.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	after, err := b.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(after) != len(before)-1 {
		t.Fatalf("expected length %d, got %d", len(before)-1, len(after))
	}
	if after[1] == before[1] {
		t.Fatalf("deleted record still at index 1")
	}
	if diff := cmp.Diff([]model.Project{before[0], before[2], before[3]}, after); diff != "" {
		t.Fatalf("unexpected collection after delete (-want +got):\n%s", diff)
	}
}

func TestLocal_OutOfRangeIndex(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, _ := newTestLocal(t)
	if _, err := b.Create(ctx, sampleProject("a")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, idx := range []int{-1, 1, 7} {
		if err := b.Update(ctx, idx, sampleProject("z")); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Update(%d): expected ErrIndexOutOfRange, got %v", idx, err)
		}
		if err := b.Delete(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Delete(%d): expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	got, _ := b.List(ctx)
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("collection changed: %#v", got)
	}
}

func TestLocal_CorruptBlobPropagates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, kv := newTestLocal(t)
	_ = kv.Set(ctx, DefaultProjectsKey, []byte(`{not json`))

	_, err := b.List(ctx)
	var cd CorruptDataError
	if !errors.As(err, &cd) {
		t.Fatalf("expected CorruptDataError, got %v", err)
	}
	if _, err := b.Create(ctx, sampleProject("a")); !errors.As(err, &cd) {
		t.Fatalf("create over corrupt data must fail, got %v", err)
	}
	raw, _, _ := kv.Get(ctx, DefaultProjectsKey)
	if string(raw) != `{not json` {
		t.Fatalf("corrupt data must not be overwritten; got %s", raw)
	}
}

func TestLocal_BackfillsMissingIDsOnWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, kv := newTestLocal(t)
	_ = kv.Set(ctx, DefaultProjectsKey, []byte(`[{"name":"Old","description":"","url":"https://old","cover":{"base":"","lg":""}}]`))

	if _, err := b.Create(ctx, sampleProject("new")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, _ := b.List(ctx)
	if len(got) != 2 || got[0].ID == "" || got[0].ID == got[1].ID {
		t.Fatalf("expected distinct ids after write; got %#v", got)
	}
}

func TestLocal_SeedOnlyWhenAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b, _ := newTestLocal(t)

	wrote, err := b.Seed(ctx, DefaultProjects())
	if err != nil || !wrote {
		t.Fatalf("first seed: wrote=%v err=%v", wrote, err)
	}
	if err := b.Delete(ctx, 0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	wrote, err = b.Seed(ctx, DefaultProjects())
	if err != nil || wrote {
		t.Fatalf("second seed must be a no-op: wrote=%v err=%v", wrote, err)
	}
	got, _ := b.List(ctx)
	if len(got) != len(DefaultProjects())-1 {
		t.Fatalf("expected %d projects, got %d", len(DefaultProjects())-1, len(got))
	}
}

func TestCollection_EncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	want := []model.Project{
		{ID: "proj-1", Name: "DevTerms", Description: "Online dictionary", URL: "https://devterms.com", Cover: model.Cover{Base: "a.jpg", LG: "a-lg.jpg"}},
		{ID: "proj-2", Name: "Mailery", URL: "https://mailery.app"},
	}
	raw, err := EncodeCollection(want)
	if err != nil {
		t.Fatalf("EncodeCollection: %v", err)
	}
	got, err := DecodeCollection(raw)
	if err != nil {
		t.Fatalf("DecodeCollection: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("roundtrip mismatch (-want +got):\n%s", diff)
	}

	empty, err := DecodeCollection([]byte("null"))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("null should decode as empty collection; got %#v err=%v", empty, err)
	}
}
