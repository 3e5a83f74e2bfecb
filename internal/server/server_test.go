package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/larderapp/larder/internal/docstore"
	"github.com/larderapp/larder/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "larderd.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ts := httptest.NewServer(New(store).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func privatePath(uid string) docstore.Path {
	return docstore.Path{
		Namespace:  "larder",
		App:        "test",
		Scope:      docstore.ScopeUsers,
		Collection: "docs",
		DocID:      uid,
	}
}

func sharedPath(token string) docstore.Path {
	p := privatePath(token)
	p.Scope = docstore.ScopeShared
	return p
}

func TestServer_SparseMergeRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	c, err := docstore.NewClient(ts.URL, "tok-a")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	path := privatePath("u1")

	if _, err := c.Get(ctx, path); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Get before first write = %v, want ErrNotFound", err)
	}

	groceries := []model.ChecklistEntry{{ID: "g1", Text: "Milk"}}
	if err := c.Merge(ctx, path, docstore.Patch{Groceries: &groceries}); err != nil {
		t.Fatalf("Merge groceries: %v", err)
	}
	items := []model.Item{{ID: "i1", SpaceID: "s1", Name: "Couch", Options: []model.Option{{ID: "o1", Store: "IKEA"}}}}
	if err := c.Merge(ctx, path, docstore.Patch{Items: &items}); err != nil {
		t.Fatalf("Merge items: %v", err)
	}

	snap, err := c.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if snap.Revision != 2 {
		t.Fatalf("Revision = %d, want 2", snap.Revision)
	}
	if snap.Patch.Groceries == nil || (*snap.Patch.Groceries)[0].Text != "Milk" {
		t.Fatalf("groceries lost by the items merge: %#v", snap.Patch)
	}
	if snap.Patch.Items == nil || (*snap.Patch.Items)[0].Options[0].Store != "IKEA" {
		t.Fatalf("items not stored intact: %#v", snap.Patch)
	}
	if snap.Patch.Repairs != nil {
		t.Fatalf("repairs key appeared without a write: %#v", snap.Patch)
	}
}

func TestServer_OwnershipRules(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	owner, _ := docstore.NewClient(ts.URL, "tok-owner")
	stranger, _ := docstore.NewClient(ts.URL, "tok-stranger")
	anon, _ := docstore.NewClient(ts.URL, "")
	path := privatePath("u1")

	spaces := []model.Space{{ID: "s1", Name: "Kitchen"}}
	if err := owner.Merge(ctx, path, docstore.Patch{Spaces: &spaces}); err != nil {
		t.Fatalf("owner Merge: %v", err)
	}

	if _, err := stranger.Get(ctx, path); !errors.Is(err, docstore.ErrPermissionDenied) {
		t.Fatalf("stranger Get = %v, want ErrPermissionDenied", err)
	}
	if err := stranger.Merge(ctx, path, docstore.Patch{Spaces: &spaces}); !errors.Is(err, docstore.ErrPermissionDenied) {
		t.Fatalf("stranger Merge = %v, want ErrPermissionDenied", err)
	}
	if _, err := anon.Get(ctx, path); !errors.Is(err, docstore.ErrPermissionDenied) {
		t.Fatalf("anonymous Get = %v, want ErrPermissionDenied", err)
	}
}

func TestServer_SharedScopeIsPubliclyReadable(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	owner, _ := docstore.NewClient(ts.URL, "tok-owner")
	anon, _ := docstore.NewClient(ts.URL, "")
	path := sharedPath("share-token-1")

	spaces := []model.Space{{ID: "s1", Name: "Kitchen"}}
	if err := owner.Merge(ctx, path, docstore.Patch{Spaces: &spaces}); err != nil {
		t.Fatalf("owner Merge: %v", err)
	}

	snap, err := anon.Get(ctx, path)
	if err != nil {
		t.Fatalf("anonymous Get of shared doc: %v", err)
	}
	if snap.Patch.Spaces == nil || (*snap.Patch.Spaces)[0].Name != "Kitchen" {
		t.Fatalf("shared doc = %#v, want the kitchen", snap.Patch)
	}

	// Readable is not writable.
	if err := anon.Merge(ctx, path, docstore.Patch{Spaces: &spaces}); !errors.Is(err, docstore.ErrPermissionDenied) {
		t.Fatalf("anonymous Merge of shared doc = %v, want ErrPermissionDenied", err)
	}
	if err := anon.Merge(ctx, sharedPath("unclaimed"), docstore.Patch{Spaces: &spaces}); !errors.Is(err, docstore.ErrPermissionDenied) {
		t.Fatalf("tokenless claim of shared doc = %v, want ErrPermissionDenied", err)
	}
}

func TestServer_WatchDeliversChange(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	c, _ := docstore.NewClient(ts.URL, "tok-a")
	path := privatePath("u1")

	spaces := []model.Space{{ID: "s1", Name: "Kitchen"}}
	if err := c.Merge(ctx, path, docstore.Patch{Spaces: &spaces}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	type result struct {
		snap docstore.Snapshot
		err  error
	}
	got := make(chan result, 1)
	go func() {
		snap, err := c.Watch(ctx, path, 1)
		got <- result{snap, err}
	}()

	// Let the long poll park before the write lands.
	time.Sleep(100 * time.Millisecond)
	groceries := []model.ChecklistEntry{{ID: "g1", Text: "Eggs"}}
	if err := c.Merge(ctx, path, docstore.Patch{Groceries: &groceries}); err != nil {
		t.Fatalf("Merge during watch: %v", err)
	}

	select {
	case res := <-got:
		if res.err != nil {
			t.Fatalf("Watch: %v", res.err)
		}
		if res.snap.Revision != 2 {
			t.Fatalf("Revision = %d, want 2", res.snap.Revision)
		}
		if res.snap.Patch.Groceries == nil || (*res.snap.Patch.Groceries)[0].Text != "Eggs" {
			t.Fatalf("watch snapshot = %#v, want the eggs entry", res.snap.Patch)
		}
	case <-ctx.Done():
		t.Fatal("Watch never returned")
	}
}

func TestServer_WatchMissingDocumentReportsRevisionZero(t *testing.T) {
	ts := newTestServer(t)

	// A watch on a never-written path is valid and observes revision 0
	// instead of a 404.
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/larder/test/users/docs/nobody?since=0&wait_ms=50", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Authorization", "Bearer tok-a")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var envelope struct {
		Revision uint64 `json:"revision"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Revision != 0 {
		t.Fatalf("revision = %d, want 0", envelope.Revision)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid", "/v1/larder/test/users/docs/u1", false},
		{"shared", "/v1/larder/test/shared/docs/tok", false},
		{"too short", "/v1/larder/test/users/docs", true},
		{"too long", "/v1/larder/test/users/docs/u1/extra", true},
		{"bad scope", "/v1/larder/test/admin/docs/u1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePath(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePath(%q) = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
