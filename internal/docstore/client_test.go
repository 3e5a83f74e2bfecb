package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/larderapp/larder/internal/model"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultServerBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultServerBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_GetMergeWatch(t *testing.T) {
	t.Parallel()

	docPath := testPath()
	var gotAuth, gotPatchBody string
	var gotWatchSince, gotWatchWait string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != docPath.String() {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Has("since") {
				gotWatchSince = r.URL.Query().Get("since")
				gotWatchWait = r.URL.Query().Get("wait_ms")
			}
			groceries := []model.ChecklistEntry{{ID: "g1", Text: "Eggs"}}
			_ = json.NewEncoder(w).Encode(snapshotEnvelope{
				Revision: 7,
				Doc:      Patch{Groceries: &groceries},
			})
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			gotPatchBody = string(body)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "tok-u1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	snap, err := c.Get(ctx, docPath)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if snap.Revision != 7 {
		t.Fatalf("Revision = %d, want 7", snap.Revision)
	}
	if snap.Patch.Groceries == nil || (*snap.Patch.Groceries)[0].Text != "Eggs" {
		t.Fatalf("Get doc = %#v, want eggs entry", snap.Patch)
	}
	if gotAuth != "Bearer tok-u1" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}

	items := []model.Item{{ID: "i1", Name: "Lamp"}}
	if err := c.Merge(ctx, docPath, Patch{Items: &items}); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(gotPatchBody), &decoded); err != nil {
		t.Fatalf("patch body not JSON: %v", err)
	}
	if _, ok := decoded["items"]; !ok {
		t.Fatalf("patch body missing items key: %s", gotPatchBody)
	}
	if _, ok := decoded["groceries"]; ok {
		t.Fatalf("patch body carries an absent key: %s", gotPatchBody)
	}

	if _, err := c.Watch(ctx, docPath, 3); err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	if gotWatchSince != "3" {
		t.Fatalf("since = %q, want 3", gotWatchSince)
	}
	if gotWatchWait == "" {
		t.Fatalf("wait_ms missing from watch query")
	}
}

func TestClient_MergeEmptyPatchSkipsRequest(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.Merge(context.Background(), testPath(), Patch{}); err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("empty patch issued %d requests, want 0", calls)
	}
}

func TestClient_ClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"forbidden", http.StatusForbidden, ErrPermissionDenied},
		{"unauthorized", http.StatusUnauthorized, ErrPermissionDenied},
		{"missing", http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(server.Close)

			c, err := NewClient(server.URL, "tok")
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}
			_, err = c.Get(context.Background(), testPath())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Get error = %v, want %v", err, tt.want)
			}
		})
	}
}
