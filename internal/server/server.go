// Package server implements larderd, the reference document server behind
// the docstore contract: get, sparse merge-write, and long-poll change
// subscription, addressed by /v1/{namespace}/{app}/{scope}/{collection}/{id}.
//
// Access rules are deliberately small. Private (users scope) documents
// require a bearer token on every request; the first write claims the
// document for that token. Shared documents are world-readable and writable
// only by their claiming token. Anything stronger belongs in a real
// identity provider fronting this server.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/larderapp/larder/internal/docstore"
)

const maxWait = 30 * time.Second

// Server serves the document API over a SQLiteStore.
type Server struct {
	store *SQLiteStore
	logf  func(string, ...any)

	mu      sync.Mutex
	changed map[string]chan struct{}
}

// New builds a Server over store.
func New(store *SQLiteStore) *Server {
	return &Server{
		store:   store,
		logf:    log.Printf,
		changed: make(map[string]chan struct{}),
	}
}

// Handler returns the HTTP handler for the document API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/", s.handleDocument)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

type snapshotEnvelope struct {
	Revision uint64         `json:"revision"`
	Doc      docstore.Patch `json:"doc"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	path, err := parsePath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	token := bearerToken(r)

	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r, path, token)
	case http.MethodPatch:
		s.handleMerge(w, r, path, token)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, path docstore.Path, token string) {
	if path.Scope == docstore.ScopeUsers && token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	since, wait, err := watchParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := s.loadAuthorized(path, token, false)
	if err != nil && !errors.Is(err, errDocMissing) {
		s.fail(w, path, err)
		return
	}

	// Long poll: wait for a newer revision, then re-read. A watch on a
	// missing document is valid and observes revision 0.
	if wait > 0 && doc.Revision <= since {
		s.await(r, path, wait)
		doc, err = s.loadAuthorized(path, token, false)
		if err != nil && !errors.Is(err, errDocMissing) {
			s.fail(w, path, err)
			return
		}
	}

	if doc.Revision == 0 && wait == 0 {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshotEnvelope{Revision: doc.Revision, Doc: doc.Doc})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request, path docstore.Path, token string) {
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	if _, err := s.loadAuthorized(path, token, true); err != nil && !errors.Is(err, errDocMissing) {
		s.fail(w, path, err)
		return
	}

	var patch docstore.Patch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		http.Error(w, fmt.Sprintf("decode patch: %v", err), http.StatusBadRequest)
		return
	}
	if patch.IsEmpty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if _, err := s.store.Merge(path, patch, token); err != nil {
		s.fail(w, path, err)
		return
	}
	s.notify(path)
	w.WriteHeader(http.StatusNoContent)
}

var errForbidden = errors.New("forbidden")

// loadAuthorized reads the document and enforces the ownership rule: a
// claimed document only answers to its owner's token, except shared-scope
// reads, which are public.
func (s *Server) loadAuthorized(path docstore.Path, token string, write bool) (document, error) {
	doc, err := s.store.load(path)
	if err != nil {
		return document{}, err
	}
	publicRead := path.Scope == docstore.ScopeShared && !write
	if !publicRead && doc.OwnerToken != "" && doc.OwnerToken != token {
		return document{}, errForbidden
	}
	return doc, nil
}

func (s *Server) fail(w http.ResponseWriter, path docstore.Path, err error) {
	if errors.Is(err, errForbidden) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	s.logf("document %s: %v", path.String(), err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// await blocks until the document at path changes, the wait window elapses,
// or the client goes away.
func (s *Server) await(r *http.Request, path docstore.Path, wait time.Duration) {
	s.mu.Lock()
	ch, ok := s.changed[path.String()]
	if !ok {
		ch = make(chan struct{})
		s.changed[path.String()] = ch
	}
	s.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
	case <-r.Context().Done():
	}
}

// notify wakes every waiter on path by closing and replacing its channel.
func (s *Server) notify(path docstore.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.changed[path.String()]; ok {
		close(ch)
	}
	s.changed[path.String()] = make(chan struct{})
}

func watchParams(r *http.Request) (since uint64, wait time.Duration, err error) {
	q := r.URL.Query()
	if v := q.Get("since"); v != "" {
		since, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad since value %q", v)
		}
	}
	if v := q.Get("wait_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return 0, 0, fmt.Errorf("bad wait_ms value %q", v)
		}
		wait = time.Duration(ms) * time.Millisecond
		if wait > maxWait {
			wait = maxWait
		}
	}
	return since, wait, nil
}

func parsePath(urlPath string) (docstore.Path, error) {
	trimmed := strings.TrimPrefix(urlPath, "/v1/")
	segments := strings.Split(trimmed, "/")
	if len(segments) != 5 {
		return docstore.Path{}, fmt.Errorf("path must have 5 segments, got %d", len(segments))
	}
	path := docstore.Path{
		Namespace:  segments[0],
		App:        segments[1],
		Scope:      docstore.Scope(segments[2]),
		Collection: segments[3],
		DocID:      segments[4],
	}
	if err := path.Validate(); err != nil {
		return docstore.Path{}, err
	}
	return path, nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
