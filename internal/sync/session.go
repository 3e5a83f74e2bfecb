package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/larderapp/larder/internal/docstore"
	"github.com/larderapp/larder/internal/identity"
	"github.com/larderapp/larder/internal/model"
	"github.com/larderapp/larder/internal/state"
)

// Phase tracks session bootstrap. ReadError and AuthFailed are terminal;
// recovery is a restart of the program, not an automatic retry.
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseAuthenticating
	PhaseAuthenticated
	PhaseAuthFailed
	PhaseSubscribing
	PhaseSynced
	PhaseReadError
)

// String returns a short human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAuthFailed:
		return "auth failed"
	case PhaseSubscribing:
		return "subscribing"
	case PhaseSynced:
		return "synced"
	case PhaseReadError:
		return "read error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

const docCollection = "docs"

// Options configure a Session.
type Options struct {
	Store    docstore.Store
	Cache    *state.Store
	Provider identity.Provider

	Namespace string
	App       string

	// ShareToken switches the session to the public read-only path. Its
	// presence is the sole trigger for read-only mode.
	ShareToken string

	// Notify is invoked after every applied remote snapshot and phase
	// change so the UI can re-render. Optional.
	Notify func()

	// Logf receives write-failure and diagnostic lines. Defaults to
	// log.Printf.
	Logf func(format string, args ...any)
}

// Session keeps one remote document eventually consistent with the local
// cache. It owns the single active subscription and the decision of when
// local state is authoritative.
type Session struct {
	store    docstore.Store
	cache    *state.Store
	provider identity.Provider
	notify   func()
	logf     func(string, ...any)

	namespace  string
	app        string
	shareToken string

	mu        sync.Mutex
	phase     Phase
	phaseErr  error
	id        identity.Identity
	path      docstore.Path
	readOnly  bool
	cancelSub context.CancelFunc
	subDone   chan struct{}

	ctx context.Context
}

// NewSession builds a Session. Start must be called before any mutation.
func NewSession(opts Options) *Session {
	s := &Session{
		store:      opts.Store,
		cache:      opts.Cache,
		provider:   opts.Provider,
		notify:     opts.Notify,
		logf:       opts.Logf,
		namespace:  opts.Namespace,
		app:        opts.App,
		shareToken: opts.ShareToken,
		phase:      PhaseUnauthenticated,
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	return s
}

// SetNotify replaces the update callback. The UI registers itself here
// once its event loop exists.
func (s *Session) SetNotify(fn func()) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

func (s *Session) emit() {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Phase returns the current bootstrap phase and, for terminal phases, the
// error that put the session there.
func (s *Session) Phase() (Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase, s.phaseErr
}

// ReadOnly reports whether this session may write.
func (s *Session) ReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnly
}

// Identity returns the signed-in identity, zero for shared sessions.
func (s *Session) Identity() identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// resolvePath picks the document path for this session. A share token
// selects the public read path; otherwise the private path is keyed by the
// authenticated identity. Called once per bootstrap; the result is stable
// for the session's lifetime.
func (s *Session) resolvePath(id identity.Identity) docstore.Path {
	path := docstore.Path{
		Namespace:  s.namespace,
		App:        s.app,
		Collection: docCollection,
	}
	if s.shareToken != "" {
		path.Scope = docstore.ScopeShared
		path.DocID = s.shareToken
		return path
	}
	path.Scope = docstore.ScopeUsers
	path.DocID = id.UID
	return path
}

// Start runs the bootstrap sequence: authenticate (unless this is a shared
// read-only session), resolve the document path, load the initial snapshot,
// and launch the change subscription. Fatal bootstrap failures are returned
// and also recorded in the phase.
func (s *Session) Start(ctx context.Context) error {
	s.ctx = ctx

	var id identity.Identity
	if s.shareToken == "" {
		s.setPhase(PhaseAuthenticating, nil)
		if s.provider == nil {
			err := errors.New("no identity provider configured")
			s.setPhase(PhaseAuthFailed, err)
			return err
		}
		signedIn, err := s.provider.SignIn(ctx)
		if err != nil {
			s.setPhase(PhaseAuthFailed, err)
			return fmt.Errorf("sign in: %w", err)
		}
		id = signedIn
		s.setPhase(PhaseAuthenticated, nil)
	} else {
		s.setPhase(PhaseAuthenticated, nil)
	}

	s.mu.Lock()
	s.id = id
	s.readOnly = s.shareToken != ""
	s.path = s.resolvePath(id)
	path := s.path
	readOnly := s.readOnly
	s.mu.Unlock()
	s.cache.SetReadOnly(readOnly)

	s.setPhase(PhaseSubscribing, nil)
	since, err := s.loadInitial(ctx, path, readOnly)
	if err != nil {
		s.setPhase(PhaseReadError, err)
		return err
	}

	s.resubscribe(ctx, path, since)
	s.setPhase(PhaseSynced, nil)

	if s.shareToken == "" && s.provider != nil {
		s.provider.OnChange(s.handleIdentityChange)
	}
	return nil
}

// handleIdentityChange reacts to provider state changes after bootstrap. A
// new identity moves the subscription to the new private path; a sign-out
// drops the identity so every further persist no-ops.
func (s *Session) handleIdentityChange(id identity.Identity, signedIn bool) {
	s.mu.Lock()
	if !signedIn {
		s.id = identity.Identity{}
		cancel := s.cancelSub
		done := s.subDone
		s.cancelSub = nil
		s.subDone = nil
		s.phase = PhaseUnauthenticated
		s.phaseErr = nil
		s.mu.Unlock()
		if cancel != nil {
			cancel()
			<-done
		}
		s.emit()
		return
	}
	if id.UID == s.id.UID {
		s.id = id
		s.mu.Unlock()
		return
	}
	s.id = id
	s.path = s.resolvePath(id)
	path := s.path
	ctx := s.ctx
	s.mu.Unlock()

	s.resubscribe(ctx, path, 0)
}

// loadInitial reads the first snapshot. A missing private document is the
// first-run case: the default spaces are seeded and persisted. A missing
// shared document is a dead share link and fails the session.
func (s *Session) loadInitial(ctx context.Context, path docstore.Path, readOnly bool) (uint64, error) {
	snap, err := s.store.Get(ctx, path)
	switch {
	case err == nil:
		// The first snapshot is the whole truth: normalize it into a full
		// document so collections the stored document never had load as
		// empty instead of being left untouched in the cache.
		doc := snap.Patch.Document()
		s.cache.ApplyRemote(docstore.Patch{
			Spaces:      &doc.Spaces,
			Items:       &doc.Items,
			Groceries:   &doc.Groceries,
			Repairs:     &doc.Repairs,
			ShareToken:  &doc.ShareToken,
			LastUpdated: &doc.LastUpdated,
		})
		s.emit()
		return snap.Revision, nil
	case errors.Is(err, docstore.ErrPermissionDenied):
		return 0, fmt.Errorf("reading %s was denied; check the server's access rules: %w", path.String(), err)
	case errors.Is(err, docstore.ErrNotFound):
		if readOnly {
			return 0, fmt.Errorf("shared document does not exist: %w", err)
		}
		spaces := model.DefaultSpaces()
		s.cache.SetSpaces(spaces)
		s.persist(docstore.Patch{Spaces: &spaces})
		s.emit()
		return 0, nil
	default:
		return 0, fmt.Errorf("load document: %w", err)
	}
}

// resubscribe tears down any active subscription before establishing a new
// one, so at most one watch can ever write into the cache.
func (s *Session) resubscribe(ctx context.Context, path docstore.Path, since uint64) {
	s.mu.Lock()
	cancel := s.cancelSub
	done := s.subDone
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}

	subCtx, cancelSub := context.WithCancel(ctx)
	subDone := make(chan struct{})
	s.mu.Lock()
	s.cancelSub = cancelSub
	s.subDone = subDone
	s.mu.Unlock()

	go s.watchLoop(subCtx, subDone, path, since)
}

// watchLoop is the lazy, infinite snapshot stream: each long poll returns
// either a newer snapshot, which is sparse-merged into the cache, or the
// unchanged document after the server's wait window.
func (s *Session) watchLoop(ctx context.Context, done chan<- struct{}, path docstore.Path, since uint64) {
	defer close(done)
	for {
		snap, err := s.store.Watch(ctx, path, since)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, docstore.ErrPermissionDenied) {
				s.setPhase(PhaseReadError, fmt.Errorf("subscription denied; check the server's access rules: %w", err))
			} else {
				s.setPhase(PhaseReadError, fmt.Errorf("subscription failed: %w", err))
			}
			return
		}
		if snap.Revision > since {
			since = snap.Revision
			s.cache.ApplyRemote(snap.Patch)
			s.emit()
		}
	}
}

// persist merge-writes the provided top-level keys, stamping lastUpdated.
// It no-ops entirely for read-only sessions, sessions without an identity,
// and sessions that already hit a terminal read error. Failures are logged
// and swallowed: the local cache stays the visible truth, and there is no
// retry queue.
func (s *Session) persist(patch docstore.Patch) {
	s.mu.Lock()
	phase := s.phase
	readOnly := s.readOnly
	uid := s.id.UID
	path := s.path
	s.mu.Unlock()

	if readOnly || uid == "" || phase == PhaseReadError || phase == PhaseAuthFailed {
		return
	}
	now := time.Now().UTC()
	patch.LastUpdated = &now

	if err := s.store.Merge(s.ctx, path, patch); err != nil {
		s.logf("persist to %s failed: %v", path.String(), err)
		return
	}
	s.mirrorToShare(patch)
}

// mirrorToShare copies a successful write to the public share path while
// sharing is enabled, keeping the shared view live. The token itself is not
// mirrored.
func (s *Session) mirrorToShare(patch docstore.Patch) {
	token := s.cache.Snapshot().ShareToken
	if token == "" {
		return
	}
	sharePath := docstore.Path{
		Namespace:  s.namespace,
		App:        s.app,
		Scope:      docstore.ScopeShared,
		Collection: docCollection,
		DocID:      token,
	}
	patch.ShareToken = nil
	if patch.IsEmpty() {
		return
	}
	if err := s.store.Merge(s.ctx, sharePath, patch); err != nil {
		s.logf("mirror to %s failed: %v", sharePath.String(), err)
	}
}

func (s *Session) setPhase(phase Phase, err error) {
	s.mu.Lock()
	s.phase = phase
	s.phaseErr = err
	s.mu.Unlock()
	s.emit()
}
