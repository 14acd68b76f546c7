// Package app is the gateway: it holds the current snapshot of the remote
// store and answers every query and command of the HTTP layer from it.
package app

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	auth "github.com/CamHV12/edupulse/internal/auth/middleware"
	"github.com/CamHV12/edupulse/internal/exam"
	"github.com/CamHV12/edupulse/internal/notify"
	"github.com/CamHV12/edupulse/internal/store"
	syncx "github.com/CamHV12/edupulse/internal/sync"
)

var (
	ErrMaintenance     = errors.New("hệ thống đang bảo trì")
	ErrNotLoaded       = errors.New("data has not been loaded from the store yet")
	ErrAccountDisabled = errors.New("tài khoản đã bị khóa")
	ErrNotOwner        = errors.New("quiz session belongs to another user")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrResultNotFound  = errors.New("result not found")
	ErrRowNotFound     = errors.New("roster row not found")
	ErrNotRemindable   = errors.New("student already reached the target")
)

type Options struct {
	Store      exam.Store
	Syncer     *syncx.Syncer
	Events     *syncx.EventRepo   // optional
	Reminders  *notify.Dispatcher // optional
	LocalAdmin auth.LocalAdmin
	Sessions   *exam.Registry
	Log        *slog.Logger
	// StoreTimeout bounds the background calls made outside a request.
	StoreTimeout time.Duration
	Now          func() time.Time
	Rand         *rand.Rand
}

type Service struct {
	store     exam.Store
	syncer    *syncx.Syncer
	events    *syncx.EventRepo
	reminders *notify.Dispatcher
	admin     auth.LocalAdmin
	sessions  *exam.Registry
	log       *slog.Logger
	timeout   time.Duration
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.RWMutex
	snap   exam.Snapshot
	loaded bool
	// unsynced holds local results the store has not taken yet; they are
	// carried over every refresh until the store lists them.
	unsynced map[string]exam.Result

	subMu       sync.Mutex
	submissions map[string]Submission // by session id

	// bgMu orders bg.Add against bg.Wait: background work may start from
	// timer goroutines.
	bgMu sync.Mutex
	bg   sync.WaitGroup
}

func New(o Options) *Service {
	s := &Service{
		store:       o.Store,
		syncer:      o.Syncer,
		events:      o.Events,
		reminders:   o.Reminders,
		admin:       o.LocalAdmin,
		sessions:    o.Sessions,
		log:         o.Log,
		timeout:     o.StoreTimeout,
		now:         o.Now,
		rng:         o.Rand,
		unsynced:    map[string]exam.Result{},
		submissions: map[string]Submission{},
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.sessions == nil {
		s.sessions = exam.NewRegistry()
	}
	if s.syncer == nil {
		s.syncer = syncx.New(nopJournal{}, o.Store, nil, s.log)
	}
	if s.timeout <= 0 {
		s.timeout = 15 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.sessions.OnExpire(s.autoSubmit)
	return s
}

// Refresh replaces the snapshot with a fresh copy from the store. Local
// results the store has not taken are appended again. On failure the
// previous snapshot stays in place.
func (s *Service) Refresh(ctx context.Context) error {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		s.log.Error("loading snapshot", "err", err)
		return errors.Wrap(err, "refresh snapshot")
	}
	s.mu.Lock()
	for id, r := range s.unsynced {
		if _, ok := snap.Result(id); ok {
			delete(s.unsynced, id)
			continue
		}
		snap = snap.WithResult(r)
	}
	kept := len(s.unsynced)
	s.snap, s.loaded = snap, true
	s.mu.Unlock()
	s.log.Info("snapshot loaded",
		"users", len(snap.Users), "subjects", len(snap.Subjects), "lessons", len(snap.Lessons),
		"questions", len(snap.Questions), "results", len(snap.Results), "unsynced", kept,
		"maintenance", snap.Maintenance)
	return nil
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *Service) Snapshot() (exam.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return exam.Snapshot{}, ErrNotLoaded
	}
	return s.snap, nil
}

func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Service) Maintenance() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Maintenance
}

// FindUser looks an account up in the current snapshot.
func (s *Service) FindUser(account string) (exam.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.snap.Users {
		if u.Account == account {
			return u, true
		}
	}
	return exam.User{}, false
}

// appendResult adds a local result to the snapshot. It counts as unsynced
// until markSynced.
func (s *Service) appendResult(r exam.Result) {
	s.mu.Lock()
	s.snap = s.snap.WithResult(r)
	s.unsynced[r.ID] = r
	s.mu.Unlock()
}

func (s *Service) markSynced(id string) {
	s.mu.Lock()
	delete(s.unsynced, id)
	s.mu.Unlock()
}

// loginRefusal is a login the caller should see verbatim.
type loginRefusal struct {
	code int
	msg  string
	err  error
}

func (e *loginRefusal) Error() string { return e.err.Error() }
func (e *loginRefusal) Unwrap() error { return e.err }
func (e *loginRefusal) LoginStatus() (int, string) { return e.code, e.msg }

// Authenticate tries the local admin first, then the store. While the
// store is in maintenance only the local admin gets in.
func (s *Service) Authenticate(ctx context.Context, account, password string) (exam.User, error) {
	if u, ok := s.admin.Check(account, password); ok {
		s.log.Info("local admin login", "account", account)
		return u, nil
	}
	if s.Maintenance() {
		return exam.User{}, &loginRefusal{code: http.StatusServiceUnavailable, msg: ErrMaintenance.Error(), err: ErrMaintenance}
	}
	u, err := s.store.Login(ctx, account, password)
	if err != nil {
		var refused *store.Refusal
		if errors.As(err, &refused) {
			return exam.User{}, &loginRefusal{code: http.StatusUnauthorized, msg: refused.Message, err: err}
		}
		s.log.Error("store login", "account", account, "err", err)
		return exam.User{}, errors.Wrap(err, "login")
	}
	if !u.Active {
		return exam.User{}, &loginRefusal{code: http.StatusForbidden, msg: ErrAccountDisabled.Error(), err: ErrAccountDisabled}
	}
	return u, nil
}

// Logout tells the store in the background; the caller never waits.
func (s *Service) Logout(u exam.User) {
	if u.Name == "" || (u.Role == exam.RoleAdmin && u.Account == s.admin.User) {
		return
	}
	s.background(func(ctx context.Context) {
		if err := s.store.Logout(ctx, u.Name); err != nil {
			s.log.Warn("logout beacon", "name", u.Name, "err", err)
		}
	})
}

func (s *Service) background(f func(ctx context.Context)) {
	s.bgMu.Lock()
	s.bg.Add(1)
	s.bgMu.Unlock()
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		f(ctx)
	}()
}

// Wait blocks until background calls and reminder sends finish.
func (s *Service) Wait() {
	s.bgMu.Lock()
	s.bg.Wait()
	s.bgMu.Unlock()
	if s.reminders != nil {
		s.reminders.Wait()
	}
}

// nopJournal backs a syncer when no journal database is configured.
type nopJournal struct{}

func (nopJournal) MarkPending(context.Context, exam.Result) error { return nil }
func (nopJournal) MarkOK(context.Context, string) error { return nil }
func (nopJournal) MarkFailed(context.Context, string, string) error { return nil }
func (nopJournal) ListFailed(context.Context) ([]syncx.Entry, error) { return []syncx.Entry{}, nil }
