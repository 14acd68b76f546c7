package exam

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoQuestions       = errors.New("lesson has no questions")
	ErrSessionNotFound   = errors.New("quiz session not found")
	ErrAlreadySubmitting = errors.New("quiz is already being submitted")
	ErrSessionClosed     = errors.New("quiz session is closed")
	ErrUnknownQuestion   = errors.New("question is not part of this quiz")
)

type SessionState string

const (
	SessionInProgress SessionState = "in_progress"
	SessionSubmitting SessionState = "submitting"
	SessionSubmitted  SessionState = "submitted"
)

// Session is one student's run through a lesson quiz. Values handed out by
// the registry are copies.
type Session struct {
	ID        string         `json:"id"`
	Student   User           `json:"student"`
	Lesson    Lesson         `json:"lesson"`
	Questions []Question     `json:"questions"`
	Answers   map[int]string `json:"answers"`
	StartedAt time.Time      `json:"started_at"`
	Remaining time.Duration  `json:"remaining"`
	State     SessionState   `json:"state"`
}

func (s Session) clone() Session {
	answers := make(map[int]string, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	s.Answers = answers
	s.Questions = append([]Question(nil), s.Questions...)
	return s
}

func (s Session) question(id int) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// ExpireFunc is called, outside the registry lock, when a session's
// countdown reaches zero.
type ExpireFunc func(sessionID string)

type entry struct {
	s    Session
	stop chan struct{}
}

// Registry keeps quiz sessions in memory and runs their countdowns.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	tick     time.Duration
	now      func() time.Time
	onExpire ExpireFunc
}

type RegistryOption func(*Registry)

// WithTick changes the countdown step (one second by default).
func WithTick(d time.Duration) RegistryOption { return func(r *Registry) { r.tick = d } }

func WithClock(now func() time.Time) RegistryOption { return func(r *Registry) { r.now = now } }

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: map[string]*entry{},
		tick:     time.Second,
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnExpire installs the auto-submit hook.
func (r *Registry) OnExpire(f ExpireFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpire = f
}

// DrawQuestions shuffles the pool and keeps at most limit questions
// (limit <= 0 keeps them all).
func DrawQuestions(pool []Question, limit int, rng *rand.Rand) []Question {
	out := append([]Question(nil), pool...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Start opens a session over an already drawn question list and starts its
// countdown. An empty list is refused.
func (r *Registry) Start(student User, lesson Lesson, questions []Question) (Session, error) {
	if len(questions) == 0 {
		return Session{}, ErrNoQuestions
	}
	s := Session{
		ID:        uuid.NewString(),
		Student:   student,
		Lesson:    lesson,
		Questions: append([]Question(nil), questions...),
		Answers:   map[int]string{},
		StartedAt: r.now(),
		Remaining: lesson.TimeLimit(len(questions)),
		State:     SessionInProgress,
	}
	e := &entry{s: s, stop: make(chan struct{})}

	r.mu.Lock()
	r.sessions[s.ID] = e
	r.mu.Unlock()

	go r.countdown(s.ID, e.stop)
	return s.clone(), nil
}

func (r *Registry) countdown(id string, stop <-chan struct{}) {
	t := time.NewTicker(r.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			r.mu.Lock()
			e, ok := r.sessions[id]
			if !ok || e.s.State != SessionInProgress {
				r.mu.Unlock()
				return
			}
			e.s.Remaining -= r.tick
			expired := e.s.Remaining <= 0
			if expired {
				e.s.Remaining = 0
			}
			hook := r.onExpire
			r.mu.Unlock()
			if expired {
				if hook != nil {
					hook(id)
				}
				return
			}
		}
	}
}

func (r *Registry) Get(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return e.s.clone(), nil
}

// Answer replaces the answer for a question.
func (r *Registry) Answer(id string, questionID int, value string) (Session, error) {
	return r.update(id, questionID, func(_ Question, _ string) string { return value })
}

// Toggle flips one option letter. Multi-choice answers keep a sorted
// ", "-joined set; other types take the letter as the whole answer.
func (r *Registry) Toggle(id string, questionID int, option string) (Session, error) {
	option = strings.ToUpper(strings.TrimSpace(option))
	return r.update(id, questionID, func(q Question, current string) string {
		if q.Type != ChooseMultiple {
			return option
		}
		selected := make([]string, 0, 4)
		found := false
		for _, p := range strings.Split(current, ",") {
			p = strings.TrimSpace(p)
			switch {
			case p == "":
			case p == option:
				found = true
			default:
				selected = append(selected, p)
			}
		}
		if !found {
			selected = append(selected, option)
		}
		sort.Strings(selected)
		return strings.Join(selected, ", ")
	})
}

func (r *Registry) update(id string, questionID int, f func(Question, string) string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if e.s.State != SessionInProgress {
		return Session{}, ErrSessionClosed
	}
	q, ok := e.s.question(questionID)
	if !ok {
		return Session{}, ErrUnknownQuestion
	}
	e.s.Answers[questionID] = f(q, e.s.Answers[questionID])
	return e.s.clone(), nil
}

// BeginSubmit takes the submit guard and stops the countdown. A second
// call while the first is in flight, or after it finished, fails.
func (r *Registry) BeginSubmit(id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	switch e.s.State {
	case SessionSubmitting:
		return Session{}, ErrAlreadySubmitting
	case SessionSubmitted:
		return Session{}, ErrSessionClosed
	}
	e.s.State = SessionSubmitting
	close(e.stop)
	return e.s.clone(), nil
}

// Finish marks a submitting session as done.
func (r *Registry) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.s.State = SessionSubmitted
	}
}

// Cancel drops a session that is still in progress.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if e.s.State != SessionInProgress {
		return ErrSessionClosed
	}
	close(e.stop)
	delete(r.sessions, id)
	return nil
}

// Forget removes a finished session.
func (r *Registry) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok && e.s.State == SessionSubmitted {
		delete(r.sessions, id)
	}
}
