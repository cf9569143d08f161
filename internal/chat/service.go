package chat

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"elifsite/internal/logger"
	"elifsite/internal/model"
	"elifsite/internal/observability"
)

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrMissingSession = errors.New("missing session id")
	ErrSuperseded     = errors.New("request superseded by a newer message")
	ErrCanceled       = errors.New("request canceled")
)

type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

// Responder produces the assistant text for one user message.
type Responder interface {
	Reply(ctx context.Context, userText string) string
}

// Archive receives a copy of every appended turn.
type Archive interface {
	Save(ctx context.Context, sessionID string, turn model.Turn) error
}

const lockStripes = 64

type flight struct {
	cancel context.CancelCauseFunc
}

// Service owns the transcripts and the Idle/Sending state of every session.
// At most one request is in flight per session: a new submission aborts the
// previous one, whose result is then dropped.
type Service struct {
	store     TranscriptStore
	responder Responder
	archive   Archive
	log       logger.Logger
	metrics   *observability.Metrics

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	inflight map[string]*flight

	// serializes transcript writes per session
	locks [lockStripes]sync.Mutex
}

type Option func(*Service)

func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store TranscriptStore, responder Responder, lggr logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		responder: responder,
		log:       lggr.Named("chat"),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		inflight:  make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(nil)
	}
	return s
}

// Open returns the transcript of sessionID, creating the session (with a
// fresh id when sessionID is empty) and its greeting when it has none.
func (s *Service) Open(ctx context.Context, sessionID string) (string, []model.Turn, error) {
	if sessionID == "" {
		sessionID = s.newID()
	}

	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	turns, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}
	if len(turns) > 0 {
		return sessionID, turns, nil
	}

	greeting := model.Turn{Speaker: model.SpeakerAssistant, Text: Greeting, At: s.now()}
	if err := s.append(ctx, sessionID, greeting); err != nil {
		return "", nil, err
	}
	s.log.Infow("session opened", "session", sessionID)
	return sessionID, []model.Turn{greeting}, nil
}

// Submit appends the user's turn, asks the responder and appends its answer.
// It returns the assistant turn, or ErrSuperseded / ErrCanceled when the
// request was aborted before it finished.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (model.Turn, error) {
	if sessionID == "" {
		return model.Turn{}, ErrMissingSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.ChatSubmissions.WithLabelValues("rejected").Inc()
		return model.Turn{}, ErrEmptyMessage
	}

	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	f := &flight{cancel: cancel}

	lock := s.lockFor(sessionID)
	lock.Lock()
	s.begin(sessionID, f)
	err := s.append(ctx, sessionID, model.Turn{Speaker: model.SpeakerUser, Text: text, At: s.now()})
	lock.Unlock()
	if err != nil {
		s.finish(sessionID, f)
		return model.Turn{}, err
	}

	s.log.Debugw("message accepted", "session", sessionID, "text", short(text))
	reply := s.responder.Reply(reqCtx, text)

	lock.Lock()
	defer lock.Unlock()
	s.finish(sessionID, f)

	if reqCtx.Err() != nil {
		if errors.Is(context.Cause(reqCtx), ErrSuperseded) {
			s.metrics.ChatSubmissions.WithLabelValues("superseded").Inc()
			s.log.Debugw("reply dropped, superseded", "session", sessionID)
			return model.Turn{}, ErrSuperseded
		}
		s.metrics.ChatSubmissions.WithLabelValues("canceled").Inc()
		s.log.Debugw("reply dropped, canceled", "session", sessionID)
		return model.Turn{}, ErrCanceled
	}

	turn := model.Turn{Speaker: model.SpeakerAssistant, Text: reply, At: s.now()}
	if err := s.append(ctx, sessionID, turn); err != nil {
		return model.Turn{}, err
	}
	s.metrics.ChatSubmissions.WithLabelValues("accepted").Inc()
	s.log.Infow("reply sent", "session", sessionID, "reply", short(reply))
	return turn, nil
}

// Cancel aborts the in-flight request of sessionID, if any.
func (s *Service) Cancel(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.inflight[sessionID]
	if !ok {
		return false
	}
	delete(s.inflight, sessionID)
	f.cancel(ErrCanceled)
	return true
}

// Close cancels any in-flight request and forgets the session.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	s.Cancel(sessionID)

	lock := s.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	s.log.Infow("session closed", "session", sessionID)
	return nil
}

func (s *Service) State(sessionID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[sessionID]; ok {
		return StateSending
	}
	return StateIdle
}

func (s *Service) Transcript(ctx context.Context, sessionID string) ([]model.Turn, error) {
	return s.store.Load(ctx, sessionID)
}

// begin makes f the session's in-flight request, aborting the previous one.
func (s *Service) begin(sessionID string, f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.inflight[sessionID]; ok {
		prev.cancel(ErrSuperseded)
	}
	s.inflight[sessionID] = f
}

// finish clears f if it is still the session's in-flight request.
func (s *Service) finish(sessionID string, f *flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[sessionID] == f {
		delete(s.inflight, sessionID)
	}
}

func (s *Service) append(ctx context.Context, sessionID string, turn model.Turn) error {
	if err := s.store.Append(ctx, sessionID, turn); err != nil {
		return err
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, sessionID, turn); err != nil {
			s.log.Warnw("archive write failed", "session", sessionID, "err", err)
		}
	}
	return nil
}

func (s *Service) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
