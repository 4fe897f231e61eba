package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/bryanwahyu/greenscan/internal/application"
	domain "github.com/bryanwahyu/greenscan/internal/domain/analysis"
	"github.com/bryanwahyu/greenscan/internal/domain/history"
	"github.com/bryanwahyu/greenscan/internal/logging"
)

const (
	defaultTimeout = 60 * time.Second
	keepTimeout    = 30 * time.Second
	defaultIdleTTL = time.Hour
)

// Observer is told when analyses start and settle
type Observer interface {
	Started()
	Settled(state domain.State)
}

// Service runs analyses and keeps the result panel state of every user.
// It is safe for concurrent use; each user has at most one analysis in flight.
type Service struct {
	Analyzer domain.Analyzer
	Archive  domain.Archive     // optional
	History  history.Repository // optional, set when results are recorded locally
	Observer Observer           // optional
	Clock    application.Clock
	Timeout  time.Duration
	IdleTTL  time.Duration // settled sessions older than this are dropped by Prune

	mu       sync.Mutex
	sessions map[string]*session
	wg       sync.WaitGroup
}

type session struct {
	state domain.State
	done  chan struct{}
}

func NewService(analyzer domain.Analyzer, clock application.Clock, timeout time.Duration) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		Analyzer: analyzer,
		Clock:    clock,
		Timeout:  timeout,
		IdleTTL:  defaultIdleTTL,
		sessions: make(map[string]*session),
	}
}

// Submit validates req, moves the user to Loading and starts the webhook call
// in the background. The previous report is dropped before the call starts.
func (s *Service) Submit(ctx context.Context, req domain.Request) (domain.State, error) {
	if req.UserID == "" {
		return domain.State{}, goerr.Wrap(domain.ErrUnauthenticated, "no user for analysis")
	}
	if errs := req.Validate(); errs != nil {
		return domain.State{}, goerr.Wrap(errs, domain.ErrInvalidInput.Error(),
			goerr.V("fields", map[string]string(errs)))
	}

	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = make(map[string]*session)
	}
	sess, ok := s.sessions[req.UserID]
	if ok && sess.state.Loading() {
		s.mu.Unlock()
		return sess.state, goerr.Wrap(domain.ErrInProgress, "analysis already running",
			goerr.V("user_id", req.UserID), goerr.V("analysis_id", sess.state.ID))
	}

	r := req
	state := domain.State{
		ID:        uuid.New().String(),
		Phase:     domain.PhaseLoading,
		Request:   &r,
		StartedAt: s.Clock.Now(),
	}
	sess = &session{state: state, done: make(chan struct{})}
	s.sessions[req.UserID] = sess
	s.wg.Add(1)
	s.mu.Unlock()

	if s.Observer != nil {
		s.Observer.Started()
	}

	// jalankan di background, request context tidak dipakai supaya tidak ikut cancel
	go s.run(sess, req)

	logging.From(ctx).Info("analysis started",
		"analysis_id", state.ID, "user_id", req.UserID, "product", req.Product)
	return state, nil
}

// Analyze submits req and waits for it to settle
func (s *Service) Analyze(ctx context.Context, req domain.Request) (domain.State, error) {
	if _, err := s.Submit(ctx, req); err != nil {
		return domain.State{}, err
	}
	return s.Wait(ctx, req.UserID)
}

// State returns the current panel state of the user; Idle when nothing was submitted
func (s *Service) State(userID string) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.state
	}
	return domain.State{Phase: domain.PhaseIdle}
}

// Wait blocks until the user's current analysis settles or ctx is done
func (s *Service) Wait(ctx context.Context, userID string) (domain.State, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return domain.State{Phase: domain.PhaseIdle}, nil
	}

	select {
	case <-sess.done:
		return s.State(userID), nil
	case <-ctx.Done():
		return s.State(userID), ctx.Err()
	}
}

// Flush waits for background analyses and their archive writes to finish
func (s *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "background analyses still running")
	}
}

// Prune drops settled sessions that have been idle longer than IdleTTL.
// Those users see the Idle panel again. It returns the number removed.
func (s *Service) Prune(now time.Time) int {
	ttl := s.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for user, sess := range s.sessions {
		if sess.state.Loading() {
			continue
		}
		if now.Sub(sess.state.SettledAt) > ttl {
			delete(s.sessions, user)
			n++
		}
	}
	return n
}

// Cleanup calls Prune every interval until ctx is done
func (s *Service) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(s.Clock.Now()); n > 0 {
				logging.Default().Debug("pruned idle analysis sessions", "count", n)
			}
		}
	}
}

func (s *Service) run(sess *session, req domain.Request) {
	defer s.wg.Done()

	id := sess.state.ID
	logger := logging.Default().With("analysis_id", id, "user_id", req.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	report, err := s.Analyzer.Analyze(ctx, req)
	cancel()
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransport) {
		err = goerr.Wrap(domain.ErrTransport, "analysis timed out", goerr.V("timeout", s.Timeout.String()))
	}

	s.mu.Lock()
	st := sess.state
	st.SettledAt = s.Clock.Now()
	if err != nil {
		logger.Error("analysis failed", "error", err)
		st.Phase = domain.PhaseFailed
		st.Reason = domain.FailureReason(err)
	} else {
		st.Phase = domain.PhaseSucceeded
		st.Report = report
		logger.Info("analysis finished", "entries", len(report),
			"duration", st.SettledAt.Sub(st.StartedAt).String())
	}
	sess.state = st
	close(sess.done)
	s.mu.Unlock()

	if s.Observer != nil {
		s.Observer.Settled(st)
	}

	if err == nil {
		kctx, kcancel := context.WithTimeout(context.Background(), keepTimeout)
		defer kcancel()
		s.keep(kctx, logger, req, id, report)
	}
}

// keep archives and records a successful report after the user already has
// it. Failures here are logged only.
func (s *Service) keep(ctx context.Context, logger *slog.Logger, req domain.Request, id string, report domain.Report) {
	if s.Archive != nil {
		url, err := s.Archive.Store(ctx, req.UserID, id, report)
		if err != nil {
			logger.Warn("failed to archive report", "error", err)
		} else {
			logger.Info("report archived", "url", url)
		}
	}
	if s.History != nil {
		for _, env := range report {
			rec, err := history.FromResult(req, env.Output)
			if err != nil {
				logger.Warn("failed to build history record", "error", err)
				continue
			}
			if err := s.History.Save(ctx, rec); err != nil {
				logger.Warn("failed to save history record", "error", err)
			}
		}
	}
}
