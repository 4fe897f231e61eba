package analysis_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	appanalysis "github.com/bryanwahyu/greenscan/internal/application/analysis"
	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
	"github.com/bryanwahyu/greenscan/internal/domain/history"
)

// mockAnalyzer answers with analyzeFunc, or waits for release when it is set
type mockAnalyzer struct {
	calls       atomic.Int32
	release     chan struct{}
	analyzeFunc func(ctx context.Context, req analysis.Request) (analysis.Report, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, req analysis.Request) (analysis.Report, error) {
	m.calls.Add(1)
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

type mockHistory struct {
	mu    sync.Mutex
	saved []*history.Record
}

func (m *mockHistory) Save(_ context.Context, r *history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return nil
}

func (m *mockHistory) ListByUser(context.Context, string, int, int) ([]*history.Record, error) {
	return nil, nil
}

// mockArchive counts stored reports, waiting for release first when it is set
type mockArchive struct {
	keys    atomic.Int32
	release chan struct{}
}

func (m *mockArchive) Store(ctx context.Context, _, _ string, _ analysis.Report) (string, error) {
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	m.keys.Add(1)
	return "http://minio/reports/x.json", nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingObserver struct {
	started, settled atomic.Int32
}

func (o *countingObserver) Started()              { o.started.Add(1) }
func (o *countingObserver) Settled(analysis.State) { o.settled.Add(1) }

func validRequest(user string) analysis.Request {
	req := analysis.DefaultRequest()
	req.UserID = user
	return req
}

func reportWithScore(score string) analysis.Report {
	return analysis.Report{{Output: analysis.Result{SustainabilityScore: score}}}
}

func TestSubmitSucceeds(t *testing.T) {
	ctx := context.Background()
	mock := &mockAnalyzer{
		release: make(chan struct{}),
		analyzeFunc: func(_ context.Context, req analysis.Request) (analysis.Report, error) {
			return reportWithScore("High"), nil
		},
	}
	obs := &countingObserver{}
	svc := appanalysis.NewService(mock, nil, time.Second)
	svc.Observer = obs

	gt.Equal(t, svc.State("u1").Phase, analysis.PhaseIdle)

	state, err := svc.Submit(ctx, validRequest("u1"))
	gt.NoError(t, err)
	gt.Equal(t, state.Phase, analysis.PhaseLoading)
	gt.True(t, svc.State("u1").Loading())
	gt.Equal(t, svc.State("u1").Request.Product, "Oats")

	close(mock.release)
	final, err := svc.Wait(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, final.Phase, analysis.PhaseSucceeded)
	gt.A(t, final.Report).Length(1)
	gt.Equal(t, final.Report[0].Output.SustainabilityScore, "High")
	gt.Equal(t, final.Reason, "")
	gt.Equal(t, obs.started.Load(), int32(1))
	gt.Equal(t, obs.settled.Load(), int32(1))
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	mock := &mockAnalyzer{}
	svc := appanalysis.NewService(mock, nil, time.Second)

	req := validRequest("u1")
	req.Brand = "Q"
	_, err := svc.Submit(context.Background(), req)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, analysis.ErrInvalidInput))

	var fields analysis.FieldErrors
	gt.True(t, errors.As(err, &fields))
	gt.Equal(t, fields[analysis.FieldBrand], "Brand name must be at least 2 characters.")

	gt.Equal(t, mock.calls.Load(), int32(0))
	gt.Equal(t, svc.State("u1").Phase, analysis.PhaseIdle)
}

func TestSubmitRequiresUser(t *testing.T) {
	mock := &mockAnalyzer{}
	svc := appanalysis.NewService(mock, nil, time.Second)

	_, err := svc.Submit(context.Background(), validRequest(""))
	gt.True(t, errors.Is(err, analysis.ErrUnauthenticated))
	gt.Equal(t, mock.calls.Load(), int32(0))
}

func TestSubmitWhileLoading(t *testing.T) {
	mock := &mockAnalyzer{
		release: make(chan struct{}),
		analyzeFunc: func(context.Context, analysis.Request) (analysis.Report, error) {
			return reportWithScore("Low"), nil
		},
	}
	svc := appanalysis.NewService(mock, nil, time.Second)
	ctx := context.Background()

	first, err := svc.Submit(ctx, validRequest("u1"))
	gt.NoError(t, err)

	state, err := svc.Submit(ctx, validRequest("u1"))
	gt.True(t, errors.Is(err, analysis.ErrInProgress))
	gt.Equal(t, state.ID, first.ID)

	// another user is not blocked
	_, err = svc.Submit(ctx, validRequest("u2"))
	gt.NoError(t, err)

	close(mock.release)
	_, err = svc.Wait(ctx, "u1")
	gt.NoError(t, err)
	_, err = svc.Wait(ctx, "u2")
	gt.NoError(t, err)
	gt.Equal(t, mock.calls.Load(), int32(2))
}

func TestSecondSubmitClearsPreviousReport(t *testing.T) {
	var n atomic.Int32
	release := make(chan struct{}, 2)
	mock := &mockAnalyzer{
		analyzeFunc: func(ctx context.Context, req analysis.Request) (analysis.Report, error) {
			if n.Add(1) == 1 {
				return reportWithScore("High"), nil
			}
			<-release
			return reportWithScore("Low"), nil
		},
	}
	svc := appanalysis.NewService(mock, nil, time.Second)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, validRequest("u1"))
	gt.NoError(t, err)
	gt.Equal(t, svc.State("u1").Report[0].Output.SustainabilityScore, "High")

	_, err = svc.Submit(ctx, validRequest("u1"))
	gt.NoError(t, err)
	loading := svc.State("u1")
	gt.True(t, loading.Loading())
	gt.A(t, loading.Report).Length(0)

	release <- struct{}{}
	final, err := svc.Wait(ctx, "u1")
	gt.NoError(t, err)
	gt.Equal(t, final.Report[0].Output.SustainabilityScore, "Low")
}

func TestAnalyzeFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"upstream status", goerr.Wrap(analysis.ErrUpstreamStatus, "status 500"), "returned an error"},
		{"malformed", goerr.Wrap(analysis.ErrMalformedResponse, "html"), "could not read"},
		{"transport", goerr.Wrap(analysis.ErrTransport, "dial"), "could not be reached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAnalyzer{
				analyzeFunc: func(context.Context, analysis.Request) (analysis.Report, error) {
					return nil, tt.err
				},
			}
			hist := &mockHistory{}
			svc := appanalysis.NewService(mock, nil, time.Second)
			svc.History = hist

			state, err := svc.Analyze(context.Background(), validRequest("u1"))
			gt.NoError(t, err)
			gt.Equal(t, state.Phase, analysis.PhaseFailed)
			gt.S(t, state.Reason).Contains(tt.reason)
			gt.A(t, state.Report).Length(0)
			gt.A(t, hist.saved).Length(0)
		})
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	mock := &mockAnalyzer{release: make(chan struct{})}
	svc := appanalysis.NewService(mock, nil, 20*time.Millisecond)

	state, err := svc.Analyze(context.Background(), validRequest("u1"))
	gt.NoError(t, err)
	gt.Equal(t, state.Phase, analysis.PhaseFailed)
	gt.S(t, state.Reason).Contains("took too long")
}

func TestAnalyzeEmptyReportSucceeds(t *testing.T) {
	mock := &mockAnalyzer{
		analyzeFunc: func(context.Context, analysis.Request) (analysis.Report, error) {
			return analysis.Report{}, nil
		},
	}
	svc := appanalysis.NewService(mock, nil, time.Second)

	state, err := svc.Analyze(context.Background(), validRequest("u1"))
	gt.NoError(t, err)
	gt.Equal(t, state.Phase, analysis.PhaseSucceeded)
	gt.A(t, state.Report).Length(0)
}

func TestAnalyzeKeepsReport(t *testing.T) {
	mock := &mockAnalyzer{
		analyzeFunc: func(context.Context, analysis.Request) (analysis.Report, error) {
			return reportWithScore("Medium"), nil
		},
	}
	hist := &mockHistory{}
	archive := &mockArchive{}
	svc := appanalysis.NewService(mock, nil, time.Second)
	svc.History = hist
	svc.Archive = archive

	_, err := svc.Analyze(context.Background(), validRequest("u1"))
	gt.NoError(t, err)
	gt.NoError(t, svc.Flush(context.Background()))
	gt.A(t, hist.saved).Length(1)
	gt.Equal(t, hist.saved[0].UserID, "u1")
	gt.Equal(t, hist.saved[0].SustainabilityScore, "Medium")
	gt.Equal(t, hist.saved[0].Packaging, "Plastic-lined cardboard box")
	gt.Equal(t, archive.keys.Load(), int32(1))
}

func TestWaitWithoutSubmit(t *testing.T) {
	svc := appanalysis.NewService(&mockAnalyzer{}, nil, time.Second)
	state, err := svc.Wait(context.Background(), "nobody")
	gt.NoError(t, err)
	gt.Equal(t, state.Phase, analysis.PhaseIdle)
}

func TestWaitContextDone(t *testing.T) {
	mock := &mockAnalyzer{release: make(chan struct{})}
	defer close(mock.release)
	svc := appanalysis.NewService(mock, nil, time.Second)

	_, err := svc.Submit(context.Background(), validRequest("u1"))
	gt.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	state, err := svc.Wait(ctx, "u1")
	gt.True(t, errors.Is(err, context.DeadlineExceeded))
	gt.True(t, state.Loading())
}

func TestSucceedsBeforeArchiveReturns(t *testing.T) {
	mock := &mockAnalyzer{
		analyzeFunc: func(context.Context, analysis.Request) (analysis.Report, error) {
			return reportWithScore("High"), nil
		},
	}
	archive := &mockArchive{release: make(chan struct{})}
	obs := &countingObserver{}
	svc := appanalysis.NewService(mock, nil, time.Second)
	svc.Archive = archive
	svc.Observer = obs

	state, err := svc.Analyze(context.Background(), validRequest("u1"))
	gt.NoError(t, err)
	gt.Equal(t, state.Phase, analysis.PhaseSucceeded)
	gt.Equal(t, state.Report[0].Output.SustainabilityScore, "High")
	gt.Equal(t, obs.settled.Load(), int32(1))
	gt.Equal(t, archive.keys.Load(), int32(0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	gt.Error(t, svc.Flush(ctx))

	close(archive.release)
	gt.NoError(t, svc.Flush(context.Background()))
	gt.Equal(t, archive.keys.Load(), int32(1))
}

func TestPruneDropsIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	mock := &mockAnalyzer{
		analyzeFunc: func(context.Context, analysis.Request) (analysis.Report, error) {
			return reportWithScore("Low"), nil
		},
	}
	svc := appanalysis.NewService(mock, clock, time.Second)
	svc.IdleTTL = time.Hour
	ctx := context.Background()

	_, err := svc.Analyze(ctx, validRequest("old"))
	gt.NoError(t, err)

	clock.Advance(30 * time.Minute)
	_, err = svc.Analyze(ctx, validRequest("recent"))
	gt.NoError(t, err)

	gt.Equal(t, svc.Prune(clock.Now()), 0)

	clock.Advance(45 * time.Minute)
	gt.Equal(t, svc.Prune(clock.Now()), 1)
	gt.Equal(t, svc.State("old").Phase, analysis.PhaseIdle)
	gt.Equal(t, svc.State("recent").Phase, analysis.PhaseSucceeded)
}

func TestPruneKeepsLoadingSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	mock := &mockAnalyzer{release: make(chan struct{})}
	defer close(mock.release)
	svc := appanalysis.NewService(mock, clock, time.Second)
	svc.IdleTTL = time.Minute

	_, err := svc.Submit(context.Background(), validRequest("u1"))
	gt.NoError(t, err)

	clock.Advance(time.Hour)
	gt.Equal(t, svc.Prune(clock.Now()), 0)
	gt.True(t, svc.State("u1").Loading())
}
