package checker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type runnerDeps struct {
	prober   *fakeProber
	insp     *fakeInspector
	notifier *fakeNotifier
	events   *fakeEvents
	repo     status.Repo
}

func newDeps(t *testing.T) *runnerDeps {
	return &runnerDeps{
		prober: &fakeProber{answers: map[string]probeAnswer{
			"example.com":  {code: 200},
			"good.example": {code: 200},
			"old.example":  {code: 200},
			"gone.example": {code: 500},
		}},
		insp: &fakeInspector{certs: map[string]*status.CertificateInfo{
			"example.com":  validCert(),
			"good.example": validCert(),
			"old.example":  expiredCert(),
		}},
		notifier: &fakeNotifier{},
		events:   &fakeEvents{},
		repo:     newSQLiteRepo(t),
	}
}

func (d *runnerDeps) runner(t *testing.T, opts Options) *Runner {
	ev := &Evaluator{Prober: d.prober, Inspector: d.insp, Clock: fixedClock{testNow}, CheckSSL: true, FailSafe: true}
	return NewRunner(zaptest.NewLogger(t), ev, NewReconciler(d.repo, nil), d.notifier, d.events, fixedClock{testNow}, opts)
}

func defaultOpts() Options {
	return Options{StoreResults: true, SendEmail: true, Concurrency: 1}
}

func TestRunner_SingleHealthyDomain(t *testing.T) {
	d := newDeps(t)
	rep, err := d.runner(t, defaultOpts()).Run(context.Background(), "example.com")
	require.NoError(t, err)

	s := rep.Summary
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 1, s.OKCount)
	assert.Zero(t, s.IssueCount)
	assert.Zero(t, s.ExpiredCount)
	assert.Equal(t, []string{}, s.ProblemDomains)
	assert.NotEmpty(t, s.RunID)

	require.Len(t, d.notifier.sent, 1)
	assert.Equal(t, s, d.notifier.sent[0])
	require.Len(t, d.events.published(), 1)
	assert.True(t, rep.Notified)
}

func TestRunner_UnreachableDomain(t *testing.T) {
	d := newDeps(t)
	rep, err := d.runner(t, defaultOpts()).Run(context.Background(), "good.example", "dead.invalid")
	require.NoError(t, err)

	s := rep.Summary
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.OKCount)
	assert.Equal(t, 1, s.IssueCount)
	assert.Zero(t, s.ExpiredCount)
	assert.Equal(t, []string{"dead.invalid"}, s.ProblemDomains)

	require.Len(t, rep.Results, 2)
	assert.Equal(t, status.ClassUnreachable, rep.Results[1].Classification)

	rows, err := d.repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[1].Status)
	assert.Nil(t, rows[1].SSLExpiry)
}

func TestRunner_ExpiredCertificate(t *testing.T) {
	d := newDeps(t)
	rep, err := d.runner(t, defaultOpts()).Run(context.Background(), "old.example")
	require.NoError(t, err)

	assert.Equal(t, status.ClassCertExpired, rep.Results[0].Classification)
	assert.Equal(t, 1, rep.Summary.ExpiredCount)
	assert.Zero(t, rep.Summary.OKCount)
	assert.Equal(t, []string{"old.example"}, rep.Summary.ProblemDomains)
}

func TestRunner_OrderAndCountsUnderConcurrency(t *testing.T) {
	d := newDeps(t)
	domains := []string{"gone.example", "example.com", "dead.invalid", "old.example", "good.example", "gone.example"}

	seq, err := d.runner(t, defaultOpts()).Run(context.Background(), domains...)
	require.NoError(t, err)

	opts := defaultOpts()
	opts.Concurrency = 4
	par, err := d.runner(t, opts).Run(context.Background(), domains...)
	require.NoError(t, err)

	for _, rep := range []*Report{seq, par} {
		s := rep.Summary
		assert.Equal(t, len(domains), s.Total)
		assert.Equal(t, s.Total, s.OKCount+s.IssueCount+s.ExpiredCount)
		assert.Equal(t, []string{"gone.example", "dead.invalid", "old.example", "gone.example"}, s.ProblemDomains)
		for i, r := range rep.Results {
			assert.Equal(t, i, r.Index)
			assert.Equal(t, domains[i], r.Domain)
		}
	}
	assert.Equal(t, seq.Summary.ProblemDomains, par.Summary.ProblemDomains)

	rows, err := d.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 5, "one row per distinct website")
}

func TestRunner_StorageErrorsAccumulate(t *testing.T) {
	d := newDeps(t)
	d.repo = failingRepo{Repo: d.repo, failFor: map[string]bool{"good.example": true}}

	rep, err := d.runner(t, defaultOpts()).Run(context.Background(), "example.com", "good.example", "gone.example")
	require.NoError(t, err)

	require.Len(t, rep.Summary.StorageErrors, 1)
	assert.Equal(t, "good.example", rep.Summary.StorageErrors[0].Domain)
	assert.Error(t, rep.Results[1].StoreErr)
	assert.Equal(t, status.ClassOK, rep.Results[1].Classification)
	assert.Equal(t, 3, rep.Summary.Total)
	require.Len(t, d.notifier.sent, 1)
}

func TestRunner_NotificationFailureIsReported(t *testing.T) {
	d := newDeps(t)
	d.notifier.err = errors.New("smtp down")
	d.events.err = errors.New("broker down")

	rep, err := d.runner(t, defaultOpts()).Run(context.Background(), "example.com")
	require.NoError(t, err)
	assert.False(t, rep.Notified)
	assert.EqualError(t, rep.NotifyErr, "smtp down")
	assert.EqualError(t, rep.EventErr, "broker down")
	assert.Equal(t, 1, rep.Summary.OKCount)
}

func TestRunner_Toggles(t *testing.T) {
	d := newDeps(t)
	rep, err := d.runner(t, Options{}).Run(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Empty(t, d.notifier.sent)
	assert.False(t, rep.Notified)

	rows, err := d.repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunner_TruncateBeforeRun(t *testing.T) {
	d := newDeps(t)
	opts := defaultOpts()
	_, err := d.runner(t, opts).Run(context.Background(), "example.com", "good.example", "old.example")
	require.NoError(t, err)

	opts.TruncateBeforeRun = true
	_, err = d.runner(t, opts).Run(context.Background(), "gone.example")
	require.NoError(t, err)

	rows, err := d.runner(t, opts).Results(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gone.example", rows[0].Website)
	assert.Equal(t, 500, rows[0].Status)
}

type truncateFailRepo struct{ status.Repo }

func (truncateFailRepo) Truncate(context.Context) error { return errors.New("permission denied") }

func TestRunner_TruncateFailureAbortsBatch(t *testing.T) {
	d := newDeps(t)
	opts := defaultOpts()
	opts.TruncateBeforeRun = true
	ev := &Evaluator{Prober: d.prober, Inspector: d.insp, Clock: fixedClock{testNow}}
	r := NewRunner(zaptest.NewLogger(t), ev, NewReconciler(truncateFailRepo{d.repo}, nil), d.notifier, d.events, fixedClock{testNow}, opts)

	rep, err := r.Run(context.Background(), "example.com")
	require.ErrorIs(t, err, ErrRunAborted)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Nil(t, rep)
	d.prober.mu.Lock()
	assert.Empty(t, d.prober.calls)
	d.prober.mu.Unlock()
	assert.Empty(t, d.notifier.sent)
	assert.Empty(t, d.events.published())
}

func TestRunner_EmptyBatch(t *testing.T) {
	d := newDeps(t)
	rep, err := d.runner(t, defaultOpts()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Summary.Total)
	assert.Equal(t, []string{}, rep.Summary.ProblemDomains)
	require.Len(t, d.notifier.sent, 1)
}

// blockingProber cancels the batch while the second domain is probed.
type blockingProber struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	n      int
}

func (p *blockingProber) Probe(context.Context, string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	if p.n == 2 {
		p.cancel()
	}
	return 200, nil
}

func TestRunner_CancelStopsBetweenDomains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newDeps(t)
	bp := &blockingProber{cancel: cancel}
	ev := &Evaluator{Prober: bp, Clock: fixedClock{testNow}}
	r := NewRunner(zaptest.NewLogger(t), ev, NewReconciler(d.repo, nil), d.notifier, nil, fixedClock{testNow}, defaultOpts())

	domains := make([]string, 10)
	for i := range domains {
		domains[i] = fmt.Sprintf("d%d.example", i)
	}
	rep, err := r.Run(ctx, domains...)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Equal(t, 1, rep.Summary.Total)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, "d0.example", rep.Results[0].Domain)
	assert.Empty(t, d.notifier.sent)

	rows, err := d.repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1, "the domain in flight at cancel is not stored")
	assert.Equal(t, "d0.example", rows[0].Website)
}

type slowProber struct{ delay time.Duration }

func (p slowProber) Probe(context.Context, string) (int, error) {
	time.Sleep(p.delay)
	return 200, nil
}

func TestRunner_BatchTimeout(t *testing.T) {
	d := newDeps(t)
	ev := &Evaluator{Prober: slowProber{delay: 100 * time.Millisecond}, Clock: fixedClock{testNow}}
	opts := defaultOpts()
	opts.StoreResults = false
	opts.BatchTimeout = 30 * time.Millisecond
	r := NewRunner(zaptest.NewLogger(t), ev, nil, d.notifier, nil, fixedClock{testNow}, opts)

	rep, err := r.Run(context.Background(), "a.example", "b.example", "c.example")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, rep.Summary.Total, "a probe outlived by the deadline is no verdict")
	assert.Empty(t, d.notifier.sent)
}

func TestRunner_DeadlineDuringSlowResponse(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(200 * time.Millisecond):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	repo := newSQLiteRepo(t)
	notifier := &fakeNotifier{}
	ev := &Evaluator{
		Prober: HTTPProber{Client: NewHTTPClient(HTTPConfig{ConnectTimeout: time.Second, RequestTimeout: 5 * time.Second})},
		Clock:  fixedClock{testNow},
	}
	opts := defaultOpts()
	opts.BatchTimeout = 50 * time.Millisecond
	r := NewRunner(zaptest.NewLogger(t), ev, NewReconciler(repo, nil), notifier, nil, fixedClock{testNow}, opts)

	rep, err := r.Run(context.Background(), srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, rep)
	assert.Zero(t, rep.Summary.Total)
	assert.Zero(t, rep.Summary.IssueCount)
	assert.Empty(t, rep.Summary.ProblemDomains)
	assert.Empty(t, rep.Summary.StorageErrors)
	assert.Empty(t, notifier.sent)

	rows, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunner_ResultsWithoutStore(t *testing.T) {
	r := NewRunner(nil, &Evaluator{Prober: &fakeProber{}}, nil, nil, nil, nil, Options{})
	_, err := r.Results(context.Background())
	assert.ErrorIs(t, err, ErrStoreDisabled)
}
