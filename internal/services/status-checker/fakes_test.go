package checker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"github.com/NordCoder/SiteStatus/internal/repository/sqlite"
	"github.com/stretchr/testify/require"
)

var errDNS = errors.New("dial tcp: lookup dead.invalid: no such host")

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type probeAnswer struct {
	code int
	err  error
}

type fakeProber struct {
	mu      sync.Mutex
	answers map[string]probeAnswer
	calls   []string
}

func (p *fakeProber) Probe(_ context.Context, url string) (int, error) {
	p.mu.Lock()
	p.calls = append(p.calls, url)
	p.mu.Unlock()
	a, ok := p.answers[url]
	if !ok {
		return 0, errDNS
	}
	return a.code, a.err
}

type fakeInspector struct {
	certs map[string]*status.CertificateInfo
	err   error
	calls atomic.Int32
}

func (i *fakeInspector) Inspect(_ context.Context, url string) (*status.CertificateInfo, error) {
	i.calls.Add(1)
	if i.err != nil {
		return nil, i.err
	}
	c, ok := i.certs[url]
	if !ok {
		return nil, ErrNoCertificate
	}
	return c, nil
}

func validCert() *status.CertificateInfo {
	return &status.CertificateInfo{Subject: "example.com", Issuer: "Test CA", ValidTo: testNow.AddDate(0, 3, 0)}
}

func expiredCert() *status.CertificateInfo {
	return &status.CertificateInfo{Subject: "old.example", Issuer: "Test CA", ValidTo: testNow.AddDate(0, 0, -1)}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []status.RunSummary
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, s status.RunSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, s)
	return n.err
}

type fakeEvents struct {
	mu  sync.Mutex
	got []status.RunSummary
	err error
}

func (e *fakeEvents) PublishRunCompleted(_ context.Context, s status.RunSummary) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, s)
	return e.err
}

func (e *fakeEvents) published() []status.RunSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]status.RunSummary(nil), e.got...)
}

func newSQLiteRepo(t *testing.T) *sqlite.StatusRepo {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "status.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewStatusRepo(db, "")
}

// failingRepo wraps a Repo and fails writes for selected websites.
type failingRepo struct {
	status.Repo
	failFor map[string]bool
}

func (r failingRepo) Insert(ctx context.Context, row *status.Row) error {
	if r.failFor[row.Website] {
		return errors.New("disk full")
	}
	return r.Repo.Insert(ctx, row)
}

func (r failingRepo) Update(ctx context.Context, row *status.Row) error {
	if r.failFor[row.Website] {
		return errors.New("disk full")
	}
	return r.Repo.Update(ctx, row)
}
