package status

import (
	"time"
)

type Classification string

const (
	ClassOK          Classification = "ok"
	ClassHTTPIssue   Classification = "http-issue"
	ClassCertExpired Classification = "cert-expired"
	ClassUnreachable Classification = "unreachable"
)

// Problem reports whether the classification puts a domain on the problem list.
func (c Classification) Problem() bool {
	return c != ClassOK
}

// CertificateInfo is the parsed leaf certificate of a host.
type CertificateInfo struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"not_before"`
	ValidTo   time.Time `json:"valid_to"`
	DNSNames  []string  `json:"dns_names"`
}

// Expired reports whether the certificate is no longer valid at now.
func (c CertificateInfo) Expired(now time.Time) bool {
	return !c.ValidTo.After(now)
}

// CheckResult is the outcome of one domain evaluation within a run.
// HTTPStatus is nil when the probe produced no response, Certificate is nil
// when inspection was skipped or failed.
type CheckResult struct {
	Index          int              `json:"index"`
	Domain         string           `json:"domain"`
	HTTPStatus     *int             `json:"http_status"`
	Certificate    *CertificateInfo `json:"certificate,omitempty"`
	Classification Classification   `json:"classification"`
	CheckedAt      time.Time        `json:"checked_at"`

	ProbeErr   error `json:"-"`
	InspectErr error `json:"-"`
	StoreErr   error `json:"-"`
}

// SSLExpiry returns the certificate expiry, if one was read.
func (r CheckResult) SSLExpiry() *time.Time {
	if r.Certificate == nil {
		return nil
	}
	t := r.Certificate.ValidTo
	return &t
}

// StatusCode returns the HTTP status or 0 when the probe failed.
func (r CheckResult) StatusCode() int {
	if r.HTTPStatus == nil {
		return 0
	}
	return *r.HTTPStatus
}

type StorageError struct {
	Domain string `json:"domain"`
	Err    string `json:"error"`
}

type RunSummary struct {
	RunID          string         `json:"run_id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Total          int            `json:"total"`
	OKCount        int            `json:"ok"`
	IssueCount     int            `json:"issues"`
	ExpiredCount   int            `json:"expired"`
	ProblemDomains []string       `json:"problem_domains"`
	StorageErrors  []StorageError `json:"storage_errors,omitempty"`
}

// Add folds one result into the summary.
func (s *RunSummary) Add(r CheckResult) {
	s.Total++
	switch r.Classification {
	case ClassOK:
		s.OKCount++
	case ClassCertExpired:
		s.ExpiredCount++
	case ClassHTTPIssue, ClassUnreachable:
		s.IssueCount++
	}
	if r.Classification.Problem() {
		s.ProblemDomains = append(s.ProblemDomains, r.Domain)
	}
	if r.StoreErr != nil {
		s.StorageErrors = append(s.StorageErrors, StorageError{Domain: r.Domain, Err: r.StoreErr.Error()})
	}
}

// Summarize folds results in slice order.
func Summarize(results []CheckResult) RunSummary {
	s := RunSummary{ProblemDomains: []string{}}
	for _, r := range results {
		s.Add(r)
	}
	return s
}

// Row is one persisted result.
type Row struct {
	ID        int64      `json:"id" bson:"-"`
	Website   string     `json:"website" bson:"website"`
	Status    int        `json:"status" bson:"status"`
	SSLExpiry *time.Time `json:"ssl_expiry" bson:"ssl_expiry"`
}

type Action string

const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
)

// Ack confirms one reconciliation.
type Ack struct {
	Website string
	Action  Action
}
