package checker

import (
	"context"
	"net/http"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"go.uber.org/zap"
)

type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

type Inspector interface {
	Inspect(ctx context.Context, url string) (*status.CertificateInfo, error)
}

// Evaluator turns one domain into a CheckResult. The probe always finishes
// before the certificate is inspected.
type Evaluator struct {
	Prober    Prober
	Inspector Inspector
	Clock     status.Clock
	Log       *zap.Logger

	// CheckSSL enables certificate inspection for domains answering 200.
	CheckSSL bool
	// FailSafe classifies a failed inspection as cert-expired instead of ok.
	FailSafe bool
}

func (e *Evaluator) Evaluate(ctx context.Context, index int, domain string) status.CheckResult {
	log := e.logger().With(zap.Int("index", index), zap.String("domain", domain))
	res := status.CheckResult{
		Index:     index,
		Domain:    domain,
		CheckedAt: e.now(),
	}

	code, err := e.Prober.Probe(ctx, domain)
	if err != nil {
		res.ProbeErr = err
		res.Classification = status.ClassUnreachable
		log.Info("unreachable", zap.Error(err))
		return res
	}
	res.HTTPStatus = &code

	if code != http.StatusOK {
		res.Classification = status.ClassHTTPIssue
		log.Info("http issue", zap.Int("status", code))
		return res
	}

	if !e.CheckSSL || e.Inspector == nil {
		res.Classification = status.ClassOK
		log.Debug("ok", zap.Int("status", code))
		return res
	}

	cert, err := e.Inspector.Inspect(ctx, domain)
	if err != nil {
		res.InspectErr = err
		if e.FailSafe {
			res.Classification = status.ClassCertExpired
		} else {
			res.Classification = status.ClassOK
		}
		log.Warn("certificate inspection failed",
			zap.Error(err), zap.String("classification", string(res.Classification)))
		return res
	}
	res.Certificate = cert

	if cert.Expired(e.now()) {
		res.Classification = status.ClassCertExpired
		log.Info("certificate expired", zap.Time("valid_to", cert.ValidTo), zap.String("issuer", cert.Issuer))
		return res
	}
	res.Classification = status.ClassOK
	log.Debug("ok", zap.Int("status", code), zap.Time("valid_to", cert.ValidTo))
	return res
}

func (e *Evaluator) now() time.Time {
	if e.Clock == nil {
		return time.Now().UTC()
	}
	return e.Clock.Now()
}

func (e *Evaluator) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}
