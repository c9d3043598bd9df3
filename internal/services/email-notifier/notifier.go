package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"go.uber.org/zap"
)

// Transport delivers an already rendered RFC 5322 message.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, from string, to []string, msg []byte) error
}

type Config struct {
	From       string
	FromName   string
	To         string
	SubjPrefix string
}

var ErrNoRecipient = errors.New("no recipient configured")

// SelectTransport picks SMTP when a host is configured, the local sendmail otherwise.
func SelectTransport(smtpCfg SMTPConfig, sendmailPath string, log *zap.Logger) Transport {
	if strings.TrimSpace(smtpCfg.Host) != "" {
		return NewSMTPTransport(smtpCfg).WithLogger(log)
	}
	return NewSendmailTransport(sendmailPath).WithLogger(log)
}

type Notifier struct {
	cfg       Config
	transport Transport
	now       func() time.Time
	log       *zap.Logger
}

func New(cfg Config, t Transport, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		cfg:       cfg,
		transport: t,
		now:       time.Now,
		log:       log.With(zap.String("component", "email-notifier")),
	}
}

// Send renders the run summary and hands it to the transport.
func (n *Notifier) Send(ctx context.Context, s status.RunSummary) error {
	if strings.TrimSpace(n.cfg.To) == "" {
		return ErrNoRecipient
	}
	msg, err := n.Compose(s)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	if err := n.transport.Deliver(ctx, n.cfg.From, []string{n.cfg.To}, msg); err != nil {
		return fmt.Errorf("deliver via %s: %w", n.transport.Name(), err)
	}
	n.log.Info("summary sent",
		zap.String("transport", n.transport.Name()),
		zap.String("to", n.cfg.To),
		zap.Int("issues", s.IssueCount),
	)
	return nil
}

// Subject reports the issue count, or that every site is fine.
func (n *Notifier) Subject(s status.RunSummary) string {
	var subj string
	switch {
	case s.IssueCount > 0 || s.ExpiredCount > 0:
		subj = fmt.Sprintf("Website Status Check: %d issue(s), %d expired certificate(s)", s.IssueCount, s.ExpiredCount)
	default:
		subj = fmt.Sprintf("Website Status Check: all %d site(s) OK", s.Total)
	}
	if n.cfg.SubjPrefix != "" {
		subj = n.cfg.SubjPrefix + " " + subj
	}
	return subj
}

// Compose builds the full MIME message with an HTML body.
func (n *Notifier) Compose(s status.RunSummary) ([]byte, error) {
	var body bytes.Buffer
	if err := summaryTmpl.Execute(&body, s); err != nil {
		return nil, err
	}

	from := (&mail.Address{Name: n.cfg.FromName, Address: n.cfg.From}).String()
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", n.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", n.Subject(s)))
	fmt.Fprintf(&b, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.Write(body.Bytes())
	return b.Bytes(), nil
}

var summaryTmpl = template.Must(template.New("summary").Parse(`<html>
<body>
<h2>Website Status Check</h2>
<p>Total websites checked: {{.Total}}</p>
<p>OK: {{.OKCount}}</p>
<p>Websites with issues: {{.IssueCount}}</p>
<p>Expired SSL certificates: {{.ExpiredCount}}</p>
{{- if .ProblemDomains}}
<h3>Websites with problems</h3>
<ul>
{{- range .ProblemDomains}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .StorageErrors}}
<h3>Results that could not be stored</h3>
<ul>
{{- range .StorageErrors}}
<li>{{.Domain}}: {{.Err}}</li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`))
