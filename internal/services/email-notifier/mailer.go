package notifier

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	UseTLS   bool
	Timeout  time.Duration
}

// SMTPTransport delivers over SMTP with PLAIN auth when credentials are set.
// UseTLS dials implicit TLS; otherwise net/smtp upgrades with STARTTLS when offered.
type SMTPTransport struct {
	addr    string
	host    string
	auth    smtp.Auth
	useTLS  bool
	timeout time.Duration

	log *zap.Logger
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	port := cfg.Port
	if port <= 0 {
		port = 587
	}
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPTransport{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		host:    cfg.Host,
		auth:    auth,
		useTLS:  cfg.UseTLS,
		timeout: timeout,
		log:     zap.L().With(zap.String("component", "email-notifier.smtp")),
	}
}

func (m *SMTPTransport) WithLogger(l *zap.Logger) *SMTPTransport {
	if l == nil {
		return m
	}
	cp := *m
	cp.log = l.With(zap.String("component", "email-notifier.smtp"))
	return &cp
}

func (m *SMTPTransport) Name() string { return "smtp" }

func (m *SMTPTransport) Deliver(ctx context.Context, from string, to []string, msg []byte) error {
	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.Bool("tls", m.useTLS),
		zap.String("from", from),
		zap.Strings("to", to),
	)

	dialer := &net.Dialer{Timeout: m.timeout}
	var (
		conn net.Conn
		err  error
	)
	if m.useTLS {
		log.Debug("dialing smtp (TLS)")
		td := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.host, InsecureSkipVerify: true}} //nolint:gosec
		conn, err = td.DialContext(ctx, "tcp", m.addr)
	} else {
		log.Debug("dialing smtp")
		conn, err = dialer.DialContext(ctx, "tcp", m.addr)
	}
	if err != nil {
		log.Error("smtp dial failed", zap.Error(err))
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else {
		_ = conn.SetDeadline(time.Now().Add(4 * m.timeout))
	}

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		log.Error("smtp client failed", zap.Error(err))
		return err
	}
	defer func() { _ = c.Close() }()

	if !m.useTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.host, InsecureSkipVerify: true}); err != nil { //nolint:gosec
				log.Error("smtp STARTTLS failed", zap.Error(err))
				return err
			}
		}
	}
	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				log.Error("smtp auth failed", zap.Error(err))
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		log.Error("smtp MAIL FROM failed", zap.Error(err))
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			log.Error("smtp RCPT TO failed", zap.String("rcpt", rcpt), zap.Error(err))
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		log.Error("smtp DATA failed", zap.Error(err))
		return err
	}
	if _, err = w.Write(msg); err != nil {
		log.Error("smtp write failed", zap.Error(err))
		return err
	}
	if err := w.Close(); err != nil {
		log.Error("smtp close failed", zap.Error(err))
		return err
	}
	if err := c.Quit(); err != nil {
		log.Debug("smtp quit", zap.Error(err))
	}
	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}
