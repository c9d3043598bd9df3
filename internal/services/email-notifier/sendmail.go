package notifier

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// SendmailTransport hands the message to the local MTA.
type SendmailTransport struct {
	Path string
	log  *zap.Logger
}

func NewSendmailTransport(path string) *SendmailTransport {
	if path == "" {
		path = "/usr/sbin/sendmail"
	}
	return &SendmailTransport{
		Path: path,
		log:  zap.L().With(zap.String("component", "email-notifier.sendmail")),
	}
}

func (s *SendmailTransport) WithLogger(l *zap.Logger) *SendmailTransport {
	if l == nil {
		return s
	}
	cp := *s
	cp.log = l.With(zap.String("component", "email-notifier.sendmail"))
	return &cp
}

func (s *SendmailTransport) Name() string { return "sendmail" }

func (s *SendmailTransport) Deliver(ctx context.Context, from string, to []string, msg []byte) error {
	args := append([]string{"-i", "-f", from, "--"}, to...)
	cmd := exec.CommandContext(ctx, s.Path, args...)
	cmd.Stdin = bytes.NewReader(msg)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.log.Error("sendmail failed", zap.String("path", s.Path), zap.String("stderr", stderr.String()), zap.Error(err))
		return fmt.Errorf("sendmail: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	s.log.Info("email handed to sendmail", zap.Strings("to", to))
	return nil
}
