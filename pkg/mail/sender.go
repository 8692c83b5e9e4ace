// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
	smtpmail "gopkg.in/mail.v2"

	"github.com/telekom/gradenotify/pkg/metrics"
)

// DefaultPort is the SMTP submission port, upgraded with STARTTLS.
const DefaultPort = 587

var (
	ErrNotOpen = errors.New("smtp session is not open")
	ErrClosed  = errors.New("smtp session is closed")
)

// Dialer opens an authenticated SMTP session.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SenderConfig configures a Sender.
type SenderConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	DryRun             bool
	InsecureSkipVerify bool
	// LocalName is sent with EHLO; gomail defaults to "localhost".
	LocalName string
}

// Sender owns one SMTP session for a whole batch of messages. In dry-run
// mode it never touches the network and returns rendered messages instead.
type Sender struct {
	cfg    SenderConfig
	dialer Dialer
	log    *zap.SugaredLogger

	mu        sync.Mutex
	session   gomail.SendCloser
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewSender creates a Sender dialing cfg.Host. The session must be encrypted
// with STARTTLS (or implicit TLS on port 465); a server that does not offer
// STARTTLS is refused before any credentials are sent. The session is
// authenticated when a user is configured.
func NewSender(cfg SenderConfig, log *zap.SugaredLogger) *Sender {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	d := smtpmail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.LocalName = cfg.LocalName
	d.StartTLSPolicy = smtpmail.MandatoryStartTLS
	if cfg.InsecureSkipVerify {
		log.Warnw("InsecureSkipVerify is enabled for mail TLS connection", "host", cfg.Host)
		d.TLSConfig = &tls.Config{ServerName: cfg.Host, InsecureSkipVerify: true} //nolint:gosec // explicitly requested by configuration
	}
	return NewSenderWithDialer(cfg, tlsDialer{d}, log)
}

// tlsDialer adapts a dialer enforcing STARTTLS to the Dialer interface.
type tlsDialer struct {
	d *smtpmail.Dialer
}

func (t tlsDialer) Dial() (gomail.SendCloser, error) {
	session, err := t.d.Dial()
	if err != nil {
		return nil, err
	}
	return session, nil
}

// NewSenderWithDialer creates a Sender using a custom Dialer.
func NewSenderWithDialer(cfg SenderConfig, dialer Dialer, log *zap.SugaredLogger) *Sender {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	return &Sender{
		cfg:    cfg,
		dialer: dialer,
		log:    log.Named("sender"),
	}
}

// DryRun reports whether the sender only renders messages.
func (s *Sender) DryRun() bool {
	return s.cfg.DryRun
}

// Host returns the configured SMTP host.
func (s *Sender) Host() string {
	return s.cfg.Host
}

// Open connects, negotiates STARTTLS and logs in. It is a no-op in dry-run
// mode.
func (s *Sender) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.cfg.DryRun {
		s.log.Infow("Dry run enabled, no SMTP session will be opened", "host", s.cfg.Host)
		return nil
	}
	if s.session != nil {
		return nil
	}

	s.log.Infow("Opening SMTP session", "host", s.cfg.Host, "port", s.cfg.Port, "user", s.cfg.User)
	session, err := s.dialer.Dial()
	if err != nil {
		return fmt.Errorf("failed to open smtp session to %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}
	s.session = session
	return nil
}

// Send transmits m over the open session and returns an empty string. In
// dry-run mode nothing is transmitted and the rendered message is returned.
func (s *Sender) Send(m *gomail.Message) (string, error) {
	if s.cfg.DryRun {
		text, err := Render(m)
		if err != nil {
			return "", err
		}
		metrics.MailRendered.WithLabelValues(s.cfg.Host).Inc()
		return text, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	if s.session == nil {
		return "", ErrNotOpen
	}
	if err := gomail.Send(s.session, m); err != nil {
		metrics.MailFailed.WithLabelValues(s.cfg.Host).Inc()
		return "", err
	}
	metrics.MailSent.WithLabelValues(s.cfg.Host).Inc()
	return "", nil
}

// Close terminates the session. Only the first call has an effect; later
// calls return the same result.
func (s *Sender) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if s.session == nil {
			return
		}
		s.log.Infow("Closing SMTP session", "host", s.cfg.Host)
		if err := s.session.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close smtp session: %w", err)
		}
		s.session = nil
	})
	return s.closeErr
}

// WithSession opens s, runs fn and closes s again, also when fn fails.
func WithSession(ctx context.Context, s *Sender, fn func(*Sender) error) (err error) {
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(s)
}
