package mail

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/telekom/gradenotify/pkg/metrics"
)

type fakeSession struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
	closes  int
}

func (f *fakeSession) Send(from string, to []string, msg io.WriterTo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, from+"->"+strings.Join(to, ","))
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

type fakeDialer struct {
	dials   int
	session *fakeSession
	err     error
}

func (d *fakeDialer) Dial() (gomail.SendCloser, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func testMessage(t *testing.T) *gomail.Message {
	t.Helper()
	m, err := NewMessage(MessageParams{
		From:    "John Doe <john.doe@example.com>",
		To:      []string{"123456@student.example.com"},
		Subject: "Wyniki kolokwium",
		Plain:   "Twój wynik: 16.0",
	})
	require.NoError(t, err)
	return m
}

func TestSender_DryRunNeverDials(t *testing.T) {
	d := &fakeDialer{session: &fakeSession{}}
	s := NewSenderWithDialer(SenderConfig{Host: "dry.example.com", DryRun: true}, d, zap.NewNop().Sugar())

	before := testutil.ToFloat64(metrics.MailRendered.WithLabelValues("dry.example.com"))
	require.NoError(t, s.Open(context.Background()))
	text, err := s.Send(testMessage(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, 0, d.dials, "dry run must not open a connection")
	assert.True(t, strings.HasPrefix(text, "Content-Type: "), text)
	assert.Contains(t, text, "Subject: Wyniki kolokwium")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailRendered.WithLabelValues("dry.example.com")))
}

func TestSender_DryRunWithRealDialerHasNoSocket(t *testing.T) {
	// port 1 on a reserved address: any dial attempt would fail loudly
	s := NewSender(SenderConfig{Host: "192.0.2.1", Port: 1, DryRun: true}, zap.NewNop().Sugar())
	require.NoError(t, s.Open(context.Background()))
	_, err := s.Send(testMessage(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSender_LiveSend(t *testing.T) {
	session := &fakeSession{}
	d := &fakeDialer{session: session}
	s := NewSenderWithDialer(SenderConfig{Host: "smtp.example.com"}, d, zap.NewNop().Sugar())

	before := testutil.ToFloat64(metrics.MailSent.WithLabelValues("smtp.example.com"))
	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Open(context.Background()), "second open reuses the session")
	text, err := s.Send(testMessage(t))
	require.NoError(t, err)
	assert.Empty(t, text)
	_, err = s.Send(testMessage(t))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, 1, d.dials)
	assert.Equal(t, 1, session.closes, "session must be closed exactly once")
	assert.Equal(t, []string{
		"john.doe@example.com->123456@student.example.com",
		"john.doe@example.com->123456@student.example.com",
	}, session.sent)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.MailSent.WithLabelValues("smtp.example.com")))
}

func TestSender_SendStates(t *testing.T) {
	s := NewSenderWithDialer(SenderConfig{Host: "smtp.example.com"}, &fakeDialer{session: &fakeSession{}}, zap.NewNop().Sugar())

	_, err := s.Send(testMessage(t))
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Close())

	_, err = s.Send(testMessage(t))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Open(context.Background()), ErrClosed)
}

func TestSender_SendFailure(t *testing.T) {
	session := &fakeSession{sendErr: errors.New("550 mailbox unavailable")}
	s := NewSenderWithDialer(SenderConfig{Host: "fail.example.com"}, &fakeDialer{session: session}, zap.NewNop().Sugar())
	require.NoError(t, s.Open(context.Background()))

	before := testutil.ToFloat64(metrics.MailFailed.WithLabelValues("fail.example.com"))
	_, err := s.Send(testMessage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550 mailbox unavailable")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MailFailed.WithLabelValues("fail.example.com")))
	require.NoError(t, s.Close())
}

func TestSender_OpenErrors(t *testing.T) {
	s := NewSenderWithDialer(SenderConfig{Host: "smtp.example.com"}, &fakeDialer{err: errors.New("connection refused")}, zap.NewNop().Sugar())
	err := s.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp.example.com:587")
	assert.NoError(t, s.Close(), "closing a never opened sender is a no-op")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &fakeDialer{session: &fakeSession{}}
	s = NewSenderWithDialer(SenderConfig{Host: "smtp.example.com"}, d, zap.NewNop().Sugar())
	assert.ErrorIs(t, s.Open(ctx), context.Canceled)
	assert.Equal(t, 0, d.dials)
}

func TestWithSession_ClosesOnError(t *testing.T) {
	session := &fakeSession{}
	s := NewSenderWithDialer(SenderConfig{Host: "smtp.example.com"}, &fakeDialer{session: session}, zap.NewNop().Sugar())

	boom := errors.New("boom")
	err := WithSession(context.Background(), s, func(*Sender) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, session.closes)

	assert.NoError(t, s.Close())
	assert.Equal(t, 1, session.closes)
}

func TestWithSession_ClosesOnPanic(t *testing.T) {
	session := &fakeSession{}
	s := NewSenderWithDialer(SenderConfig{Host: "smtp.example.com"}, &fakeDialer{session: session}, zap.NewNop().Sugar())

	assert.Panics(t, func() {
		_ = WithSession(context.Background(), s, func(*Sender) error { panic("boom") })
	})
	assert.Equal(t, 1, session.closes)
}

// testServerCert returns a self-signed certificate for 127.0.0.1.
func testServerCert(t *testing.T) *tls.Config {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return &tls.Config{Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}}}
}

// smtpTranscript is what the test SMTP server saw during one session.
type smtpTranscript struct {
	commands []string
	messages []string
	quit     bool
}

func (tr smtpTranscript) index(prefix string) int {
	for i, c := range tr.commands {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

// startTestSMTPServer starts a minimal SMTP server on a random port that
// serves a single session. With tlsConfig set it offers STARTTLS; without it
// only AUTH LOGIN is offered. It records every command and DATA payload and
// only implements the commands needed by the sender tests.
func startTestSMTPServer(t *testing.T, tlsConfig *tls.Config) (host string, port int, result func() smtpTranscript) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	var (
		wg sync.WaitGroup
		tr smtpTranscript
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ln.Close()
		raw, err := ln.Accept()
		if err != nil {
			return
		}
		_ = raw.SetDeadline(time.Now().Add(5 * time.Second))
		var conn net.Conn = raw
		defer func() { _ = conn.Close() }()

		r := bufio.NewReader(conn)
		secured := false
		fmt.Fprintf(conn, "220 localhost Test SMTP Service Ready\r\n")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimSpace(line)
			tr.commands = append(tr.commands, line)
			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				switch {
				case tlsConfig == nil:
					fmt.Fprintf(conn, "250-localhost Hello\r\n250 AUTH LOGIN\r\n")
				case !secured:
					fmt.Fprintf(conn, "250-localhost Hello\r\n250-STARTTLS\r\n250 AUTH PLAIN\r\n")
				default:
					fmt.Fprintf(conn, "250-localhost Hello\r\n250 AUTH PLAIN\r\n")
				}
			case strings.HasPrefix(line, "STARTTLS") && tlsConfig != nil:
				fmt.Fprintf(conn, "220 Ready to start TLS\r\n")
				tlsConn := tls.Server(raw, tlsConfig)
				if err := tlsConn.Handshake(); err != nil {
					return
				}
				conn = tlsConn
				r = bufio.NewReader(conn)
				secured = true
			case strings.HasPrefix(line, "AUTH"):
				fmt.Fprintf(conn, "235 Authentication successful\r\n")
			case strings.HasPrefix(line, "DATA"):
				fmt.Fprintf(conn, "354 End data with <CR><LF>.<CR><LF>\r\n")
				var data strings.Builder
				for {
					dline, derr := r.ReadString('\n')
					if derr != nil || strings.TrimSpace(dline) == "." {
						break
					}
					data.WriteString(dline)
				}
				tr.messages = append(tr.messages, data.String())
				fmt.Fprintf(conn, "250 OK: queued as 12345\r\n")
			case strings.HasPrefix(line, "QUIT"):
				tr.quit = true
				fmt.Fprintf(conn, "221 Bye\r\n")
				return
			default:
				fmt.Fprintf(conn, "250 OK\r\n")
			}
		}
	}()

	host = "127.0.0.1"
	port = ln.Addr().(*net.TCPAddr).Port
	result = func() smtpTranscript {
		wg.Wait()
		return tr
	}
	return host, port, result
}

func TestSender_SMTPSession(t *testing.T) {
	host, port, result := startTestSMTPServer(t, testServerCert(t))

	s := NewSender(SenderConfig{
		Host:               host,
		Port:               port,
		User:               "john.doe",
		Password:           "s3cret",
		InsecureSkipVerify: true,
	}, zap.NewNop().Sugar())
	err := WithSession(context.Background(), s, func(s *Sender) error {
		for i := 0; i < 2; i++ {
			if _, err := s.Send(testMessage(t)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	tr := result()
	assert.True(t, tr.quit, "session must end with QUIT")
	require.Len(t, tr.messages, 2)
	assert.Contains(t, tr.messages[0], "Subject: Wyniki kolokwium")
	assert.Contains(t, tr.messages[0], "To: 123456@student.example.com")

	starttls, auth := tr.index("STARTTLS"), tr.index("AUTH")
	require.GreaterOrEqual(t, starttls, 0, "session must be upgraded with STARTTLS")
	require.Greater(t, auth, starttls, "credentials must only be sent after STARTTLS")
}

func TestSender_RefusesServerWithoutSTARTTLS(t *testing.T) {
	host, port, result := startTestSMTPServer(t, nil)

	s := NewSender(SenderConfig{Host: host, Port: port, User: "john.doe", Password: "s3cret"}, zap.NewNop().Sugar())
	err := s.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
	require.NoError(t, s.Close())

	_, err = s.Send(testMessage(t))
	assert.ErrorIs(t, err, ErrClosed)

	tr := result()
	assert.Equal(t, -1, tr.index("AUTH"), "no credentials may reach a server without STARTTLS: %v", tr.commands)
	assert.Equal(t, -1, tr.index("MAIL"))
	assert.Empty(t, tr.messages)
}
