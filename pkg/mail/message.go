// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/mail"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/telekom/gradenotify/pkg/version"
)

const (
	charsetASCII = "US-ASCII"
	charsetUTF8  = "UTF-8"
)

var (
	// ErrNoBody is returned when neither a plain text nor an HTML body is given.
	ErrNoBody = errors.New("plain text or html message must be present")
	// ErrNoRecipients is returned when a message has no recipient.
	ErrNoRecipients = errors.New("at least one recipient is required")
	// ErrUnknownType is returned when the MIME type of an attachment cannot be guessed.
	ErrUnknownType = errors.New("could not guess the MIME type")
	// ErrUnsupportedType is returned for attachments that are neither text nor images.
	ErrUnsupportedType = errors.New("attachment type is not implemented")
)

// Stubbed out for tests.
var now = time.Now

// MessageParams describes a notification message.
type MessageParams struct {
	From        string
	To          []string
	Subject     string
	Plain       string
	HTML        string
	Attachments []string
}

type attachment struct {
	path      string
	name      string
	mediaType string
	mainType  string
	content   []byte
	cid       string
}

// NewMessage assembles a MIME message from p.
//
// With both bodies the message carries them as alternatives. Image
// attachments referenced from the HTML body by src="<file>" are embedded and
// the reference is rewritten to a content identifier, so the image renders
// inline. All other files become regular attachments.
func NewMessage(p MessageParams) (*gomail.Message, error) {
	if p.Plain == "" && p.HTML == "" {
		return nil, ErrNoBody
	}
	if len(p.To) == 0 {
		return nil, ErrNoRecipients
	}
	from, err := mail.ParseAddress(p.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", p.From, err)
	}
	to := make([]*mail.Address, 0, len(p.To))
	for _, rcpt := range p.To {
		addr, err := mail.ParseAddress(rcpt)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient address %q: %w", rcpt, err)
		}
		to = append(to, addr)
	}

	attachments := make([]*attachment, 0, len(p.Attachments))
	for _, path := range p.Attachments {
		att, err := loadAttachment(path)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}

	html := p.HTML
	if html != "" {
		html = linkInlineImages(html, attachments)
	}

	charset := charsetUTF8
	if isASCII(p.Subject, p.Plain, html, from.Name) {
		charset = charsetASCII
	}
	m := gomail.NewMessage(gomail.SetCharset(charset))
	m.SetAddressHeader("From", from.Address, from.Name)
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		recipients = append(recipients, m.FormatAddress(addr.Address, addr.Name))
	}
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", p.Subject)
	m.SetHeader("Message-ID", messageID(from.Address))
	m.SetDateHeader("Date", now())
	m.SetHeader("X-Mailer", version.Mailer())

	switch {
	case p.Plain != "" && html != "":
		m.SetBody("text/plain", p.Plain)
		m.AddAlternative("text/html", html)
	case p.Plain != "":
		m.SetBody("text/plain", p.Plain)
	default:
		m.SetBody("text/html", html)
	}

	for _, att := range attachments {
		settings := []gomail.FileSetting{
			gomail.SetHeader(att.headers()),
			gomail.SetCopyFunc(copyBytes(att.content)),
		}
		if att.cid != "" {
			m.Embed(att.path, settings...)
		} else {
			m.Attach(att.path, settings...)
		}
	}
	return m, nil
}

func loadAttachment(path string) (*attachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	mediaType, err := detectType(path, content)
	if err != nil {
		return nil, err
	}
	mainType, _, _ := strings.Cut(mediaType, "/")
	if mainType != "text" && mainType != "image" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, mediaType, path)
	}
	return &attachment{
		path:      path,
		name:      filepath.Base(path),
		mediaType: mediaType,
		mainType:  mainType,
		content:   content,
	}, nil
}

// detectType guesses the media type from the file extension and falls back
// to sniffing the content.
func detectType(path string, content []byte) (string, error) {
	candidate := mime.TypeByExtension(filepath.Ext(path))
	if candidate == "" {
		candidate = mimetype.Detect(content).String()
	}
	mediaType, _, err := mime.ParseMediaType(candidate)
	if err != nil || mediaType == "application/octet-stream" {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, path)
	}
	return mediaType, nil
}

func (a *attachment) headers() map[string][]string {
	typeParams := map[string]string{"name": a.name}
	if a.mainType == "text" {
		typeParams["charset"] = charsetUTF8
		if isASCII(string(a.content)) {
			typeParams["charset"] = charsetASCII
		}
	}
	h := map[string][]string{
		"Content-Type":        {mime.FormatMediaType(a.mediaType, typeParams)},
		"Content-Disposition": {mime.FormatMediaType("attachment", map[string]string{"filename": a.name})},
	}
	if a.cid != "" {
		h["Content-ID"] = []string{"<" + a.cid + ">"}
	}
	return h
}

// linkInlineImages rewrites src attributes pointing at image attachments to
// cid: references and records the content identifier on the attachment.
// Images are numbered in attachment order, starting at image0.
func linkInlineImages(html string, attachments []*attachment) string {
	idx := 0
	for _, att := range attachments {
		if att.mainType != "image" {
			continue
		}
		cid := fmt.Sprintf("image%d", idx)
		idx++

		names := []string{regexp.QuoteMeta(att.path)}
		if att.name != att.path {
			names = append(names, regexp.QuoteMeta(att.name))
		}
		pattern := regexp.MustCompile(`(?i:src)\s*=\s*"(?:` + strings.Join(names, "|") + `)"`)
		if !pattern.MatchString(html) {
			continue
		}
		html = pattern.ReplaceAllLiteralString(html, `src="cid:`+cid+`"`)
		att.cid = cid
	}
	return html
}

func copyBytes(b []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	}
}

func messageID(from string) string {
	domain := "localhost"
	if _, d, ok := strings.Cut(from, "@"); ok && d != "" {
		domain = d
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

func isASCII(values ...string) bool {
	for _, v := range values {
		for i := 0; i < len(v); i++ {
			if v[i] >= utf8.RuneSelf {
				return false
			}
		}
	}
	return true
}
