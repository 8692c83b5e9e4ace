// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package mail

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"strings"

	"gopkg.in/gomail.v2"
)

// leadingHeaders are written first, in this order, by Render. Remaining
// headers follow sorted by name.
var leadingHeaders = []string{
	"Content-Type",
	"Mime-Version",
	"Date",
	"Message-Id",
	"From",
	"To",
	"Cc",
	"Subject",
}

// Render returns the message as it would be transmitted, with top-level
// headers in a stable order starting with Content-Type.
func Render(m *gomail.Message) (string, error) {
	var raw bytes.Buffer
	if _, err := m.WriteTo(&raw); err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}
	parsed, err := mail.ReadMessage(&raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered message: %w", err)
	}
	body, err := io.ReadAll(parsed.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read rendered body: %w", err)
	}

	var out strings.Builder
	written := make(map[string]bool, len(parsed.Header))
	for _, key := range leadingHeaders {
		writeHeader(&out, key, parsed.Header[key])
		written[key] = true
	}
	rest := make([]string, 0, len(parsed.Header))
	for key := range parsed.Header {
		if !written[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		writeHeader(&out, key, parsed.Header[key])
	}
	out.WriteString("\r\n")
	out.Write(body)
	return out.String(), nil
}

func writeHeader(w *strings.Builder, key string, values []string) {
	for _, v := range values {
		w.WriteString(key)
		w.WriteString(": ")
		w.WriteString(v)
		w.WriteString("\r\n")
	}
}
