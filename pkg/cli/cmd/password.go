package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

const passwordEnv = "GRADENOTIFY_SMTP_PASSWORD"

var errNoTerminal = errors.New("cannot prompt for the mailbox password without a terminal; set " + passwordEnv)

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	_, _ = fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

// password returns the SMTP password from the environment or the prompt.
// No password is needed without a user.
func (rt *runtimeState) password(user string) (string, error) {
	if user == "" {
		return "", nil
	}
	if pw, ok := os.LookupEnv(passwordEnv); ok {
		return pw, nil
	}
	return rt.readPassword("Enter mailbox password: ")
}
