// Package mail builds MIME notification messages and delivers them over a
// single SMTP session, or renders them to text in dry-run mode.
package mail
