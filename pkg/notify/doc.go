// Package notify drives a notification run: it loads the results file,
// composes a body per student, builds the message and hands it to the
// sender, pacing consecutive sends.
package notify
