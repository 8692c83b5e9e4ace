// Package cmd implements the cobra command tree for the gradenotify CLI:
// sending result notifications, previewing a single message, looking up
// grades and listing the results file.
package cmd
