// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"

	"github.com/telekom/gradenotify/pkg/compose"
	"github.com/telekom/gradenotify/pkg/config"
	"github.com/telekom/gradenotify/pkg/mail"
	"github.com/telekom/gradenotify/pkg/metrics"
	"github.com/telekom/gradenotify/pkg/results"
	"github.com/telekom/gradenotify/pkg/score"
	"github.com/telekom/gradenotify/pkg/system"
)

// Mode selects how the results file is interpreted.
type Mode string

const (
	// ModeScores reads "<id>;<score>" rows and fills score placeholders.
	ModeScores Mode = "scores"
	// ModeRecords reads a file with a header row and fills @column@ placeholders.
	ModeRecords Mode = "records"
)

// ErrUnknownStudent is returned by Preview when the id is not in the input.
var ErrUnknownStudent = errors.New("student not found in results")

// Report summarises a run. It is returned even when the run fails.
type Report struct {
	Mode     Mode     `json:"mode" yaml:"mode"`
	Total    int      `json:"total" yaml:"total"`
	Sent     int      `json:"sent" yaml:"sent"`
	Rendered int      `json:"rendered" yaml:"rendered"`
	Failed   string   `json:"failed,omitempty" yaml:"failed,omitempty"`
	Students []string `json:"students,omitempty" yaml:"students,omitempty"`
}

// Driver wires loader, composer, message builder and sender together.
type Driver struct {
	Config   *config.Config
	Sender   *mail.Sender
	Composer *compose.Composer
	Log      *zap.SugaredLogger
	// Out receives rendered messages in dry-run mode.
	Out io.Writer
	// Limiter paces consecutive sends. A nil Limiter never waits.
	Limiter *rate.Limiter
}

// student is one row of the results file in either mode.
type student struct {
	id     string
	score  score.Score
	record map[string]string
}

// New returns a Driver for cfg. The pause between two sends is
// cfg.SendInterval; zero disables pacing.
func New(cfg *config.Config, sender *mail.Sender, log *zap.SugaredLogger) *Driver {
	return &Driver{
		Config:   cfg,
		Sender:   sender,
		Composer: compose.New(cfg.EffectiveGrading(), cfg.Epilogues),
		Log:      log.Named("notify"),
		Out:      os.Stdout,
		Limiter:  NewLimiter(cfg.SendInterval),
	}
}

// NewLimiter returns a limiter that lets the first send through at once and
// spaces every further send by interval.
func NewLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Mode reports the mode selected by the configuration.
func (d *Driver) Mode() Mode {
	if d.Config.KeyField != "" {
		return ModeRecords
	}
	return ModeScores
}

// Run sends one message per student in file order. The first failure
// aborts the run; the SMTP session is closed in every case.
func (d *Driver) Run(ctx context.Context) (Report, error) {
	report := Report{Mode: d.Mode()}
	students, err := d.load()
	if err != nil {
		return report, err
	}
	report.Total = len(students)
	d.countLoaded(students)
	d.Log.Infow("Loaded results", "input", d.Config.Input, "mode", report.Mode, "count", report.Total)

	err = mail.WithSession(ctx, d.Sender, func(sender *mail.Sender) error {
		for _, st := range students {
			if d.Limiter != nil {
				if err := d.Limiter.Wait(ctx); err != nil {
					return err
				}
			}
			if err := d.deliver(sender, st, &report); err != nil {
				report.Failed = st.id
				return fmt.Errorf("student %s: %w", st.id, err)
			}
		}
		return nil
	})

	if d.Config.MetricsFile != "" {
		if merr := metrics.WriteTextfile(d.Config.MetricsFile); merr != nil {
			err = errors.Join(err, merr)
		}
	}
	if err != nil {
		d.Log.Errorw("Notification run aborted", "error", err, "sent", report.Sent, "rendered", report.Rendered, "total", report.Total)
		return report, err
	}
	d.Log.Infow("Notification run finished", "sent", report.Sent, "rendered", report.Rendered, "total", report.Total)
	return report, nil
}

// Preview renders the message for a single student without sending it.
func (d *Driver) Preview(id string) (string, error) {
	students, err := d.load()
	if err != nil {
		return "", err
	}
	for _, st := range students {
		if st.id != id {
			continue
		}
		m, err := d.message(st)
		if err != nil {
			return "", fmt.Errorf("student %s: %w", id, err)
		}
		return mail.Render(m)
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStudent, id)
}

func (d *Driver) deliver(sender *mail.Sender, st student, report *Report) error {
	m, err := d.message(st)
	if err != nil {
		return err
	}
	to := d.Config.Recipient(st.id)
	log := d.Log.With(system.StudentFields(st.id, to)...)
	if report.Mode == ModeScores {
		log.Infow("Sending score", "score", st.score.String())
	} else {
		log.Infow("Sending record")
	}

	text, err := sender.Send(m)
	if err != nil {
		return err
	}
	report.Students = append(report.Students, st.id)
	if sender.DryRun() {
		report.Rendered++
		if d.Out != nil {
			if _, err := fmt.Fprintf(d.Out, "%s\n", text); err != nil {
				return fmt.Errorf("failed to write rendered message: %w", err)
			}
		}
		return nil
	}
	report.Sent++
	return nil
}

// message composes the bodies for st and builds the mail.
func (d *Driver) message(st student) (*gomail.Message, error) {
	var plain, html string
	var err error
	if d.Config.Template != "" {
		if plain, err = d.body(d.Config.Template, st); err != nil {
			return nil, err
		}
	}
	if d.Config.HTMLTemplate != "" {
		if html, err = d.body(d.Config.HTMLTemplate, st); err != nil {
			return nil, err
		}
	}
	return mail.NewMessage(mail.MessageParams{
		From:        d.Config.From,
		To:          []string{d.Config.Recipient(st.id)},
		Subject:     d.Config.Subject,
		Plain:       plain,
		HTML:        html,
		Attachments: d.Config.Attachments,
	})
}

func (d *Driver) body(path string, st student) (string, error) {
	if d.Mode() == ModeRecords {
		return d.Composer.ComposeRecord(path, st.record)
	}
	return d.Composer.ComposeScore(path, st.score)
}

func (d *Driver) load() ([]student, error) {
	opts := d.Config.ResultsOptions()
	var students []student
	switch d.Mode() {
	case ModeRecords:
		records, err := results.LoadRecords(d.Config.Input, opts)
		if err != nil {
			return nil, err
		}
		for _, e := range records.Entries() {
			students = append(students, student{id: e.Key, record: e.Value})
		}
	default:
		scores, err := results.LoadScores(d.Config.Input, opts)
		if err != nil {
			return nil, err
		}
		for _, e := range scores.Entries() {
			students = append(students, student{id: e.Key, score: e.Value})
		}
	}
	return students, nil
}

// countLoaded records the loaded rows and, in score mode, their grades.
func (d *Driver) countLoaded(students []student) {
	mode := d.Mode()
	metrics.RecordsLoaded.WithLabelValues(string(mode)).Add(float64(len(students)))
	if mode != ModeScores {
		return
	}
	for _, st := range students {
		if band, err := d.Composer.Grading.Lookup(st.score); err == nil {
			metrics.GradesAssigned.WithLabelValues(band.Numeric).Inc()
		}
	}
}
