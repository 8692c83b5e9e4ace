package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every gradenotify metric. A dedicated registry keeps the
// textfile export free of Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	RecordsLoaded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradenotify_records_loaded_total",
		Help: "Total number of result rows loaded from input files",
	}, []string{"mode"})
	GradesAssigned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradenotify_grades_assigned_total",
		Help: "Total number of grades computed, by numeric grade",
	}, []string{"grade"})

	// Mail metrics
	MailSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradenotify_mail_sent_total",
		Help: "Total number of mails transmitted to the SMTP server",
	}, []string{"host"})
	MailFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradenotify_mail_failed_total",
		Help: "Total number of mails the SMTP server did not accept",
	}, []string{"host"})
	MailRendered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradenotify_mail_rendered_total",
		Help: "Total number of mails rendered in dry-run mode instead of being sent",
	}, []string{"host"})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gradenotify_last_run_timestamp_seconds",
		Help: "Unix time the last notification run finished",
	})
)

func init() {
	Registry.MustRegister(RecordsLoaded)
	Registry.MustRegister(GradesAssigned)
	Registry.MustRegister(MailSent)
	Registry.MustRegister(MailFailed)
	Registry.MustRegister(MailRendered)
	Registry.MustRegister(LastRunTimestamp)
}

// WriteTextfile writes the current metric values to path, atomically, in
// the Prometheus text exposition format.
func WriteTextfile(path string) error {
	LastRunTimestamp.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
