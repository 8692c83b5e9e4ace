package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/telekom/gradenotify/pkg/config"
)

// inputFlags are the flags shared by every command reading the results file.
type inputFlags struct {
	input        string
	template     string
	htmlTemplate string
	keyField     string
	delimiter    string
	domain       string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Results file (default "+config.DefaultInput+")")
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "Plain text body template (default "+config.DefaultTemplate+")")
	cmd.Flags().StringVar(&f.htmlTemplate, "html-template", "", "HTML body template")
	cmd.Flags().StringVar(&f.keyField, "key-field", "", "Header column holding the student id; switches to record mode")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "Field delimiter of the results file (default ;)")
	cmd.Flags().StringVar(&f.domain, "domain", "", "Recipient mail domain (default "+config.DefaultRecipientDomain+")")
}

func (f *inputFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("input") {
		cfg.Input = f.input
	}
	if cmd.Flags().Changed("template") {
		cfg.Template = f.template
	}
	if cmd.Flags().Changed("html-template") {
		cfg.HTMLTemplate = f.htmlTemplate
	}
	if cmd.Flags().Changed("key-field") {
		cfg.KeyField = f.keyField
	}
	if cmd.Flags().Changed("delimiter") {
		cfg.Delimiter = f.delimiter
	}
	if cmd.Flags().Changed("domain") {
		cfg.RecipientDomain = f.domain
	}
}

// messageFlags are the flags describing the mail itself.
type messageFlags struct {
	from        string
	subject     string
	attachments []string
}

func (f *messageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Sender address, e.g. \"John Doe <john.doe@example.com>\"")
	cmd.Flags().StringVar(&f.subject, "subject", "", "Mail subject")
	cmd.Flags().StringSliceVarP(&f.attachments, "attach", "a", nil, "File to attach; repeat for several files")
}

func (f *messageFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("from") {
		cfg.From = f.from
	}
	if cmd.Flags().Changed("subject") {
		cfg.Subject = f.subject
	}
	if cmd.Flags().Changed("attach") {
		cfg.Attachments = f.attachments
	}
}

// smtpFlags configure the SMTP session of the send command.
type smtpFlags struct {
	host        string
	port        int
	user        string
	insecure    bool
	dryRun      bool
	interval    time.Duration
	metricsFile string
}

func (f *smtpFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.host, "smtp-host", "", "SMTP server")
	cmd.Flags().IntVar(&f.port, "smtp-port", config.DefaultSMTPPort, "SMTP submission port")
	cmd.Flags().StringVarP(&f.user, "smtp-user", "u", "", "SMTP login; no authentication when empty")
	cmd.Flags().BoolVar(&f.insecure, "insecure-skip-verify", false, "Skip TLS certificate verification")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the messages instead of sending them")
	cmd.Flags().DurationVar(&f.interval, "interval", config.DefaultSendInterval, "Pause between two messages")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
}

func (f *smtpFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("smtp-host") {
		cfg.SMTP.Host = f.host
	}
	if cmd.Flags().Changed("smtp-port") {
		cfg.SMTP.Port = f.port
	}
	if cmd.Flags().Changed("smtp-user") {
		cfg.SMTP.User = f.user
	}
	if cmd.Flags().Changed("insecure-skip-verify") {
		cfg.SMTP.InsecureSkipVerify = f.insecure
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if cmd.Flags().Changed("interval") {
		cfg.SendInterval = f.interval
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
}
