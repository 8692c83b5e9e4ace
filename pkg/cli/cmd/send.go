package cmd

import (
	"github.com/spf13/cobra"

	"github.com/telekom/gradenotify/pkg/config"
	"github.com/telekom/gradenotify/pkg/mail"
	"github.com/telekom/gradenotify/pkg/notify"
	"github.com/telekom/gradenotify/pkg/output"
)

func NewSendCommand() *cobra.Command {
	var (
		in   inputFlags
		msg  messageFlags
		smtp smtpFlags
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send the results to every student in the results file",
		Long: `Send one mail per row of the results file. Messages are sent in file
order over a single SMTP session, pausing between two messages. The run stops
at the first failure. With --dry-run nothing is sent and every message is
printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg := *rt.cfg
			in.apply(cmd, &cfg)
			msg.apply(cmd, &cfg)
			smtp.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			sender, err := rt.newSender(&cfg)
			if err != nil {
				return err
			}
			driver := notify.New(&cfg, sender, rt.Logger())
			driver.Out = rt.Writer()

			report, runErr := driver.Run(cmd.Context())
			if format := rt.OutputFormat(); format != output.FormatTable && !cfg.DryRun {
				if err := output.WriteObject(rt.Writer(), format, report); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	in.register(cmd)
	msg.register(cmd)
	smtp.register(cmd)
	return cmd
}

// newSender builds the sender for cfg, asking for the password of live runs.
func (rt *runtimeState) newSender(cfg *config.Config) (*mail.Sender, error) {
	sc := mail.SenderConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		User:               cfg.SMTP.User,
		DryRun:             cfg.DryRun,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	}
	if !cfg.DryRun {
		pw, err := rt.password(cfg.SMTP.User)
		if err != nil {
			return nil, err
		}
		sc.Password = pw
	}
	if rt.dialer != nil {
		return mail.NewSenderWithDialer(sc, rt.dialer, rt.Logger()), nil
	}
	return mail.NewSender(sc, rt.Logger()), nil
}
