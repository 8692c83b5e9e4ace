package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/gradenotify/pkg/mail"
	"github.com/telekom/gradenotify/pkg/notify"
)

func NewPreviewCommand() *cobra.Command {
	var (
		in  inputFlags
		msg messageFlags
	)

	cmd := &cobra.Command{
		Use:   "preview <student-id>",
		Short: "Print the message a single student would receive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg := *rt.cfg
			in.apply(cmd, &cfg)
			msg.apply(cmd, &cfg)
			cfg.DryRun = true
			if err := cfg.Validate(); err != nil {
				return err
			}

			sender := mail.NewSender(mail.SenderConfig{Host: cfg.SMTP.Host, DryRun: true}, rt.Logger())
			text, err := notify.New(&cfg, sender, rt.Logger()).Preview(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(rt.Writer(), text)
			return err
		},
	}

	in.register(cmd)
	msg.register(cmd)
	return cmd
}
