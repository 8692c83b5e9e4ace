package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/telekom/gradenotify/pkg/config"
	"github.com/telekom/gradenotify/pkg/mail"
	"github.com/telekom/gradenotify/pkg/output"
	"github.com/telekom/gradenotify/pkg/system"
)

type Config struct {
	Context      context.Context
	ConfigPath   string
	OutputWriter io.Writer
	// Logger replaces the logger built from --debug.
	Logger *zap.SugaredLogger
	// Dialer replaces the SMTP dialer built from the configuration.
	Dialer mail.Dialer
	// PasswordReader replaces the interactive password prompt.
	PasswordReader func(prompt string) (string, error)
}

type runtimeState struct {
	configPath     string
	cfg            *config.Config
	outputFormat   string
	debug          bool
	noColor        bool
	writer         io.Writer
	log            *zap.SugaredLogger
	dialer         mail.Dialer
	readPassword   func(prompt string) (string, error)
	loggerInjected bool
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		Context:      context.Background(),
		ConfigPath:   config.DefaultConfigPath(),
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath:     cfg.ConfigPath,
		writer:         cfg.OutputWriter,
		log:            cfg.Logger,
		dialer:         cfg.Dialer,
		readPassword:   cfg.PasswordReader,
		loggerInjected: cfg.Logger != nil,
	}

	root := &cobra.Command{
		Use:           "gradenotify",
		Short:         "Mail exam results to students",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.outputFormat == "" {
				rt.outputFormat = os.Getenv("GRADENOTIFY_OUTPUT")
			}
			if _, err := output.ParseFormat(rt.outputFormat); err != nil {
				return err
			}
			if !rt.loggerInjected {
				log, err := system.NewLogger(rt.debug)
				if err != nil {
					return err
				}
				rt.log = log
			}
			if rt.readPassword == nil {
				rt.readPassword = promptPassword
			}

			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return rt.loadConfig(cmd.Flags().Changed("config"))
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file (env GRADENOTIFY_CONFIG)")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: table, json, yaml")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug level logging")
	root.PersistentFlags().BoolVar(&rt.noColor, "no-color", false, "Disable coloured output")

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	root.SetContext(context.WithValue(ctx, runtimeKey{}, rt))

	root.AddCommand(
		NewSendCommand(),
		NewPreviewCommand(),
		NewGradeCommand(),
		NewResultsCommand(),
		NewCompletionCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// loadConfig reads the config file. A missing file is only an error when
// the path was given explicitly.
func (rt *runtimeState) loadConfig(explicit bool) error {
	if rt.configPath == "" {
		rt.configPath = config.DefaultConfigPath()
	}
	var (
		cfg *config.Config
		err error
	)
	if explicit {
		cfg, err = config.Load(rt.configPath)
	} else {
		cfg, err = config.LoadOrDefault(rt.configPath)
	}
	if err != nil {
		return err
	}
	rt.log.Debugw("Loaded configuration", "path", rt.configPath)
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) OutputFormat() output.Format {
	f, err := output.ParseFormat(rt.outputFormat)
	if err != nil {
		return output.FormatTable
	}
	return f
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.log != nil {
		return rt.log
	}
	return zap.NewNop().Sugar()
}

// Painter colours table output when writing to a terminal, unless disabled
// by --no-color or NO_COLOR.
func (rt *runtimeState) Painter() output.Painter {
	if rt.noColor || color.NoColor {
		return output.NewPainter(false)
	}
	f, ok := rt.Writer().(*os.File)
	return output.NewPainter(ok && term.IsTerminal(int(f.Fd())))
}
