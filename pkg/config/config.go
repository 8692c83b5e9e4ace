package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v2"

	"github.com/telekom/gradenotify/pkg/compose"
	"github.com/telekom/gradenotify/pkg/results"
	"github.com/telekom/gradenotify/pkg/score"
)

const (
	DefaultInput           = "wyniki.csv"
	DefaultTemplate        = "email.txt"
	DefaultRecipientDomain = "student.pwr.edu.pl"
	DefaultSendInterval    = 2 * time.Second
	DefaultSMTPPort        = 587
)

type Config struct {
	Input           string            `yaml:"input"`
	Template        string            `yaml:"template"`
	HTMLTemplate    string            `yaml:"html_template,omitempty"`
	From            string            `yaml:"from"`
	Subject         string            `yaml:"subject"`
	SMTP            SMTP              `yaml:"smtp"`
	DryRun          bool              `yaml:"dry_run,omitempty"`
	Attachments     []string          `yaml:"attachments,omitempty"`
	RecipientDomain string            `yaml:"recipient_domain"`
	SendInterval    time.Duration     `yaml:"send_interval"`
	Delimiter       string            `yaml:"delimiter"`
	KeyField        string            `yaml:"key_field,omitempty"`
	Epilogues       compose.Epilogues `yaml:"epilogues,omitempty"`
	Grading         score.Grading     `yaml:"grading,omitempty"`
	MetricsFile     string            `yaml:"metrics_file,omitempty"`
}

type SMTP struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Input:           DefaultInput,
		Template:        DefaultTemplate,
		SMTP:            SMTP{Port: DefaultSMTPPort},
		RecipientDomain: DefaultRecipientDomain,
		SendInterval:    DefaultSendInterval,
		Delimiter:       string(results.DefaultDelimiter),
	}
}

// Load reads the config file at path on top of DefaultConfig. Values missing
// from the file keep their defaults; environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyEnv()
	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		def := DefaultConfig()
		def.ApplyEnv()
		return &def, nil
	}
	return cfg, err
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

// ApplyEnv overrides fields with GRADENOTIFY_* environment variables.
func (c *Config) ApplyEnv() {
	c.Input = getEnvString("GRADENOTIFY_INPUT", c.Input)
	c.Template = getEnvString("GRADENOTIFY_TEMPLATE", c.Template)
	c.From = getEnvString("GRADENOTIFY_FROM", c.From)
	c.Subject = getEnvString("GRADENOTIFY_SUBJECT", c.Subject)
	c.SMTP.Host = getEnvString("GRADENOTIFY_SMTP_HOST", c.SMTP.Host)
	c.SMTP.Port = getEnvInt("GRADENOTIFY_SMTP_PORT", c.SMTP.Port)
	c.SMTP.User = getEnvString("GRADENOTIFY_SMTP_USER", c.SMTP.User)
	c.SMTP.InsecureSkipVerify = getEnvBool("GRADENOTIFY_SMTP_INSECURE_SKIP_VERIFY", c.SMTP.InsecureSkipVerify)
	c.DryRun = getEnvBool("GRADENOTIFY_DRY_RUN", c.DryRun)
	c.RecipientDomain = getEnvString("GRADENOTIFY_RECIPIENT_DOMAIN", c.RecipientDomain)
	c.MetricsFile = getEnvString("GRADENOTIFY_METRICS_FILE", c.MetricsFile)
}

// ResultsOptions returns the loader options described by the config.
func (c *Config) ResultsOptions() results.Options {
	opts := results.DefaultOptions()
	if r, _ := utf8.DecodeRuneInString(c.Delimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}
	opts.KeyField = c.KeyField
	return opts
}

// EffectiveGrading returns the configured grading table or DefaultGrading.
func (c *Config) EffectiveGrading() score.Grading {
	if len(c.Grading) == 0 {
		return score.DefaultGrading
	}
	return c.Grading
}

// Recipient returns the mail address of the student with the given id.
func (c *Config) Recipient(id string) string {
	return id + "@" + c.RecipientDomain
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.New("input file is required")
	}
	if strings.TrimSpace(c.Template) == "" && strings.TrimSpace(c.HTMLTemplate) == "" {
		return errors.New("template or html_template is required")
	}
	if strings.TrimSpace(c.From) == "" {
		return errors.New("from address is required")
	}
	if _, err := mail.ParseAddress(c.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", c.From, err)
	}
	if strings.TrimSpace(c.RecipientDomain) == "" {
		return errors.New("recipient_domain is required")
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	if c.SendInterval < 0 {
		return fmt.Errorf("send_interval must not be negative, got %s", c.SendInterval)
	}
	if !c.DryRun && strings.TrimSpace(c.SMTP.Host) == "" {
		return errors.New("smtp host is required unless dry_run is set")
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port %d out of range", c.SMTP.Port)
	}
	if len(c.Grading) > 0 {
		if err := c.Grading.Validate(); err != nil {
			return err
		}
	}
	return nil
}
