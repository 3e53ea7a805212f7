package config

import (
	"time"

	"github.com/Abraxas-365/expomail/pkg/mailx"
)

// MailConfig configures the relay, sender identity and dispatcher tuning.
// Unset values stay zero; mailx.Config.WithDefaults, NewSweeper and
// notify.New fill them when the services are constructed.
type MailConfig struct {
	Transport     string `yaml:"transport"`
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPUser      string `yaml:"smtp_user"`
	SMTPPassword  string `yaml:"smtp_password"`
	SMTPSecurity  string `yaml:"smtp_security"`
	FromAddress   string `yaml:"from_address"`
	FromName      string `yaml:"from_name"`
	TemplateDir   string `yaml:"template_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	AWSRegion     string `yaml:"aws_region"`

	DKIMSelector   string `yaml:"dkim_selector"`
	DKIMDomain     string `yaml:"dkim_domain"`
	DKIMPrivateKey string `yaml:"dkim_private_key"`
	DKIMKeyPath    string `yaml:"dkim_key_path"`

	MaxAttempts   int           `yaml:"max_attempts"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	FanoutDelay   time.Duration `yaml:"fanout_delay"`
}

func loadMailConfig(base MailConfig) MailConfig {
	return MailConfig{
		Transport:     getEnv("MAIL_TRANSPORT", orString(base.Transport, "smtp")),
		SMTPHost:      getEnv("SMTP_HOST", base.SMTPHost),
		SMTPPort:      getEnvInt("SMTP_PORT", base.SMTPPort),
		SMTPUser:      getEnv("SMTP_USER", base.SMTPUser),
		SMTPPassword:  getEnv("SMTP_PASS", base.SMTPPassword),
		SMTPSecurity:  getEnv("SMTP_SECURITY", base.SMTPSecurity),
		FromAddress:   getEnv("EMAIL_FROM", base.FromAddress),
		FromName:      getEnv("EMAIL_FROM_NAME", base.FromName),
		TemplateDir:   getEnv("TEMPLATE_DIR", base.TemplateDir),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", base.PublicBaseURL),
		AWSRegion:     getEnv("AWS_REGION", orString(base.AWSRegion, "us-east-1")),

		DKIMSelector:   getEnv("DKIM_SELECTOR", base.DKIMSelector),
		DKIMDomain:     getEnv("DKIM_DOMAIN", base.DKIMDomain),
		DKIMPrivateKey: getEnv("DKIM_PRIVATE_KEY", base.DKIMPrivateKey),
		DKIMKeyPath:    getEnv("DKIM_KEY_PATH", base.DKIMKeyPath),

		MaxAttempts:   getEnvInt("MAIL_MAX_ATTEMPTS", base.MaxAttempts),
		SweepInterval: getEnvDuration("MAIL_QUEUE_SWEEP_INTERVAL", base.SweepInterval),
		FanoutDelay:   getEnvDuration("MAIL_FANOUT_DELAY", base.FanoutDelay),
	}
}

// ToMailx produces the dispatcher's explicit configuration. Defaults for
// empty values are applied by mailx.New, not here.
func (m MailConfig) ToMailx() mailx.Config {
	return mailx.Config{
		RelayHost:     m.SMTPHost,
		RelayPort:     m.SMTPPort,
		RelayUser:     m.SMTPUser,
		RelaySecret:   m.SMTPPassword,
		FromAddress:   m.FromAddress,
		FromName:      m.FromName,
		TemplateDir:   m.TemplateDir,
		PublicBaseURL: m.PublicBaseURL,
		MaxAttempts:   m.MaxAttempts,
	}
}
