package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Abraxas-365/expomail/pkg/mailx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "MAIL_TRANSPORT", "PORT", "SMTP_HOST", "SMTP_PORT",
		"EMAIL_FROM", "MAIL_MAX_ATTEMPTS", "MAIL_QUEUE_SWEEP_INTERVAL",
		"TEMPLATE_STORAGE", "TEMPLATE_BUCKET", "AUTH_JWT_SECRET", "AUTH_API_KEY_HASH",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "smtp", cfg.Mail.Transport)
	assert.Equal(t, "local", cfg.Storage.TemplateStorage)
	assert.False(t, cfg.Auth.Enabled())
}

func TestLoad_MailDefaultsLeftToConstructors(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_FANOUT_DELAY", "")
	t.Setenv("TEMPLATE_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Mail.SMTPHost)
	assert.Zero(t, cfg.Mail.SMTPPort)
	assert.Zero(t, cfg.Mail.MaxAttempts)
	assert.Zero(t, cfg.Mail.SweepInterval)
	assert.Zero(t, cfg.Mail.FanoutDelay)
	assert.Zero(t, cfg.Redis.TemplateCacheTTL)

	m := cfg.Mail.ToMailx().WithDefaults()
	assert.Equal(t, "smtp.gmail.com", m.RelayHost)
	assert.Equal(t, 587, m.RelayPort)
	assert.Equal(t, mailx.DefaultMaxAttempts, m.MaxAttempts)
}

func TestValidate_NegativeAttempts(t *testing.T) {
	cfg := &Config{
		Mail:    MailConfig{Transport: "smtp", MaxAttempts: -1},
		Storage: StorageConfig{TemplateStorage: "local"},
	}
	require.Error(t, cfg.Validate())

	cfg.Mail.MaxAttempts = 0
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
mail:
  transport: console
  smtp_host: relay.internal
  from_address: yaml@expo.test
  max_attempts: 5
server:
  port: "9000"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	clearEnv(t)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("EMAIL_FROM", "env@expo.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "console", cfg.Mail.Transport)
	assert.Equal(t, "relay.internal", cfg.Mail.SMTPHost)
	assert.Equal(t, "env@expo.test", cfg.Mail.FromAddress)
	assert.Equal(t, 5, cfg.Mail.MaxAttempts)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoad_RejectsUnknownTransport(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_TRANSPORT", "pigeon")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate_S3NeedsBucket(t *testing.T) {
	cfg := &Config{
		Mail:    MailConfig{Transport: "smtp", MaxAttempts: 3},
		Storage: StorageConfig{TemplateStorage: "s3"},
	}
	require.Error(t, cfg.Validate())

	cfg.Storage.TemplateBucket = "expo-templates"
	require.NoError(t, cfg.Validate())
}

func TestMailConfig_ToMailx(t *testing.T) {
	m := MailConfig{
		SMTPHost:      "smtp.example.com",
		SMTPPort:      465,
		SMTPUser:      "user",
		SMTPPassword:  "secret",
		FromAddress:   "noreply@expo.test",
		FromName:      "Expo",
		TemplateDir:   "./templates",
		PublicBaseURL: "https://expo.test",
		MaxAttempts:   3,
	}

	got := m.ToMailx()
	assert.Equal(t, "smtp.example.com", got.RelayHost)
	assert.Equal(t, 465, got.RelayPort)
	assert.Equal(t, "secret", got.RelaySecret)
	assert.Equal(t, "https://expo.test", got.PublicBaseURL)
}
