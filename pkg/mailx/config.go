package mailx

import (
	"net/mail"
	"strings"
)

// DefaultMaxAttempts bounds delivery attempts per message: one immediate
// try plus two sweeps.
const DefaultMaxAttempts = 3

// Config is the dispatcher's explicit configuration.
type Config struct {
	RelayHost     string
	RelayPort     int
	RelayUser     string
	RelaySecret   string
	FromAddress   string
	FromName      string
	TemplateDir   string
	PublicBaseURL string
	MaxAttempts   int
}

// WithDefaults fills unset fields. Called once by New.
func (c Config) WithDefaults() Config {
	if c.RelayHost == "" {
		c.RelayHost = "smtp.gmail.com"
	}
	if c.RelayPort == 0 {
		c.RelayPort = 587
	}
	if c.FromAddress == "" {
		c.FromAddress = c.RelayUser
	}
	if c.FromAddress == "" {
		c.FromAddress = "noreply@localhost"
	}
	if c.FromName == "" {
		c.FromName = "Expo Marketplace"
	}
	if c.TemplateDir == "" {
		c.TemplateDir = "./templates"
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:5173"
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Sender is the default From header value.
func (c Config) Sender() string {
	return (&mail.Address{Name: c.FromName, Address: c.FromAddress}).String()
}

// Link joins path onto the public web-app base URL.
func (c Config) Link(path string) string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
