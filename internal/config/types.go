package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName      string
	Port        string
	Turso       TursoConfig
	ProjectID   string
	Slack       SlackConfig
	Redis       RedisConfig
	Inngest     InngestConfig
	Negotiation NegotiationConfig
	Auth        AuthConfig
}
type SlackConfig struct {
	Token     string
	ChannelID string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}
type InngestConfig struct {
	AppID      string
	SigningKey string
	EventKey   string
	Dev        bool
	SweepCron  string
}

// AuthConfig selects how the acting user is established. With a JWT secret
// set, callers must present a bearer token; otherwise the X-User-ID header set
// by the gateway is trusted.
type AuthConfig struct {
	JWTSecret string
}

// NegotiationConfig tunes the negotiation engine.
type NegotiationConfig struct {
	MaxRounds        int
	InactivityWindow time.Duration
}

// Enabled reports whether the Inngest integration has been configured.
func (c InngestConfig) Enabled() bool {
	return c.AppID != ""
}

// Enabled reports whether Slack notifications have been configured.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}
