package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName    string
	Port      string
	Turso     TursoConfig
	ProjectID string
	Slack     SlackConfig
	R2        R2Config
	Payment   PaymentConfig
	// BaseURL is the public address of this service, used for checkout links.
	BaseURL       string
	TournamentTTL time.Duration
}
type SlackConfig struct {
	Token     string
	ChannelID string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}
type PaymentConfig struct {
	Provider string
	Secret   string
}
