package config

import "time"

type SMTPConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	FromEmail string        `yaml:"from_email"`
	FromName  string        `yaml:"from_name"`
	SSL       bool          `yaml:"ssl"`
	Timeout   time.Duration `yaml:"timeout"`
}

func loadSMTPConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:      getEnv("SMTP_HOST", "smtp.hostinger.com"),
		Port:      getEnvAsInt("SMTP_PORT", 465),
		Username:  getEnv("SMTP_USERNAME", ""),
		Password:  getEnv("SMTP_PASSWORD", ""),
		FromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@oneridetho.com"),
		FromName:  getEnv("SMTP_FROM_NAME", "One Ride Tho"),
		SSL:       getEnvAsBool("SMTP_SSL", true),
		Timeout:   getEnvAsDuration("SMTP_TIMEOUT", 15*time.Second),
	}
}
