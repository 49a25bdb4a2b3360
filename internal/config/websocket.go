package config

import (
	"time"
)

// TrackingConfig drives ride status polling and the live stream transport.
type TrackingConfig struct {
	DefaultPollInterval time.Duration    `yaml:"default_poll_interval"`
	MinPollInterval     time.Duration    `yaml:"min_poll_interval"`
	MaxPollInterval     time.Duration    `yaml:"max_poll_interval"`
	SearchCountdown     time.Duration    `yaml:"search_countdown"`
	LongPollTimeout     time.Duration    `yaml:"long_poll_timeout"`
	WebSocket           *WebSocketConfig `yaml:"websocket"`
}

type WebSocketConfig struct {
	ReadBufferSize    int           `yaml:"read_buffer_size"`
	WriteBufferSize   int           `yaml:"write_buffer_size"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	PingInterval      time.Duration `yaml:"ping_interval"`
	PongTimeout       time.Duration `yaml:"pong_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	EnableCompression bool          `yaml:"enable_compression"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
}

func loadTrackingConfig() *TrackingConfig {
	return &TrackingConfig{
		DefaultPollInterval: getEnvAsDuration("TRACKING_POLL_INTERVAL", 2*time.Second),
		MinPollInterval:     getEnvAsDuration("TRACKING_MIN_POLL_INTERVAL", time.Second),
		MaxPollInterval:     getEnvAsDuration("TRACKING_MAX_POLL_INTERVAL", 10*time.Second),
		SearchCountdown:     getEnvAsDuration("TRACKING_SEARCH_COUNTDOWN", 5*time.Minute),
		LongPollTimeout:     getEnvAsDuration("TRACKING_LONG_POLL_TIMEOUT", 25*time.Second),
		WebSocket:           loadWebSocketConfig(),
	}
}

func loadWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		ReadBufferSize:    getEnvAsInt("WEBSOCKET_READ_BUFFER_SIZE", 1024),
		WriteBufferSize:   getEnvAsInt("WEBSOCKET_WRITE_BUFFER_SIZE", 1024),
		HandshakeTimeout:  getEnvAsDuration("WEBSOCKET_HANDSHAKE_TIMEOUT", 10*time.Second),
		PingInterval:      getEnvAsDuration("WEBSOCKET_PING_INTERVAL", 54*time.Second),
		PongTimeout:       getEnvAsDuration("WEBSOCKET_PONG_TIMEOUT", 60*time.Second),
		WriteTimeout:      getEnvAsDuration("WEBSOCKET_WRITE_TIMEOUT", 10*time.Second),
		EnableCompression: getEnvAsBool("WEBSOCKET_ENABLE_COMPRESSION", true),
		AllowedOrigins:    getEnvAsSlice("WEBSOCKET_ALLOWED_ORIGINS", []string{"*"}),
	}
}
