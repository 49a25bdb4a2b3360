package config

import "time"

type MapsConfig struct {
	Provider   string            `yaml:"provider"`
	GoogleMaps *GoogleMapsConfig `yaml:"google_maps"`
	Timeout    time.Duration     `yaml:"timeout"`
}

type GoogleMapsConfig struct {
	APIKey  string `yaml:"api_key"`
	Region  string `yaml:"region"`
	Country string `yaml:"country"`
}

func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Provider: getEnv("MAPS_PROVIDER", "google"),
		GoogleMaps: &GoogleMapsConfig{
			APIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
			Region:  getEnv("GOOGLE_MAPS_REGION", "bs"),
			Country: getEnv("GOOGLE_MAPS_COUNTRY", "bs"),
		},
		Timeout: getEnvAsDuration("MAPS_TIMEOUT", 10*time.Second),
	}
}
