package config

import "time"

type BookingConfig struct {
	BaseFare           float64 `yaml:"base_fare"`
	PerMile            float64 `yaml:"per_mile"`
	PerExtraPassenger  float64 `yaml:"per_extra_passenger"`
	PerStop            float64 `yaml:"per_stop"`
	NightFee           float64 `yaml:"night_fee"`
	NightStartHour     int     `yaml:"night_start_hour"`
	NightEndHour       int     `yaml:"night_end_hour"`
	MaxPassengers      int     `yaml:"max_passengers"`
	MaxStops           int     `yaml:"max_stops"`
	DefaultTip         float64 `yaml:"default_tip"`
	DriverDashboardURL string  `yaml:"driver_dashboard_url"`
	RequireVerified    bool    `yaml:"require_verified"`
}

type NotificationConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	BrandName   string        `yaml:"brand_name"`
}

func loadBookingConfig() *BookingConfig {
	return &BookingConfig{
		BaseFare:           getEnvAsFloat64("FARE_BASE", 10),
		PerMile:            getEnvAsFloat64("FARE_PER_MILE", 2),
		PerExtraPassenger:  getEnvAsFloat64("FARE_PER_EXTRA_PASSENGER", 2),
		PerStop:            getEnvAsFloat64("FARE_PER_STOP", 1),
		NightFee:           getEnvAsFloat64("FARE_NIGHT_FEE", 5),
		NightStartHour:     getEnvAsInt("FARE_NIGHT_START_HOUR", 23),
		NightEndHour:       getEnvAsInt("FARE_NIGHT_END_HOUR", 6),
		MaxPassengers:      getEnvAsInt("BOOKING_MAX_PASSENGERS", 4),
		MaxStops:           getEnvAsInt("BOOKING_MAX_STOPS", 3),
		DefaultTip:         getEnvAsFloat64("BOOKING_DEFAULT_TIP", 5),
		DriverDashboardURL: getEnv("DRIVER_DASHBOARD_URL", "https://driver-oneridetho.vercel.app/dashboard"),
		RequireVerified:    getEnvAsBool("BOOKING_REQUIRE_VERIFIED", false),
	}
}

func loadNotificationConfig() *NotificationConfig {
	return &NotificationConfig{
		Concurrency: getEnvAsInt("NOTIFICATION_CONCURRENCY", 8),
		Timeout:     getEnvAsDuration("NOTIFICATION_TIMEOUT", 10*time.Second),
		BrandName:   getEnv("NOTIFICATION_BRAND_NAME", "One Ride Tho"),
	}
}
