package config

import "time"

type PaymentConfig struct {
	DefaultProvider string          `yaml:"default_provider"` // stripe, razorpay
	Stripe          *StripeConfig   `yaml:"stripe"`
	Razorpay        *RazorpayConfig `yaml:"razorpay"`
	Currency        string          `yaml:"currency"`
	CheckoutTTL     time.Duration   `yaml:"checkout_ttl"`
	CallbackBaseURL string          `yaml:"callback_base_url"`
	// Absolute return URLs must match one of these origins. Relative paths
	// are always accepted.
	ReturnOrigins   []string        `yaml:"return_origins"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type RazorpayConfig struct {
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
	Webhook   string `yaml:"webhook_secret"`
}

func loadPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		DefaultProvider: getEnv("PAYMENT_DEFAULT_PROVIDER", "stripe"),
		Stripe: &StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Razorpay: &RazorpayConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			Webhook:   getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		},
		Currency:        getEnv("PAYMENT_CURRENCY", "USD"),
		CheckoutTTL:     getEnvAsDuration("PAYMENT_CHECKOUT_TTL", time.Hour),
		CallbackBaseURL: getEnv("PAYMENT_CALLBACK_BASE_URL", "http://localhost:8080/api/v1/payments/callback"),
		ReturnOrigins:   getEnvAsSlice("PAYMENT_RETURN_ORIGINS", []string{"http://localhost:3000", "oneridetho://"}),
	}
}
