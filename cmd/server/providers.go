package main

import (
	"context"
	"fmt"
	"strings"

	"oneridetho/internal/config"
	"oneridetho/internal/services"
	"oneridetho/pkg/email"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/maps"
	"oneridetho/pkg/oauth"
	"oneridetho/pkg/payment"
	"oneridetho/pkg/push"
	"oneridetho/pkg/sms"
	"oneridetho/pkg/storage"
)

// Each builder returns an untyped nil when its provider is not configured so
// the services can skip that channel.

func newMapsProvider(cfg *config.MapsConfig) (maps.MapsProvider, error) {
	if cfg.Provider != "google" {
		return nil, fmt.Errorf("unsupported maps provider %q", cfg.Provider)
	}
	if cfg.GoogleMaps.APIKey == "" {
		return nil, fmt.Errorf("GOOGLE_MAPS_API_KEY is required")
	}
	return maps.NewGoogleMapsProvider(cfg.GoogleMaps.APIKey, cfg.GoogleMaps.Region, cfg.GoogleMaps.Country)
}

func newSMSProvider(ctx context.Context, cfg *config.SMSConfig, log *logger.Logger) sms.SMSProvider {
	switch cfg.Provider {
	case "twilio":
		if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
			log.Warn("Twilio credentials missing, SMS disabled")
			return nil
		}
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	case "aws":
		provider, err := sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.SenderID)
		if err != nil {
			log.WithError(err).Warn("AWS SNS unavailable, SMS disabled")
			return nil
		}
		return provider
	default:
		log.Warnf("Unknown SMS provider %q, SMS disabled", cfg.Provider)
		return nil
	}
}

func newMailer(cfg *config.SMTPConfig, log *logger.Logger) email.Mailer {
	if cfg.Host == "" || cfg.Username == "" {
		log.Warn("SMTP credentials missing, email disabled")
		return nil
	}
	return email.NewSMTPMailer(email.SMTPConfig{
		Host:      cfg.Host,
		Port:      cfg.Port,
		Username:  cfg.Username,
		Password:  cfg.Password,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		SSL:       cfg.SSL,
		Timeout:   cfg.Timeout,
	})
}

func newPushSender(ctx context.Context, cfg *config.PushConfig, log *logger.Logger) services.PushSender {
	if !cfg.Enabled {
		return nil
	}

	var android, ios push.PushProvider
	if cfg.FCM.ProjectID != "" || cfg.FCM.Credentials != "" {
		fcm, err := push.NewFCMProvider(ctx, cfg.FCM.ProjectID, cfg.FCM.Credentials)
		if err != nil {
			log.WithError(err).Warn("FCM unavailable")
		} else {
			android = fcm
		}
	}
	if cfg.APNS.KeyFile != "" {
		apns, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			log.WithError(err).Warn("APNS unavailable")
		} else {
			ios = apns
		}
	}
	if android == nil && ios == nil {
		log.Warn("No push provider configured, push disabled")
		return nil
	}
	return push.NewRouter(android, ios)
}

func newPaymentGateways(cfg *config.PaymentConfig) []payment.Gateway {
	var gateways []payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateways = append(gateways, payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret))
	}
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		gateways = append(gateways, payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Webhook))
	}
	return gateways
}

func newStorageProvider(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "local":
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	case "aws":
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	case "gcp":
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}

func newGoogleOAuth(cfg *config.OAuthConfig) oauth.OAuthProvider {
	if !cfg.Google.Enabled() {
		return nil
	}
	return oauth.NewGoogleOAuthProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, cfg.Google.Scopes)
}
