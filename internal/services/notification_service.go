package services

import (
	"context"
	"fmt"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/internal/repositories/interfaces"
	"oneridetho/pkg/email"
	"oneridetho/pkg/logger"
	"oneridetho/pkg/push"
	"oneridetho/pkg/sms"

	"golang.org/x/sync/errgroup"
)

type NotificationService interface {
	// FanOut never fails: per-recipient errors are logged and reported in
	// the result.
	FanOut(ctx context.Context, broadcast *models.Broadcast) *models.FanOutResult
	NotifyDrivers(ctx context.Context, subject, body string, data map[string]string) (*models.FanOutResult, error)
	NotifyDriver(ctx context.Context, driver *models.Driver, subject, body string, data map[string]string) *models.FanOutResult
	SendPasswordRecovery(ctx context.Context, kind models.ContactKind, contact, code string, valid time.Duration) error
}

// PushSender delivers to a device on a given platform. push.Router
// implements it.
type PushSender interface {
	Send(ctx context.Context, platform string, request *push.NotificationRequest) (*push.NotificationResponse, error)
}

type notificationService struct {
	driverRepo interfaces.DriverRepository
	sms        sms.SMSProvider
	mailer     email.Mailer
	push       PushSender
	cfg        config.NotificationConfig
	logger     *logger.Logger
}

func NewNotificationService(
	driverRepo interfaces.DriverRepository,
	smsProvider sms.SMSProvider,
	mailer email.Mailer,
	pushSender PushSender,
	cfg *config.NotificationConfig,
	logger *logger.Logger,
) NotificationService {
	c := *cfg
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return &notificationService{
		driverRepo: driverRepo,
		sms:        smsProvider,
		mailer:     mailer,
		push:       pushSender,
		cfg:        c,
		logger:     logger,
	}
}

type delivery struct {
	channel   models.NotificationChannel
	recipient string
	send      func(ctx context.Context) error
}

func (s *notificationService) FanOut(ctx context.Context, broadcast *models.Broadcast) *models.FanOutResult {
	jobs := s.plan(broadcast)
	result := &models.FanOutResult{Deliveries: make([]models.Delivery, len(jobs))}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			result.Deliveries[i] = s.deliver(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	if failed := result.Failed(); failed > 0 {
		s.logger.WithFields(map[string]interface{}{
			"sent":   result.Sent(),
			"failed": failed,
		}).Warn("Notification fan-out finished with failures")
	}
	return result
}

func (s *notificationService) deliver(ctx context.Context, job delivery) models.Delivery {
	d := models.Delivery{Channel: job.channel, Recipient: job.recipient, Status: models.NotificationStatusSent}

	sendCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	if err := job.send(sendCtx); err != nil {
		err = fmt.Errorf("%w: %v", ErrUpstreamNotification, err)
		s.logger.LogNotificationFailure(string(job.channel), job.recipient, err)
		d.Status = models.NotificationStatusFailed
		d.Error = err.Error()
	}
	return d
}

// plan expands a broadcast into one delivery per recipient and channel.
func (s *notificationService) plan(b *models.Broadcast) []delivery {
	var jobs []delivery

	if s.sms != nil {
		for _, phone := range b.Phones {
			if phone == "" {
				continue
			}
			to := phone
			jobs = append(jobs, delivery{
				channel:   models.NotificationChannelSMS,
				recipient: to,
				send: func(ctx context.Context) error {
					_, err := s.sms.SendSMS(ctx, &sms.SMSRequest{To: to, Message: b.Body, Type: "transactional"})
					return err
				},
			})
		}
	}

	if s.mailer != nil && len(b.Emails) > 0 {
		html, err := email.RideAlert(s.cfg.BrandName, b.Body)
		if err != nil {
			s.logger.WithError(err).Error("Failed to render ride alert email")
		} else {
			for _, addr := range b.Emails {
				if addr == "" {
					continue
				}
				to := addr
				jobs = append(jobs, delivery{
					channel:   models.NotificationChannelEmail,
					recipient: to,
					send: func(ctx context.Context) error {
						return s.mailer.Send(ctx, &email.Message{To: to, Subject: b.Subject, HTMLBody: html, TextBody: b.Body})
					},
				})
			}
		}
	}

	if s.push != nil {
		for _, device := range b.Devices {
			if device.Token == "" {
				continue
			}
			dev := device
			jobs = append(jobs, delivery{
				channel:   models.NotificationChannelPush,
				recipient: dev.Token,
				send: func(ctx context.Context) error {
					resp, err := s.push.Send(ctx, dev.Platform, &push.NotificationRequest{
						Token:    dev.Token,
						Title:    b.Subject,
						Body:     b.Body,
						Data:     b.Data,
						Priority: "high",
					})
					if err != nil {
						return err
					}
					if resp != nil && !resp.Success {
						return fmt.Errorf("push rejected: %s", resp.Error)
					}
					return nil
				},
			})
		}
	}

	return jobs
}

func (s *notificationService) NotifyDrivers(ctx context.Context, subject, body string, data map[string]string) (*models.FanOutResult, error) {
	drivers, err := s.driverRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load drivers: %w", err)
	}
	return s.FanOut(ctx, broadcastTo(drivers, subject, body, data)), nil
}

func (s *notificationService) NotifyDriver(ctx context.Context, driver *models.Driver, subject, body string, data map[string]string) *models.FanOutResult {
	return s.FanOut(ctx, broadcastTo([]*models.Driver{driver}, subject, body, data))
}

func (s *notificationService) SendPasswordRecovery(ctx context.Context, kind models.ContactKind, contact, code string, valid time.Duration) error {
	minutes := int(valid.Minutes())

	switch kind {
	case models.ContactEmail:
		if s.mailer == nil {
			return fmt.Errorf("%w: email is not configured", ErrUpstreamNotification)
		}
		html, err := email.PasswordRecovery(s.cfg.BrandName, code, minutes)
		if err != nil {
			return err
		}
		if err := s.mailer.Send(ctx, &email.Message{To: contact, Subject: s.cfg.BrandName + " Password Recovery", HTMLBody: html}); err != nil {
			s.logger.LogNotificationFailure(string(models.NotificationChannelEmail), contact, err)
			return fmt.Errorf("%w: %v", ErrUpstreamNotification, err)
		}
	case models.ContactPhone:
		if s.sms == nil {
			return fmt.Errorf("%w: sms is not configured", ErrUpstreamNotification)
		}
		msg := fmt.Sprintf("Your %s password recovery code is %s. It is valid for %d minutes.", s.cfg.BrandName, code, minutes)
		if _, err := s.sms.SendSMS(ctx, &sms.SMSRequest{To: contact, Message: msg, Type: "otp"}); err != nil {
			s.logger.LogNotificationFailure(string(models.NotificationChannelSMS), contact, err)
			return fmt.Errorf("%w: %v", ErrUpstreamNotification, err)
		}
	default:
		return invalidInput("contact", "unsupported contact type")
	}
	return nil
}

func broadcastTo(drivers []*models.Driver, subject, body string, data map[string]string) *models.Broadcast {
	b := &models.Broadcast{Subject: subject, Body: body, Data: data}
	for _, d := range drivers {
		if d == nil {
			continue
		}
		if d.Phone != "" {
			b.Phones = append(b.Phones, d.Phone)
		}
		if d.Email != "" {
			b.Emails = append(b.Emails, d.Email)
		}
		if d.DeviceToken != "" {
			b.Devices = append(b.Devices, models.PushDevice{Token: d.DeviceToken, Platform: d.DevicePlatform})
		}
	}
	return b
}
