package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"oneridetho/internal/config"
	"oneridetho/internal/models"
	"oneridetho/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotificationConfig() *config.NotificationConfig {
	return &config.NotificationConfig{Concurrency: 4, Timeout: time.Second, BrandName: "One Ride Tho"}
}

func TestFanOutIsolatesFailures(t *testing.T) {
	smsProvider := &fakeSMS{failFor: map[string]bool{"+12425550001": true}}
	mailer := &fakeMailer{}
	svc := NewNotificationService(newFakeDriverRepo(), smsProvider, mailer, nil, testNotificationConfig(), logger.NewNop())

	result := svc.FanOut(context.Background(), &models.Broadcast{
		Subject: "New Ride Alert",
		Body:    "New ride request",
		Phones:  []string{"+12425550001", "+12425550002"},
		Emails:  []string{"b@example.com"},
	})

	require.Len(t, result.Deliveries, 3)
	assert.Equal(t, 2, result.Sent())
	assert.Equal(t, 1, result.Failed())

	failed := result.Deliveries[0]
	assert.Equal(t, models.NotificationChannelSMS, failed.Channel)
	assert.Equal(t, "+12425550001", failed.Recipient)
	assert.Equal(t, models.NotificationStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, ErrUpstreamNotification.Error())

	assert.Equal(t, []string{"+12425550002"}, smsProvider.sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "b@example.com", mailer.sent[0].To)
	assert.Equal(t, "New Ride Alert", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTMLBody, "New ride request")
}

func TestNotifyDriversReachesEveryChannel(t *testing.T) {
	drivers := newFakeDriverRepo(
		&models.Driver{Name: "A", Phone: "+12425550010", Email: "a@example.com", DeviceToken: "tok-a", DevicePlatform: "android", Active: true},
		&models.Driver{Name: "B", Phone: "+12425550011", DeviceToken: "tok-b", DevicePlatform: "ios", Active: true},
		&models.Driver{Name: "C", Phone: "+12425550012", Active: false},
	)
	smsProvider := &fakeSMS{}
	mailer := &fakeMailer{}
	pusher := &fakePush{}
	svc := NewNotificationService(drivers, smsProvider, mailer, pusher, testNotificationConfig(), logger.NewNop())

	result, err := svc.NotifyDrivers(context.Background(), "New Ride Alert", "hello", map[string]string{"ride_id": "r1"})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Sent())
	assert.Zero(t, result.Failed())
	assert.ElementsMatch(t, []string{"+12425550010", "+12425550011"}, smsProvider.sent)
	assert.ElementsMatch(t, []string{"tok-a", "tok-b"}, pusher.sent)
	assert.Len(t, mailer.sent, 1)
}

func TestFanOutSkipsUnconfiguredChannels(t *testing.T) {
	svc := NewNotificationService(newFakeDriverRepo(), nil, nil, nil, testNotificationConfig(), logger.NewNop())

	result := svc.FanOut(context.Background(), &models.Broadcast{
		Body:    "hello",
		Phones:  []string{"+12425550001"},
		Emails:  []string{"a@example.com"},
		Devices: []models.PushDevice{{Token: "t", Platform: "android"}},
	})
	assert.Empty(t, result.Deliveries)
}

func TestSendPasswordRecovery(t *testing.T) {
	smsProvider := &fakeSMS{}
	mailer := &fakeMailer{failFor: map[string]bool{"down@example.com": true}}
	svc := NewNotificationService(newFakeDriverRepo(), smsProvider, mailer, nil, testNotificationConfig(), logger.NewNop())

	require.NoError(t, svc.SendPasswordRecovery(context.Background(), models.ContactEmail, "ana@example.com", "123456", 10*time.Minute))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "One Ride Tho Password Recovery", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].HTMLBody, "123456")

	require.NoError(t, svc.SendPasswordRecovery(context.Background(), models.ContactPhone, "+12425550001", "654321", 10*time.Minute))
	assert.Equal(t, []string{"+12425550001"}, smsProvider.sent)

	err := svc.SendPasswordRecovery(context.Background(), models.ContactEmail, "down@example.com", "1", time.Minute)
	assert.True(t, errors.Is(err, ErrUpstreamNotification))

	noSMS := NewNotificationService(newFakeDriverRepo(), nil, mailer, nil, testNotificationConfig(), logger.NewNop())
	err = noSMS.SendPasswordRecovery(context.Background(), models.ContactPhone, "+12425550001", "1", time.Minute)
	assert.ErrorIs(t, err, ErrUpstreamNotification)
}
