package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRideAlertEscapesBody(t *testing.T) {
	html, err := RideAlert("One Ride Tho", "New ride request from <Ann>.")
	require.NoError(t, err)

	assert.Contains(t, html, "<title>New Ride Alert</title>")
	assert.Contains(t, html, "New ride request from &lt;Ann&gt;.")
	assert.Contains(t, html, "Regards,<br />One Ride Tho Team")
	assert.NotContains(t, html, "<h2")
}

func TestPasswordRecoveryIncludesCode(t *testing.T) {
	html, err := PasswordRecovery("One Ride Tho", "483920", 10)
	require.NoError(t, err)

	assert.Contains(t, html, "483920</h2>")
	assert.Contains(t, html, "valid for 10 minutes")
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{FromEmail: "noreply@oneridetho.com", FromName: "One Ride Tho"})

	_, err := mailer.buildMessage(&Message{To: "not-an-address", Subject: "x", HTMLBody: "y"})
	assert.Error(t, err)

	msg, err := mailer.buildMessage(&Message{To: "driver@example.com", Subject: "New Ride Alert", HTMLBody: "<p>hi</p>"})
	require.NoError(t, err)
	assert.NotNil(t, msg)
}
