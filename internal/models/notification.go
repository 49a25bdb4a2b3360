package models

type NotificationChannel string
type NotificationStatus string

const (
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelPush  NotificationChannel = "push"

	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

type PushDevice struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Broadcast is one message addressed to many recipients on several channels.
type Broadcast struct {
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
	Phones  []string          `json:"phones"`
	Emails  []string          `json:"emails"`
	Devices []PushDevice      `json:"devices"`
}

type Delivery struct {
	Channel   NotificationChannel `json:"channel"`
	Recipient string              `json:"recipient"`
	Status    NotificationStatus  `json:"status"`
	Error     string              `json:"error,omitempty"`
}

type FanOutResult struct {
	Deliveries []Delivery `json:"deliveries"`
}

func (r *FanOutResult) Sent() int {
	return r.count(NotificationStatusSent)
}

func (r *FanOutResult) Failed() int {
	return r.count(NotificationStatusFailed)
}

func (r *FanOutResult) count(status NotificationStatus) int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Status == status {
			n++
		}
	}
	return n
}
