package models

import "time"

type ResetState string

const (
	ResetStateContact ResetState = "Contact"
	ResetStateVerify  ResetState = "Verify"
	ResetStateReset   ResetState = "Reset"
)

type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

// PasswordReset is the persisted state of one reset flow.
type PasswordReset struct {
	FlowID      string      `json:"flow_id"`
	State       ResetState  `json:"state"`
	Contact     string      `json:"contact"`
	ContactKind ContactKind `json:"contact_kind"`
	AccountID   string      `json:"account_id"`
	CodeHash    string      `json:"code_hash"`
	Attempts    int         `json:"attempts"`
	ExpiresAt   time.Time   `json:"expires_at"`
	CreatedAt   time.Time   `json:"created_at"`
}
