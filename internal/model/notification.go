package model

import "time"

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
	NotificationInfo    NotificationKind = "info"
)

// NotificationEvent names the action behind a notification when a consumer
// treats it specially. Most notifications carry none.
type NotificationEvent string

const EventRegistered NotificationEvent = "registered"

// Notification is a transient, user-visible message produced by a user action.
type Notification struct {
	Kind          NotificationKind  `json:"kind"`
	Event         NotificationEvent `json:"event,omitempty"`
	Message       string            `json:"message"`
	Subject       string            `json:"subject,omitempty"`
	Recipient     string            `json:"recipient,omitempty"`
	RecipientName string            `json:"recipient_name,omitempty"`
	ClientID      string            `json:"client_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
