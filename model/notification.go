package model

import (
	"encoding/json"
	"errors"
	"time"
)

type NotificationType string

const (
	NotificationInvite       NotificationType = "INV"
	NotificationReminder     NotificationType = "REM"
	NotificationResponse     NotificationType = "RES"
	NotificationUpdate       NotificationType = "UPD"
	NotificationCancellation NotificationType = "CAN"
)

func (t NotificationType) Label() string {
	switch t {
	case NotificationInvite:
		return "Invite"
	case NotificationReminder:
		return "Reminder"
	case NotificationResponse:
		return "Response"
	case NotificationUpdate:
		return "Update"
	case NotificationCancellation:
		return "Cancellation"
	default:
		return string(t)
	}
}

type Notification struct {
	ID             int              `json:"id"`
	RecipientEmail string           `json:"recipient_email"`
	SenderEmail    *string          `json:"sender_email"`
	Type           NotificationType `json:"notification_type"`
	IsRead         bool             `json:"is_read"`
	IsSeen         bool             `json:"is_seen"`
	ObjectID       *int             `json:"object_id"`
	ContentObject  json.RawMessage  `json:"content_object"`
	Message        string           `json:"message"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Invitation decodes the content object of INV and RES notifications.
func (n Notification) Invitation() (Invitation, error) {
	var inv Invitation
	if len(n.ContentObject) == 0 || string(n.ContentObject) == "null" {
		return inv, errors.New("notification has no content object")
	}
	if err := json.Unmarshal(n.ContentObject, &inv); err != nil {
		return inv, err
	}
	return inv, nil
}

type NotificationList struct {
	Results     []Notification `json:"results"`
	UnseenCount *int           `json:"unseenCount"`
	UnreadCount *int           `json:"unreadCount"`
}
