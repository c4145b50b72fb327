package models

import "time"

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

func (p NotificationPriority) Valid() bool {
	switch p {
	case NotificationPriorityLow, NotificationPriorityMedium, NotificationPriorityHigh, NotificationPriorityUrgent:
		return true
	default:
		return false
	}
}

type NotificationStatus string

const (
	NotificationStatusUnread    NotificationStatus = "unread"
	NotificationStatusRead      NotificationStatus = "read"
	NotificationStatusDismissed NotificationStatus = "dismissed"
)

// Notification is an in-app message created by a create_notification step.
type Notification struct {
	ID               string               `json:"id"`
	VehicleID        string               `json:"vehicle_id,omitempty"`
	OwnerID          string               `json:"owner_id,omitempty"`
	InstanceID       string               `json:"instance_id,omitempty"`
	Title            string               `json:"title"`
	Message          string               `json:"message"`
	Priority         NotificationPriority `json:"priority"`
	NotificationType string               `json:"notification_type"`
	Category         string               `json:"category"`
	Status           NotificationStatus   `json:"status"`
	ActionURL        string               `json:"action_url,omitempty"`
	ActionLabel      string               `json:"action_label,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	ReadAt           *time.Time           `json:"read_at,omitempty"`
}

// MessageChannel is the transport used by send_email and send_sms steps.
type MessageChannel string

const (
	MessageChannelEmail MessageChannel = "email"
	MessageChannelSMS   MessageChannel = "sms"
)
