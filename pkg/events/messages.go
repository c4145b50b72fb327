package events

import "github.com/tirs/Automotive-database-demo/pkg/models"

// MessageDispatchRequested asks a delivery worker to send an email or SMS.
type MessageDispatchRequested struct {
	BaseEvent

	MessageID string                `json:"message_id"`
	Channel   models.MessageChannel `json:"channel"`
	Template  string                `json:"template"`
	Address   string                `json:"address"`
	OwnerID   string                `json:"owner_id,omitempty"`
	VehicleID string                `json:"vehicle_id,omitempty"`
}

func (e MessageDispatchRequested) GetType() EventType {
	return MessageDispatchRequestedEvent
}

type NotificationCreated struct {
	BaseEvent

	Notification models.Notification `json:"notification"`
}

func (e NotificationCreated) GetType() EventType {
	return NotificationCreatedEvent
}
