package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tirs/Automotive-database-demo/pkg/eventbus"
	"github.com/tirs/Automotive-database-demo/pkg/events"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
)

const (
	DefaultEmailAddress = "owner@example.com"
	DefaultPhoneNumber  = "+15555550100"
)

var (
	ErrUnsupportedChannel = errors.New("unsupported message channel")
	ErrTemplateRequired   = errors.New("message template is required")
)

// Dispatcher hands email and SMS messages to the event bus. A message counts
// as sent once the dispatch request is published; delivery happens in the
// Mailer.
type Dispatcher struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewDispatcher(publisher eventbus.EventPublisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    logger.With("module", "dispatcher"),
	}
}

func (d *Dispatcher) SendMessage(
	ctx context.Context,
	channel models.MessageChannel,
	templateName string,
	recipient protocol.Recipient,
) (*protocol.DispatchReceipt, error) {
	if templateName == "" {
		return nil, ErrTemplateRequired
	}

	var address string

	switch channel {
	case models.MessageChannelEmail:
		address = recipient.Email
		if address == "" {
			address = DefaultEmailAddress
		}
	case models.MessageChannelSMS:
		address = recipient.Phone
		if address == "" {
			address = DefaultPhoneNumber
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChannel, channel)
	}

	messageID := "msg-" + uuid.New().String()[:8]

	event := events.MessageDispatchRequested{
		BaseEvent: events.NewBaseEvent(events.MessageDispatchRequestedEvent, recipient.InstanceID, recipient.TemplateID),
		MessageID: messageID,
		Channel:   channel,
		Template:  templateName,
		Address:   address,
		OwnerID:   recipient.OwnerID,
		VehicleID: recipient.VehicleID,
	}

	err := d.publisher.Publish(ctx, messageID, event)
	if err != nil {
		return nil, fmt.Errorf("failed to publish %s dispatch: %w", channel, err)
	}

	d.logger.InfoContext(ctx, "Message dispatch requested",
		"message_id", messageID,
		"channel", channel,
		"template", templateName,
		"instance_id", recipient.InstanceID)

	return &protocol.DispatchReceipt{MessageID: messageID, Address: address}, nil
}
