package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tirs/Automotive-database-demo/pkg/eventbus"
	"github.com/tirs/Automotive-database-demo/pkg/events"
)

const deliveryHistory = 100

// Mailer consumes dispatch requests and simulates delivery by logging them.
// It keeps the most recent deliveries for inspection.
type Mailer struct {
	logger *slog.Logger

	mu        sync.Mutex
	delivered []events.MessageDispatchRequested
}

func NewMailer(logger *slog.Logger) *Mailer {
	return &Mailer{logger: logger.With("module", "mailer")}
}

// Register subscribes the mailer to dispatch requests on bus.
func (m *Mailer) Register(bus eventbus.EventSubscriber) error {
	return bus.Handle(events.MessageDispatchRequestedEvent, m.handle)
}

func (m *Mailer) handle(ctx context.Context, event any) error {
	request, ok := event.(*events.MessageDispatchRequested)
	if !ok {
		return fmt.Errorf("mailer: unexpected event %T", event)
	}

	m.logger.InfoContext(ctx, "Message delivered",
		"message_id", request.MessageID,
		"channel", request.Channel,
		"template", request.Template,
		"address", request.Address,
		"instance_id", request.InstanceID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.delivered = append(m.delivered, *request)
	if len(m.delivered) > deliveryHistory {
		m.delivered = m.delivered[len(m.delivered)-deliveryHistory:]
	}

	return nil
}

// Delivered returns the most recent deliveries, oldest first.
func (m *Mailer) Delivered() []events.MessageDispatchRequested {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]events.MessageDispatchRequested(nil), m.delivered...)
}
