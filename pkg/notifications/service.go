// Package notifications creates in-app notifications and dispatches email
// and SMS messages for workflow steps.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tirs/Automotive-database-demo/pkg/eventbus"
	"github.com/tirs/Automotive-database-demo/pkg/events"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxIDAttempts    = 5
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidPriority      = errors.New("invalid notification priority")
	ErrNoFreeID             = errors.New("failed to generate a free notification id")
)

// ListOptions filters List results. Zero values match everything.
type ListOptions struct {
	VehicleID string
	OwnerID   string
	Status    models.NotificationStatus
	Priority  models.NotificationPriority
	Limit     int
}

func (o ListOptions) matches(n *models.Notification) bool {
	if o.VehicleID != "" && n.VehicleID != o.VehicleID {
		return false
	}

	if o.OwnerID != "" && n.OwnerID != o.OwnerID {
		return false
	}

	if o.Status != "" && n.Status != o.Status {
		return false
	}

	if o.Priority != "" && n.Priority != o.Priority {
		return false
	}

	return true
}

// Service stores notifications in memory for the lifetime of the process.
type Service struct {
	mu            sync.RWMutex
	notifications map[string]*models.Notification
	sequence      map[string]int
	next          int

	publisher eventbus.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

// WithPublisher announces every created notification on the event bus.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the random short id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func NewService(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		notifications: make(map[string]*models.Notification),
		sequence:      make(map[string]int),
		logger:        logger.With("module", "notifications"),
		now:           time.Now,
		newID: func() string {
			return "notif-" + uuid.New().String()[:8]
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateNotification stores a notification of the given type for the step's
// vehicle and owner. An empty priority uses the type's default.
func (s *Service) CreateNotification(
	ctx context.Context,
	notificationType string,
	priority models.NotificationPriority,
	stepCtx protocol.StepContext,
) (string, error) {
	info, known := LookupType(notificationType)
	if !known {
		s.logger.WarnContext(ctx, "Unknown notification type, using fallback content",
			"notification_type", notificationType, "fallback", fallbackType)
	}

	if priority == "" {
		priority = info.Priority
	}

	if !priority.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	notification := &models.Notification{
		VehicleID:        stepCtx.VehicleID,
		OwnerID:          stepCtx.OwnerID,
		InstanceID:       stepCtx.InstanceID,
		Title:            info.Title,
		Message:          renderMessage(info.Message, stepCtx.VehicleID),
		Priority:         priority,
		NotificationType: notificationType,
		Category:         info.Category,
		Status:           models.NotificationStatusUnread,
		ActionURL:        "/" + info.Category,
		ActionLabel:      "View Details",
		CreatedAt:        s.now().UTC(),
	}

	s.mu.Lock()

	id, ok := s.freeID()
	if !ok {
		s.mu.Unlock()

		return "", fmt.Errorf("%w after %d attempts", ErrNoFreeID, maxIDAttempts)
	}

	notification.ID = id
	s.notifications[notification.ID] = notification
	s.sequence[notification.ID] = s.next
	s.next++
	snapshot := *notification
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Notification created",
		"notification_id", snapshot.ID,
		"notification_type", notificationType,
		"priority", priority,
		"instance_id", stepCtx.InstanceID)

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, snapshot.ID, events.NotificationCreated{
			BaseEvent:    events.NewBaseEvent(events.NotificationCreatedEvent, stepCtx.InstanceID, stepCtx.TemplateID),
			Notification: snapshot,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to publish notification event", "notification_id", snapshot.ID, "error", err)
		}
	}

	return snapshot.ID, nil
}

// freeID must be called with s.mu held.
func (s *Service) freeID() (string, bool) {
	for range maxIDAttempts {
		id := s.newID()
		if _, taken := s.notifications[id]; !taken {
			return id, true
		}
	}

	return "", false
}

// List returns matching notifications, newest first.
func (s *Service) List(_ context.Context, opts ListOptions) []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Notification, 0)

	for _, notification := range s.notifications {
		if opts.matches(notification) {
			result = append(result, clone(notification))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}

		return s.sequence[result[i].ID] > s.sequence[result[j].ID]
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if len(result) > limit {
		result = result[:limit]
	}

	return result
}

// Summary counts stored notifications.
type Summary struct {
	Total      int                                 `json:"total"`
	ByStatus   map[models.NotificationStatus]int   `json:"by_status"`
	ByPriority map[models.NotificationPriority]int `json:"by_priority"`
	ByCategory map[string]int                      `json:"by_category"`
}

// Summary counts every stored notification by status, priority and category.
func (s *Service) Summary(_ context.Context) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{
		Total:      len(s.notifications),
		ByStatus:   make(map[models.NotificationStatus]int),
		ByPriority: make(map[models.NotificationPriority]int),
		ByCategory: make(map[string]int),
	}

	for _, n := range s.notifications {
		summary.ByStatus[n.Status]++
		summary.ByPriority[n.Priority]++
		summary.ByCategory[n.Category]++
	}

	return summary
}

func (s *Service) Get(_ context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notification, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}

	return clone(notification), nil
}

// MarkRead sets the status to read and stamps ReadAt.
func (s *Service) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	return s.update(ctx, id, func(n *models.Notification) {
		readAt := s.now().UTC()
		n.Status = models.NotificationStatusRead
		n.ReadAt = &readAt
	})
}

func (s *Service) Dismiss(ctx context.Context, id string) (*models.Notification, error) {
	return s.update(ctx, id, func(n *models.Notification) {
		n.Status = models.NotificationStatusDismissed
	})
}

func (s *Service) update(ctx context.Context, id string, apply func(*models.Notification)) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotificationNotFound, id)
	}

	apply(notification)

	s.logger.DebugContext(ctx, "Notification updated", "notification_id", id, "status", notification.Status)

	return clone(notification), nil
}

func clone(n *models.Notification) *models.Notification {
	snapshot := *n
	if n.ReadAt != nil {
		readAt := *n.ReadAt
		snapshot.ReadAt = &readAt
	}

	return &snapshot
}
