package notifications

import (
	"strings"

	"github.com/tirs/Automotive-database-demo/pkg/models"
)

// TypeInfo is the display content and default priority of a notification type.
type TypeInfo struct {
	Title    string
	Message  string
	Priority models.NotificationPriority
	Category string
}

const fallbackType = "service_due"

var notificationTypes = map[string]TypeInfo{
	"service_due": {
		Title:    "Service Due Soon",
		Message:  "Your {vehicle} is due for scheduled maintenance.",
		Priority: models.NotificationPriorityMedium,
		Category: "maintenance",
	},
	"service_due_soon": {
		Title:    "Service Due Soon",
		Message:  "Service for your {vehicle} is due within the next 14 days.",
		Priority: models.NotificationPriorityMedium,
		Category: "maintenance",
	},
	"service_due_urgent": {
		Title:    "Service Overdue",
		Message:  "Service for your {vehicle} is still not scheduled. Book an appointment now.",
		Priority: models.NotificationPriorityHigh,
		Category: "maintenance",
	},
	"insurance_expiring": {
		Title:    "Insurance Expiring Soon",
		Message:  "The insurance policy for your {vehicle} expires soon. Renew to maintain coverage.",
		Priority: models.NotificationPriorityHigh,
		Category: "insurance",
	},
	"inspection_due": {
		Title:    "Inspection Due",
		Message:  "Your {vehicle} needs an inspection to remain compliant.",
		Priority: models.NotificationPriorityHigh,
		Category: "compliance",
	},
	"warranty_expiring": {
		Title:    "Warranty Expiring Soon",
		Message:  "The warranty on your {vehicle} ends soon. Consider extended coverage.",
		Priority: models.NotificationPriorityMedium,
		Category: "warranty",
	},
	"recall_notice": {
		Title:    "Safety Recall Notice",
		Message:  "Your {vehicle} has an open safety recall. Contact your dealer immediately.",
		Priority: models.NotificationPriorityUrgent,
		Category: "safety",
	},
	"document_expiring": {
		Title:    "Document Expiring",
		Message:  "A document for your {vehicle} expires soon. Upload an updated version.",
		Priority: models.NotificationPriorityMedium,
		Category: "documents",
	},
	"payment_due": {
		Title:    "Payment Due",
		Message:  "Your financing payment for your {vehicle} is due soon.",
		Priority: models.NotificationPriorityHigh,
		Category: "financial",
	},
	"prediction_alert": {
		Title:    "Maintenance Predicted",
		Message:  "Usage patterns suggest your {vehicle} will need service soon.",
		Priority: models.NotificationPriorityMedium,
		Category: "ai_insights",
	},
	"vehicle_added": {
		Title:    "Vehicle Added",
		Message:  "Your {vehicle} is set up. VIN details, recalls and valuation are ready.",
		Priority: models.NotificationPriorityLow,
		Category: "onboarding",
	},
	"survey_sent": {
		Title:    "Service Survey Sent",
		Message:  "We sent a short survey about the recent service on your {vehicle}.",
		Priority: models.NotificationPriorityLow,
		Category: "customer_engagement",
	},
}

// LookupType returns the entry for name, falling back to service_due for
// unknown types. The bool reports whether name itself was known.
func LookupType(name string) (TypeInfo, bool) {
	info, ok := notificationTypes[name]
	if !ok {
		return notificationTypes[fallbackType], false
	}

	return info, true
}

func renderMessage(message, vehicleID string) string {
	vehicle := "vehicle"
	if vehicleID != "" {
		vehicle = "vehicle " + vehicleID
	}

	return strings.ReplaceAll(message, "{vehicle}", vehicle)
}
