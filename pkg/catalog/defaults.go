package catalog

import "github.com/tirs/Automotive-database-demo/pkg/models"

// DefaultTemplates returns fresh copies of the built-in templates.
func DefaultTemplates() []*models.WorkflowTemplate {
	return []*models.WorkflowTemplate{
		{
			ID:          "wf-001",
			Name:        "Post-Service Follow-up",
			Description: "Send follow-up communication after service completion",
			Category:    "customer_engagement",
			TriggerType: models.TriggerTypeEvent,
			TriggerConfig: map[string]any{
				"event":  "service_record_created",
				"filter": map[string]any{"service_type": []any{"repair", "maintenance"}},
			},
			Steps: []models.WorkflowStep{
				models.NewWorkflowStep("Wait 24 hours", models.StepTypeWait, map[string]any{"hours": 24}),
				models.NewWorkflowStep("Send follow-up email", models.StepTypeSendEmail, map[string]any{
					"template": "service_followup",
					"subject":  "How was your recent service?",
				}),
				models.NewWorkflowStep("Log notification", models.StepTypeCreateNotification, map[string]any{
					"type":     "survey_sent",
					"priority": "low",
				}),
			},
			IsActive: true,
		},
		{
			ID:          "wf-002",
			Name:        "Insurance Expiration Reminder",
			Description: "Send reminders before insurance expires",
			Category:    "compliance",
			TriggerType: models.TriggerTypeSchedule,
			TriggerConfig: map[string]any{
				"schedule":  "daily",
				"condition": "insurance_expiring_in_30_days",
			},
			Steps: []models.WorkflowStep{
				models.NewWorkflowStep("Check expiration window", models.StepTypeCondition, map[string]any{
					"check":     "days_until_expiration",
					"threshold": 30,
				}),
				models.NewWorkflowStep("Create expiration notification", models.StepTypeCreateNotification, map[string]any{
					"type":     "insurance_expiring",
					"priority": "high",
				}),
				models.NewWorkflowStep("Send reminder email", models.StepTypeSendEmail, map[string]any{
					"template": "insurance_reminder",
					"subject":  "Your insurance is expiring soon",
				}),
			},
			IsActive: true,
		},
		{
			ID:          "wf-003",
			Name:        "Service Due Reminder Sequence",
			Description: "Multi-step reminder sequence for upcoming service",
			Category:    "maintenance",
			TriggerType: models.TriggerTypeCondition,
			TriggerConfig: map[string]any{
				"condition": "service_due_within_14_days",
			},
			Steps: []models.WorkflowStep{
				models.NewWorkflowStep("Create initial reminder", models.StepTypeCreateNotification, map[string]any{
					"type":     "service_due_soon",
					"priority": "medium",
				}),
				models.NewWorkflowStep("Wait 7 days", models.StepTypeWait, map[string]any{"days": 7}),
				models.NewWorkflowStep("Check if scheduled", models.StepTypeCondition, map[string]any{
					"check":   "service_scheduled",
					"if_true": "end",
				}),
				models.NewWorkflowStep("Create urgent reminder", models.StepTypeCreateNotification, map[string]any{
					"type":     "service_due_urgent",
					"priority": "high",
				}),
				models.NewWorkflowStep("Send SMS reminder", models.StepTypeSendSMS, map[string]any{
					"template": "service_due_sms",
				}),
			},
			IsActive: true,
		},
		{
			ID:          "wf-004",
			Name:        "Recall Notification",
			Description: "Notify owners when a recall affects their vehicle",
			Category:    "safety",
			TriggerType: models.TriggerTypeEvent,
			TriggerConfig: map[string]any{
				"event": "recall_matched",
			},
			Steps: []models.WorkflowStep{
				models.NewWorkflowStep("Create recall notification", models.StepTypeCreateNotification, map[string]any{
					"type":     "recall_notice",
					"priority": "urgent",
				}),
				models.NewWorkflowStep("Send recall email", models.StepTypeSendEmail, map[string]any{
					"template": "recall_notice",
					"subject":  "Important Safety Recall Notice",
				}),
				models.NewWorkflowStep("Send recall SMS", models.StepTypeSendSMS, map[string]any{
					"template": "recall_sms",
				}),
			},
			IsActive: true,
		},
		{
			ID:          "wf-005",
			Name:        "New Vehicle Onboarding",
			Description: "Welcome sequence for new vehicles added to the system",
			Category:    "onboarding",
			TriggerType: models.TriggerTypeEvent,
			TriggerConfig: map[string]any{
				"event": "vehicle_created",
			},
			Steps: []models.WorkflowStep{
				models.NewWorkflowStep("Decode VIN information", models.StepTypeEnrichData, map[string]any{"action": "decode_vin"}),
				models.NewWorkflowStep("Check for open recalls", models.StepTypeCheckRecalls, map[string]any{}),
				models.NewWorkflowStep("Notify owner of setup", models.StepTypeCreateNotification, map[string]any{
					"type":     "vehicle_added",
					"priority": "low",
				}),
				models.NewWorkflowStep("Generate initial valuation", models.StepTypeGenerateValuation, map[string]any{}),
			},
			IsActive: true,
		},
	}
}
