// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/tirs/Automotive-database-demo/pkg/models"

const (
	demoVehicleID = "demo-vehicle-001"
	demoOwnerID   = "demo-owner-001"
	demoVIN       = "4T1BF1FK5MU000004"
	demoMileage   = 45000
)

// CancelInstanceRequest is the optional body of a cancel call.
type CancelInstanceRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// DemoResponse is returned by the single-template demo.
type DemoResponse struct {
	TemplateUsed    *models.WorkflowTemplate `json:"template_used"`
	ExecutionResult *models.ExecutionResult  `json:"execution_result"`
	Note            string                   `json:"note"`
}

// DemoRun is one template's outcome in the run-everything demo. Exactly one
// of Result and Error is set.
type DemoRun struct {
	Template string                  `json:"template"`
	Category string                  `json:"category,omitempty"`
	Result   *models.ExecutionResult `json:"result,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

type DemoAllResponse struct {
	WorkflowsExecuted int       `json:"workflows_executed"`
	Results           []DemoRun `json:"results"`
}

// demoTriggerData is the trigger payload used by the demo endpoints. It
// carries a VIN and mileage so enrichment steps have something to decode.
func demoTriggerData() map[string]any {
	return map[string]any{
		"source":  "demo_api",
		"vin":     demoVIN,
		"mileage": demoMileage,
	}
}
