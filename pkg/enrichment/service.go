package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
)

const ActionDecodeVIN = "decode_vin"

var (
	ErrVINRequired       = errors.New("trigger data has no vin")
	ErrUnsupportedAction = errors.New("unsupported enrichment action")
)

// Service backs the enrichment step types with the VIN, recall and valuation
// tables of this package. The vehicle is identified by trigger_data["vin"].
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		logger: logger.With("module", "enrichment"),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) vehicle(stepCtx protocol.StepContext) (*VehicleInfo, error) {
	vin, ok := stepCtx.TriggerData["vin"].(string)
	if !ok || vin == "" {
		return nil, ErrVINRequired
	}

	return DecodeVIN(vin)
}

func (s *Service) Enrich(ctx context.Context, action string, stepCtx protocol.StepContext) (map[string]any, error) {
	if action != ActionDecodeVIN {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAction, action)
	}

	info, err := s.vehicle(stepCtx)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "VIN decoded", "vin", info.VIN, "instance_id", stepCtx.InstanceID)

	return map[string]any{
		"vin_decoded": true,
		"vehicle":     vehiclePayload(info),
	}, nil
}

func (s *Service) CheckRecalls(ctx context.Context, stepCtx protocol.StepContext) (map[string]any, error) {
	info, err := s.vehicle(stepCtx)
	if err != nil {
		return nil, err
	}

	recalls := FindRecalls(info.Manufacturer, info.Model, info.Year)

	numbers := make([]any, len(recalls))
	for i, recall := range recalls {
		numbers[i] = recall.RecallNumber
	}

	s.logger.DebugContext(ctx, "Recalls checked", "vin", info.VIN, "recalls", len(recalls), "instance_id", stepCtx.InstanceID)

	return map[string]any{
		"recalls_checked": true,
		"total_recalls":   len(recalls),
		"recall_numbers":  numbers,
		"priority":        RecallPriority(recalls),
	}, nil
}

// Valuate reads optional mileage and accident_count from the trigger data.
// Without a mileage the expected mileage for the vehicle's age is assumed.
func (s *Service) Valuate(ctx context.Context, condition string, stepCtx protocol.StepContext) (map[string]any, error) {
	info, err := s.vehicle(stepCtx)
	if err != nil {
		return nil, err
	}

	now := s.now()

	age := now.Year() - info.Year
	if age < 0 {
		age = 0
	}

	mileage := age * expectedAnnualMileage
	if raw, ok := models.NumberValue(stepCtx.TriggerData["mileage"]); ok {
		mileage = int(raw)
	}

	accidents := 0
	if raw, ok := models.NumberValue(stepCtx.TriggerData["accident_count"]); ok {
		accidents = int(raw)
	}

	valuation := Valuate(ValuationInput{
		Manufacturer:  info.Manufacturer,
		Model:         info.Model,
		VehicleType:   info.VehicleType,
		Year:          info.Year,
		Mileage:       mileage,
		Condition:     condition,
		AccidentCount: accidents,
	}, now)

	s.logger.DebugContext(ctx, "Vehicle valued", "vin", info.VIN, "estimated_value", valuation.EstimatedValue, "instance_id", stepCtx.InstanceID)

	return map[string]any{
		"valuation_generated": true,
		"estimated_value":     valuation.EstimatedValue,
		"value_low":           valuation.ValueLow,
		"value_high":          valuation.ValueHigh,
		"confidence_level":    valuation.ConfidenceLevel,
		"value_trend":         valuation.ValueTrend,
	}, nil
}

func vehiclePayload(info *VehicleInfo) map[string]any {
	return map[string]any{
		"vin":           info.VIN,
		"manufacturer":  info.Manufacturer,
		"model":         info.Model,
		"year":          info.Year,
		"vehicle_type":  info.VehicleType,
		"engine_size":   info.EngineSize,
		"fuel_type":     info.FuelType,
		"transmission":  info.Transmission,
		"drive_type":    info.DriveType,
		"doors":         info.Doors,
		"plant_country": info.PlantCountry,
	}
}
