package enrichment

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	defaultBasePrice        = 30000.0
	defaultDepreciationRate = 0.15
	expectedAnnualMileage   = 12000
	maxMileageAdjustment    = 0.15
	accidentReduction       = 0.07
	maxAccidentReduction    = 0.30
)

var baseMSRP = map[string]float64{
	"Toyota":        32000,
	"Honda":         30000,
	"Ford":          35000,
	"Chevrolet":     34000,
	"BMW":           55000,
	"Mercedes-Benz": 60000,
	"Audi":          52000,
	"Tesla":         50000,
	"Jeep":          38000,
	"Nissan":        28000,
	"Volkswagen":    30000,
	"Hyundai":       26000,
	"Kia":           25000,
	"Subaru":        32000,
	"Mazda":         28000,
	"Lexus":         48000,
	"Volvo":         45000,
}

var typeAdjustments = map[string]float64{
	"Truck":      1.2,
	"SUV":        1.1,
	"Sports Car": 1.3,
	"Luxury":     1.4,
	"Sedan":      1.0,
	"Coupe":      1.05,
}

var depreciationRates = map[string]float64{
	"Truck":      0.12,
	"SUV":        0.14,
	"Sedan":      0.16,
	"Coupe":      0.18,
	"Sports Car": 0.15,
	"Luxury":     0.20,
	"Electric":   0.18,
}

var conditionMultipliers = map[string]float64{
	"excellent": 1.10,
	"good":      1.00,
	"fair":      0.85,
	"poor":      0.70,
}

type ValuationInput struct {
	Manufacturer  string
	Model         string
	VehicleType   string
	Year          int
	Mileage       int
	Condition     string
	AccidentCount int
	PurchasePrice float64
}

type DepreciationFactor struct {
	FactorName        string  `json:"factor_name"`
	AdjustmentPercent float64 `json:"adjustment_percent"`
	Description       string  `json:"description"`
}

type Valuation struct {
	EstimatedValue      float64              `json:"estimated_value"`
	ValueLow            float64              `json:"value_low"`
	ValueHigh           float64              `json:"value_high"`
	ConfidenceLevel     string               `json:"confidence_level"`
	MarketCondition     string               `json:"market_condition"`
	ValueTrend          string               `json:"value_trend"`
	DepreciationFactors []DepreciationFactor `json:"depreciation_factors"`
	Notes               string               `json:"notes"`
}

// Valuate estimates the market value of a vehicle as of now.
func Valuate(input ValuationInput, now time.Time) Valuation {
	age := now.Year() - input.Year
	if age < 0 {
		age = 0
	}

	condition := strings.ToLower(input.Condition)
	if condition == "" {
		condition = "good"
	}

	base := input.PurchasePrice
	if base <= 0 {
		base = estimateBasePrice(input.Manufacturer, input.VehicleType)
	}

	var factors []DepreciationFactor

	value, depreciation := depreciate(base, age, input.VehicleType)
	factors = append(factors, DepreciationFactor{
		FactorName:        "Age Depreciation",
		AdjustmentPercent: round2(-depreciation),
		Description:       fmt.Sprintf("%d years of ownership depreciation", age),
	})

	value, mileageAdjustment := adjustForMileage(value, input.Mileage, age)
	factors = append(factors, DepreciationFactor{
		FactorName:        "Mileage Adjustment",
		AdjustmentPercent: round2(mileageAdjustment),
		Description:       fmt.Sprintf("%d miles vs %d expected", input.Mileage, age*expectedAnnualMileage),
	})

	multiplier, ok := conditionMultipliers[condition]
	if !ok {
		multiplier = 1.0
	}

	value *= multiplier
	factors = append(factors, DepreciationFactor{
		FactorName:        "Condition Rating",
		AdjustmentPercent: round2((multiplier - 1) * 100),
		Description:       fmt.Sprintf("Vehicle in %s condition", condition),
	})

	if input.AccidentCount > 0 {
		reduction := math.Min(maxAccidentReduction, float64(input.AccidentCount)*accidentReduction)
		value *= 1 - reduction
		factors = append(factors, DepreciationFactor{
			FactorName:        "Accident History",
			AdjustmentPercent: round2(-reduction * 100),
			Description:       fmt.Sprintf("%d accident(s) on record", input.AccidentCount),
		})
	}

	confidence := "high"
	if input.AccidentCount > 0 || age > 10 {
		confidence = "medium"
	}

	return Valuation{
		EstimatedValue:      round2(value),
		ValueLow:            round2(value * 0.92),
		ValueHigh:           round2(value * 1.08),
		ConfidenceLevel:     confidence,
		MarketCondition:     "normal",
		ValueTrend:          "stable",
		DepreciationFactors: factors,
		Notes:               fmt.Sprintf("Based on %s %s market analysis", input.Manufacturer, input.Model),
	}
}

func estimateBasePrice(manufacturer, vehicleType string) float64 {
	base, ok := baseMSRP[manufacturer]
	if !ok {
		base = defaultBasePrice
	}

	adjustment, ok := typeAdjustments[vehicleType]
	if !ok {
		adjustment = 1.0
	}

	return base * adjustment
}

// depreciate takes 20% in the first year and the type's annual rate after
// that; vehicles under a year old lose 5%.
func depreciate(base float64, age int, vehicleType string) (float64, float64) {
	rate, ok := depreciationRates[vehicleType]
	if !ok {
		rate = defaultDepreciationRate
	}

	var value float64
	if age >= 1 {
		value = base * 0.80 * math.Pow(1-rate, float64(age-1))
	} else {
		value = base * 0.95
	}

	return value, (1 - value/base) * 100
}

// adjustForMileage moves the value 2% per 10k miles away from the expected
// mileage, capped at 15% either way.
func adjustForMileage(value float64, mileage, age int) (float64, float64) {
	diff := float64(mileage - age*expectedAnnualMileage)
	rate := math.Max(-maxMileageAdjustment, math.Min(maxMileageAdjustment, 0.02*diff/10000))
	adjustment := 1 - rate

	return value * adjustment, (adjustment - 1) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
