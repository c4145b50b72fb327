package enrichment

import (
	"strings"
	"time"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityAlert    Severity = "alert"
	SeverityCritical Severity = "critical"
)

type Recall struct {
	RecallNumber string    `json:"recall_number"`
	Manufacturer string    `json:"manufacturer"`
	Component    string    `json:"component"`
	Summary      string    `json:"summary"`
	Consequence  string    `json:"consequence"`
	Remedy       string    `json:"remedy"`
	RecallDate   time.Time `json:"recall_date"`
	Severity     Severity  `json:"severity"`
}

type recallCampaign struct {
	manufacturers []string
	models        []string
	firstYear     int
	lastYear      int
	recall        Recall
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var recallCampaigns = []recallCampaign{
	{
		manufacturers: []string{"Toyota"},
		models:        []string{"Camry", "Corolla", "RAV4"},
		firstYear:     2018,
		lastYear:      2021,
		recall: Recall{
			RecallNumber: "21V-842",
			Manufacturer: "Toyota",
			Component:    "Fuel Pump",
			Summary:      "The fuel pump may fail, causing the engine to stall while driving.",
			Consequence:  "An engine stall while driving increases the risk of a crash.",
			Remedy:       "Dealers will replace the fuel pump free of charge.",
			RecallDate:   date(2021, time.October, 15),
			Severity:     SeverityCritical,
		},
	},
	{
		manufacturers: []string{"Honda"},
		models:        []string{"Civic", "Accord", "CR-V"},
		firstYear:     2016,
		lastYear:      2019,
		recall: Recall{
			RecallNumber: "19V-456",
			Manufacturer: "Honda",
			Component:    "Airbag Inflator",
			Summary:      "The front passenger airbag inflator may rupture during deployment.",
			Consequence:  "A rupturing inflator may cause metal fragments to strike vehicle occupants.",
			Remedy:       "Dealers will replace the airbag inflator free of charge.",
			RecallDate:   date(2019, time.August, 22),
			Severity:     SeverityCritical,
		},
	},
	{
		manufacturers: []string{"Ford"},
		models:        []string{"F-150", "Explorer"},
		firstYear:     2019,
		lastYear:      2022,
		recall: Recall{
			RecallNumber: "22V-123",
			Manufacturer: "Ford",
			Component:    "Rearview Camera",
			Summary:      "The rearview camera display may intermittently fail to display an image.",
			Consequence:  "A blank rearview display increases the risk of a crash while reversing.",
			Remedy:       "Dealers will update the software free of charge.",
			RecallDate:   date(2022, time.March, 8),
			Severity:     SeverityWarning,
		},
	},
	{
		manufacturers: []string{"Chevrolet", "GMC"},
		models:        []string{"Silverado", "Sierra", "Tahoe", "Yukon"},
		firstYear:     2020,
		lastYear:      2023,
		recall: Recall{
			RecallNumber: "23V-567",
			Manufacturer: "General Motors",
			Component:    "Brake Caliper Bolts",
			Summary:      "The front brake caliper bolts may loosen, causing brake issues.",
			Consequence:  "Loose brake caliper bolts can reduce braking performance.",
			Remedy:       "Dealers will inspect and replace bolts as necessary free of charge.",
			RecallDate:   date(2023, time.May, 12),
			Severity:     SeverityAlert,
		},
	},
	{
		manufacturers: []string{"Tesla"},
		models:        []string{"Model 3", "Model Y"},
		firstYear:     2021,
		lastYear:      2023,
		recall: Recall{
			RecallNumber: "23V-890",
			Manufacturer: "Tesla",
			Component:    "Suspension Links",
			Summary:      "Rear suspension upper links may be loose or damaged.",
			Consequence:  "Loose suspension components may affect vehicle handling.",
			Remedy:       "Tesla will inspect and replace affected parts free of charge.",
			RecallDate:   date(2023, time.July, 20),
			Severity:     SeverityWarning,
		},
	},
	{
		manufacturers: []string{"BMW"},
		models:        []string{"3 Series", "5 Series", "X3", "X5"},
		firstYear:     2017,
		lastYear:      2020,
		recall: Recall{
			RecallNumber: "20V-234",
			Manufacturer: "BMW",
			Component:    "EGR Module",
			Summary:      "The EGR (Exhaust Gas Recirculation) module may overheat.",
			Consequence:  "Overheating may cause vehicle fire in rare cases.",
			Remedy:       "Dealers will inspect and replace the EGR module free of charge.",
			RecallDate:   date(2020, time.November, 5),
			Severity:     SeverityCritical,
		},
	},
	{
		manufacturers: []string{"Nissan"},
		models:        []string{"Altima", "Rogue", "Pathfinder"},
		firstYear:     2018,
		lastYear:      2021,
		recall: Recall{
			RecallNumber: "21V-678",
			Manufacturer: "Nissan",
			Component:    "Occupant Detection System",
			Summary:      "The front passenger occupant detection system may malfunction.",
			Consequence:  "If the system fails, the airbag may not deploy properly in a crash.",
			Remedy:       "Dealers will update the software free of charge.",
			RecallDate:   date(2021, time.June, 30),
			Severity:     SeverityAlert,
		},
	},
	{
		manufacturers: []string{"Jeep"},
		models:        []string{"Wrangler", "Grand Cherokee"},
		firstYear:     2019,
		lastYear:      2022,
		recall: Recall{
			RecallNumber: "22V-789",
			Manufacturer: "Stellantis",
			Component:    "Fuel Line",
			Summary:      "Fuel lines may have been improperly attached.",
			Consequence:  "A loose fuel line may cause fuel leakage and fire risk.",
			Remedy:       "Dealers will inspect and properly attach fuel lines free of charge.",
			RecallDate:   date(2022, time.September, 14),
			Severity:     SeverityCritical,
		},
	},
}

// FindRecalls returns the recalls whose manufacturer, model and model year
// range match. Names match case-insensitively when either contains the other.
func FindRecalls(manufacturer, model string, year int) []Recall {
	matches := []Recall{}

	for _, campaign := range recallCampaigns {
		if year < campaign.firstYear || year > campaign.lastYear {
			continue
		}

		if containsEither(campaign.manufacturers, manufacturer) && containsEither(campaign.models, model) {
			matches = append(matches, campaign.recall)
		}
	}

	return matches
}

func containsEither(candidates []string, value string) bool {
	value = strings.ToLower(value)
	if value == "" {
		return false
	}

	for _, candidate := range candidates {
		candidate = strings.ToLower(candidate)
		if strings.Contains(value, candidate) || strings.Contains(candidate, value) {
			return true
		}
	}

	return false
}

// RecallPriority ranks a set of recalls by their most severe entry.
func RecallPriority(recalls []Recall) string {
	rank := map[Severity]int{}
	for _, recall := range recalls {
		rank[recall.Severity]++
	}

	switch {
	case rank[SeverityCritical] > 0:
		return "critical"
	case rank[SeverityAlert] > 0:
		return "high"
	case rank[SeverityWarning] > 0:
		return "medium"
	default:
		return "low"
	}
}
