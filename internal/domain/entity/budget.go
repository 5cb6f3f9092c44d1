package entity

import "time"

// ApprovedBudget is the per-category envelope attached to an approved travel request.
// A nil cap means the key was missing from the envelope.
type ApprovedBudget struct {
	ID                    int64     `json:"id"`
	TravelRequestID       int64     `json:"travel_request_id"`
	ReportID              *int64    `json:"report_id,omitempty"`
	Flights               *float64  `json:"flights,omitempty"`
	Accommodation         *float64  `json:"accommodation,omitempty"`
	AccommodationPerNight *float64  `json:"accommodation_per_night,omitempty"`
	Nights                int       `json:"nights,omitempty"`
	Meals                 *float64  `json:"meals,omitempty"`
	MealsPerDay           *float64  `json:"meals_per_day,omitempty"`
	Days                  int       `json:"days,omitempty"`
	Transport             *float64  `json:"transport,omitempty"`
	GrandTotal            *float64  `json:"grand_total,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// AccommodationCap returns the accommodation total, falling back to per-night × nights
func (b *ApprovedBudget) AccommodationCap() (float64, bool) {
	if b.Accommodation != nil {
		return *b.Accommodation, true
	}
	if b.AccommodationPerNight != nil {
		return *b.AccommodationPerNight * float64(b.Nights), true
	}
	return 0, false
}

// MealsCap returns the meals total, falling back to per-day × days
func (b *ApprovedBudget) MealsCap() (float64, bool) {
	if b.Meals != nil {
		return *b.Meals, true
	}
	if b.MealsPerDay != nil {
		return *b.MealsPerDay * float64(b.Days), true
	}
	return 0, false
}
