package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Expense category labels offered by the UI. Free text is accepted as well.
const (
	CategoryTransport = "Transport"
	CategoryLodging   = "Lodging"
	CategoryFood      = "Food"
	CategoryTickets   = "Tickets"
	CategoryShopping  = "Shopping"
	CategoryOther     = "Other"
)

// DefaultSpotName is used when a spot is saved without a name.
const DefaultSpotName = "Unnamed spot"

// DefaultCurrency is assumed by prompts when an expense carries no currency code.
const DefaultCurrency = "CNY"

type (
	// Plan is a saved itinerary owned by one user. Content never changes after save.
	Plan struct {
		ID          string    `json:"id" yaml:"id"`
		OwnerID     string    `json:"user_id" yaml:"user_id"`
		Title       string    `json:"title" yaml:"title"`
		Content     string    `json:"content" yaml:"content"`
		Destination string    `json:"destination,omitempty" yaml:"destination,omitempty"`
		StartDate   string    `json:"start_date,omitempty" yaml:"start_date,omitempty"`
		EndDate     string    `json:"end_date,omitempty" yaml:"end_date,omitempty"`
		Budget      *float64  `json:"budget,omitempty" yaml:"budget,omitempty"`
		NumPeople   *int      `json:"num_people,omitempty" yaml:"num_people,omitempty"`
		Preferences string    `json:"preferences,omitempty" yaml:"preferences,omitempty"`
		Public      bool      `json:"public" yaml:"public"`
		CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	}

	// Spot is a geolocated point of interest attached to a plan.
	Spot struct {
		ID          string    `json:"id" yaml:"id"`
		PlanID      string    `json:"plan_id" yaml:"plan_id"`
		Name        string    `json:"name" yaml:"name"`
		Description string    `json:"description,omitempty" yaml:"description,omitempty"`
		Latitude    float64   `json:"latitude" yaml:"latitude"`
		Longitude   float64   `json:"longitude" yaml:"longitude"`
		CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	}

	// Expense is a single recorded cost. Expenses are created and deleted, never edited.
	Expense struct {
		ID         string     `json:"id" yaml:"id"`
		PlanID     string     `json:"plan_id" yaml:"plan_id"`
		OwnerID    string     `json:"user_id" yaml:"user_id"`
		Amount     float64    `json:"amount" yaml:"amount"`
		Category   string     `json:"category,omitempty" yaml:"category,omitempty"`
		Currency   string     `json:"currency,omitempty" yaml:"currency,omitempty"`
		Note       string     `json:"note,omitempty" yaml:"note,omitempty"`
		OccurredAt *time.Time `json:"occurred_at,omitempty" yaml:"occurred_at,omitempty"`
		CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	}

	// Coordinate is a longitude/latitude pair, in the order map SDKs use.
	Coordinate struct {
		Lng float64 `json:"lng"`
		Lat float64 `json:"lat"`
	}

	// TripRequest carries the parameters a user enters before generating an itinerary.
	TripRequest struct {
		Destination string  `json:"destination"`
		StartDate   string  `json:"startDate"`
		EndDate     string  `json:"endDate"`
		Budget      float64 `json:"budgetCny"`
		NumPeople   int     `json:"numPeople"`
		Preferences string  `json:"preferences"`
	}
)

// Categories returns the fixed label set in display order.
func Categories() []string {
	return []string{CategoryTransport, CategoryLodging, CategoryFood, CategoryTickets, CategoryShopping, CategoryOther}
}

// DateRange renders the plan's date span the way it is shown to users.
func (p Plan) DateRange() string {
	switch {
	case p.StartDate != "" && p.EndDate != "":
		return p.StartDate + " ~ " + p.EndDate
	case p.StartDate != "":
		return p.StartDate
	default:
		return p.EndDate
	}
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return ErrNoOwner
	}
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if len(p.Title) > 200 {
		return invalid("title", "too long (max 200 characters)")
	}
	if strings.TrimSpace(p.Content) == "" {
		return invalid("content", "must not be empty")
	}
	if p.Budget != nil && !isNonNegative(*p.Budget) {
		return invalid("budget", "must be a non-negative number")
	}
	if p.NumPeople != nil && *p.NumPeople < 1 {
		return invalid("num_people", "must be at least 1")
	}
	if err := validateDate("start_date", p.StartDate); err != nil {
		return err
	}
	return validateDate("end_date", p.EndDate)
}

func (s Spot) Validate() error {
	if strings.TrimSpace(s.PlanID) == "" {
		return invalid("plan_id", "must not be empty")
	}
	return Coordinate{Lng: s.Longitude, Lat: s.Latitude}.Validate()
}

func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return invalid("latitude", "must be between -90 and 90")
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) || c.Lng < -180 || c.Lng > 180 {
		return invalid("longitude", "must be between -180 and 180")
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lng, c.Lat)
}

// Validate checks an expense before it is persisted. Stored data is not
// re-validated on read; the aggregator copes with whatever it is given.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.PlanID) == "" {
		return invalid("plan_id", "must not be empty")
	}
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrNoOwner
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(e.Note) > 500 {
		return invalid("note", "too long (max 500 characters)")
	}
	if len(e.Currency) > 10 {
		return invalid("currency", "too long (max 10 characters)")
	}
	return nil
}

func (r TripRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return invalid("destination", "must not be empty")
	}
	return r.ValidateNumbers()
}

// ValidateNumbers checks the numeric and date fields, which are optional.
func (r TripRequest) ValidateNumbers() error {
	if !isNonNegative(r.Budget) {
		return invalid("budgetCny", "must be a non-negative number")
	}
	if r.NumPeople < 0 {
		return invalid("numPeople", "must not be negative")
	}
	if err := validateDate("startDate", r.StartDate); err != nil {
		return err
	}
	return validateDate("endDate", r.EndDate)
}

func validateDate(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		return invalid(field, "must be a YYYY-MM-DD date")
	}
	return nil
}

func isNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
