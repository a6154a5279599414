package core

import (
	"errors"
	"math"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{PlanID: "p1", OwnerID: "u1", Amount: 12.5, Category: CategoryFood}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{PlanID: "", OwnerID: "u1", Amount: 1},
		{PlanID: "p1", OwnerID: "", Amount: 1},
		{PlanID: "p1", OwnerID: "u1", Amount: 0},
		{PlanID: "p1", OwnerID: "u1", Amount: -5},
		{PlanID: "p1", OwnerID: "u1", Amount: math.NaN()},
		{PlanID: "p1", OwnerID: "u1", Amount: math.Inf(1)},
		{PlanID: "p1", OwnerID: "u1", Amount: 1, Currency: "TOO-LONG-CODE"},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestPlanValidate(t *testing.T) {
	people := 2
	budget := 3000.0
	good := Plan{OwnerID: "u1", Title: "Tokyo", Content: "Day 1: ...", NumPeople: &people, Budget: &budget, StartDate: "2025-05-01", EndDate: "2025-05-04"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := 0
	negative := -1.0
	bads := []Plan{
		{OwnerID: "", Title: "t", Content: "c"},
		{OwnerID: "u1", Title: " ", Content: "c"},
		{OwnerID: "u1", Title: "t", Content: ""},
		{OwnerID: "u1", Title: "t", Content: "c", NumPeople: &zero},
		{OwnerID: "u1", Title: "t", Content: "c", Budget: &negative},
		{OwnerID: "u1", Title: "t", Content: "c", StartDate: "01/05/2025"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPlanDateRange(t *testing.T) {
	cases := []struct {
		p    Plan
		want string
	}{
		{Plan{StartDate: "2025-05-01", EndDate: "2025-05-04"}, "2025-05-01 ~ 2025-05-04"},
		{Plan{StartDate: "2025-05-01"}, "2025-05-01"},
		{Plan{EndDate: "2025-05-04"}, "2025-05-04"},
		{Plan{}, ""},
	}
	for _, tc := range cases {
		if got := tc.p.DateRange(); got != tc.want {
			t.Fatalf("DateRange() = %q, want %q", got, tc.want)
		}
	}
}

func TestCoordinateValidate(t *testing.T) {
	if err := (Coordinate{Lng: 139.69, Lat: 35.68}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for i, c := range []Coordinate{{Lng: 181}, {Lat: -91}, {Lat: math.NaN()}} {
		var ve *ValidationError
		if err := c.Validate(); !errors.As(err, &ve) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
	}
}

func TestTripRequestValidate(t *testing.T) {
	if err := (TripRequest{Destination: "Kyoto", Budget: 5000, NumPeople: 2}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (TripRequest{Destination: ""}).Validate(); err == nil {
		t.Fatalf("expected error for empty destination")
	}
	if err := (TripRequest{Destination: "Kyoto", Budget: math.NaN()}).Validate(); err == nil {
		t.Fatalf("expected error for NaN budget")
	}
}
