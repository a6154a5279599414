package services

import (
	"context"
	"fmt"
	"strings"

	"tripplan/internal/core"
	"tripplan/internal/log"
	"tripplan/internal/proxy"
	"tripplan/internal/storage"
)

// SpotInput is a manually entered spot.
type SpotInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// AddressInput is a spot located by geocoding an address.
type AddressInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
}

// ClickHandler receives a map click. It is invoked at most once per click,
// synchronously, and returns the spot the click created.
type ClickHandler interface {
	OnMapClick(ctx context.Context, at core.Coordinate) (core.Spot, error)
}

// ClickHandlerFunc adapts a function to ClickHandler.
type ClickHandlerFunc func(ctx context.Context, at core.Coordinate) (core.Spot, error)

func (f ClickHandlerFunc) OnMapClick(ctx context.Context, at core.Coordinate) (core.Spot, error) {
	return f(ctx, at)
}

// Geocoder resolves addresses. *proxy.Service satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, creds proxy.Credentials, address, city string) (proxy.GeocodeResult, error)
}

type SpotService struct {
	repo     storage.Repository
	geocoder Geocoder
	deps     Deps
}

func NewSpotService(repo storage.Repository, geocoder Geocoder, deps Deps) *SpotService {
	return &SpotService{repo: repo, geocoder: geocoder, deps: deps.withDefaults(log.ComponentSpot)}
}

func (s *SpotService) Add(ctx context.Context, planID string, in SpotInput) (core.Spot, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return core.Spot{}, err
	}

	spot, err := s.repo.CreateSpot(ctx, owner, core.Spot{
		PlanID:      planID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	})
	if err != nil {
		return core.Spot{}, err
	}
	s.deps.Logger.InfoContext(ctx, "Spot added",
		log.FieldPlanID, planID,
		log.FieldSpotID, spot.ID,
		log.FieldOperation, log.OpCreate)
	return spot, nil
}

// AddByAddress geocodes the address and stores the first match. When nothing
// matches, no spot is stored and the geocode result is returned with Found false.
func (s *SpotService) AddByAddress(ctx context.Context, creds proxy.Credentials, planID string, in AddressInput) (core.Spot, proxy.GeocodeResult, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return core.Spot{}, proxy.GeocodeResult{}, err
	}
	if _, err := s.repo.GetPlan(ctx, planID, owner); err != nil {
		return core.Spot{}, proxy.GeocodeResult{}, err
	}

	res, err := s.geocoder.Geocode(ctx, creds, in.Address, in.City)
	if err != nil {
		return core.Spot{}, proxy.GeocodeResult{}, fmt.Errorf("geocode spot: %w", err)
	}
	if !res.Found {
		return core.Spot{}, res, nil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSpace(in.Address)
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = res.FormattedAddress
	}
	spot, err := s.Add(ctx, planID, SpotInput{
		Name:        name,
		Description: desc,
		Latitude:    res.Location.Lat,
		Longitude:   res.Location.Lng,
	})
	return spot, res, err
}

// ClickHandler returns a handler that adds a spot with the given name to
// planID wherever the map is clicked.
func (s *SpotService) ClickHandler(planID, name string) ClickHandler {
	return ClickHandlerFunc(func(ctx context.Context, at core.Coordinate) (core.Spot, error) {
		return s.Add(ctx, planID, SpotInput{Name: name, Latitude: at.Lat, Longitude: at.Lng})
	})
}

// List returns the plan's spots, newest first. The plan must belong to the caller.
func (s *SpotService) List(ctx context.Context, planID string) ([]core.Spot, error) {
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPlan(ctx, planID, owner); err != nil {
		return nil, err
	}
	return s.repo.ListSpots(ctx, planID, owner)
}

func (s *SpotService) Delete(ctx context.Context, planID, spotID string) error {
	owner, err := currentUser(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteSpot(ctx, spotID, planID, owner)
}
