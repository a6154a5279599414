package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tripplan/internal/core"
	"tripplan/internal/proxy"
	"tripplan/internal/services"
)

func (s *Server) handleListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := s.svc.Spots.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spots)
}

type addSpotResponse struct {
	Spot    *core.Spot           `json:"spot,omitempty"`
	Geocode *proxy.GeocodeResult `json:"geocode,omitempty"`
}

// handleAddSpot stores a spot from coordinates, or from an address when one
// is given. An address with no geocoding match stores nothing and answers 200
// with the fallback message.
func (s *Server) handleAddSpot(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "id")
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}

	if address := p.Get("address"); address != "" {
		spot, res, err := s.svc.Spots.AddByAddress(r.Context(), proxy.CredentialsFromRequest(r), planID, services.AddressInput{
			Name:        p.Get("name"),
			Description: p.Get("description"),
			Address:     address,
			City:        p.Get("city"),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !res.Found {
			writeJSON(w, http.StatusOK, addSpotResponse{Geocode: &res})
			return
		}
		writeJSON(w, http.StatusCreated, addSpotResponse{Spot: &spot, Geocode: &res})
		return
	}

	lat, err := p.Float("latitude")
	if err != nil {
		writeError(w, r, err)
		return
	}
	lng, err := p.Float("longitude")
	if err != nil {
		writeError(w, r, err)
		return
	}
	spot, err := s.svc.Spots.Add(r.Context(), planID, services.SpotInput{
		Name:        p.Get("name"),
		Description: p.Get("description"),
		Latitude:    lat,
		Longitude:   lng,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addSpotResponse{Spot: &spot})
}

type mapClickRequest struct {
	Name string  `json:"name"`
	Lng  float64 `json:"lng"`
	Lat  float64 `json:"lat"`
}

// handleMapClick turns one map click into one spot.
func (s *Server) handleMapClick(w http.ResponseWriter, r *http.Request) {
	var req mapClickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h := s.svc.Spots.ClickHandler(chi.URLParam(r, "id"), req.Name)
	spot, err := h.OnMapClick(r.Context(), core.Coordinate{Lng: req.Lng, Lat: req.Lat})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, spot)
}

func (s *Server) handleDeleteSpot(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Spots.Delete(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "spotID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
