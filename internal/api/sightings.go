package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-tilt/internal/devices"
	"github.com/nerrad567/gray-logic-tilt/internal/sighting"
)

// handleListSightings returns every persisted sighting, most recent first.
func (s *Server) handleListSightings(w http.ResponseWriter, r *http.Request) {
	if s.sightings == nil {
		writeUnavailable(w, "sightings are not recorded")
		return
	}

	list, err := s.sightings.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list sightings", "error", err)
		writeInternalError(w, "failed to list sightings")
		return
	}
	if list == nil {
		list = []sighting.Sighting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sightings": list, "count": len(list)})
}

// handleGetSighting returns the sighting of one device.
func (s *Server) handleGetSighting(w http.ResponseWriter, r *http.Request) {
	if s.sightings == nil {
		writeUnavailable(w, "sightings are not recorded")
		return
	}

	mac := devices.NormalizeMAC(chi.URLParam(r, "mac"))
	if !devices.ValidMAC(mac) {
		writeBadRequest(w, "invalid MAC address")
		return
	}

	found, err := s.sightings.Get(r.Context(), mac)
	if errors.Is(err, sighting.ErrNotFound) {
		writeNotFound(w, "sighting not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get sighting", "mac", mac, "error", err)
		writeInternalError(w, "failed to get sighting")
		return
	}
	writeJSON(w, http.StatusOK, found)
}
