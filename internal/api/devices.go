package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-tilt/internal/devices"
)

// deviceView is a registry entry with its resolved sync targets.
type deviceView struct {
	MAC  string               `json:"mac"`
	Name string               `json:"name"`
	Sync []devices.SyncTarget `json:"sync"`
}

func (s *Server) view(e devices.Entry) deviceView {
	sync := s.registry.SyncTargets(e.Name)
	if sync == nil {
		sync = []devices.SyncTarget{}
	}
	return deviceView{MAC: e.MAC, Name: e.Name, Sync: sync}
}

func (s *Server) listDevices() []deviceView {
	entries := s.registry.Entries()
	out := make([]deviceView, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.view(e))
	}
	return out
}

// handleListDevices returns every known device sorted by MAC.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	list := s.listDevices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": list, "count": len(list)})
}

// handleGetDevice returns one device. The MAC may use any separator or case.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	mac := devices.NormalizeMAC(chi.URLParam(r, "mac"))
	if !devices.ValidMAC(mac) {
		writeBadRequest(w, "invalid MAC address")
		return
	}

	name, ok := s.registry.Name(mac)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, s.view(devices.Entry{MAC: mac, Name: name}))
}

// handleSetNames applies a JSON object of MAC → name overrides.
//
// Invalid or conflicting entries are skipped and logged, as they are on the
// names topic; the response carries the resulting name table.
func (s *Server) handleSetNames(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return
		}
		writeBadRequest(w, "failed to read request body")
		return
	}

	overrides, err := devices.ParseNameOverrides(body)
	if err != nil {
		writeBadRequest(w, "body must be a JSON object of MAC to name")
		return
	}

	if err := s.names.ApplyNameOverrides(overrides); err != nil {
		s.logger.Error("failed to apply name overrides", "error", err)
		writeInternalError(w, "failed to save names")
		return
	}

	list := s.listDevices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": list, "count": len(list)})
}
