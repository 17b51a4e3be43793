package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-profiler/internal/device"
	"github.com/nerrad567/gray-logic-profiler/internal/profile"
	"github.com/nerrad567/gray-logic-profiler/internal/scoring"
)

// Query limits for the history endpoint.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// handleListProfiles returns every current profile.
//
// Query parameters:
//   - status: filter by status (confirmed, proposed, tracking)
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	var status scoring.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := scoring.ParseStatus(raw)
		if !ok {
			writeBadRequest(w, "status must be confirmed, proposed or tracking")
			return
		}
		status = st
	}

	profiles, err := s.store.ListCurrent(r.Context(), status)
	if err != nil {
		s.logger.Error("listing profiles failed", "error", err)
		writeInternalError(w, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []*profile.DeviceProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles, "count": len(profiles)})
}

// handleGetProfile returns the current profile for one device key.
//
// Query parameters:
//   - firmware: exact firmware; omitted means the firmware-less key
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	p, err := s.store.Current(r.Context(), id)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			writeNotFound(w, "no profile for "+id.Key())
			return
		}
		s.logger.Error("loading profile failed", "device", id.Key(), "error", err)
		writeInternalError(w, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleProfileHistory returns past profiles for one device key, newest first.
//
// Query parameters:
//   - firmware: as for handleGetProfile
//   - limit: 1..500, default 20
func (s *Server) handleProfileHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeBadRequest(w, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	profiles, err := s.store.History(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("loading profile history failed", "device", id.Key(), "error", err)
		writeInternalError(w, "failed to get profile history")
		return
	}
	if profiles == nil {
		profiles = []*profile.DeviceProfile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles, "count": len(profiles)})
}

// handleResolveProfile resolves one device key now and hands the profile
// to the configured sinks, like a one-device batch.
func (s *Server) handleResolveProfile(w http.ResponseWriter, r *http.Request) {
	if s.resolver == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "resolver not configured")
		return
	}
	id, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	batch := profile.NewBatch(s.resolver, s.batch, s.sinks...)
	batch.SetLogger(s.logger.With("request_id", r.Context().Value(ctxKeyRequestID)))

	result, err := batch.Run(r.Context(), []device.Identity{id})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		writeInternalError(w, "resolution interrupted")
		return
	}
	for _, f := range result.Failures {
		if f.Stage != profile.StageResolve {
			continue
		}
		if errors.Is(f.Err, device.ErrInvalidIdentity) {
			writeValidationError(w, f.Reason)
			return
		}
		writeInternalError(w, "failed to resolve "+id.Key())
		return
	}
	if len(result.Profiles) == 0 {
		writeInternalError(w, "failed to resolve "+id.Key())
		return
	}

	w.Header().Set("X-Run-ID", result.RunID)
	writeJSON(w, http.StatusOK, result.Profiles[0])
}

// identityFromRequest builds the device identity from the path and the
// firmware query parameter. It writes a 400 and returns false when invalid.
func identityFromRequest(w http.ResponseWriter, r *http.Request) (device.Identity, bool) {
	vendor, err := url.PathUnescape(chi.URLParam(r, "vendor"))
	if err != nil {
		writeBadRequest(w, "invalid vendor")
		return device.Identity{}, false
	}
	product, err := url.PathUnescape(chi.URLParam(r, "product"))
	if err != nil {
		writeBadRequest(w, "invalid product")
		return device.Identity{}, false
	}

	id := device.NewIdentity(vendor, product, r.URL.Query().Get("firmware"))
	if err := id.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return device.Identity{}, false
	}
	return id, true
}
