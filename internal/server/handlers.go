package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wealthpulse/signals/internal/modules/snapshot"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "wealthpulse-signals",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// snapshotResponse is the latest-run payload: run metadata plus its rows
// with the reasons JSON inlined.
type snapshotResponse struct {
	Run  *snapshot.Run        `json:"run"`
	Rows []recommendationView `json:"rows"`
}

type recommendationView struct {
	Ticker     string          `json:"ticker"`
	Segment    string          `json:"segment"`
	Action     string          `json:"action"`
	Direction  string          `json:"direction"`
	Score      int             `json:"score"`
	Confidence float64         `json:"confidence"`
	Reasons    json.RawMessage `json:"reasons"`
}

// handleLatestSnapshot returns the most recent run of a kind with its rows.
// An empty database yields a null run and empty rows, not an error.
// GET /api/snapshots/{kind}/latest
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != snapshot.KindFreshSignals && kind != snapshot.KindInstitutional13F {
		s.writeError(w, http.StatusNotFound, "unknown snapshot kind")
		return
	}

	resp, err := s.latestSnapshot(kind)
	if err != nil {
		s.log.Error().Err(err).Str("kind", kind).Msg("Failed to load latest run")
		s.writeError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleLatestSnapshots returns the most recent run of every kind.
// GET /api/snapshots/latest
func (s *Server) handleLatestSnapshots(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]snapshotResponse, 2)
	for _, kind := range []string{snapshot.KindFreshSignals, snapshot.KindInstitutional13F} {
		resp, err := s.latestSnapshot(kind)
		if err != nil {
			s.log.Error().Err(err).Str("kind", kind).Msg("Failed to load latest run")
			s.writeError(w, http.StatusInternalServerError, "failed to load latest run")
			return
		}
		out[kind] = resp
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) latestSnapshot(kind string) (snapshotResponse, error) {
	run, err := s.repo.LatestRun(kind)
	if err != nil {
		return snapshotResponse{}, err
	}
	if run == nil {
		return snapshotResponse{Rows: []recommendationView{}}, nil
	}

	recs, err := s.repo.RecommendationsForRun(run.ID)
	if err != nil {
		return snapshotResponse{}, err
	}

	rows := make([]recommendationView, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, recommendationView{
			Ticker:     rec.Ticker,
			Segment:    rec.Segment,
			Action:     string(rec.Action),
			Direction:  string(rec.Direction),
			Score:      rec.Score,
			Confidence: rec.Confidence,
			Reasons:    json.RawMessage(rec.Reasons),
		})
	}
	return snapshotResponse{Run: run, Rows: rows}, nil
}

// handleLatestSegments returns the segment assignments of the most recent
// fresh-signals run.
// GET /api/segments/latest
func (s *Server) handleLatestSegments(w http.ResponseWriter, r *http.Request) {
	segs, err := s.repo.LatestSegments()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load latest segments")
		s.writeError(w, http.StatusInternalServerError, "failed to load segments")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"segments": segs,
	})
}

// handleTriggerSnapshot runs the snapshot job immediately.
// POST /api/jobs/snapshot
func (s *Server) handleTriggerSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshotJob == nil || s.sched == nil {
		s.writeError(w, http.StatusServiceUnavailable, "snapshot job not registered")
		return
	}

	s.log.Info().Msg("Manual snapshot run triggered")
	if err := s.sched.RunNow(s.snapshotJob); err != nil {
		s.log.Error().Err(err).Msg("Snapshot run failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Snapshot run completed",
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
