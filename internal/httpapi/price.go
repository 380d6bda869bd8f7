package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mnm-site/internal/domain"
)

// Observation listing bounds.
const (
	DefaultObservationLimit = 20
	MaxObservationLimit     = 200
)

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	res, err := s.opts.Snapshots.Current(r.Context())
	if err != nil {
		s.logRequestError(r, err, "resolve current price")
		writeError(w, http.StatusInternalServerError, msgPriceData)
		return
	}

	writeJSON(w, http.StatusOK, res.Snapshot)
	s.archiveSnapshot(r.Context(), res.Snapshot, res.Strategy)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days := ParseDays(r.URL.Query().Get("days"))

	res, err := s.opts.History.History(r.Context(), days)
	if err != nil {
		s.logRequestError(r, err, "resolve price history")
		writeError(w, http.StatusInternalServerError, msgPriceHistory)
		return
	}

	if res.Unavailable != nil {
		writeJSON(w, http.StatusOK, res.Unavailable)
		return
	}

	writeJSON(w, http.StatusOK, res.Points)
	s.archiveHistory(r.Context(), res.TokenID, res.Points)
}

// ParseDays reads the history window from a query value. Like a leading
// integer parse, "30abc" yields 30. Missing, non-numeric and non-positive
// values yield DefaultHistoryDays.
func ParseDays(raw string) int {
	v := strings.TrimLeft(raw, " \t\n\r")

	end := 0
	if end < len(v) && (v[end] == '+' || v[end] == '-') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return domain.DefaultHistoryDays
	}

	n, err := strconv.Atoi(v[:end])
	if err != nil || n <= 0 {
		return domain.DefaultHistoryDays
	}
	return n
}

// observationView is the wire form of an archived snapshot.
type observationView struct {
	ID         int64                 `json:"id"`
	ObservedAt time.Time             `json:"observedAt"`
	Strategy   string                `json:"strategy"`
	Snapshot   *domain.PriceSnapshot `json:"snapshot"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	views := []observationView{}
	if s.opts.SnapshotStore != nil {
		obs, err := s.opts.SnapshotStore.Recent(r.Context(), limit)
		if err != nil {
			s.logRequestError(r, err, "list observations")
			writeError(w, http.StatusInternalServerError, msgObservations)
			return
		}
		for _, o := range obs {
			views = append(views, observationView{
				ID:         o.ID,
				ObservedAt: time.UnixMilli(o.ObservedAt).UTC(),
				Strategy:   o.Strategy,
				Snapshot:   &o.Snapshot,
			})
		}
	}

	writeJSON(w, http.StatusOK, views)
}

func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return DefaultObservationLimit
	}
	return min(n, MaxObservationLimit)
}

func (s *Server) logRequestError(r *http.Request, err error, msg string) {
	entry := s.logger.WithError(err).WithField("path", r.URL.Path)
	if errors.Is(err, context.Canceled) {
		entry.Debug(msg + ": client went away")
		return
	}
	entry.Error(msg)
}
