// FilePath: api/resources/api.resource.metrics.go
package resources

import (
	"net/http"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultRangeWindow = 24 * time.Hour
	defaultRangeLimit  = 1000
	maxRangeLimit      = 10000
)

// rangeQuery is the shared query shape for both metrics endpoints.
// Timestamps are RFC3339; omitted bounds default to the last 24 hours.
type rangeQuery struct {
	From  time.Time `schema:"from"`
	To    time.Time `schema:"to"`
	Limit int       `schema:"limit"`
}

func (r *Resources) parseRange(req *http.Request) (rangeQuery, error) {
	query := rangeQuery{}
	if err := r.decoder.Decode(&query, req.URL.Query()); err != nil {
		return query, err
	}
	if query.To.IsZero() {
		query.To = time.Now().UTC()
	}
	if query.From.IsZero() {
		query.From = query.To.Add(-defaultRangeWindow)
	}
	if query.Limit <= 0 {
		query.Limit = defaultRangeLimit
	}
	if query.Limit > maxRangeLimit {
		query.Limit = maxRangeLimit
	}
	return query, nil
}

// GetStationMetrics serves station telemetry rows for a time range.
func (r *Resources) GetStationMetrics(w http.ResponseWriter, req *http.Request) {
	query, err := r.parseRange(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range query")
		return
	}
	rows, err := r.metrics.GetStationMetrics(req.Context(), query.From, query.To, query.Limit)
	if err != nil {
		nuts.L.Errorf("[API] Station metrics query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to query station metrics")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetPondMetrics serves pond telemetry rows for a time range.
func (r *Resources) GetPondMetrics(w http.ResponseWriter, req *http.Request) {
	query, err := r.parseRange(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range query")
		return
	}
	rows, err := r.metrics.GetPondMetrics(req.Context(), query.From, query.To, query.Limit)
	if err != nil {
		nuts.L.Errorf("[API] Pond metrics query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to query pond metrics")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
