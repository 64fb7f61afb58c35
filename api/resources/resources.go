// FilePath: api/resources/resources.go
package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/schema"
	"github.com/pondworks/pondgate/internal/monitoring"
	"github.com/pondworks/pondgate/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// Resources bundles the read-only handlers over the core's output. The
// API has no write access back into the ingestion path.
type Resources struct {
	status  repository.StatusReader
	metrics repository.MetricsReader
	stats   *monitoring.Service
	deps    map[string]repository.Pinger
	decoder *schema.Decoder
}

func NewResources(status repository.StatusReader, metrics repository.MetricsReader, stats *monitoring.Service, deps map[string]repository.Pinger) *Resources {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	decoder.RegisterConverter(time.Time{}, convertTime)

	return &Resources{
		status:  status,
		metrics: metrics,
		stats:   stats,
		deps:    deps,
		decoder: decoder,
	}
}

func convertTime(value string) reflect.Value {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(ts)
}

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck reports process liveness, version, and a round-trip check
// of each backing sink. Any failing dependency degrades the response.
func (r *Resources) HealthCheck(w http.ResponseWriter, req *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Version:      nuts.GetVersion(),
		Dependencies: map[string]string{},
	}

	for name, dep := range r.deps {
		ctx, cancel := context.WithTimeout(req.Context(), healthPingTimeout)
		err := dep.Ping(ctx)
		cancel()
		if err != nil {
			nuts.L.Warnf("[API] Health ping failed for %s: %v", name, err)
			resp.Dependencies[name] = "unreachable"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "ok"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// Stats serves the ingestion counters.
func (r *Resources) Stats(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.stats.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		nuts.L.Errorf("[API] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
