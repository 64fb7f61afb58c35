// FilePath: api/resources/api.resource.status.go
package resources

import (
	"net/http"

	nuts "github.com/vaudience/go-nuts"
)

// staleStatus is what readers see once the cache entry has expired: the
// key's absence itself signals staleness.
type staleStatus struct {
	Connected bool   `json:"connected"`
	Reason    string `json:"reason"`
}

// GetStatus serves the latest-status cache entry. An absent key is not
// an error; it means no reading arrived within the TTL window.
func (r *Resources) GetStatus(w http.ResponseWriter, req *http.Request) {
	status, found, err := r.status.GetLatestStatus(req.Context())
	if err != nil {
		nuts.L.Errorf("[API] Status read failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "status cache unavailable")
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, staleStatus{
			Connected: false,
			Reason:    "no reading within TTL window",
		})
		return
	}
	writeJSON(w, http.StatusOK, status)
}
