package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const ownerHeader = "X-Owner-ID"

// ownerID pulls the caller identity from the X-Owner-ID header. Real
// authentication sits in front of this service; the header is the boundary.
func ownerID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(ownerHeader))
	return id, id != ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseOptionalDate parses a "2006-01-02" query or body value; empty is nil.
func parseOptionalDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return &t, nil
}
