package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}

// idParam parses the named path parameter as a positive id.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return id, true
}

// directoryParam parses a directory reference where "root", "" and "0" all
// mean the root directory, returned as nil.
func directoryParam(w http.ResponseWriter, raw, name string) (*int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "root" || raw == "0" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		BadRequest(w, fmt.Sprintf("invalid %s %q", name, raw))
		return nil, false
	}
	return &id, true
}

// pageParams reads current and size from the query string. Missing values are
// left at zero for the service to default.
func pageParams(w http.ResponseWriter, r *http.Request) (kb.PageRequest, bool) {
	var req kb.PageRequest
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"current", &req.Current},
		{"size", &req.Size},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			BadRequest(w, fmt.Sprintf("invalid %s %q", p.name, raw))
			return req, false
		}
		*p.dst = v
	}
	return req, true
}
