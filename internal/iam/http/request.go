package http

import (
	"encoding/json"
	"net/http"

	"github.com/teamforge/iam/pkg/httpx"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// decodeJSON parses the request body into dst, writing a 400 and returning
// false when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
