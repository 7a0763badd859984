package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/fylaro/fylaro-backend/pkg/errors"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// writeJSON writes JSON with status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err through the error taxonomy and writes the
// standardized JSON error body. The message passes through unchanged.
func writeError(w http.ResponseWriter, err error) {
	he := errors.ToHTTPError(err)
	body := map[string]any{
		"error": he.Message,
		"code":  he.Code,
	}
	if len(he.Details) > 0 {
		body["details"] = he.Details
	}
	writeJSON(w, he.Status, body)
}
