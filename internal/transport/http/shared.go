// Package httptransport is the thin HTTP layer over the greencheck
// services. Handlers decode, delegate, and translate domain errors;
// business rules live in the services.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/thegreenwebfoundation/admin-portal-sub000/internal/platform/metrics"
	dErrors "github.com/thegreenwebfoundation/admin-portal-sub000/pkg/domain-errors"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error onto the wire format. Uncoded errors
// surface as opaque 500s so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		writeJSON(w, dErrors.ToHTTPStatus(domainErr.Code), errorResponse{
			Error: errorBody{Code: string(domainErr.Code), Message: domainErr.Message},
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error: errorBody{Code: string(dErrors.CodeInternal), Message: "internal error"},
	})
}

func boolQuery(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// latency observes request duration per route pattern.
func latency(m *metrics.Metrics, route string, next http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		m.RequestLatency.WithLabelValues(route, strconv.Itoa(sw.status)).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
