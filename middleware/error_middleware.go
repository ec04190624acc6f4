package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	"roles-server/utils/errors"
)

// ErrorMiddleware turns panics into a standardized JSON 500.
func ErrorMiddleware(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorw("Panic recovered", "panic", rec, "path", r.URL.Path)
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes err as a JSON APIError. Fetch failures map to 502.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *errors.APIError
	var fetchErr *errors.FetchError
	switch {
	case stderrors.As(err, &apiErr):
	case stderrors.As(err, &fetchErr):
		apiErr = errors.NewAPIError("FETCH_ERROR", "Failed to fetch the places feed", http.StatusBadGateway, fetchErr.Error())
	default:
		apiErr = errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	}
	if apiErr.Status >= 500 {
		zap.S().Errorf("Server error %s (Details: %s)", apiErr.Error(), apiErr.Details)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(apiErr)
}
