package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexanderramin/sitetrack/internal/domain"
	"github.com/alexanderramin/sitetrack/internal/logger"
	"github.com/alexanderramin/sitetrack/internal/repository"
	"github.com/alexanderramin/sitetrack/internal/service"
)

// Problem is an RFC 7807 Problem Details body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusBadRequest: {
		typeURI: "https://sitetrack.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://sitetrack.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusConflict: {
		typeURI: "https://sitetrack.dev/errors/conflict",
		title:   "Conflict",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://sitetrack.dev/errors/rule-violation",
		title:   "Unprocessable Entity",
	},
	http.StatusServiceUnavailable: {
		typeURI: "https://sitetrack.dev/errors/service-unavailable",
		title:   "Service Unavailable",
	},
	http.StatusInternalServerError: {
		typeURI: "https://sitetrack.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
}

// WriteProblem writes an application/problem+json response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt.typeURI = "https://sitetrack.dev/errors/unknown"
		pt.title = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

// statusFor maps service and domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, domain.ErrVersionRace),
		errors.Is(err, domain.ErrProgressRecorded):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidPercentage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrImmutableBaseline),
		errors.Is(err, domain.ErrActualDateAlreadySet),
		errors.Is(err, domain.ErrInconsistentActualDates),
		errors.Is(err, domain.ErrNotConfigured),
		errors.Is(err, service.ErrStageNotInType):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// MapServiceError converts err to a problem response. Internal errors are
// logged and never echoed to the client.
func MapServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "method", r.Method, "error", err)
		WriteProblem(w, r, status, "Internal Server Error")
		return
	}
	WriteProblem(w, r, status, err.Error())
}
