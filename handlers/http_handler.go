// Package handlers provides HTTP request handlers for the FDA drugs API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/logging"
	"github.com/giygas/fdadrugs-api/search"
	"github.com/giygas/fdadrugs-api/wiki"
	"github.com/go-chi/chi/v5"
)

// maxWikiTermLength bounds the term forwarded to the summary service
const maxWikiTermLength = 100

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	searcher      interfaces.Searcher
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	wiki          interfaces.WikiClient
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	searcher interfaces.Searcher,
	dataStore interfaces.DataStore,
	validator interfaces.DataValidator,
	wikiClient interfaces.WikiClient,
	healthChecker interfaces.HealthChecker,
) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		searcher:      searcher,
		dataStore:     dataStore,
		validator:     validator,
		wiki:          wikiClient,
		healthChecker: healthChecker,
	}
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", h.lastModified().Format(http.TimeFormat))
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// lastModified is the corpus publication time, or now before the first load
func (h *HTTPHandlerImpl) lastModified() time.Time {
	if h.dataStore != nil {
		if t := h.dataStore.GetLastUpdated(); !t.IsZero() {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// respondWithSearchError maps search core errors to HTTP statuses
func (h *HTTPHandlerImpl) respondWithSearchError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *search.ClientInputError
	var notFound *search.NotFoundError

	switch {
	case errors.As(err, &inputErr):
		logging.Warn("Unusual user input", "path", r.URL.Path, "message", inputErr.Message)
		h.RespondWithError(w, http.StatusBadRequest, inputErr.Message)
	case errors.As(err, &notFound):
		h.RespondWithError(w, http.StatusBadRequest, notFound.Error())
	case errors.Is(err, search.ErrInternalRanking):
		h.RespondWithError(w, http.StatusInternalServerError, "Internal search error")
	default:
		logging.Error("Unexpected search error", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// SearchDrugs ranks drugs for the q parameter and returns one page
func (h *HTTPHandlerImpl) SearchDrugs(w http.ResponseWriter, r *http.Request) {
	params, err := h.validator.ParseSearchParams(r.URL.Query())
	if err != nil {
		h.respondWithSearchError(w, r, err)
		return
	}

	result, err := h.searcher.Search(params)
	if err != nil {
		h.respondWithSearchError(w, r, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, result)
}

// FindDrugByID returns the full drug, products included
func (h *HTTPHandlerImpl) FindDrugByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.validator.ValidateDrugID(id); err != nil {
		h.respondWithSearchError(w, r, err)
		return
	}

	drug, err := h.searcher.Lookup(id)
	if err != nil {
		h.respondWithSearchError(w, r, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, drug)
}

// ServePharmClasses returns every pharmacological class with its drug count
func (h *HTTPHandlerImpl) ServePharmClasses(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, h.dataStore.GetClassFrequency())
}

// WikiSummary proxies an encyclopedia summary for a drug or class name
func (h *HTTPHandlerImpl) WikiSummary(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "term")
	term, err := url.PathUnescape(raw)
	if err != nil {
		term = raw
	}
	term = strings.TrimSpace(term)

	if term == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Missing term")
		return
	}
	if utf8.RuneCountInString(term) > maxWikiTermLength {
		h.RespondWithError(w, http.StatusBadRequest, "Term too long")
		return
	}

	summary, err := h.wiki.Summary(r.Context(), term)
	if err != nil {
		if errors.Is(err, wiki.ErrNotFound) {
			h.RespondWithError(w, http.StatusNotFound, "No summary found for: "+term)
			return
		}
		logging.Warn("Summary lookup failed", "term", term, "error", err)
		h.RespondWithError(w, http.StatusBadGateway, "Summary service unavailable")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, summary)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status: status,
		Data:   data,
	})
}
