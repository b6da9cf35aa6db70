// Package httpapi exposes the marketplace over REST. The caller's identity
// arrives in the X-User-ID header; role enforcement happens in the services,
// and ownership misses surface as 404 so the API never confirms that a
// foreign resource exists.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	app "github.com/hosthub/hosthub/internal/app"
	"github.com/hosthub/hosthub/internal/app/services/applications"
	"github.com/hosthub/hosthub/internal/app/services/identity"
	"github.com/hosthub/hosthub/internal/app/services/listings"
	"github.com/hosthub/hosthub/internal/app/storage"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the core REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", h.register)
	mux.HandleFunc("/auth/login", h.login)
	mux.HandleFunc("/host/dashboard", h.hostDashboard)
	mux.HandleFunc("/host/listings", h.hostListings)
	mux.HandleFunc("/host/listings/", h.hostListingResources)
	mux.HandleFunc("/host/applications/", h.hostApplicationResources)
	mux.HandleFunc("/traveler/applications", h.travelerApplications)
	mux.HandleFunc("/listings", h.searchListings)
	mux.HandleFunc("/listings/", h.listingResources)
	mux.HandleFunc("/settings", h.settings)
	mux.HandleFunc("/healthz", h.healthz)
	return withRequestID(mux)
}

// withRequestID tags each request with an id for log correlation, honouring
// one supplied by an upstream proxy.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Identity.Register(r.Context(), identity.RegisterInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
		Role:      payload.Role,
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, identity.ErrEmailTaken) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.app.Identity.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, identity.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) hostDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	hostID, ok := callerID(w, r)
	if !ok {
		return
	}

	dash, err := h.app.Listings.Dashboard(r.Context(), hostID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *handler) hostListings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	hostID, ok := callerID(w, r)
	if !ok {
		return
	}

	var payload listingPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Listings.Create(r.Context(), hostID, payload.input())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) hostListingResources(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "/host/listings/")
	if !ok {
		return
	}
	hostID, ok := callerID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		details, apps, err := h.app.Listings.Details(r.Context(), listingID, &hostID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if details == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("listing %d not found", listingID))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"listing":      details,
			"applications": apps,
		})

	case http.MethodPut:
		var payload listingPayload
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ok, err := h.app.Listings.Update(r.Context(), listingID, hostID, payload.input())
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("listing %d not found", listingID))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		ok, err := h.app.Listings.Delete(r.Context(), listingID, hostID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("listing %d not found", listingID))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) hostApplicationResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/host/applications"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] != "status" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	applicationID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid application id %q", parts[0]))
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	hostID, ok := callerID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ok, err = h.app.Applications.UpdateStatus(r.Context(), applicationID, payload.Status, hostID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("application %d not found", applicationID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) travelerApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	travelerID, ok := callerID(w, r)
	if !ok {
		return
	}

	apps, err := h.app.Applications.ListForTraveler(r.Context(), travelerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *handler) searchListings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filter := storage.SearchFilter{
		Location: q.Get("location"),
		WorkType: q.Get("work_type"),
	}
	if raw := q.Get("max_duration"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max_duration %q", raw))
			return
		}
		filter.MaxDurationDays = v
	}
	page := queryInt(q.Get("page"), 1)
	pageSize := queryInt(q.Get("page_size"), 0)

	result, err := h.app.Search.Search(r.Context(), filter, page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listingResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/listings"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if parts[0] == "recent" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rows, err := h.app.Search.Recent(r.Context(), queryInt(r.URL.Query().Get("count"), 0))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}

	listingID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid listing id %q", parts[0]))
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		row, err := h.app.Search.Listing(r.Context(), listingID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if row == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("listing %d not found", listingID))
			return
		}
		writeJSON(w, http.StatusOK, row)
		return
	}

	if len(parts) == 2 && parts[1] == "applications" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		travelerID, ok := callerID(w, r)
		if !ok {
			return
		}
		var payload struct {
			Introduction string `json:"introduction"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		created, err := h.app.Applications.Apply(r.Context(), travelerID, listingID, payload.Introduction)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, applications.ErrDuplicateApplication) {
				status = http.StatusConflict
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *handler) settings(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := h.app.Identity.GetSettings(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if settings == nil {
			writeError(w, http.StatusNotFound, fmt.Errorf("user %d not found", userID))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":     settings.User,
			"host":     settings.Host,
			"traveler": settings.Traveler,
		})

	case http.MethodPut:
		var payload struct {
			FirstName         string `json:"first_name"`
			LastName          string `json:"last_name"`
			Email             string `json:"email"`
			PreferredLanguage string `json:"preferred_language"`
			LanguageSpoken    string `json:"language_spoken"`
			Skills            string `json:"skills"`
			Availability      string `json:"availability"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ok, err := h.app.Identity.UpdateSettings(r.Context(), userID, identity.SettingsInput{
			FirstName:         payload.FirstName,
			LastName:          payload.LastName,
			Email:             payload.Email,
			PreferredLanguage: payload.PreferredLanguage,
			LanguageSpoken:    payload.LanguageSpoken,
			Skills:            payload.Skills,
			Availability:      payload.Availability,
		})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, identity.ErrEmailTaken) {
				status = http.StatusConflict
			}
			writeError(w, status, err)
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("user %d not found", userID))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listingPayload is the wire shape shared by create and update.
type listingPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	WorkHours    int    `json:"work_hours"`
	DurationDays int    `json:"duration_days"`
	WorkType     string `json:"work_type"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	ZipCode      string `json:"zip_code"`
}

func (p listingPayload) input() listings.Input {
	return listings.Input{
		Title:        p.Title,
		Description:  p.Description,
		WorkHours:    p.WorkHours,
		DurationDays: p.DurationDays,
		WorkType:     p.WorkType,
		Country:      p.Country,
		State:        p.State,
		City:         p.City,
		ZipCode:      p.ZipCode,
	}
}

// callerID reads the authenticated user id from X-User-ID. Writes 401 and
// returns false when the header is absent or malformed.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("missing X-User-ID header"))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid X-User-ID header"))
		return 0, false
	}
	return id, true
}

// pathID extracts the single numeric id segment after prefix.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if trimmed == "" || strings.Contains(trimmed, "/") {
		w.WriteHeader(http.StatusNotFound)
		return 0, false
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id %q", trimmed))
		return 0, false
	}
	return id, true
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
