package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/eventhub-be/internal/auth"
	"github.com/isdelr/eventhub-be/internal/calendar"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/services"
	"github.com/rs/zerolog/log"
)

// EventHandler handles HTTP requests for events and attendance.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

func parseFilter(r *http.Request) (models.EventFilter, bool) {
	filter := models.EventFilter{Category: r.URL.Query().Get("category")}
	if day := r.URL.Query().Get("date"); day != "" {
		parsed, err := time.Parse(time.DateOnly, day)
		if err != nil {
			return filter, false
		}
		filter.Day = parsed
	}
	return filter, true
}

// GetAll lists events, optionally filtered by ?category= and ?date=YYYY-MM-DD.
func (h *EventHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(r)
	if !ok {
		respondMsg(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	events, err := h.service.ListEvents(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, "Failed to retrieve events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// Categories lists the distinct event categories.
func (h *EventHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// Get returns a single event.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, "Failed to retrieve event")
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Create handles the request to create a new event.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var input services.EventInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err, "Invalid event request")
		return
	}

	event, err := h.service.CreateEvent(r.Context(), user, input)
	if err != nil {
		respondError(w, r, err, "Failed to create event")
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// Update handles partial updates by the organizer.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var update models.EventUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, r, err, "Invalid event update")
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), chi.URLParam(r, "id"), user, update)
	if err != nil {
		respondError(w, r, err, "Failed to update event")
		return
	}
	respondJSON(w, http.StatusOK, event)
}

// Delete removes an event.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := h.service.DeleteEvent(r.Context(), chi.URLParam(r, "id"), user); err != nil {
		respondError(w, r, err, "Failed to delete event")
		return
	}
	respondMsg(w, http.StatusOK, "Event removed")
}

// Join toggles the caller's attendance.
func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	result, err := h.service.ToggleAttendance(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		respondError(w, r, err, "Failed to toggle attendance")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Calendar exports the filtered listing as an iCalendar feed.
func (h *EventHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(r)
	if !ok {
		respondMsg(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}
	events, err := h.service.ListEvents(r.Context(), filter)
	if err != nil {
		respondError(w, r, err, "Failed to retrieve events")
		return
	}
	writeCalendar(w, "events.ics", events)
}

// EventCalendar exports a single event as an iCalendar file.
func (h *EventHandler) EventCalendar(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, "Failed to retrieve event")
		return
	}
	writeCalendar(w, event.ID+".ics", []models.Event{event})
}

func writeCalendar(w http.ResponseWriter, filename string, events []models.Event) {
	var buf bytes.Buffer
	if err := calendar.Encode(&buf, events, time.Now()); err != nil {
		log.Error().Err(err).Int("events", len(events)).Msg("Failed to encode calendar")
		respondMsg(w, http.StatusInternalServerError, "Server error")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
