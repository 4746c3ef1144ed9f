package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/store"
)

const eventSelect = `
	SELECT e.id, e.title, e.description, e.location, e.category, e.date_ms, e.image,
	       e.organizer_id, COALESCE(u.name, ''), e.created_at
	FROM events e LEFT JOIN users u ON u.id = e.organizer_id`

// scanEvent is a helper to scan an event from a row or rows object.
// Attendees are loaded separately.
func scanEvent(scanner interface{ Scan(...interface{}) error }) (models.Event, error) {
	var e models.Event
	var image sql.NullString
	var dateMS, createdMS int64
	err := scanner.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Category, &dateMS, &image,
		&e.Organizer.ID, &e.Organizer.Name, &createdMS,
	)
	if err != nil {
		return models.Event{}, err
	}
	e.Date = fromMillis(dateMS)
	e.CreatedAt = fromMillis(createdMS)
	e.Image = image.String
	e.Attendees = []models.UserRef{}
	return e, nil
}

// loadAttendees resolves the attendee references of the given events in insertion order.
func loadAttendees(ctx context.Context, q querier, eventIDs []string) (map[string][]models.UserRef, error) {
	out := make(map[string][]models.UserRef, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(eventIDs)), ",")
	args := make([]interface{}, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `
		SELECT a.event_id, u.id, u.name
		FROM event_attendees a JOIN users u ON u.id = a.user_id
		WHERE a.event_id IN (`+placeholders+`)
		ORDER BY a.rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var eventID string
		var ref models.UserRef
		if err := rows.Scan(&eventID, &ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], ref)
	}
	return out, rows.Err()
}

func getEvent(ctx context.Context, q querier, id string) (models.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx, eventSelect+" WHERE e.id = ?", id))
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Event{}, fmt.Errorf("event with id %s: %w", id, store.ErrNotFound)
		}
		return models.Event{}, err
	}
	attendees, err := loadAttendees(ctx, q, []string{id})
	if err != nil {
		return models.Event{}, err
	}
	if a, ok := attendees[id]; ok {
		e.Attendees = a
	}
	return e, nil
}

// CreateEvent inserts a new event and returns it with the organizer resolved.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	var image sql.NullString
	if event.Image != "" {
		image = sql.NullString{String: event.Image, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events(id, title, description, location, category, date_ms, image, organizer_id, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Title, event.Description, event.Location, event.Category,
		toMillis(event.Date), image, event.Organizer.ID, toMillis(event.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Event{}, fmt.Errorf("event with id %s: %w", event.ID, store.ErrConflict)
		}
		return models.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return getEvent(ctx, s.db, event.ID)
}

// ListEvents returns events sorted newest-first by date.
func (s *Store) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	var where []string
	var args []interface{}
	if filter.Category != "" {
		where = append(where, "e.category = ?")
		args = append(args, filter.Category)
	}
	if !filter.Day.IsZero() {
		start, end := filter.DayBounds()
		where = append(where, "e.date_ms >= ? AND e.date_ms < ?")
		args = append(args, toMillis(start), toMillis(end))
	}

	query := eventSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.date_ms DESC, e.created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	events := []models.Event{}
	ids := []string{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, e)
		ids = append(ids, e.ID)
	}
	// The pool holds a single connection; rows must be released before the next query.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attendees, err := loadAttendees(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if a, ok := attendees[events[i].ID]; ok {
			events[i].Attendees = a
		}
	}
	return events, nil
}

// GetEventByID retrieves a single event by its ID.
func (s *Store) GetEventByID(ctx context.Context, id string) (models.Event, error) {
	return getEvent(ctx, s.db, id)
}

// UpdateEvent applies the non-nil fields of update. Attendees are not touched.
func (s *Store) UpdateEvent(ctx context.Context, id string, update models.EventUpdate) (models.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Event{}, err
	}
	defer tx.Rollback()

	e, err := getEvent(ctx, tx, id)
	if err != nil {
		return models.Event{}, err
	}
	update.Apply(&e)

	var image sql.NullString
	if e.Image != "" {
		image = sql.NullString{String: e.Image, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE events SET title = ?, description = ?, location = ?, category = ?, date_ms = ?, image = ?
		WHERE id = ?`,
		e.Title, e.Description, e.Location, e.Category, toMillis(e.Date), image, id)
	if err != nil {
		return models.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// DeleteEvent removes an event and its attendee set.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event with id %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ToggleAttendee removes the membership row if present and inserts it otherwise,
// inside one transaction.
func (s *Store) ToggleAttendee(ctx context.Context, eventID, userID string) (models.AttendanceAction, []models.UserRef, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM events WHERE id = ?", eventID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil, fmt.Errorf("event with id %s: %w", eventID, store.ErrNotFound)
		}
		return "", nil, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM event_attendees WHERE event_id = ? AND user_id = ?", eventID, userID)
	if err != nil {
		return "", nil, err
	}
	action := models.AttendanceLeft
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO event_attendees(event_id, user_id, joined_at) VALUES(?, ?, ?)",
			eventID, userID, toMillis(time.Now()))
		if err != nil {
			return "", nil, fmt.Errorf("failed to add attendee: %w", err)
		}
		action = models.AttendanceJoined
	}

	attendees, err := loadAttendees(ctx, tx, []string{eventID})
	if err != nil {
		return "", nil, err
	}
	if err := tx.Commit(); err != nil {
		return "", nil, err
	}

	list := attendees[eventID]
	if list == nil {
		list = []models.UserRef{}
	}
	return action, list, nil
}

// ListCategories returns the distinct event categories in alphabetical order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT category FROM events ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountEvents returns the number of events.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}
