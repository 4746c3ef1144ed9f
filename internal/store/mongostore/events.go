package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/isdelr/eventhub-be/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxToggleAttempts bounds the retries when concurrent toggles keep
// flipping membership between the two conditional updates.
const maxToggleAttempts = 5

// eventDoc is the stored shape of an event. Users are kept as bare ids and
// resolved into models.UserRef on the way out.
type eventDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Location    string    `bson:"location"`
	Category    string    `bson:"category"`
	Date        time.Time `bson:"date"`
	Image       string    `bson:"image,omitempty"`
	OrganizerID string    `bson:"organizer_id"`
	Attendees   []string  `bson:"attendees"`
	CreatedAt   time.Time `bson:"created_at"`
}

func newEventDoc(e models.Event) eventDoc {
	attendees := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		attendees = append(attendees, a.ID)
	}
	return eventDoc{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Category:    e.Category,
		Date:        e.Date.UTC(),
		Image:       e.Image,
		OrganizerID: e.Organizer.ID,
		Attendees:   attendees,
		CreatedAt:   e.CreatedAt.UTC(),
	}
}

// toEvent converts a stored document using the given id → name lookup.
// Attendees whose account no longer exists are skipped.
func (d eventDoc) toEvent(names map[string]string) models.Event {
	e := models.Event{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Location:    d.Location,
		Category:    d.Category,
		Date:        d.Date.UTC(),
		Image:       d.Image,
		Organizer:   models.UserRef{ID: d.OrganizerID, Name: names[d.OrganizerID]},
		Attendees:   make([]models.UserRef, 0, len(d.Attendees)),
		CreatedAt:   d.CreatedAt.UTC(),
	}
	for _, id := range d.Attendees {
		name, ok := names[id]
		if !ok {
			continue
		}
		e.Attendees = append(e.Attendees, models.UserRef{ID: id, Name: name})
	}
	return e
}

// resolveNames loads the display names of every user referenced by docs.
func (s *Store) resolveNames(ctx context.Context, docs ...eventDoc) (map[string]string, error) {
	seen := make(map[string]struct{})
	ids := []string{}
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, d := range docs {
		add(d.OrganizerID)
		for _, a := range d.Attendees {
			add(a)
		}
	}

	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1, "name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	var refs []struct {
		ID   string `bson:"_id"`
		Name string `bson:"name"`
	}
	if err := cur.All(ctx, &refs); err != nil {
		return nil, err
	}
	for _, r := range refs {
		names[r.ID] = r.Name
	}
	return names, nil
}

func (s *Store) resolveOne(ctx context.Context, doc eventDoc) (models.Event, error) {
	names, err := s.resolveNames(ctx, doc)
	if err != nil {
		return models.Event{}, err
	}
	return doc.toEvent(names), nil
}

// CreateEvent inserts a new event and returns it with the organizer resolved.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	doc := newEventDoc(event)
	if _, err := s.events.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Event{}, fmt.Errorf("event with id %s: %w", event.ID, store.ErrConflict)
		}
		return models.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return s.resolveOne(ctx, doc)
}

// ListEvents returns events sorted newest-first by date.
func (s *Store) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if !filter.Day.IsZero() {
		start, end := filter.DayBounds()
		query["date"] = bson.M{"$gte": start, "$lt": end}
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := s.events.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	names, err := s.resolveNames(ctx, docs...)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toEvent(names))
	}
	return events, nil
}

// GetEventByID retrieves a single event by its ID.
func (s *Store) GetEventByID(ctx context.Context, id string) (models.Event, error) {
	var doc eventDoc
	if err := s.events.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, fmt.Errorf("event with id %s: %w", id, store.ErrNotFound)
		}
		return models.Event{}, err
	}
	return s.resolveOne(ctx, doc)
}

// UpdateEvent sets the non-nil fields of update. Attendees are not touched.
func (s *Store) UpdateEvent(ctx context.Context, id string, update models.EventUpdate) (models.Event, error) {
	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Date != nil {
		set["date"] = update.Date.UTC()
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if len(set) == 0 {
		return s.GetEventByID(ctx, id)
	}

	var doc eventDoc
	err := s.events.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Event{}, fmt.Errorf("event with id %s: %w", id, store.ErrNotFound)
		}
		return models.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	return s.resolveOne(ctx, doc)
}

// DeleteEvent removes an event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("event with id %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ToggleAttendee tries a conditional add, then a conditional remove. Each
// step is a single atomic document update, so two concurrent toggles can
// never both add or both remove the same user.
func (s *Store) ToggleAttendee(ctx context.Context, eventID, userID string) (models.AttendanceAction, []models.UserRef, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		var doc eventDoc
		err := s.events.FindOneAndUpdate(ctx,
			bson.M{"_id": eventID, "attendees": bson.M{"$ne": userID}},
			bson.M{"$push": bson.M{"attendees": userID}},
			after).Decode(&doc)
		if err == nil {
			return s.toggled(ctx, models.AttendanceJoined, doc)
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil, fmt.Errorf("failed to add attendee: %w", err)
		}

		err = s.events.FindOneAndUpdate(ctx,
			bson.M{"_id": eventID, "attendees": userID},
			bson.M{"$pull": bson.M{"attendees": userID}},
			after).Decode(&doc)
		if err == nil {
			return s.toggled(ctx, models.AttendanceLeft, doc)
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil, fmt.Errorf("failed to remove attendee: %w", err)
		}

		// Neither update matched: the event is gone, or another toggle
		// flipped membership between the two updates.
		n, err := s.events.CountDocuments(ctx, bson.M{"_id": eventID})
		if err != nil {
			return "", nil, err
		}
		if n == 0 {
			return "", nil, fmt.Errorf("event with id %s: %w", eventID, store.ErrNotFound)
		}
	}
	return "", nil, fmt.Errorf("attendance for event %s kept changing: %w", eventID, store.ErrConflict)
}

func (s *Store) toggled(ctx context.Context, action models.AttendanceAction, doc eventDoc) (models.AttendanceAction, []models.UserRef, error) {
	e, err := s.resolveOne(ctx, doc)
	if err != nil {
		return "", nil, err
	}
	return action, e.Attendees, nil
}

// ListCategories returns the distinct event categories in alphabetical order.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	values, err := s.events.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if c, ok := v.(string); ok {
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// CountEvents returns the number of events.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	n, err := s.events.CountDocuments(ctx, bson.M{})
	return int(n), err
}
