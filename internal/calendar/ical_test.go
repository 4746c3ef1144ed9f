package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	events := []models.Event{
		{
			ID:          "e1",
			Title:       "Meetup",
			Description: "Monthly meetup",
			Location:    "Hall 1",
			Category:    "tech",
			Date:        time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC),
			Organizer:   models.UserRef{ID: "u-ann", Name: "Ann"},
			Attendees:   []models.UserRef{{ID: "u-bob", Name: "Bob"}, {ID: "u-cy", Name: "Cy"}},
		},
		{ID: "e2", Title: "Bare", Date: time.Date(2026, 12, 1, 9, 30, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, events, now))

	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:-//eventhub//EN")
	assert.Contains(t, out, "DTSTART:20261101T180000Z")
	assert.Contains(t, out, "DTEND:20261101T200000Z")
	assert.Contains(t, out, "DTSTAMP:20261001T120000Z")

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	vevents := cal.Events()
	require.Len(t, vevents, 2)

	summary, err := vevents[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Meetup", summary)

	organizer := vevents[0].Props.Get(ical.PropOrganizer)
	require.NotNil(t, organizer)
	assert.Equal(t, "urn:uuid:u-ann", organizer.Value)
	assert.Equal(t, "Ann", organizer.Params.Get(ical.ParamCommonName))

	attendees := vevents[0].Props.Values(ical.PropAttendee)
	require.Len(t, attendees, 2)
	assert.Equal(t, "urn:uuid:u-bob", attendees[0].Value)
	assert.Equal(t, "Cy", attendees[1].Params.Get(ical.ParamCommonName))

	assert.Nil(t, vevents[1].Props.Get(ical.PropLocation))
	assert.Empty(t, vevents[1].Props.Values(ical.PropAttendee))
}

func TestEncode_NoEvents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil, time.Now()))

	assert.Equal(t, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//eventhub//EN\r\nEND:VCALENDAR\r\n", buf.String())
}
