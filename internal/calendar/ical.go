// Package calendar renders events as iCalendar feeds.
package calendar

import (
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/isdelr/eventhub-be/internal/models"
)

const (
	productID = "-//eventhub//EN"

	// Events carry no end time; calendars get a fixed block.
	defaultDuration = 2 * time.Hour
)

// Encode writes events to w as a single VCALENDAR. An empty listing still
// yields a valid, empty calendar.
func Encode(w io.Writer, events []models.Event, now time.Time) error {
	if len(events) == 0 {
		// The ical encoder refuses calendars without components.
		_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:"+productID+"\r\nEND:VCALENDAR\r\n")
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	for _, e := range events {
		cal.Children = append(cal.Children, toVEvent(e, now))
	}
	return ical.NewEncoder(w).Encode(cal)
}

func toVEvent(e models.Event, now time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID)
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, e.Date.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, e.Date.UTC().Add(defaultDuration))

	if e.Description != "" {
		ve.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Location != "" {
		ve.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Category != "" {
		ve.Props.SetText(ical.PropCategories, e.Category)
	}
	if e.Organizer.ID != "" {
		ve.Props.Add(userProp(ical.PropOrganizer, e.Organizer))
	}
	for _, a := range e.Attendees {
		ve.Props.Add(userProp(ical.PropAttendee, a))
	}
	return ve
}

func userProp(name string, u models.UserRef) *ical.Prop {
	p := ical.NewProp(name)
	p.Value = "urn:uuid:" + u.ID
	if u.Name != "" {
		p.Params.Set(ical.ParamCommonName, u.Name)
	}
	return p
}
