package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "deskcal/internal/log"
	"deskcal/internal/model"
)

const productID = "-//deskcal//deskcal calendar//EN"

// uidDomain is appended to event IDs to form globally unique ICS UIDs.
const uidDomain = "@deskcal"

// Export serializes events as an iCalendar document. Dates and times are
// interpreted in loc and written in UTC. Events whose stored date or times
// do not parse are left out and logged.
func Export(events []model.Event, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		start, end, err := ev.Span(loc)
		if err != nil {
			appLog.Warn("ics export: skipping event with bad date/time", "id", ev.ID, "err", err)
			continue
		}

		ve := cal.AddEvent(ev.ID + uidDomain)
		ve.SetCreatedTime(ev.Created())
		ve.SetDtStampTime(ev.Updated())
		ve.SetModifiedAt(ev.Updated())
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Color != "" {
			ve.SetProperty(hexColorProperty, ev.Color)
		}
	}

	return cal.Serialize()
}
