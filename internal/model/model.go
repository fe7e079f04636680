package model

import (
	"time"

	"deskcal/internal/datemath"
)

// Fields is the user-editable part of an event. It doubles as the
// candidate record checked by validation and as the replacement set
// applied on update.
//
// Date is YYYY-MM-DD, StartTime and EndTime are 24-hour HH:MM and Color is
// #RGB or #RRGGBB. The validate tags are enforced by package validate.
type Fields struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Date        string `json:"date" validate:"required,isodate"`
	StartTime   string `json:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" validate:"required,clock"`
	Color       string `json:"color" validate:"omitempty,rgbhex"`
}

// Event is a single day-scoped calendar entry as persisted in the blob.
//
// CreatedAt and UpdatedAt are Unix milliseconds so that the persisted
// layout stays a flat array of string and number fields.
type Event struct {
	ID string `json:"id"`
	Fields
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// Created returns CreatedAt as a time.Time.
func (e Event) Created() time.Time {
	return time.UnixMilli(e.CreatedAt)
}

// Updated returns UpdatedAt as a time.Time.
func (e Event) Updated() time.Time {
	return time.UnixMilli(e.UpdatedAt)
}

// Day parses the event's date.
func (e Event) Day() (datemath.Date, error) {
	return datemath.ParseISO(e.Date)
}

// Span returns the start and end instants of the event in loc. It fails
// if the date or either time is malformed.
func (e Event) Span(loc *time.Location) (time.Time, time.Time, error) {
	day, err := e.Day()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	startMin, err := datemath.ParseClock(e.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := datemath.ParseClock(e.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	midnight := day.In(loc)
	start := time.Date(midnight.Year(), midnight.Month(), midnight.Day(), startMin/60, startMin%60, 0, 0, loc)
	end := time.Date(midnight.Year(), midnight.Month(), midnight.Day(), endMin/60, endMin%60, 0, 0, loc)
	return start, end, nil
}
