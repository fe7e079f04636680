// Package view turns calendar data into render-ready values. It keeps no
// globals: the displayed month and selection travel in a ViewState that
// callers pass in and get back.
package view

import (
	"fmt"
	"time"

	"deskcal/internal/datemath"
)

// ViewState is what the presentation layer needs to remember between
// interactions.
type ViewState struct {
	Year            int        `json:"year"`
	Month           time.Month `json:"month"`
	SelectedDate    string     `json:"selectedDate,omitempty"`
	SelectedEventID string     `json:"selectedEventId,omitempty"`
}

// StateFor returns a state showing the month that contains now.
func StateFor(now time.Time) ViewState {
	return ViewState{Year: now.Year(), Month: now.Month()}
}

// NextMonth moves one month forward, rolling into the next year.
func (s ViewState) NextMonth() ViewState {
	s.Year, s.Month = datemath.AddMonths(s.Year, s.Month, 1)
	return s
}

// PrevMonth moves one month back, rolling into the previous year.
func (s ViewState) PrevMonth() ViewState {
	s.Year, s.Month = datemath.AddMonths(s.Year, s.Month, -1)
	return s
}

// Title is the heading shown above the grid, e.g. "March 2024".
func (s ViewState) Title() string {
	return fmt.Sprintf("%s %d", datemath.MonthName(s.Month), s.Year)
}
